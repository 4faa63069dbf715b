package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"                                 _      _ ", "#34d399"},
	{"  _ __ ___ _ __ ___   ___   __| | ___| |", "#2dd4bf"},
	{" | '__/ _ \\ '_ ` _ \\ / _ \\ / _` |/ _ \\ |", "#22d3ee"},
	{" | | |  __/ | | | | | (_) | (_| |  __/ |", "#38bdf8"},
	{" |_|  \\___|_| |_| |_|\\___/ \\__,_|\\___|_|", "#60a5fa"},
}

// PrintBanner writes the remodel banner to w using a teal to blue gradient.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
