package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/remodel/pkg/domain"
	"github.com/muesli/termenv"
)

// Status writes a one-line verdict, colored on terminals.
func Status(w io.Writer, name string, passed bool, detail string) {
	out := termenv.NewOutput(w)
	label, color := "PASS", "#22c55e"
	if !passed {
		label, color = "FAIL", "#ef4444"
	}
	verdict := out.String(label).Foreground(out.Color(color)).Bold()
	if detail != "" {
		fmt.Fprintf(w, "%s %s (%s)\n", verdict, name, detail)
		return
	}
	fmt.Fprintf(w, "%s %s\n", verdict, name)
}

// Phase styles a phase name: the initial phase dim, painting green, the rest plain.
func Phase(w io.Writer, p domain.Phase, initial domain.Phase) string {
	out := termenv.NewOutput(w)
	s := out.String(string(p))
	switch p {
	case initial:
		return s.Faint().String()
	case domain.PhasePainting:
		return s.Foreground(out.Color("#22c55e")).String()
	}
	return s.String()
}
