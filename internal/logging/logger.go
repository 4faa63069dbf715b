package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Output formats accepted by WithFormat.
const (
	FormatText = "text"
	FormatJSON = "json"
)

type options struct {
	format string
	out    io.Writer
}

// Option configures New.
type Option func(*options)

// WithFormat selects the text or JSON handler.
func WithFormat(format string) Option {
	return func(o *options) { o.format = format }
}

// WithWriter redirects the log stream. Stderr is the default so that stdout stays
// free for the MCP stdio transport.
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// ParseFormat checks a format name.
func ParseFormat(s string) (string, error) {
	switch s {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown log format %q", s)
}

// New creates the server logger.
func New(level slog.Level, opts ...Option) *slog.Logger {
	o := options{format: FormatText, out: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}
	ho := &slog.HandlerOptions{Level: level, ReplaceAttr: normalizeAttr}
	if o.format == FormatJSON {
		return slog.New(slog.NewJSONHandler(o.out, ho))
	}
	return slog.New(slog.NewTextHandler(o.out, ho))
}

// normalizeAttr folds "error" into "err" and renders error values through
// Error(), including errors that also implement json.Marshaler.
func normalizeAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == "error" {
		a.Key = "err"
	}
	if a.Value.Kind() != slog.KindAny {
		return a
	}
	if err, ok := a.Value.Any().(error); ok {
		a.Value = slog.StringValue(err.Error())
	}
	return a
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
