// Package logging sets up the process-level structured logger used by the
// service layer and persistence backends. It is independent of the
// per-run emit.Emitter observability stream; this package covers the
// ambient "something is wrong with the process" diagnostics, not workflow
// run events.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger writing to w at the given level. level accepts
// zerolog's standard names ("debug", "info", "warn", "error"); an unknown or
// empty level falls back to "info".
func New(w io.Writer, level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(parsed).With().Timestamp().Logger()
}

// Default returns a JSON logger writing to stderr at info level; the
// service package uses it when no logger is supplied.
func Default() zerolog.Logger {
	return New(os.Stderr, "info")
}
