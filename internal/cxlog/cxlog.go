// Package cxlog wires up the zerolog logger the rest of the module writes
// through, following the console-writer-for-a-terminal/JSON-otherwise split
// zerolog itself recommends. The dependency is the one smilemakc-mbflow
// already pulls in for its own request logging; this package just gives it
// a dedicated home instead of reaching for log.Logger from call sites.
package cxlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how New builds a logger.
type Options struct {
	// Level is parsed with zerolog.ParseLevel; an empty or unrecognized
	// value falls back to zerolog.InfoLevel.
	Level string
	// JSON forces structured JSON output even when Writer is a terminal.
	JSON bool
	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// New builds a logger configured per opts.
func New(opts Options) zerolog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	var out io.Writer = w
	if !opts.JSON {
		if f, ok := w.(*os.File); ok && isTerminal(f) {
			out = zerolog.ConsoleWriter{Out: f, TimeFormat: time.RFC3339}
		}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
