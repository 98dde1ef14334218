// Package cli implements the sawtooth command-line interface.
//
// # Commands
//
//   - render: lay out a batch of profiles and write DXF, SVG, JSON or script
//     files, or stream the drawing to a running CAD host (--host)
//   - inspect: print the derived geometry of every profile as a table
//   - serve: expose the pipeline over HTTP
//   - cache: manage the artifact cache
//
// Batches come from a TOML, YAML or JSON file, from -p tuples, or both; flags
// override file values.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Logs go to
// stderr, command output to stdout.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Rendered 3 files (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
