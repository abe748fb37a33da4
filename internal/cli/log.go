// Package cli implements the gvbind command-line interface.
//
// The CLI reads graph descriptions (JSON or TOML), runs them through the
// shared render pipeline and writes the artifacts to disk. It is built
// using cobra and logs via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - render: Lay out a description and write SVG, PNG, PDF, DOT, ...
//   - layout: Print the laid-out DOT or the node and edge geometry
//   - engines, formats, presets: List what the pipeline supports
//   - serve: Run the HTTP render service
//   - cache: Inspect and clear the render cache
//   - config: Inspect the configuration file
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// elapsed returns the time since the tracker was created.
func (p *progress) elapsed() time.Duration {
	return time.Since(p.start)
}

// done logs msg along with the elapsed time since progress was created.
// The duration is rounded to the nearest millisecond.
// Example output: "Rendered graph.json (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, p.elapsed().Round(time.Millisecond))
}
