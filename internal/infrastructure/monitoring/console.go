// Package monitoring implements the supplemented observer/metrics
// features of SPEC_FULL.md §12: a console stream sink and a
// per-workflow/per-node-type metrics summary, both grounded on the
// teacher's metrics_display.go ANSI-report helper and
// monitoring.MetricsCollector before that generation was pruned for the
// wave-engine it served.
package monitoring

import (
	"fmt"
	"os"

	"github.com/graflow/graflow/internal/stream"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// ConsoleSink renders the stream event envelope as colorized terminal
// lines, one per event, for CLI/demo use.
type ConsoleSink struct{}

// NewConsoleSink constructs a ConsoleSink.
func NewConsoleSink() *ConsoleSink { return &ConsoleSink{} }

func (ConsoleSink) Emit(event stream.Event) {
	color := colorGray
	switch event.Type {
	case stream.EventWorkflowStart, stream.EventNodeStart:
		color = colorCyan
	case stream.EventWorkflowComplete, stream.EventNodeComplete:
		color = colorGreen
	case stream.EventStateUpdated:
		color = colorYellow
	case stream.EventError:
		color = colorRed
	}
	fmt.Fprintf(os.Stdout, "%s[%s]%s depth=%d path=%v %s\n",
		color, event.Type, colorReset, event.Depth, event.Path, formatData(event.Data))
}

func formatData(data any) string {
	if data == nil {
		return ""
	}
	return fmt.Sprintf("%+v", data)
}
