package bootstrap

import (
	"fmt"
	"io"
	"time"

	"github.com/kbukum/evtsrc/component"
)

// writeSummary prints a short startup report: one line per component with
// its type, details and current health. descs and health are both in
// registration order.
func writeSummary(w io.Writer, name, version string, took time.Duration, descs []component.Description, health []component.Health) {
	fmt.Fprintf(w, "\n%s %s started in %.2fs\n", name, version, took.Seconds())

	if len(descs) == 0 {
		fmt.Fprintf(w, "   └── No components registered\n\n")
		return
	}

	healthy := 0
	for i, d := range descs {
		prefix := "├──"
		if i == len(descs)-1 {
			prefix = "└──"
		}
		status := "unknown"
		if i < len(health) {
			h := health[i]
			status = string(h.Status)
			if h.Status == component.StatusHealthy {
				healthy++
			}
		}
		line := d.Name
		if d.Type != "" {
			line += " [" + d.Type + "]"
		}
		if d.Details != "" {
			line += " " + d.Details
		}
		fmt.Fprintf(w, "   %s %s (%s)\n", prefix, line, status)
	}
	fmt.Fprintf(w, "   %d/%d components healthy\n\n", healthy, len(descs))
}
