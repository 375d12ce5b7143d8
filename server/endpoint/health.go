package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/evtsrc/component"
)

// HealthChecker returns the health of every registered component.
type HealthChecker func(ctx context.Context) []component.Health

// StreamStatus describes the event stream served next to the API.
type StreamStatus struct {
	Path        string `json:"path"`
	Readers     int    `json:"readers"`
	Subscribers int    `json:"subscribers"`
	Waiting     int    `json:"waiting"`
	Closed      bool   `json:"closed"`
}

// StreamReporter returns the current stream status.
type StreamReporter func() StreamStatus

// HealthReport is the /health response body.
type HealthReport struct {
	Status     component.HealthStatus `json:"status"`
	Service    string                 `json:"service"`
	Timestamp  string                 `json:"timestamp"`
	Stream     *StreamStatus          `json:"stream,omitempty"`
	Components []component.Health     `json:"components"`
}

// Health reports the worst component status, with 503 when any component
// is unhealthy. A closed stream downgrades a healthy report to degraded.
func Health(serviceName string, checker HealthChecker, stream StreamReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := HealthReport{
			Status:     component.StatusHealthy,
			Service:    serviceName,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Components: []component.Health{},
		}
		if checker != nil {
			report.Components = checker(c.Request.Context())
			report.Status = worst(report.Components)
		}
		if stream != nil {
			st := stream()
			report.Stream = &st
			if st.Closed && report.Status == component.StatusHealthy {
				report.Status = component.StatusDegraded
			}
		}

		code := http.StatusOK
		if report.Status == component.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, report)
	}
}

func worst(components []component.Health) component.HealthStatus {
	status := component.StatusHealthy
	for _, h := range components {
		switch h.Status {
		case component.StatusUnhealthy:
			return component.StatusUnhealthy
		case component.StatusDegraded:
			status = component.StatusDegraded
		}
	}
	return status
}
