package endpoint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/evtsrc/component"
)

func serve(t *testing.T, h gin.HandlerFunc) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", h)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	return rr.Code, body
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []component.HealthStatus
		wantCode   int
		wantStatus string
	}{
		{"no components", nil, http.StatusOK, "healthy"},
		{"all healthy", []component.HealthStatus{component.StatusHealthy}, http.StatusOK, "healthy"},
		{"degraded", []component.HealthStatus{component.StatusHealthy, component.StatusDegraded}, http.StatusOK, "degraded"},
		{"unhealthy", []component.HealthStatus{component.StatusDegraded, component.StatusUnhealthy}, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := func(context.Context) []component.Health {
				out := make([]component.Health, len(tt.statuses))
				for i, s := range tt.statuses {
					out[i] = component.Health{Name: "c", Status: s}
				}
				return out
			}
			code, body := serve(t, Health("evtsrc", checker, nil))
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if body["status"] != tt.wantStatus {
				t.Errorf("status = %v, want %s", body["status"], tt.wantStatus)
			}
			if body["service"] != "evtsrc" {
				t.Errorf("service = %v", body["service"])
			}
			if _, ok := body["stream"]; ok {
				t.Error("stream section reported without a reporter")
			}
		})
	}
}

func TestHealth_Stream(t *testing.T) {
	tests := []struct {
		name       string
		status     StreamStatus
		wantStatus string
	}{
		{"open stream", StreamStatus{Path: "/events", Readers: 2, Subscribers: 2, Waiting: 1}, "healthy"},
		{"closed stream", StreamStatus{Path: "/events", Closed: true}, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := serve(t, Health("evtsrc", nil, func() StreamStatus { return tt.status }))
			if code != http.StatusOK {
				t.Errorf("code = %d", code)
			}
			if body["status"] != tt.wantStatus {
				t.Errorf("status = %v, want %s", body["status"], tt.wantStatus)
			}
			stream, ok := body["stream"].(map[string]any)
			if !ok {
				t.Fatalf("missing stream section: %v", body)
			}
			if stream["path"] != "/events" ||
				stream["readers"] != float64(tt.status.Readers) ||
				stream["closed"] != tt.status.Closed {
				t.Errorf("stream = %v, want %+v", stream, tt.status)
			}
		})
	}
}

func TestHealth_UnhealthyComponentWinsOverStream(t *testing.T) {
	checker := func(context.Context) []component.Health {
		return []component.Health{{Name: "sse-producer", Status: component.StatusUnhealthy}}
	}
	code, body := serve(t, Health("evtsrc", checker, func() StreamStatus { return StreamStatus{Closed: true} }))
	if code != http.StatusServiceUnavailable || body["status"] != "unhealthy" {
		t.Errorf("got %d %v", code, body["status"])
	}
}

func TestAlive(t *testing.T) {
	code, body := serve(t, Alive("evtsrc"))
	if code != http.StatusOK || body["status"] != "alive" {
		t.Errorf("got %d %v", code, body)
	}
	if body["uptime"] == nil {
		t.Error("expected uptime")
	}
}

func TestInfo(t *testing.T) {
	code, body := serve(t, Info("evtsrc"))
	if code != http.StatusOK {
		t.Fatalf("got %d", code)
	}
	if body["service"] != "evtsrc" || body["version"] == nil || body["uptime"] == nil {
		t.Errorf("missing build info: %v", body)
	}
}
