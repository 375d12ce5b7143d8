package observability

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns StreamMetrics backed by a manual reader.
func newTestMetrics(t *testing.T) (*StreamMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewStreamMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewStreamMetrics failed: %v", err)
	}
	return m, reader
}

func counterTotal(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s is not an int64 sum", name)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("evtsrc")
	if cfg.ServiceName != "evtsrc" {
		t.Errorf("expected service name evtsrc, got %q", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("unexpected endpoint %q", cfg.Endpoint)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("unexpected interval %v", cfg.Interval)
	}
	if cfg.Enabled {
		t.Error("metrics export should be opt-in")
	}
}

func TestStreamMetrics_Record(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordEmitted(ctx, "message", 2)
	m.RecordEmitted(ctx, "foo", 0)
	m.RecordHeartbeat(ctx)
	m.RecordReceived(ctx, "message")
	m.RecordEOS(ctx, "producer")
	m.RecordEOS(ctx, "consumer")

	if got := counterTotal(t, reader, "sse.messages.emitted"); got != 2 {
		t.Errorf("expected 2 emitted, got %d", got)
	}
	if got := counterTotal(t, reader, "sse.heartbeats"); got != 1 {
		t.Errorf("expected 1 heartbeat, got %d", got)
	}
	if got := counterTotal(t, reader, "sse.consumer.events"); got != 1 {
		t.Errorf("expected 1 received, got %d", got)
	}
	if got := counterTotal(t, reader, "sse.eos"); got != 2 {
		t.Errorf("expected 2 eos, got %d", got)
	}
}

func TestStreamMetrics_NilIsNoop(t *testing.T) {
	var m *StreamMetrics
	ctx := context.Background()
	m.RecordEmitted(ctx, "message", 1)
	m.RecordHeartbeat(ctx)
	m.RecordReceived(ctx, "message")
	m.RecordEOS(ctx, "producer")
}

func TestMeter(t *testing.T) {
	if Meter("evtsrc") == nil {
		t.Error("expected non-nil meter from global provider")
	}
}
