package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// StreamMetrics holds the instruments recorded by producers and consumers.
type StreamMetrics struct {
	messagesEmitted metric.Int64Counter
	heartbeats      metric.Int64Counter
	eventsReceived  metric.Int64Counter
	eosTotal        metric.Int64Counter
}

// NewStreamMetrics creates stream instruments on the given meter.
func NewStreamMetrics(meter metric.Meter) (*StreamMetrics, error) {
	messagesEmitted, err := meter.Int64Counter("sse.messages.emitted",
		metric.WithDescription("Formatted SSE records broadcast by producers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sse.messages.emitted counter: %w", err)
	}

	heartbeats, err := meter.Int64Counter("sse.heartbeats",
		metric.WithDescription("Heartbeat comments emitted by producers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sse.heartbeats counter: %w", err)
	}

	eventsReceived, err := meter.Int64Counter("sse.consumer.events",
		metric.WithDescription("Events decoded by consumers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sse.consumer.events counter: %w", err)
	}

	eosTotal, err := meter.Int64Counter("sse.eos",
		metric.WithDescription("End-of-stream markers sent or recognized"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sse.eos counter: %w", err)
	}

	return &StreamMetrics{
		messagesEmitted: messagesEmitted,
		heartbeats:      heartbeats,
		eventsReceived:  eventsReceived,
		eosTotal:        eosTotal,
	}, nil
}

// RecordEmitted records one broadcast record and the number of waiters it reached.
func (m *StreamMetrics) RecordEmitted(ctx context.Context, event string, waiters int) {
	if m == nil {
		return
	}
	m.messagesEmitted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.Bool("delivered", waiters > 0),
	))
}

// RecordHeartbeat records one heartbeat comment.
func (m *StreamMetrics) RecordHeartbeat(ctx context.Context) {
	if m == nil {
		return
	}
	m.heartbeats.Add(ctx, 1)
}

// RecordReceived records one event decoded by a consumer.
func (m *StreamMetrics) RecordReceived(ctx context.Context, event string) {
	if m == nil {
		return
	}
	m.eventsReceived.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}

// RecordEOS records an EOS marker sent ("producer") or recognized ("consumer").
func (m *StreamMetrics) RecordEOS(ctx context.Context, side string) {
	if m == nil {
		return
	}
	m.eosTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("side", side)))
}
