package sse

import (
	"context"
	"strings"
	"testing"

	"github.com/kbukum/evtsrc/component"
)

func TestComponent_Lifecycle(t *testing.T) {
	p := newTestProducer(t, Config{EOSMarker: Chunk{Data: "EOS"}})
	c := NewComponent(p, "/events")
	ctx := context.Background()

	if c.Name() != "sse-producer" {
		t.Errorf("unexpected name %q", c.Name())
	}
	if c.Producer() != p {
		t.Error("expected wrapped producer")
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %s", h.Status)
	}

	next := p.MessagePromise()
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if got := awaitMessage(t, next); got != "data: EOS\n\n" {
		t.Errorf("expected EOS on stop, got %q", got)
	}
	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy after stop, got %s", h.Status)
	}

	// Stopping an already closed producer is not an error.
	if err := c.Stop(ctx); err != nil {
		t.Errorf("second Stop failed: %v", err)
	}
}

func TestComponent_Describe(t *testing.T) {
	p := newTestProducer(t, Config{AsJSON: true, EOSMarker: Chunk{Data: "EOS"}})
	d := NewComponent(p, "/events").Describe()

	if d.Type != "producer" {
		t.Errorf("unexpected type %q", d.Type)
	}
	if !strings.Contains(d.Details, "path=/events") || !strings.Contains(d.Details, "json=true") {
		t.Errorf("unexpected details %q", d.Details)
	}
}
