package component

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/kbukum/evtsrc/logger"
)

// mockComponent implements Component for testing.
type mockComponent struct {
	name       string
	startErr   error
	stopErr    error
	health     Health
	startOrder *[]string
	stopOrder  *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	if m.startOrder != nil {
		*m.startOrder = append(*m.startOrder, m.name)
	}
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	if m.stopOrder != nil {
		*m.stopOrder = append(*m.stopOrder, m.name)
	}
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) Health {
	return m.health
}

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.SetLogger(logger.Nop())
	return r
}

func TestRegister_Duplicate(t *testing.T) {
	r := newTestRegistry()
	c := &mockComponent{name: "producer"}
	if err := r.Register(c); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(c); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if r.Get("producer") != c {
		t.Error("expected Get to return the registered component")
	}
	if r.Get("missing") != nil {
		t.Error("expected nil for unknown component")
	}
}

func TestStartStopOrder(t *testing.T) {
	r := newTestRegistry()
	var started, stopped []string
	for _, name := range []string{"producer", "server"} {
		_ = r.Register(&mockComponent{name: name, startOrder: &started, stopOrder: &stopped})
	}

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if strings.Join(started, ",") != "producer,server" {
		t.Errorf("unexpected start order %v", started)
	}
	if strings.Join(stopped, ",") != "server,producer" {
		t.Errorf("unexpected stop order %v", stopped)
	}
}

func TestStartAll_RollsBackOnFailure(t *testing.T) {
	r := newTestRegistry()
	var started, stopped []string
	_ = r.Register(&mockComponent{name: "producer", startOrder: &started, stopOrder: &stopped})
	_ = r.Register(&mockComponent{name: "server", startErr: fmt.Errorf("bind: address in use"), startOrder: &started, stopOrder: &stopped})

	err := r.StartAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failed to start server") {
		t.Fatalf("expected start failure for server, got %v", err)
	}
	if strings.Join(stopped, ",") != "producer" {
		t.Errorf("expected producer to be stopped after rollback, got %v", stopped)
	}
}

func TestStopAll_CollectsErrors(t *testing.T) {
	r := newTestRegistry()
	_ = r.Register(&mockComponent{name: "consumer", stopErr: fmt.Errorf("already closed")})
	_ = r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "already closed") {
		t.Errorf("expected aggregated stop error, got %v", err)
	}
}

func TestHealthAll(t *testing.T) {
	r := newTestRegistry()
	_ = r.Register(&mockComponent{name: "a", health: Health{Name: "a", Status: StatusHealthy}})
	_ = r.Register(&mockComponent{name: "b", health: Health{Name: "b", Status: StatusUnhealthy, Message: "closed"}})

	results := r.HealthAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Status != StatusUnhealthy {
		t.Errorf("expected b unhealthy, got %s", results[1].Status)
	}
}

type describedComponent struct {
	mockComponent
	desc Description
}

func (d *describedComponent) Describe() Description { return d.desc }

func TestDescribe(t *testing.T) {
	r := newTestRegistry()
	_ = r.Register(&mockComponent{name: "plain"})
	_ = r.Register(&describedComponent{
		mockComponent: mockComponent{name: "sse-producer"},
		desc:          Description{Type: "producer", Details: "path=/events"},
	})

	descs := r.Describe()
	if len(descs) != 2 {
		t.Fatalf("expected 2 descriptions, got %d", len(descs))
	}
	if descs[0].Name != "plain" || descs[0].Type != "" {
		t.Errorf("unexpected plain description: %+v", descs[0])
	}
	if descs[1].Name != "sse-producer" || descs[1].Type != "producer" || descs[1].Details != "path=/events" {
		t.Errorf("unexpected producer description: %+v", descs[1])
	}
}
