package sse

import (
	"context"
	"fmt"

	"github.com/kbukum/evtsrc/component"
	"github.com/kbukum/evtsrc/errors"
)

// Component wraps a Producer as a lifecycle-managed component.
// Stopping it closes the producer, which emits the EOS marker.
type Component struct {
	producer *Producer
	path     string
}

// ensure Component satisfies component.Component and Describable.
var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent wraps p, served at path.
func NewComponent(p *Producer, path string) *Component {
	return &Component{producer: p, path: path}
}

// Producer returns the wrapped producer.
func (c *Component) Producer() *Producer { return c.producer }

// Name returns the component name.
func (c *Component) Name() string { return "sse-producer" }

// Start is a no-op; the producer runs from construction.
func (c *Component) Start(_ context.Context) error { return nil }

// Stop closes the producer. A producer already closed elsewhere is not an error.
func (c *Component) Stop(ctx context.Context) error {
	if err := c.producer.Close(ctx); err != nil && !errors.IsConnectionClosed(err) {
		return err
	}
	return nil
}

// Health reports unhealthy once the producer is closed.
func (c *Component) Health(_ context.Context) component.Health {
	if c.producer.Closed() {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "producer closed",
		}
	}
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d subscribers, %d reads waiting", c.producer.Subscribers(), c.producer.Pending()),
	}
}

// Describe returns summary info for the startup display.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "SSE Producer",
		Type:    "producer",
		Details: fmt.Sprintf("path=%s heartbeat=%s json=%t",
			c.path, c.producer.cfg.Heartbeat, c.producer.cfg.AsJSON),
	}
}
