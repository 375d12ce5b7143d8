package eventsource

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/evtsrc/component"
	"github.com/kbukum/evtsrc/errors"
)

// Component runs a string consumer as a lifecycle-managed component.
type Component struct {
	cfg  Config
	opts []Option

	mu       sync.Mutex
	starting bool
	client   *Client[string]
}

// ensure Component satisfies component.Component and Describable.
var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates an unstarted consumer component.
func NewComponent(cfg Config, opts ...Option) *Component {
	return &Component{cfg: cfg, opts: opts}
}

// Client returns the consumer once started, nil before.
func (c *Component) Client() *Client[string] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client
}

// Name returns the component name.
func (c *Component) Name() string { return "sse-consumer" }

// Start dials the stream. Health and Client stay responsive while the dial
// is in flight.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.starting || c.client != nil {
		c.mu.Unlock()
		return errors.Transport("consumer already started")
	}
	c.starting = true
	c.mu.Unlock()

	client, err := Dial[string](ctx, c.cfg, c.opts...)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.starting = false
	if err != nil {
		return err
	}
	c.client = client
	return nil
}

// Stop closes the consumer.
func (c *Component) Stop(_ context.Context) error {
	client := c.Client()
	if client == nil {
		return nil
	}
	return client.Close()
}

// Health reports the connection state.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	c.mu.Lock()
	client, starting := c.client, c.starting
	c.mu.Unlock()
	if client == nil {
		if starting {
			h.Status = component.StatusDegraded
			h.Message = Connecting.String()
		}
		return h
	}

	state := client.State()
	h.Message = state.String()
	switch state {
	case Open:
		h.Status = component.StatusHealthy
	case Connecting:
		h.Status = component.StatusDegraded
	}
	return h
}

// Describe returns summary info for the startup display.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "SSE Consumer",
		Type:    "consumer",
		Details: fmt.Sprintf("url=%s", c.cfg.URL),
	}
}
