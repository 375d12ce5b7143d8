package server

import (
	"context"
	"fmt"

	"github.com/kbukum/evtsrc/component"
)

const componentName = "http-server"

// Ensure *ServerComponent satisfies component.Component and Describable at compile time.
var (
	_ component.Component   = (*ServerComponent)(nil)
	_ component.Describable = (*ServerComponent)(nil)
)

// ServerComponent wraps Server to implement component.Component.
type ServerComponent struct {
	server *Server
}

// NewComponent returns a component.Component backed by the given Server.
func NewComponent(s *Server) *ServerComponent {
	return &ServerComponent{server: s}
}

// Name returns the component name used for registration.
func (sc *ServerComponent) Name() string { return componentName }

// Start starts the underlying HTTP server.
func (sc *ServerComponent) Start(ctx context.Context) error {
	return sc.server.Start(ctx)
}

// Stop gracefully shuts down the underlying HTTP server.
func (sc *ServerComponent) Stop(ctx context.Context) error {
	return sc.server.Stop(ctx)
}

// Health reports healthy once the server is listening.
func (sc *ServerComponent) Health(_ context.Context) component.Health {
	sc.server.mu.Lock()
	listening := sc.server.listener != nil
	sc.server.mu.Unlock()

	if listening {
		return component.Health{
			Name:   componentName,
			Status: component.StatusHealthy,
		}
	}
	return component.Health{
		Name:    componentName,
		Status:  component.StatusUnhealthy,
		Message: "HTTP server not started",
	}
}

// Describe returns summary info for the startup display.
func (sc *ServerComponent) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: sc.server.Addr(),
	}
}

// String implements fmt.Stringer.
func (sc *ServerComponent) String() string {
	return fmt.Sprintf("%s(%s)", componentName, sc.server.Addr())
}
