package eventsource

import "context"

// Dial connects an HTTPTransport to cfg.URL and returns a client reading it.
// Dial returns once the stream is open; the client is usable immediately.
func Dial[T any](ctx context.Context, cfg Config, opts ...Option) (*Client[T], error) {
	tr, err := NewHTTPTransport(cfg, opts...)
	if err != nil {
		return nil, err
	}
	c, err := New[T](tr, cfg.EOSMarker, opts...)
	if err != nil {
		return nil, err
	}
	if err := tr.Start(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}
