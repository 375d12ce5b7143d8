package eventsource

import (
	"net/http"

	"github.com/kbukum/evtsrc/emitter"
	"github.com/kbukum/evtsrc/errors"
	"github.com/kbukum/evtsrc/logger"
	"github.com/kbukum/evtsrc/observability"
	"github.com/kbukum/evtsrc/security"
	"github.com/kbukum/evtsrc/sse"
	"github.com/kbukum/evtsrc/validation"
)

// Config configures an HTTP-backed consumer.
type Config struct {
	// URL is the event stream endpoint.
	URL string `yaml:"url" mapstructure:"url" validate:"required,url"`
	// Headers are added to the stream request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
	// EOSMarker must match the producer's marker.
	EOSMarker sse.Chunk `yaml:"eos_marker" mapstructure:"eos_marker"`
	// TLS configures the default HTTP client for https streams. Ignored when
	// WithHTTPClient is given.
	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// Validate checks the configuration, reporting failures as configuration errors.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return errors.Configuration(err.Error()).WithCause(err)
	}
	if err := c.TLS.Validate(); err != nil {
		return err
	}
	return sse.ValidateEOSMarker(c.EOSMarker)
}

// Option configures optional consumer and transport collaborators.
type Option func(*options)

type options struct {
	log        *logger.Logger
	metrics    *observability.StreamMetrics
	httpClient *http.Client
	listeners  []namedListener
}

type namedListener struct {
	name string
	h    emitter.Handler[sse.Event]
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.WithComponent("eventsource")
	}
	return o
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records consumer activity on m.
func WithMetrics(m *observability.StreamMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithHTTPClient sets the client used by HTTPTransport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithListener attaches h to the transport's name event before the stream
// is requested, so no record is missed. Only HTTPTransport honours it.
func WithListener(name string, h emitter.Handler[sse.Event]) Option {
	return func(o *options) {
		o.listeners = append(o.listeners, namedListener{name: name, h: h})
	}
}
