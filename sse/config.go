package sse

import (
	"time"

	"github.com/juju/clock"

	"github.com/kbukum/evtsrc/errors"
	"github.com/kbukum/evtsrc/logger"
	"github.com/kbukum/evtsrc/observability"
	"github.com/kbukum/evtsrc/validation"
)

// Config configures a Producer.
type Config struct {
	// AsJSON JSON-encodes every data payload, strings included.
	AsJSON bool `yaml:"as_json" mapstructure:"as_json"`
	// Heartbeat is the interval between keep-alive comments. Zero disables it.
	Heartbeat time.Duration `yaml:"heartbeat" mapstructure:"heartbeat" validate:"gte=0"`
	// EOSMarker is emitted on Close and must carry data.
	EOSMarker Chunk `yaml:"eos_marker" mapstructure:"eos_marker"`
	// MaxReaders caps concurrent HTTP stream connections. Zero means unlimited.
	MaxReaders int `yaml:"max_readers" mapstructure:"max_readers" validate:"gte=0"`
	// ReaderBuffer caps the messages queued for one stream connection.
	// Zero means DefaultReaderBuffer.
	ReaderBuffer int `yaml:"reader_buffer" mapstructure:"reader_buffer" validate:"gte=0"`
}

// Validate checks the configuration, reporting failures as configuration errors.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return errors.Configuration(err.Error()).WithCause(err)
	}
	if err := ValidateEOSMarker(c.EOSMarker); err != nil {
		return err
	}
	if _, isString := c.EOSMarker.Data.(string); !isString && !c.AsJSON {
		return errors.Configuration("EOS marker data must be a string unless as_json is enabled").
			WithDetail("field", "eos_marker.data")
	}
	if _, err := Format(c.EOSMarker, c.AsJSON); err != nil {
		return errors.Configuration("EOS marker cannot be encoded").
			WithDetail("field", "eos_marker.data").
			WithCause(err)
	}
	return nil
}

// Option configures optional Producer collaborators.
type Option func(*producerOptions)

type producerOptions struct {
	clock   clock.Clock
	log     *logger.Logger
	metrics *observability.StreamMetrics
}

// WithClock sets the clock driving the heartbeat. Defaults to the wall clock.
func WithClock(c clock.Clock) Option {
	return func(o *producerOptions) { o.clock = c }
}

// WithLogger sets the producer's logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *producerOptions) { o.log = l }
}

// WithMetrics records producer activity on m.
func WithMetrics(m *observability.StreamMetrics) Option {
	return func(o *producerOptions) { o.metrics = m }
}
