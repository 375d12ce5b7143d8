package main

import (
	"github.com/kbukum/evtsrc/config"
	"github.com/kbukum/evtsrc/errors"
	"github.com/kbukum/evtsrc/eventsource"
	"github.com/kbukum/evtsrc/observability"
	"github.com/kbukum/evtsrc/resilience"
	"github.com/kbukum/evtsrc/server"
	"github.com/kbukum/evtsrc/sse"
	"github.com/kbukum/evtsrc/version"
)

const serviceName = "evtsrc"

// defaultEOS is used when neither side configures a marker.
const defaultEOS = "EOS"

// AppConfig is the full process configuration. serve uses Server, Producer
// and EmitLimit, listen uses Consumer.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server    server.Config                `yaml:"server" mapstructure:"server"`
	Producer  sse.Config                   `yaml:"producer" mapstructure:"producer"`
	EmitLimit resilience.RateLimiterConfig `yaml:"emit_limit" mapstructure:"emit_limit"`
	Consumer  eventsource.Config           `yaml:"consumer" mapstructure:"consumer"`
	Metrics   observability.MeterConfig    `yaml:"metrics" mapstructure:"metrics"`
}

// ApplyDefaults fills unset fields.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()

	if c.EmitLimit.Name == "" {
		c.EmitLimit.Name = "emit"
	}

	if c.Producer.EOSMarker.IsEmpty() {
		c.Producer.EOSMarker = sse.Chunk{Data: defaultEOS}
	}
	if c.Consumer.EOSMarker.IsEmpty() {
		c.Consumer.EOSMarker = c.Producer.EOSMarker
	}

	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = c.Name
	}
	if c.Metrics.ServiceVersion == "" {
		c.Metrics.ServiceVersion = c.Version
	}
	if c.Metrics.Environment == "" {
		c.Metrics.Environment = c.Environment
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = observability.DefaultMeterConfig(c.Name).Endpoint
	}
}

// Validate checks the sections shared by every command. The producer and
// consumer sections are validated by the command that uses them.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if c.EmitLimit.Rate < 0 || c.EmitLimit.Burst < 0 {
		return errors.Configuration("emit_limit.rate and emit_limit.burst must be non-negative")
	}
	return nil
}

// loaderDefaults registers every key that may be overridden from the
// environment.
func loaderDefaults() map[string]any {
	return map[string]any{
		"name":                 serviceName,
		"environment":          "development",
		"logging.level":        "",
		"logging.format":       "",
		"server.host":          "",
		"server.port":          8080,
		"server.write_timeout": 15,
		"producer.as_json":     false,
		"producer.heartbeat":   "15s",
		"producer.max_readers": 0,
		"emit_limit.rate":      0,
		"emit_limit.burst":     0,
		"consumer.url":         "",
		"metrics.enabled":      false,
		"metrics.endpoint":     "",
		"metrics.insecure":     true,
		"metrics.interval":     "15s",
	}
}

func loadConfig(configFile, envFile string) (*AppConfig, error) {
	opts := []config.LoaderOption{config.WithDefaults(loaderDefaults())}
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}

	cfg := &AppConfig{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}
