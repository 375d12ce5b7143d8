package sse

import (
	"github.com/kbukum/evtsrc/errors"
	"github.com/kbukum/evtsrc/validation"
)

// Chunk is the unit of application-level emission. Any combination of
// fields may be set, but at least one must be populated.
type Chunk struct {
	EventName string `json:"event_name,omitempty" yaml:"event_name" mapstructure:"event_name"`
	Data      any    `json:"data,omitempty" yaml:"data" mapstructure:"data"`
	Comment   string `json:"comment,omitempty" yaml:"comment" mapstructure:"comment"`
}

// HasData reports whether Data is populated. Nil and the empty string count as absent.
func (c Chunk) HasData() bool {
	switch d := c.Data.(type) {
	case nil:
		return false
	case string:
		return d != ""
	default:
		return true
	}
}

// IsEmpty reports whether no field of the chunk is populated.
func (c Chunk) IsEmpty() bool {
	return c.EventName == "" && c.Comment == "" && !c.HasData()
}

// Validate checks that the chunk can be emitted by a producer in the given mode.
func (c Chunk) Validate(asJSON bool) error {
	v := validation.New()
	v.Check(!c.IsEmpty(), "chunk", "nothing to emit")
	if c.HasData() && !asJSON {
		_, isString := c.Data.(string)
		v.Check(isString, "data", "must be a string unless JSON encoding is enabled")
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// ValidateEOSMarker checks that marker can serve as an end-of-stream sentinel.
func ValidateEOSMarker(marker Chunk) error {
	if !marker.HasData() {
		return errors.Configuration("EOS marker has no data").WithDetail("field", "eos_marker.data")
	}
	return nil
}
