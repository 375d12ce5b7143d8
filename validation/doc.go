// Package validation provides input validation for evtsrc configuration and
// chunks.
//
// Struct tag validation (go-playground/validator) covers configuration
// structs; the programmatic Validator collects ad-hoc checks such as the
// rules a chunk must satisfy before it can be emitted. Both report failures
// as *errors.AppError with code INVALID_INPUT and per-field details.
//
// # Struct Tag Validation
//
//	type Config struct {
//	    URL       string        `validate:"required,url"`
//	    Heartbeat time.Duration `validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Check(!chunk.IsEmpty(), "chunk", "nothing to emit")
//	err := v.Validate()
package validation
