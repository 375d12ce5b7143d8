package resilience

import (
	"fmt"
	"sync"

	"github.com/kbukum/evtsrc/errors"
)

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies this bulkhead in errors and callbacks.
	Name string
	// MaxConcurrent is the number of slots. Zero or less means unlimited.
	MaxConcurrent int
	// OnReject is called when an acquisition is refused.
	OnReject func(name string)
}

// Bulkhead limits how many holders may be active at once.
type Bulkhead struct {
	config BulkheadConfig
	sem    chan struct{} // nil when unlimited
}

// NewBulkhead creates a new bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	b := &Bulkhead{config: config}
	if config.MaxConcurrent > 0 {
		b.sem = make(chan struct{}, config.MaxConcurrent)
	}
	return b
}

// TryAcquire takes a slot without waiting. The returned release func gives
// the slot back and is safe to call more than once. When every slot is in
// use the error is an Unavailable AppError.
func (b *Bulkhead) TryAcquire() (release func(), err error) {
	if b.sem == nil {
		return func() {}, nil
	}

	select {
	case b.sem <- struct{}{}:
	default:
		if b.config.OnReject != nil {
			b.config.OnReject(b.config.Name)
		}
		return nil, errors.Unavailable(fmt.Sprintf("%s: all %d slots in use", b.config.Name, cap(b.sem))).
			WithDetail("limit", cap(b.sem))
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-b.sem })
	}, nil
}

// Execute runs fn while holding a slot.
func (b *Bulkhead) Execute(fn func() error) error {
	release, err := b.TryAcquire()
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// InUse returns the number of slots currently held.
func (b *Bulkhead) InUse() int {
	return len(b.sem)
}

// Available returns the number of free slots, or -1 when unlimited.
func (b *Bulkhead) Available() int {
	if b.sem == nil {
		return -1
	}
	return cap(b.sem) - len(b.sem)
}

// MaxConcurrent returns the slot count, zero when unlimited.
func (b *Bulkhead) MaxConcurrent() int {
	return cap(b.sem)
}
