// Package promise provides a one-shot awaitable value.
//
// A Promise is settled exactly once, either resolved with a value or
// rejected with an error; later settle attempts are ignored. Any number of
// goroutines may wait on it.
package promise

import (
	"context"
	"sync"
)

// Promise is a value that becomes available at most once.
type Promise[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// New returns a pending promise.
func New[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Resolved returns a promise already resolved with v.
func Resolved[T any](v T) *Promise[T] {
	p := New[T]()
	p.Resolve(v)
	return p
}

// Rejected returns a promise already rejected with err.
func Rejected[T any](err error) *Promise[T] {
	p := New[T]()
	p.Reject(err)
	return p
}

// Resolve settles the promise with v. It reports whether this call settled it.
func (p *Promise[T]) Resolve(v T) bool {
	return p.settle(v, nil)
}

// Reject settles the promise with err. It reports whether this call settled it.
func (p *Promise[T]) Reject(err error) bool {
	var zero T
	return p.settle(zero, err)
}

func (p *Promise[T]) settle(v T, err error) bool {
	settled := false
	p.once.Do(func() {
		p.value, p.err = v, err
		settled = true
		close(p.done)
	})
	return settled
}

// Done returns a channel that is closed once the promise is settled.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Settled reports whether the promise has been resolved or rejected.
func (p *Promise[T]) Settled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Await blocks until the promise settles or ctx is done. Cancelling ctx
// does not settle the promise.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
