package sse

import (
	"context"
	"sync"

	"github.com/kbukum/evtsrc/errors"
)

// DefaultReaderBuffer is the per-subscription queue limit used when
// Config.ReaderBuffer is zero.
const DefaultReaderBuffer = 4096

// Subscription is a persistent reader of a Producer. Unlike MessagePromise,
// which sees only the next broadcast, a subscription queues every message
// emitted while it is open and hands them out in order. After the producer
// closes, Next drains the queue (ending with the EOS record) and then
// returns a connection-closed error.
//
// A subscription whose queue reaches its limit is cut off: the queue is
// dropped and Next reports an unavailable error.
type Subscription struct {
	limit  int
	notify chan struct{}

	mu    sync.Mutex
	queue []string
	err   error

	closeOnce sync.Once
	offs      []func()
}

func newSubscription(limit int) *Subscription {
	if limit <= 0 {
		limit = DefaultReaderBuffer
	}
	return &Subscription{
		limit:  limit,
		notify: make(chan struct{}, 1),
	}
}

// push is the broadcast listener. It never blocks.
func (s *Subscription) push(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return
	}
	if len(s.queue) >= s.limit {
		s.queue = nil
		s.err = errors.Unavailable("stream reader fell behind").WithDetail("limit", s.limit)
		s.signal()
		return
	}
	s.queue = append(s.queue, msg)
	s.signal()
}

// end records the terminal error. Messages already queued are still served.
func (s *Subscription) end(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err == nil {
		s.err = err
	}
	s.signal()
}

// signal must be called with mu held.
func (s *Subscription) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next returns the oldest queued message, waiting for one if the queue is
// empty. It returns ctx.Err() if ctx ends first.
func (s *Subscription) Next(ctx context.Context) (string, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			msg := s.queue[0]
			s.queue[0] = ""
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return msg, nil
		}
		err := s.err
		s.mu.Unlock()

		if err != nil {
			return "", err
		}
		select {
		case <-s.notify:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Len returns the number of queued messages.
func (s *Subscription) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close detaches the subscription from its producer. Later calls do nothing.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		for _, off := range s.offs {
			off()
		}
		s.end(errors.ConnectionClosed("subscription"))
	})
}
