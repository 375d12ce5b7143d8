package sse

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/kbukum/evtsrc/emitter"
	"github.com/kbukum/evtsrc/errors"
	"github.com/kbukum/evtsrc/logger"
	"github.com/kbukum/evtsrc/observability"
	"github.com/kbukum/evtsrc/promise"
)

// Broadcaster is the emitting side of a Producer. HTTP handlers and other
// callers that only publish should depend on it rather than on *Producer.
type Broadcaster interface {
	Emit(chunk Chunk) error
	EmitComment(comment string) error
}

var _ Broadcaster = (*Producer)(nil)

// Producer encodes chunks as SSE records and broadcasts each record to every
// reader currently waiting on MessagePromise.
type Producer struct {
	cfg     Config
	clock   clock.Clock
	log     *logger.Logger
	metrics *observability.StreamMetrics
	events  *emitter.Emitter[string]

	// sendMu serializes broadcasts and listener registration. It is always
	// taken before mu.
	sendMu sync.Mutex

	mu      sync.Mutex
	dead    bool
	pending map[*promise.Promise[string]]struct{}
	subs    int
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewProducer validates cfg and returns a running producer. When
// cfg.Heartbeat is positive a heartbeat comment is emitted every interval
// until Close.
func NewProducer(cfg Config, opts ...Option) (*Producer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := producerOptions{clock: clock.WallClock}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.WithComponent("sse")
	}

	p := &Producer{
		cfg:     cfg,
		clock:   o.clock,
		log:     o.log,
		metrics: o.metrics,
		events:  emitter.New[string](),
		pending: make(map[*promise.Promise[string]]struct{}),
		stop:    make(chan struct{}),
	}

	if cfg.Heartbeat > 0 {
		p.wg.Add(1)
		go p.heartbeatLoop(cfg.Heartbeat)
	}

	p.log.Debug("[SSE] Producer created", map[string]interface{}{
		"as_json":   cfg.AsJSON,
		"heartbeat": cfg.Heartbeat.String(),
	})
	return p, nil
}

// Emit validates, formats and broadcasts chunk. Validation failures are
// returned immediately; emitting on a closed producer returns a
// connection-closed error.
func (p *Producer) Emit(chunk Chunk) error {
	if err := chunk.Validate(p.cfg.AsJSON); err != nil {
		return err
	}

	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	if p.Closed() {
		return errors.ConnectionClosed("producer")
	}
	return p.broadcast(chunk)
}

// EmitComment emits a comment-only chunk. Use it for keep-alives and debugging.
func (p *Producer) EmitComment(comment string) error {
	return p.Emit(Chunk{Comment: comment})
}

// broadcast must be called with sendMu held.
func (p *Producer) broadcast(chunk Chunk) error {
	msg, err := Format(chunk, p.cfg.AsJSON)
	if err != nil {
		return err
	}
	if msg == "" {
		return nil
	}

	waiters := p.events.Emit(EventMessage, msg)
	p.metrics.RecordEmitted(context.Background(), chunk.EventName, waiters)
	p.log.Debug("[SSE] Message broadcast", map[string]interface{}{
		logger.FieldEvent:   chunk.EventName,
		logger.FieldWaiters: waiters,
		logger.FieldSize:    len(msg),
	})
	return nil
}

// MessagePromise returns a promise for the next message broadcast after this
// call. All promises pending at the time of an emission resolve with the
// same message. On a closed producer the promise is already rejected.
func (p *Producer) MessagePromise() *promise.Promise[string] {
	// Both listeners must be registered before any broadcast can reach them.
	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	if p.Closed() {
		return promise.Rejected[string](errors.ConnectionClosed("producer"))
	}

	pr := promise.New[string]()
	var once sync.Once
	var offMessage, offClose func()
	settle := func() {
		once.Do(func() {
			offMessage()
			offClose()
			p.mu.Lock()
			delete(p.pending, pr)
			p.mu.Unlock()
		})
	}

	offMessage = p.events.Once(EventMessage, func(msg string) {
		pr.Resolve(msg)
		settle()
	})
	offClose = p.events.Once(EventClose, func(string) {
		pr.Reject(errors.ConnectionClosed("producer"))
		settle()
	})
	p.mu.Lock()
	p.pending[pr] = struct{}{}
	p.mu.Unlock()
	return pr
}

// Subscribe returns a persistent reader that queues every message
// broadcast from now on, up to and including the EOS record. Stream
// connections use it so that nothing emitted between two writes is lost.
// On a closed producer it returns a connection-closed error.
func (p *Producer) Subscribe() (*Subscription, error) {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	if p.Closed() {
		return nil, errors.ConnectionClosed("producer")
	}

	sub := newSubscription(p.cfg.ReaderBuffer)
	sub.offs = []func(){
		p.events.On(EventMessage, sub.push),
		p.events.On(EventClose, func(string) { sub.end(errors.ConnectionClosed("producer")) }),
		func() {
			p.mu.Lock()
			p.subs--
			p.mu.Unlock()
		},
	}
	p.mu.Lock()
	p.subs++
	p.mu.Unlock()
	return sub, nil
}

// Pending returns the number of unsettled MessagePromise reads.
func (p *Producer) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Subscribers returns the number of open subscriptions.
func (p *Producer) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.subs
}

// Closed reports whether Close has been called.
func (p *Producer) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dead
}

// Close emits the EOS marker, marks the producer closed, stops the
// heartbeat, waits for outstanding reads to settle (or ctx to end) and then
// signals "close" to any listener still waiting. Reads requested before
// Close receive the EOS record. Calling Close again returns a
// connection-closed error and emits nothing.
func (p *Producer) Close(ctx context.Context) error {
	p.sendMu.Lock()
	if p.Closed() {
		p.sendMu.Unlock()
		return errors.ConnectionClosed("producer")
	}
	eosErr := p.broadcast(p.cfg.EOSMarker)
	p.mu.Lock()
	p.dead = true
	close(p.stop)
	p.mu.Unlock()
	p.sendMu.Unlock()

	p.wg.Wait()

	var outstanding []*promise.Promise[string]
	if eosErr != nil {
		// Nothing was delivered, so no pending read will settle on its own.
		p.log.Error("[SSE] Failed to emit EOS marker", logger.ErrorFields("close", eosErr))
	} else {
		p.metrics.RecordEOS(ctx, "producer")
		p.mu.Lock()
		outstanding = make([]*promise.Promise[string], 0, len(p.pending))
		for pr := range p.pending {
			outstanding = append(outstanding, pr)
		}
		p.mu.Unlock()
	}

	var waitErr error
	for _, pr := range outstanding {
		select {
		case <-pr.Done():
		case <-ctx.Done():
			waitErr = ctx.Err()
		}
		if waitErr != nil {
			break
		}
	}

	p.events.Emit(EventClose, "")
	p.log.Debug("[SSE] Producer closed", map[string]interface{}{
		"outstanding": len(outstanding),
	})
	return waitErr
}

func (p *Producer) heartbeatLoop(interval time.Duration) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			return
		case <-p.clock.After(interval):
		}

		// Close may have raced the timer.
		select {
		case <-p.stop:
			return
		default:
		}

		comment := fmt.Sprintf(" - Heartbeat: %d - ", p.clock.Now().UnixMilli())
		if err := p.EmitComment(comment); err != nil {
			return
		}
		p.metrics.RecordHeartbeat(context.Background())
	}
}
