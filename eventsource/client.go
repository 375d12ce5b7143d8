package eventsource

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/kbukum/evtsrc/emitter"
	"github.com/kbukum/evtsrc/errors"
	"github.com/kbukum/evtsrc/logger"
	"github.com/kbukum/evtsrc/observability"
	"github.com/kbukum/evtsrc/promise"
	"github.com/kbukum/evtsrc/sse"
)

// Transport is a named-event stream connection. It signals sse.EventOpen,
// sse.EventError and sse.EventClose for lifecycle changes and emits each
// received record under its event name. *emitter.Emitter[sse.Event]
// provides On and Emit.
type Transport interface {
	On(name string, h emitter.Handler[sse.Event]) (off func())
	Emit(name string, ev sse.Event) int
	Close() error
}

const (
	lifecycleOpen   = "open"
	lifecycleClosed = "closed"
)

type delivery[T any] struct {
	value T
	err   error
}

// Client turns a Transport's events into awaitable connection and message
// values decoded as T. String T receives the raw data; any other T is
// decoded from JSON.
type Client[T any] struct {
	tr          Transport
	marker      any
	markerEvent string
	log         *logger.Logger
	metrics     *observability.StreamMetrics

	deliveries *emitter.Emitter[delivery[T]]
	lifecycle  *emitter.Emitter[error]

	mu       sync.Mutex
	state    State
	closeErr error
	last     T
	hasLast  bool
	closed   bool
	subs     map[string]func()
	lifeOffs []func()
}

// New wraps tr. eosMarker must carry data; it is held in canonical form and
// compared against every received payload regardless of event name.
func New[T any](tr Transport, eosMarker sse.Chunk, opts ...Option) (*Client[T], error) {
	if err := sse.ValidateEOSMarker(eosMarker); err != nil {
		return nil, err
	}
	o := newOptions(opts)

	c := &Client[T]{
		tr:          tr,
		marker:      canonical(eosMarker.Data),
		markerEvent: eosMarker.EventName,
		log:         o.log,
		metrics:     o.metrics,
		deliveries:  emitter.New[delivery[T]](),
		lifecycle:   emitter.New[error](),
		subs:        make(map[string]func()),
	}

	c.lifeOffs = []func(){
		tr.On(sse.EventOpen, c.onOpen),
		tr.On(sse.EventError, c.onError),
		tr.On(sse.EventClose, c.onClose),
	}

	c.mu.Lock()
	c.subscribeLocked(sse.EventMessage)
	if c.markerEvent != "" {
		c.subscribeLocked(c.markerEvent)
	}
	c.mu.Unlock()

	return c, nil
}

// Transport returns the wrapped transport.
func (c *Client[T]) Transport() Transport { return c.tr }

// State returns the current connection state.
func (c *Client[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ConnectionPromise resolves with true immediately when the connection is
// open, otherwise on the next open transition. It rejects if the connection
// fails or is closed first.
func (c *Client[T]) ConnectionPromise() *promise.Promise[bool] {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Open:
		return promise.Resolved(true)
	case Closed:
		return promise.Rejected[bool](c.closeErr)
	}
	return c.nextTransitionLocked()
}

// ConnectionChangePromise waits for the next state transition: it resolves
// with true on open and rejects on error or close. Once closed no further
// transition can occur, so the promise is already rejected.
func (c *Client[T]) ConnectionChangePromise() *promise.Promise[bool] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Closed {
		return promise.Rejected[bool](c.closeErr)
	}
	return c.nextTransitionLocked()
}

func (c *Client[T]) nextTransitionLocked() *promise.Promise[bool] {
	pr := promise.New[bool]()
	rel := &releaser{}
	rel.add(c.lifecycle.Once(lifecycleOpen, func(error) {
		pr.Resolve(true)
		rel.release()
	}))
	rel.add(c.lifecycle.Once(lifecycleClosed, func(err error) {
		pr.Reject(err)
		rel.release()
	}))
	return pr
}

// MessageChangePromiseByEventName resolves with the next event named name.
// It rejects on transport error, on local close or when the payload cannot
// be decoded as T.
func (c *Client[T]) MessageChangePromiseByEventName(name string) *promise.Promise[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Closed {
		return promise.Rejected[T](c.closeErr)
	}
	c.subscribeLocked(name)

	pr := promise.New[T]()
	rel := &releaser{}
	rel.add(c.deliveries.Once(name, func(d delivery[T]) {
		if d.err != nil {
			pr.Reject(d.err)
		} else {
			pr.Resolve(d.value)
		}
		rel.release()
	}))
	rel.add(c.lifecycle.Once(lifecycleClosed, func(err error) {
		pr.Reject(err)
		rel.release()
	}))
	return pr
}

// MessageChangePromise resolves with the next unnamed event.
func (c *Client[T]) MessageChangePromise() *promise.Promise[T] {
	return c.MessageChangePromiseByEventName(sse.EventMessage)
}

// MessagePromise resolves with the last received payload if there is one,
// otherwise with the next unnamed event.
func (c *Client[T]) MessagePromise() *promise.Promise[T] {
	c.mu.Lock()
	if c.hasLast {
		v := c.last
		c.mu.Unlock()
		return promise.Resolved(v)
	}
	c.mu.Unlock()
	return c.MessageChangePromise()
}

// Close signals a local close to every listener on the transport, which
// rejects all pending reads, and then closes the transport. Panics raised
// by listeners during the close signal are recovered. Later calls return nil.
func (c *Client[T]) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.dispatchClose()
	// A listener may have panicked before ours ran.
	c.fail(errors.ConnectionClosed("consumer"))

	c.mu.Lock()
	offs := make([]func(), 0, len(c.subs)+len(c.lifeOffs))
	for _, off := range c.subs {
		offs = append(offs, off)
	}
	offs = append(offs, c.lifeOffs...)
	c.subs = make(map[string]func())
	c.lifeOffs = nil
	c.mu.Unlock()

	for _, off := range offs {
		off()
	}
	return c.tr.Close()
}

func (c *Client[T]) dispatchClose() {
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("[EVTSRC] Close listener panicked", map[string]interface{}{
				"panic": r,
			})
		}
	}()
	c.tr.Emit(sse.EventClose, sse.Event{Event: sse.EventClose})
}

func (c *Client[T]) subscribeLocked(name string) {
	if _, ok := c.subs[name]; ok {
		return
	}
	c.subs[name] = c.tr.On(name, func(ev sse.Event) { c.onEvent(name, ev) })
}

func (c *Client[T]) onOpen(sse.Event) {
	c.mu.Lock()
	if st := c.state; st != Connecting {
		c.mu.Unlock()
		c.log.Warn("[EVTSRC] Ignoring open signal", map[string]interface{}{
			logger.FieldState: st.String(),
		})
		return
	}
	c.state = Open
	c.mu.Unlock()

	c.log.Debug("[EVTSRC] Connection open")
	c.lifecycle.Emit(lifecycleOpen, nil)
}

func (c *Client[T]) onError(ev sse.Event) {
	reason := ev.Data
	if reason == "" {
		reason = "stream failed"
	}
	c.fail(errors.Transport(reason))
}

func (c *Client[T]) onClose(sse.Event) {
	c.fail(errors.ConnectionClosed("consumer"))
}

// fail moves the client to Closed and rejects everything pending with err.
func (c *Client[T]) fail(err error) {
	c.mu.Lock()
	if c.state == Closed {
		c.mu.Unlock()
		return
	}
	c.state = Closed
	c.closeErr = err
	c.mu.Unlock()

	c.log.Debug("[EVTSRC] Connection closed", logger.ErrorFields("close", err))
	c.lifecycle.Emit(lifecycleClosed, err)
}

func (c *Client[T]) onEvent(name string, ev sse.Event) {
	if c.State() == Closed {
		return
	}

	ctx := context.Background()
	c.metrics.RecordReceived(ctx, name)
	isEOS := sameCanonical(canonical(ev.Data), c.marker)

	v, err := decode[T](ev.Data)
	switch {
	case err != nil && isEOS:
		// The marker does not fit T; waiters learn of the end through the close.
	case err != nil:
		c.log.Warn("[EVTSRC] Undecodable payload", map[string]interface{}{
			logger.FieldEvent: name,
			logger.FieldError: err.Error(),
		})
		c.deliveries.Emit(name, delivery[T]{err: err})
	default:
		c.mu.Lock()
		c.last, c.hasLast = v, true
		c.mu.Unlock()
		c.deliveries.Emit(name, delivery[T]{value: v})
	}

	if isEOS {
		c.log.Debug("[EVTSRC] EOS marker received", map[string]interface{}{
			logger.FieldEvent: name,
		})
		c.metrics.RecordEOS(ctx, "consumer")
		if err := c.Close(); err != nil {
			c.log.Warn("[EVTSRC] Transport close failed after EOS", map[string]interface{}{
				logger.FieldEvent: name,
				logger.FieldError: err.Error(),
			})
		}
	}
}

func decode[T any](data string) (T, error) {
	var v T
	if s, ok := any(&v).(*string); ok {
		*s = data
		return v, nil
	}
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return v, errors.Validation("payload is not valid JSON for the expected type").WithCause(err)
	}
	return v, nil
}

// releaser runs unsubscribe funcs once, including ones added after release.
type releaser struct {
	mu       sync.Mutex
	offs     []func()
	released bool
}

func (r *releaser) add(off func()) {
	r.mu.Lock()
	if r.released {
		r.mu.Unlock()
		off()
		return
	}
	r.offs = append(r.offs, off)
	r.mu.Unlock()
}

func (r *releaser) release() {
	r.mu.Lock()
	offs := r.offs
	r.offs = nil
	r.released = true
	r.mu.Unlock()

	for _, off := range offs {
		off()
	}
}
