package eventsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/kbukum/evtsrc/emitter"
	"github.com/kbukum/evtsrc/errors"
	"github.com/kbukum/evtsrc/logger"
	"github.com/kbukum/evtsrc/security"
	"github.com/kbukum/evtsrc/sse"
)

// HTTPTransport reads an event stream from a single GET request and emits
// its records on the embedded emitter. It signals sse.EventOpen once the
// response is accepted and sse.EventError when the request fails, the
// response is not an event stream or the stream ends. It never reconnects.
type HTTPTransport struct {
	*emitter.Emitter[sse.Event]

	cfg    Config
	client *http.Client
	log    *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	closed  bool
	done    chan struct{}
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport validates cfg and returns an unstarted transport.
func NewHTTPTransport(cfg Config, opts ...Option) (*HTTPTransport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := newOptions(opts)
	client := o.httpClient
	if client == nil {
		var err error
		if client, err = newStreamClient(cfg.TLS); err != nil {
			return nil, err
		}
	}
	t := &HTTPTransport{
		Emitter: emitter.New[sse.Event](),
		cfg:     cfg,
		client:  client,
		log:     o.log,
		done:    make(chan struct{}),
	}
	for _, l := range o.listeners {
		t.On(l.name, l.h)
	}
	return t, nil
}

// Start issues the stream request. It returns once the response headers are
// received; records are then read on a background goroutine until the
// stream ends, ctx is cancelled or Close is called. A failure is both
// returned and signalled as sse.EventError.
func (t *HTTPTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return errors.ConnectionClosed("transport")
	}
	if t.started {
		t.mu.Unlock()
		return errors.Transport("transport already started")
	}
	t.started = true
	ctx, t.cancel = context.WithCancel(ctx)
	t.mu.Unlock()

	body, err := t.connect(ctx)
	if err != nil {
		close(t.done)
		t.signalError(err)
		return err
	}

	t.Emit(sse.EventOpen, sse.Event{Event: sse.EventOpen})
	go t.readLoop(body)
	return nil
}

// newStreamClient returns a client without a timeout: the stream is
// long-lived and cancelled through the request context.
func newStreamClient(tlsCfg security.TLSConfig) (*http.Client, error) {
	tc, err := tlsCfg.ClientConfig()
	if err != nil {
		return nil, err
	}
	if tc == nil {
		return &http.Client{}, nil
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = tc
	return &http.Client{Transport: tr}, nil
}

func (t *HTTPTransport) connect(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.URL, nil)
	if err != nil {
		return nil, errors.Transport("building stream request").WithCause(err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	for k, v := range t.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errors.Transport("stream request failed").WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, errors.Transport(fmt.Sprintf("unexpected status %d", resp.StatusCode)).
			WithDetail("status", resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		_ = resp.Body.Close()
		return nil, errors.Transport(fmt.Sprintf("unexpected content type %q", ct))
	}

	t.log.Debug("[EVTSRC] Stream connected", map[string]interface{}{
		logger.FieldURL: t.cfg.URL,
	})
	return resp.Body, nil
}

func (t *HTTPTransport) readLoop(body io.ReadCloser) {
	defer close(t.done)

	r := sse.NewReader(body)
	defer r.Close()

	for {
		ev, err := r.Next()
		if err != nil {
			if t.isClosed() {
				return
			}
			if err == io.EOF {
				t.signalError(errors.Transport("stream ended"))
			} else {
				t.signalError(errors.Transport("stream read failed").WithCause(err))
			}
			return
		}

		if !ev.HasData() {
			t.log.Debug("[EVTSRC] Comment received", map[string]interface{}{
				"comment": ev.Comment,
			})
			continue
		}
		t.Emit(ev.Name(), *ev)
	}
}

func (t *HTTPTransport) signalError(err error) {
	t.log.Debug("[EVTSRC] Stream error", logger.ErrorFields("read", err))
	t.Emit(sse.EventError, sse.Event{Event: sse.EventError, Data: err.Error()})
}

func (t *HTTPTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Done is closed once the transport has stopped reading.
func (t *HTTPTransport) Done() <-chan struct{} { return t.done }

// Close cancels the stream request. It does not wait for the reader to
// exit, so it may be called from an event listener. Safe to call repeatedly.
func (t *HTTPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	if t.cancel != nil {
		t.cancel()
	}
	if !t.started {
		close(t.done)
	}
	return nil
}
