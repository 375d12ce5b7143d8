package sse

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/evtsrc/logger"
)

// waitSubscribers blocks until p has at least n open subscriptions.
func waitSubscribers(t *testing.T, p *Producer, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for p.Subscribers() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d subscribers (have %d)", n, p.Subscribers())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHandler_StreamsUntilEOS(t *testing.T) {
	p := newTestProducer(t, Config{EOSMarker: Chunk{Data: "EOS"}})
	srv := httptest.NewServer(NewHandler(p, WithHandlerLogger(logger.Nop())))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	if resp.Header.Get("X-Accel-Buffering") != "no" {
		t.Error("expected proxy buffering to be disabled")
	}

	r := NewReader(resp.Body)

	greeting, err := r.Next()
	if err != nil {
		t.Fatalf("reading greeting: %v", err)
	}
	if !strings.HasPrefix(greeting.Comment, "connected ") || greeting.HasData() {
		t.Errorf("unexpected greeting %+v", greeting)
	}

	waitSubscribers(t, p, 1)
	if err := p.Emit(Chunk{EventName: "foo", Data: "bar"}); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	ev, err := r.Next()
	if err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if ev.Event != "foo" || ev.Data != "bar" {
		t.Errorf("got event %q data %q", ev.Event, ev.Data)
	}

	waitSubscribers(t, p, 1)
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	ev, err = r.Next()
	if err != nil {
		t.Fatalf("reading EOS: %v", err)
	}
	if ev.Data != "EOS" {
		t.Errorf("expected EOS, got %q", ev.Data)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected stream to end, got %v", err)
	}
}

func TestHandler_ClosedProducer(t *testing.T) {
	p := newTestProducer(t, Config{EOSMarker: Chunk{Data: "EOS"}})
	_ = p.Close(context.Background())

	rec := httptest.NewRecorder()
	NewHandler(p, WithHandlerLogger(logger.Nop())).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))

	if rec.Code != http.StatusGone {
		t.Errorf("expected 410, got %d", rec.Code)
	}
}

type noFlushWriter struct {
	header http.Header
	code   int
}

func (w *noFlushWriter) Header() http.Header         { return w.header }
func (w *noFlushWriter) Write(b []byte) (int, error) { return len(b), nil }
func (w *noFlushWriter) WriteHeader(code int)        { w.code = code }

func TestHandler_RequiresFlusher(t *testing.T) {
	p := newTestProducer(t, Config{EOSMarker: Chunk{Data: "EOS"}})
	w := &noFlushWriter{header: http.Header{}}

	NewHandler(p, WithHandlerLogger(logger.Nop())).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))

	if w.code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.code)
	}
}

func TestHandler_ClientDisconnect(t *testing.T) {
	p := newTestProducer(t, Config{EOSMarker: Chunk{Data: "EOS"}})
	h := NewHandler(p, WithHandlerLogger(logger.Nop()))

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.ServeHTTP(rec, req)
		close(done)
	}()

	waitSubscribers(t, p, 1)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after client disconnect")
	}
}

func TestHandler_MaxReaders(t *testing.T) {
	p := newTestProducer(t, Config{EOSMarker: Chunk{Data: "EOS"}, MaxReaders: 1})
	h := NewHandler(p, WithHandlerLogger(logger.Nop()))
	srv := httptest.NewServer(h)
	defer srv.Close()

	first, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	if _, err := NewReader(first.Body).Next(); err != nil {
		t.Fatalf("reading greeting: %v", err)
	}
	if h.Readers() != 1 {
		t.Errorf("expected 1 reader, got %d", h.Readers())
	}

	second, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	second.Body.Close()
	if second.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 over the reader limit, got %d", second.StatusCode)
	}
	if second.Header.Get("Retry-After") == "" {
		t.Error("expected Retry-After on refusal")
	}

	first.Body.Close()
	deadline := time.Now().Add(2 * time.Second)
	for h.Readers() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("reader slot was not released after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}

	third, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer third.Body.Close()
	if third.StatusCode != http.StatusOK {
		t.Errorf("expected 200 once a slot is free, got %d", third.StatusCode)
	}
	waitSubscribers(t, p, 1)
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

// openStream connects to srv and consumes the greeting.
func openStream(t *testing.T, url string) (*http.Response, Reader) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	r := NewReader(resp.Body)
	if _, err := r.Next(); err != nil {
		resp.Body.Close()
		t.Fatalf("reading greeting: %v", err)
	}
	return resp, r
}

func TestHandler_DeliversBurst(t *testing.T) {
	const n = 1000
	p := newTestProducer(t, Config{EOSMarker: Chunk{Data: "EOS"}})
	srv := httptest.NewServer(NewHandler(p, WithHandlerLogger(logger.Nop())))
	defer srv.Close()

	resp, r := openStream(t, srv.URL)
	defer resp.Body.Close()

	for i := 0; i < n; i++ {
		if err := p.Emit(Chunk{Data: "m"}); err != nil {
			t.Fatalf("Emit %d failed: %v", i, err)
		}
	}
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	got := 0
	for {
		ev, err := r.Next()
		if err == io.EOF {
			t.Fatal("stream ended before the EOS record")
		}
		if err != nil {
			t.Fatalf("reading: %v", err)
		}
		if ev.Data == "EOS" {
			break
		}
		got++
	}
	if got != n {
		t.Errorf("received %d/%d messages", got, n)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected stream to end after EOS, got %v", err)
	}
}

func TestHandler_EOSDuringEmission(t *testing.T) {
	payload := strings.Repeat("x", 4096)

	for i := 0; i < 30; i++ {
		p := newTestProducer(t, Config{EOSMarker: Chunk{Data: "EOS"}, ReaderBuffer: 1 << 16})
		srv := httptest.NewServer(NewHandler(p, WithHandlerLogger(logger.Nop())))

		resp, r := openStream(t, srv.URL)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for p.Emit(Chunk{Data: payload}) == nil {
			}
		}()
		time.Sleep(time.Millisecond)
		if err := p.Close(context.Background()); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		<-done

		var last string
		for {
			ev, err := r.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("round %d: reading: %v", i, err)
			}
			if last == "EOS" {
				t.Fatalf("round %d: record after EOS: %q", i, ev.Data)
			}
			last = ev.Data
		}
		if last != "EOS" {
			t.Fatalf("round %d: stream ended without EOS", i)
		}

		resp.Body.Close()
		srv.Close()
	}
}
