package sse

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/evtsrc/errors"
	"github.com/kbukum/evtsrc/logger"
	"github.com/kbukum/evtsrc/resilience"
)

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the handler's logger.
func WithHandlerLogger(l *logger.Logger) HandlerOption {
	return func(h *Handler) { h.log = l }
}

// Handler streams a Producer's broadcast to HTTP clients as text/event-stream.
// Each request holds a Subscription, so every message emitted while the
// client is connected is written in order, ending with the EOS record.
// Connections beyond the producer's MaxReaders are refused with 503. CORS
// headers are left to the server's middleware.
type Handler struct {
	producer *Producer
	log      *logger.Logger
	readers  *resilience.Bulkhead
}

var _ http.Handler = (*Handler)(nil)

// NewHandler returns an http.Handler streaming p.
func NewHandler(p *Producer, opts ...HandlerOption) *Handler {
	h := &Handler{
		producer: p,
		log:      logger.WithComponent("sse-handler"),
		readers: resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "sse-readers",
			MaxConcurrent: p.cfg.MaxReaders,
		}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Readers returns the number of connected stream clients.
func (h *Handler) Readers() int { return h.readers.InUse() }

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	connID := uuid.NewString()

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.log.Error("[SSE] Streaming not supported", map[string]interface{}{
			logger.FieldConnectionID: connID,
		})
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	sub, err := h.producer.Subscribe()
	if err != nil {
		http.Error(w, "stream closed", http.StatusGone)
		return
	}
	defer sub.Close()

	release, err := h.readers.TryAcquire()
	if err != nil {
		h.log.Warn("[SSE] Reader limit reached", map[string]interface{}{
			logger.FieldConnectionID: connID,
			"limit":                  h.readers.MaxConcurrent(),
		})
		w.Header().Set("Retry-After", "1")
		http.Error(w, "too many readers", http.StatusServiceUnavailable)
		return
	}
	defer release()

	// The stream is long-lived, so the server's WriteTimeout must not apply.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.log.Warn("[SSE] Could not disable write deadline", map[string]interface{}{
			logger.FieldConnectionID: connID,
			logger.FieldError:        err.Error(),
		})
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprintf(w, ":connected %s\n\n", connID); err != nil {
		return
	}
	flusher.Flush()

	h.log.Debug("[SSE] Client connected", map[string]interface{}{
		logger.FieldConnectionID: connID,
		"remote_addr":            r.RemoteAddr,
	})

	ctx := r.Context()
	for {
		msg, err := sub.Next(ctx)
		if err != nil {
			reason := "producer closed"
			if !errors.IsConnectionClosed(err) {
				reason = err.Error()
			}
			h.log.Debug("[SSE] Client stream ended", map[string]interface{}{
				logger.FieldConnectionID: connID,
				"reason":                 reason,
			})
			return
		}

		if _, err := io.WriteString(w, msg); err != nil {
			h.log.Debug("[SSE] Write failed", map[string]interface{}{
				logger.FieldConnectionID: connID,
				logger.FieldError:        err.Error(),
			})
			return
		}
		// Flush once the backlog is written rather than after every record.
		if sub.Len() == 0 {
			flusher.Flush()
		}
	}
}
