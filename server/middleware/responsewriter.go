package middleware

import "net/http"

// statusWriter records what a handler wrote for the request log. It keeps
// http.Flusher and Unwrap working, without which the event stream could
// not push records or clear its write deadline.
type statusWriter struct {
	http.ResponseWriter
	status      int
	written     int
	flushes     int
	wroteHeader bool
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	sw.wroteHeader = true
	n, err := sw.ResponseWriter.Write(b)
	sw.written += n
	return n, err
}

// Flush implements http.Flusher.
func (sw *statusWriter) Flush() {
	f, ok := sw.ResponseWriter.(http.Flusher)
	if !ok {
		return
	}
	sw.flushes++
	f.Flush()
}

// Unwrap exposes the original writer to http.ResponseController.
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}
