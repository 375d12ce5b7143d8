package middleware

import "net/http"

// Middleware wraps an http.Handler. The server applies it around its root
// ServeMux, so gin routes and the event stream share one stack.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares. The first is the outermost: it sees the
// request first and the response last.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
