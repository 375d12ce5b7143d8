// Package server provides the HTTP server used to expose an SSE producer.
//
// Routes are registered on a Gin engine mounted at the root of a ServeMux.
// Streaming handlers that must bypass Gin (such as sse.Handler) are mounted
// directly on the mux with Handle. The whole mux is served over HTTP/1.1
// and h2c.
//
// # Middleware
//
// Built-in middleware (server/middleware), applied around the mux:
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: request ID generation and propagation
//   - CORS: cross-origin resource sharing
//   - BodySizeLimit: request body size limits
//   - RequestLogger: request logging with duration tracking
//
// # Endpoints
//
// Built-in endpoints (server/endpoint): /health, /alive and /info.
package server
