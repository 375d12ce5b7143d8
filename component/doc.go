// Package component defines the lifecycle contract shared by evtsrc's
// long-lived pieces (producer, consumer, HTTP server) and a Registry that
// starts them in registration order and stops them in reverse.
package component
