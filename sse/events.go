package sse

// Reserved event names used by the producer's and consumer's notification
// primitives. Application events may use any other name.
const (
	// EventMessage is the default event name for records without an event: line.
	EventMessage = "message"

	// EventOpen is signalled by a transport once the stream is established.
	EventOpen = "open"

	// EventError is signalled by a transport when the stream fails.
	EventError = "error"

	// EventClose is signalled when a producer or consumer is closed locally.
	EventClose = "close"
)
