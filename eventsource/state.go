package eventsource

// State is the consumer's connection state.
type State int

const (
	// Connecting is the initial state, before the transport reports open.
	Connecting State = iota
	// Open means the transport has an established stream.
	Open
	// Closed is terminal. It is reached on transport error or local close.
	Closed
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}
