// Package eventsource implements the consumer half of the Server-Sent
// Events protocol.
//
// A Client wraps a Transport that emits named sse.Event values ("open",
// "error", "close" and one per received event name) and turns them into
// awaitable values: connection readiness, the next event of a given name,
// or the last received payload. The client recognizes the configured EOS
// marker by comparing canonical payloads and closes itself when it arrives.
//
// HTTPTransport is the concrete transport over a long-lived GET request.
// It does not reconnect.
//
// # Usage
//
//	c, err := eventsource.Dial[string](ctx, eventsource.Config{
//		URL:       "http://localhost:8080/events",
//		EOSMarker: sse.Chunk{Data: "EOS"},
//	})
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//	msg, err := c.MessageChangePromise().Await(ctx)
package eventsource
