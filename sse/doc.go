// Package sse implements the producer half of the Server-Sent Events
// protocol and the wire codec shared with the consumer.
//
// # Architecture
//
//   - Chunk: application-level unit of emission (event name, data, comment)
//   - Format: deterministic Chunk to wire-record encoding
//   - Reader: wire-record decoding from a byte stream
//   - Producer: validates, formats and broadcasts chunks, runs the optional
//     heartbeat and emits the EOS marker on Close
//   - Subscription: ordered per-reader queue of a Producer's broadcast
//   - Handler: streams a Producer to HTTP clients, one Subscription each
//
// # Broadcast semantics
//
// Producer.MessagePromise returns a promise for the next message broadcast
// after the call. Every promise pending at the time of an emission resolves
// with that same message. There is no per-reader cursor or buffering: a
// reader that is not waiting when a message is emitted does not see it.
//
// Producer.Subscribe is the buffered counterpart for long-lived readers
// such as HTTP streams: it queues every message from subscription until
// the EOS record, bounded by Config.ReaderBuffer.
//
// # Usage
//
//	p, err := sse.NewProducer(sse.Config{EOSMarker: sse.Chunk{Data: "EOS"}})
//	next := p.MessagePromise()
//	_ = p.Emit(sse.Chunk{EventName: "foo", Data: "bar"})
//	msg, _ := next.Await(ctx) // "event: foo\ndata: bar\n\n"
//	_ = p.Close(ctx)
package sse
