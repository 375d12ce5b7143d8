// Package emitter is an in-process named-event notification primitive.
//
// An Emitter delivers each emitted value synchronously to every listener
// registered for that name at the moment Emit is called, in registration
// order. There is no buffering and no replay: a listener registered after an
// emission never sees it. Each Emitter is independent; there is no global
// instance.
//
// # Usage
//
//	em := emitter.New[string]()
//	off := em.On("message", func(s string) { fmt.Println(s) })
//	defer off()
//	em.Emit("message", "hello")
package emitter
