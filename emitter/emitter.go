package emitter

import (
	"sync"
	"sync/atomic"
)

// Handler receives emitted values.
type Handler[T any] func(T)

type listener[T any] struct {
	id      uint64
	handler Handler[T]
	once    bool
	active  atomic.Bool
}

// Emitter fans values out to named listeners. It is safe for concurrent use.
// Handlers run on the emitting goroutine outside the emitter's lock, so they
// may register, remove or emit re-entrantly.
type Emitter[T any] struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[string][]*listener[T]
}

// New creates an empty emitter.
func New[T any]() *Emitter[T] {
	return &Emitter[T]{listeners: make(map[string][]*listener[T])}
}

// On registers h for name and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (e *Emitter[T]) On(name string, h Handler[T]) (off func()) {
	return e.add(name, h, false)
}

// Once registers h for the next emission of name only.
func (e *Emitter[T]) Once(name string, h Handler[T]) (off func()) {
	return e.add(name, h, true)
}

func (e *Emitter[T]) add(name string, h Handler[T], once bool) func() {
	e.mu.Lock()
	e.nextID++
	l := &listener[T]{id: e.nextID, handler: h, once: once}
	l.active.Store(true)
	e.listeners[name] = append(e.listeners[name], l)
	e.mu.Unlock()

	return func() { e.remove(name, l.id) }
}

func (e *Emitter[T]) remove(name string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ls := e.listeners[name]
	for i, l := range ls {
		if l.id != id {
			continue
		}
		l.active.Store(false)
		rest := make([]*listener[T], 0, len(ls)-1)
		rest = append(rest, ls[:i]...)
		rest = append(rest, ls[i+1:]...)
		if len(rest) == 0 {
			delete(e.listeners, name)
		} else {
			e.listeners[name] = rest
		}
		return
	}
}

// Emit delivers v to the listeners registered for name at call time and
// returns how many were notified. Listeners removed by an earlier handler
// during the same emission are skipped.
func (e *Emitter[T]) Emit(name string, v T) int {
	e.mu.Lock()
	snapshot := e.listeners[name]
	kept := make([]*listener[T], 0, len(snapshot))
	for _, l := range snapshot {
		if !l.once {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		delete(e.listeners, name)
	} else if len(kept) != len(snapshot) {
		e.listeners[name] = kept
	}
	e.mu.Unlock()

	notified := 0
	for _, l := range snapshot {
		if l.once {
			// A concurrent Emit may already have claimed this listener.
			if !l.active.CompareAndSwap(true, false) {
				continue
			}
		} else if !l.active.Load() {
			continue
		}
		l.handler(v)
		notified++
	}
	return notified
}

// ListenerCount returns the number of listeners registered for name.
func (e *Emitter[T]) ListenerCount(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[name])
}

// RemoveAll drops every listener registered for name.
func (e *Emitter[T]) RemoveAll(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range e.listeners[name] {
		l.active.Store(false)
	}
	delete(e.listeners, name)
}
