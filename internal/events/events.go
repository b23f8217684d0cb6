// Package events provides a small typed observer registry. Subscribing
// returns a stable handle so a specific handler can be detached later,
// which keeps subscribe/unsubscribe symmetric across reconnects.
package events

import "sync"

// Handle identifies one subscribed handler within a Hook.
type Handle int

// Hook is an ordered set of handlers for a single event kind.
// Handlers run in subscription order on the emitting goroutine.
type Hook[T any] struct {
	mu       sync.Mutex
	next     Handle
	order    []Handle
	handlers map[Handle]func(T)
}

// Attach registers fn and returns its handle.
func (h *Hook[T]) Attach(fn func(T)) Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.handlers == nil {
		h.handlers = make(map[Handle]func(T))
	}
	h.next++
	id := h.next
	h.handlers[id] = fn
	h.order = append(h.order, id)
	return id
}

// Detach removes the handler for id. Detaching an unknown handle is a no-op.
func (h *Hook[T]) Detach(id Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.handlers[id]; !ok {
		return
	}
	delete(h.handlers, id)
	for i, v := range h.order {
		if v == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Emit invokes every attached handler with v in subscription order.
func (h *Hook[T]) Emit(v T) {
	h.mu.Lock()
	fns := make([]func(T), 0, len(h.order))
	for _, id := range h.order {
		if fn, ok := h.handlers[id]; ok {
			fns = append(fns, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of attached handlers.
func (h *Hook[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handlers)
}
