package events

import (
	"fmt"
	"sync"
)

// Handler reacts to a published payload. A returned error aborts the
// remaining handlers and is handed back to the publisher.
type Handler[P any] func(payload P) error

// Bus dispatches payloads to the handlers registered for a kind,
// synchronously and in registration order.
type Bus[K comparable, P any] struct {
	mu   sync.RWMutex
	subs map[K][]Handler[P]
}

// NewBus returns a bus with no subscribers.
func NewBus[K comparable, P any]() *Bus[K, P] {
	return &Bus[K, P]{
		subs: make(map[K][]Handler[P]),
	}
}

// Subscribe registers h for kind. A kind may have any number of handlers.
func (b *Bus[K, P]) Subscribe(kind K, h Handler[P]) {
	b.mu.Lock()
	b.subs[kind] = append(b.subs[kind], h)
	b.mu.Unlock()
}

// Publish calls the handlers for kind in registration order and returns
// the first error, wrapped with the kind. Handlers run outside the lock.
func (b *Bus[K, P]) Publish(kind K, payload P) error {
	b.mu.RLock()
	handlers := append([]Handler[P](nil), b.subs[kind]...)
	b.mu.RUnlock()

	for i, h := range handlers {
		if err := h(payload); err != nil {
			return fmt.Errorf("%v handler #%d: %w", kind, i, err)
		}
	}
	return nil
}

// Handlers reports how many handlers are registered for kind.
func (b *Bus[K, P]) Handlers(kind K) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}
