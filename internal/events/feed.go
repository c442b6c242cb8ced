package events

import "sync"

// Feed fans values out to channel subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the value.
type Feed[T any] struct {
	mu   sync.RWMutex
	subs map[chan T]struct{}
	size int
}

func NewFeed[T any](buffer int) *Feed[T] {
	if buffer <= 0 {
		buffer = 64
	}
	return &Feed[T]{
		subs: make(map[chan T]struct{}),
		size: buffer,
	}
}

func (f *Feed[T]) Subscribe() chan T {
	ch := make(chan T, f.size)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()
	return ch
}

func (f *Feed[T]) Unsubscribe(ch chan T) {
	f.mu.Lock()
	if _, ok := f.subs[ch]; ok {
		delete(f.subs, ch)
		close(ch)
	}
	f.mu.Unlock()
}

func (f *Feed[T]) Publish(v T) {
	f.mu.RLock()
	for ch := range f.subs {
		select {
		case ch <- v:
		default:
		}
	}
	f.mu.RUnlock()
}

// Len reports the number of live subscribers.
func (f *Feed[T]) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
