// Package notify provides a small fan-out hub for change notifications.
package notify

import (
	"context"
	"sync"
)

// DefaultBuffer is the channel capacity given to each watcher.
const DefaultBuffer = 64

// Hub delivers values of type T to any number of watchers. Delivery never
// blocks the emitter: a watcher whose buffer is full misses the value.
type Hub[T any] struct {
	mu       sync.Mutex
	watchers []chan T
	buffer   int
}

// NewHub creates a Hub whose watcher channels hold up to buffer values.
// A non-positive buffer selects DefaultBuffer.
func NewHub[T any](buffer int) *Hub[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub[T]{buffer: buffer}
}

// Watch returns a channel that receives emitted values. The channel is
// closed when ctx is cancelled.
func (h *Hub[T]) Watch(ctx context.Context) <-chan T {
	ch := make(chan T, h.buffer)

	h.mu.Lock()
	h.watchers = append(h.watchers, ch)
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, w := range h.watchers {
			if w == ch {
				h.watchers = append(h.watchers[:i], h.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch
}

// Emit sends v to all active watchers without blocking.
func (h *Hub[T]) Emit(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.watchers {
		select {
		case ch <- v:
		default:
			// Drop if watcher is not keeping up.
		}
	}
}

// Len returns the number of active watchers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers)
}
