package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"jabberwocky238/houselist/internal/notify"
	"jabberwocky238/houselist/internal/types"
)

// PersistedValue binds one in-memory value to one DurableStore key.
// Reads are served from memory and never wait on the store. Every Set
// writes the new value through to the store while holding writeMu, so
// writes reach the store in the order Set was called.
type PersistedValue[T any] struct {
	store DurableStore
	key   string
	codec Codec[T]

	// writeMu orders store writes; mu guards value and dirty only.
	writeMu sync.Mutex
	mu      sync.Mutex
	value   T
	dirty   bool // last write to the store failed and has not been retried

	changes *notify.Hub[T]
}

// NewPersistedValue initializes a value for key from store. If the store
// holds no entry for key, def is written to the store and returned. If
// the store cannot be read or the stored text cannot be decoded, def is
// used and the failure is only logged.
func NewPersistedValue[T any](ctx context.Context, store DurableStore, key string, def T, codec Codec[T]) *PersistedValue[T] {
	p := &PersistedValue[T]{
		store:   store,
		key:     key,
		codec:   codec,
		value:   def,
		changes: notify.NewHub[T](0),
	}

	raw, err := store.Get(ctx, key)
	switch {
	case errors.Is(err, types.ErrKeyNotFound):
		p.writeMu.Lock()
		p.writeLocked(ctx, def)
		p.writeMu.Unlock()
	case err != nil:
		slog.Warn("persisted value read failed, using default", "key", key, "err", err)
	default:
		v, err := codec.Decode(raw)
		if err != nil {
			slog.Warn("persisted value decode failed, using default", "key", key, "err", err)
			break
		}
		p.value = v
	}
	return p
}

// NewPersistedString is NewPersistedValue with a StringCodec.
func NewPersistedString(ctx context.Context, store DurableStore, key, def string) *PersistedValue[string] {
	return NewPersistedValue[string](ctx, store, key, def, StringCodec{})
}

// Key returns the store key the value is bound to.
func (p *PersistedValue[T]) Key() string {
	return p.key
}

// Value returns the current in-memory value.
func (p *PersistedValue[T]) Value() T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Set replaces the value and writes it to the store. A failed write is
// logged and kept pending; the next Set or Flush writes the latest value.
func (p *PersistedValue[T]) Set(ctx context.Context, v T) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	p.value = v
	p.mu.Unlock()

	p.writeLocked(ctx, v)
	p.changes.Emit(v)
}

// Flush retries a pending write, if any.
func (p *PersistedValue[T]) Flush(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	dirty, v := p.dirty, p.value
	p.mu.Unlock()

	if !dirty {
		return nil
	}
	if err := p.writeLocked(ctx, v); err != nil {
		return fmt.Errorf("flush %q: %w", p.key, err)
	}
	return nil
}

// Dirty reports whether the store may hold an older value than memory.
func (p *PersistedValue[T]) Dirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty
}

// Watch returns a channel receiving every value passed to Set. The
// channel is closed when ctx is cancelled.
func (p *PersistedValue[T]) Watch(ctx context.Context) <-chan T {
	return p.changes.Watch(ctx)
}

// writeLocked encodes v and stores it. Caller must hold p.writeMu, and v
// must be the current value.
func (p *PersistedValue[T]) writeLocked(ctx context.Context, v T) error {
	raw, err := p.codec.Encode(v)
	if err != nil {
		// Retrying cannot fix an unencodable value.
		slog.Error("persisted value encode failed", "key", p.key, "err", err)
		return err
	}
	err = p.store.Set(ctx, p.key, raw)

	p.mu.Lock()
	p.dirty = err != nil
	p.mu.Unlock()

	if err != nil {
		slog.Warn("persisted value write failed, will retry", "key", p.key, "err", err)
		return err
	}
	return nil
}
