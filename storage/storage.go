// Package storage provides the DurableStore key/value boundary, its
// memory, file, ConfigMap and SQLite implementations, and the
// PersistedValue primitive that mirrors one value into a store.
package storage

import (
	"context"
)

// DurableStore is a string key/value store. Values are opaque strings;
// callers convert other types through a Codec.
type DurableStore interface {
	// Get returns the value stored under key. It returns
	// types.ErrKeyNotFound when no entry exists. An entry holding the
	// empty string is present, not absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// Closer is implemented by stores holding resources that must be
// released, such as database handles.
type Closer interface {
	Close() error
}
