package storage

import (
	"context"
	"log/slog"
	"maps"
	"sort"
	"sync"

	"jabberwocky238/houselist/internal/notify"
	"jabberwocky238/houselist/internal/types"
)

// StoreEvent is emitted by MemoryStore after each mutation. Key is empty
// for reload events.
type StoreEvent struct {
	Type  EventType
	Key   string
	Value string
}

// EventType describes the kind of store event.
type EventType string

const (
	EventSet      EventType = "set"
	EventDeleted  EventType = "deleted"
	EventReloaded EventType = "reloaded"
)

// MemoryStore is a thread-safe in-memory DurableStore. It also serves as
// the cache behind FileStore and ConfigMapStore.
type MemoryStore struct {
	mu      sync.RWMutex
	data    map[string]string
	version uint64
	events  *notify.Hub[StoreEvent]
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]string),
		events: notify.NewHub[StoreEvent](0),
	}
}

// Get returns the value stored under key.
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return "", types.ErrKeyNotFound
	}
	return v, nil
}

// Set stores value under key.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	s.version++

	s.events.Emit(StoreEvent{Type: EventSet, Key: key, Value: value})
	return nil
}

// Delete removes key. Returns types.ErrKeyNotFound if it does not exist.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return types.ErrKeyNotFound
	}
	delete(s.data, key)
	s.version++

	s.events.Emit(StoreEvent{Type: EventDeleted, Key: key})
	return nil
}

// List returns a copy of every stored entry.
func (s *MemoryStore) List(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.data), nil
}

// Keys returns the stored keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Replace swaps the full contents for entries atomically.
func (s *MemoryStore) Replace(_ context.Context, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = maps.Clone(entries)
	if s.data == nil {
		s.data = make(map[string]string)
	}
	s.version++

	slog.Info("store replaced", "keys", len(entries), "version", s.version)
	s.events.Emit(StoreEvent{Type: EventReloaded})
	return nil
}

// PartialReload applies only the changed entries atomically.
func (s *MemoryStore) PartialReload(_ context.Context, changes *types.KVChanges) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range changes.Added {
		s.data[k] = v
	}
	for k, v := range changes.Updated {
		s.data[k] = v
	}
	for _, k := range changes.Deleted {
		delete(s.data, k)
	}
	s.version++

	slog.Info("partial reload complete",
		"added", len(changes.Added),
		"updated", len(changes.Updated),
		"deleted", len(changes.Deleted),
		"version", s.version,
	)
	s.events.Emit(StoreEvent{Type: EventReloaded})
	return nil
}

// Watch returns a channel that receives store events. The channel is
// closed when ctx is cancelled.
func (s *MemoryStore) Watch(ctx context.Context) (<-chan StoreEvent, error) {
	return s.events.Watch(ctx), nil
}

// Version returns the current store version counter.
func (s *MemoryStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
