// Package listing holds the house list state: the simulated record
// source, the controller owning the loaded collection, the search filter
// and the Session that ties them to a persisted search term.
package listing

import (
	"log/slog"
	"sync"

	"jabberwocky238/houselist/internal/types"
)

// Controller owns the authoritative record collection. The collection is
// empty until ApplyLoad and afterwards only shrinks through Remove.
type Controller struct {
	mu      sync.RWMutex
	records []types.Record
	loaded  bool
	version uint64
}

// NewController creates an empty Controller.
func NewController() *Controller {
	return &Controller{records: []types.Record{}}
}

// ApplyLoad replaces the collection wholesale. Calling it again replaces
// it again; nothing is merged. If records repeats an ID, only the first
// occurrence is kept.
func (c *Controller) ApplyLoad(records []types.Record) {
	next := make([]types.Record, 0, len(records))
	seen := make(map[int64]struct{}, len(records))
	for _, r := range records {
		if _, dup := seen[r.ID]; dup {
			slog.Warn("dropping duplicate record on load", "id", r.ID)
			continue
		}
		seen[r.ID] = struct{}{}
		next = append(next, r)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = next
	c.loaded = true
	c.version++

	slog.Info("records loaded", "count", len(next), "version", c.version)
}

// Remove deletes the record with the given ID, keeping the relative order
// of the rest. It reports whether a record was removed; an unknown ID is a
// no-op.
func (c *Controller) Remove(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, r := range c.records {
		if r.ID != id {
			continue
		}
		next := make([]types.Record, 0, len(c.records)-1)
		next = append(next, c.records[:i]...)
		next = append(next, c.records[i+1:]...)
		c.records = next
		c.version++
		slog.Debug("record removed", "id", id, "remaining", len(next))
		return true
	}
	return false
}

// Current returns a copy of the collection.
func (c *Controller) Current() []types.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return types.CloneRecords(c.records)
}

// Len returns the number of records held.
func (c *Controller) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Loaded reports whether ApplyLoad has run.
func (c *Controller) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Version is bumped on every mutation.
func (c *Controller) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}
