package storage

import (
	"jabberwocky238/houselist/internal/types"
)

// CalculateChanges compares entries against the current contents of the
// MemoryStore and returns the diff. The caller can pass the result to
// PartialReload for an atomic update.
func (s *MemoryStore) CalculateChanges(entries map[string]string) *types.KVChanges {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return diffEntries(s.data, entries)
}

// diffEntries returns the changes that turn old into next.
func diffEntries(old, next map[string]string) *types.KVChanges {
	changes := &types.KVChanges{
		Added:   map[string]string{},
		Updated: map[string]string{},
		Deleted: []string{},
	}

	for k, v := range next {
		if prev, exists := old[k]; exists {
			if prev != v {
				changes.Updated[k] = v
			}
		} else {
			changes.Added[k] = v
		}
	}

	for k := range old {
		if _, exists := next[k]; !exists {
			changes.Deleted = append(changes.Deleted, k)
		}
	}

	return changes
}
