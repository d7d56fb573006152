package storage

import (
	"context"
	"testing"
)

func TestMemoryStore_CalculateChanges(t *testing.T) {
	tests := []struct {
		name        string
		initial     map[string]string
		next        map[string]string
		wantAdded   int
		wantUpdated int
		wantDeleted int
	}{
		{
			name:    "no changes",
			initial: map[string]string{"search": "Italy"},
			next:    map[string]string{"search": "Italy"},
		},
		{
			name:      "one added",
			initial:   map[string]string{"search": "Italy"},
			next:      map[string]string{"search": "Italy", "theme": "dark"},
			wantAdded: 1,
		},
		{
			name:        "one updated",
			initial:     map[string]string{"search": "Italy"},
			next:        map[string]string{"search": "USA"},
			wantUpdated: 1,
		},
		{
			name:        "updated to empty string",
			initial:     map[string]string{"search": "Italy"},
			next:        map[string]string{"search": ""},
			wantUpdated: 1,
		},
		{
			name:        "one deleted",
			initial:     map[string]string{"search": "Italy", "theme": "dark"},
			next:        map[string]string{"search": "Italy"},
			wantDeleted: 1,
		},
		{
			name:        "mixed",
			initial:     map[string]string{"a": "1", "b": "2"},
			next:        map[string]string{"a": "9", "c": "3"},
			wantAdded:   1,
			wantUpdated: 1,
			wantDeleted: 1,
		},
		{
			name:        "everything removed",
			initial:     map[string]string{"a": "1", "b": "2"},
			next:        map[string]string{},
			wantDeleted: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			ctx := context.Background()
			if err := store.Replace(ctx, tt.initial); err != nil {
				t.Fatalf("Replace() error = %v", err)
			}

			changes := store.CalculateChanges(tt.next)
			if len(changes.Added) != tt.wantAdded {
				t.Errorf("Added = %d, want %d", len(changes.Added), tt.wantAdded)
			}
			if len(changes.Updated) != tt.wantUpdated {
				t.Errorf("Updated = %d, want %d", len(changes.Updated), tt.wantUpdated)
			}
			if len(changes.Deleted) != tt.wantDeleted {
				t.Errorf("Deleted = %d, want %d", len(changes.Deleted), tt.wantDeleted)
			}

			if err := store.PartialReload(ctx, changes); err != nil {
				t.Fatalf("PartialReload() error = %v", err)
			}
			got, _ := store.List(ctx)
			if len(got) != len(tt.next) {
				t.Fatalf("after PartialReload store has %d keys, want %d", len(got), len(tt.next))
			}
			for k, v := range tt.next {
				if got[k] != v {
					t.Errorf("store[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}
