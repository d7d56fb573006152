// Package types defines the house record type, key/value change sets and
// sentinel errors used throughout the houselist module.
package types

import (
	"errors"
	"fmt"
)

// Record is a single house listing. Records are immutable once loaded.
type Record struct {
	ID      int64   `json:"id" yaml:"id"`
	Address string  `json:"address" yaml:"address"`
	Country string  `json:"country" yaml:"country"`
	Price   float64 `json:"price" yaml:"price"`
}

// Validate reports whether the record's fields are acceptable on their own.
func (r Record) Validate() error {
	if r.Price < 0 {
		return fmt.Errorf("record %d: %w", r.ID, ErrNegativePrice)
	}
	return nil
}

// ValidateRecords checks every record and rejects collections that contain
// the same ID twice.
func ValidateRecords(records []Record) error {
	seen := make(map[int64]struct{}, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("record %d: %w", r.ID, ErrDuplicateID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

// CloneRecords returns a copy of records that shares no backing array with
// the input. A nil input yields an empty, non-nil slice.
func CloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	return out
}

// KVChanges describes a set of key/value changes to apply during a partial
// reload of a store.
type KVChanges struct {
	Added   map[string]string
	Updated map[string]string
	Deleted []string
}

// Empty reports whether the change set carries no changes.
func (c *KVChanges) Empty() bool {
	return len(c.Added) == 0 && len(c.Updated) == 0 && len(c.Deleted) == 0
}

// Sentinel errors.
var (
	ErrKeyNotFound        = errors.New("key not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrLoadFailed         = errors.New("record load failed")
	ErrDuplicateID        = errors.New("duplicate record id")
	ErrNegativePrice      = errors.New("price must not be negative")
	ErrNotFailed          = errors.New("load has not failed")
	ErrUnknownStoreType   = errors.New("unknown storage type")
)
