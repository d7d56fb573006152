package types

import (
	"errors"
	"testing"
)

func TestRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		record  Record
		wantErr error
	}{
		{name: "positive price", record: Record{ID: 1, Country: "Italy", Price: 500000}},
		{name: "zero price", record: Record{ID: 2, Country: "USA", Price: 0}},
		{name: "negative price", record: Record{ID: 3, Country: "USA", Price: -1}, wantErr: ErrNegativePrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRecords(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		wantErr error
	}{
		{name: "empty", records: nil},
		{
			name:    "unique ids",
			records: []Record{{ID: 1}, {ID: 2}, {ID: 3}},
		},
		{
			name:    "duplicate ids",
			records: []Record{{ID: 1}, {ID: 2}, {ID: 1}},
			wantErr: ErrDuplicateID,
		},
		{
			name:    "negative price wins before duplicate",
			records: []Record{{ID: 1, Price: -5}, {ID: 1}},
			wantErr: ErrNegativePrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecords(tt.records)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRecords() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCloneRecords(t *testing.T) {
	orig := []Record{{ID: 1, Country: "Italy"}, {ID: 2, Country: "USA"}}
	clone := CloneRecords(orig)

	clone[0].Country = "changed"
	if orig[0].Country != "Italy" {
		t.Errorf("CloneRecords shares storage with input: orig[0].Country = %q", orig[0].Country)
	}

	if got := CloneRecords(nil); got == nil || len(got) != 0 {
		t.Errorf("CloneRecords(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestKVChanges_Empty(t *testing.T) {
	if !(&KVChanges{}).Empty() {
		t.Error("zero KVChanges should be empty")
	}
	c := &KVChanges{Deleted: []string{"search"}}
	if c.Empty() {
		t.Error("KVChanges with a deletion should not be empty")
	}
}
