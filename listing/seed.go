package listing

import (
	"fmt"
	"os"

	"jabberwocky238/houselist/internal/types"

	"gopkg.in/yaml.v3"
)

// DefaultSeed returns a fresh copy of the built-in sample houses.
func DefaultSeed() []types.Record {
	return []types.Record{
		{ID: 1, Address: "12 Valley of Kings, Geneva", Country: "Switzerland", Price: 900000},
		{ID: 2, Address: "89 Road of Forks, Bern", Country: "Italy", Price: 500000},
		{ID: 3, Address: "1053 Lake Side Drive", Country: "Netherlands", Price: 600500},
		{ID: 4, Address: "1916 Rustic Oak Road", Country: "USA", Price: 600900},
		{ID: 5, Address: "1256 Macapagal Road", Country: "Philippines", Price: 700900},
	}
}

// seedFile is the document form of a fixture file.
type seedFile struct {
	Houses []types.Record `yaml:"houses"`
}

// ParseSeed decodes a fixture. It accepts either a document with a
// top-level "houses" list or a bare list. JSON is valid YAML, so both
// formats are handled.
func ParseSeed(data []byte) ([]types.Record, error) {
	var records []types.Record

	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err == nil && doc.Houses != nil {
		records = doc.Houses
	} else if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal seed: %w", err)
	}

	if err := validateSeed(records); err != nil {
		return nil, err
	}
	return records, nil
}

// LoadSeedFile reads and parses a fixture file.
func LoadSeedFile(path string) ([]types.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	records, err := ParseSeed(data)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return records, nil
}

func validateSeed(records []types.Record) error {
	if err := types.ValidateRecords(records); err != nil {
		return fmt.Errorf("invalid seed: %w", err)
	}
	return nil
}
