package listing

import (
	"strings"

	"jabberwocky238/houselist/internal/types"
)

// Matches reports whether the record's country contains search, ignoring
// case. The empty search matches every record.
func Matches(r types.Record, search string) bool {
	return strings.Contains(strings.ToLower(r.Country), strings.ToLower(search))
}

// Filter returns the records matching search in their original order. It
// never modifies records and always returns a new slice.
func Filter(records []types.Record, search string) []types.Record {
	needle := strings.ToLower(search)
	out := make([]types.Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Country), needle) {
			out = append(out, r)
		}
	}
	return out
}
