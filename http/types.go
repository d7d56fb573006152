package http

import "jabberwocky238/houselist/listing"

// RemoveHouseRequest is the request body for POST /houses/remove.
type RemoveHouseRequest struct {
	ID *int64 `json:"id" binding:"required"`
}

// RemoveHouseResponse is the data of a POST /houses/remove response.
type RemoveHouseResponse struct {
	Removed  bool             `json:"removed"`
	Snapshot listing.Snapshot `json:"snapshot"`
}

// SetSearchRequest is the request body for POST /search. Value may be
// the empty string, so it is a pointer to tell it apart from a missing field.
type SetSearchRequest struct {
	Value *string `json:"value" binding:"required"`
}

// SearchResponse is the data of the /search endpoints.
type SearchResponse struct {
	Search string `json:"search"`
}
