package http

import (
	"context"
	"net/http"

	"jabberwocky238/houselist/listing"

	"github.com/gin-gonic/gin"
)

// ListingHandler handles the house list and search endpoints.
type ListingHandler struct {
	session *listing.Session
}

// NewListingHandler creates a new ListingHandler for the given session.
func NewListingHandler(session *listing.Session) *ListingHandler {
	return &ListingHandler{session: session}
}

// ListHouses handles GET /houses.
func (h *ListingHandler) ListHouses(c *gin.Context) {
	OK(c, h.session.Snapshot())
}

// RemoveHouse handles POST /houses/remove. Removing an unknown ID is not
// an error.
func (h *ListingHandler) RemoveHouse(c *gin.Context) {
	var req RemoveHouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	removed := h.session.Remove(*req.ID)
	OK(c, RemoveHouseResponse{
		Removed:  removed,
		Snapshot: h.session.Snapshot(),
	})
}

// Reload handles POST /houses/reload, retrying a failed load. The load
// outlives the request.
func (h *ListingHandler) Reload(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())
	if err := h.session.Retry(ctx); err != nil {
		FailErr(c, err)
		return
	}
	OK(c, h.session.Snapshot())
}

// GetSearch handles GET /search.
func (h *ListingHandler) GetSearch(c *gin.Context) {
	OK(c, SearchResponse{Search: h.session.Search()})
}

// SetSearch handles POST /search.
func (h *ListingHandler) SetSearch(c *gin.Context) {
	var req SetSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	h.session.SetSearch(c.Request.Context(), *req.Value)
	OK(c, SearchResponse{Search: h.session.Search()})
}
