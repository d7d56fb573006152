package http

import (
	"errors"
	"net/http"

	"jabberwocky238/houselist/internal/types"
	"jabberwocky238/houselist/listing"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of every API response. Code is 0 on success
// and the HTTP status otherwise.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "ok", Data: data})
}

func Fail(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, Response{Code: httpStatus, Message: message})
}

// FailErr responds with the status matching err.
func FailErr(c *gin.Context, err error) {
	Fail(c, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFailed):
		return http.StatusConflict
	case errors.Is(err, listing.ErrSessionClosed), errors.Is(err, types.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, types.ErrDuplicateID), errors.Is(err, types.ErrNegativePrice):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
