package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edgard/chatscope/internal/services"
)

// httpError is an error with the status code it should be reported with.
type httpError struct {
	Code    int
	Message string
}

func (e *httpError) Error() string {
	return e.Message
}

// mapServiceError maps service-layer errors to HTTP error responses.
func mapServiceError(err error) *httpError {
	var validErr *services.ValidationError
	if errors.As(err, &validErr) {
		return &httpError{Code: http.StatusBadRequest, Message: validErr.Error()}
	}
	if errors.Is(err, services.ErrNotFound) {
		return &httpError{Code: http.StatusNotFound, Message: "resource not found"}
	}
	if errors.Is(err, services.ErrForbidden) {
		return &httpError{Code: http.StatusForbidden, Message: "resource belongs to another user"}
	}
	if errors.Is(err, services.ErrNoData) {
		return &httpError{Code: http.StatusUnprocessableEntity, Message: services.ErrNoData.Error()}
	}
	if errors.Is(err, services.ErrUpstream) {
		return &httpError{Code: http.StatusBadGateway, Message: "analysis model is unavailable, try again later"}
	}

	// Unexpected error
	slog.Error("Unexpected service error", "error", err)
	return &httpError{Code: http.StatusInternalServerError, Message: "internal server error"}
}

// abortWithError writes the mapped error response. Server-side failures are
// also attached to the context so the request logger reports them.
func abortWithError(c *gin.Context, err error) {
	he := mapServiceError(err)
	if he.Code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(he.Code, ErrorResponse{Error: he.Message})
}

// abortBadRequest reports a malformed request.
func abortBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: message})
}
