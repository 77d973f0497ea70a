// errors.go - Structured error handling for API responses
package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIError is the failure envelope for every endpoint: a status code and a
// human-readable detail message, serialized as {"detail": "..."} to match
// the analysis wire contract.
type APIError struct {
	Status int    `json:"-"`
	Detail string `json:"detail"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Detail
}

// NewBadRequestError creates a 400 Bad Request error.
func NewBadRequestError(detail string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Detail: detail}
}

// NewNotFoundError creates a 404 Not Found error.
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Status: http.StatusNotFound,
		Detail: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewInternalError creates a 500 Internal Server Error. The cause, if any,
// is appended to the detail the way the original service reported failures.
func NewInternalError(detail string, cause error) *APIError {
	if cause != nil {
		detail = fmt.Sprintf("%s: %v", detail, cause)
	}
	return &APIError{Status: http.StatusInternalServerError, Detail: detail}
}

// ErrorHandler is the global Echo error handler.
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError

	switch e := err.(type) {
	case *APIError:
		apiErr = e
	case *echo.HTTPError:
		apiErr = &APIError{
			Status: e.Code,
			Detail: fmt.Sprintf("%v", e.Message),
		}
	default:
		apiErr = &APIError{
			Status: http.StatusInternalServerError,
			Detail: "An unexpected error occurred",
		}
	}

	c.JSON(apiErr.Status, apiErr)
}
