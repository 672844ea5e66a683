// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mms-viewer/backend/internal/archive"
	"github.com/mms-viewer/backend/internal/cdf"
	"github.com/mms-viewer/backend/internal/event"
	"github.com/mms-viewer/backend/internal/models"
	"github.com/mms-viewer/backend/internal/parser"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ExposeDetails controls whether unexpected errors carry their text in responses.
var ExposeDetails = true

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	return withCause(&APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}, cause)
}

// NewConfigurationError creates a 400 error for a request the archive cannot serve
func NewConfigurationError(cause error) *APIError {
	return withCause(&APIError{
		Status:  http.StatusBadRequest,
		Code:    "CONFIGURATION_ERROR",
		Message: "invalid request configuration",
	}, cause)
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewLookupError creates a 422 error for data that was fetched but could not be used
func NewLookupError(code, message string, cause error) *APIError {
	return withCause(&APIError{
		Status:  http.StatusUnprocessableEntity,
		Code:    code,
		Message: message,
	}, cause)
}

// NewBadGatewayError creates a 502 error for archive failures
func NewBadGatewayError(cause error) *APIError {
	return withCause(&APIError{
		Status:  http.StatusBadGateway,
		Code:    "ARCHIVE_UNAVAILABLE",
		Message: "science archive request failed",
	}, cause)
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	return withCause(&APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}, cause)
}

func withCause(e *APIError, cause error) *APIError {
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// FromError classifies a pipeline error into its API response.
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, models.ErrConfiguration):
		return NewConfigurationError(err)
	case archive.IsTransport(err):
		return NewBadGatewayError(err)
	case errors.Is(err, event.ErrNoFiles):
		return NewLookupError("NO_FILES", "the archive listed no files", err)
	case errors.Is(err, archive.ErrParse):
		return NewLookupError("LISTING_INVALID", "the archive listing could not be parsed", err)
	case errors.Is(err, parser.ErrNoLoader):
		return NewLookupError("NO_LOADER", "no loader for the listed file", err)
	case errors.Is(err, parser.ErrNoMatchingVariable), errors.Is(err, cdf.ErrVariableNotFound):
		return NewLookupError("VARIABLE_NOT_FOUND", "required variable missing from file", err)
	case errors.Is(err, cdf.ErrNotCDF), errors.Is(err, cdf.ErrCorrupt), errors.Is(err, cdf.ErrUnsupported):
		return NewLookupError("FILE_UNREADABLE", "science file could not be read", err)
	case errors.Is(err, parser.ErrUnexpectedShape):
		return &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "UNEXPECTED_SHAPE",
			Message: "field variable has an unexpected shape",
			Details: err.Error(),
		}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
	}

	apiErr = &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "UNKNOWN_ERROR",
		Message: "An unexpected error occurred",
	}
	if ExposeDetails {
		apiErr.Details = err.Error()
	}
	return apiErr
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	apiErr := FromError(err)
	if c.Request().Method == http.MethodHead {
		c.NoContent(apiErr.Status)
		return
	}
	c.JSON(apiErr.Status, apiErr)
}
