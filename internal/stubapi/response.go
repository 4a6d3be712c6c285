package stubapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Error types
const (
	ErrorTypeValidation   = "https://cartsync.dev/errors/validation"
	ErrorTypeNotFound     = "https://cartsync.dev/errors/not-found"
	ErrorTypeUnauthorized = "https://cartsync.dev/errors/unauthorized"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:   ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: detail,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:   ErrorTypeNotFound,
		Title:  "Not Found",
		Status: http.StatusNotFound,
		Detail: detail,
	})
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, ProblemDetails{
		Type:   ErrorTypeUnauthorized,
		Title:  "Unauthorized",
		Status: http.StatusUnauthorized,
		Detail: detail,
	})
}
