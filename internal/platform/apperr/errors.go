// Package apperr holds the error kinds shared by the lab domain packages and
// their translation into HTTP errors.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrNotFound is wrapped by each domain's own not-found sentinel.
var ErrNotFound = errors.New("not found")

// NotFound builds a domain sentinel such as "qc test not found" that still
// matches errors.Is(err, ErrNotFound).
func NotFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func Invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Required is shorthand for the common "is required" case.
func Required(field string) error {
	return &ValidationError{Field: field, Message: "is required"}
}

// HTTP maps a service error onto the matching echo.HTTPError.
func HTTP(err error) error {
	if err == nil {
		return nil
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
}
