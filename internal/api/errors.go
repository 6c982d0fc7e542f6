package api

import (
	"errors"
	"fmt"
)

// Provider failure kinds. Match with errors.Is.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limited")
	ErrServerError = errors.New("provider server error")
	ErrFetchFailed = errors.New("fetch failed")
)

// ProviderError carries everything a caller needs to report a failed
// calendar fetch without re-deriving it.
type ProviderError struct {
	Kind       error
	StatusCode int    // 0 when no HTTP response was received
	Message    string // provider-supplied message, if any
	Location   string
	Month      int
	Year       int
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s for %02d/%d in %s", e.Kind, e.Month, e.Year, e.Location)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
