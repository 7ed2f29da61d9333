package ojs

import (
	"errors"
	"fmt"
	"net/url"
)

// Sentinel errors returned by the resolver.
var (
	// ErrNotFound indicates that no publication matched the vernacular title exactly.
	ErrNotFound = errors.New("publication not found")

	// ErrUpstreamUnavailable indicates a transport failure or non-success response.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// NotFoundError names the title that could not be matched.
type NotFoundError struct {
	Title  string
	Reason string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("publication not found for %q: %s", e.Title, e.Reason)
	}
	return fmt.Sprintf("publication not found for %q", e.Title)
}

// Unwrap returns ErrNotFound for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// UpstreamError provides details about a failed call to OJS.
type UpstreamError struct {
	Op string
	// URL has its query removed so the API token never reaches logs.
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: status %d", e.Op, e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
}

// Unwrap exposes both ErrUpstreamUnavailable and the cause.
func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstreamUnavailable}
	}
	return []error{ErrUpstreamUnavailable, e.Err}
}

func newUpstreamError(op, rawURL string, status int, err error) *UpstreamError {
	return &UpstreamError{Op: op, URL: redactURL(rawURL), StatusCode: status, Err: err}
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
