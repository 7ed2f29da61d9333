package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/openjournals/ojs-pubmed/ojs"
	"github.com/openjournals/ojs-pubmed/pubmed"
)

// ErrMalformedInput indicates that an article file is not well-formed XML.
var ErrMalformedInput = errors.New("malformed input")

// Reason classifies why an article was excluded from the collection.
type Reason string

const (
	ReasonMalformedInput      Reason = "MalformedInput"
	ReasonMissingAnchor       Reason = "MissingRequiredAnchor"
	ReasonNotFound            Reason = "NotFound"
	ReasonUpstreamUnavailable Reason = "UpstreamUnavailable"
	ReasonCancelled           Reason = "Cancelled"
	ReasonInternal            Reason = "Internal"
)

// ArticleError reports a per-article failure. It never aborts a batch.
type ArticleError struct {
	Name   string
	Reason Reason
	Err    error
}

// Error implements the error interface.
func (e *ArticleError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Name, e.Reason, e.Err)
}

// Unwrap returns the underlying cause for use with errors.Is.
func (e *ArticleError) Unwrap() error {
	return e.Err
}

// ReasonOf classifies err by the sentinel errors it wraps.
func ReasonOf(err error) Reason {
	var ae *ArticleError
	if errors.As(err, &ae) {
		return ae.Reason
	}

	switch {
	case errors.Is(err, ErrMalformedInput):
		return ReasonMalformedInput
	case errors.Is(err, pubmed.ErrMissingAnchor):
		return ReasonMissingAnchor
	case errors.Is(err, ojs.ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, ojs.ErrUpstreamUnavailable):
		return ReasonUpstreamUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCancelled
	default:
		return ReasonInternal
	}
}

func articleError(name string, err error) *ArticleError {
	return &ArticleError{Name: name, Reason: ReasonOf(err), Err: err}
}
