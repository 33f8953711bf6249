package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrMaxRetries      = errors.New("max retries exceeded")
	ErrBadStatus       = errors.New("unexpected status")
	ErrEmptyResponse   = errors.New("empty response body")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrNoCandidates    = errors.New("no candidate article links found")
	ErrMalformedOutput = errors.New("malformed model output")
	ErrBrowserDisabled = errors.New("browser backend disabled")
)

// FetchError describes a page that could not be retrieved. Backends skip
// the page and move on.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractError is returned by an extraction backend when a whole source fails.
type ExtractError struct {
	Backend string
	URL     string
	Stage   string // "homepage", "discovery", "candidate"
	Err     error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("%s backend failed at %s for %s: %v", e.Backend, e.Stage, e.URL, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// AnnotationKind classifies annotation failures.
type AnnotationKind string

const (
	// KindTransport covers connection errors, timeouts and retryable HTTP statuses.
	KindTransport AnnotationKind = "transport"
	// KindMalformed covers bodies that arrived but cannot be used. Never retried.
	KindMalformed AnnotationKind = "malformed"
	// KindRejected covers non-retryable HTTP statuses.
	KindRejected AnnotationKind = "rejected"
)

// AnnotationError wraps a failed model call.
type AnnotationError struct {
	Kind     AnnotationKind
	Attempts int
	Err      error
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("annotation %s failure after %d attempt(s): %v", e.Kind, e.Attempts, e.Err)
}

func (e *AnnotationError) Unwrap() error { return e.Err }

// IsRetryable reports whether another attempt may succeed.
func (e *AnnotationError) IsRetryable() bool { return e.Kind == KindTransport }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PipelineError wraps errors that occur in the processing pipeline.
type PipelineError struct {
	Stage   string
	Article *Article
	Err     error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
