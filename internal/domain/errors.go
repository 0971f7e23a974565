package domain

import (
	"context"

	"github.com/cockroachdb/errors"
)

var (
	// ErrInvalidQuery is returned when the search text is empty
	ErrInvalidQuery = errors.New("invalid query: search text is required")

	// ErrInvalidFilter is returned when a filter spec has impossible bounds
	ErrInvalidFilter = errors.New("invalid filter specification")

	// ErrAdapterTimeout is returned when a site adapter cannot finish before its deadline
	ErrAdapterTimeout = errors.New("adapter timeout")

	// ErrAdapterFailure is returned for any other site adapter fault
	ErrAdapterFailure = errors.New("adapter failure")

	// ErrGlobalDeadlineExceeded marks sites still running when the search deadline fired
	ErrGlobalDeadlineExceeded = errors.New("global deadline exceeded")

	// ErrCancelled is returned when the caller cancelled the operation
	ErrCancelled = errors.New("operation cancelled")

	// ErrUnknownSite is returned when a site id is not in the registry
	ErrUnknownSite = errors.New("unknown site")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ErrorKind classifies a per-site failure.
type ErrorKind string

const (
	KindTimeout        ErrorKind = "timeout"
	KindFailure        ErrorKind = "failure"
	KindGlobalDeadline ErrorKind = "global_deadline"
	KindCancelled      ErrorKind = "cancelled"
)

// ClassifyError maps an adapter or executor error onto an ErrorKind.
func ClassifyError(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrGlobalDeadlineExceeded):
		return KindGlobalDeadline
	case errors.Is(err, ErrAdapterTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return KindCancelled
	default:
		return KindFailure
	}
}
