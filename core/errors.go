package core

import "errors"

// Error taxonomy shared across the service. Callers match with errors.Is;
// adapters wrap these with fmt.Errorf("...: %w", ...) to add context.
var (
	// ErrInvalidScore marks a submission outside the configured bounds,
	// rejected before any store write.
	ErrInvalidScore = errors.New("invalid score")

	// ErrNotFound marks a user-scoped query with no records. Callers should
	// treat it as an empty result, not a failure.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable marks an unreachable backend. It is retryable, but
	// the service never retries on its own.
	ErrStoreUnavailable = errors.New("store unavailable")
)
