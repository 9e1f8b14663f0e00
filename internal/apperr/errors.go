// Package apperr defines sentinel errors shared across layers.
package apperr

import "errors"

var (
	// ErrNotFound marks a lookup miss (unknown slug, unknown guide).
	// Callers render a not-found page, not a system error.
	ErrNotFound = errors.New("not found")
	// ErrUpstream marks an external store failure. The store client
	// tags network, status, and decode errors with it; repositories
	// recover it into fallback data rather than propagating it to the
	// page layer.
	ErrUpstream = errors.New("upstream unavailable")
)
