// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// External Service Ports
// -----------------------------------------------------------------------------

// Tokens is the token collaborator. The encoding scheme is opaque to the
// pipeline; it only hands tokens across this boundary.
type Tokens interface {
	// Create issues a token carrying the payload and permission list,
	// valid for ttl.
	Create(payload map[string]any, ttl time.Duration, permissions []string) (string, error)

	// Validate checks the token signature, expiry, and that every
	// required permission is present, returning the decoded payload.
	Validate(token string, required []string) (map[string]any, error)
}

// Metrics receives pipeline observations. A nil implementation is legal;
// callers must guard.
type Metrics interface {
	// RequestHandled records a completed request with its envelope code.
	RequestHandled(method, path string, code int, elapsed time.Duration)

	// ValidationFailed records a rejection at a named pipeline stage
	// (method, content_type, header, token, query, body, config).
	ValidationFailed(stage string)
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// AccessEntry is one completed request as seen by the access log.
type AccessEntry struct {
	ID        string
	Timestamp time.Time
	Method    string
	Path      string
	Status    int   // HTTP status written
	Code      int   // envelope code
	LatencyMs int64
	RemoteIP  string
	UserAgent string
}

// AccessLog persists access entries. Record must not block the request
// path; implementations buffer and flush in the background.
type AccessLog interface {
	// Record enqueues an entry for persistence.
	Record(ctx context.Context, e AccessEntry) error

	// Recent returns the most recent entries, newest first.
	Recent(ctx context.Context, limit int) ([]AccessEntry, error)

	// Close flushes buffered entries and releases resources.
	Close() error
}
