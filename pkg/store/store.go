// Package store abstracts the external transactional graph database behind a
// parameterized query interface. The engine only ever reads and writes through
// this interface; the persistence engine itself is owned elsewhere.
package store

import (
	"context"
	"errors"
)

var (
	// ErrStoreUnavailable wraps driver/transport-level failures. Callers
	// treat it as a hard failure; the engine never retries on its own.
	ErrStoreUnavailable = errors.New("graph store unavailable")

	// ErrAmbiguousResult reports a single-record query that matched more
	// than one record. For unique keys such as txId this is a
	// data-integrity violation and is surfaced, never silently reduced
	// to one row.
	ErrAmbiguousResult = errors.New("query matched multiple records where at most one was expected")
)

// Summary reports write-statement side effects
type Summary struct {
	PropertiesSet int64
	NodesCreated  int64
}

// Store is the query interface the engine consumes. All values travel as
// bound parameters; implementations must never interpolate parameter values
// into query text. Each call scopes its own session: opened on entry,
// released on every exit path.
type Store interface {
	// Execute runs a read query and returns zero or more records
	Execute(ctx context.Context, query string, params map[string]any) ([]Record, error)

	// ExecuteSingle runs a read query expected to match at most one
	// record. It returns (nil, nil) when nothing matched and
	// ErrAmbiguousResult when more than one record matched.
	ExecuteSingle(ctx context.Context, query string, params map[string]any) (Record, error)

	// ExecuteWrite runs a write statement in its own write transaction
	ExecuteWrite(ctx context.Context, query string, params map[string]any) (Summary, error)

	// Ping verifies connectivity to the backing store
	Ping(ctx context.Context) error

	// Close releases the underlying connection pool
	Close(ctx context.Context) error
}
