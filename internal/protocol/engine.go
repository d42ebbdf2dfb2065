package protocol

import (
	"context"
	"fmt"
	"time"
)

// Kind identifies the transport used to execute queries.
type Kind string

const (
	// KindHTTP submits queries over the engine's REST API and polls job
	// status until a terminal state.
	KindHTTP Kind = "http"

	// KindDriver executes queries over a single database/sql connection.
	KindDriver Kind = "driver"
)

// Engine executes one SQL statement under an optional catalog/schema context
// path. Implementations must be safe for concurrent use; whether concurrent
// calls actually run in parallel is implementation-defined.
type Engine interface {
	// Execute runs the statement and returns nil on success or a
	// descriptive error on failure.
	Execute(ctx context.Context, sql string, contextPath []string) error

	// Close releases all resources held by the engine.
	Close() error
}

// Options carries the connection settings shared by both engine kinds.
type Options struct {
	// REST engine
	URL           string
	User          string
	Password      string
	SkipTLSVerify bool

	// Driver engine
	Driver string
	DSN    string

	// Timeout bounds a single query for the REST engine's polling window.
	Timeout time.Duration
}

// Connect establishes an engine of the requested kind. A failure here is
// fatal for the whole run.
func Connect(ctx context.Context, kind Kind, opts Options) (Engine, error) {
	switch kind {
	case KindHTTP:
		return NewRESTEngine(ctx, opts)
	case KindDriver:
		return NewDriverEngine(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown protocol kind '%s'", kind)
	}
}
