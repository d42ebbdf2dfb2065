package protocol

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// DriverEngine executes queries over one long-lived database/sql connection.
// The connection is not safe for concurrent use, so every call serializes
// through a single mutex: a larger worker pool does not increase actual
// concurrency for this protocol. That bottleneck mirrors the connection
// semantics of the drivers it wraps and is intentional.
type DriverEngine struct {
	db   *sql.DB
	conn *sql.Conn

	mu sync.Mutex
	// lastContext is the context path applied by the most recent USE
	// statement; guarded by mu.
	lastContext []string

	log *logrus.Entry
}

// NewDriverEngine opens the driver, pins one connection, and verifies it. A
// failure here is fatal for the run.
func NewDriverEngine(ctx context.Context, opts Options) (*DriverEngine, error) {
	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening driver '%s': %w", opts.Driver, err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting via driver '%s': %w", opts.Driver, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		return nil, fmt.Errorf("connecting via driver '%s': %w", opts.Driver, err)
	}

	return &DriverEngine{
		db:   db,
		conn: conn,
		log:  logrus.WithField("protocol", "driver"),
	}, nil
}

// Execute runs the statement on the shared connection. When the requested
// context path differs from the last applied one, a USE statement switches
// it first; both statements run under the same critical section so no other
// worker can interleave between them.
func (e *DriverEngine) Execute(ctx context.Context, query string, contextPath []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(contextPath) > 0 && !equalPath(contextPath, e.lastContext) {
		use := "USE " + quotePath(contextPath)
		if _, err := e.conn.ExecContext(ctx, use); err != nil {
			return fmt.Errorf("switching context to %v: %w", contextPath, err)
		}
		e.lastContext = append([]string(nil), contextPath...)
		e.log.WithField("context", contextPath).Debug("switched context")
	}

	if _, err := e.conn.ExecContext(ctx, query); err != nil {
		return err
	}
	return nil
}

// Close releases the pinned connection and the driver.
func (e *DriverEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.conn.Close()
	if dbErr := e.db.Close(); err == nil {
		err = dbErr
	}
	return err
}

func equalPath(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// quotePath renders a context path as a dotted, double-quoted identifier
// chain: ["a", "b c"] -> "a"."b c".
func quotePath(path []string) string {
	quoted := make([]string, len(path))
	for i, segment := range path {
		quoted[i] = `"` + strings.ReplaceAll(segment, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ".")
}

var _ Engine = (*DriverEngine)(nil)
