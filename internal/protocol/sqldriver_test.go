package protocol

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDriver is a database/sql driver that records every executed
// statement, so USE issuance can be asserted exactly.
type recordingDriver struct {
	mu         sync.Mutex
	statements []string
}

func (d *recordingDriver) Open(name string) (driver.Conn, error) {
	return &recordingConn{d: d}, nil
}

func (d *recordingDriver) executed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.statements))
	copy(out, d.statements)
	return out
}

type recordingConn struct {
	d *recordingDriver
}

func (c *recordingConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (c *recordingConn) Ping(ctx context.Context) error { return nil }

func (c *recordingConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.d.mu.Lock()
	c.d.statements = append(c.d.statements, query)
	c.d.mu.Unlock()
	return driver.RowsAffected(0), nil
}

var (
	_ driver.ExecerContext = (*recordingConn)(nil)
	_ driver.Pinger        = (*recordingConn)(nil)
)

var driverSeq atomic.Int64

func newRecordingEngine(t *testing.T) (*DriverEngine, *recordingDriver) {
	t.Helper()
	d := &recordingDriver{}
	name := fmt.Sprintf("recording-%d", driverSeq.Add(1))
	sql.Register(name, d)

	e, err := NewDriverEngine(context.Background(), Options{Driver: name, DSN: "ignored"})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e, d
}

func TestDriverEngineNoContext(t *testing.T) {
	e, d := newRecordingEngine(t)

	require.NoError(t, e.Execute(context.Background(), "SELECT 1", nil))
	assert.Equal(t, []string{"SELECT 1"}, d.executed())
}

func TestDriverEngineContextIssuedOnce(t *testing.T) {
	e, d := newRecordingEngine(t)
	ctx := context.Background()
	path := []string{"catalog", "schema"}

	require.NoError(t, e.Execute(ctx, "SELECT 1", path))
	require.NoError(t, e.Execute(ctx, "SELECT 2", path))

	assert.Equal(t, []string{
		`USE "catalog"."schema"`,
		"SELECT 1",
		"SELECT 2",
	}, d.executed())
}

func TestDriverEngineContextSwitch(t *testing.T) {
	e, d := newRecordingEngine(t)
	ctx := context.Background()

	require.NoError(t, e.Execute(ctx, "SELECT 1", []string{"a"}))
	require.NoError(t, e.Execute(ctx, "SELECT 2", []string{"b"}))
	require.NoError(t, e.Execute(ctx, "SELECT 3", []string{"b"}))

	assert.Equal(t, []string{
		`USE "a"`,
		"SELECT 1",
		`USE "b"`,
		"SELECT 2",
		"SELECT 3",
	}, d.executed())
}

func TestDriverEngineEmptyContextKeepsCurrent(t *testing.T) {
	e, d := newRecordingEngine(t)
	ctx := context.Background()

	require.NoError(t, e.Execute(ctx, "SELECT 1", []string{"a"}))
	require.NoError(t, e.Execute(ctx, "SELECT 2", nil))

	assert.Equal(t, []string{
		`USE "a"`,
		"SELECT 1",
		"SELECT 2",
	}, d.executed())
}

func TestDriverEngineSerializesConcurrentCalls(t *testing.T) {
	e, d := newRecordingEngine(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, e.Execute(context.Background(), fmt.Sprintf("SELECT %d", i), nil))
		}(i)
	}
	wg.Wait()

	assert.Len(t, d.executed(), 16)
}

func TestQuotePath(t *testing.T) {
	assert.Equal(t, `"a"`, quotePath([]string{"a"}))
	assert.Equal(t, `"a"."b c"`, quotePath([]string{"a", "b c"}))
	assert.Equal(t, `"we""ird"`, quotePath([]string{`we"ird`}))
}

func TestDriverEngineUnknownDriver(t *testing.T) {
	_, err := NewDriverEngine(context.Background(), Options{Driver: "no-such-driver", DSN: ""})
	assert.Error(t, err)
}
