package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDriver hands out connections with increasing IDs and records which
// connection ran each statement, so tests can assert session affinity.
type recordingDriver struct {
	mu     sync.Mutex
	nextID int
	calls  []recordedCall
}

type recordedCall struct {
	conn  int
	query string
}

func (d *recordingDriver) record(conn int, query string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, recordedCall{conn: conn, query: strings.TrimSpace(query)})
}

func (d *recordingDriver) Open(string) (driver.Conn, error) {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.mu.Unlock()
	return &recordingConn{d: d, id: id}, nil
}

type recordingConnector struct{ d *recordingDriver }

func (c recordingConnector) Connect(context.Context) (driver.Conn, error) { return c.d.Open("") }
func (c recordingConnector) Driver() driver.Driver                        { return c.d }

type recordingConn struct {
	d  *recordingDriver
	id int
}

func (c *recordingConn) Prepare(string) (driver.Stmt, error) {
	return nil, driver.ErrSkip
}
func (c *recordingConn) Close() error              { return nil }
func (c *recordingConn) Begin() (driver.Tx, error) { return nil, driver.ErrSkip }

func (c *recordingConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	c.d.record(c.id, query)
	return driver.RowsAffected(1), nil
}

func (c *recordingConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	c.d.record(c.id, query)
	switch {
	case strings.Contains(query, "GET_LOCK"):
		return &singleValueRows{column: "locked", value: int64(1)}, nil
	case strings.Contains(query, "COUNT(*)"):
		return &singleValueRows{column: "count", value: int64(0)}, nil
	}
	return &singleValueRows{done: true}, nil
}

type singleValueRows struct {
	column string
	value  driver.Value
	done   bool
}

func (r *singleValueRows) Columns() []string { return []string{r.column} }
func (r *singleValueRows) Close() error      { return nil }
func (r *singleValueRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	dest[0] = r.value
	r.done = true
	return nil
}

func TestMigrateRunsOnOneSession(t *testing.T) {
	d := &recordingDriver{}
	db := sql.OpenDB(recordingConnector{d: d})
	defer db.Close()
	// Nothing stays idle, so any statement routed through the pool instead of
	// the pinned connection would land on a fresh session.
	db.SetMaxIdleConns(0)

	require.NoError(t, Migrate(context.Background(), db))

	require.NotEmpty(t, d.calls)
	assert.Contains(t, d.calls[0].query, "GET_LOCK")
	lockConn := d.calls[0].conn
	for _, call := range d.calls {
		assert.Equal(t, lockConn, call.conn, "statement left the locked session: %s", call.query)
	}
	assert.Contains(t, d.calls[len(d.calls)-1].query, "RELEASE_LOCK")
}

func TestMigrateAppliesAllFilesInOrder(t *testing.T) {
	d := &recordingDriver{}
	db := sql.OpenDB(recordingConnector{d: d})
	defer db.Close()

	require.NoError(t, Migrate(context.Background(), db))

	var applied []string
	for _, call := range d.calls {
		if strings.HasPrefix(call.query, "CREATE TABLE IF NOT EXISTS") &&
			!strings.Contains(call.query, "schema_migrations") {
			table := strings.Fields(strings.TrimPrefix(call.query, "CREATE TABLE IF NOT EXISTS "))[0]
			applied = append(applied, table)
		}
	}
	assert.Equal(t, []string{"users", "games", "tickets", "payment_intents"}, applied)

	// Each applied file is recorded.
	records := 0
	for _, call := range d.calls {
		if strings.HasPrefix(call.query, "INSERT INTO schema_migrations") {
			records++
		}
	}
	assert.Equal(t, len(applied), records)
}
