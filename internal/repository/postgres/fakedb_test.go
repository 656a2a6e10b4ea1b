package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const fakeDriverName = "chatbox-recording"

func init() {
	sql.Register(fakeDriverName, recordingDriver{})
}

type fakeResult struct {
	columns []string
	rows    [][]driver.Value
}

// recordingDB keeps every statement it receives and answers queries from a
// canned handler.
type recordingDB struct {
	mu         sync.Mutex
	statements []string
	answer     func(query string, args []driver.NamedValue) fakeResult
}

var recordingDBs sync.Map

func newRecordingDB(t *testing.T, answer func(string, []driver.NamedValue) fakeResult) (*recordingDB, *sql.DB) {
	t.Helper()

	rec := &recordingDB{answer: answer}
	recordingDBs.Store(t.Name(), rec)

	db, err := sql.Open(fakeDriverName, t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
		recordingDBs.Delete(t.Name())
	})
	return rec, db
}

func (r *recordingDB) record(query string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statements = append(r.statements, query)
}

func (r *recordingDB) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.statements...)
}

type recordingDriver struct{}

func (recordingDriver) Open(name string) (driver.Conn, error) {
	v, ok := recordingDBs.Load(name)
	if !ok {
		return nil, fmt.Errorf("no recording db named %q", name)
	}
	return &recordingConn{db: v.(*recordingDB)}, nil
}

type recordingConn struct {
	db *recordingDB
}

func (c *recordingConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements are not supported")
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) Begin() (driver.Tx, error) { return recordingTx{}, nil }

func (c *recordingConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.db.record(query)
	var res fakeResult
	if c.db.answer != nil {
		res = c.db.answer(query, args)
	}
	return &recordingRows{columns: res.columns, rows: res.rows}, nil
}

func (c *recordingConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	c.db.record(query)
	return driver.RowsAffected(1), nil
}

type recordingTx struct{}

func (recordingTx) Commit() error   { return nil }
func (recordingTx) Rollback() error { return nil }

type recordingRows struct {
	columns []string
	rows    [][]driver.Value
	next    int
}

func (r *recordingRows) Columns() []string { return r.columns }

func (r *recordingRows) Close() error { return nil }

func (r *recordingRows) Next(dest []driver.Value) error {
	if r.next >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.next])
	r.next++
	return nil
}
