package xlsxport

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A tiny in-memory driver so QueryTable can run against fixed rows
// without a live database.

type fixedDriver struct{}

type fixedConn struct{}

type fixedStmt struct{}

type fixedRows struct {
	pos int
}

var fixedData = [][]driver.Value{
	{int64(1), "Alice", []byte("engineering"), time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)},
	{int64(2), "Bob", nil, time.Date(2025, time.March, 4, 9, 30, 0, 0, time.UTC)},
}

func (fixedDriver) Open(name string) (driver.Conn, error) { return fixedConn{}, nil }

func (fixedConn) Prepare(query string) (driver.Stmt, error) {
	if query == "bad" {
		return nil, errors.New("syntax error")
	}
	return fixedStmt{}, nil
}
func (fixedConn) Close() error              { return nil }
func (fixedConn) Begin() (driver.Tx, error) { return nil, errors.New("not supported") }

func (fixedStmt) Close() error  { return nil }
func (fixedStmt) NumInput() int { return 0 }
func (fixedStmt) Exec(args []driver.Value) (driver.Result, error) {
	return nil, errors.New("not supported")
}
func (fixedStmt) Query(args []driver.Value) (driver.Rows, error) { return &fixedRows{}, nil }

func (r *fixedRows) Columns() []string { return []string{"id", "name", "team", "joined"} }
func (r *fixedRows) Close() error      { return nil }
func (r *fixedRows) Next(dest []driver.Value) error {
	if r.pos >= len(fixedData) {
		return io.EOF
	}
	copy(dest, fixedData[r.pos])
	r.pos++
	return nil
}

func init() {
	sql.Register("fixed", fixedDriver{})
}

func TestQueryTable(t *testing.T) {
	db, err := sql.Open("fixed", "")
	require.NoError(t, err)
	defer db.Close()

	table, err := QueryTable(context.Background(), db, "SELECT * FROM people")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "team", "joined"}, table.Columns)
	require.Len(t, table.Rows, 2)

	assert.Equal(t, int64(1), table.Rows[0][0])
	assert.Equal(t, "Alice", table.Rows[0][1])
	// Byte slices become strings so they export as text.
	assert.Equal(t, "engineering", table.Rows[0][2])
	assert.Nil(t, table.Rows[1][2])

	// The collected table round-trips into typed cells.
	assert.Equal(t, KindDate, FromValue(table.Rows[0][3]).Kind)
	assert.Equal(t, KindDateTime, FromValue(table.Rows[1][3]).Kind)
}

func TestQueryTableError(t *testing.T) {
	db, err := sql.Open("fixed", "")
	require.NoError(t, err)
	defer db.Close()

	_, err = QueryTable(context.Background(), db, "bad")
	assert.Error(t, err)
}
