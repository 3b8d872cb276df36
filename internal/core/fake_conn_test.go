package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// executed is one statement seen by fakeConn.
type executed struct {
	sql  string
	args []interface{}
}

// fakeConn records every statement and replies with queued results.
type fakeConn struct {
	driver  string
	calls   []executed
	results []*Result
	err     error
}

func (f *fakeConn) Query(_ context.Context, sql string, args []interface{}) (*Result, error) {
	f.calls = append(f.calls, executed{sql: sql, args: args})
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) == 0 {
		return &Result{}, nil
	}
	res := f.results[0]
	f.results = f.results[1:]
	return res, nil
}

func (f *fakeConn) Driver() string {
	return f.driver
}

func newTestBuilder(t *testing.T, driver string) (*QueryBuilder, *fakeConn) {
	t.Helper()
	conn := &fakeConn{driver: driver}
	qb, err := NewQueryBuilder(conn)
	require.NoError(t, err)
	return qb, conn
}
