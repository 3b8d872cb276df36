package core

import (
	"context"
	"fmt"

	"github.com/coregx/sqlforge/internal/dialects"
)

// Row is a single result row keyed by column name.
type Row map[string]interface{}

// Result is what a Conn returns for a statement. SELECT statements and statements
// with a RETURNING clause fill Rows; the others report RowsAffected and, where
// the driver supports it, LastInsertID.
type Result struct {
	Rows         []Row
	RowsAffected int64
	LastInsertID int64
}

// Conn executes rendered SQL. It is the only thing the builders need from the
// outside world: DB implements it over database/sql, and the cache and rate limit
// packages wrap it.
type Conn interface {
	// Query executes sql with args bound to its "?" placeholders, in order.
	Query(ctx context.Context, sql string, args []interface{}) (*Result, error)
	// Driver returns the driver kind used to select a dialect.
	Driver() string
}

// QueryBuilder creates statement builders bound to one connection and dialect.
// The dialect is resolved once, from the connection's driver kind.
type QueryBuilder struct {
	conn    Conn
	dialect dialects.Dialect
}

// NewQueryBuilder creates a query builder for conn.
func NewQueryBuilder(conn Conn) (*QueryBuilder, error) {
	if conn == nil {
		return nil, ErrNoConnection
	}
	dialect, err := dialects.Lookup(conn.Driver())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, conn.Driver())
	}
	return &QueryBuilder{conn: conn, dialect: dialect}, nil
}

// NewDialectBuilder creates a query builder that can render statements for the
// named driver but has no connection to execute them.
func NewDialectBuilder(driver string) (*QueryBuilder, error) {
	dialect, err := dialects.Lookup(driver)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, driver)
	}
	return &QueryBuilder{dialect: dialect}, nil
}

// Dialect returns the dialect selected for this builder.
func (qb *QueryBuilder) Dialect() dialects.Dialect {
	return qb.dialect
}

// Cond creates an empty condition using this builder's dialect.
func (qb *QueryBuilder) Cond() *Cond {
	return NewCond(qb.dialect)
}

// Raw executes sql with args without any rendering.
func (qb *QueryBuilder) Raw(ctx context.Context, sql string, args ...interface{}) (*Result, error) {
	if qb.conn == nil {
		return nil, ErrNoConnection
	}
	return qb.conn.Query(ctx, sql, args)
}

// statement holds what every builder shares: the builder it came from and the
// first error recorded by a clause setter.
type statement struct {
	qb  *QueryBuilder
	err error
}

func (s *statement) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *statement) dialect() dialects.Dialect {
	if s.qb == nil {
		return nil
	}
	return s.qb.dialect
}

// Err returns the first error recorded by a clause setter, if any.
func (s *statement) Err() error {
	return s.err
}

// Raw executes sql with args directly on the builder's connection, bypassing
// rendering. Builder state is not used or changed.
func (s *statement) Raw(ctx context.Context, sql string, args ...interface{}) (*Result, error) {
	if s.qb == nil || s.qb.conn == nil {
		return nil, ErrNoConnection
	}
	return s.qb.conn.Query(ctx, sql, args)
}

func (s *statement) exec(ctx context.Context, build func() (string, []interface{}, error)) (*Result, error) {
	sql, args, err := build()
	if err != nil {
		return nil, err
	}
	return s.Raw(ctx, sql, args...)
}

// conditional is a lazily created Cond shared by the WHERE and HAVING clauses.
type conditional struct {
	cond *Cond
}

func (w *conditional) ensure(dialect dialects.Dialect) *Cond {
	if w.cond == nil {
		w.cond = NewCond(dialect)
	}
	return w.cond
}

// where runs fn against the condition, joining it to earlier content with AND.
func (w *conditional) where(dialect dialects.Dialect, method string, fn func(*Cond)) error {
	if fn == nil {
		return invalidf("%s: condition callback must not be nil", method)
	}
	c := w.ensure(dialect)
	joinAnd(c)
	fn(c)
	return nil
}

// joinAnd adds AND when the condition ends with a complete operand or group.
func joinAnd(c *Cond) {
	if n := len(c.tokens); n > 0 {
		if last := c.tokens[n-1]; last.kind == tokOperand || last.kind == tokClose {
			c.And()
		}
	}
}

// join adds a logical operator and runs fn, if given. It needs an existing
// condition.
func (w *conditional) join(method string, op func(*Cond) *Cond, fn func(*Cond)) error {
	if w.cond == nil {
		return missingf("%s: no condition to extend, call Where first", method)
	}
	op(w.cond)
	if fn != nil {
		fn(w.cond)
	}
	return nil
}

// open starts a group, joined to earlier content with AND like where.
func (w *conditional) open(dialect dialects.Dialect) {
	c := w.ensure(dialect)
	joinAnd(c)
	c.Open()
}

func (w *conditional) close(method string) error {
	if w.cond == nil {
		return missingf("%s: no condition to close, call Where or Open first", method)
	}
	w.cond.Close()
	return nil
}

func (w *conditional) paren(dialect dialects.Dialect) {
	c := w.ensure(dialect)
	if c.depth == 0 {
		joinAnd(c)
	}
	c.Paren()
}

// build renders the condition; ok is false when no condition was started.
func (w *conditional) build() (sql string, args []interface{}, ok bool, err error) {
	if w.cond == nil {
		return "", nil, false, nil
	}
	sql, args, err = w.cond.Build()
	return sql, args, true, err
}
