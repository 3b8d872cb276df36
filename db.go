// Package sqlforge assembles SQL statements programmatically and executes them
// through database/sql. Statements are built with chained calls, rendered with
// "?" placeholders and a separate argument list, and validated before anything
// reaches the database:
//
//	db, err := sqlforge.Open("sqlite", "app.db")
//	...
//	rows, err := db.Builder().Select("id", "name").From("users").
//	    Where(func(c *sqlforge.Cond) {
//	        c.Col("city").Equal("Tokyo").And().Col("created_at").InYear(2024)
//	    }).
//	    OrderBy("name").
//	    All(ctx)
//
// Date-part comparisons are rendered per dialect (MySQL, PostgreSQL, SQLite),
// selected from the connection's driver name.
package sqlforge

import (
	"github.com/coregx/sqlforge/internal/core"
)

type (
	// DB adapts a *sql.DB with logging, tracing and query hooks.
	DB = core.DB
	// Option is a functional option for configuring DB.
	Option = core.Option
	// Conn executes rendered SQL; DB and the cache and rate limit decorators
	// implement it.
	Conn = core.Conn
	// Result is what a Conn returns for a statement.
	Result = core.Result
	// Row is a single result row keyed by column name.
	Row = core.Row
	// QueryBuilder creates statement builders bound to one connection.
	QueryBuilder = core.QueryBuilder
	// SelectQuery represents a SELECT query being built.
	SelectQuery = core.SelectQuery
	// InsertQuery represents an INSERT query being built.
	InsertQuery = core.InsertQuery
	// UpdateQuery represents an UPDATE query being built.
	UpdateQuery = core.UpdateQuery
	// DeleteQuery represents a DELETE query being built.
	DeleteQuery = core.DeleteQuery
	// Cond assembles a WHERE, HAVING or JOIN condition.
	Cond = core.Cond
	// Subquery is a statement that can be embedded in a condition or union.
	Subquery = core.Subquery
	// Ref is raw SQL text used as an operand instead of a bound value.
	Ref = core.Ref
	// Operator is a comparison operator for Cond.Any and Cond.All.
	Operator = core.Operator
	// Direction is an ORDER BY direction.
	Direction = core.Direction
	// Page is one page of a paginated SELECT.
	Page = core.Page
	// PageTotal holds the totals of a Page.
	PageTotal = core.PageTotal
	// Error is the error type raised by the builders.
	Error = core.Error
	// ErrorKind classifies builder errors.
	ErrorKind = core.ErrorKind
	// QueryEvent describes an executed statement.
	QueryEvent = core.QueryEvent
	// QueryHook is called after every executed statement.
	QueryHook = core.QueryHook
)

// Sort directions.
const (
	Asc  = core.Asc
	Desc = core.Desc
)

// Comparison operators.
const (
	OpEqual              = core.OpEqual
	OpNotEqual           = core.OpNotEqual
	OpLessThan           = core.OpLessThan
	OpLessThanOrEqual    = core.OpLessThanOrEqual
	OpGreaterThan        = core.OpGreaterThan
	OpGreaterThanOrEqual = core.OpGreaterThanOrEqual
)

// Error kinds.
const (
	KindMissing  = core.KindMissing
	KindInvalid  = core.KindInvalid
	KindMismatch = core.KindMismatch
	KindSyntax   = core.KindSyntax
)

// DefaultPerPage is the page size Paginate uses when none is given.
const DefaultPerPage = core.DefaultPerPage

// Re-export errors.
var (
	ErrBuilder            = core.ErrBuilder
	ErrNoRows             = core.ErrNoRows
	ErrUnsupportedDialect = core.ErrUnsupportedDialect
	ErrNoConnection       = core.ErrNoConnection
)

// Re-export core functions.
var (
	Open              = core.Open
	WrapDB            = core.WrapDB
	NewQueryBuilder   = core.NewQueryBuilder
	NewDialectBuilder = core.NewDialectBuilder
	IsKind            = core.IsKind
	WrapError         = core.WrapError

	WithMaxOpenConns    = core.WithMaxOpenConns
	WithMaxIdleConns    = core.WithMaxIdleConns
	WithConnMaxLifetime = core.WithConnMaxLifetime
	WithLogger          = core.WithLogger
	WithTracer          = core.WithTracer
	WithSensitiveFields = core.WithSensitiveFields
	WithQueryHook       = core.WithQueryHook
)
