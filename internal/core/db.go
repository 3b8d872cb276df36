// Package core provides the statement builders and the database/sql connection
// adapter they execute through.
package core

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/coregx/sqlforge/internal/dialects"
	"github.com/coregx/sqlforge/internal/logger"
	"github.com/coregx/sqlforge/internal/tracer"
)

// DB adapts a *sql.DB to the Conn interface, adding logging with masked
// parameters, tracing and query hooks. It is safe for concurrent use.
type DB struct {
	sqlDB      *sql.DB
	driverName string
	dialect    dialects.Dialect
	logger     logger.Logger
	sanitizer  *logger.Sanitizer
	tracer     tracer.Tracer
	queryHook  QueryHook
}

// Option is a functional option for configuring DB.
type Option func(*DB)

// WithMaxOpenConns sets the maximum number of open connections.
func WithMaxOpenConns(n int) Option {
	return func(db *DB) {
		db.sqlDB.SetMaxOpenConns(n)
	}
}

// WithMaxIdleConns sets the maximum number of idle connections.
func WithMaxIdleConns(n int) Option {
	return func(db *DB) {
		db.sqlDB.SetMaxIdleConns(n)
	}
}

// WithConnMaxLifetime sets the maximum amount of time a connection may be reused.
func WithConnMaxLifetime(d time.Duration) Option {
	return func(db *DB) {
		db.sqlDB.SetConnMaxLifetime(d)
	}
}

// WithLogger sets the logger used for executed statements.
func WithLogger(l logger.Logger) Option {
	return func(db *DB) {
		if l != nil {
			db.logger = l
		}
	}
}

// WithSensitiveFields replaces the column name fragments whose values are masked
// in logs.
func WithSensitiveFields(fields ...string) Option {
	return func(db *DB) {
		db.sanitizer = logger.NewSanitizer(fields)
	}
}

// WithTracer sets the tracer used for executed statements.
func WithTracer(t tracer.Tracer) Option {
	return func(db *DB) {
		if t != nil {
			db.tracer = t
		}
	}
}

// WithQueryHook sets a callback invoked after every executed statement.
func WithQueryHook(hook QueryHook) Option {
	return func(db *DB) {
		db.queryHook = hook
	}
}

// Open opens a database and wraps it. The driver must be registered with
// database/sql and have a dialect.
func Open(driverName, dsn string, opts ...Option) (*DB, error) {
	if _, err := dialects.Lookup(driverName); err != nil {
		return nil, WrapError(ErrUnsupportedDialect, driverName)
	}
	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, WrapError(err, "open "+driverName)
	}
	return WrapDB(sqlDB, driverName, opts...)
}

// WrapDB wraps an existing *sql.DB. Closing the returned DB closes sqlDB.
func WrapDB(sqlDB *sql.DB, driverName string, opts ...Option) (*DB, error) {
	dialect, err := dialects.Lookup(driverName)
	if err != nil {
		return nil, WrapError(ErrUnsupportedDialect, driverName)
	}
	db := &DB{
		sqlDB:      sqlDB,
		driverName: driverName,
		dialect:    dialect,
		logger:     &logger.NoopLogger{},
		sanitizer:  logger.NewSanitizer(nil),
		tracer:     tracer.NoopTracer{},
	}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

// Builder returns a query builder executing on this database.
func (db *DB) Builder() *QueryBuilder {
	return &QueryBuilder{conn: db, dialect: db.dialect}
}

// Driver returns the driver name the database was opened with.
func (db *DB) Driver() string {
	return db.driverName
}

// SQLDB returns the wrapped *sql.DB.
func (db *DB) SQLDB() *sql.DB {
	return db.sqlDB
}

// PingContext verifies the connection is alive.
func (db *DB) PingContext(ctx context.Context) error {
	return db.sqlDB.PingContext(ctx)
}

// Close releases all database resources.
func (db *DB) Close() error {
	return db.sqlDB.Close()
}

// Query executes a statement. Statements that return rows (SELECT, or anything
// with RETURNING) are run with QueryContext and scanned; the rest with
// ExecContext. Driver errors are returned unchanged.
func (db *DB) Query(ctx context.Context, query string, args []interface{}) (*Result, error) {
	queryID := uuid.NewString()
	ctx, span := db.tracer.StartSpan(ctx, tracer.SpanName(query))

	start := time.Now()
	res, err := db.run(ctx, query, args)
	elapsed := time.Since(start)

	stmt := &tracer.Statement{
		SQL:      query,
		ArgCount: len(args),
		Driver:   db.driverName,
		QueryID:  queryID,
		Duration: elapsed,
	}
	if res != nil {
		stmt.RowsAffected = res.RowsAffected
		stmt.Rows = len(res.Rows)
	}
	span.SetAttributes(stmt.Attributes()...)
	span.End(err)

	db.logResult(stmt, args, err)
	db.invokeHook(ctx, QueryEvent{
		SQL:          query,
		Args:         args,
		Duration:     elapsed,
		RowsAffected: stmt.RowsAffected,
		Rows:         stmt.Rows,
		Error:        err,
		Operation:    tracer.DetectOperation(query),
		QueryID:      queryID,
	})
	return res, err
}

// run sends query to the driver. Placeholders are rebound for the dialect here;
// logs, spans and hooks keep the "?" form.
func (db *DB) run(ctx context.Context, query string, args []interface{}) (*Result, error) {
	returnsRows := tracer.ReturnsRows(query)
	query = dialects.Rebind(db.dialect, query)

	if returnsRows {
		rows, err := db.sqlDB.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rows.Close() }()

		scanned, err := scanRows(rows)
		if err != nil {
			return nil, err
		}
		return &Result{Rows: scanned, RowsAffected: int64(len(scanned))}, nil
	}

	result, err := db.sqlDB.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	res.RowsAffected, _ = result.RowsAffected()
	// Not every driver supports LastInsertId (lib/pq does not).
	res.LastInsertID, _ = result.LastInsertId()
	return res, nil
}

// scanRows reads every row into a Row. []byte values are converted to string, as
// MySQL returns text columns that way.
func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0)
	values := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (db *DB) logResult(stmt *tracer.Statement, args []interface{}, err error) {
	params := db.sanitizer.FormatParams(db.sanitizer.MaskParams(stmt.SQL, args))
	if err != nil {
		db.logger.Error("query execution failed",
			"sql", stmt.SQL,
			"params", params,
			"duration_ms", stmt.Duration.Milliseconds(),
			"database", stmt.Driver,
			"query_id", stmt.QueryID,
			"error", err,
		)
		return
	}
	db.logger.Info("query executed",
		"sql", stmt.SQL,
		"params", params,
		"duration_ms", stmt.Duration.Milliseconds(),
		"rows_affected", stmt.RowsAffected,
		"database", stmt.Driver,
		"query_id", stmt.QueryID,
	)
}
