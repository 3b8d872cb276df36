package core

import (
	"context"
	"time"
)

// QueryEvent contains information about an executed statement.
// This is passed to QueryHook callbacks for logging, metrics, or tracing.
type QueryEvent struct {
	// SQL is the executed statement
	SQL string
	// Args are the bound values, unmasked
	Args []interface{}
	// Duration is how long the statement took to execute
	Duration time.Duration
	// RowsAffected is the number of rows affected (for INSERT/UPDATE/DELETE)
	RowsAffected int64
	// Rows is the number of rows returned
	Rows int
	// Error is any error returned by the driver (nil on success)
	Error error
	// Operation is SELECT, INSERT, UPDATE, DELETE or UNKNOWN
	Operation string
	// QueryID identifies the execution in logs and spans
	QueryID string
}

// QueryHook is a callback function invoked after each statement execution.
//
// Example:
//
//	db, _ := sqlforge.Open("sqlite", ":memory:",
//	    sqlforge.WithQueryHook(func(ctx context.Context, e sqlforge.QueryEvent) {
//	        metrics.Observe(e.Operation, e.Duration)
//	    }))
type QueryHook func(ctx context.Context, event QueryEvent)

// invokeHook calls the query hook if set.
func (db *DB) invokeHook(ctx context.Context, event QueryEvent) {
	if db.queryHook != nil {
		db.queryHook(ctx, event)
	}
}
