package core

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/coregx/sqlforge/internal/logger"
	"github.com/coregx/sqlforge/internal/tracer"
)

func newMockDB(t *testing.T, driver string, opts ...Option) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	db, err := WrapDB(sqlDB, driver, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db, mock
}

// TestWrapDB tests dialect resolution for wrapped connections.
func TestWrapDB(t *testing.T) {
	db, _ := newMockDB(t, "pgx")
	assert.Equal(t, "pgx", db.Driver())
	assert.Equal(t, "postgres", db.Builder().Dialect().Name())
	assert.NotNil(t, db.SQLDB())

	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	_, err = WrapDB(sqlDB, "oracle")
	assert.ErrorIs(t, err, ErrUnsupportedDialect)

	_, err = Open("oracle", "scott/tiger")
	assert.ErrorIs(t, err, ErrUnsupportedDialect)
}

// TestDB_QueryRows tests SELECT execution and row scanning.
func TestDB_QueryRows(t *testing.T) {
	db, mock := newMockDB(t, "mysql")

	mock.ExpectQuery("SELECT id, name FROM users WHERE id = ?;").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), []byte("alice")))

	row, err := db.Builder().Select("id", "name").From("users").
		Where(func(c *Cond) { c.Col("id").Equal(1) }).
		One(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Row{"id": int64(1), "name": "alice"}, row)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestDB_Exec tests statements without a result set.
func TestDB_Exec(t *testing.T) {
	db, mock := newMockDB(t, "mysql")

	mock.ExpectExec("UPDATE users SET name = ? WHERE id = ?;").
		WithArgs("bob", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO users (name) VALUES (?);").
		WithArgs("carol").
		WillReturnResult(sqlmock.NewResult(9, 1))

	qb := db.Builder()
	res, err := qb.Update("users").SetValue("name", "bob").
		Where(func(c *Cond) { c.Col("id").Equal(2) }).
		Exec(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)
	assert.Empty(t, res.Rows)

	res, err = qb.Insert("users").Row(map[string]interface{}{"name": "carol"}).Exec(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), res.LastInsertID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestDB_Returning tests that RETURNING statements are read as rows.
func TestDB_Returning(t *testing.T) {
	db, mock := newMockDB(t, "postgres")

	mock.ExpectQuery("INSERT INTO users (name) VALUES ($1) RETURNING id;").
		WithArgs("dave").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	res, err := db.Builder().Insert("users").
		Row(map[string]interface{}{"name": "dave"}).
		Returning("id").
		Exec(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(5), res.Rows[0]["id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestDB_PostgresPlaceholders tests that "?" markers reach PostgreSQL drivers
// as numbered placeholders while logs keep the builder text.
func TestDB_PostgresPlaceholders(t *testing.T) {
	var buf bytes.Buffer
	var events []QueryEvent
	db, mock := newMockDB(t, "postgres",
		WithLogger(logger.New(&buf, "json", "info")),
		WithQueryHook(func(_ context.Context, e QueryEvent) { events = append(events, e) }))

	mock.ExpectQuery("SELECT * FROM users WHERE id = $1 AND note <> 'why?';").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec("UPDATE users SET name = $1, city = NULL WHERE id = $2 OR id = $3;").
		WithArgs("bob", 2, 3).
		WillReturnResult(sqlmock.NewResult(0, 2))

	ctx := context.Background()
	qb := db.Builder()
	rows, err := qb.Select().From("users").
		Where(func(c *Cond) { c.Col("id").Equal(1).And().Raw("note <> 'why?'") }).
		All(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	res, err := qb.Update("users").SetValue("name", "bob").SetValue("city", nil).
		Where(func(c *Cond) { c.Col("id").Equal(2).Or().Col("id").Equal(3) }).
		Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.RowsAffected)
	assert.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, events, 2)
	assert.Equal(t, "SELECT * FROM users WHERE id = ? AND note <> 'why?';", events[0].SQL)
	assert.NotContains(t, buf.String(), "$1")
}

// TestDB_DriverError tests that driver errors are returned unchanged.
func TestDB_DriverError(t *testing.T) {
	db, mock := newMockDB(t, "sqlite")
	driverErr := errors.New("no such table: users")

	mock.ExpectQuery("SELECT * FROM users;").WillReturnError(driverErr)

	_, err := db.Builder().Select().From("users").All(context.Background())
	assert.Same(t, driverErr, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestDB_LogsMaskedParams tests that sensitive values never reach the log.
func TestDB_LogsMaskedParams(t *testing.T) {
	var buf bytes.Buffer
	db, mock := newMockDB(t, "sqlite", WithLogger(logger.New(&buf, "json", "debug")))

	mock.ExpectExec("INSERT INTO users (email, password) VALUES (?, ?);").
		WithArgs("a@b.com", "hunter2").
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := db.Builder().Insert("users").Row(map[string]interface{}{
		"email":    "a@b.com",
		"password": "hunter2",
	}).Exec(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"query executed"`)
	assert.Contains(t, out, "a@b.com")
	assert.Contains(t, out, "***REDACTED***")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, `"query_id"`)
}

// TestDB_CustomSensitiveFields tests replacing the masked column list.
func TestDB_CustomSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	db, mock := newMockDB(t, "sqlite",
		WithLogger(logger.New(&buf, "text", "info")),
		WithSensitiveFields("email"))

	mock.ExpectQuery("SELECT * FROM users WHERE email = ?;").
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := db.Builder().Select().From("users").
		Where(func(c *Cond) { c.Col("email").Equal("a@b.com") }).
		All(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "a@b.com")
}

// TestDB_LogsFailures tests error-level logging of failed statements.
func TestDB_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	db, mock := newMockDB(t, "sqlite", WithLogger(logger.New(&buf, "json", "error")))

	mock.ExpectExec("DELETE FROM t WHERE id = ?;").WithArgs(1).WillReturnError(errors.New("locked"))

	_, err := db.Builder().Delete("t").Where(func(c *Cond) { c.Col("id").Equal(1) }).Exec(context.Background())
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"msg":"query execution failed"`)
	assert.Contains(t, buf.String(), `"error":"locked"`)
}

// TestDB_Tracing tests span creation for successful and failed statements.
func TestDB_Tracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	db, mock := newMockDB(t, "sqlite", WithTracer(tracer.NewOtelTracer(tp.Tracer("test"))))

	mock.ExpectQuery("SELECT * FROM users;").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec("UPDATE users SET a = ? WHERE id = ?;").
		WithArgs(1, 1).
		WillReturnError(errors.New("readonly database"))

	ctx := context.Background()
	qb := db.Builder()
	_, err := qb.Select().From("users").All(ctx)
	require.NoError(t, err)
	_, err = qb.Update("users").SetValue("a", 1).Where(func(c *Cond) { c.Col("id").Equal(1) }).Exec(ctx)
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "sqlforge.select", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Equal(t, "sqlforge.update", spans[1].Name)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
}

// TestDB_QueryHook tests that the hook sees every execution.
func TestDB_QueryHook(t *testing.T) {
	var events []QueryEvent
	db, mock := newMockDB(t, "mysql", WithQueryHook(func(_ context.Context, e QueryEvent) {
		events = append(events, e)
	}))

	mock.ExpectQuery("SELECT * FROM t;").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))
	mock.ExpectExec("DELETE FROM t WHERE id = ?;").
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	_, err := db.Builder().Select().From("t").All(ctx)
	require.NoError(t, err)
	_, err = db.Builder().Delete("t").Where(func(c *Cond) { c.Col("id").Equal(3) }).Exec(ctx)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, "SELECT", events[0].Operation)
	assert.Equal(t, 2, events[0].Rows)
	assert.Equal(t, "DELETE", events[1].Operation)
	assert.Equal(t, int64(1), events[1].RowsAffected)
	assert.Equal(t, []interface{}{3}, events[1].Args)
	assert.NotEmpty(t, events[1].QueryID)
	assert.NotEqual(t, events[0].QueryID, events[1].QueryID)
	assert.NoError(t, events[1].Error)
}

// TestDB_Close tests closing the wrapped connection.
func TestDB_Close(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	db, err := WrapDB(sqlDB, "sqlite", WithMaxOpenConns(4), WithMaxIdleConns(2))
	require.NoError(t, err)

	mock.ExpectPing()
	mock.ExpectClose()
	require.NoError(t, db.PingContext(context.Background()))
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
