package sqlforge_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/coregx/sqlforge"
)

// TestDB_Wrapper tests the exported entry points.
func TestDB_Wrapper(t *testing.T) {
	t.Run("Open", func(t *testing.T) {
		db, err := sqlforge.Open("sqlite", ":memory:", sqlforge.WithMaxOpenConns(1))
		require.NoError(t, err)
		defer db.Close()
		assert.Equal(t, "sqlite", db.Driver())
	})

	t.Run("WrapDB", func(t *testing.T) {
		sqlDB, err := sql.Open("sqlite", ":memory:")
		require.NoError(t, err)

		db, err := sqlforge.WrapDB(sqlDB, "sqlite")
		require.NoError(t, err)
		assert.Same(t, sqlDB, db.SQLDB())
		require.NoError(t, db.Close())
	})

	t.Run("UnsupportedDialect", func(t *testing.T) {
		_, err := sqlforge.Open("oracle", "")
		assert.ErrorIs(t, err, sqlforge.ErrUnsupportedDialect)
	})
}

// TestDialectBuilder tests rendering without a connection.
func TestDialectBuilder(t *testing.T) {
	qb, err := sqlforge.NewDialectBuilder("mysql")
	require.NoError(t, err)

	query, args, err := qb.Select("id").From("orders").
		Where(func(c *sqlforge.Cond) {
			c.Col("created_at").InYear(2024).And().Col("total").GreaterThan(sqlforge.Ref("min_total"))
		}).
		OrderBy("id", sqlforge.Desc).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM orders WHERE YEAR(created_at) = ? AND total > min_total ORDER BY id DESC;", query)
	assert.Equal(t, []interface{}{2024}, args)

	_, _, err = qb.Select().Build()
	assert.ErrorIs(t, err, sqlforge.ErrBuilder)
	assert.True(t, sqlforge.IsKind(err, sqlforge.KindMissing))
}

// TestEndToEnd runs every statement kind against an in-memory SQLite database.
func TestEndToEnd(t *testing.T) {
	var events []sqlforge.QueryEvent
	db, err := sqlforge.Open("sqlite", ":memory:",
		sqlforge.WithMaxOpenConns(1),
		sqlforge.WithQueryHook(func(_ context.Context, e sqlforge.QueryEvent) { events = append(events, e) }))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	qb := db.Builder()

	_, err = qb.Raw(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT, city TEXT)")
	require.NoError(t, err)

	_, err = qb.Insert("users").Rows([]map[string]interface{}{
		{"email": "a@example.com", "city": "Tokyo"},
		{"email": "b@example.com", "city": "Osaka"},
		{"email": "c@example.com", "city": nil},
	}).Exec(ctx)
	require.NoError(t, err)

	_, err = qb.Update("users").SetValue("city", "Kyoto").
		Where(func(c *sqlforge.Cond) { c.Col("city").IsNull() }).
		Exec(ctx)
	require.NoError(t, err)

	rows, err := qb.Select("email").From("users").
		Where(func(c *sqlforge.Cond) { c.Col("city").In("Tokyo", "Kyoto") }).
		OrderBy("email").
		All(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a@example.com", rows[0]["email"])
	assert.Equal(t, "c@example.com", rows[1]["email"])

	_, err = qb.Delete("users").Where(func(c *sqlforge.Cond) { c.Col("city").Equal("Osaka") }).Exec(ctx)
	require.NoError(t, err)

	page, err := qb.Select().From("users").Paginate(ctx, 1, sqlforge.DefaultPerPage)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total.Items)
	assert.Equal(t, 1, page.Total.Pages)
	assert.Zero(t, page.Next)

	assert.Len(t, events, 7)
}
