package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// openSQLite opens a private in-memory database seeded with an events table.
func openSQLite(t *testing.T) *DB {
	t.Helper()
	// One connection: every :memory: connection is a separate database.
	db, err := Open("sqlite", ":memory:", WithMaxOpenConns(1))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	_, err = db.Builder().Raw(ctx, `CREATE TABLE events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		user_id INTEGER,
		note TEXT,
		created_at TEXT NOT NULL
	)`)
	require.NoError(t, err)

	res, err := db.Builder().Insert("events").Rows([]map[string]interface{}{
		{"kind": "login", "user_id": 1, "note": nil, "created_at": "2024-03-15 10:30:45"},
		{"kind": "logout", "user_id": 1, "note": "idle", "created_at": "2024-03-15 18:05:00"},
		{"kind": "login", "user_id": 2, "note": nil, "created_at": "2023-12-31 23:59:59"},
		{"kind": "purchase", "user_id": 2, "note": "book", "created_at": "2024-07-01 09:00:00"},
		{"kind": "login", "user_id": 3, "note": nil, "created_at": "2024-07-02 09:15:30"},
	}).Exec(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(5), res.RowsAffected)
	return db
}

// TestSQLite_Select tests filtered reads against a real engine.
func TestSQLite_Select(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	qb := db.Builder()

	rows, err := qb.Select("id", "kind").From("events").
		Where(func(c *Cond) { c.Col("kind").Equal("login").And().Col("note").IsNull() }).
		OrderBy("id", Desc).
		All(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(5), rows[0]["id"])
	assert.Equal(t, "login", rows[0]["kind"])

	n, err := qb.Select().From("events").
		Where(func(c *Cond) { c.Col("user_id").In(1, 2).And().Not().Col("kind").Like("log%") }).
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// TestSQLite_DateParts tests the SQLite date-part fragments on stored text
// timestamps.
func TestSQLite_DateParts(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	qb := db.Builder()

	tests := []struct {
		name string
		cond func(c *Cond)
		want int64
	}{
		{"date", func(c *Cond) { c.Col("created_at").InDate("2024-03-15") }, 2},
		{"time", func(c *Cond) { c.Col("created_at").InTime("10:30:45") }, 1},
		{"year", func(c *Cond) { c.Col("created_at").InYear(2024) }, 4},
		{"month", func(c *Cond) { c.Col("created_at").InMonth(7) }, 2},
		{"day", func(c *Cond) { c.Col("created_at").InDay(31) }, 1},
		{"hour", func(c *Cond) { c.Col("created_at").InHour(9) }, 2},
		{"minute", func(c *Cond) { c.Col("created_at").InMinute(5) }, 1},
		{"second", func(c *Cond) { c.Col("created_at").InSecond(59) }, 1},
		{"not year", func(c *Cond) { c.Col("created_at").Not().InYear(2024) }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := qb.Select().From("events").Where(tt.cond).Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

// TestSQLite_SubqueryAndGroup tests subqueries, grouping and HAVING.
func TestSQLite_SubqueryAndGroup(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	qb := db.Builder()

	buyers := qb.Select("user_id").From("events").Where(func(c *Cond) { c.Col("kind").Equal("purchase") })
	rows, err := qb.Select("user_id", "COUNT(*) AS n").From("events").
		Where(func(c *Cond) { c.Col("user_id").InSubquery(buyers) }).
		GroupBy("user_id").
		Having(func(c *Cond) { c.Col("COUNT(*)").GreaterThan(1) }).
		All(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0]["user_id"])
	assert.Equal(t, int64(2), rows[0]["n"])

	rows, err = qb.Select("id").From("events").
		Where(func(c *Cond) { c.Col("user_id").Equal(3) }).
		UnionAll(qb.Select("id").From("events").Where(func(c *Cond) { c.Col("user_id").Equal(2) })).
		All(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

// TestSQLite_Paginate tests pagination over a real table.
func TestSQLite_Paginate(t *testing.T) {
	db := openSQLite(t)

	page, err := db.Builder().Select("id").From("events").OrderBy("id").Paginate(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total.Items)
	assert.Equal(t, 3, page.Total.Pages)
	assert.Equal(t, 1, page.Prev)
	assert.Equal(t, 3, page.Next)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, int64(3), page.Rows[0]["id"])
}

// TestSQLite_Write tests INSERT, UPDATE and DELETE round trips.
func TestSQLite_Write(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	qb := db.Builder()

	res, err := qb.Insert("events").
		Columns("kind", "user_id", "created_at").
		Values("signup", 9, "2025-01-01 00:00:00").
		Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), res.LastInsertID)

	res, err = qb.Insert("events").
		Columns("kind", "created_at").
		Values("ping", "2025-01-02 00:00:00").
		Returning("id").
		Exec(ctx)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(7), res.Rows[0]["id"])

	res, err = qb.Update("events").
		SetValue("note", "migrated").
		SetValue("user_id", nil).
		Where(func(c *Cond) { c.Col("kind").Equal("signup") }).
		Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)

	row, err := qb.Select("note", "user_id").From("events").Where(func(c *Cond) { c.Col("id").Equal(6) }).One(ctx)
	require.NoError(t, err)
	assert.Equal(t, "migrated", row["note"])
	assert.Nil(t, row["user_id"])

	res, err = qb.Delete("events").Where(func(c *Cond) { c.Col("created_at").InYear(2025) }).Exec(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.RowsAffected)

	_, err = qb.Select().From("events").Where(func(c *Cond) { c.Col("id").Equal(6) }).One(ctx)
	assert.ErrorIs(t, err, ErrNoRows)
}
