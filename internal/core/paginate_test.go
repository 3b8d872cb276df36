package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countResult(n interface{}) *Result {
	return &Result{Rows: []Row{{"count": n}}}
}

// TestSelectQuery_Count tests the count statement and column restore.
func TestSelectQuery_Count(t *testing.T) {
	qb, conn := newTestBuilder(t, "sqlite")
	conn.results = []*Result{countResult(int64(12))}

	q := qb.Select("id", "name").From("users").Where(func(c *Cond) { c.Col("active").Equal(1) })
	n, err := q.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	require.Len(t, conn.calls, 1)
	assert.Equal(t, "SELECT COUNT(*) AS count FROM users WHERE active = ?;", conn.calls[0].sql)
	assert.Equal(t, []interface{}{1}, conn.calls[0].args)
	assert.Equal(t, "SELECT id, name FROM users WHERE active = ?;", q.SQL())
}

// TestSelectQuery_CountErrors tests that failures still restore the columns.
func TestSelectQuery_CountErrors(t *testing.T) {
	qb, conn := newTestBuilder(t, "sqlite")

	_, err := qb.Select().Count(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Count: table is required, call From", err.Error())

	conn.err = errors.New("no such table: users")
	q := qb.Select("id").From("users")
	_, err = q.Count(context.Background())
	assert.EqualError(t, err, "no such table: users")
	assert.Equal(t, "SELECT id FROM users;", q.SQL())
}

// TestCountValue tests the driver value types a count may arrive as.
func TestCountValue(t *testing.T) {
	tests := []struct {
		name    string
		row     Row
		want    int64
		wantErr bool
	}{
		{"int64", Row{"count": int64(5)}, 5, false},
		{"int", Row{"count": 5}, 5, false},
		{"int32", Row{"count": int32(5)}, 5, false},
		{"uint64", Row{"count": uint64(5)}, 5, false},
		{"float64", Row{"count": float64(5)}, 5, false},
		{"bytes", Row{"count": []byte("17")}, 17, false},
		{"string", Row{"count": "17"}, 17, false},
		{"nil", Row{"count": nil}, 0, false},
		{"other name", Row{"COUNT(*)": int64(3)}, 3, false},
		{"bad string", Row{"count": "many"}, 0, true},
		{"bad type", Row{"count": true}, 0, true},
		{"missing", Row{"a": 1, "b": 2}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := countValue(tt.row)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestSelectQuery_Paginate tests page arithmetic and the issued statements.
func TestSelectQuery_Paginate(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		perPage    int
		total      int64
		wantPage   int
		wantPer    int
		wantPages  int
		wantPrev   int
		wantNext   int
		wantOffset string
	}{
		{"first page", 1, 10, 55, 1, 10, 6, 0, 2, "LIMIT 10 OFFSET 0"},
		{"middle page", 3, 10, 55, 3, 10, 6, 2, 4, "LIMIT 10 OFFSET 20"},
		{"last page", 6, 10, 55, 6, 10, 6, 5, 0, "LIMIT 10 OFFSET 50"},
		{"exact fit", 2, 5, 10, 2, 5, 2, 1, 0, "LIMIT 5 OFFSET 5"},
		{"page below one", 0, 10, 55, 1, 10, 6, 0, 2, "LIMIT 10 OFFSET 0"},
		{"default per page", 2, 0, 25, 2, DefaultPerPage, 3, 1, 3, "LIMIT 10 OFFSET 10"},
		{"empty table", 1, 10, 0, 1, 10, 0, 0, 0, "LIMIT 10 OFFSET 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qb, conn := newTestBuilder(t, "sqlite")
			conn.results = []*Result{
				countResult(tt.total),
				{Rows: []Row{{"id": int64(1)}}},
			}

			q := qb.Select("id").From("items").OrderBy("id")
			p, err := q.Paginate(context.Background(), tt.page, tt.perPage)
			require.NoError(t, err)

			assert.Equal(t, tt.wantPage, p.Current)
			assert.Equal(t, tt.wantPer, p.PerPage)
			assert.Equal(t, tt.total, p.Total.Items)
			assert.Equal(t, tt.wantPages, p.Total.Pages)
			assert.Equal(t, tt.wantPrev, p.Prev)
			assert.Equal(t, tt.wantNext, p.Next)
			assert.Len(t, p.Rows, 1)

			require.Len(t, conn.calls, 2)
			assert.Equal(t, "SELECT COUNT(*) AS count FROM items ORDER BY id ASC;", conn.calls[0].sql)
			assert.Equal(t, "SELECT id FROM items ORDER BY id ASC "+tt.wantOffset+";", conn.calls[1].sql)
		})
	}
}

// TestSelectQuery_PaginateRestoresLimit tests that an existing limit and offset
// are ignored for the count and restored afterwards.
func TestSelectQuery_PaginateRestoresLimit(t *testing.T) {
	qb, conn := newTestBuilder(t, "sqlite")
	conn.results = []*Result{countResult(int64(30)), {Rows: []Row{}}}

	q := qb.Select().From("items").Limit(3).Offset(9)
	_, err := q.Paginate(context.Background(), 2, 10)
	require.NoError(t, err)

	assert.Equal(t, "SELECT COUNT(*) AS count FROM items;", conn.calls[0].sql)
	assert.Equal(t, "SELECT * FROM items LIMIT 10 OFFSET 10;", conn.calls[1].sql)
	assert.Equal(t, "SELECT * FROM items LIMIT 3 OFFSET 9;", q.SQL())
}

// TestSelectQuery_PaginateErrors tests failures from the count and the read.
func TestSelectQuery_PaginateErrors(t *testing.T) {
	qb, conn := newTestBuilder(t, "sqlite")

	_, err := qb.Select().Paginate(context.Background(), 1, 10)
	assert.True(t, IsKind(err, KindMissing))

	conn.err = errors.New("connection reset")
	_, err = qb.Select().From("items").Paginate(context.Background(), 1, 10)
	assert.EqualError(t, err, "connection reset")
}

// TestPage_JSON tests that absent neighbours are omitted.
func TestPage_JSON(t *testing.T) {
	p := Page{Rows: []Row{}, Current: 1, Next: 2, PerPage: 10, Total: PageTotal{Items: 55, Pages: 6}}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rows":[],"current":1,"next":2,"per_page":10,"total":{"items":55,"pages":6}}`, string(data))
}
