package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

const (
	// DefaultPerPage is used by Paginate when perPage is less than 1.
	DefaultPerPage = 10

	countColumn = "COUNT(*) AS count"
)

// Page is one page of a paginated SELECT. Prev and Next are 0 when there is no
// previous or next page.
type Page struct {
	Rows    []Row     `json:"rows"`
	Current int       `json:"current"`
	Prev    int       `json:"prev,omitempty"`
	Next    int       `json:"next,omitempty"`
	PerPage int       `json:"per_page"`
	Total   PageTotal `json:"total"`
}

// PageTotal holds the totals a Page was computed from.
type PageTotal struct {
	Items int64 `json:"items"`
	Pages int   `json:"pages"`
}

// Count executes the query with its column list replaced by COUNT(*) and returns
// the count. The column list is restored afterwards, whether or not the query
// succeeded.
func (sq *SelectQuery) Count(ctx context.Context) (int64, error) {
	if sq.table == "" {
		return 0, missingf("Count: table is required, call From")
	}

	saved := sq.columns
	sq.columns = []string{countColumn}
	defer func() { sq.columns = saved }()

	res, err := sq.Exec(ctx)
	if err != nil {
		return 0, err
	}
	if len(res.Rows) == 0 {
		return 0, nil
	}
	return countValue(res.Rows[0])
}

// countValue reads the count column, whatever type the driver scanned it as.
func countValue(row Row) (int64, error) {
	v, ok := row["count"]
	if !ok && len(row) == 1 {
		for _, only := range row {
			v, ok = only, true
		}
	}
	if !ok {
		return 0, errors.New("count column missing from result")
	}

	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected count type %T", v)
	}
}

// Paginate counts the matching rows, then reads one page of them. A page below 1
// becomes 1 and perPage below 1 becomes DefaultPerPage. Limit and offset set on
// the query are ignored for the count and restored afterwards.
func (sq *SelectQuery) Paginate(ctx context.Context, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	savedLimit, savedOffset := sq.limit, sq.offset
	defer func() { sq.limit, sq.offset = savedLimit, savedOffset }()

	sq.limit, sq.offset = -1, -1
	total, err := sq.Count(ctx)
	if err != nil {
		return nil, err
	}

	sq.limit, sq.offset = perPage, (page-1)*perPage
	rows, err := sq.All(ctx)
	if err != nil {
		return nil, err
	}

	pages := int((total + int64(perPage) - 1) / int64(perPage))
	p := &Page{
		Rows:    rows,
		Current: page,
		PerPage: perPage,
		Total:   PageTotal{Items: total, Pages: pages},
	}
	if page > 1 {
		p.Prev = page - 1
	}
	if page < pages {
		p.Next = page + 1
	}
	return p, nil
}
