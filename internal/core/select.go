package core

import (
	"context"
	"strconv"
	"strings"
)

type joinClause struct {
	kind  string
	table string
	on    *Cond
}

type orderClause struct {
	column    string
	direction Direction
}

type unionClause struct {
	all  bool
	sql  string
	args []interface{}
}

// SelectQuery represents a SELECT query being built.
//
// Clauses render in a fixed order whatever order they were set in:
//
//	SELECT [DISTINCT] cols FROM table [joins] [WHERE] [GROUP BY] [HAVING]
//	[ORDER BY] [LIMIT] [OFFSET] [UNION ...]
type SelectQuery struct {
	statement
	columns  []string
	distinct bool
	table    string
	joins    []joinClause
	where    conditional
	groupBy  []string
	having   conditional
	orders   []orderClause
	limit    int
	offset   int
	unions   []unionClause
}

// Select starts a SELECT query. Without columns it selects "*".
func (qb *QueryBuilder) Select(cols ...string) *SelectQuery {
	sq := &SelectQuery{statement: statement{qb: qb}}
	sq.Reset()
	if len(cols) > 0 {
		sq.Columns(cols...)
	}
	return sq
}

// Reset returns the query to the state Select() left it in, keeping only the
// builder it belongs to.
func (sq *SelectQuery) Reset() {
	*sq = SelectQuery{
		statement: statement{qb: sq.qb},
		limit:     -1,
		offset:    -1,
	}
}

// Columns replaces the selected column list.
func (sq *SelectQuery) Columns(cols ...string) *SelectQuery {
	for _, col := range cols {
		if !validName(col) {
			sq.fail(invalidf("Select: column names must be non-empty strings"))
			return sq
		}
	}
	sq.columns = append([]string(nil), cols...)
	return sq
}

// Distinct adds the DISTINCT keyword.
func (sq *SelectQuery) Distinct() *SelectQuery {
	sq.distinct = true
	return sq
}

// From specifies the table to select from.
func (sq *SelectQuery) From(table string) *SelectQuery {
	if !validName(table) {
		sq.fail(invalidf("From: table name must be a non-empty string"))
		return sq
	}
	sq.table = table
	return sq
}

func (sq *SelectQuery) join(kind, table string, on func(*Cond)) *SelectQuery {
	if !validName(table) {
		sq.fail(invalidf("%s JOIN: table name must be a non-empty string", kind))
		return sq
	}
	if on == nil {
		sq.fail(invalidf("%s JOIN: condition callback must not be nil", kind))
		return sq
	}
	c := NewCond(sq.dialect())
	on(c)
	sq.joins = append(sq.joins, joinClause{kind: kind, table: table, on: c})
	return sq
}

// Join adds an INNER JOIN.
//
//	Join("orders", func(c *core.Cond) {
//	    c.Col("orders.user_id").Equal(core.Ref("users.id"))
//	})
func (sq *SelectQuery) Join(table string, on func(*Cond)) *SelectQuery {
	return sq.join("INNER", table, on)
}

// InnerJoin is an alias of Join.
func (sq *SelectQuery) InnerJoin(table string, on func(*Cond)) *SelectQuery {
	return sq.join("INNER", table, on)
}

// LeftJoin adds a LEFT JOIN.
func (sq *SelectQuery) LeftJoin(table string, on func(*Cond)) *SelectQuery {
	return sq.join("LEFT", table, on)
}

// RightJoin adds a RIGHT JOIN.
func (sq *SelectQuery) RightJoin(table string, on func(*Cond)) *SelectQuery {
	return sq.join("RIGHT", table, on)
}

// Where adds to the WHERE condition. Repeated calls are combined with AND.
func (sq *SelectQuery) Where(fn func(*Cond)) *SelectQuery {
	if err := sq.where.where(sq.dialect(), "Where", fn); err != nil {
		sq.fail(err)
	}
	return sq
}

// And appends AND to the WHERE condition, then runs fn if it is not nil.
func (sq *SelectQuery) And(fn func(*Cond)) *SelectQuery {
	if err := sq.where.join("And", (*Cond).And, fn); err != nil {
		sq.fail(err)
	}
	return sq
}

// Or appends OR to the WHERE condition, then runs fn if it is not nil.
func (sq *SelectQuery) Or(fn func(*Cond)) *SelectQuery {
	if err := sq.where.join("Or", (*Cond).Or, fn); err != nil {
		sq.fail(err)
	}
	return sq
}

// Open opens a parenthesis in the WHERE condition, joined to earlier content
// with AND unless a logical operator precedes it.
func (sq *SelectQuery) Open() *SelectQuery {
	sq.where.open(sq.dialect())
	return sq
}

// Close closes a parenthesis in the WHERE condition.
func (sq *SelectQuery) Close() *SelectQuery {
	if err := sq.where.close("Close"); err != nil {
		sq.fail(err)
	}
	return sq
}

// Paren toggles a parenthesis in the WHERE condition. See Cond.Paren. An
// opening Paren is joined to earlier content like Open.
func (sq *SelectQuery) Paren() *SelectQuery {
	sq.where.paren(sq.dialect())
	return sq
}

// GroupBy sets the GROUP BY columns.
func (sq *SelectQuery) GroupBy(cols ...string) *SelectQuery {
	if len(cols) == 0 {
		sq.fail(invalidf("GroupBy: at least one column is required"))
		return sq
	}
	for _, col := range cols {
		if !validName(col) {
			sq.fail(invalidf("GroupBy: column names must be non-empty strings"))
			return sq
		}
	}
	sq.groupBy = append(sq.groupBy, cols...)
	return sq
}

// Having adds to the HAVING condition. Repeated calls are combined with AND.
func (sq *SelectQuery) Having(fn func(*Cond)) *SelectQuery {
	if err := sq.having.where(sq.dialect(), "Having", fn); err != nil {
		sq.fail(err)
	}
	return sq
}

// OrderBy adds a sort column. The direction defaults to Asc.
func (sq *SelectQuery) OrderBy(col string, dir ...Direction) *SelectQuery {
	if !validName(col) {
		sq.fail(invalidf("OrderBy: column name must be a non-empty string"))
		return sq
	}
	d := Asc
	if len(dir) > 0 {
		d = dir[0]
	}
	if d != Asc && d != Desc {
		sq.fail(invalidf("OrderBy: unknown direction %d", int(d)))
		return sq
	}
	sq.orders = append(sq.orders, orderClause{column: col, direction: d})
	return sq
}

// Limit sets the LIMIT clause.
func (sq *SelectQuery) Limit(n int) *SelectQuery {
	if n < 0 {
		sq.fail(invalidf("Limit: must not be negative, got %d", n))
		return sq
	}
	sq.limit = n
	return sq
}

// Offset sets the OFFSET clause.
func (sq *SelectQuery) Offset(n int) *SelectQuery {
	if n < 0 {
		sq.fail(invalidf("Offset: must not be negative, got %d", n))
		return sq
	}
	sq.offset = n
	return sq
}

func (sq *SelectQuery) union(all bool, q Subquery) *SelectQuery {
	if q == nil {
		sq.fail(invalidf("Union: subquery must not be nil"))
		return sq
	}
	sql, args, err := q.BuildSubquery()
	if err != nil {
		sq.fail(err)
		return sq
	}
	sq.unions = append(sq.unions, unionClause{all: all, sql: sql, args: args})
	return sq
}

// Union appends "UNION q". q is rendered immediately; later changes to it are
// not picked up.
func (sq *SelectQuery) Union(q Subquery) *SelectQuery {
	return sq.union(false, q)
}

// UnionAll appends "UNION ALL q". q is rendered immediately.
func (sq *SelectQuery) UnionAll(q Subquery) *SelectQuery {
	return sq.union(true, q)
}

// Build renders the statement with its terminator.
func (sq *SelectQuery) Build() (string, []interface{}, error) {
	return sq.build(false)
}

// BuildSubquery renders the statement without its terminator for embedding.
func (sq *SelectQuery) BuildSubquery() (string, []interface{}, error) {
	if sq == nil {
		return "", nil, invalidf("subquery must not be nil")
	}
	return sq.build(true)
}

// SQL returns the rendered statement, or "" if it cannot be built.
func (sq *SelectQuery) SQL() string {
	sql, _, _ := sq.Build()
	return sql
}

// Args returns the bound values in placeholder order, or nil if the statement
// cannot be built.
func (sq *SelectQuery) Args() []interface{} {
	_, args, _ := sq.Build()
	return args
}

//nolint:cyclop,funlen // clause rendering is a flat sequence
func (sq *SelectQuery) build(subquery bool) (string, []interface{}, error) {
	if sq.err != nil {
		return "", nil, sq.err
	}
	if sq.table == "" {
		return "", nil, missingf("Select: table is required, call From")
	}

	var b strings.Builder
	args := make([]interface{}, 0)

	b.WriteString("SELECT ")
	if sq.distinct {
		b.WriteString("DISTINCT ")
	}
	if len(sq.columns) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(sq.columns, ", "))
	}
	b.WriteString(" FROM ")
	b.WriteString(sq.table)

	for _, j := range sq.joins {
		on, onArgs, err := j.on.Build()
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" " + j.kind + " JOIN " + j.table + " ON " + on)
		args = append(args, onArgs...)
	}

	where, whereArgs, ok, err := sq.where.build()
	if err != nil {
		return "", nil, err
	}
	if ok {
		b.WriteString(" WHERE " + where)
		args = append(args, whereArgs...)
	}

	if len(sq.groupBy) > 0 {
		b.WriteString(" GROUP BY " + strings.Join(sq.groupBy, ", "))
	}

	having, havingArgs, ok, err := sq.having.build()
	if err != nil {
		return "", nil, err
	}
	if ok {
		b.WriteString(" HAVING " + having)
		args = append(args, havingArgs...)
	}

	if len(sq.orders) > 0 {
		parts := make([]string, len(sq.orders))
		for i, o := range sq.orders {
			parts[i] = o.column + " " + o.direction.String()
		}
		b.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}

	if sq.limit >= 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(sq.limit))
	}
	if sq.offset >= 0 {
		b.WriteString(" OFFSET " + strconv.Itoa(sq.offset))
	}

	for _, u := range sq.unions {
		if u.all {
			b.WriteString(" UNION ALL ")
		} else {
			b.WriteString(" UNION ")
		}
		b.WriteString(u.sql)
		args = append(args, u.args...)
	}

	if !subquery {
		b.WriteString(";")
	}
	return b.String(), args, nil
}

// Exec renders the statement and executes it on the builder's connection.
func (sq *SelectQuery) Exec(ctx context.Context) (*Result, error) {
	return sq.exec(ctx, sq.Build)
}

// All executes the query and returns every row.
func (sq *SelectQuery) All(ctx context.Context) ([]Row, error) {
	res, err := sq.Exec(ctx)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// One executes the query and returns the first row, or ErrNoRows.
func (sq *SelectQuery) One(ctx context.Context) (Row, error) {
	rows, err := sq.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows[0], nil
}
