package core

import "context"

// DeleteQuery represents a DELETE query being built. A WHERE condition is
// required.
type DeleteQuery struct {
	statement
	table string
	where conditional
}

// Delete creates a DELETE query. The table may be left empty and set with From.
func (qb *QueryBuilder) Delete(table string) *DeleteQuery {
	dq := &DeleteQuery{statement: statement{qb: qb}}
	if table != "" {
		dq.From(table)
	}
	return dq
}

// Reset clears every clause, keeping only the builder it belongs to.
func (dq *DeleteQuery) Reset() {
	*dq = DeleteQuery{statement: statement{qb: dq.qb}}
}

// From sets the table to delete from.
func (dq *DeleteQuery) From(table string) *DeleteQuery {
	if !validName(table) {
		dq.fail(invalidf("From: table name must be a non-empty string"))
		return dq
	}
	dq.table = table
	return dq
}

// Where adds to the WHERE condition. Repeated calls are combined with AND.
func (dq *DeleteQuery) Where(fn func(*Cond)) *DeleteQuery {
	if err := dq.where.where(dq.dialect(), "Where", fn); err != nil {
		dq.fail(err)
	}
	return dq
}

// And appends AND to the WHERE condition, then runs fn if it is not nil.
func (dq *DeleteQuery) And(fn func(*Cond)) *DeleteQuery {
	if err := dq.where.join("And", (*Cond).And, fn); err != nil {
		dq.fail(err)
	}
	return dq
}

// Or appends OR to the WHERE condition, then runs fn if it is not nil.
func (dq *DeleteQuery) Or(fn func(*Cond)) *DeleteQuery {
	if err := dq.where.join("Or", (*Cond).Or, fn); err != nil {
		dq.fail(err)
	}
	return dq
}

// Open opens a parenthesis in the WHERE condition, joined to earlier content
// with AND unless a logical operator precedes it.
func (dq *DeleteQuery) Open() *DeleteQuery {
	dq.where.open(dq.dialect())
	return dq
}

// Close closes a parenthesis in the WHERE condition.
func (dq *DeleteQuery) Close() *DeleteQuery {
	if err := dq.where.close("Close"); err != nil {
		dq.fail(err)
	}
	return dq
}

// Paren toggles a parenthesis in the WHERE condition. See Cond.Paren. An
// opening Paren is joined to earlier content like Open.
func (dq *DeleteQuery) Paren() *DeleteQuery {
	dq.where.paren(dq.dialect())
	return dq
}

// Build renders the statement.
func (dq *DeleteQuery) Build() (string, []interface{}, error) {
	if dq.err != nil {
		return "", nil, dq.err
	}
	if dq.table == "" {
		return "", nil, missingf("Delete: table is required, call From")
	}
	where, args, ok, err := dq.where.build()
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, missingf("Delete: a WHERE condition is required")
	}
	return "DELETE FROM " + dq.table + " WHERE " + where + ";", args, nil
}

// SQL returns the rendered statement, or "" if it cannot be built.
func (dq *DeleteQuery) SQL() string {
	sql, _, _ := dq.Build()
	return sql
}

// Args returns the bound values, or nil if the statement cannot be built.
func (dq *DeleteQuery) Args() []interface{} {
	_, args, _ := dq.Build()
	return args
}

// Exec renders the statement and executes it on the builder's connection.
func (dq *DeleteQuery) Exec(ctx context.Context) (*Result, error) {
	return dq.exec(ctx, dq.Build)
}
