package core

import (
	"context"
	"strings"
)

// UpdateQuery represents an UPDATE query being built. A WHERE condition is
// required; there is no way to update every row of a table by accident.
type UpdateQuery struct {
	statement
	table   string
	columns []string
	values  []interface{}
	where   conditional
}

// Update creates an UPDATE query. The table may be left empty and set with Table.
func (qb *QueryBuilder) Update(table string) *UpdateQuery {
	uq := &UpdateQuery{statement: statement{qb: qb}}
	if table != "" {
		uq.Table(table)
	}
	return uq
}

// Reset clears every clause, keeping only the builder it belongs to.
func (uq *UpdateQuery) Reset() {
	*uq = UpdateQuery{statement: statement{qb: uq.qb}}
}

// Table sets the table to update.
func (uq *UpdateQuery) Table(table string) *UpdateQuery {
	if !validName(table) {
		uq.fail(invalidf("Table: table name must be a non-empty string"))
		return uq
	}
	uq.table = table
	return uq
}

// SetValue sets one column. Columns keep the order of their first SetValue or Set;
// setting a column again replaces its value in place.
func (uq *UpdateQuery) SetValue(col string, value interface{}) *UpdateQuery {
	if !validName(col) {
		uq.fail(invalidf("Set: column names must be non-empty strings"))
		return uq
	}
	if !isRowValue(value) {
		uq.fail(invalidf("Set: value for %q must be a string, number or nil, got %T", col, value))
		return uq
	}
	for i, existing := range uq.columns {
		if existing == col {
			uq.values[i] = value
			return uq
		}
	}
	uq.columns = append(uq.columns, col)
	uq.values = append(uq.values, value)
	return uq
}

// Set sets several columns from a map, in sorted column order.
func (uq *UpdateQuery) Set(values map[string]interface{}) *UpdateQuery {
	if len(values) == 0 {
		uq.fail(missingf("Set: at least one column is required"))
		return uq
	}
	for _, col := range sortedKeys(values) {
		uq.SetValue(col, values[col])
	}
	return uq
}

// Where adds to the WHERE condition. Repeated calls are combined with AND.
func (uq *UpdateQuery) Where(fn func(*Cond)) *UpdateQuery {
	if err := uq.where.where(uq.dialect(), "Where", fn); err != nil {
		uq.fail(err)
	}
	return uq
}

// And appends AND to the WHERE condition, then runs fn if it is not nil.
func (uq *UpdateQuery) And(fn func(*Cond)) *UpdateQuery {
	if err := uq.where.join("And", (*Cond).And, fn); err != nil {
		uq.fail(err)
	}
	return uq
}

// Or appends OR to the WHERE condition, then runs fn if it is not nil.
func (uq *UpdateQuery) Or(fn func(*Cond)) *UpdateQuery {
	if err := uq.where.join("Or", (*Cond).Or, fn); err != nil {
		uq.fail(err)
	}
	return uq
}

// Open opens a parenthesis in the WHERE condition, joined to earlier content
// with AND unless a logical operator precedes it.
func (uq *UpdateQuery) Open() *UpdateQuery {
	uq.where.open(uq.dialect())
	return uq
}

// Close closes a parenthesis in the WHERE condition.
func (uq *UpdateQuery) Close() *UpdateQuery {
	if err := uq.where.close("Close"); err != nil {
		uq.fail(err)
	}
	return uq
}

// Paren toggles a parenthesis in the WHERE condition. See Cond.Paren. An
// opening Paren is joined to earlier content like Open.
func (uq *UpdateQuery) Paren() *UpdateQuery {
	uq.where.paren(uq.dialect())
	return uq
}

// Build renders the statement. Nil values render as NULL and are not bound.
func (uq *UpdateQuery) Build() (string, []interface{}, error) {
	if uq.err != nil {
		return "", nil, uq.err
	}
	if uq.table == "" {
		return "", nil, missingf("Update: table is required, call Table")
	}
	if len(uq.columns) == 0 || len(uq.values) == 0 {
		return "", nil, missingf("Update: no columns to set, call Set")
	}

	where, whereArgs, ok, err := uq.where.build()
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, missingf("Update: a WHERE condition is required")
	}

	args := make([]interface{}, 0, len(uq.values)+len(whereArgs))
	sets := make([]string, len(uq.columns))
	for i, col := range uq.columns {
		if uq.values[i] == nil {
			sets[i] = col + " = NULL"
			continue
		}
		sets[i] = col + " = ?"
		args = append(args, uq.values[i])
	}
	args = append(args, whereArgs...)

	return "UPDATE " + uq.table + " SET " + strings.Join(sets, ", ") + " WHERE " + where + ";", args, nil
}

// SQL returns the rendered statement, or "" if it cannot be built.
func (uq *UpdateQuery) SQL() string {
	sql, _, _ := uq.Build()
	return sql
}

// Args returns the bound values, or nil if the statement cannot be built.
func (uq *UpdateQuery) Args() []interface{} {
	_, args, _ := uq.Build()
	return args
}

// Exec renders the statement and executes it on the builder's connection.
func (uq *UpdateQuery) Exec(ctx context.Context) (*Result, error) {
	return uq.exec(ctx, uq.Build)
}
