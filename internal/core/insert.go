package core

import (
	"context"
	"sort"
	"strings"
)

// InsertQuery represents an INSERT query being built.
//
// Nil values render as NULL in the statement and are not bound, so the argument
// list only carries the non-nil values, row by row in column order.
type InsertQuery struct {
	statement
	table     string
	columns   []string
	rows      [][]interface{}
	returning []string
}

// Insert starts an INSERT query. The table may be left empty and set with Into.
func (qb *QueryBuilder) Insert(table string) *InsertQuery {
	iq := &InsertQuery{statement: statement{qb: qb}}
	if table != "" {
		iq.Into(table)
	}
	return iq
}

// Reset clears every clause, keeping only the builder it belongs to.
func (iq *InsertQuery) Reset() {
	*iq = InsertQuery{statement: statement{qb: iq.qb}}
}

// Into sets the target table.
func (iq *InsertQuery) Into(table string) *InsertQuery {
	if !validName(table) {
		iq.fail(invalidf("Into: table name must be a non-empty string"))
		return iq
	}
	iq.table = table
	return iq
}

// Columns fixes the column order for rows added with Values. It must be called
// before any row is added.
func (iq *InsertQuery) Columns(cols ...string) *InsertQuery {
	if len(iq.rows) > 0 {
		iq.fail(invalidf("Columns: rows were already added"))
		return iq
	}
	if len(cols) == 0 {
		iq.fail(invalidf("Columns: at least one column is required"))
		return iq
	}
	seen := make(map[string]bool, len(cols))
	for _, col := range cols {
		if !validName(col) {
			iq.fail(invalidf("Columns: column names must be non-empty strings"))
			return iq
		}
		if seen[col] {
			iq.fail(invalidf("Columns: duplicate column %q", col))
			return iq
		}
		seen[col] = true
	}
	iq.columns = append([]string(nil), cols...)
	return iq
}

// Values adds a row given in the order set by Columns (or by the first Row).
func (iq *InsertQuery) Values(values ...interface{}) *InsertQuery {
	if len(iq.columns) == 0 {
		iq.fail(missingf("Values: no columns, call Columns or Row first"))
		return iq
	}
	if len(values) != len(iq.columns) {
		iq.fail(newError(KindMismatch, "Values: expected %d values, got %d", len(iq.columns), len(values)))
		return iq
	}
	for i, v := range values {
		if !isRowValue(v) {
			iq.fail(invalidf("Values: value for %q must be a string, number or nil, got %T", iq.columns[i], v))
			return iq
		}
	}
	iq.rows = append(iq.rows, append([]interface{}(nil), values...))
	return iq
}

// Row adds a row from a column-to-value map. The first row fixes the column list
// (sorted by name); every later row must have exactly the same columns.
func (iq *InsertQuery) Row(row map[string]interface{}) *InsertQuery {
	if len(row) == 0 {
		iq.fail(missingf("Row: row must have at least one column"))
		return iq
	}

	if len(iq.columns) == 0 {
		iq.Columns(sortedKeys(row)...)
		if iq.err != nil {
			return iq
		}
	} else if !sameColumns(iq.columns, row) {
		iq.fail(newError(KindMismatch, "Row: columns %v do not match %v", sortedKeys(row), iq.columns))
		return iq
	}

	values := make([]interface{}, len(iq.columns))
	for i, col := range iq.columns {
		values[i] = row[col]
	}
	return iq.Values(values...)
}

// Rows adds several rows with Row. At least two rows are required.
func (iq *InsertQuery) Rows(rows []map[string]interface{}) *InsertQuery {
	if len(rows) < 2 {
		iq.fail(invalidf("Rows: at least two rows are required, use Row for a single row"))
		return iq
	}
	for _, row := range rows {
		iq.Row(row)
		if iq.err != nil {
			break
		}
	}
	return iq
}

// Returning adds a RETURNING clause.
func (iq *InsertQuery) Returning(cols ...string) *InsertQuery {
	for _, col := range cols {
		if !validName(col) {
			iq.fail(invalidf("Returning: column names must be non-empty strings"))
			return iq
		}
	}
	iq.returning = append([]string(nil), cols...)
	return iq
}

// Build renders the statement.
func (iq *InsertQuery) Build() (string, []interface{}, error) {
	if iq.err != nil {
		return "", nil, iq.err
	}
	if iq.table == "" {
		return "", nil, missingf("Insert: table is required, call Into")
	}
	if len(iq.columns) == 0 {
		return "", nil, missingf("Insert: columns are required")
	}
	if len(iq.rows) == 0 {
		return "", nil, missingf("Insert: at least one row is required")
	}

	args := make([]interface{}, 0, len(iq.rows)*len(iq.columns))
	tuples := make([]string, len(iq.rows))
	for i, row := range iq.rows {
		marks := make([]string, len(row))
		for j, v := range row {
			if v == nil {
				marks[j] = "NULL"
				continue
			}
			marks[j] = "?"
			args = append(args, v)
		}
		tuples[i] = "(" + strings.Join(marks, ", ") + ")"
	}

	query := "INSERT INTO " + iq.table +
		" (" + strings.Join(iq.columns, ", ") + ") VALUES " +
		strings.Join(tuples, ", ")
	if len(iq.returning) > 0 {
		query += " RETURNING " + strings.Join(iq.returning, ", ")
	}
	return query + ";", args, nil
}

// SQL returns the rendered statement, or "" if it cannot be built.
func (iq *InsertQuery) SQL() string {
	sql, _, _ := iq.Build()
	return sql
}

// Args returns the bound values, or nil if the statement cannot be built.
func (iq *InsertQuery) Args() []interface{} {
	_, args, _ := iq.Build()
	return args
}

// Exec renders the statement and executes it on the builder's connection.
func (iq *InsertQuery) Exec(ctx context.Context) (*Result, error) {
	return iq.exec(ctx, iq.Build)
}

func sameColumns(cols []string, row map[string]interface{}) bool {
	if len(cols) != len(row) {
		return false
	}
	for _, col := range cols {
		if _, ok := row[col]; !ok {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
