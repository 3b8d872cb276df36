package core

import "strings"

// Ref marks an operand as raw SQL text (a column or expression) instead of a value
// to bind. A Ref is spliced into the statement verbatim and never reaches the
// argument list, which makes column-to-column comparisons possible:
//
//	c.Col("orders.user_id").Equal(core.Ref("users.id"))
//
// Refs are not escaped. Never build one from user input.
type Ref string

// Operator is a comparison operator accepted by Cond.Any and Cond.All.
type Operator int

// Comparison operators.
const (
	OpEqual Operator = iota + 1
	OpNotEqual
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual
)

// String returns the SQL spelling of the operator.
func (o Operator) String() string {
	switch o {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "<>"
	case OpLessThan:
		return "<"
	case OpLessThanOrEqual:
		return "<="
	case OpGreaterThan:
		return ">"
	case OpGreaterThanOrEqual:
		return ">="
	default:
		return ""
	}
}

func (o Operator) valid() bool {
	return o >= OpEqual && o <= OpGreaterThanOrEqual
}

// Direction is an ORDER BY sort direction.
type Direction int

// Sort directions. The zero value sorts ascending.
const (
	Asc Direction = iota
	Desc
)

// String returns "ASC" or "DESC".
func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// isNumber reports whether v is one of Go's integer or floating point kinds.
func isNumber(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// isScalar reports whether v may be bound as a parameter: a string or a number.
func isScalar(v interface{}) bool {
	if _, ok := v.(string); ok {
		return true
	}
	return isNumber(v)
}

// isRowValue reports whether v may appear in INSERT or UPDATE row data.
func isRowValue(v interface{}) bool {
	return v == nil || isScalar(v)
}

// toInt converts an integer kind to int. Floats are accepted only when whole.
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		if float32(int(n)) == n {
			return int(n), true
		}
	case float64:
		if float64(int(n)) == n {
			return int(n), true
		}
	}
	return 0, false
}

// validName reports whether name is usable as a table, column or expression.
func validName(name string) bool {
	return strings.TrimSpace(name) != ""
}
