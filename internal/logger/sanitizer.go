package logger

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultSensitiveFields are the column name fragments masked when no list is
// given to NewSanitizer.
var DefaultSensitiveFields = []string{
	"password", "passwd", "pwd",
	"token", "api_key", "apikey",
	"secret", "authorization",
	"credit_card", "card_number", "cvv", "cvc",
	"ssn", "private_key",
}

var (
	insertHead = regexp.MustCompile(`(?is)^\s*INSERT\s+INTO\s+\S+\s*\(([^)]*)\)\s*VALUES\s*`)
	sqlWord    = regexp.MustCompile(`'(?:[^']|'')*'|[A-Za-z_][A-Za-z0-9_.]*|\?`)
)

// keywords never name the column a placeholder belongs to.
var keywords = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "IN": true, "BETWEEN": true, "LIKE": true,
	"IS": true, "NULL": true, "ANY": true, "ALL": true, "EXISTS": true, "SELECT": true,
	"FROM": true, "WHERE": true, "HAVING": true, "ON": true, "SET": true, "LIMIT": true,
	"OFFSET": true, "AS": true, "DATE": true, "TIME": true, "YEAR": true, "MONTH": true,
	"DAY": true, "HOUR": true, "MINUTE": true, "SECOND": true, "EXTRACT": true,
	"STRFTIME": true, "CAST": true, "INTEGER": true, "TO_CHAR": true, "FLOOR": true,
}

// Sanitizer masks bound values whose placeholder belongs to a sensitive column,
// so statements can be logged without leaking secrets.
type Sanitizer struct {
	sensitiveFields []string
	maskValue       string
}

// NewSanitizer creates a sanitizer for the given column name fragments. With no
// fields, DefaultSensitiveFields is used.
func NewSanitizer(sensitiveFields []string) *Sanitizer {
	if len(sensitiveFields) == 0 {
		sensitiveFields = DefaultSensitiveFields
	}
	fields := make([]string, len(sensitiveFields))
	for i, f := range sensitiveFields {
		fields[i] = strings.ToLower(f)
	}
	return &Sanitizer{
		sensitiveFields: fields,
		maskValue:       "***REDACTED***",
	}
}

// MaskParams returns a copy of params with sensitive values replaced by the mask.
// The original slice is not modified.
func (s *Sanitizer) MaskParams(sql string, params []interface{}) []interface{} {
	if len(params) == 0 {
		return params
	}
	columns := PlaceholderColumns(sql)
	masked := make([]interface{}, len(params))
	for i, p := range params {
		if i < len(columns) && s.isSensitive(columns[i]) {
			masked[i] = s.maskValue
			continue
		}
		masked[i] = p
	}
	return masked
}

func (s *Sanitizer) isSensitive(column string) bool {
	if column == "" {
		return false
	}
	column = strings.ToLower(column)
	for _, f := range s.sensitiveFields {
		if strings.Contains(column, f) {
			return true
		}
	}
	return false
}

// PlaceholderColumns returns, for each "?" in sql, the column it is bound
// against, or "" when that cannot be told.
func PlaceholderColumns(sql string) []string {
	if m := insertHead.FindStringSubmatchIndex(sql); m != nil {
		return insertColumns(sql[m[2]:m[3]], sql[m[1]:])
	}

	var columns []string
	last := ""
	for _, w := range sqlWord.FindAllString(sql, -1) {
		switch {
		case w == "?":
			columns = append(columns, last)
		case strings.HasPrefix(w, "'"):
		case keywords[strings.ToUpper(w)]:
		default:
			last = w
		}
	}
	return columns
}

// insertColumns maps each "?" in a VALUES list to its column by position.
func insertColumns(list, values string) []string {
	cols := strings.Split(list, ",")
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}

	var columns []string
	depth, pos := 0, 0
	for _, r := range values {
		switch r {
		case '(':
			depth++
			if depth == 1 {
				pos = 0
			}
		case ')':
			depth--
		case ',':
			if depth == 1 {
				pos++
			}
		case '?':
			if depth == 1 && pos < len(cols) {
				columns = append(columns, cols[pos])
			} else {
				columns = append(columns, "")
			}
		}
	}
	return columns
}

// FormatParams converts parameters to a string for logging. Long values are
// truncated.
func (s *Sanitizer) FormatParams(params []interface{}) string {
	if len(params) == 0 {
		return "[]"
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = formatValue(p)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatValue(v interface{}) string {
	if v == nil {
		return "NULL"
	}
	str := fmt.Sprintf("%v", v)
	const maxLen = 100
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}
