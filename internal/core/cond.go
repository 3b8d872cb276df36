// Copyright (c) 2025 COREGX. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import (
	"regexp"
	"strings"

	"github.com/coregx/sqlforge/internal/dialects"
)

// Subquery is a statement that can be rendered for embedding inside another one.
// The returned SQL has no trailing terminator and its arguments are in placeholder
// order. *SelectQuery implements Subquery.
type Subquery interface {
	BuildSubquery() (string, []interface{}, error)
}

type tokenKind int

const (
	tokOperand tokenKind = iota
	tokAnd
	tokOr
	tokOpen
	tokClose
)

type token struct {
	kind tokenKind
	text string
}

func (t token) logical() bool {
	return t.kind == tokAnd || t.kind == tokOr
}

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
)

// Cond assembles a single boolean predicate for a WHERE, HAVING or JOIN ... ON
// clause. Calls are recorded in order; nothing is validated as a whole until Build.
//
//	c.Col("age").GreaterThan(18).And().Open().
//	    Col("city").Equal("Tokyo").Or().Equal("Osaka").
//	    Close()
//
// renders
//
//	age > ? AND (city = ? OR city = ?)
//
// The first error raised by any call is kept and returned by Build; later calls
// are still recorded but cannot replace it.
type Cond struct {
	dialect dialects.Dialect
	tokens  []token
	args    []interface{}
	depth   int
	negate  bool
	column  string
	err     error
}

// NewCond creates an empty condition. The dialect selects the date-part fragments
// used by InDate, InYear and friends and may be nil when those are not needed.
func NewCond(dialect dialects.Dialect) *Cond {
	return &Cond{dialect: dialect}
}

// Err returns the first error recorded by the condition, if any.
func (c *Cond) Err() error {
	return c.err
}

// Len returns the number of recorded tokens.
func (c *Cond) Len() int {
	return len(c.tokens)
}

func (c *Cond) fail(err error) *Cond {
	if c.err == nil {
		c.err = err
	}
	return c
}

func (c *Cond) push(kind tokenKind, text string) *Cond {
	c.tokens = append(c.tokens, token{kind: kind, text: text})
	return c
}

// not consumes the negation flag.
func (c *Cond) not() string {
	if c.negate {
		c.negate = false
		return "NOT "
	}
	return ""
}

func (c *Cond) requireColumn(method string) bool {
	if c.column == "" {
		c.fail(missingf("%s: no column selected, call Col first", method))
		return false
	}
	return true
}

// operand renders v as a placeholder or, for a Ref, as raw text.
func (c *Cond) operand(method string, v interface{}) (string, bool) {
	switch val := v.(type) {
	case Ref:
		if !validName(string(val)) {
			c.fail(invalidf("%s: reference must not be empty", method))
			return "", false
		}
		return string(val), true
	default:
		if !isScalar(v) {
			c.fail(invalidf("%s: value must be a string, number or Ref, got %T", method, v))
			return "", false
		}
		c.args = append(c.args, v)
		return "?", true
	}
}

// Col selects the column that following comparisons apply to. The column stays
// selected until Col is called again, so Equal(1).Or().Equal(2) compares the same
// column twice.
func (c *Cond) Col(name string) *Cond {
	if !validName(name) {
		return c.fail(invalidf("Col: column name must be a non-empty string"))
	}
	c.column = name
	return c
}

func (c *Cond) compare(method, op string, v interface{}) *Cond {
	if !c.requireColumn(method) {
		return c
	}
	placeholder, ok := c.operand(method, v)
	if !ok {
		return c
	}
	return c.push(tokOperand, c.not()+c.column+" "+op+" "+placeholder)
}

// Equal adds "col = ?".
func (c *Cond) Equal(v interface{}) *Cond {
	return c.compare("Equal", "=", v)
}

// NotEqual adds "col <> ?".
func (c *Cond) NotEqual(v interface{}) *Cond {
	return c.compare("NotEqual", "<>", v)
}

// LessThan adds "col < ?".
func (c *Cond) LessThan(v interface{}) *Cond {
	return c.compare("LessThan", "<", v)
}

// LessThanOrEqual adds "col <= ?".
func (c *Cond) LessThanOrEqual(v interface{}) *Cond {
	return c.compare("LessThanOrEqual", "<=", v)
}

// GreaterThan adds "col > ?".
func (c *Cond) GreaterThan(v interface{}) *Cond {
	return c.compare("GreaterThan", ">", v)
}

// GreaterThanOrEqual adds "col >= ?".
func (c *Cond) GreaterThanOrEqual(v interface{}) *Cond {
	return c.compare("GreaterThanOrEqual", ">=", v)
}

// Like adds "col LIKE ?". Wildcards are passed through unchanged.
func (c *Cond) Like(pattern interface{}) *Cond {
	return c.compare("Like", "LIKE", pattern)
}

// Between adds "col BETWEEN ? AND ?".
func (c *Cond) Between(start, end interface{}) *Cond {
	if !c.requireColumn("Between") {
		return c
	}
	lo, ok := c.operand("Between", start)
	if !ok {
		return c
	}
	hi, ok := c.operand("Between", end)
	if !ok {
		return c
	}
	return c.push(tokOperand, c.not()+c.column+" BETWEEN "+lo+" AND "+hi)
}

// In adds "col IN (?, ?, ...)". At least one value is required.
func (c *Cond) In(values ...interface{}) *Cond {
	if !c.requireColumn("In") {
		return c
	}
	if len(values) == 0 {
		return c.fail(invalidf("In: at least one value is required"))
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		p, ok := c.operand("In", v)
		if !ok {
			return c
		}
		parts = append(parts, p)
	}
	return c.push(tokOperand, c.not()+c.column+" IN ("+strings.Join(parts, ", ")+")")
}

// IsNull adds "col IS NULL". Preceded by Not it renders "NOT col IS NULL".
func (c *Cond) IsNull() *Cond {
	if !c.requireColumn("IsNull") {
		return c
	}
	return c.push(tokOperand, c.not()+c.column+" IS NULL")
}

// datePart compares the dialect's extraction of the active column against v.
func (c *Cond) datePart(method string, extract func(dialects.Dialect, string) string, v interface{}, check func(interface{}) bool, want string) *Cond {
	if !c.requireColumn(method) {
		return c
	}
	if c.dialect == nil {
		return c.fail(missingf("%s: no dialect available for date functions", method))
	}
	if _, isRef := v.(Ref); !isRef && !check(v) {
		return c.fail(invalidf("%s: value must be %s, got %v", method, want, v))
	}
	placeholder, ok := c.operand(method, v)
	if !ok {
		return c
	}
	return c.push(tokOperand, c.not()+extract(c.dialect, c.column)+" = "+placeholder)
}

func matches(pattern *regexp.Regexp) func(interface{}) bool {
	return func(v interface{}) bool {
		s, ok := v.(string)
		return ok && pattern.MatchString(s)
	}
}

func intRange(lo, hi int) func(interface{}) bool {
	return func(v interface{}) bool {
		n, ok := toInt(v)
		return ok && n >= lo && n <= hi
	}
}

// InDate compares the date part of the column with a YYYY-MM-DD string.
func (c *Cond) InDate(v interface{}) *Cond {
	return c.datePart("InDate", dialects.Dialect.Date, v, matches(datePattern), "a YYYY-MM-DD string")
}

// InTime compares the time part of the column with an HH:MM:SS string.
func (c *Cond) InTime(v interface{}) *Cond {
	return c.datePart("InTime", dialects.Dialect.Time, v, matches(timePattern), "an HH:MM:SS string")
}

// InYear compares the year of the column.
func (c *Cond) InYear(v interface{}) *Cond {
	return c.datePart("InYear", dialects.Dialect.Year, v, intRange(0, 9999), "an integer year")
}

// InMonth compares the month of the column (1-12).
func (c *Cond) InMonth(v interface{}) *Cond {
	return c.datePart("InMonth", dialects.Dialect.Month, v, intRange(1, 12), "an integer between 1 and 12")
}

// InDay compares the day of month of the column (1-31).
func (c *Cond) InDay(v interface{}) *Cond {
	return c.datePart("InDay", dialects.Dialect.Day, v, intRange(1, 31), "an integer between 1 and 31")
}

// InHour compares the hour of the column (0-23).
func (c *Cond) InHour(v interface{}) *Cond {
	return c.datePart("InHour", dialects.Dialect.Hour, v, intRange(0, 23), "an integer between 0 and 23")
}

// InMinute compares the minute of the column (0-59).
func (c *Cond) InMinute(v interface{}) *Cond {
	return c.datePart("InMinute", dialects.Dialect.Minute, v, intRange(0, 59), "an integer between 0 and 59")
}

// InSecond compares the second of the column (0-59).
func (c *Cond) InSecond(v interface{}) *Cond {
	return c.datePart("InSecond", dialects.Dialect.Second, v, intRange(0, 59), "an integer between 0 and 59")
}

// subquery renders q and appends its arguments.
func (c *Cond) subquery(method string, q Subquery) (string, bool) {
	if q == nil {
		c.fail(invalidf("%s: subquery must not be nil", method))
		return "", false
	}
	sql, args, err := q.BuildSubquery()
	if err != nil {
		c.fail(err)
		return "", false
	}
	c.args = append(c.args, args...)
	return "(" + sql + ")", true
}

// InSubquery adds "col IN (SELECT ...)".
func (c *Cond) InSubquery(q Subquery) *Cond {
	if !c.requireColumn("InSubquery") {
		return c
	}
	sub, ok := c.subquery("InSubquery", q)
	if !ok {
		return c
	}
	return c.push(tokOperand, c.not()+c.column+" IN "+sub)
}

// Exists adds "EXISTS (SELECT ...)". It does not use the active column.
func (c *Cond) Exists(q Subquery) *Cond {
	sub, ok := c.subquery("Exists", q)
	if !ok {
		return c
	}
	return c.push(tokOperand, c.not()+"EXISTS "+sub)
}

func (c *Cond) quantified(method, quantifier string, op Operator, q Subquery) *Cond {
	if !c.requireColumn(method) {
		return c
	}
	if !op.valid() {
		return c.fail(invalidf("%s: unknown operator %d", method, int(op)))
	}
	sub, ok := c.subquery(method, q)
	if !ok {
		return c
	}
	return c.push(tokOperand, c.not()+c.column+" "+op.String()+" "+quantifier+" "+sub)
}

// Any adds "col op ANY (SELECT ...)".
func (c *Cond) Any(op Operator, q Subquery) *Cond {
	return c.quantified("Any", "ANY", op, q)
}

// All adds "col op ALL (SELECT ...)".
func (c *Cond) All(op Operator, q Subquery) *Cond {
	return c.quantified("All", "ALL", op, q)
}

// Not negates the next comparison only. It has no effect on comparisons that
// were already added.
func (c *Cond) Not() *Cond {
	c.negate = true
	return c
}

// And adds the AND operator. Placement is checked by Build.
func (c *Cond) And() *Cond {
	return c.push(tokAnd, " AND ")
}

// Or adds the OR operator. Placement is checked by Build.
func (c *Cond) Or() *Cond {
	return c.push(tokOr, " OR ")
}

// Open adds an opening parenthesis.
func (c *Cond) Open() *Cond {
	c.depth++
	return c.push(tokOpen, "(")
}

// Close adds a closing parenthesis.
func (c *Cond) Close() *Cond {
	c.depth--
	return c.push(tokClose, ")")
}

// Paren opens a group when none is open and closes the current one otherwise.
// It does not nest: with two groups open, Paren closes only the inner one and a
// second Paren is still needed. Use Open and Close for nested groups.
func (c *Cond) Paren() *Cond {
	if c.depth == 0 {
		return c.Open()
	}
	return c.Close()
}

// Raw appends text verbatim and binds values in order. Each value must be a
// non-empty string or a number.
func (c *Cond) Raw(text string, values ...interface{}) *Cond {
	if !validName(text) {
		return c.fail(invalidf("Raw: text must be a non-empty string"))
	}
	for _, v := range values {
		if s, ok := v.(string); (ok && s == "") || !isScalar(v) {
			return c.fail(invalidf("Raw: values must be non-empty strings or numbers, got %#v", v))
		}
	}
	c.args = append(c.args, values...)
	return c.push(tokOperand, text)
}

// Build validates the grammar and returns the predicate text and its arguments.
func (c *Cond) Build() (string, []interface{}, error) {
	if c.err != nil {
		return "", nil, c.err
	}
	if err := c.validate(); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	for _, t := range c.tokens {
		b.WriteString(t.text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", nil, syntaxf("condition cannot be empty")
	}

	args := make([]interface{}, len(c.args))
	copy(args, c.args)
	return text, args, nil
}

// validate runs the placement checks in a fixed order so each violation reports
// the same error every time.
func (c *Cond) validate() error {
	if c.depth != 0 {
		return syntaxf("condition has unmatched parentheses")
	}

	pairs := []struct {
		bad func(prev, next token) bool
		msg string
	}{
		{func(p, n token) bool { return p.kind == tokOpen && n.logical() }, "condition has a logical operator right after an opening parenthesis"},
		{func(p, n token) bool { return p.logical() && n.kind == tokClose }, "condition has a logical operator right before a closing parenthesis"},
		{func(p, n token) bool { return p.logical() && n.logical() }, "condition has consecutive logical operators"},
		{func(p, n token) bool { return p.kind == tokOpen && n.kind == tokClose }, "condition has empty parentheses"},
	}
	for _, check := range pairs {
		for i := 1; i < len(c.tokens); i++ {
			if check.bad(c.tokens[i-1], c.tokens[i]) {
				return syntaxf("%s", check.msg)
			}
		}
	}

	if n := len(c.tokens); n > 0 {
		if c.tokens[n-1].logical() {
			return syntaxf("condition cannot end with a logical operator")
		}
		if c.tokens[0].logical() {
			return syntaxf("condition cannot start with a logical operator")
		}
	}
	return nil
}
