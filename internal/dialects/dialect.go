// Package dialects provides database-specific SQL fragments for PostgreSQL, MySQL,
// and SQLite. Only the pieces that differ syntactically between engines live here;
// everything else the builders render is portable SQL with "?" placeholders.
package dialects

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnsupported is returned by Lookup when no dialect is registered for a driver.
var ErrUnsupported = errors.New("unsupported dialect")

// Dialect produces the SQL fragment that extracts a date or time component from
// a column or expression. Each date method receives the raw column text and
// returns the wrapped expression.
type Dialect interface {
	// Name returns the canonical driver kind ("mysql", "postgres", "sqlite").
	Name() string
	// Placeholder returns the driver's bind marker for the 1-based index.
	Placeholder(index int) string
	Date(col string) string
	Time(col string) string
	Year(col string) string
	Month(col string) string
	Day(col string) string
	Hour(col string) string
	Minute(col string) string
	Second(col string) string
}

var (
	mu       sync.RWMutex
	dialects = make(map[string]Dialect)
)

// RegisterDialect registers a database dialect by driver name.
func RegisterDialect(name string, d Dialect) {
	mu.Lock()
	defer mu.Unlock()
	dialects[strings.ToLower(name)] = d
}

// Lookup retrieves a registered dialect by driver name. Names of wrapped drivers
// (for example "postgres-otel" or "sqlite3_extended") resolve to the dialect whose
// name is their longest registered prefix.
func Lookup(name string) (Dialect, error) {
	name = strings.ToLower(name)

	mu.RLock()
	defer mu.RUnlock()

	if d, ok := dialects[name]; ok {
		return d, nil
	}

	var best string
	for registered := range dialects {
		if strings.HasPrefix(name, registered) && len(registered) > len(best) {
			best = registered
		}
	}
	if best != "" {
		return dialects[best], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
}

// Rebind rewrites the "?" placeholders of query into the dialect's bind markers.
// Question marks inside single-quoted literals, double-quoted identifiers and
// comments are left alone. Queries for "?" dialects are returned unchanged.
func Rebind(d Dialect, query string) string {
	if d.Placeholder(1) == "?" || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	index := 0
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'' || ch == '"':
			end := strings.IndexByte(query[i+1:], ch)
			if end < 0 {
				b.WriteString(query[i:])
				return b.String()
			}
			b.WriteString(query[i : i+end+2])
			i += end + 1
		case ch == '-' && strings.HasPrefix(query[i:], "--"):
			end := strings.IndexByte(query[i:], '\n')
			if end < 0 {
				b.WriteString(query[i:])
				return b.String()
			}
			b.WriteString(query[i : i+end])
			i += end - 1
		case ch == '/' && strings.HasPrefix(query[i:], "/*"):
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				b.WriteString(query[i:])
				return b.String()
			}
			b.WriteString(query[i : i+end+4])
			i += end + 3
		case ch == '?':
			index++
			b.WriteString(d.Placeholder(index))
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// GetDialect retrieves a registered dialect by driver name, panics if not found.
func GetDialect(name string) Dialect {
	d, err := Lookup(name)
	if err != nil {
		panic("unsupported dialect: " + name)
	}
	return d
}

// Registered returns the sorted list of registered driver names.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
