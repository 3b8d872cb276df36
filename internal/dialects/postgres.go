package dialects

import "strconv"

// PostgresDialect implements PostgreSQL date-part extraction with casts,
// TO_CHAR and EXTRACT.
type PostgresDialect struct{}

func init() {
	RegisterDialect("postgres", &PostgresDialect{})
	RegisterDialect("postgresql", &PostgresDialect{})
	RegisterDialect("pgx", &PostgresDialect{})
}

// Name returns "postgres".
func (d *PostgresDialect) Name() string { return "postgres" }

// Placeholder returns $1, $2, ...
func (d *PostgresDialect) Placeholder(index int) string { return "$" + strconv.Itoa(index) }

// Date returns col::DATE.
func (d *PostgresDialect) Date(col string) string { return col + "::DATE" }

// Time returns TO_CHAR(col, 'HH24:MI:SS').
func (d *PostgresDialect) Time(col string) string { return "TO_CHAR(" + col + ", 'HH24:MI:SS')" }

func (d *PostgresDialect) Year(col string) string   { return extract("YEAR", col) }
func (d *PostgresDialect) Month(col string) string  { return extract("MONTH", col) }
func (d *PostgresDialect) Day(col string) string    { return extract("DAY", col) }
func (d *PostgresDialect) Hour(col string) string   { return extract("HOUR", col) }
func (d *PostgresDialect) Minute(col string) string { return extract("MINUTE", col) }

// Second truncates fractional seconds so the result compares against integers.
func (d *PostgresDialect) Second(col string) string {
	return "FLOOR(" + extract("SECOND", col) + ")"
}

func extract(part, col string) string {
	return "EXTRACT(" + part + " FROM " + col + ")"
}
