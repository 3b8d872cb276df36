package dialects

// SQLiteDialect implements SQLite date-part extraction with DATE() and
// STRFTIME(). Numeric parts are cast to INTEGER because STRFTIME returns
// zero-padded text, which never equals an integer bind in SQLite.
type SQLiteDialect struct{}

func init() {
	RegisterDialect("sqlite", &SQLiteDialect{})
	RegisterDialect("sqlite3", &SQLiteDialect{})
}

// Name returns "sqlite".
func (d *SQLiteDialect) Name() string { return "sqlite" }

// Placeholder returns "?".
func (d *SQLiteDialect) Placeholder(_ int) string { return "?" }

// Date returns DATE(col).
func (d *SQLiteDialect) Date(col string) string { return "DATE(" + col + ")" }

// Time returns STRFTIME('%H:%M:%S', col).
func (d *SQLiteDialect) Time(col string) string { return strftime("%H:%M:%S", col) }

func (d *SQLiteDialect) Year(col string) string   { return integer(strftime("%Y", col)) }
func (d *SQLiteDialect) Month(col string) string  { return integer(strftime("%m", col)) }
func (d *SQLiteDialect) Day(col string) string    { return integer(strftime("%d", col)) }
func (d *SQLiteDialect) Hour(col string) string   { return integer(strftime("%H", col)) }
func (d *SQLiteDialect) Minute(col string) string { return integer(strftime("%M", col)) }
func (d *SQLiteDialect) Second(col string) string { return integer(strftime("%S", col)) }

func strftime(format, col string) string {
	return "STRFTIME('" + format + "', " + col + ")"
}

func integer(expr string) string {
	return "CAST(" + expr + " AS INTEGER)"
}
