package dialects

// MySQLDialect implements MySQL date-part extraction using the built-in
// DATE()/TIME()/YEAR()/... functions.
type MySQLDialect struct{}

func init() {
	RegisterDialect("mysql", &MySQLDialect{})
	RegisterDialect("mariadb", &MySQLDialect{})
}

// Name returns "mysql".
func (d *MySQLDialect) Name() string { return "mysql" }

// Placeholder returns "?".
func (d *MySQLDialect) Placeholder(_ int) string { return "?" }

// Date returns DATE(col).
func (d *MySQLDialect) Date(col string) string { return "DATE(" + col + ")" }

// Time returns TIME(col).
func (d *MySQLDialect) Time(col string) string { return "TIME(" + col + ")" }

// Year returns YEAR(col).
func (d *MySQLDialect) Year(col string) string { return "YEAR(" + col + ")" }

// Month returns MONTH(col).
func (d *MySQLDialect) Month(col string) string { return "MONTH(" + col + ")" }

// Day returns DAY(col).
func (d *MySQLDialect) Day(col string) string { return "DAY(" + col + ")" }

// Hour returns HOUR(col).
func (d *MySQLDialect) Hour(col string) string { return "HOUR(" + col + ")" }

// Minute returns MINUTE(col).
func (d *MySQLDialect) Minute(col string) string { return "MINUTE(" + col + ")" }

// Second returns SECOND(col).
func (d *MySQLDialect) Second(col string) string { return "SECOND(" + col + ")" }
