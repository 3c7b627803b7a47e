package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aidenappl/tracequery/structs"
)

// Dialect renders the store-specific parts of a query. Every value literal
// the builder emits goes through one of these methods.
type Dialect interface {
	Name() string

	// String quotes a string literal
	String(s string) string
	// Number renders a numeric literal
	Number(f float64) string
	// Timestamp renders a point in time as an ISO-8601 literal
	Timestamp(t time.Time) string

	// DateTrunc truncates expr to the start of its unit bucket
	DateTrunc(unit structs.TemporalUnit, expr string) string
	// DateSeries is the body of the date_series CTE: one "date" row per
	// unit step from min to max inclusive
	DateSeries(unit structs.TemporalUnit, min, max time.Time) string
	// JoinSource renders a table definition as the right side of a LEFT JOIN
	JoinSource(table string) string
	// SeriesSettings is appended to a statement that joins onto a date
	// series, or "" when the store needs none
	SeriesSettings() string
}

// intervals maps each temporal unit to its generate_series step
var intervals = map[structs.TemporalUnit]string{
	structs.UnitYear:        "1 year",
	structs.UnitMonth:       "1 month",
	structs.UnitWeek:        "1 week",
	structs.UnitDay:         "1 day",
	structs.UnitHour:        "1 hour",
	structs.UnitMinute:      "1 minute",
	structs.UnitSecond:      "1 second",
	structs.UnitMillisecond: "1 millisecond",
	structs.UnitMicrosecond: "1 microsecond",
	structs.UnitNanosecond:  "1 nanosecond",
}

// Interval returns the series step for a unit
func Interval(unit structs.TemporalUnit) (string, bool) {
	i, ok := intervals[unit]
	return i, ok
}

func isoTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var (
	// Postgres renders for the relational store
	Postgres Dialect = postgres{}

	// ClickHouse renders for the analytical store
	ClickHouse Dialect = clickhouse{}
)

// DialectFor returns the dialect registered under name
func DialectFor(name string) (Dialect, error) {
	switch name {
	case "postgres", "":
		return Postgres, nil
	case "clickhouse":
		return ClickHouse, nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", name)
	}
}

type postgres struct{}

func (postgres) Name() string { return "postgres" }

func (postgres) String(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Number quotes the value like any other literal; Postgres coerces the
// unknown-typed literal to the column's type.
func (p postgres) Number(f float64) string {
	return p.String(formatNumber(f))
}

func (p postgres) Timestamp(t time.Time) string {
	return p.String(isoTimestamp(t))
}

func (p postgres) DateTrunc(unit structs.TemporalUnit, expr string) string {
	return fmt.Sprintf("DATE_TRUNC(%s, %s)", p.String(string(unit)), expr)
}

func (p postgres) DateSeries(unit structs.TemporalUnit, min, max time.Time) string {
	return fmt.Sprintf(
		`SELECT generate_series(%s::timestamp, %s::timestamp, %s::interval) AS "date"`,
		p.Timestamp(min), p.Timestamp(max), p.String(intervals[unit]),
	)
}

// JoinSource parenthesizes multi-table views so the series join binds to the
// whole join tree rather than its first table.
func (postgres) JoinSource(table string) string {
	if strings.Contains(table, " JOIN ") && !strings.HasPrefix(table, "(") {
		return "(" + table + ")"
	}
	return table
}

func (postgres) SeriesSettings() string { return "" }

type clickhouse struct{}

func (clickhouse) Name() string { return "clickhouse" }

func (clickhouse) String(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

func (clickhouse) Number(f float64) string {
	return formatNumber(f)
}

func (c clickhouse) Timestamp(t time.Time) string {
	return fmt.Sprintf("parseDateTime64BestEffort(%s, 9)", c.String(isoTimestamp(t)))
}

var clickhouseTrunc = map[structs.TemporalUnit]string{
	structs.UnitYear:        "toStartOfYear(%s)",
	structs.UnitMonth:       "toStartOfMonth(%s)",
	structs.UnitWeek:        "toMonday(%s)",
	structs.UnitDay:         "toStartOfDay(%s)",
	structs.UnitHour:        "toStartOfHour(%s)",
	structs.UnitMinute:      "toStartOfMinute(%s)",
	structs.UnitSecond:      "toStartOfSecond(%s)",
	structs.UnitMillisecond: "toStartOfMillisecond(%s)",
	structs.UnitMicrosecond: "toStartOfMicrosecond(%s)",
	structs.UnitNanosecond:  "toStartOfNanosecond(%s)",
}

var clickhouseIntervalFunc = map[structs.TemporalUnit]string{
	structs.UnitYear:        "toIntervalYear",
	structs.UnitMonth:       "toIntervalMonth",
	structs.UnitWeek:        "toIntervalWeek",
	structs.UnitDay:         "toIntervalDay",
	structs.UnitHour:        "toIntervalHour",
	structs.UnitMinute:      "toIntervalMinute",
	structs.UnitSecond:      "toIntervalSecond",
	structs.UnitMillisecond: "toIntervalMillisecond",
	structs.UnitMicrosecond: "toIntervalMicrosecond",
	structs.UnitNanosecond:  "toIntervalNanosecond",
}

func (clickhouse) DateTrunc(unit structs.TemporalUnit, expr string) string {
	return fmt.Sprintf(clickhouseTrunc[unit], expr)
}

// DateSeries counts unit boundaries between the bounds with date_diff and
// steps from min over numbers(); steps past max are dropped.
func (c clickhouse) DateSeries(unit structs.TemporalUnit, min, max time.Time) string {
	lo, hi := c.Timestamp(min), c.Timestamp(max)
	return fmt.Sprintf(
		`SELECT %s + %s(number) AS "date" FROM numbers(toUInt64(date_diff(%s, %s, %s) + 1)) WHERE "date" <= %s`,
		lo, clickhouseIntervalFunc[unit], c.String(string(unit)), lo, hi, hi,
	)
}

func (clickhouse) JoinSource(table string) string {
	return table
}

// SeriesSettings makes unmatched join rows NULL instead of column defaults,
// so empty buckets count zero and average to NULL.
func (clickhouse) SeriesSettings() string {
	return "SETTINGS join_use_nulls = 1"
}
