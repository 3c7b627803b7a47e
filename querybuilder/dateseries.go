package querybuilder

import (
	"fmt"
	"math"
	"time"

	"github.com/aidenappl/tracequery/structs"
	"github.com/aidenappl/tracequery/tables"
)

// MaxSeriesBuckets is the default cap on the length of a generated date series
const MaxSeriesBuckets = 10000

const (
	seriesName = "date_series"
	seriesDate = `date_series."date"`
)

// DateSeries is a generated time axis the base table is left joined onto,
// so that buckets without rows still appear in the result.
type DateSeries struct {
	Column tables.ColumnDefinition
	Unit   structs.TemporalUnit
	Min    time.Time
	Max    time.Time

	// CTE is the full WITH clause
	CTE string
	// Join is the LEFT JOIN clause, up to and including its ON predicate
	Join string
}

// BuildDateSeries returns the series for a datetime group by bounded by a
// lower and an upper datetime filter on the same column. When the group by
// or either bound is missing it returns nil and the query reads the base
// table directly; empty buckets are then absent from the result.
//
// The bounds are the first lower-bound and the first upper-bound datetime
// filters in list order, whatever their column. A range on the group by
// column preceded by a bound on another datetime column is therefore a
// mismatched range; callers put the series range first.
func BuildDateSeries(
	table tables.TableDefinition,
	filters []structs.FilterCondition,
	groupBy []structs.GroupBySpec,
	d Dialect,
	maxBuckets int,
) (*DateSeries, error) {
	var group *structs.GroupBySpec
	for i := range groupBy {
		if groupBy[i].Type != structs.TypeDatetime {
			continue
		}
		if group != nil {
			return nil, ErrUnsupportedQuery.New("only one datetime group by is supported")
		}
		group = &groupBy[i]
	}

	var lower, upper *structs.FilterCondition
	for i := range filters {
		f := &filters[i]
		if f.Type != structs.TypeDatetime {
			continue
		}
		if lower == nil && f.Operator.IsLowerBound() {
			lower = f
		}
		if upper == nil && f.Operator.IsUpperBound() {
			upper = f
		}
	}

	if group == nil || lower == nil || upper == nil {
		return nil, nil
	}

	if lower.Column != upper.Column || lower.Column != group.Column {
		return nil, ErrMismatchedRange.New(lower.Column, upper.Column, group.Column)
	}

	col, err := table.Column(group.Column)
	if err != nil {
		return nil, err
	}

	if _, ok := Interval(group.TemporalUnit); !ok {
		return nil, ErrUnsupportedQuery.New(fmt.Sprintf("temporal unit %q", group.TemporalUnit))
	}

	min, minOK := lower.Value.(time.Time)
	max, maxOK := upper.Value.(time.Time)
	if !minOK || !maxOK {
		return nil, ErrUnsupportedQuery.New("date range bounds must be single timestamps")
	}
	if max.Before(min) {
		return nil, ErrUnsupportedQuery.New("date range ends before it starts")
	}

	if maxBuckets > 0 {
		if n := bucketCount(group.TemporalUnit, min, max); n > int64(maxBuckets) {
			return nil, ErrTooManyBuckets.New(n, maxBuckets)
		}
	}

	return &DateSeries{
		Column: col,
		Unit:   group.TemporalUnit,
		Min:    min,
		Max:    max,
		CTE:    fmt.Sprintf("WITH %s AS (%s)", seriesName, d.DateSeries(group.TemporalUnit, min, max)),
		Join: fmt.Sprintf(
			"%s ON %s = %s",
			d.JoinSource(table.Table),
			d.DateTrunc(group.TemporalUnit, col.Internal),
			d.DateTrunc(group.TemporalUnit, seriesDate),
		),
	}, nil
}

// bucketCount is the number of unit steps from min to max inclusive
func bucketCount(unit structs.TemporalUnit, min, max time.Time) int64 {
	switch unit {
	case structs.UnitYear:
		return int64(max.Year()-min.Year()) + 1
	case structs.UnitMonth:
		return int64(max.Year()-min.Year())*12 + int64(max.Month()-min.Month()) + 1
	}

	step, ok := unitDuration[unit]
	if !ok {
		return 0
	}
	// Sub saturates at the largest Duration, so the true count is unknown
	d := max.Sub(min)
	if d == math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(d/step) + 1
}

var unitDuration = map[structs.TemporalUnit]time.Duration{
	structs.UnitWeek:        7 * 24 * time.Hour,
	structs.UnitDay:         24 * time.Hour,
	structs.UnitHour:        time.Hour,
	structs.UnitMinute:      time.Minute,
	structs.UnitSecond:      time.Second,
	structs.UnitMillisecond: time.Millisecond,
	structs.UnitMicrosecond: time.Microsecond,
	structs.UnitNanosecond:  time.Nanosecond,
}
