package structs

import (
	"encoding/json"
	"fmt"
	"time"
)

// TableName identifies one of the logical views a query can target
type TableName string

const (
	TableTraces                        TableName = "traces"
	TableObservations                  TableName = "observations"
	TableTracesObservations            TableName = "traces_observations"
	TableTracesScores                  TableName = "traces_scores"
	TableTracesParentObservationScores TableName = "traces_parent_observation_scores"
)

// TableNames lists every logical view in a stable order
var TableNames = []TableName{
	TableTraces,
	TableObservations,
	TableTracesObservations,
	TableTracesScores,
	TableTracesParentObservationScores,
}

// ColumnType is the semantic type of a column
type ColumnType string

const (
	TypeString   ColumnType = "string"
	TypeNumber   ColumnType = "number"
	TypeDatetime ColumnType = "datetime"
)

// TemporalUnit is the bucket granularity of a datetime group by
type TemporalUnit string

const (
	UnitYear        TemporalUnit = "year"
	UnitMonth       TemporalUnit = "month"
	UnitWeek        TemporalUnit = "week"
	UnitDay         TemporalUnit = "day"
	UnitHour        TemporalUnit = "hour"
	UnitMinute      TemporalUnit = "minute"
	UnitSecond      TemporalUnit = "second"
	UnitMillisecond TemporalUnit = "millisecond"
	UnitMicrosecond TemporalUnit = "microsecond"
	UnitNanosecond  TemporalUnit = "nanosecond"
)

// Aggregation is the aggregate applied to a selected column.
// The zero value selects the raw column.
type Aggregation string

const (
	AggNone  Aggregation = ""
	AggSum   Aggregation = "SUM"
	AggAvg   Aggregation = "AVG"
	AggCount Aggregation = "COUNT"
	AggMax   Aggregation = "MAX"
	AggMin   Aggregation = "MIN"
)

// FilterOperator is the comparison a filter applies
type FilterOperator string

const (
	OpEq   FilterOperator = "="
	OpNeq  FilterOperator = "!="
	OpGt   FilterOperator = ">"
	OpGte  FilterOperator = ">="
	OpLt   FilterOperator = "<"
	OpLte  FilterOperator = "<="
	OpIn   FilterOperator = "in"
	OpLike FilterOperator = "like"
)

// IsLowerBound reports whether the operator bounds a range from below
func (o FilterOperator) IsLowerBound() bool {
	return o == OpGt || o == OpGte
}

// IsUpperBound reports whether the operator bounds a range from above
func (o FilterOperator) IsUpperBound() bool {
	return o == OpLt || o == OpLte
}

// SortDirection orders a result column
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// FilterCondition restricts the rows a query reads.
// Value holds a string, float64 or time.Time depending on Type, or a slice of
// strings or times for operator "in".
type FilterCondition struct {
	Type     ColumnType     `json:"type"`
	Column   string         `json:"column"`
	Operator FilterOperator `json:"operator"`
	Value    any            `json:"value"`
}

// StringFilter builds a string-typed filter
func StringFilter(column string, op FilterOperator, value string) FilterCondition {
	return FilterCondition{Type: TypeString, Column: column, Operator: op, Value: value}
}

// StringInFilter builds a string-typed "in" filter
func StringInFilter(column string, values ...string) FilterCondition {
	return FilterCondition{Type: TypeString, Column: column, Operator: OpIn, Value: values}
}

// NumberFilter builds a number-typed filter
func NumberFilter(column string, op FilterOperator, value float64) FilterCondition {
	return FilterCondition{Type: TypeNumber, Column: column, Operator: op, Value: value}
}

// DatetimeFilter builds a datetime-typed filter
func DatetimeFilter(column string, op FilterOperator, value time.Time) FilterCondition {
	return FilterCondition{Type: TypeDatetime, Column: column, Operator: op, Value: value}
}

// UnmarshalJSON decodes value according to the filter's type tag
func (f *FilterCondition) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     ColumnType      `json:"type"`
		Column   string          `json:"column"`
		Operator FilterOperator  `json:"operator"`
		Value    json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	f.Type = raw.Type
	f.Column = raw.Column
	f.Operator = raw.Operator
	f.Value = nil

	if len(raw.Value) == 0 || string(raw.Value) == "null" {
		return nil
	}

	switch raw.Type {
	case TypeString:
		if raw.Operator == OpIn {
			var values []string
			if err := json.Unmarshal(raw.Value, &values); err != nil {
				return fmt.Errorf("filter %q: in operator requires an array of strings", raw.Column)
			}
			f.Value = values
			return nil
		}
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return fmt.Errorf("filter %q: value must be a string", raw.Column)
		}
		f.Value = s
	case TypeNumber:
		var n float64
		if err := json.Unmarshal(raw.Value, &n); err != nil {
			return fmt.Errorf("filter %q: value must be a number", raw.Column)
		}
		f.Value = n
	case TypeDatetime:
		if raw.Operator == OpIn {
			var values []time.Time
			if err := json.Unmarshal(raw.Value, &values); err != nil {
				return fmt.Errorf("filter %q: in operator requires an array of timestamps", raw.Column)
			}
			f.Value = values
			return nil
		}
		var t time.Time
		if err := json.Unmarshal(raw.Value, &t); err != nil {
			return fmt.Errorf("filter %q: value must be an RFC 3339 timestamp", raw.Column)
		}
		f.Value = t
	default:
		return fmt.Errorf("filter %q: unsupported type %q", raw.Column, raw.Type)
	}
	return nil
}

// GroupBySpec groups rows by a column. TemporalUnit is only set for datetime columns.
type GroupBySpec struct {
	Type         ColumnType   `json:"type"`
	Column       string       `json:"column"`
	TemporalUnit TemporalUnit `json:"temporalUnit,omitempty"`
}

// SelectSpec projects a column, optionally aggregated
type SelectSpec struct {
	Column string      `json:"column"`
	Agg    Aggregation `json:"agg"`
}

// OrderBySpec orders the result by a column or an aggregated alias
type OrderBySpec struct {
	Column    string        `json:"column"`
	Direction SortDirection `json:"direction,omitempty"`
}

// QueryRequest is the declarative query a dashboard widget sends
type QueryRequest struct {
	From    TableName         `json:"from"`
	Filter  []FilterCondition `json:"filter"`
	GroupBy []GroupBySpec     `json:"groupBy"`
	Select  []SelectSpec      `json:"select"`
	OrderBy []OrderBySpec     `json:"orderBy,omitempty"`
	Limit   int               `json:"limit,omitempty"`
}

// BatchQueryRequest carries several queries for the same project
type BatchQueryRequest struct {
	Queries []QueryRequest `json:"queries"`
}

// DatabaseRow maps an output column name to a string, float64, time.Time or nil
type DatabaseRow map[string]any
