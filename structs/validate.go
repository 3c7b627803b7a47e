package structs

import (
	"fmt"
	"time"

	errors "gopkg.in/src-d/go-errors.v1"
)

// ErrInvalidRequest is returned when a query request fails schema validation
var ErrInvalidRequest = errors.NewKind("invalid query request: %s")

// MaxLimit caps the row limit a request may ask for
const MaxLimit = 10000

var validTables = map[TableName]bool{}

func init() {
	for _, t := range TableNames {
		validTables[t] = true
	}
}

var validUnits = map[TemporalUnit]bool{
	UnitYear:        true,
	UnitMonth:       true,
	UnitWeek:        true,
	UnitDay:         true,
	UnitHour:        true,
	UnitMinute:      true,
	UnitSecond:      true,
	UnitMillisecond: true,
	UnitMicrosecond: true,
	UnitNanosecond:  true,
}

var validAggregations = map[Aggregation]bool{
	AggNone:  true,
	AggSum:   true,
	AggAvg:   true,
	AggCount: true,
	AggMax:   true,
	AggMin:   true,
}

// validOperators defines the operators each column type accepts
var validOperators = map[ColumnType]map[FilterOperator]bool{
	TypeString: {
		OpEq: true, OpNeq: true, OpIn: true, OpLike: true,
	},
	TypeNumber: {
		OpEq: true, OpNeq: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true,
	},
	TypeDatetime: {
		OpEq: true, OpNeq: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true, OpIn: true, OpLike: true,
	},
}

// IsValid reports whether t is a known logical table
func (t TableName) IsValid() bool {
	return validTables[t]
}

// IsValid reports whether u is a known temporal unit
func (u TemporalUnit) IsValid() bool {
	return validUnits[u]
}

// Validate checks the request against the query schema. It does not check
// that columns exist; that is the query builder's job.
func (q *QueryRequest) Validate() error {
	if q.From == "" {
		return ErrInvalidRequest.New("from is required")
	}
	if !q.From.IsValid() {
		return ErrInvalidRequest.New(fmt.Sprintf("unknown table %q", q.From))
	}

	for i, f := range q.Filter {
		if err := f.validate(); err != nil {
			return ErrInvalidRequest.New(fmt.Sprintf("filter[%d]: %s", i, err))
		}
	}

	for i, g := range q.GroupBy {
		if g.Column == "" {
			return ErrInvalidRequest.New(fmt.Sprintf("groupBy[%d]: column is required", i))
		}
		switch g.Type {
		case TypeDatetime:
			if !g.TemporalUnit.IsValid() {
				return ErrInvalidRequest.New(fmt.Sprintf("groupBy[%d]: invalid temporalUnit %q", i, g.TemporalUnit))
			}
		case TypeString, TypeNumber:
		default:
			return ErrInvalidRequest.New(fmt.Sprintf("groupBy[%d]: invalid type %q", i, g.Type))
		}
	}

	for i, s := range q.Select {
		if s.Column == "" {
			return ErrInvalidRequest.New(fmt.Sprintf("select[%d]: column is required", i))
		}
		if !validAggregations[s.Agg] {
			return ErrInvalidRequest.New(fmt.Sprintf("select[%d]: invalid aggregation %q", i, s.Agg))
		}
	}

	for i, o := range q.OrderBy {
		if o.Column == "" {
			return ErrInvalidRequest.New(fmt.Sprintf("orderBy[%d]: column is required", i))
		}
		if o.Direction != "" && o.Direction != SortAsc && o.Direction != SortDesc {
			return ErrInvalidRequest.New(fmt.Sprintf("orderBy[%d]: invalid direction %q", i, o.Direction))
		}
	}

	if q.Limit < 0 || q.Limit > MaxLimit {
		return ErrInvalidRequest.New(fmt.Sprintf("limit must be between 0 and %d", MaxLimit))
	}

	return nil
}

func (f FilterCondition) validate() error {
	if f.Column == "" {
		return fmt.Errorf("column is required")
	}
	ops, ok := validOperators[f.Type]
	if !ok {
		return fmt.Errorf("invalid type %q", f.Type)
	}
	if !ops[f.Operator] {
		return fmt.Errorf("operator %q not allowed for %s columns", f.Operator, f.Type)
	}

	switch v := f.Value.(type) {
	case string:
		if f.Type != TypeString || f.Operator == OpIn {
			return fmt.Errorf("value does not match type %s", f.Type)
		}
	case []string:
		if f.Type != TypeString || f.Operator != OpIn || len(v) == 0 {
			return fmt.Errorf("in operator requires a non-empty list")
		}
	case float64:
		if f.Type != TypeNumber {
			return fmt.Errorf("value does not match type %s", f.Type)
		}
	case time.Time:
		if f.Type != TypeDatetime || f.Operator == OpIn {
			return fmt.Errorf("value does not match type %s", f.Type)
		}
	case []time.Time:
		if f.Type != TypeDatetime || f.Operator != OpIn || len(v) == 0 {
			return fmt.Errorf("in operator requires a non-empty list")
		}
	case nil:
		return fmt.Errorf("value is required")
	default:
		return fmt.Errorf("unsupported value type %T", f.Value)
	}
	return nil
}
