package querybuilder

import (
	"fmt"
	"strings"
	"time"

	"github.com/aidenappl/tracequery/structs"
	"github.com/aidenappl/tracequery/tables"
)

// CompileFilters renders filters as predicates joined with AND. An empty list
// compiles to the empty string; the caller decides whether the fragment
// follows WHERE or extends an existing predicate.
//
// Operators are trusted as validated by the request schema.
func CompileFilters(filters []structs.FilterCondition, table tables.TableDefinition, d Dialect) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}

	conditions := make([]string, 0, len(filters))
	for _, f := range filters {
		cond, err := compileFilter(f, table, d)
		if err != nil {
			return "", err
		}
		conditions = append(conditions, cond)
	}

	return strings.Join(conditions, " AND "), nil
}

// compileFilter builds a single filter condition
func compileFilter(f structs.FilterCondition, table tables.TableDefinition, d Dialect) (string, error) {
	col, err := table.Column(f.Column)
	if err != nil {
		return "", err
	}

	lit, err := literal(f.Value, d)
	if err != nil {
		return "", err
	}

	op := string(f.Operator)
	switch f.Operator {
	case structs.OpIn, structs.OpLike:
		op = strings.ToUpper(op)
	}
	if f.Operator == structs.OpIn && !strings.HasPrefix(lit, "(") {
		lit = "(" + lit + ")"
	}

	return fmt.Sprintf("%s %s %s", col.Internal, op, lit), nil
}

// literal renders a filter value through the dialect
func literal(value any, d Dialect) (string, error) {
	switch v := value.(type) {
	case string:
		return d.String(v), nil
	case float64:
		return d.Number(v), nil
	case time.Time:
		return d.Timestamp(v), nil
	case []string:
		parts := make([]string, len(v))
		for i, s := range v {
			parts[i] = d.String(s)
		}
		return "(" + strings.Join(parts, ", ") + ")", nil
	case []time.Time:
		parts := make([]string, len(v))
		for i, t := range v {
			parts[i] = d.Timestamp(t)
		}
		return "(" + strings.Join(parts, ", ") + ")", nil
	default:
		return "", ErrUnsupportedQuery.New(fmt.Sprintf("filter value of type %T", value))
	}
}
