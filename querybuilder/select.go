package querybuilder

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aidenappl/tracequery/structs"
	"github.com/aidenappl/tracequery/tables"
)

// AggregateAlias names an aggregated output column: the lower-cased
// aggregation followed by the column name with its first letter upper-cased,
// e.g. SUM of totalTokens is "sumTotalTokens".
func AggregateAlias(agg structs.Aggregation, column string) string {
	if column == "" {
		return strings.ToLower(string(agg))
	}
	r, size := utf8.DecodeRuneInString(column)
	return strings.ToLower(string(agg)) + string(unicode.ToUpper(r)) + column[size:]
}

func quoteAlias(alias string) string {
	return `"` + strings.ReplaceAll(alias, `"`, `""`) + `"`
}

// CompileSelect builds the SELECT field list. Aggregated fields are aliased
// per AggregateAlias; raw fields pass their SQL expression through unaliased.
// With a date series the series date comes first, aliased to the group by
// column's public name.
func CompileSelect(sel []structs.SelectSpec, table tables.TableDefinition, series *DateSeries) ([]string, error) {
	fields := make([]string, 0, len(sel)+1)

	if series != nil {
		fields = append(fields, fmt.Sprintf("%s AS %s", seriesDate, quoteAlias(series.Column.Name)))
	}

	for _, s := range sel {
		col, err := table.Column(s.Column)
		if err != nil {
			return nil, err
		}
		if s.Agg == structs.AggNone {
			fields = append(fields, col.Internal)
			continue
		}
		fields = append(fields, fmt.Sprintf("%s(%s) AS %s", s.Agg, col.Internal, quoteAlias(AggregateAlias(s.Agg, col.Name))))
	}

	return fields, nil
}

// CompileGroupBy builds the GROUP BY list. With a date series the series date
// replaces the datetime column and comes first; every other column groups by
// its SQL expression.
func CompileGroupBy(groupBy []structs.GroupBySpec, table tables.TableDefinition, series *DateSeries) ([]string, error) {
	fields := make([]string, 0, len(groupBy))

	if series != nil {
		fields = append(fields, seriesDate)
	}

	for _, g := range groupBy {
		col, err := table.Column(g.Column)
		if err != nil {
			return nil, err
		}
		if series != nil && g.Type == structs.TypeDatetime {
			continue
		}
		fields = append(fields, col.Internal)
	}

	return fields, nil
}

// compileOrderBy builds the ORDER BY list. A column may be referenced either
// by an aggregated output alias from the select list or by its public name.
func compileOrderBy(orderBy []structs.OrderBySpec, sel []structs.SelectSpec, table tables.TableDefinition, series *DateSeries) ([]string, error) {
	fields := make([]string, 0, len(orderBy)+1)

	if series != nil {
		fields = append(fields, seriesDate+" ASC")
	}

	aliases := make(map[string]bool, len(sel))
	for _, s := range sel {
		if s.Agg != structs.AggNone {
			aliases[AggregateAlias(s.Agg, s.Column)] = true
		}
	}

	for _, o := range orderBy {
		dir := o.Direction
		if dir == "" {
			dir = structs.SortAsc
		}

		if aliases[o.Column] {
			fields = append(fields, fmt.Sprintf("%s %s", quoteAlias(o.Column), dir))
			continue
		}

		col, err := table.Column(o.Column)
		if err != nil {
			return nil, err
		}
		fields = append(fields, fmt.Sprintf("%s %s", col.Internal, dir))
	}

	return fields, nil
}
