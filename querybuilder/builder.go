// Package querybuilder compiles a declarative QueryRequest into one SQL
// string against a table registry.
//
// Compilation is pure: the same request, project and configuration always
// produce the same SQL, and every error is raised before anything reaches the
// store.
package querybuilder

import (
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/aidenappl/tracequery/structs"
	"github.com/aidenappl/tracequery/tables"
)

// Builder compiles requests for one dialect. It holds no mutable state and is
// safe for concurrent use.
type Builder struct {
	registry   *tables.Registry
	dialect    Dialect
	maxBuckets int
}

// Option configures a Builder
type Option func(*Builder)

// WithMaxBuckets caps the length of generated date series. Zero disables the cap.
func WithMaxBuckets(n int) Option {
	return func(b *Builder) {
		b.maxBuckets = n
	}
}

// New creates a builder over registry rendering for dialect
func New(registry *tables.Registry, dialect Dialect, opts ...Option) *Builder {
	b := &Builder{
		registry:   registry,
		dialect:    dialect,
		maxBuckets: MaxSeriesBuckets,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Dialect returns the dialect the builder renders for
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// Registry returns the builder's table registry
func (b *Builder) Registry() *tables.Registry {
	return b.registry
}

// Assemble compiles req into a single SQL statement scoped to projectID.
//
// The project predicate is always the last filter. Requests that filter on
// the project column themselves are rejected so the scope cannot be
// overridden.
func (b *Builder) Assemble(req *structs.QueryRequest, projectID string) (string, error) {
	if projectID == "" {
		return "", ErrMissingTenant.New()
	}

	table, err := b.registry.Table(req.From)
	if err != nil {
		return "", err
	}

	filters := make([]structs.FilterCondition, 0, len(req.Filter)+1)
	for _, f := range req.Filter {
		if f.Column == tables.TenantColumn {
			return "", ErrDuplicateTenantFilter.New(tables.TenantColumn)
		}
		filters = append(filters, f)
	}
	filters = append(filters, structs.StringFilter(tables.TenantColumn, structs.OpEq, projectID))

	series, err := BuildDateSeries(table, filters, req.GroupBy, b.dialect, b.maxBuckets)
	if err != nil {
		return "", err
	}

	columns, err := CompileSelect(req.Select, table, series)
	if err != nil {
		return "", err
	}

	groupBy, err := CompileGroupBy(req.GroupBy, table, series)
	if err != nil {
		return "", err
	}

	if len(columns) == 0 {
		columns = groupBy
	}
	if len(columns) == 0 {
		columns = []string{"*"}
	}

	where, err := CompileFilters(filters, table, b.dialect)
	if err != nil {
		return "", err
	}

	orderBy, err := compileOrderBy(req.OrderBy, req.Select, table, series)
	if err != nil {
		return "", err
	}

	q := squirrel.Select(columns...)
	if series != nil {
		// Filters extend the join predicate so they cannot drop empty buckets.
		q = q.Prefix(series.CTE).
			From(seriesName).
			LeftJoin(series.Join + " AND " + where)
	} else {
		q = q.From(table.Table).Where(where)
	}
	if len(groupBy) > 0 {
		q = q.GroupBy(groupBy...)
	}
	if len(orderBy) > 0 {
		q = q.OrderBy(orderBy...)
	}
	if req.Limit > 0 {
		q = q.Limit(uint64(req.Limit))
	}
	if series != nil {
		if settings := b.dialect.SeriesSettings(); settings != "" {
			q = q.Suffix(settings)
		}
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to render query: %w", err)
	}
	if len(args) > 0 {
		return "", fmt.Errorf("failed to render query: unexpected bind arguments")
	}

	return sql + ";", nil
}
