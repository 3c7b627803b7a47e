// Package tables is the column registry: the fixed set of logical views the
// query builder can read from, and the SQL each public column maps to.
//
// Column names in a query are only ever resolved through a registry, never
// interpolated from the request.
package tables

import (
	"fmt"

	"github.com/aidenappl/tracequery/structs"
	errors "gopkg.in/src-d/go-errors.v1"
)

// TenantColumn is the public name of the project column every table exposes
const TenantColumn = "projectId"

var (
	// ErrTableNotFound is returned for a table outside the registry
	ErrTableNotFound = errors.NewKind("table not found: %s")

	// ErrColumnNotFound is returned when a column is not declared on the table
	ErrColumnNotFound = errors.NewKind("column not found: %s on table %s")
)

// ColumnDefinition maps a public column alias to its SQL expression
type ColumnDefinition struct {
	Name     string             `json:"name"`
	Type     structs.ColumnType `json:"type"`
	Internal string             `json:"internal"`
}

// TableDefinition is one logical view: the FROM source and its columns
type TableDefinition struct {
	Name    structs.TableName  `json:"name"`
	Table   string             `json:"table"`
	Columns []ColumnDefinition `json:"columns"`
}

// Column finds a column by its exact, case-sensitive public name
func (t TableDefinition) Column(name string) (ColumnDefinition, error) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, nil
		}
	}
	return ColumnDefinition{}, ErrColumnNotFound.New(name, t.Name)
}

// Registry holds the table definitions for one SQL dialect.
// It is read-only once constructed and safe for concurrent use.
type Registry struct {
	tables map[structs.TableName]TableDefinition
}

// NewRegistry validates the definitions and builds a registry from them
func NewRegistry(defs ...TableDefinition) (*Registry, error) {
	r := &Registry{tables: make(map[structs.TableName]TableDefinition, len(defs))}

	for _, def := range defs {
		if !def.Name.IsValid() {
			return nil, fmt.Errorf("unknown logical table %q", def.Name)
		}
		if _, dup := r.tables[def.Name]; dup {
			return nil, fmt.Errorf("table %q defined twice", def.Name)
		}

		seen := make(map[string]bool, len(def.Columns))
		for _, c := range def.Columns {
			if seen[c.Name] {
				return nil, fmt.Errorf("table %q: column %q defined twice", def.Name, c.Name)
			}
			if c.Internal == "" {
				return nil, fmt.Errorf("table %q: column %q has no SQL expression", def.Name, c.Name)
			}
			seen[c.Name] = true
		}
		if !seen[TenantColumn] {
			return nil, fmt.Errorf("table %q has no %s column", def.Name, TenantColumn)
		}

		r.tables[def.Name] = def
	}

	return r, nil
}

// MustNewRegistry is NewRegistry for definitions known at compile time
func MustNewRegistry(defs ...TableDefinition) *Registry {
	r, err := NewRegistry(defs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Table returns the definition of a logical table
func (r *Registry) Table(name structs.TableName) (TableDefinition, error) {
	switch name {
	case structs.TableTraces,
		structs.TableObservations,
		structs.TableTracesObservations,
		structs.TableTracesScores,
		structs.TableTracesParentObservationScores:
		if def, ok := r.tables[name]; ok {
			return def, nil
		}
	}
	return TableDefinition{}, ErrTableNotFound.New(name)
}

// Lookup resolves a public column name on a table
func (r *Registry) Lookup(table structs.TableName, column string) (ColumnDefinition, error) {
	def, err := r.Table(table)
	if err != nil {
		return ColumnDefinition{}, err
	}
	return def.Column(column)
}

// Tables returns every definition in the registry, in TableNames order
func (r *Registry) Tables() []TableDefinition {
	out := make([]TableDefinition, 0, len(r.tables))
	for _, name := range structs.TableNames {
		if def, ok := r.tables[name]; ok {
			out = append(out, def)
		}
	}
	return out
}
