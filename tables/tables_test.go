package tables

import (
	"testing"

	"github.com/aidenappl/tracequery/structs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistries_CoverEveryTable(t *testing.T) {
	for _, r := range []*Registry{Postgres(), ClickHouse()} {
		defs := r.Tables()
		require.Len(t, defs, len(structs.TableNames))

		for i, def := range defs {
			assert.Equal(t, structs.TableNames[i], def.Name)

			tenant, err := def.Column(TenantColumn)
			require.NoError(t, err)
			assert.Equal(t, structs.TypeString, tenant.Type)
		}
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := Postgres()

	col, err := r.Lookup(structs.TableObservations, "totalTokens")
	require.NoError(t, err)
	assert.Equal(t, structs.TypeNumber, col.Type)
	assert.Equal(t, `o."total_tokens"`, col.Internal)

	_, err = r.Lookup(structs.TableObservations, "TotalTokens")
	assert.True(t, ErrColumnNotFound.Is(err), "lookups are case-sensitive")

	_, err = r.Lookup("users", "id")
	assert.True(t, ErrTableNotFound.Is(err))
}

func TestNewRegistry_Rejects(t *testing.T) {
	tenant := str(TenantColumn, `t."project_id"`)

	tests := []struct {
		name string
		defs []TableDefinition
	}{
		{"unknown table", []TableDefinition{{Name: "users", Table: "users", Columns: []ColumnDefinition{tenant}}}},
		{"duplicate table", []TableDefinition{
			{Name: structs.TableTraces, Table: "traces t", Columns: []ColumnDefinition{tenant}},
			{Name: structs.TableTraces, Table: "traces t", Columns: []ColumnDefinition{tenant}},
		}},
		{"duplicate column", []TableDefinition{
			{Name: structs.TableTraces, Table: "traces t", Columns: []ColumnDefinition{tenant, tenant}},
		}},
		{"empty expression", []TableDefinition{
			{Name: structs.TableTraces, Table: "traces t", Columns: []ColumnDefinition{tenant, str("id", "")}},
		}},
		{"missing project column", []TableDefinition{
			{Name: structs.TableTraces, Table: "traces t", Columns: []ColumnDefinition{str("id", `t."id"`)}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.defs...)
			assert.Error(t, err)
		})
	}
}

func TestRegistry_MissingDefinition(t *testing.T) {
	r, err := NewRegistry(TableDefinition{
		Name:    structs.TableTraces,
		Table:   "traces t",
		Columns: []ColumnDefinition{str(TenantColumn, `t."project_id"`)},
	})
	require.NoError(t, err)

	_, err = r.Table(structs.TableObservations)
	assert.True(t, ErrTableNotFound.Is(err))
	assert.Len(t, r.Tables(), 1)
}

func TestForDialect(t *testing.T) {
	r, err := ForDialect("clickhouse")
	require.NoError(t, err)
	assert.Same(t, ClickHouse(), r)

	r, err = ForDialect("")
	require.NoError(t, err)
	assert.Same(t, Postgres(), r)

	_, err = ForDialect("sqlite")
	assert.Error(t, err)
}
