package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aidenappl/tracequery/querybuilder"
	"github.com/aidenappl/tracequery/responder"
	"github.com/aidenappl/tracequery/services"
	"github.com/aidenappl/tracequery/structs"
	"github.com/gorilla/mux"
)

// maxRequestBodySize limits request body to 1MB
const maxRequestBodySize = 1 << 20

// Queries serves every query route; set by main before the router starts
var Queries *services.QueryService

// decodeBody reads a JSON request body into v, writing the error response itself
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if err == io.EOF {
			responder.Error(w, http.StatusBadRequest, "request body is required")
			return false
		}
		responder.Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeQueryError maps compiler and validation errors to 400 and store errors to 5xx
func writeQueryError(w http.ResponseWriter, err error, message string) {
	switch {
	case querybuilder.IsClientError(err):
		responder.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		responder.ErrorWithCause(w, http.StatusGatewayTimeout, message, err)
	default:
		responder.ErrorWithCause(w, http.StatusInternalServerError, message, err)
	}
}

// QueryHandler handles POST /v1/projects/{projectId}/query requests
// Compiles the query, runs it and returns the normalized rows
func QueryHandler(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	var query structs.QueryRequest
	if !decodeBody(w, r, &query) {
		return
	}

	rows, err := Queries.Execute(r.Context(), projectID, &query)
	if err != nil {
		writeQueryError(w, err, "failed to execute query")
		return
	}

	if rows == nil {
		rows = []structs.DatabaseRow{}
	}
	responder.New(w, rows)
}

// BatchQueryHandler handles POST /v1/projects/{projectId}/query/batch requests
// Runs every query of a dashboard in one round-trip
func BatchQueryHandler(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	var batch structs.BatchQueryRequest
	if !decodeBody(w, r, &batch) {
		return
	}

	results, err := Queries.ExecuteBatch(r.Context(), projectID, batch.Queries)
	if err != nil {
		writeQueryError(w, err, "failed to execute batch")
		return
	}

	for i := range results {
		if results[i] == nil {
			results[i] = []structs.DatabaseRow{}
		}
	}
	responder.New(w, results)
}

// CompileResult is the response of the compile route
type CompileResult struct {
	SQL     string `json:"sql"`
	Dialect string `json:"dialect"`
}

// CompileHandler handles POST /v1/projects/{projectId}/query/sql requests
// Returns the compiled SQL without executing it
func CompileHandler(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	var query structs.QueryRequest
	if !decodeBody(w, r, &query) {
		return
	}

	sql, err := Queries.Compile(projectID, &query)
	if err != nil {
		writeQueryError(w, err, "failed to compile query")
		return
	}

	responder.New(w, CompileResult{
		SQL:     sql,
		Dialect: Queries.Builder().Dialect().Name(),
	})
}

// TablesHandler handles GET /v1/tables requests
// Lists the logical tables and the public columns each exposes
func TablesHandler(w http.ResponseWriter, r *http.Request) {
	type column struct {
		Name string             `json:"name"`
		Type structs.ColumnType `json:"type"`
	}
	type table struct {
		Name    structs.TableName `json:"name"`
		Columns []column          `json:"columns"`
	}

	defs := Queries.Builder().Registry().Tables()
	out := make([]table, 0, len(defs))
	for _, def := range defs {
		t := table{Name: def.Name, Columns: make([]column, 0, len(def.Columns))}
		for _, c := range def.Columns {
			t.Columns = append(t.Columns, column{Name: c.Name, Type: c.Type})
		}
		out = append(out, t)
	}

	responder.New(w, out)
}
