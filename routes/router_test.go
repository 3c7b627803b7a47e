package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aidenappl/tracequery/env"
	"github.com/aidenappl/tracequery/middleware"
	"github.com/aidenappl/tracequery/querybuilder"
	"github.com/aidenappl/tracequery/services"
	"github.com/aidenappl/tracequery/tables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExecutor struct {
	rows []map[string]any
	err  error
}

func (s stubExecutor) Query(context.Context, string) ([]map[string]any, error) {
	return s.rows, s.err
}

func (stubExecutor) Close() error { return nil }

func setup(t *testing.T, exec stubExecutor, apiKey string) http.Handler {
	t.Helper()

	prevQueries, prevKey := Queries, env.APIKey
	t.Cleanup(func() {
		Queries, env.APIKey = prevQueries, prevKey
	})

	env.APIKey = apiKey
	b := querybuilder.New(tables.Postgres(), querybuilder.Postgres)
	Queries = services.NewQueryService(b, exec, time.Second, 2)
	return NewRouter(nil)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Cause string          `json:"cause"`
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

const countByName = `{"from":"traces","filter":[],"groupBy":[{"type":"string","column":"name"}],"select":[{"column":"name"},{"column":"id","agg":"COUNT"}]}`

func TestHealth(t *testing.T) {
	h := setup(t, stubExecutor{}, "")

	rec, body := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(body.Data))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestQueryHandler(t *testing.T) {
	h := setup(t, stubExecutor{rows: []map[string]any{{"name": "chat", "countId": int64(2)}}}, "")

	rec, body := do(t, h, http.MethodPost, "/v1/projects/p1/query", countByName)
	require.Equal(t, http.StatusOK, rec.Code, body.Error)
	assert.JSONEq(t, `[{"name":"chat","countId":2}]`, string(body.Data))
}

func TestQueryHandler_EmptyResultIsArray(t *testing.T) {
	h := setup(t, stubExecutor{}, "")

	rec, body := do(t, h, http.MethodPost, "/v1/projects/p1/query", countByName)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(body.Data))
}

func TestQueryHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		exec   stubExecutor
		body   string
		status int
	}{
		{"empty body", stubExecutor{}, "", http.StatusBadRequest},
		{"malformed json", stubExecutor{}, "{", http.StatusBadRequest},
		{"unknown column", stubExecutor{}, `{"from":"traces","select":[{"column":"nope"}]}`, http.StatusBadRequest},
		{"invalid operator", stubExecutor{}, `{"from":"traces","filter":[{"type":"number","column":"x","operator":"like","value":1}]}`, http.StatusBadRequest},
		{"store failure", stubExecutor{err: errors.New("connection reset")}, countByName, http.StatusInternalServerError},
		{"store timeout", stubExecutor{err: context.DeadlineExceeded}, countByName, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setup(t, tt.exec, "")

			rec, body := do(t, h, http.MethodPost, "/v1/projects/p1/query", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestBatchQueryHandler(t *testing.T) {
	h := setup(t, stubExecutor{rows: []map[string]any{{"countId": int64(1)}}}, "")

	rec, body := do(t, h, http.MethodPost, "/v1/projects/p1/query/batch", `{"queries":[`+countByName+`,`+countByName+`]}`)
	require.Equal(t, http.StatusOK, rec.Code, body.Error)
	assert.JSONEq(t, `[[{"countId":1}],[{"countId":1}]]`, string(body.Data))

	rec, _ = do(t, h, http.MethodPost, "/v1/projects/p1/query/batch", `{"queries":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompileHandler(t *testing.T) {
	h := setup(t, stubExecutor{err: errors.New("must not execute")}, "")

	rec, body := do(t, h, http.MethodPost, "/v1/projects/p1/query/sql", countByName)
	require.Equal(t, http.StatusOK, rec.Code, body.Error)

	var res CompileResult
	require.NoError(t, json.Unmarshal(body.Data, &res))
	assert.Equal(t, "postgres", res.Dialect)
	assert.Equal(t, `SELECT t."name", COUNT(t."id") AS "countId" FROM traces t WHERE t."project_id" = 'p1' GROUP BY t."name";`, res.SQL)
}

func TestTablesHandler(t *testing.T) {
	h := setup(t, stubExecutor{}, "")

	rec, body := do(t, h, http.MethodGet, "/v1/tables", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []struct {
		Name    string `json:"name"`
		Columns []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &out))
	require.Len(t, out, 5)
	assert.Equal(t, "traces", out[0].Name)
	assert.NotContains(t, string(body.Data), "project_id", "internal expressions are not exposed")
}

func TestAuth(t *testing.T) {
	h := setup(t, stubExecutor{}, "secret")

	rec, _ := do(t, h, http.MethodGet, "/v1/tables", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/v1/tables", "", "X-Api-Key", "secret")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code, "health is not authenticated")
}

func TestRateLimit(t *testing.T) {
	setup(t, stubExecutor{}, "")
	h := NewRouter(middleware.NewRateLimiter(1, 1))

	rec, _ := do(t, h, http.MethodGet, "/v1/tables", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/v1/tables", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}
