package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aidenappl/tracequery/querybuilder"
	"github.com/aidenappl/tracequery/structs"
	"github.com/aidenappl/tracequery/tables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	mu      sync.Mutex
	queries []string
	rows    func(sql string) ([]map[string]any, error)
	block   bool
}

func (f *fakeExecutor) Query(ctx context.Context, sql string) ([]map[string]any, error) {
	f.mu.Lock()
	f.queries = append(f.queries, sql)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.rows == nil {
		return nil, nil
	}
	return f.rows(sql)
}

func (f *fakeExecutor) Close() error { return nil }

func newService(exec *fakeExecutor) *QueryService {
	b := querybuilder.New(tables.Postgres(), querybuilder.Postgres)
	return NewQueryService(b, exec, time.Second, 2)
}

func countBy(column string) structs.QueryRequest {
	return structs.QueryRequest{
		From:    structs.TableTraces,
		GroupBy: []structs.GroupBySpec{{Type: structs.TypeString, Column: column}},
		Select:  []structs.SelectSpec{{Column: column}, {Column: "id", Agg: structs.AggCount}},
	}
}

func TestExecute(t *testing.T) {
	exec := &fakeExecutor{rows: func(string) ([]map[string]any, error) {
		return []map[string]any{{"name": "chat", "countId": int64(4)}}, nil
	}}
	svc := newService(exec)

	req := countBy("name")
	rows, err := svc.Execute(context.Background(), "p1", &req)
	require.NoError(t, err)

	assert.Equal(t, []structs.DatabaseRow{{"name": "chat", "countId": float64(4)}}, rows)
	require.Len(t, exec.queries, 1)
	assert.Contains(t, exec.queries[0], `t."project_id" = 'p1'`)
}

func TestExecute_InvalidRequestNeverReachesStore(t *testing.T) {
	exec := &fakeExecutor{}
	svc := newService(exec)

	req := countBy("name")
	req.Select[1].Agg = "MEDIAN"
	_, err := svc.Execute(context.Background(), "p1", &req)
	assert.True(t, structs.ErrInvalidRequest.Is(err))

	req = countBy("nope")
	_, err = svc.Execute(context.Background(), "p1", &req)
	assert.True(t, querybuilder.ErrColumnNotFound.Is(err))

	assert.Empty(t, exec.queries)
}

func TestExecute_StoreErrorPassesThrough(t *testing.T) {
	storeErr := errors.New("relation \"traces\" does not exist")
	svc := newService(&fakeExecutor{rows: func(string) ([]map[string]any, error) {
		return nil, storeErr
	}})

	req := countBy("name")
	_, err := svc.Execute(context.Background(), "p1", &req)
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, querybuilder.IsClientError(err))
}

func TestExecute_Timeout(t *testing.T) {
	exec := &fakeExecutor{block: true}
	b := querybuilder.New(tables.Postgres(), querybuilder.Postgres)
	svc := NewQueryService(b, exec, 10*time.Millisecond, 1)

	req := countBy("name")
	_, err := svc.Execute(context.Background(), "p1", &req)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecuteBatch_PreservesOrder(t *testing.T) {
	exec := &fakeExecutor{rows: func(sql string) ([]map[string]any, error) {
		switch {
		case strings.Contains(sql, `t."name"`):
			time.Sleep(10 * time.Millisecond)
			return []map[string]any{{"name": "chat"}}, nil
		case strings.Contains(sql, `t."user_id"`):
			return []map[string]any{{"userId": "u1"}}, nil
		default:
			return nil, nil
		}
	}}
	svc := newService(exec)

	results, err := svc.ExecuteBatch(context.Background(), "p1", []structs.QueryRequest{
		countBy("name"),
		countBy("userId"),
		countBy("release"),
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "chat", results[0][0]["name"])
	assert.Equal(t, "u1", results[1][0]["userId"])
	assert.Empty(t, results[2])
}

func TestExecuteBatch_Errors(t *testing.T) {
	exec := &fakeExecutor{}
	svc := newService(exec)

	_, err := svc.ExecuteBatch(context.Background(), "p1", nil)
	assert.True(t, structs.ErrInvalidRequest.Is(err))

	_, err = svc.ExecuteBatch(context.Background(), "p1", make([]structs.QueryRequest, MaxBatchSize+1))
	assert.True(t, structs.ErrInvalidRequest.Is(err))

	_, err = svc.ExecuteBatch(context.Background(), "p1", []structs.QueryRequest{countBy("name"), countBy("nope")})
	assert.True(t, querybuilder.ErrColumnNotFound.Is(err))
	assert.Empty(t, exec.queries, "a bad query fails the batch before any store round-trip")
}

func TestCompile(t *testing.T) {
	svc := newService(&fakeExecutor{})

	req := countBy("name")
	sql, err := svc.Compile("p1", &req)
	require.NoError(t, err)
	assert.Equal(t, `SELECT t."name", COUNT(t."id") AS "countId" FROM traces t WHERE t."project_id" = 'p1' GROUP BY t."name";`, sql)

	_, err = svc.Compile("", &req)
	assert.True(t, querybuilder.ErrMissingTenant.Is(err))
}
