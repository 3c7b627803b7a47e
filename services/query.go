package services

import (
	"context"
	"time"

	"github.com/aidenappl/tracequery/db"
	"github.com/aidenappl/tracequery/middleware"
	"github.com/aidenappl/tracequery/normalize"
	"github.com/aidenappl/tracequery/querybuilder"
	"github.com/aidenappl/tracequery/structs"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// MaxBatchSize is the maximum number of queries in one batch
const MaxBatchSize = 50

// QueryService compiles dashboard queries, runs them on the store and
// normalizes the rows
type QueryService struct {
	builder     *querybuilder.Builder
	executor    db.Executor
	timeout     time.Duration
	concurrency int
}

// NewQueryService creates a query service. A zero timeout leaves the caller's
// deadline untouched; concurrency below one runs batches sequentially.
func NewQueryService(builder *querybuilder.Builder, executor db.Executor, timeout time.Duration, concurrency int) *QueryService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &QueryService{
		builder:     builder,
		executor:    executor,
		timeout:     timeout,
		concurrency: concurrency,
	}
}

// Builder returns the service's query builder
func (s *QueryService) Builder() *querybuilder.Builder {
	return s.builder
}

// Compile validates req and compiles it for projectID without executing it
func (s *QueryService) Compile(projectID string, req *structs.QueryRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	return s.builder.Assemble(req, projectID)
}

// Execute compiles req, runs it and returns the normalized rows. Store errors
// are returned as the executor reported them.
func (s *QueryService) Execute(ctx context.Context, projectID string, req *structs.QueryRequest) ([]structs.DatabaseRow, error) {
	sql, err := s.Compile(projectID, req)
	if err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{
		"request_id": middleware.RequestIDFromContext(ctx),
		"project_id": projectID,
		"table":      req.From,
		"dialect":    s.builder.Dialect().Name(),
	})
	log.WithField("sql", sql).Debug("executing query")

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := s.executor.Query(ctx, sql)
	if err != nil {
		log.WithError(err).Warn("query failed")
		return nil, err
	}

	data, err := normalize.Rows(rows)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"rows":     len(data),
		"duration": time.Since(start),
	}).Debug("query complete")

	return data, nil
}

// ExecuteBatch runs several queries for the same project concurrently.
// Results are in request order; the first failure cancels the rest.
func (s *QueryService) ExecuteBatch(ctx context.Context, projectID string, reqs []structs.QueryRequest) ([][]structs.DatabaseRow, error) {
	if len(reqs) == 0 {
		return nil, structs.ErrInvalidRequest.New("queries must not be empty")
	}
	if len(reqs) > MaxBatchSize {
		return nil, structs.ErrInvalidRequest.New("too many queries in batch")
	}

	// Compile everything first so a bad request fails before any store round-trip.
	for i := range reqs {
		if _, err := s.Compile(projectID, &reqs[i]); err != nil {
			return nil, err
		}
	}

	results := make([][]structs.DatabaseRow, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range reqs {
		g.Go(func() error {
			rows, err := s.Execute(gctx, projectID, &reqs[i])
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
