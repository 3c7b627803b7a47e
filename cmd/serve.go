package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aidenappl/tracequery/db"
	"github.com/aidenappl/tracequery/env"
	"github.com/aidenappl/tracequery/middleware"
	"github.com/aidenappl/tracequery/querybuilder"
	"github.com/aidenappl/tracequery/routes"
	"github.com/aidenappl/tracequery/services"
	"github.com/aidenappl/tracequery/tables"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the query HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), port)
		},
	}
	cmd.Flags().StringVar(&port, "port", env.Port, "HTTP listen port")
	return cmd
}

func newBuilder(dialectName string) (*querybuilder.Builder, error) {
	dialect, err := querybuilder.DialectFor(dialectName)
	if err != nil {
		return nil, err
	}
	registry, err := tables.ForDialect(dialectName)
	if err != nil {
		return nil, err
	}
	return querybuilder.New(registry, dialect, querybuilder.WithMaxBuckets(env.MaxSeriesBuckets)), nil
}

func serve(parent context.Context, port string) error {
	if parent == nil {
		parent = context.Background()
	}

	// Validate configuration
	if env.APIKey == "" {
		logrus.Warn("API_KEY is not set, authentication is disabled")
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	builder, err := newBuilder(flagDialect)
	if err != nil {
		return err
	}

	executor, err := db.Connect(ctx, db.Config{
		Dialect:            flagDialect,
		PostgresURL:        env.DatabaseURL,
		ClickHouseAddr:     env.ClickHouseAddr,
		ClickHouseDatabase: env.ClickHouseDatabase,
		ClickHouseUsername: env.ClickHouseUsername,
		ClickHousePassword: env.ClickHousePassword,
	})
	if err != nil {
		return err
	}
	defer executor.Close()

	routes.Queries = services.NewQueryService(builder, executor, env.QueryTimeout, env.BatchConcurrency)

	var limiter *middleware.RateLimiter
	if env.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(env.RateLimitRPS, env.RateLimitBurst)
		go pruneLimiter(ctx, limiter)
	}

	// CORS Middleware
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		AllowedHeaders:   []string{"X-Requested-With", "Content-Type", "Origin", "Authorization", "Accept", "X-Api-Key", "X-Request-ID"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      corsMiddleware.Handler(routes.NewRouter(limiter)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: env.QueryTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"port":    port,
			"dialect": builder.Dialect().Name(),
		}).Info("tracequery running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	logrus.Info("shutting down...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown error")
	}

	logrus.Info("shutdown complete")
	return nil
}

func pruneLimiter(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Prune(10 * time.Minute)
		}
	}
}
