package db

import (
	"context"
	"fmt"
)

// Executor runs a compiled SQL string and returns each row as a map from
// output column name to the driver's native value
type Executor interface {
	Query(ctx context.Context, sql string) ([]map[string]any, error)
	Close() error
}

// Config selects and addresses the store an Executor talks to
type Config struct {
	Dialect string

	PostgresURL string

	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string
}

// Connect opens the executor for cfg.Dialect
func Connect(ctx context.Context, cfg Config) (Executor, error) {
	switch cfg.Dialect {
	case "postgres", "":
		pg, err := ConnectPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case "clickhouse":
		ch, err := ConnectClickHouse(ctx, cfg.ClickHouseAddr, cfg.ClickHouseDatabase, cfg.ClickHouseUsername, cfg.ClickHousePassword)
		if err != nil {
			return nil, err
		}
		return ch, nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", cfg.Dialect)
	}
}
