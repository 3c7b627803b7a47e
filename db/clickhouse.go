package db

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"
)

// ClickHouse executes compiled queries against the analytical store
type ClickHouse struct {
	conn     driver.Conn
	database string
}

// ConnectClickHouse establishes a connection to ClickHouse
func ConnectClickHouse(ctx context.Context, addr, database, username, password string) (*ClickHouse, error) {
	conn, err := clickhouse.Open(clickhouseOptions(addr, database, username, password))
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse connection: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"addr":     addr,
		"database": database,
	}).Info("connected to clickhouse")

	return &ClickHouse{conn: conn, database: database}, nil
}

// Query runs sql and scans each column into a value of the column's scan type
func (c *ClickHouse) Query(ctx context.Context, sql string) ([]map[string]any, error) {
	rows, err := c.conn.Query(ctx, strings.TrimSuffix(sql, ";"))
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns := rows.ColumnTypes()

	var out []map[string]any
	for rows.Next() {
		dest := make([]any, len(columns))
		for i, col := range columns {
			dest[i] = reflect.New(col.ScanType()).Interface()
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col.Name()] = reflect.ValueOf(dest[i]).Elem().Interface()
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	return out, nil
}

// Close closes the ClickHouse connection
func (c *ClickHouse) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// clickhouseOptions are the connection options for the analytical store.
// Queries run read-only, and LEFT JOIN misses come back as NULL.
func clickhouseOptions(addr, database, username, password string) *clickhouse.Options {
	return &clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		Debug: false,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
			"readonly":           2,
			"join_use_nulls":     1,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	}
}
