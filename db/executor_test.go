package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_UnsupportedDialect(t *testing.T) {
	exec, err := Connect(context.Background(), Config{Dialect: "oracle"})
	require.Error(t, err)
	assert.Nil(t, exec)
}

func TestConnect_PostgresRequiresURL(t *testing.T) {
	exec, err := Connect(context.Background(), Config{Dialect: "postgres"})
	require.Error(t, err)
	assert.Nil(t, exec, "a failed connect must not return a typed nil executor")
}

func TestClickHouse_CloseWithoutConn(t *testing.T) {
	assert.NoError(t, (&ClickHouse{}).Close())
}

func TestClickHouseOptions(t *testing.T) {
	opts := clickhouseOptions("ch:9000", "analytics", "reader", "pw")

	assert.Equal(t, []string{"ch:9000"}, opts.Addr)
	assert.Equal(t, "analytics", opts.Auth.Database)
	assert.Equal(t, 2, opts.Settings["readonly"])
	assert.Equal(t, 1, opts.Settings["join_use_nulls"], "empty date buckets need NULL join misses")
}
