package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aidenappl/tracequery/tables"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCommand(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetIn(strings.NewReader(`{"from":"traces","select":[{"column":"id","agg":"COUNT"}]}`))
	root.SetArgs([]string{"compile", "--project", "p1", "--dialect", "postgres"})

	require.NoError(t, root.Execute())
	assert.Equal(t, `SELECT COUNT(t."id") AS "countId" FROM traces t WHERE t."project_id" = 'p1';`+"\n", out.String())
}

func TestCompileCommand_ClickHouse(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetIn(strings.NewReader(`{"from":"observations","select":[{"column":"totalTokens","agg":"SUM"}]}`))
	root.SetArgs([]string{"compile", "--project", "p1", "--dialect", "clickhouse"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), `SUM(o."usage_details"['total']) AS "sumTotalTokens"`)
}

func TestCompileCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		args []string
	}{
		{"missing project flag", `{"from":"traces"}`, []string{"compile"}},
		{"malformed json", `{`, []string{"compile", "--project", "p1"}},
		{"invalid request", `{"from":"users"}`, []string{"compile", "--project", "p1"}},
		{"unknown column", `{"from":"traces","select":[{"column":"nope"}]}`, []string{"compile", "--project", "p1"}},
		{"unknown dialect", `{"from":"traces"}`, []string{"compile", "--project", "p1", "--dialect", "oracle"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := NewRootCmd()
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			root.SetIn(strings.NewReader(tt.in))
			root.SetArgs(tt.args)

			assert.Error(t, root.Execute())
		})
	}
}

func TestPrintTables(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printTables(&out, tables.Postgres(), true))

	assert.Contains(t, out.String(), "traces")
	assert.Contains(t, out.String(), `o."total_tokens"`)

	out.Reset()
	require.NoError(t, printTables(&out, tables.Postgres(), false))
	assert.NotContains(t, out.String(), `o."total_tokens"`)
}

func TestConfigureLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.GetLevel())
	defer logrus.SetFormatter(logrus.StandardLogger().Formatter)

	require.NoError(t, configureLogging("debug", "json"))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)

	assert.Error(t, configureLogging("loud", "text"))
	assert.Error(t, configureLogging("info", "xml"))
}
