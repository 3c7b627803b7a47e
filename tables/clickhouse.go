package tables

import (
	"fmt"

	"github.com/aidenappl/tracequery/structs"
)

// Joined views are flattened into subqueries because ClickHouse cannot nest
// a join tree on the right side of the date series join.
var clickhouseRegistry = MustNewRegistry(
	TableDefinition{
		Name:  structs.TableTraces,
		Table: `traces t`,
		Columns: []ColumnDefinition{
			str("id", `t."id"`),
			str("projectId", `t."project_id"`),
			str("name", `t."name"`),
			dt("timestamp", `t."timestamp"`),
			str("userId", `t."user_id"`),
			str("sessionId", `t."session_id"`),
			str("release", `t."release"`),
			str("version", `t."version"`),
			str("environment", `t."environment"`),
		},
	},
	TableDefinition{
		Name:  structs.TableObservations,
		Table: `observations o`,
		Columns: []ColumnDefinition{
			str("id", `o."id"`),
			str("traceId", `o."trace_id"`),
			str("projectId", `o."project_id"`),
			str("type", `o."type"`),
			str("name", `o."name"`),
			str("model", `o."provided_model_name"`),
			str("level", `o."level"`),
			str("version", `o."version"`),
			str("environment", `o."environment"`),
			dt("startTime", `o."start_time"`),
			dt("endTime", `o."end_time"`),
			dt("completionStartTime", `o."completion_start_time"`),
			num("promptTokens", `o."usage_details"['input']`),
			num("completionTokens", `o."usage_details"['output']`),
			num("totalTokens", `o."usage_details"['total']`),
			num("totalCost", `o."total_cost"`),
			num("duration", `date_diff('millisecond', o."start_time", o."end_time")`),
		},
	},
	TableDefinition{
		Name: structs.TableTracesObservations,
		Table: `(SELECT t.id AS trace_id, t.project_id AS project_id, t.name AS trace_name, t.timestamp AS timestamp, t.user_id AS user_id,` +
			` o.id AS observation_id, o.name AS observation_name, o.type AS type, o.provided_model_name AS model, o.level AS level,` +
			` o.start_time AS start_time, o.end_time AS end_time, o.usage_details AS usage_details, o.total_cost AS total_cost` +
			` FROM traces t LEFT JOIN observations o ON t.id = o.trace_id AND t.project_id = o.project_id) tobs`,
		Columns: []ColumnDefinition{
			str("traceId", `tobs."trace_id"`),
			str("projectId", `tobs."project_id"`),
			str("traceName", `tobs."trace_name"`),
			dt("timestamp", `tobs."timestamp"`),
			str("userId", `tobs."user_id"`),
			str("observationId", `tobs."observation_id"`),
			str("observationName", `tobs."observation_name"`),
			str("type", `tobs."type"`),
			str("model", `tobs."model"`),
			str("level", `tobs."level"`),
			dt("startTime", `tobs."start_time"`),
			num("promptTokens", `tobs."usage_details"['input']`),
			num("completionTokens", `tobs."usage_details"['output']`),
			num("totalTokens", `tobs."usage_details"['total']`),
			num("totalCost", `tobs."total_cost"`),
			num("duration", `date_diff('millisecond', tobs."start_time", tobs."end_time")`),
		},
	},
	TableDefinition{
		Name: structs.TableTracesScores,
		Table: `(SELECT t.id AS trace_id, t.project_id AS project_id, t.name AS trace_name, t.timestamp AS timestamp, t.user_id AS user_id,` +
			` s.name AS score_name, s.source AS score_source, s.value AS value, s.timestamp AS score_timestamp` +
			` FROM traces t INNER JOIN scores s ON t.id = s.trace_id AND t.project_id = s.project_id) tsc`,
		Columns: []ColumnDefinition{
			str("traceId", `tsc."trace_id"`),
			str("projectId", `tsc."project_id"`),
			str("traceName", `tsc."trace_name"`),
			dt("timestamp", `tsc."timestamp"`),
			str("userId", `tsc."user_id"`),
			str("scoreName", `tsc."score_name"`),
			str("scoreSource", `tsc."score_source"`),
			num("value", `tsc."value"`),
			dt("scoreTimestamp", `tsc."score_timestamp"`),
		},
	},
	TableDefinition{
		Name: structs.TableTracesParentObservationScores,
		Table: `(SELECT t.id AS trace_id, t.project_id AS project_id, t.timestamp AS timestamp,` +
			` o.id AS observation_id, o.start_time AS start_time, o.end_time AS end_time, s.name AS score_name, s.value AS value` +
			` FROM traces t` +
			` LEFT JOIN observations o ON t.id = o.trace_id AND t.project_id = o.project_id AND o.parent_observation_id IS NULL` +
			` LEFT JOIN scores s ON t.id = s.trace_id AND t.project_id = s.project_id) tpos`,
		Columns: []ColumnDefinition{
			str("traceId", `tpos."trace_id"`),
			str("projectId", `tpos."project_id"`),
			dt("timestamp", `tpos."timestamp"`),
			str("observationId", `tpos."observation_id"`),
			num("duration", `date_diff('millisecond', tpos."start_time", tpos."end_time")`),
			str("scoreName", `tpos."score_name"`),
			num("value", `tpos."value"`),
		},
	},
)

// ClickHouse returns the registry for the analytical store
func ClickHouse() *Registry {
	return clickhouseRegistry
}

// ForDialect returns the registry matching a dialect name
func ForDialect(name string) (*Registry, error) {
	switch name {
	case "postgres", "":
		return Postgres(), nil
	case "clickhouse":
		return ClickHouse(), nil
	default:
		return nil, fmt.Errorf("no table registry for dialect %q", name)
	}
}
