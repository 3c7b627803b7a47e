package tables

import "github.com/aidenappl/tracequery/structs"

func str(name, internal string) ColumnDefinition {
	return ColumnDefinition{Name: name, Type: structs.TypeString, Internal: internal}
}

func num(name, internal string) ColumnDefinition {
	return ColumnDefinition{Name: name, Type: structs.TypeNumber, Internal: internal}
}

func dt(name, internal string) ColumnDefinition {
	return ColumnDefinition{Name: name, Type: structs.TypeDatetime, Internal: internal}
}

const pgObservationDuration = `(EXTRACT(EPOCH FROM o."end_time") - EXTRACT(EPOCH FROM o."start_time")) * 1000`

var postgresRegistry = MustNewRegistry(
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
			str("model", `o."model"`),
			str("level", `o."level"`),
			str("version", `o."version"`),
			dt("startTime", `o."start_time"`),
			dt("endTime", `o."end_time"`),
			dt("completionStartTime", `o."completion_start_time"`),
			num("promptTokens", `o."prompt_tokens"`),
			num("completionTokens", `o."completion_tokens"`),
			num("totalTokens", `o."total_tokens"`),
			num("duration", pgObservationDuration),
		},
	},
	TableDefinition{
		Name:  structs.TableTracesObservations,
		Table: `traces t LEFT JOIN observations o ON t."id" = o."trace_id" AND t."project_id" = o."project_id"`,
		Columns: []ColumnDefinition{
			str("traceId", `t."id"`),
			str("projectId", `t."project_id"`),
			str("traceName", `t."name"`),
			dt("timestamp", `t."timestamp"`),
			str("userId", `t."user_id"`),
			str("observationId", `o."id"`),
			str("observationName", `o."name"`),
			str("type", `o."type"`),
			str("model", `o."model"`),
			str("level", `o."level"`),
			dt("startTime", `o."start_time"`),
			num("promptTokens", `o."prompt_tokens"`),
			num("completionTokens", `o."completion_tokens"`),
			num("totalTokens", `o."total_tokens"`),
			num("duration", pgObservationDuration),
		},
	},
	TableDefinition{
		Name:  structs.TableTracesScores,
		Table: `traces t JOIN scores s ON t."id" = s."trace_id" AND t."project_id" = s."project_id"`,
		Columns: []ColumnDefinition{
			str("traceId", `t."id"`),
			str("projectId", `t."project_id"`),
			str("traceName", `t."name"`),
			dt("timestamp", `t."timestamp"`),
			str("userId", `t."user_id"`),
			str("scoreName", `s."name"`),
			str("scoreSource", `s."source"`),
			num("value", `s."value"`),
			dt("scoreTimestamp", `s."timestamp"`),
		},
	},
	TableDefinition{
		Name: structs.TableTracesParentObservationScores,
		Table: `traces t` +
			` LEFT JOIN observations o ON t."id" = o."trace_id" AND t."project_id" = o."project_id" AND o."parent_observation_id" IS NULL` +
			` LEFT JOIN scores s ON t."id" = s."trace_id" AND t."project_id" = s."project_id"`,
		Columns: []ColumnDefinition{
			str("traceId", `t."id"`),
			str("projectId", `t."project_id"`),
			dt("timestamp", `t."timestamp"`),
			str("observationId", `o."id"`),
			num("duration", pgObservationDuration),
			str("scoreName", `s."name"`),
			num("value", `s."value"`),
		},
	},
)

// Postgres returns the registry for the relational store
func Postgres() *Registry {
	return postgresRegistry
}
