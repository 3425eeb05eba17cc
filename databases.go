package mssqlmcp

import (
	"context"
	"fmt"
	"time"
)

// systemDatabases are excluded from ListDatabases unless include_system is set.
const systemDatabases = "'master', 'model', 'msdb', 'tempdb'"

const listDatabasesSQL = `
SELECT
    d.name AS database_name,
    d.database_id,
    d.create_date,
    d.state_desc AS state,
    d.recovery_model_desc AS recovery_model,
    CAST(SUM(mf.size) * 8.0 / 1024 AS DECIMAL(10,2)) AS size_mb
FROM sys.databases d
LEFT JOIN sys.master_files mf ON d.database_id = mf.database_id
WHERE 1=1`

const listSchemasSQL = `
SELECT
    s.name AS schema_name,
    s.schema_id,
    dp.name AS owner_name,
    COUNT(CASE WHEN o.type = 'U' THEN 1 END) AS table_count,
    COUNT(CASE WHEN o.type = 'V' THEN 1 END) AS view_count,
    COUNT(CASE WHEN o.type = 'P' THEN 1 END) AS procedure_count,
    COUNT(CASE WHEN o.type IN ('FN', 'IF', 'TF') THEN 1 END) AS function_count,
    COUNT(o.object_id) AS total_objects
FROM sys.schemas s
INNER JOIN sys.database_principals dp ON s.principal_id = dp.principal_id
LEFT JOIN sys.objects o ON s.schema_id = o.schema_id AND o.is_ms_shipped = 0
WHERE s.name NOT IN ('sys', 'INFORMATION_SCHEMA', 'guest')
GROUP BY s.name, s.schema_id, dp.name
ORDER BY s.name`

const schemaObjectCountsSQL = `
SELECT s.name, COUNT(o.object_id) AS object_count
FROM sys.schemas s
LEFT JOIN sys.objects o ON s.schema_id = o.schema_id
WHERE s.name NOT IN ('sys', 'INFORMATION_SCHEMA', 'guest')
GROUP BY s.name
ORDER BY object_count DESC`

// ListDatabases lists databases on the server with state, recovery model, and
// size. System databases are excluded unless requested.
func (m *SQLServerMcp) ListDatabases(ctx context.Context, input ListDatabasesInput) (*ListDatabasesOutput, error) {
	startTime := time.Now()

	release, err := m.acquire(ctx, "ListDatabases")
	if err != nil {
		return nil, err
	}
	defer release()

	query := listDatabasesSQL
	var args []interface{}
	if !input.IncludeSystem {
		query += fmt.Sprintf(" AND d.name NOT IN (%s)", systemDatabases)
	}
	if input.NamePattern != "" {
		args = append(args, input.NamePattern)
		query += fmt.Sprintf(" AND d.name LIKE @p%d", len(args))
	}
	query += `
GROUP BY d.name, d.database_id, d.create_date, d.state_desc, d.recovery_model_desc
ORDER BY d.name`

	rs, err := m.execQuery(ctx, "master", query, 0, args...)
	if err != nil {
		return nil, err
	}

	m.logger.Info().
		Dur("duration", time.Since(startTime)).
		Int("database_count", len(rs.Rows)).
		Msg("ListDatabases executed")

	return &ListDatabasesOutput{Databases: rs.Rows, Count: len(rs.Rows)}, nil
}

// ListSchemas lists the schemas in a database with per-type object counts.
func (m *SQLServerMcp) ListSchemas(ctx context.Context, input ListSchemasInput) (*ListSchemasOutput, error) {
	startTime := time.Now()

	release, err := m.acquire(ctx, "ListSchemas")
	if err != nil {
		return nil, err
	}
	defer release()

	database := input.Database
	if database == "" {
		database = m.defaultDatabase
	}

	rs, err := m.execQuery(ctx, database, listSchemasSQL, 0)
	if err != nil {
		return nil, err
	}

	m.logger.Info().
		Str("database", database).
		Dur("duration", time.Since(startTime)).
		Int("schema_count", len(rs.Rows)).
		Msg("ListSchemas executed")

	return &ListSchemasOutput{Database: database, Schemas: rs.Rows, Count: len(rs.Rows)}, nil
}

// SchemaOverview summarizes a database: object counts by type, total size,
// and per-schema object counts.
func (m *SQLServerMcp) SchemaOverview(ctx context.Context, input SchemaOverviewInput) (*SchemaOverviewOutput, error) {
	startTime := time.Now()

	release, err := m.acquire(ctx, "SchemaOverview")
	if err != nil {
		return nil, err
	}
	defer release()

	database := input.Database
	if database == "" {
		database = m.defaultDatabase
	}

	tableCount, err := m.scalarQuery(ctx, database, "SELECT COUNT(*) AS count FROM sys.tables WHERE type = 'U'")
	if err != nil {
		return nil, err
	}
	viewCount, err := m.scalarQuery(ctx, database, "SELECT COUNT(*) AS count FROM sys.views")
	if err != nil {
		return nil, err
	}
	procCount, err := m.scalarQuery(ctx, database, "SELECT COUNT(*) AS count FROM sys.procedures WHERE is_ms_shipped = 0")
	if err != nil {
		return nil, err
	}
	funcCount, err := m.scalarQuery(ctx, database,
		"SELECT COUNT(*) AS count FROM sys.objects WHERE type IN ('FN', 'IF', 'TF') AND is_ms_shipped = 0")
	if err != nil {
		return nil, err
	}
	sizeMB, err := m.scalarQuery(ctx, database,
		"SELECT CAST(SUM(size) * 8.0 / 1024 AS DECIMAL(10,2)) AS size_mb FROM sys.database_files")
	if err != nil {
		return nil, err
	}

	schemas, err := m.execQuery(ctx, database, schemaObjectCountsSQL, 0)
	if err != nil {
		return nil, err
	}

	out := &SchemaOverviewOutput{
		Database:   database,
		Tables:     toInt64(tableCount),
		Views:      toInt64(viewCount),
		Procedures: toInt64(procCount),
		Functions:  toInt64(funcCount),
		SizeMB:     toFloat64(sizeMB),
		Schemas:    schemas.Rows,
	}

	m.logger.Info().
		Str("database", database).
		Dur("duration", time.Since(startTime)).
		Msg("SchemaOverview executed")

	return out, nil
}
