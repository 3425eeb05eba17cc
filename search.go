package mssqlmcp

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// searchMaxRowsPerDB caps per-database results so one database cannot crowd
// out the rest of the search.
const searchMaxRowsPerDB = 100

const activeDatabasesSQL = `SELECT name FROM sys.databases WHERE state = 0`

const searchObjectsSQL = `
SELECT
    s.name AS schema_name,
    o.name AS object_name,
    CASE o.type
        WHEN 'U' THEN 'table'
        WHEN 'V' THEN 'view'
        WHEN 'P' THEN 'procedure'
        WHEN 'FN' THEN 'scalar_function'
        WHEN 'IF' THEN 'inline_table_function'
        WHEN 'TF' THEN 'table_function'
    END AS object_type,
    o.create_date,
    o.modify_date
FROM sys.objects o
INNER JOIN sys.schemas s ON o.schema_id = s.schema_id
WHERE o.name LIKE @p1
AND (%s)
AND o.is_ms_shipped = 0
ORDER BY o.name`

const searchDefinitionsSQL = `
SELECT
    s.name AS schema_name,
    o.name AS object_name,
    CASE o.type
        WHEN 'V' THEN 'view'
        WHEN 'P' THEN 'procedure'
        WHEN 'FN' THEN 'scalar_function'
        WHEN 'IF' THEN 'inline_table_function'
        WHEN 'TF' THEN 'table_function'
    END AS object_type,
    CHARINDEX(@p1, m.definition) AS match_position
FROM sys.objects o
INNER JOIN sys.schemas s ON o.schema_id = s.schema_id
INNER JOIN sys.sql_modules m ON o.object_id = m.object_id
WHERE m.definition LIKE @p2
AND (%s)
AND o.is_ms_shipped = 0
ORDER BY o.name`

// searchDatabases resolves the set of databases a search should cover: the
// explicitly named one, or every online database the access policy allows.
func (m *SQLServerMcp) searchDatabases(ctx context.Context, database string) ([]string, error) {
	if database != "" {
		return []string{database}, nil
	}
	rs, err := m.execQuery(ctx, "master", activeDatabasesSQL, 0)
	if err != nil {
		return nil, err
	}
	var databases []string
	for _, row := range rs.Rows {
		name := rowString(row, "name")
		if m.policy.IsAllowed(name) {
			databases = append(databases, name)
		}
	}
	return databases, nil
}

// objectTypeFilter builds the type predicate for a search. Returns "" when
// none of the requested types is searchable.
func objectTypeFilter(objectTypes []string, includeTables bool) string {
	var conditions []string
	for _, t := range objectTypes {
		switch t {
		case "table":
			if includeTables {
				conditions = append(conditions, "(o.type = 'U')")
			}
		case "view":
			conditions = append(conditions, "(o.type = 'V')")
		case "procedure":
			conditions = append(conditions, "(o.type = 'P')")
		case "function":
			conditions = append(conditions, "(o.type IN ('FN', 'IF', 'TF'))")
		}
	}
	return strings.Join(conditions, " OR ")
}

// SearchObjects searches for database objects by name across all databases
// the access policy allows. Databases that cannot be reached are skipped.
func (m *SQLServerMcp) SearchObjects(ctx context.Context, input SearchObjectsInput) (*SearchObjectsOutput, error) {
	startTime := time.Now()

	release, err := m.acquire(ctx, "SearchObjects")
	if err != nil {
		return nil, err
	}
	defer release()

	objectTypes := input.ObjectTypes
	if len(objectTypes) == 0 {
		objectTypes = []string{"table", "view", "procedure", "function"}
	}

	databases, err := m.searchDatabases(ctx, input.Database)
	if err != nil {
		return nil, err
	}

	typeFilter := objectTypeFilter(objectTypes, true)
	results := make([]map[string]interface{}, 0)
	if typeFilter != "" {
		query := fmt.Sprintf(searchObjectsSQL, typeFilter)
		for _, dbName := range databases {
			rs, err := m.execQuery(ctx, dbName, query, searchMaxRowsPerDB, input.Pattern)
			if err != nil {
				m.logger.Debug().Err(err).Str("database", dbName).Msg("skipping database in object search")
				continue
			}
			for _, row := range rs.Rows {
				row["database_name"] = dbName
				results = append(results, row)
			}
		}
	}

	m.logger.Info().
		Str("pattern", input.Pattern).
		Dur("duration", time.Since(startTime)).
		Int("result_count", len(results)).
		Int("databases_searched", len(databases)).
		Msg("SearchObjects executed")

	return &SearchObjectsOutput{
		Pattern:           input.Pattern,
		Results:           results,
		Count:             len(results),
		DatabasesSearched: len(databases),
	}, nil
}

// SearchDefinitions searches within view, procedure, and function definitions
// across all databases the access policy allows.
func (m *SQLServerMcp) SearchDefinitions(ctx context.Context, input SearchDefinitionsInput) (*SearchDefinitionsOutput, error) {
	startTime := time.Now()

	release, err := m.acquire(ctx, "SearchDefinitions")
	if err != nil {
		return nil, err
	}
	defer release()

	objectTypes := input.ObjectTypes
	if len(objectTypes) == 0 {
		objectTypes = []string{"view", "procedure", "function"}
	}

	databases, err := m.searchDatabases(ctx, input.Database)
	if err != nil {
		return nil, err
	}

	typeFilter := objectTypeFilter(objectTypes, false)
	results := make([]map[string]interface{}, 0)
	if typeFilter != "" {
		query := fmt.Sprintf(searchDefinitionsSQL, typeFilter)
		for _, dbName := range databases {
			rs, err := m.execQuery(ctx, dbName, query, searchMaxRowsPerDB, input.Pattern, "%"+input.Pattern+"%")
			if err != nil {
				m.logger.Debug().Err(err).Str("database", dbName).Msg("skipping database in definition search")
				continue
			}
			for _, row := range rs.Rows {
				row["database_name"] = dbName
				results = append(results, row)
			}
		}
	}

	m.logger.Info().
		Str("pattern", input.Pattern).
		Dur("duration", time.Since(startTime)).
		Int("result_count", len(results)).
		Int("databases_searched", len(databases)).
		Msg("SearchDefinitions executed")

	return &SearchDefinitionsOutput{
		Pattern:           input.Pattern,
		Results:           results,
		Count:             len(results),
		DatabasesSearched: len(databases),
	}, nil
}
