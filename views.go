package mssqlmcp

import (
	"context"
	"fmt"
	"time"

	"github.com/millelog/sql-server-mcp/internal/ident"
)

const listViewsSQL = `
SELECT
    s.name AS schema_name,
    v.name AS view_name,
    v.create_date,
    v.modify_date,
    OBJECTPROPERTY(v.object_id, 'IsSchemaBound') AS is_schema_bound,
    OBJECTPROPERTY(v.object_id, 'IsIndexed') AS is_indexed
FROM sys.views v
INNER JOIN sys.schemas s ON v.schema_id = s.schema_id
WHERE 1=1`

const viewDefinitionSQL = `
SELECT
    s.name AS schema_name,
    v.name AS view_name,
    m.definition,
    OBJECTPROPERTY(v.object_id, 'IsEncrypted') AS is_encrypted
FROM sys.views v
INNER JOIN sys.schemas s ON v.schema_id = s.schema_id
LEFT JOIN sys.sql_modules m ON v.object_id = m.object_id
WHERE v.name = @p1`

const viewColumnsSQL = `
SELECT
    c.name AS column_name,
    t.name AS data_type,
    c.max_length,
    c.precision,
    c.scale,
    c.is_nullable
FROM sys.columns c
INNER JOIN sys.types t ON c.user_type_id = t.user_type_id
INNER JOIN sys.views v ON c.object_id = v.object_id
INNER JOIN sys.schemas s ON v.schema_id = s.schema_id
WHERE v.name = @p1`

// ListViews lists views in a database.
func (m *SQLServerMcp) ListViews(ctx context.Context, input ListViewsInput) (*ListViewsOutput, error) {
	startTime := time.Now()

	release, err := m.acquire(ctx, "ListViews")
	if err != nil {
		return nil, err
	}
	defer release()

	query := listViewsSQL
	var args []interface{}
	if input.Schema != "" {
		if _, err := ident.Sanitize(input.Schema); err != nil {
			return nil, err
		}
		args = append(args, input.Schema)
		query += fmt.Sprintf(" AND s.name = @p%d", len(args))
	}
	if input.NamePattern != "" {
		args = append(args, input.NamePattern)
		query += fmt.Sprintf(" AND v.name LIKE @p%d", len(args))
	}
	query += " ORDER BY s.name, v.name"

	rs, err := m.execQuery(ctx, input.Database, query, 0, args...)
	if err != nil {
		return nil, err
	}

	m.logger.Info().
		Dur("duration", time.Since(startTime)).
		Int("view_count", len(rs.Rows)).
		Msg("ListViews executed")

	return &ListViewsOutput{Views: rs.Rows, Count: len(rs.Rows)}, nil
}

// ViewDefinition returns the CREATE VIEW statement for a view, or an
// explanatory comment when the view is encrypted or not found.
func (m *SQLServerMcp) ViewDefinition(ctx context.Context, input ViewDefinitionInput) (string, error) {
	release, err := m.acquire(ctx, "ViewDefinition")
	if err != nil {
		return "", err
	}
	defer release()

	schema, view, err := sanitizeObject(input.View)
	if err != nil {
		return "", err
	}

	query := viewDefinitionSQL
	args := []interface{}{view}
	if schema != "" {
		args = append(args, schema)
		query += " AND s.name = @p2"
	}

	rs, err := m.execQuery(ctx, input.Database, query, 0, args...)
	if err != nil {
		return "", err
	}

	if len(rs.Rows) == 0 {
		return fmt.Sprintf("View '%s' not found", input.View), nil
	}
	row := rs.Rows[0]
	if rowBool(row, "is_encrypted") {
		return fmt.Sprintf("-- View '%s' is encrypted. Definition is not available.", input.View), nil
	}
	if definition := rowString(row, "definition"); definition != "" {
		return definition, nil
	}
	return fmt.Sprintf("-- Unable to retrieve definition for view '%s'", input.View), nil
}

// ViewColumns returns column metadata for a view.
func (m *SQLServerMcp) ViewColumns(ctx context.Context, input ViewColumnsInput) (*ViewColumnsOutput, error) {
	startTime := time.Now()

	release, err := m.acquire(ctx, "ViewColumns")
	if err != nil {
		return nil, err
	}
	defer release()

	schema, view, err := sanitizeObject(input.View)
	if err != nil {
		return nil, err
	}

	query := viewColumnsSQL
	args := []interface{}{view}
	if schema != "" {
		args = append(args, schema)
		query += " AND s.name = @p2"
	}
	query += "\nORDER BY c.column_id"

	rs, err := m.execQuery(ctx, input.Database, query, 0, args...)
	if err != nil {
		return nil, err
	}

	m.logger.Info().
		Str("view", input.View).
		Dur("duration", time.Since(startTime)).
		Int("column_count", len(rs.Rows)).
		Msg("ViewColumns executed")

	return &ViewColumnsOutput{View: input.View, Columns: rs.Rows, Count: len(rs.Rows)}, nil
}
