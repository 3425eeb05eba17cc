package mssqlmcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/millelog/sql-server-mcp/internal/ident"
)

const listFunctionsSQL = `
SELECT
    s.name AS schema_name,
    o.name AS function_name,
    o.type AS type_code,
    CASE o.type
        WHEN 'FN' THEN 'Scalar'
        WHEN 'IF' THEN 'Inline Table-Valued'
        WHEN 'TF' THEN 'Table-Valued'
    END AS function_type,
    o.create_date,
    o.modify_date,
    OBJECTPROPERTY(o.object_id, 'IsEncrypted') AS is_encrypted
FROM sys.objects o
INNER JOIN sys.schemas s ON o.schema_id = s.schema_id
WHERE o.type IN ('FN', 'IF', 'TF')
AND o.is_ms_shipped = 0`

const functionDefinitionSQL = `
SELECT
    s.name AS schema_name,
    o.name AS function_name,
    o.type AS type_code,
    m.definition,
    OBJECTPROPERTY(o.object_id, 'IsEncrypted') AS is_encrypted
FROM sys.objects o
INNER JOIN sys.schemas s ON o.schema_id = s.schema_id
LEFT JOIN sys.sql_modules m ON o.object_id = m.object_id
WHERE o.type IN ('FN', 'IF', 'TF')
AND o.name = @p1`

// ListFunctions lists user-defined functions in a database, optionally
// filtered to scalar or table-valued functions.
func (m *SQLServerMcp) ListFunctions(ctx context.Context, input ListFunctionsInput) (*ListFunctionsOutput, error) {
	startTime := time.Now()

	release, err := m.acquire(ctx, "ListFunctions")
	if err != nil {
		return nil, err
	}
	defer release()

	query := listFunctionsSQL
	var args []interface{}
	if input.Schema != "" {
		if _, err := ident.Sanitize(input.Schema); err != nil {
			return nil, err
		}
		args = append(args, input.Schema)
		query += fmt.Sprintf(" AND s.name = @p%d", len(args))
	}
	switch strings.ToLower(input.FunctionType) {
	case "scalar":
		query += " AND o.type = 'FN'"
	case "table":
		query += " AND o.type IN ('IF', 'TF')"
	}
	query += " ORDER BY s.name, o.name"

	rs, err := m.execQuery(ctx, input.Database, query, 0, args...)
	if err != nil {
		return nil, err
	}

	m.logger.Info().
		Dur("duration", time.Since(startTime)).
		Int("function_count", len(rs.Rows)).
		Msg("ListFunctions executed")

	return &ListFunctionsOutput{Functions: rs.Rows, Count: len(rs.Rows)}, nil
}

// FunctionDefinition returns the CREATE FUNCTION statement for a user-defined
// function, or an explanatory comment when it is encrypted or not found.
func (m *SQLServerMcp) FunctionDefinition(ctx context.Context, input FunctionDefinitionInput) (string, error) {
	release, err := m.acquire(ctx, "FunctionDefinition")
	if err != nil {
		return "", err
	}
	defer release()

	schema, fn, err := sanitizeObject(input.Function)
	if err != nil {
		return "", err
	}

	query := functionDefinitionSQL
	args := []interface{}{fn}
	if schema != "" {
		args = append(args, schema)
		query += " AND s.name = @p2"
	}

	rs, err := m.execQuery(ctx, input.Database, query, 0, args...)
	if err != nil {
		return "", err
	}

	if len(rs.Rows) == 0 {
		return fmt.Sprintf("Function '%s' not found", input.Function), nil
	}
	row := rs.Rows[0]
	if rowBool(row, "is_encrypted") {
		return fmt.Sprintf("-- Function '%s' is encrypted. Definition is not available.", input.Function), nil
	}
	if definition := rowString(row, "definition"); definition != "" {
		return definition, nil
	}
	return fmt.Sprintf("-- Unable to retrieve definition for function '%s'", input.Function), nil
}
