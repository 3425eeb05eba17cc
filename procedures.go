package mssqlmcp

import (
	"context"
	"fmt"
	"time"

	"github.com/millelog/sql-server-mcp/internal/ident"
)

const listProceduresSQL = `
SELECT
    s.name AS schema_name,
    p.name AS procedure_name,
    p.create_date,
    p.modify_date,
    OBJECTPROPERTY(p.object_id, 'IsEncrypted') AS is_encrypted
FROM sys.procedures p
INNER JOIN sys.schemas s ON p.schema_id = s.schema_id
WHERE 1=1`

const procedureDefinitionSQL = `
SELECT
    s.name AS schema_name,
    p.name AS procedure_name,
    m.definition,
    OBJECTPROPERTY(p.object_id, 'IsEncrypted') AS is_encrypted
FROM sys.procedures p
INNER JOIN sys.schemas s ON p.schema_id = s.schema_id
LEFT JOIN sys.sql_modules m ON p.object_id = m.object_id
WHERE p.name = @p1`

const procedureParametersSQL = `
SELECT
    par.name AS parameter_name,
    t.name AS data_type,
    par.max_length,
    par.precision,
    par.scale,
    par.is_output,
    par.has_default_value,
    par.default_value,
    par.parameter_id
FROM sys.parameters par
INNER JOIN sys.procedures p ON par.object_id = p.object_id
INNER JOIN sys.schemas s ON p.schema_id = s.schema_id
INNER JOIN sys.types t ON par.user_type_id = t.user_type_id
WHERE p.name = @p1`

// ListProcedures lists stored procedures in a database. System procedures
// are excluded unless requested.
func (m *SQLServerMcp) ListProcedures(ctx context.Context, input ListProceduresInput) (*ListProceduresOutput, error) {
	startTime := time.Now()

	release, err := m.acquire(ctx, "ListProcedures")
	if err != nil {
		return nil, err
	}
	defer release()

	query := listProceduresSQL
	var args []interface{}
	if !input.IncludeSystem {
		query += " AND p.is_ms_shipped = 0"
	}
	if input.Schema != "" {
		if _, err := ident.Sanitize(input.Schema); err != nil {
			return nil, err
		}
		args = append(args, input.Schema)
		query += fmt.Sprintf(" AND s.name = @p%d", len(args))
	}
	if input.NamePattern != "" {
		args = append(args, input.NamePattern)
		query += fmt.Sprintf(" AND p.name LIKE @p%d", len(args))
	}
	query += " ORDER BY s.name, p.name"

	rs, err := m.execQuery(ctx, input.Database, query, 0, args...)
	if err != nil {
		return nil, err
	}

	m.logger.Info().
		Dur("duration", time.Since(startTime)).
		Int("procedure_count", len(rs.Rows)).
		Msg("ListProcedures executed")

	return &ListProceduresOutput{Procedures: rs.Rows, Count: len(rs.Rows)}, nil
}

// ProcedureDefinition returns the CREATE PROCEDURE statement for a stored
// procedure, or an explanatory comment when it is encrypted or not found.
func (m *SQLServerMcp) ProcedureDefinition(ctx context.Context, input ProcedureDefinitionInput) (string, error) {
	release, err := m.acquire(ctx, "ProcedureDefinition")
	if err != nil {
		return "", err
	}
	defer release()

	schema, proc, err := sanitizeObject(input.Procedure)
	if err != nil {
		return "", err
	}

	query := procedureDefinitionSQL
	args := []interface{}{proc}
	if schema != "" {
		args = append(args, schema)
		query += " AND s.name = @p2"
	}

	rs, err := m.execQuery(ctx, input.Database, query, 0, args...)
	if err != nil {
		return "", err
	}

	if len(rs.Rows) == 0 {
		return fmt.Sprintf("Procedure '%s' not found", input.Procedure), nil
	}
	row := rs.Rows[0]
	if rowBool(row, "is_encrypted") {
		return fmt.Sprintf("-- Procedure '%s' is encrypted. Definition is not available.", input.Procedure), nil
	}
	if definition := rowString(row, "definition"); definition != "" {
		return definition, nil
	}
	return fmt.Sprintf("-- Unable to retrieve definition for procedure '%s'", input.Procedure), nil
}

// ProcedureParameters returns the parameters of a stored procedure with a
// "direction" key (INPUT or OUTPUT) added to each row.
func (m *SQLServerMcp) ProcedureParameters(ctx context.Context, input ProcedureParametersInput) (*ProcedureParametersOutput, error) {
	startTime := time.Now()

	release, err := m.acquire(ctx, "ProcedureParameters")
	if err != nil {
		return nil, err
	}
	defer release()

	schema, proc, err := sanitizeObject(input.Procedure)
	if err != nil {
		return nil, err
	}

	query := procedureParametersSQL
	args := []interface{}{proc}
	if schema != "" {
		args = append(args, schema)
		query += " AND s.name = @p2"
	}
	query += "\nORDER BY par.parameter_id"

	rs, err := m.execQuery(ctx, input.Database, query, 0, args...)
	if err != nil {
		return nil, err
	}

	for _, row := range rs.Rows {
		if rowBool(row, "is_output") {
			row["direction"] = "OUTPUT"
		} else {
			row["direction"] = "INPUT"
		}
	}

	m.logger.Info().
		Str("procedure", input.Procedure).
		Dur("duration", time.Since(startTime)).
		Int("parameter_count", len(rs.Rows)).
		Msg("ProcedureParameters executed")

	return &ProcedureParametersOutput{Procedure: input.Procedure, Parameters: rs.Rows, Count: len(rs.Rows)}, nil
}
