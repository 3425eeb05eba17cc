package mssqlmcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/millelog/sql-server-mcp/internal/ident"
)

const listTablesSQL = `
SELECT
    s.name AS schema_name,
    t.name AS table_name,
    p.rows AS row_count,
    CAST(SUM(a.total_pages) * 8.0 / 1024 AS DECIMAL(10,2)) AS size_mb,
    t.create_date,
    t.modify_date
FROM sys.tables t
INNER JOIN sys.schemas s ON t.schema_id = s.schema_id
INNER JOIN sys.indexes i ON t.object_id = i.object_id
INNER JOIN sys.partitions p ON i.object_id = p.object_id AND i.index_id = p.index_id
INNER JOIN sys.allocation_units a ON p.partition_id = a.container_id
WHERE t.type = 'U'`

const tableColumnsDDLSQL = `
SELECT
    c.name AS column_name,
    t.name AS data_type,
    c.max_length,
    c.precision,
    c.scale,
    c.is_nullable,
    c.is_identity,
    ic.seed_value,
    ic.increment_value,
    dc.definition AS default_value,
    cc.definition AS computed_definition
FROM sys.columns c
INNER JOIN sys.types t ON c.user_type_id = t.user_type_id
INNER JOIN sys.tables tbl ON c.object_id = tbl.object_id
INNER JOIN sys.schemas s ON tbl.schema_id = s.schema_id
LEFT JOIN sys.identity_columns ic ON c.object_id = ic.object_id AND c.column_id = ic.column_id
LEFT JOIN sys.default_constraints dc ON c.default_object_id = dc.object_id
LEFT JOIN sys.computed_columns cc ON c.object_id = cc.object_id AND c.column_id = cc.column_id
WHERE tbl.name = @p1`

const tablePrimaryKeySQL = `
SELECT
    i.name AS constraint_name,
    c.name AS column_name
FROM sys.indexes i
INNER JOIN sys.index_columns ic ON i.object_id = ic.object_id AND i.index_id = ic.index_id
INNER JOIN sys.columns c ON ic.object_id = c.object_id AND ic.column_id = c.column_id
INNER JOIN sys.tables t ON i.object_id = t.object_id
INNER JOIN sys.schemas s ON t.schema_id = s.schema_id
WHERE i.is_primary_key = 1
AND t.name = @p1`

const tableColumnsSQL = `
SELECT
    c.name AS column_name,
    t.name AS data_type,
    c.max_length,
    c.precision,
    c.scale,
    c.is_nullable,
    c.is_identity,
    c.is_computed,
    dc.definition AS default_value,
    cc.definition AS computed_definition,
    ep.value AS description
FROM sys.columns c
INNER JOIN sys.types t ON c.user_type_id = t.user_type_id
INNER JOIN sys.tables tbl ON c.object_id = tbl.object_id
INNER JOIN sys.schemas s ON tbl.schema_id = s.schema_id
LEFT JOIN sys.default_constraints dc ON c.default_object_id = dc.object_id
LEFT JOIN sys.computed_columns cc ON c.object_id = cc.object_id AND c.column_id = cc.column_id
LEFT JOIN sys.extended_properties ep ON ep.major_id = c.object_id AND ep.minor_id = c.column_id AND ep.name = 'MS_Description'
WHERE tbl.name = @p1`

const tableIndexesSQL = `
SELECT
    i.name AS index_name,
    i.type_desc AS index_type,
    i.is_unique,
    i.is_primary_key,
    c.name AS column_name,
    ic.key_ordinal,
    ic.is_included_column,
    ic.is_descending_key
FROM sys.indexes i
INNER JOIN sys.index_columns ic ON i.object_id = ic.object_id AND i.index_id = ic.index_id
INNER JOIN sys.columns c ON ic.object_id = c.object_id AND ic.column_id = c.column_id
INNER JOIN sys.tables t ON i.object_id = t.object_id
INNER JOIN sys.schemas s ON t.schema_id = s.schema_id
WHERE t.name = @p1`

const foreignKeysSQL = `
SELECT
    fk.name AS constraint_name,
    ps.name AS %s,
    pt.name AS %s,
    pc.name AS %s,
    rs.name AS referenced_schema,
    rt.name AS referenced_table,
    rc.name AS referenced_column,
    fk.delete_referential_action_desc AS on_delete,
    fk.update_referential_action_desc AS on_update
FROM sys.foreign_keys fk
INNER JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
INNER JOIN sys.tables pt ON fk.parent_object_id = pt.object_id
INNER JOIN sys.schemas ps ON pt.schema_id = ps.schema_id
INNER JOIN sys.columns pc ON fkc.parent_object_id = pc.object_id AND fkc.parent_column_id = pc.column_id
INNER JOIN sys.tables rt ON fk.referenced_object_id = rt.object_id
INNER JOIN sys.schemas rs ON rt.schema_id = rs.schema_id
INNER JOIN sys.columns rc ON fkc.referenced_object_id = rc.object_id AND fkc.referenced_column_id = rc.column_id
WHERE %s.name = @p1`

// ListTables lists user tables in a database with row counts and sizes.
func (m *SQLServerMcp) ListTables(ctx context.Context, input ListTablesInput) (*ListTablesOutput, error) {
	startTime := time.Now()

	release, err := m.acquire(ctx, "ListTables")
	if err != nil {
		return nil, err
	}
	defer release()

	query := listTablesSQL
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
		query += fmt.Sprintf(" AND t.name LIKE @p%d", len(args))
	}
	query += `
GROUP BY s.name, t.name, p.rows, t.create_date, t.modify_date
ORDER BY s.name, t.name`

	rs, err := m.execQuery(ctx, input.Database, query, 0, args...)
	if err != nil {
		return nil, err
	}

	m.logger.Info().
		Dur("duration", time.Since(startTime)).
		Int("table_count", len(rs.Rows)).
		Msg("ListTables executed")

	return &ListTablesOutput{Tables: rs.Rows, Count: len(rs.Rows)}, nil
}

// TableDefinition reconstructs a CREATE TABLE statement from catalog metadata:
// column types with lengths and precision, identity, computed columns,
// defaults, nullability, and the primary key constraint.
func (m *SQLServerMcp) TableDefinition(ctx context.Context, input TableDefinitionInput) (string, error) {
	release, err := m.acquire(ctx, "TableDefinition")
	if err != nil {
		return "", err
	}
	defer release()

	schema, table, err := sanitizeObject(input.Table)
	if err != nil {
		return "", err
	}

	columnsQuery, pkQuery := tableColumnsDDLSQL, tablePrimaryKeySQL
	args := []interface{}{table}
	if schema != "" {
		args = append(args, schema)
		columnsQuery += " AND s.name = @p2"
		pkQuery += " AND s.name = @p2"
	}
	columnsQuery += "\nORDER BY c.column_id"
	pkQuery += "\nORDER BY ic.key_ordinal"

	columns, err := m.execQuery(ctx, input.Database, columnsQuery, 0, args...)
	if err != nil {
		return "", err
	}
	pkColumns, err := m.execQuery(ctx, input.Database, pkQuery, 0, args...)
	if err != nil {
		return "", err
	}

	var colDefs []string
	for _, col := range columns.Rows {
		colDefs = append(colDefs, "    "+columnDDL(col))
	}
	if len(pkColumns.Rows) > 0 {
		pkName := rowString(pkColumns.Rows[0], "constraint_name")
		var pkCols []string
		for _, pk := range pkColumns.Rows {
			pkCols = append(pkCols, ident.Quote(rowString(pk, "column_name")))
		}
		colDefs = append(colDefs, fmt.Sprintf("    CONSTRAINT %s PRIMARY KEY (%s)",
			ident.Quote(pkName), strings.Join(pkCols, ", ")))
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (\n%s\n);", quoteObject(schema, table), strings.Join(colDefs, ",\n"))
	return ddl, nil
}

// columnDDL renders a single column definition for TableDefinition.
func columnDDL(col map[string]interface{}) string {
	def := ident.Quote(rowString(col, "column_name")) + " "

	if computed := rowString(col, "computed_definition"); computed != "" {
		return def + "AS " + computed
	}

	dtype := rowString(col, "data_type")
	maxLength := rowInt64(col, "max_length")
	switch dtype {
	case "varchar", "nvarchar", "char", "nchar", "binary", "varbinary":
		length := "MAX"
		if maxLength != -1 {
			// n-types store byte length, two bytes per character
			if strings.HasPrefix(dtype, "n") {
				length = fmt.Sprintf("%d", maxLength/2)
			} else {
				length = fmt.Sprintf("%d", maxLength)
			}
		}
		def += fmt.Sprintf("%s(%s)", dtype, length)
	case "decimal", "numeric":
		def += fmt.Sprintf("%s(%d,%d)", dtype, rowInt64(col, "precision"), rowInt64(col, "scale"))
	case "float", "real":
		if precision := rowInt64(col, "precision"); precision > 0 {
			def += fmt.Sprintf("%s(%d)", dtype, precision)
		} else {
			def += dtype
		}
	default:
		def += dtype
	}

	if rowBool(col, "is_identity") {
		seed := rowInt64(col, "seed_value")
		if seed == 0 {
			seed = 1
		}
		incr := rowInt64(col, "increment_value")
		if incr == 0 {
			incr = 1
		}
		def += fmt.Sprintf(" IDENTITY(%d,%d)", seed, incr)
	}

	if rowBool(col, "is_nullable") {
		def += " NULL"
	} else {
		def += " NOT NULL"
	}

	if dflt := rowString(col, "default_value"); dflt != "" {
		def += " DEFAULT " + dflt
	}

	return def
}

// TableColumns returns detailed column metadata for a table, including
// defaults, computed definitions, and MS_Description extended properties.
func (m *SQLServerMcp) TableColumns(ctx context.Context, input TableColumnsInput) (*TableColumnsOutput, error) {
	startTime := time.Now()

	release, err := m.acquire(ctx, "TableColumns")
	if err != nil {
		return nil, err
	}
	defer release()

	schema, table, err := sanitizeObject(input.Table)
	if err != nil {
		return nil, err
	}

	query := tableColumnsSQL
	args := []interface{}{table}
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
		Str("table", input.Table).
		Dur("duration", time.Since(startTime)).
		Int("column_count", len(rs.Rows)).
		Msg("TableColumns executed")

	return &TableColumnsOutput{Table: input.Table, Columns: rs.Rows, Count: len(rs.Rows)}, nil
}

// TableIndexes returns the indexes on a table, with key and included columns
// aggregated per index.
func (m *SQLServerMcp) TableIndexes(ctx context.Context, input TableIndexesInput) (*TableIndexesOutput, error) {
	startTime := time.Now()

	release, err := m.acquire(ctx, "TableIndexes")
	if err != nil {
		return nil, err
	}
	defer release()

	schema, table, err := sanitizeObject(input.Table)
	if err != nil {
		return nil, err
	}

	query := tableIndexesSQL
	args := []interface{}{table}
	if schema != "" {
		args = append(args, schema)
		query += " AND s.name = @p2"
	}
	query += "\nAND i.name IS NOT NULL\nORDER BY i.is_primary_key DESC, i.name, ic.key_ordinal"

	rs, err := m.execQuery(ctx, input.Database, query, 0, args...)
	if err != nil {
		return nil, err
	}

	// One row per index column; aggregate into one entry per index.
	var order []string
	entries := make(map[string]*IndexEntry)
	included := make(map[string][]string)
	keys := make(map[string][]string)
	for _, row := range rs.Rows {
		name := rowString(row, "index_name")
		if _, ok := entries[name]; !ok {
			entries[name] = &IndexEntry{
				IndexName:    name,
				IndexType:    rowString(row, "index_type"),
				IsUnique:     rowBool(row, "is_unique"),
				IsPrimaryKey: rowBool(row, "is_primary_key"),
			}
			order = append(order, name)
		}
		column := rowString(row, "column_name")
		if rowBool(row, "is_included_column") {
			included[name] = append(included[name], column)
		} else {
			keys[name] = append(keys[name], column)
		}
	}

	indexes := make([]IndexEntry, 0, len(order))
	for _, name := range order {
		entry := entries[name]
		entry.Columns = strings.Join(keys[name], ", ")
		entry.IncludedColumns = strings.Join(included[name], ", ")
		indexes = append(indexes, *entry)
	}

	m.logger.Info().
		Str("table", input.Table).
		Dur("duration", time.Since(startTime)).
		Int("index_count", len(indexes)).
		Msg("TableIndexes executed")

	return &TableIndexesOutput{Table: input.Table, Indexes: indexes, Count: len(indexes)}, nil
}

// TableRelationships returns the foreign keys a table declares (outgoing) and
// the foreign keys in other tables that reference it (incoming).
func (m *SQLServerMcp) TableRelationships(ctx context.Context, input TableRelationshipsInput) (*TableRelationshipsOutput, error) {
	startTime := time.Now()

	release, err := m.acquire(ctx, "TableRelationships")
	if err != nil {
		return nil, err
	}
	defer release()

	schema, table, err := sanitizeObject(input.Table)
	if err != nil {
		return nil, err
	}

	outgoingQuery := fmt.Sprintf(foreignKeysSQL, "parent_schema", "parent_table", "parent_column", "pt")
	incomingQuery := fmt.Sprintf(foreignKeysSQL, "referencing_schema", "referencing_table", "referencing_column", "rt")
	args := []interface{}{table}
	if schema != "" {
		args = append(args, schema)
		outgoingQuery += " AND ps.name = @p2"
		incomingQuery += " AND rs.name = @p2"
	}
	outgoingQuery += "\nORDER BY fk.name, fkc.constraint_column_id"
	incomingQuery += "\nORDER BY fk.name, fkc.constraint_column_id"

	outgoing, err := m.execQuery(ctx, input.Database, outgoingQuery, 0, args...)
	if err != nil {
		return nil, err
	}
	incoming, err := m.execQuery(ctx, input.Database, incomingQuery, 0, args...)
	if err != nil {
		return nil, err
	}

	m.logger.Info().
		Str("table", input.Table).
		Dur("duration", time.Since(startTime)).
		Int("outgoing_count", len(outgoing.Rows)).
		Int("incoming_count", len(incoming.Rows)).
		Msg("TableRelationships executed")

	return &TableRelationshipsOutput{
		Table:    input.Table,
		Outgoing: outgoing.Rows,
		Incoming: incoming.Rows,
	}, nil
}
