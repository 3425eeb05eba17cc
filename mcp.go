package mssqlmcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers all introspection and query tools on the given
// MCP server. Every tool runs behind the statement-safety gate and the
// database access policy.
func RegisterMCPTools(mcpServer *server.MCPServer, m *SQLServerMcp) {
	registerDatabaseTools(mcpServer, m)
	registerTableTools(mcpServer, m)
	registerViewTools(mcpServer, m)
	registerProcedureTools(mcpServer, m)
	registerFunctionTools(mcpServer, m)
	registerQueryTools(mcpServer, m)
	registerSearchTools(mcpServer, m)
}

func registerDatabaseTools(mcpServer *server.MCPServer, m *SQLServerMcp) {
	listDatabasesTool := mcp.NewTool("list_databases",
		mcp.WithDescription("List all accessible databases on the SQL Server with state, recovery model, and size."),
		mcp.WithBoolean("include_system",
			mcp.Description("Include system databases (master, model, msdb, tempdb)"),
		),
		mcp.WithString("name_pattern",
			mcp.Description("Filter by name pattern (SQL LIKE syntax)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(listDatabasesTool, m.loggedToolHandler("list_databases", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		output, err := m.ListDatabases(ctx, ListDatabasesInput{
			IncludeSystem: req.GetBool("include_system", false),
			NamePattern:   req.GetString("name_pattern", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(output)
	}))

	listSchemasTool := mcp.NewTool("list_schemas",
		mcp.WithDescription("List all schemas in a database with object counts."),
		mcp.WithString("database",
			mcp.Description("Database name (defaults to the configured database)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(listSchemasTool, m.loggedToolHandler("list_schemas", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		output, err := m.ListSchemas(ctx, ListSchemasInput{
			Database: req.GetString("database", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(output)
	}))

	schemaOverviewTool := mcp.NewTool("get_schema_overview",
		mcp.WithDescription("Get an overview of a database: object counts by type, total size, and per-schema object counts."),
		mcp.WithString("database",
			mcp.Description("Database name (defaults to the configured database)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(schemaOverviewTool, m.loggedToolHandler("get_schema_overview", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		output, err := m.SchemaOverview(ctx, SchemaOverviewInput{
			Database: req.GetString("database", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(output)
	}))
}

func registerTableTools(mcpServer *server.MCPServer, m *SQLServerMcp) {
	listTablesTool := mcp.NewTool("list_tables",
		mcp.WithDescription("List all tables in a database with row counts and sizes."),
		mcp.WithString("database",
			mcp.Description("Database name (defaults to the configured database)"),
		),
		mcp.WithString("schema",
			mcp.Description("Filter by schema"),
		),
		mcp.WithString("name_pattern",
			mcp.Description("Filter by name pattern (SQL LIKE syntax)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(listTablesTool, m.loggedToolHandler("list_tables", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		output, err := m.ListTables(ctx, ListTablesInput{
			Database:    req.GetString("database", ""),
			Schema:      req.GetString("schema", ""),
			NamePattern: req.GetString("name_pattern", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(output)
	}))

	tableDefinitionTool := mcp.NewTool("get_table_definition",
		mcp.WithDescription("Get the full CREATE TABLE definition for a table."),
		mcp.WithString("table",
			mcp.Required(),
			mcp.Description("Table name, optionally schema-qualified (e.g. dbo.users)"),
		),
		mcp.WithString("database",
			mcp.Description("Database name (defaults to the configured database)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(tableDefinitionTool, m.loggedToolHandler("get_table_definition", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table")
		if err != nil {
			return mcp.NewToolResultError("table parameter is required"), nil
		}
		ddl, err := m.TableDefinition(ctx, TableDefinitionInput{
			Table:    table,
			Database: req.GetString("database", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(ddl), nil
	}))

	tableColumnsTool := mcp.NewTool("get_table_columns",
		mcp.WithDescription("Get detailed column information for a table."),
		mcp.WithString("table",
			mcp.Required(),
			mcp.Description("Table name, optionally schema-qualified"),
		),
		mcp.WithString("database",
			mcp.Description("Database name (defaults to the configured database)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(tableColumnsTool, m.loggedToolHandler("get_table_columns", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table")
		if err != nil {
			return mcp.NewToolResultError("table parameter is required"), nil
		}
		output, err := m.TableColumns(ctx, TableColumnsInput{
			Table:    table,
			Database: req.GetString("database", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(output)
	}))

	tableIndexesTool := mcp.NewTool("get_table_indexes",
		mcp.WithDescription("Get index information for a table."),
		mcp.WithString("table",
			mcp.Required(),
			mcp.Description("Table name, optionally schema-qualified"),
		),
		mcp.WithString("database",
			mcp.Description("Database name (defaults to the configured database)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(tableIndexesTool, m.loggedToolHandler("get_table_indexes", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table")
		if err != nil {
			return mcp.NewToolResultError("table parameter is required"), nil
		}
		output, err := m.TableIndexes(ctx, TableIndexesInput{
			Table:    table,
			Database: req.GetString("database", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(output)
	}))

	tableRelationshipsTool := mcp.NewTool("get_table_relationships",
		mcp.WithDescription("Get foreign key relationships for a table, both outgoing and incoming."),
		mcp.WithString("table",
			mcp.Required(),
			mcp.Description("Table name, optionally schema-qualified"),
		),
		mcp.WithString("database",
			mcp.Description("Database name (defaults to the configured database)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(tableRelationshipsTool, m.loggedToolHandler("get_table_relationships", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table")
		if err != nil {
			return mcp.NewToolResultError("table parameter is required"), nil
		}
		output, err := m.TableRelationships(ctx, TableRelationshipsInput{
			Table:    table,
			Database: req.GetString("database", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(output)
	}))
}

func registerViewTools(mcpServer *server.MCPServer, m *SQLServerMcp) {
	listViewsTool := mcp.NewTool("list_views",
		mcp.WithDescription("List all views in a database."),
		mcp.WithString("database",
			mcp.Description("Database name (defaults to the configured database)"),
		),
		mcp.WithString("schema",
			mcp.Description("Filter by schema"),
		),
		mcp.WithString("name_pattern",
			mcp.Description("Filter by name pattern (SQL LIKE syntax)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(listViewsTool, m.loggedToolHandler("list_views", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		output, err := m.ListViews(ctx, ListViewsInput{
			Database:    req.GetString("database", ""),
			Schema:      req.GetString("schema", ""),
			NamePattern: req.GetString("name_pattern", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(output)
	}))

	viewDefinitionTool := mcp.NewTool("get_view_definition",
		mcp.WithDescription("Get the CREATE VIEW definition for a view."),
		mcp.WithString("view",
			mcp.Required(),
			mcp.Description("View name, optionally schema-qualified"),
		),
		mcp.WithString("database",
			mcp.Description("Database name (defaults to the configured database)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(viewDefinitionTool, m.loggedToolHandler("get_view_definition", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		view, err := req.RequireString("view")
		if err != nil {
			return mcp.NewToolResultError("view parameter is required"), nil
		}
		definition, err := m.ViewDefinition(ctx, ViewDefinitionInput{
			View:     view,
			Database: req.GetString("database", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(definition), nil
	}))

	viewColumnsTool := mcp.NewTool("get_view_columns",
		mcp.WithDescription("Get column information for a view."),
		mcp.WithString("view",
			mcp.Required(),
			mcp.Description("View name, optionally schema-qualified"),
		),
		mcp.WithString("database",
			mcp.Description("Database name (defaults to the configured database)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(viewColumnsTool, m.loggedToolHandler("get_view_columns", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		view, err := req.RequireString("view")
		if err != nil {
			return mcp.NewToolResultError("view parameter is required"), nil
		}
		output, err := m.ViewColumns(ctx, ViewColumnsInput{
			View:     view,
			Database: req.GetString("database", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(output)
	}))
}

func registerProcedureTools(mcpServer *server.MCPServer, m *SQLServerMcp) {
	listProceduresTool := mcp.NewTool("list_procedures",
		mcp.WithDescription("List all stored procedures in a database."),
		mcp.WithString("database",
			mcp.Description("Database name (defaults to the configured database)"),
		),
		mcp.WithString("schema",
			mcp.Description("Filter by schema"),
		),
		mcp.WithString("name_pattern",
			mcp.Description("Filter by name pattern (SQL LIKE syntax)"),
		),
		mcp.WithBoolean("include_system",
			mcp.Description("Include system procedures"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(listProceduresTool, m.loggedToolHandler("list_procedures", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		output, err := m.ListProcedures(ctx, ListProceduresInput{
			Database:      req.GetString("database", ""),
			Schema:        req.GetString("schema", ""),
			NamePattern:   req.GetString("name_pattern", ""),
			IncludeSystem: req.GetBool("include_system", false),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(output)
	}))

	procedureDefinitionTool := mcp.NewTool("get_procedure_definition",
		mcp.WithDescription("Get the CREATE PROCEDURE definition for a stored procedure."),
		mcp.WithString("procedure",
			mcp.Required(),
			mcp.Description("Procedure name, optionally schema-qualified"),
		),
		mcp.WithString("database",
			mcp.Description("Database name (defaults to the configured database)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(procedureDefinitionTool, m.loggedToolHandler("get_procedure_definition", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		procedure, err := req.RequireString("procedure")
		if err != nil {
			return mcp.NewToolResultError("procedure parameter is required"), nil
		}
		definition, err := m.ProcedureDefinition(ctx, ProcedureDefinitionInput{
			Procedure: procedure,
			Database:  req.GetString("database", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(definition), nil
	}))

	procedureParametersTool := mcp.NewTool("get_procedure_parameters",
		mcp.WithDescription("Get parameter information for a stored procedure."),
		mcp.WithString("procedure",
			mcp.Required(),
			mcp.Description("Procedure name, optionally schema-qualified"),
		),
		mcp.WithString("database",
			mcp.Description("Database name (defaults to the configured database)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(procedureParametersTool, m.loggedToolHandler("get_procedure_parameters", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		procedure, err := req.RequireString("procedure")
		if err != nil {
			return mcp.NewToolResultError("procedure parameter is required"), nil
		}
		output, err := m.ProcedureParameters(ctx, ProcedureParametersInput{
			Procedure: procedure,
			Database:  req.GetString("database", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(output)
	}))
}

func registerFunctionTools(mcpServer *server.MCPServer, m *SQLServerMcp) {
	listFunctionsTool := mcp.NewTool("list_functions",
		mcp.WithDescription("List all user-defined functions in a database."),
		mcp.WithString("database",
			mcp.Description("Database name (defaults to the configured database)"),
		),
		mcp.WithString("schema",
			mcp.Description("Filter by schema"),
		),
		mcp.WithString("function_type",
			mcp.Description("Filter by type: 'scalar', 'table', or 'all'"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(listFunctionsTool, m.loggedToolHandler("list_functions", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		output, err := m.ListFunctions(ctx, ListFunctionsInput{
			Database:     req.GetString("database", ""),
			Schema:       req.GetString("schema", ""),
			FunctionType: req.GetString("function_type", "all"),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(output)
	}))

	functionDefinitionTool := mcp.NewTool("get_function_definition",
		mcp.WithDescription("Get the CREATE FUNCTION definition for a user-defined function."),
		mcp.WithString("function",
			mcp.Required(),
			mcp.Description("Function name, optionally schema-qualified"),
		),
		mcp.WithString("database",
			mcp.Description("Database name (defaults to the configured database)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(functionDefinitionTool, m.loggedToolHandler("get_function_definition", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		function, err := req.RequireString("function")
		if err != nil {
			return mcp.NewToolResultError("function parameter is required"), nil
		}
		definition, err := m.FunctionDefinition(ctx, FunctionDefinitionInput{
			Function: function,
			Database: req.GetString("database", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(definition), nil
	}))
}

func registerQueryTools(mcpServer *server.MCPServer, m *SQLServerMcp) {
	executeQueryTool := mcp.NewTool("execute_query",
		mcp.WithDescription("Execute a read-only SELECT query. Mutation statements are rejected."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The SELECT query to execute"),
		),
		mcp.WithString("database",
			mcp.Description("Database to query (defaults to the configured database)"),
		),
		mcp.WithNumber("max_rows",
			mcp.Description("Maximum rows to return"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(executeQueryTool, m.loggedToolHandler("execute_query", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query parameter is required"), nil
		}
		output := m.Query(ctx, QueryInput{
			SQL:      query,
			Database: req.GetString("database", ""),
			MaxRows:  req.GetInt("max_rows", 0),
		})
		// Gate rejections are reported as structured output, not tool errors,
		// so agents can read query_blocked and self-correct.
		return toolResultJSON(output)
	}))

	sampleDataTool := mcp.NewTool("get_sample_data",
		mcp.WithDescription("Get sample rows from a table, either the first N or a random sample."),
		mcp.WithString("table",
			mcp.Required(),
			mcp.Description("Table name, optionally schema-qualified"),
		),
		mcp.WithString("database",
			mcp.Description("Database name (defaults to the configured database)"),
		),
		mcp.WithNumber("rows",
			mcp.Description("Number of rows to return (default 10)"),
		),
		mcp.WithBoolean("random",
			mcp.Description("Return a random sample instead of the first N rows"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(sampleDataTool, m.loggedToolHandler("get_sample_data", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table")
		if err != nil {
			return mcp.NewToolResultError("table parameter is required"), nil
		}
		output, err := m.SampleData(ctx, SampleDataInput{
			Table:    table,
			Database: req.GetString("database", ""),
			Rows:     req.GetInt("rows", 0),
			Random:   req.GetBool("random", false),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(output)
	}))
}

func registerSearchTools(mcpServer *server.MCPServer, m *SQLServerMcp) {
	searchObjectsTool := mcp.NewTool("search_objects",
		mcp.WithDescription("Search for database objects by name across all accessible databases."),
		mcp.WithString("pattern",
			mcp.Required(),
			mcp.Description("Name pattern to search for (SQL LIKE syntax)"),
		),
		mcp.WithArray("object_types",
			mcp.Description("Object types to search: table, view, procedure, function"),
		),
		mcp.WithString("database",
			mcp.Description("Limit search to a specific database"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(searchObjectsTool, m.loggedToolHandler("search_objects", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pattern, err := req.RequireString("pattern")
		if err != nil {
			return mcp.NewToolResultError("pattern parameter is required"), nil
		}
		output, err := m.SearchObjects(ctx, SearchObjectsInput{
			Pattern:     pattern,
			ObjectTypes: req.GetStringSlice("object_types", nil),
			Database:    req.GetString("database", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(output)
	}))

	searchDefinitionsTool := mcp.NewTool("search_definitions",
		mcp.WithDescription("Search within view, procedure, and function definitions across all accessible databases."),
		mcp.WithString("pattern",
			mcp.Required(),
			mcp.Description("Text pattern to search for"),
		),
		mcp.WithArray("object_types",
			mcp.Description("Object types to search: view, procedure, function"),
		),
		mcp.WithString("database",
			mcp.Description("Limit search to a specific database"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	mcpServer.AddTool(searchDefinitionsTool, m.loggedToolHandler("search_definitions", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pattern, err := req.RequireString("pattern")
		if err != nil {
			return mcp.NewToolResultError("pattern parameter is required"), nil
		}
		output, err := m.SearchDefinitions(ctx, SearchDefinitionsInput{
			Pattern:     pattern,
			ObjectTypes: req.GetStringSlice("object_types", nil),
			Database:    req.GetString("database", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(output)
	}))
}

// toolResultJSON marshals a tool output as a JSON text result.
func toolResultJSON(v interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError("failed to marshal tool result"), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// loggedToolHandler wraps a tool handler to log request and response lengths.
func (m *SQLServerMcp) loggedToolHandler(tool string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reqLen := requestLength(req)
		result, err := handler(ctx, req)
		respLen := resultLength(result)
		m.logger.Info().
			Str("tool", tool).
			Int("request_bytes", reqLen).
			Int("response_bytes", respLen).
			Msg("tool call")
		return result, err
	}
}

// requestLength returns the JSON-encoded byte length of the request arguments.
func requestLength(req mcp.CallToolRequest) int {
	args := req.GetArguments()
	if len(args) == 0 {
		return 0
	}
	b, err := json.Marshal(args)
	if err != nil {
		return 0
	}
	return len(b)
}

// resultLength returns the total byte length of text content in a CallToolResult.
func resultLength(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	total := 0
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			total += len(tc.Text)
		}
	}
	return total
}
