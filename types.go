package mssqlmcp

// QueryInput is the input for the Query tool.
type QueryInput struct {
	SQL      string `json:"sql"`
	Database string `json:"database,omitempty"`
	MaxRows  int    `json:"max_rows,omitempty"`
}

// QueryOutput is the output of the Query tool. Gate rejections set Error and
// QueryBlocked; driver errors set only Error (scrubbed of credentials).
// Callers only need to check Error, never a Go error.
type QueryOutput struct {
	Results      []map[string]interface{} `json:"results"`
	RowCount     int                      `json:"row_count"`
	Truncated    bool                     `json:"truncated"`
	MaxRows      int                      `json:"max_rows"`
	Error        string                   `json:"error,omitempty"`
	QueryBlocked bool                     `json:"query_blocked,omitempty"`
}

// SampleDataInput is the input for the SampleData tool.
type SampleDataInput struct {
	Table    string `json:"table"`
	Database string `json:"database,omitempty"`
	Rows     int    `json:"rows,omitempty"`
	Random   bool   `json:"random,omitempty"`
}

// SampleDataOutput is the output of the SampleData tool.
type SampleDataOutput struct {
	Table      string                   `json:"table"`
	SampleData []map[string]interface{} `json:"sample_data"`
	RowCount   int                      `json:"row_count"`
	IsRandom   bool                     `json:"is_random"`
	Error      string                   `json:"error,omitempty"`
}

// ListDatabasesInput is the input for the ListDatabases tool.
type ListDatabasesInput struct {
	IncludeSystem bool   `json:"include_system,omitempty"`
	NamePattern   string `json:"name_pattern,omitempty"`
}

// ListDatabasesOutput is the output of the ListDatabases tool.
type ListDatabasesOutput struct {
	Databases []map[string]interface{} `json:"databases"`
	Count     int                      `json:"count"`
	Error     string                   `json:"error,omitempty"`
}

// ListSchemasInput is the input for the ListSchemas tool.
type ListSchemasInput struct {
	Database string `json:"database,omitempty"`
}

// ListSchemasOutput is the output of the ListSchemas tool.
type ListSchemasOutput struct {
	Database string                   `json:"database"`
	Schemas  []map[string]interface{} `json:"schemas"`
	Count    int                      `json:"count"`
	Error    string                   `json:"error,omitempty"`
}

// SchemaOverviewInput is the input for the SchemaOverview tool.
type SchemaOverviewInput struct {
	Database string `json:"database,omitempty"`
}

// SchemaOverviewOutput is the output of the SchemaOverview tool.
type SchemaOverviewOutput struct {
	Database   string                   `json:"database"`
	Tables     int64                    `json:"tables"`
	Views      int64                    `json:"views"`
	Procedures int64                    `json:"procedures"`
	Functions  int64                    `json:"functions"`
	SizeMB     float64                  `json:"size_mb"`
	Schemas    []map[string]interface{} `json:"schemas"`
	Error      string                   `json:"error,omitempty"`
}

// ListTablesInput is the input for the ListTables tool.
type ListTablesInput struct {
	Database    string `json:"database,omitempty"`
	Schema      string `json:"schema,omitempty"`
	NamePattern string `json:"name_pattern,omitempty"`
}

// ListTablesOutput is the output of the ListTables tool.
type ListTablesOutput struct {
	Tables []map[string]interface{} `json:"tables"`
	Count  int                      `json:"count"`
	Error  string                   `json:"error,omitempty"`
}

// TableDefinitionInput is the input for the TableDefinition tool.
type TableDefinitionInput struct {
	Table    string `json:"table"` // may include a schema prefix, e.g. "dbo.users"
	Database string `json:"database,omitempty"`
}

// TableColumnsInput is the input for the TableColumns tool.
type TableColumnsInput struct {
	Table    string `json:"table"`
	Database string `json:"database,omitempty"`
}

// TableColumnsOutput is the output of the TableColumns tool.
type TableColumnsOutput struct {
	Table   string                   `json:"table"`
	Columns []map[string]interface{} `json:"columns"`
	Count   int                      `json:"count"`
	Error   string                   `json:"error,omitempty"`
}

// TableIndexesInput is the input for the TableIndexes tool.
type TableIndexesInput struct {
	Table    string `json:"table"`
	Database string `json:"database,omitempty"`
}

// IndexEntry describes a single index with its key and included columns
// aggregated into comma-separated lists.
type IndexEntry struct {
	IndexName       string `json:"index_name"`
	IndexType       string `json:"index_type"`
	IsUnique        bool   `json:"is_unique"`
	IsPrimaryKey    bool   `json:"is_primary_key"`
	Columns         string `json:"columns"`
	IncludedColumns string `json:"included_columns,omitempty"`
}

// TableIndexesOutput is the output of the TableIndexes tool.
type TableIndexesOutput struct {
	Table   string       `json:"table"`
	Indexes []IndexEntry `json:"indexes"`
	Count   int          `json:"count"`
	Error   string       `json:"error,omitempty"`
}

// TableRelationshipsInput is the input for the TableRelationships tool.
type TableRelationshipsInput struct {
	Table    string `json:"table"`
	Database string `json:"database,omitempty"`
}

// TableRelationshipsOutput is the output of the TableRelationships tool.
// Outgoing lists foreign keys this table declares; Incoming lists foreign
// keys in other tables that reference it.
type TableRelationshipsOutput struct {
	Table    string                   `json:"table"`
	Outgoing []map[string]interface{} `json:"outgoing_relationships"`
	Incoming []map[string]interface{} `json:"incoming_relationships"`
	Error    string                   `json:"error,omitempty"`
}

// ListViewsInput is the input for the ListViews tool.
type ListViewsInput struct {
	Database    string `json:"database,omitempty"`
	Schema      string `json:"schema,omitempty"`
	NamePattern string `json:"name_pattern,omitempty"`
}

// ListViewsOutput is the output of the ListViews tool.
type ListViewsOutput struct {
	Views []map[string]interface{} `json:"views"`
	Count int                      `json:"count"`
	Error string                   `json:"error,omitempty"`
}

// ViewDefinitionInput is the input for the ViewDefinition tool.
type ViewDefinitionInput struct {
	View     string `json:"view"`
	Database string `json:"database,omitempty"`
}

// ViewColumnsInput is the input for the ViewColumns tool.
type ViewColumnsInput struct {
	View     string `json:"view"`
	Database string `json:"database,omitempty"`
}

// ViewColumnsOutput is the output of the ViewColumns tool.
type ViewColumnsOutput struct {
	View    string                   `json:"view"`
	Columns []map[string]interface{} `json:"columns"`
	Count   int                      `json:"count"`
	Error   string                   `json:"error,omitempty"`
}

// ListProceduresInput is the input for the ListProcedures tool.
type ListProceduresInput struct {
	Database      string `json:"database,omitempty"`
	Schema        string `json:"schema,omitempty"`
	NamePattern   string `json:"name_pattern,omitempty"`
	IncludeSystem bool   `json:"include_system,omitempty"`
}

// ListProceduresOutput is the output of the ListProcedures tool.
type ListProceduresOutput struct {
	Procedures []map[string]interface{} `json:"procedures"`
	Count      int                      `json:"count"`
	Error      string                   `json:"error,omitempty"`
}

// ProcedureDefinitionInput is the input for the ProcedureDefinition tool.
type ProcedureDefinitionInput struct {
	Procedure string `json:"procedure"`
	Database  string `json:"database,omitempty"`
}

// ProcedureParametersInput is the input for the ProcedureParameters tool.
type ProcedureParametersInput struct {
	Procedure string `json:"procedure"`
	Database  string `json:"database,omitempty"`
}

// ProcedureParametersOutput is the output of the ProcedureParameters tool.
// Each parameter carries a "direction" key: INPUT or OUTPUT.
type ProcedureParametersOutput struct {
	Procedure  string                   `json:"procedure"`
	Parameters []map[string]interface{} `json:"parameters"`
	Count      int                      `json:"count"`
	Error      string                   `json:"error,omitempty"`
}

// ListFunctionsInput is the input for the ListFunctions tool.
type ListFunctionsInput struct {
	Database     string `json:"database,omitempty"`
	Schema       string `json:"schema,omitempty"`
	FunctionType string `json:"function_type,omitempty"` // "scalar", "table", or "all"
}

// ListFunctionsOutput is the output of the ListFunctions tool.
type ListFunctionsOutput struct {
	Functions []map[string]interface{} `json:"functions"`
	Count     int                      `json:"count"`
	Error     string                   `json:"error,omitempty"`
}

// FunctionDefinitionInput is the input for the FunctionDefinition tool.
type FunctionDefinitionInput struct {
	Function string `json:"function"`
	Database string `json:"database,omitempty"`
}

// SearchObjectsInput is the input for the SearchObjects tool.
type SearchObjectsInput struct {
	Pattern     string   `json:"pattern"` // SQL LIKE syntax
	ObjectTypes []string `json:"object_types,omitempty"`
	Database    string   `json:"database,omitempty"`
}

// SearchObjectsOutput is the output of the SearchObjects tool.
type SearchObjectsOutput struct {
	Pattern           string                   `json:"pattern"`
	Results           []map[string]interface{} `json:"results"`
	Count             int                      `json:"count"`
	DatabasesSearched int                      `json:"databases_searched"`
	Error             string                   `json:"error,omitempty"`
}

// SearchDefinitionsInput is the input for the SearchDefinitions tool.
type SearchDefinitionsInput struct {
	Pattern     string   `json:"pattern"`
	ObjectTypes []string `json:"object_types,omitempty"`
	Database    string   `json:"database,omitempty"`
}

// SearchDefinitionsOutput is the output of the SearchDefinitions tool.
type SearchDefinitionsOutput struct {
	Pattern           string                   `json:"pattern"`
	Results           []map[string]interface{} `json:"results"`
	Count             int                      `json:"count"`
	DatabasesSearched int                      `json:"databases_searched"`
	Error             string                   `json:"error,omitempty"`
}
