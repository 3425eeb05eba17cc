package mssqlmcp

// Config is the base configuration used by library mode via New().
type Config struct {
	Pool   PoolConfig   `json:"pool"`
	Query  QueryConfig  `json:"query"`
	Access AccessConfig `json:"access"`
}

// ServerConfig embeds Config and adds server-only fields for CLI mode.
type ServerConfig struct {
	Config
	Connection ConnectionConfig `json:"connection"`
	Server     ServerSettings   `json:"server"`
	Logging    LoggingConfig    `json:"logging"`
}

// ConnectionConfig holds database connection parameters used by CLI mode.
// Credentials are never stored here. They come from the environment or an
// interactive prompt at startup.
type ConnectionConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Encrypt  string `json:"encrypt"` // "disable", "false", "true"
}

// PoolConfig holds connection pool settings, applied to each per-database handle.
type PoolConfig struct {
	MaxConns        int    `json:"max_conns"`
	MaxIdleConns    int    `json:"max_idle_conns"`
	ConnMaxLifetime string `json:"conn_max_lifetime"`
	ConnMaxIdleTime string `json:"conn_max_idle_time"`
}

// QueryConfig holds query execution settings.
type QueryConfig struct {
	TimeoutSeconds int `json:"timeout_seconds"`
	MaxRows        int `json:"max_rows"`
	MaxSQLLength   int `json:"max_sql_length"`
}

// AccessConfig controls which databases may be reached. A database on the
// blocked list is always denied. An empty allowed list means every database
// not blocked is reachable.
type AccessConfig struct {
	AllowedDatabases []string `json:"allowed_databases"`
	BlockedDatabases []string `json:"blocked_databases"`
}

// ServerSettings holds HTTP server settings for CLI mode.
type ServerSettings struct {
	Port               int    `json:"port"`
	HealthCheckEnabled bool   `json:"health_check_enabled"`
	HealthCheckPath    string `json:"health_check_path"`
}

// LoggingConfig holds logging settings for CLI mode.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stdout, stderr, or file path
}
