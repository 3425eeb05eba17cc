package mssqlmcp

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/rs/zerolog"

	"github.com/millelog/sql-server-mcp/internal/access"
	"github.com/millelog/sql-server-mcp/internal/scrub"
	"github.com/millelog/sql-server-mcp/internal/validate"
)

// SQLServerMcp is the core engine behind all tools. It holds one lazily-opened
// *sql.DB per database, gated by the access policy. All exported methods are
// safe for concurrent use from multiple goroutines.
type SQLServerMcp struct {
	config          Config
	baseURL         *url.URL
	defaultDatabase string
	semaphore       chan struct{}
	checker         *validate.Checker
	policy          *access.Policy
	scrubber        *scrub.Scrubber
	logger          zerolog.Logger

	connMaxLifetime time.Duration
	connMaxIdleTime time.Duration

	mu  sync.Mutex
	dbs map[string]*sql.DB
}

// New creates a new SQLServerMcp instance.
// connString is a sqlserver:// URL (must include credentials). The URL's
// "database" query parameter is the default database ("master" if absent).
// Panics on invalid config. Returns error only for runtime failures
// (e.g., the initial connection to the default database).
func New(ctx context.Context, connString string, config Config, logger zerolog.Logger) (*SQLServerMcp, error) {
	// --- Config validation (panics on invalid config) ---

	if connString == "" {
		panic("mssqlmcp: connString must be non-empty")
	}
	if config.Pool.MaxConns <= 0 {
		panic("mssqlmcp: pool.max_conns must be > 0")
	}
	if config.Query.TimeoutSeconds <= 0 {
		panic("mssqlmcp: query.timeout_seconds must be > 0")
	}

	// Apply defaults for zero values
	if config.Query.MaxRows == 0 {
		config.Query.MaxRows = 100
	}
	if config.Query.MaxSQLLength == 0 {
		config.Query.MaxSQLLength = 100000
	}
	if config.Query.MaxRows < 0 {
		panic("mssqlmcp: query.max_rows must be > 0")
	}
	if config.Query.MaxSQLLength < 0 {
		panic("mssqlmcp: query.max_sql_length must be > 0")
	}

	var connMaxLifetime, connMaxIdleTime time.Duration
	if config.Pool.ConnMaxLifetime != "" {
		d, err := time.ParseDuration(config.Pool.ConnMaxLifetime)
		if err != nil {
			panic(fmt.Sprintf("mssqlmcp: invalid pool.conn_max_lifetime %q: %v", config.Pool.ConnMaxLifetime, err))
		}
		connMaxLifetime = d
	}
	if config.Pool.ConnMaxIdleTime != "" {
		d, err := time.ParseDuration(config.Pool.ConnMaxIdleTime)
		if err != nil {
			panic(fmt.Sprintf("mssqlmcp: invalid pool.conn_max_idle_time %q: %v", config.Pool.ConnMaxIdleTime, err))
		}
		connMaxIdleTime = d
	}

	// --- Parse connection URL ---

	baseURL, err := url.Parse(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if baseURL.Scheme != "sqlserver" {
		panic(fmt.Sprintf("mssqlmcp: connString must use the sqlserver:// scheme, got %q", baseURL.Scheme))
	}

	defaultDatabase := baseURL.Query().Get("database")
	if defaultDatabase == "" {
		defaultDatabase = "master"
	}

	var secrets []string
	if baseURL.User != nil {
		if password, ok := baseURL.User.Password(); ok {
			secrets = append(secrets, password)
		}
	}

	m := &SQLServerMcp{
		config:          config,
		baseURL:         baseURL,
		defaultDatabase: defaultDatabase,
		semaphore:       make(chan struct{}, config.Pool.MaxConns),
		checker:         validate.NewChecker(),
		policy:          access.NewPolicy(config.Access.AllowedDatabases, config.Access.BlockedDatabases),
		scrubber:        scrub.NewScrubber(secrets...),
		logger:          logger,
		connMaxLifetime: connMaxLifetime,
		connMaxIdleTime: connMaxIdleTime,
		dbs:             make(map[string]*sql.DB),
	}

	// --- Verify connectivity to the default database ---

	db, err := m.getDB(m.defaultDatabase)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(config.Query.TimeoutSeconds)*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to connect to database '%s': %s", m.defaultDatabase, m.scrubber.Scrub(err.Error()))
	}

	return m, nil
}

// Close closes all open database handles. Accepts context for API
// forward-compatibility, but does not currently use it.
func (m *SQLServerMcp) Close(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, db := range m.dbs {
		if err := db.Close(); err != nil {
			m.logger.Warn().Err(err).Str("database", name).Msg("failed to close database handle")
		}
	}
	m.dbs = make(map[string]*sql.DB)
}

// DefaultDatabase returns the database used when a tool call does not name one.
func (m *SQLServerMcp) DefaultDatabase() string {
	return m.defaultDatabase
}

// acquire takes a slot from the semaphore, respecting context cancellation.
// The returned release function must be called when the operation completes.
func (m *SQLServerMcp) acquire(ctx context.Context, op string) (func(), error) {
	select {
	case m.semaphore <- struct{}{}:
		return func() { <-m.semaphore }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: failed to acquire query slot: all %d slots are in use, context cancelled while waiting: %w", op, cap(m.semaphore), ctx.Err())
	}
}

// splitObjectName splits an optional schema prefix from an object name.
// "dbo.users" yields ("dbo", "users"); "users" yields ("", "users").
func splitObjectName(name string) (schema, object string) {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "", parts[0]
}
