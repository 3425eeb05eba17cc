package mssqlmcp_test

import (
	"context"
	"os"
	"strings"
	"testing"

	mssqlmcp "github.com/millelog/sql-server-mcp"
	"github.com/rs/zerolog"
)

// Integration tests need a reachable SQL Server instance. Set
// GOMSSQLMCP_TEST_CONNSTRING to a sqlserver:// URL to enable them.

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

func defaultConfig() mssqlmcp.Config {
	return mssqlmcp.Config{
		Pool: mssqlmcp.PoolConfig{MaxConns: 5},
		Query: mssqlmcp.QueryConfig{
			TimeoutSeconds: 30,
			MaxRows:        100,
			MaxSQLLength:   100000,
		},
	}
}

func newTestInstance(t *testing.T, config mssqlmcp.Config) *mssqlmcp.SQLServerMcp {
	t.Helper()
	connStr := os.Getenv("GOMSSQLMCP_TEST_CONNSTRING")
	if connStr == "" {
		t.Skip("GOMSSQLMCP_TEST_CONNSTRING not set; skipping integration test")
	}
	ctx := context.Background()
	m, err := mssqlmcp.New(ctx, connStr, config, testLogger())
	if err != nil {
		t.Fatalf("failed to create SQLServerMcp: %v", err)
	}
	t.Cleanup(func() { m.Close(ctx) })
	return m
}

func TestQuery_SelectBasic(t *testing.T) {
	t.Parallel()
	m := newTestInstance(t, defaultConfig())

	output := m.Query(context.Background(), mssqlmcp.QueryInput{
		SQL: "SELECT 1 AS id, 'Alice' AS name",
	})
	if output.Error != "" {
		t.Fatalf("unexpected error: %s", output.Error)
	}
	if output.RowCount != 1 {
		t.Fatalf("expected 1 row, got %d", output.RowCount)
	}
	if output.Results[0]["name"] != "Alice" {
		t.Fatalf("expected Alice, got %v", output.Results[0]["name"])
	}
}

func TestQuery_MultipleRows(t *testing.T) {
	t.Parallel()
	m := newTestInstance(t, defaultConfig())

	output := m.Query(context.Background(), mssqlmcp.QueryInput{
		SQL: "SELECT n FROM (VALUES (1), (2), (3)) AS t(n) ORDER BY n",
	})
	if output.Error != "" {
		t.Fatalf("unexpected error: %s", output.Error)
	}
	if output.RowCount != 3 {
		t.Fatalf("expected 3 rows, got %d", output.RowCount)
	}
	if output.Truncated {
		t.Fatal("expected result not to be truncated")
	}
}

func TestQuery_Truncation(t *testing.T) {
	t.Parallel()
	m := newTestInstance(t, defaultConfig())

	output := m.Query(context.Background(), mssqlmcp.QueryInput{
		SQL:     "SELECT n FROM (VALUES (1), (2), (3), (4)) AS t(n) ORDER BY n",
		MaxRows: 2,
	})
	if output.Error != "" {
		t.Fatalf("unexpected error: %s", output.Error)
	}
	if output.RowCount != 2 {
		t.Fatalf("expected 2 rows, got %d", output.RowCount)
	}
	if !output.Truncated {
		t.Fatal("expected result to be truncated")
	}
	if output.MaxRows != 2 {
		t.Fatalf("expected max_rows 2, got %d", output.MaxRows)
	}
}

func TestQuery_BlockedMutation(t *testing.T) {
	t.Parallel()
	m := newTestInstance(t, defaultConfig())

	output := m.Query(context.Background(), mssqlmcp.QueryInput{
		SQL: "UPDATE users SET name = 'x' WHERE id = 1",
	})
	if output.Error == "" {
		t.Fatal("expected error for mutation statement")
	}
	if !output.QueryBlocked {
		t.Fatal("expected query_blocked to be true")
	}
}

func TestQuery_BlockedDatabase(t *testing.T) {
	t.Parallel()
	config := defaultConfig()
	config.Access.BlockedDatabases = []string{"forbidden_zone"}
	m := newTestInstance(t, config)

	output := m.Query(context.Background(), mssqlmcp.QueryInput{
		SQL:      "SELECT 1",
		Database: "forbidden_zone",
	})
	if output.Error == "" {
		t.Fatal("expected error for blocked database")
	}
	if !strings.Contains(output.Error, "is not allowed") {
		t.Fatalf("expected access denial message, got %q", output.Error)
	}
}

func TestQuery_TooLong(t *testing.T) {
	t.Parallel()
	config := defaultConfig()
	config.Query.MaxSQLLength = 20
	m := newTestInstance(t, config)

	output := m.Query(context.Background(), mssqlmcp.QueryInput{
		SQL: "SELECT 'this statement is longer than twenty bytes'",
	})
	if output.Error == "" {
		t.Fatal("expected error for oversized statement")
	}
	if !strings.Contains(output.Error, "too long") {
		t.Fatalf("expected length error, got %q", output.Error)
	}
}

func TestListDatabases_IncludesMaster(t *testing.T) {
	t.Parallel()
	m := newTestInstance(t, defaultConfig())

	output, err := m.ListDatabases(context.Background(), mssqlmcp.ListDatabasesInput{
		IncludeSystem: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, db := range output.Databases {
		if db["name"] == "master" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected master in database list when include_system is true")
	}
}

func TestListDatabases_ExcludesSystemByDefault(t *testing.T) {
	t.Parallel()
	m := newTestInstance(t, defaultConfig())

	output, err := m.ListDatabases(context.Background(), mssqlmcp.ListDatabasesInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, db := range output.Databases {
		name, _ := db["name"].(string)
		switch name {
		case "master", "model", "msdb", "tempdb":
			t.Fatalf("expected system database %q to be excluded", name)
		}
	}
}
