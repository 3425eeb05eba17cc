package configure

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mssqlmcp "github.com/millelog/sql-server-mcp"
)

// validExistingConfig returns a ServerConfig with all promptPositiveInt fields
// set to valid values, so pressing Enter preserves them without validation errors.
func validExistingConfig() *mssqlmcp.ServerConfig {
	cfg := &mssqlmcp.ServerConfig{}
	cfg.Connection.Host = "dbhost"
	cfg.Connection.Port = 1433
	cfg.Connection.Database = "sales"
	cfg.Connection.Encrypt = "disable"
	cfg.Server.Port = 9090
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "stdout"
	cfg.Pool.MaxConns = 10
	cfg.Query.TimeoutSeconds = 60
	cfg.Query.MaxRows = 500
	cfg.Query.MaxSQLLength = 50000
	return cfg
}

// allEnterInputs returns enough empty lines to accept defaults for every prompt
// in the wizard. Each empty line means "accept current/default value".
// Count: 4 connection + 3 server + 3 logging + 4 pool + 3 query + 2 list editors = 19
//
// Prompt index map:
//
//	0-3:   connection (host, port, database, encrypt)
//	4-6:   server (port, health_check_enabled, health_check_path)
//	7-9:   logging (level, format, output)
//	10-13: pool (max_conns, max_idle_conns, conn_max_lifetime, conn_max_idle_time)
//	14-16: query (timeout_seconds, max_rows, max_sql_length)
//	17-18: list editors (allowed_databases, blocked_databases)
func allEnterInputs(overrides map[int]string) string {
	lines := make([]string, 19)
	for i := range lines {
		lines[i] = ""
	}
	// List editors need "c" to continue (indices 17-18)
	lines[17] = "c"
	lines[18] = "c"
	for k, v := range overrides {
		lines[k] = v
	}
	return strings.Join(lines, "\n") + "\n"
}

func TestRun_NewConfig_ShowsDefaultLabel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	input := allEnterInputs(nil)
	var output bytes.Buffer

	err := run(configPath, strings.NewReader(input), &output)
	if err != nil {
		t.Fatalf("run() returned error: %v", err)
	}

	out := output.String()

	// New config should show "default" labels, not "current"
	if strings.Contains(out, "(current:") {
		t.Errorf("new config should use 'default' label, but found 'current' in output:\n%s", out)
	}
	if !strings.Contains(out, "(default:") {
		t.Errorf("new config should contain 'default' label, output:\n%s", out)
	}

	// Verify specific default values are shown
	if !strings.Contains(out, `(default: "localhost")`) {
		t.Errorf("expected default host 'localhost' in output")
	}
	if !strings.Contains(out, "(default: 1433)") {
		t.Errorf("expected default port 1433 in output")
	}
	if !strings.Contains(out, `(default: "master"`) {
		t.Errorf("expected default database 'master' in output")
	}
	if !strings.Contains(out, `(default: "true"`) {
		t.Errorf("expected default encrypt 'true' in output")
	}
	if !strings.Contains(out, "(default: 8080)") {
		t.Errorf("expected default server port 8080 in output")
	}
	if !strings.Contains(out, `(default: "info"`) {
		t.Errorf("expected default log level 'info' in output")
	}
	if !strings.Contains(out, `(default: "json"`) {
		t.Errorf("expected default log format 'json' in output")
	}
	if !strings.Contains(out, `(default: "stderr"`) {
		t.Errorf("expected default log output 'stderr' in output")
	}

	// Verify hint text for fields with constraints
	hints := []struct {
		hint string
		desc string
	}{
		{"[must be > 0]", "port/max_conns must be > 0 hint"},
		{"[must be >= 0]", "pool.max_idle_conns must be >= 0 hint"},
		{"[e.g. /healthz, required when health_check_enabled is true]", "health_check_path hint"},
		{"[stdout, stderr, or file path]", "logging.output hint"},
		{"[Go duration: e.g. 1h, 30m, 1h30m]", "pool duration hint"},
		{"[seconds, must be > 0]", "timeout seconds hint"},
		{"[bytes, must be > 0]", "max_sql_length hint"},
	}
	for _, h := range hints {
		if !strings.Contains(out, h.hint) {
			t.Errorf("expected %s %q in output", h.desc, h.hint)
		}
	}

	if !strings.Contains(out, "(default: 5)") {
		t.Errorf("expected default max_conns 5 in output")
	}
	if !strings.Contains(out, "(default: 30)") {
		t.Errorf("expected default timeout 30 in output")
	}
	if !strings.Contains(out, "(default: 100)") {
		t.Errorf("expected default max_rows 100 in output")
	}
}

func TestRun_NewConfig_DefaultsWrittenToFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	input := allEnterInputs(nil)
	var output bytes.Buffer

	err := run(configPath, strings.NewReader(input), &output)
	if err != nil {
		t.Fatalf("run() returned error: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}

	var cfg mssqlmcp.ServerConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("failed to unmarshal config: %v", err)
	}

	if cfg.Connection.Host != "localhost" {
		t.Errorf("expected host 'localhost', got %q", cfg.Connection.Host)
	}
	if cfg.Connection.Port != 1433 {
		t.Errorf("expected port 1433, got %d", cfg.Connection.Port)
	}
	if cfg.Connection.Database != "master" {
		t.Errorf("expected database 'master', got %q", cfg.Connection.Database)
	}
	if cfg.Connection.Encrypt != "true" {
		t.Errorf("expected encrypt 'true', got %q", cfg.Connection.Encrypt)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Pool.MaxConns != 5 {
		t.Errorf("expected max_conns 5, got %d", cfg.Pool.MaxConns)
	}
	if cfg.Pool.ConnMaxLifetime != "1h" {
		t.Errorf("expected conn_max_lifetime '1h', got %q", cfg.Pool.ConnMaxLifetime)
	}
	if cfg.Query.TimeoutSeconds != 30 {
		t.Errorf("expected timeout_seconds 30, got %d", cfg.Query.TimeoutSeconds)
	}
	if cfg.Query.MaxRows != 100 {
		t.Errorf("expected max_rows 100, got %d", cfg.Query.MaxRows)
	}
	if cfg.Query.MaxSQLLength != 100000 {
		t.Errorf("expected max_sql_length 100000, got %d", cfg.Query.MaxSQLLength)
	}
}

func TestRun_OverrideValues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	input := allEnterInputs(map[int]string{
		0:  "db.internal",  // connection.host
		2:  "warehouse",    // connection.database
		4:  "9999",         // server.port
		7:  "debug",        // logging.level
		14: "120",          // query.timeout_seconds
	})
	var output bytes.Buffer

	err := run(configPath, strings.NewReader(input), &output)
	if err != nil {
		t.Fatalf("run() returned error: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	var cfg mssqlmcp.ServerConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("failed to unmarshal config: %v", err)
	}

	if cfg.Connection.Host != "db.internal" {
		t.Errorf("expected host 'db.internal', got %q", cfg.Connection.Host)
	}
	if cfg.Connection.Database != "warehouse" {
		t.Errorf("expected database 'warehouse', got %q", cfg.Connection.Database)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("expected server port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %q", cfg.Logging.Level)
	}
	if cfg.Query.TimeoutSeconds != 120 {
		t.Errorf("expected timeout_seconds 120, got %d", cfg.Query.TimeoutSeconds)
	}
}

func TestRun_ExistingConfig_ShowsCurrentLabel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	existing := validExistingConfig()
	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal existing config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("failed to write existing config: %v", err)
	}

	input := allEnterInputs(nil)
	var output bytes.Buffer

	if err := run(configPath, strings.NewReader(input), &output); err != nil {
		t.Fatalf("run() returned error: %v", err)
	}

	out := output.String()
	if strings.Contains(out, "(default:") {
		t.Errorf("existing config should use 'current' label, but found 'default' in output:\n%s", out)
	}
	if !strings.Contains(out, "(current:") {
		t.Errorf("existing config should contain 'current' label, output:\n%s", out)
	}

	// Pressing Enter everywhere preserves the existing values
	var cfg mssqlmcp.ServerConfig
	written, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if err := json.Unmarshal(written, &cfg); err != nil {
		t.Fatalf("failed to unmarshal config: %v", err)
	}
	if cfg.Connection.Host != "dbhost" {
		t.Errorf("expected preserved host 'dbhost', got %q", cfg.Connection.Host)
	}
	if cfg.Connection.Database != "sales" {
		t.Errorf("expected preserved database 'sales', got %q", cfg.Connection.Database)
	}
	if cfg.Query.MaxRows != 500 {
		t.Errorf("expected preserved max_rows 500, got %d", cfg.Query.MaxRows)
	}
}

func TestRun_InvalidIntRetries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	// connection.port: "abc" rejected, "0" rejected, "14330" accepted
	lines := []string{"", "abc", "0", "14330"}
	for i := 0; i < 15; i++ {
		lines = append(lines, "")
	}
	lines = append(lines, "c", "c")
	input := strings.Join(lines, "\n") + "\n"

	var output bytes.Buffer
	if err := run(configPath, strings.NewReader(input), &output); err != nil {
		t.Fatalf("run() returned error: %v", err)
	}

	out := output.String()
	if !strings.Contains(out, `Invalid integer "abc"`) {
		t.Errorf("expected invalid integer message in output:\n%s", out)
	}
	if !strings.Contains(out, "Value must be > 0") {
		t.Errorf("expected positive value message in output:\n%s", out)
	}

	var cfg mssqlmcp.ServerConfig
	data, _ := os.ReadFile(configPath)
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("failed to unmarshal config: %v", err)
	}
	if cfg.Connection.Port != 14330 {
		t.Errorf("expected port 14330 after retries, got %d", cfg.Connection.Port)
	}
}

func TestRun_InvalidEnumRetries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	// connection.encrypt: "bogus" rejected, "disable" accepted
	lines := []string{"", "", "", "bogus", "disable"}
	for i := 0; i < 13; i++ {
		lines = append(lines, "")
	}
	lines = append(lines, "c", "c")
	input := strings.Join(lines, "\n") + "\n"

	var output bytes.Buffer
	if err := run(configPath, strings.NewReader(input), &output); err != nil {
		t.Fatalf("run() returned error: %v", err)
	}

	out := output.String()
	if !strings.Contains(out, `Invalid value "bogus"`) {
		t.Errorf("expected invalid enum message in output:\n%s", out)
	}

	var cfg mssqlmcp.ServerConfig
	data, _ := os.ReadFile(configPath)
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("failed to unmarshal config: %v", err)
	}
	if cfg.Connection.Encrypt != "disable" {
		t.Errorf("expected encrypt 'disable' after retry, got %q", cfg.Connection.Encrypt)
	}
}

func TestRun_InvalidDurationRetries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	// pool.conn_max_lifetime (index 12): "2 hours" rejected, "2h" accepted
	lines := make([]string, 12)
	lines = append(lines, "2 hours", "2h")
	for i := 0; i < 4; i++ {
		lines = append(lines, "")
	}
	lines = append(lines, "c", "c")
	input := strings.Join(lines, "\n") + "\n"

	var output bytes.Buffer
	if err := run(configPath, strings.NewReader(input), &output); err != nil {
		t.Fatalf("run() returned error: %v", err)
	}

	out := output.String()
	if !strings.Contains(out, "Invalid Go duration") {
		t.Errorf("expected invalid duration message in output:\n%s", out)
	}

	var cfg mssqlmcp.ServerConfig
	data, _ := os.ReadFile(configPath)
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("failed to unmarshal config: %v", err)
	}
	if cfg.Pool.ConnMaxLifetime != "2h" {
		t.Errorf("expected conn_max_lifetime '2h' after retry, got %q", cfg.Pool.ConnMaxLifetime)
	}
}

func TestRun_AccessListAddRemove(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	// Allowed list: add "sales", add "hr", remove index 1, continue.
	// Blocked list: add "tempdb", continue.
	lines := make([]string, 17)
	lines = append(lines,
		"a", "sales",
		"a", "hr",
		"r", "1",
		"c",
		"a", "tempdb",
		"c",
	)
	input := strings.Join(lines, "\n") + "\n"

	var output bytes.Buffer
	if err := run(configPath, strings.NewReader(input), &output); err != nil {
		t.Fatalf("run() returned error: %v", err)
	}

	var cfg mssqlmcp.ServerConfig
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("failed to unmarshal config: %v", err)
	}

	if len(cfg.Access.AllowedDatabases) != 1 || cfg.Access.AllowedDatabases[0] != "sales" {
		t.Errorf("expected allowed_databases ['sales'], got %v", cfg.Access.AllowedDatabases)
	}
	if len(cfg.Access.BlockedDatabases) != 1 || cfg.Access.BlockedDatabases[0] != "tempdb" {
		t.Errorf("expected blocked_databases ['tempdb'], got %v", cfg.Access.BlockedDatabases)
	}
}

func TestRun_AccessListRemoveInvalidIndex(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	lines := make([]string, 17)
	lines = append(lines,
		"a", "sales",
		"r", "5",
		"c",
		"c",
	)
	input := strings.Join(lines, "\n") + "\n"

	var output bytes.Buffer
	if err := run(configPath, strings.NewReader(input), &output); err != nil {
		t.Fatalf("run() returned error: %v", err)
	}

	if !strings.Contains(output.String(), "Invalid index") {
		t.Errorf("expected 'Invalid index' message in output:\n%s", output.String())
	}

	var cfg mssqlmcp.ServerConfig
	data, _ := os.ReadFile(configPath)
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("failed to unmarshal config: %v", err)
	}
	if len(cfg.Access.AllowedDatabases) != 1 {
		t.Errorf("expected list unchanged after invalid index, got %v", cfg.Access.AllowedDatabases)
	}
}

func TestRun_WritesTrailingNewline(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	input := allEnterInputs(nil)
	var output bytes.Buffer
	if err := run(configPath, strings.NewReader(input), &output); err != nil {
		t.Fatalf("run() returned error: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		t.Error("expected config file to end with a newline")
	}
}

func TestWriteConfig_CreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "nested", "deeper", "config.json")

	cfg := validExistingConfig()
	if err := writeConfig(configPath, cfg); err != nil {
		t.Fatalf("writeConfig() returned error: %v", err)
	}

	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}
}
