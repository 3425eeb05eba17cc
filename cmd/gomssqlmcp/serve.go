package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	mssqlmcp "github.com/millelog/sql-server-mcp"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

func runServe() error {
	ctx := context.Background()

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	useStdio := fs.Bool("stdio", false, "Serve MCP over stdio instead of HTTP")
	fs.Parse(os.Args[2:])

	// 1. Load ServerConfig
	serverConfig, err := loadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !*useStdio && serverConfig.Server.Port <= 0 {
		panic("gomssqlmcp: server.port must be > 0")
	}

	// 2. Resolve connection string
	connString := os.Getenv("GOMSSQLMCP_MSSQL_CONNSTRING")
	if connString == "" {
		username := os.Getenv("GOMSSQLMCP_MSSQL_USER")
		password := os.Getenv("GOMSSQLMCP_MSSQL_PASSWORD")
		if username == "" {
			username = promptInput("Username: ")
		}
		if password == "" {
			password = promptPassword("Password: ")
		}
		connString = buildConnString(serverConfig.Connection, username, password)
	}

	// 3. Setup logger. In stdio mode stdout carries the protocol, so logs go
	// to stderr regardless of configuration.
	if *useStdio && serverConfig.Logging.Output == "stdout" {
		serverConfig.Logging.Output = "stderr"
	}
	logger := setupLogger(serverConfig.Logging)

	// 4. Create SQLServerMcp instance — New verifies connectivity to the
	// default database before returning.
	m, err := mssqlmcp.New(ctx, connString, serverConfig.Config, logger)
	if err != nil {
		return fmt.Errorf("failed to create SQLServerMcp: %w", err)
	}
	defer m.Close(ctx)
	logger.Info().Str("database", m.DefaultDatabase()).Msg("connected to SQL Server")

	// 5. Create MCP server with initialize lifecycle logging
	hooks := &server.Hooks{}
	hooks.AddAfterInitialize(func(ctx context.Context, id any, req *mcp.InitializeRequest, result *mcp.InitializeResult) {
		clientName := req.Params.ClientInfo.Name
		clientVersion := req.Params.ClientInfo.Version
		logger.Info().
			Str("client_name", clientName).
			Str("client_version", clientVersion).
			Msg("AI agent connected (MCP initialize)")
	})

	mcpServer := server.NewMCPServer("gomssqlmcp", version,
		server.WithToolCapabilities(true),
		server.WithHooks(hooks),
	)

	mssqlmcp.RegisterMCPTools(mcpServer, m)

	// 6. Serve over stdio when requested
	if *useStdio {
		logger.Info().Msg("serving MCP over stdio")
		stdioServer := server.NewStdioServer(mcpServer)
		return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
	}

	// 7. Start HTTP server with optional health check
	addr := fmt.Sprintf(":%d", serverConfig.Server.Port)
	mux := http.NewServeMux()

	// Health check endpoint (process liveness only, not DB connectivity)
	if serverConfig.Server.HealthCheckEnabled {
		if serverConfig.Server.HealthCheckPath == "" {
			panic("gomssqlmcp: health_check_path must be set when health_check_enabled is true")
		}
		mux.HandleFunc(serverConfig.Server.HealthCheckPath, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})
	}

	httpSrv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Create StreamableHTTPServer with custom http.Server
	streamableServer := server.NewStreamableHTTPServer(mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true),
		server.WithStreamableHTTPServer(httpSrv),
	)

	// Manually register the MCP handler — Start() does NOT register
	// when a custom *http.Server is provided via WithStreamableHTTPServer.
	mux.Handle("/mcp", streamableServer)

	logger.Info().Int("port", serverConfig.Server.Port).Msg("starting gomssqlmcp server")
	return streamableServer.Start(addr)
}

func loadServerConfig() (*mssqlmcp.ServerConfig, error) {
	configPath := os.Getenv("GOMSSQLMCP_CONFIG_PATH")
	if configPath == "" {
		configPath = ".gomssqlmcp/config.json"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var config mssqlmcp.ServerConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// buildConnString builds a sqlserver:// URL from connection settings and
// credentials. URL encoding handles special characters in the password.
func buildConnString(conn mssqlmcp.ConnectionConfig, username, password string) string {
	host := conn.Host
	if host == "" {
		host = "localhost"
	}
	port := conn.Port
	if port <= 0 {
		port = 1433
	}

	u := &url.URL{
		Scheme: "sqlserver",
		Host:   fmt.Sprintf("%s:%d", host, port),
	}
	if username != "" {
		u.User = url.UserPassword(username, password)
	}

	q := url.Values{}
	if conn.Database != "" {
		q.Set("database", conn.Database)
	}
	if conn.Encrypt != "" {
		q.Set("encrypt", conn.Encrypt)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func setupLogger(config mssqlmcp.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(config.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	var output io.Writer = os.Stderr
	if config.Output == "stdout" {
		output = os.Stdout
	} else if config.Output != "" && config.Output != "stderr" {
		f, err := os.OpenFile(config.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			output = f
		}
	}

	if config.Format == "text" {
		output = zerolog.ConsoleWriter{Out: output}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func promptInput(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	var input string
	fmt.Scanln(&input)
	return input
}

func promptPassword(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // newline after password input
	if err != nil {
		return ""
	}
	return string(password)
}
