package mssqlmcp

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/millelog/sql-server-mcp/internal/ident"
)

// blockedError marks an error as a statement-safety rejection, as opposed
// to a driver or connection failure.
type blockedError struct {
	msg string
}

func (e *blockedError) Error() string {
	return e.msg
}

// getDB returns the handle for the named database, opening it on first use.
// The access policy is evaluated before any handle is produced.
func (m *SQLServerMcp) getDB(database string) (*sql.DB, error) {
	if !m.policy.IsAllowed(database) {
		return nil, fmt.Errorf("access to database '%s' is not allowed", database)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if db, ok := m.dbs[database]; ok {
		return db, nil
	}

	db, err := sql.Open("sqlserver", m.connStringFor(database))
	if err != nil {
		return nil, fmt.Errorf("failed to open connection to database '%s': %s", database, m.scrubber.Scrub(err.Error()))
	}
	db.SetMaxOpenConns(m.config.Pool.MaxConns)
	db.SetMaxIdleConns(m.config.Pool.MaxIdleConns)
	if m.connMaxLifetime > 0 {
		db.SetConnMaxLifetime(m.connMaxLifetime)
	}
	if m.connMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(m.connMaxIdleTime)
	}

	m.dbs[database] = db
	return db, nil
}

// connStringFor returns the connection URL with the database parameter
// replaced by the given database name.
func (m *SQLServerMcp) connStringFor(database string) string {
	u := *m.baseURL
	q := u.Query()
	q.Set("database", database)
	u.RawQuery = q.Encode()
	return u.String()
}

// resultSet holds collected rows from a single statement.
type resultSet struct {
	Columns   []string
	Rows      []map[string]interface{}
	Truncated bool
}

// execQuery runs a statement against the named database and collects up to
// maxRows rows. Every statement passes the safety gate here, including SQL
// generated by the tools themselves. Driver errors are scrubbed of
// credentials before being returned.
func (m *SQLServerMcp) execQuery(ctx context.Context, database, query string, maxRows int, args ...interface{}) (*resultSet, error) {
	if database == "" {
		database = m.defaultDatabase
	}
	if maxRows <= 0 {
		maxRows = m.config.Query.MaxRows
	}

	if len(query) > m.config.Query.MaxSQLLength {
		return nil, fmt.Errorf("SQL query too long: %d bytes exceeds maximum of %d bytes", len(query), m.config.Query.MaxSQLLength)
	}
	if res := m.checker.Check(query); !res.Valid {
		return nil, &blockedError{msg: res.Message}
	}

	db, err := m.getDB(database)
	if err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, time.Duration(m.config.Query.TimeoutSeconds)*time.Second)
	defer cancel()

	rows, err := db.QueryContext(queryCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %s", m.scrubber.Scrub(err.Error()))
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %s", m.scrubber.Scrub(err.Error()))
	}

	resultRows := make([]map[string]interface{}, 0)
	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if len(resultRows) >= maxRows {
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %s", m.scrubber.Scrub(err.Error()))
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = convertValue(values[i])
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query execution failed: %s", m.scrubber.Scrub(err.Error()))
	}

	return &resultSet{
		Columns:   columns,
		Rows:      resultRows,
		Truncated: len(resultRows) >= maxRows,
	}, nil
}

// scalarQuery runs a statement and returns the first column of the first row,
// or nil if the statement returned no rows.
func (m *SQLServerMcp) scalarQuery(ctx context.Context, database, query string, args ...interface{}) (interface{}, error) {
	rs, err := m.execQuery(ctx, database, query, 1, args...)
	if err != nil {
		return nil, err
	}
	if len(rs.Rows) == 0 || len(rs.Columns) == 0 {
		return nil, nil
	}
	return rs.Rows[0][rs.Columns[0]], nil
}

// convertValue converts a driver-returned value to a JSON-friendly Go type.
func convertValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case []byte:
		// DECIMAL/NUMERIC arrive as ASCII digits; true binary is base64 encoded
		if utf8.Valid(val) {
			return string(val)
		}
		return base64.StdEncoding.EncodeToString(val)
	case float32:
		return convertFloat(float64(val))
	case float64:
		return convertFloat(val)
	default:
		return val
	}
}

func convertFloat(f float64) interface{} {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	return f
}

// rowString returns the named field as a string, or "" if absent or not a string.
func rowString(row map[string]interface{}, key string) string {
	s, _ := row[key].(string)
	return s
}

// rowBool returns the named field as a bool. BIT columns scan as bool;
// OBJECTPROPERTY and similar return integers.
func rowBool(row map[string]interface{}, key string) bool {
	switch v := row[key].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	}
	return false
}

// rowInt64 returns the named field as an int64, tolerating the numeric
// representations the driver produces.
func rowInt64(row map[string]interface{}, key string) int64 {
	return toInt64(row[key])
}

func toInt64(v interface{}) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case float64:
		return int64(val)
	case string:
		n, _ := strconv.ParseInt(val, 10, 64)
		return n
	}
	return 0
}

func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	}
	return 0
}

// sanitizeObject splits an optional schema prefix from an object name and
// sanitizes both parts. Returns an error if either part fails validation.
func sanitizeObject(name string) (schema, object string, err error) {
	schema, object = splitObjectName(name)
	if _, err = ident.Sanitize(object); err != nil {
		return "", "", err
	}
	if schema != "" {
		if _, err = ident.Sanitize(schema); err != nil {
			return "", "", err
		}
	}
	return schema, object, nil
}

// quoteObject builds a bracket-quoted object reference, with or without a
// schema prefix.
func quoteObject(schema, object string) string {
	if schema != "" {
		return ident.Quote(schema) + "." + ident.Quote(object)
	}
	return ident.Quote(object)
}

// truncateForLog truncates a string for log output to avoid oversized log entries.
func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	truncateAt := maxLen
	for truncateAt > 0 && !utf8.RuneStart(s[truncateAt]) {
		truncateAt--
	}
	return s[:truncateAt] + "...[truncated]"
}
