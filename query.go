package mssqlmcp

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Query executes an ad-hoc statement through the full safety gate and returns
// only QueryOutput. Gate rejections set Error and QueryBlocked; all other
// errors (driver, connection, access policy) set only Error. Callers only
// need to check output.Error, never a Go error.
func (m *SQLServerMcp) Query(ctx context.Context, input QueryInput) *QueryOutput {
	startTime := time.Now()

	release, err := m.acquire(ctx, "Query")
	if err != nil {
		return m.handleQueryError(err)
	}
	defer release()

	maxRows := input.MaxRows
	if maxRows <= 0 {
		maxRows = m.config.Query.MaxRows
	}

	rs, err := m.execQuery(ctx, input.Database, input.SQL, maxRows)
	if err != nil {
		return m.handleQueryError(err)
	}

	m.logger.Info().
		Str("sql", truncateForLog(input.SQL, 200)).
		Dur("duration", time.Since(startTime)).
		Int("row_count", len(rs.Rows)).
		Bool("truncated", rs.Truncated).
		Msg("query executed")

	return &QueryOutput{
		Results:   rs.Rows,
		RowCount:  len(rs.Rows),
		Truncated: rs.Truncated,
		MaxRows:   maxRows,
	}
}

// handleQueryError converts any error into a QueryOutput with error message.
func (m *SQLServerMcp) handleQueryError(err error) *QueryOutput {
	out := &QueryOutput{Error: err.Error()}
	var blocked *blockedError
	if errors.As(err, &blocked) {
		out.QueryBlocked = true
	}

	m.logger.Error().Err(err).Bool("query_blocked", out.QueryBlocked).Msg("query error")
	return out
}

// SampleData returns sample rows from a table, either the first N or a random
// sample via ORDER BY NEWID(). The table reference is sanitized and quoted
// before interpolation.
func (m *SQLServerMcp) SampleData(ctx context.Context, input SampleDataInput) (*SampleDataOutput, error) {
	startTime := time.Now()

	release, err := m.acquire(ctx, "SampleData")
	if err != nil {
		return nil, err
	}
	defer release()

	schema, table, err := sanitizeObject(input.Table)
	if err != nil {
		return nil, err
	}

	rows := input.Rows
	if rows <= 0 {
		rows = 10
	}
	if rows > m.config.Query.MaxRows {
		rows = m.config.Query.MaxRows
	}

	query := fmt.Sprintf("SELECT TOP %d * FROM %s", rows, quoteObject(schema, table))
	if input.Random {
		query += " ORDER BY NEWID()"
	}

	rs, err := m.execQuery(ctx, input.Database, query, rows)
	if err != nil {
		return nil, err
	}

	m.logger.Info().
		Str("table", input.Table).
		Dur("duration", time.Since(startTime)).
		Int("row_count", len(rs.Rows)).
		Bool("random", input.Random).
		Msg("SampleData executed")

	return &SampleDataOutput{
		Table:      input.Table,
		SampleData: rs.Rows,
		RowCount:   len(rs.Rows),
		IsRandom:   input.Random,
	}, nil
}
