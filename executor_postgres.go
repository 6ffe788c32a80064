package sqlpilot

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresExecutor executes statements against a Postgres database.
type PostgresExecutor struct {
	db      *sql.DB
	maxRows int
}

// NewPostgresExecutor opens a connection pool for the given URL.
func NewPostgresExecutor(databaseURL string, maxRows int) (*PostgresExecutor, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return NewPostgresExecutorFromDB(db, maxRows), nil
}

// NewPostgresExecutorFromDB wraps an existing pool. Used by tests that
// manage the database lifecycle themselves.
func NewPostgresExecutorFromDB(db *sql.DB, maxRows int) *PostgresExecutor {
	if maxRows <= 0 {
		maxRows = 1000
	}
	return &PostgresExecutor{db: db, maxRows: maxRows}
}

// Execute runs one statement and scans every column as a scalar. Reading
// stops at the row cap; the database may hold more rows than returned.
func (e *PostgresExecutor) Execute(ctx context.Context, sqlText string) ([]Row, error) {
	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		if len(out) >= e.maxRows {
			break
		}
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeScalar(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return out, nil
}

// Close releases the connection pool.
func (e *PostgresExecutor) Close() error {
	return e.db.Close()
}

// normalizeScalar maps driver byte slices to strings so rows serialize
// cleanly.
func normalizeScalar(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
