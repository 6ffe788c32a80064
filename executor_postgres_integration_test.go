//go:build integration
// +build integration

package sqlpilot

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup
	if postgresContainer != nil {
		_ = postgresContainer.Terminate(context.Background())
	}

	os.Exit(code)
}

// setupTestDB starts one PostgreSQL container for the integration tests
// and seeds a minimal analytical schema.
func setupTestDB(t *testing.T) (*sql.DB, context.Context) {
	ctx := context.Background()

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error
		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("sqlpilot_test"),
			postgres.WithUsername("sqlpilot"),
			postgres.WithPassword("sqlpilot"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range []string{
		`CREATE SCHEMA IF NOT EXISTS hr_casino`,
		`DROP TABLE IF EXISTS hr_casino.employees`,
		`CREATE TABLE hr_casino.employees (
			employee_id INTEGER PRIMARY KEY,
			first_name TEXT,
			department TEXT,
			salary DECIMAL
		)`,
		`INSERT INTO hr_casino.employees VALUES
			(1, 'Dana', 'Security', 52000),
			(2, 'Lee', 'Gaming', 61000),
			(3, 'Sam', 'Gaming', 58000)`,
	} {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	return db, ctx
}

func TestPostgresExecutorExecute(t *testing.T) {
	db, ctx := setupTestDB(t)
	executor := NewPostgresExecutorFromDB(db, 1000)

	rows, err := executor.Execute(ctx, "SELECT first_name, salary FROM hr_casino.employees ORDER BY employee_id LIMIT 10;")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "Dana", rows[0]["first_name"])

	// DECIMAL arrives as driver bytes and must come back as a string.
	require.IsType(t, "", rows[0]["salary"])
}

func TestPostgresExecutorRowCap(t *testing.T) {
	db, ctx := setupTestDB(t)
	executor := NewPostgresExecutorFromDB(db, 2)

	rows, err := executor.Execute(ctx, "SELECT first_name FROM hr_casino.employees ORDER BY employee_id;")
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestPostgresExecutorQueryError(t *testing.T) {
	db, ctx := setupTestDB(t)
	executor := NewPostgresExecutorFromDB(db, 1000)

	_, err := executor.Execute(ctx, "SELECT nope FROM hr_casino.employees;")
	require.Error(t, err)
	require.Contains(t, err.Error(), "query failed")
}

func TestPostgresSchemaProviderLoad(t *testing.T) {
	db, ctx := setupTestDB(t)
	provider := NewPostgresSchemaProvider(db)

	snapshot, err := provider.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, snapshot, "hr_casino.employees")

	employees := snapshot["hr_casino.employees"]
	require.Contains(t, employees.Columns, "salary")
	// Descriptions carry over from the static catalog for known tables.
	require.NotEmpty(t, employees.Description)
}
