package sqlpilot

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// The analytical schemas exposed to the pipeline. Everything else in the
// database stays invisible to the drafting prompt.
var analyticalSchemas = []string{"hr_casino", "marketing_casino", "finance_casino", "operations_casino"}

// PostgresSchemaProvider loads table metadata from the database catalog
// at startup. Load failures are not fatal; callers fall back to the
// static catalog via LoadSchema.
type PostgresSchemaProvider struct {
	db *sql.DB
}

// NewPostgresSchemaProvider wraps an existing pool.
func NewPostgresSchemaProvider(db *sql.DB) *PostgresSchemaProvider {
	return &PostgresSchemaProvider{db: db}
}

// Load reads column metadata for the analytical schemas.
func (p *PostgresSchemaProvider) Load(ctx context.Context) (Snapshot, error) {
	const query = `
		SELECT table_schema, table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = ANY($1)
		ORDER BY table_schema, table_name, ordinal_position`

	rows, err := p.db.QueryContext(ctx, query, pq.Array(analyticalSchemas))
	if err != nil {
		return nil, fmt.Errorf("failed to load schema metadata: %w", err)
	}
	defer rows.Close()

	static := StaticCatalog()
	snapshot := make(Snapshot)
	for rows.Next() {
		var schema, table, column, dataType string
		if err := rows.Scan(&schema, &table, &column, &dataType); err != nil {
			return nil, fmt.Errorf("failed to scan schema row: %w", err)
		}
		name := schema + "." + table
		t, ok := snapshot[name]
		if !ok {
			t = Table{
				Name:        name,
				ColumnTypes: make(map[string]string),
			}
			// Carry descriptions over from the static catalog when the
			// live table is known there.
			if known, exists := static[name]; exists {
				t.Description = known.Description
			}
		}
		t.Columns = append(t.Columns, column)
		t.ColumnTypes[column] = dataType
		snapshot[name] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schema row iteration failed: %w", err)
	}
	if len(snapshot) == 0 {
		return nil, fmt.Errorf("no analytical tables found in catalog")
	}
	return snapshot, nil
}
