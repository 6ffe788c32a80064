package sqlpilot

import "context"

// QueryExecutor runs one validated, read-only SQL statement and returns
// ordered rows. Implementations are bounded by the caller's context
// deadline; the orchestrator truncates results to the configured maximum.
type QueryExecutor interface {
	Execute(ctx context.Context, sql string) ([]Row, error)
}
