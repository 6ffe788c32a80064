package sqlpilot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sqlpilot-ai/sqlpilot/sqlguard"
)

// Drafter turns a routed request into one candidate SQL statement. The
// model output is untrusted; every draft goes through extraction,
// sanitization, structural repair and LIMIT enforcement before it is
// handed to the validator.
type Drafter struct {
	generator    TextGenerator
	defaultLimit int
	logger       *slog.Logger
}

// DrafterOptions configures a Drafter.
type DrafterOptions struct {
	Generator    TextGenerator
	DefaultLimit int
	Logger       *slog.Logger
}

// NewDrafter creates a Drafter.
func NewDrafter(opts DrafterOptions) (*Drafter, error) {
	if opts.Generator == nil {
		return nil, fmt.Errorf("drafter requires a text generator")
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 100
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Drafter{
		generator:    opts.Generator,
		defaultLimit: opts.DefaultLimit,
		logger:       opts.Logger,
	}, nil
}

// Draft returns a post-processed candidate statement. A failed external
// call returns a sentinel error statement rather than an error value; the
// validator rejects the sentinel and the pipeline lands in the
// clarification terminal with the cause attached.
func (d *Drafter) Draft(ctx context.Context, requestText string, schema Snapshot) string {
	raw, err := d.generator.Generate(ctx, draftSystemPrompt(schema), "Generate SQL for: "+requestText)
	if err != nil {
		d.logger.Warn("sql drafting failed", "error", err)
		return fmt.Sprintf("%s: %s", sqlguard.ErrorSentinelPrefix, err.Error())
	}
	return d.postProcess(raw)
}

func (d *Drafter) postProcess(raw string) string {
	sql := sqlguard.Sanitize(sqlguard.ExtractStatement(raw))
	if repaired, changed := sqlguard.RepairNestedAggregates(sql); changed {
		d.logger.Warn("repaired nested aggregate in draft")
		sql = repaired
	}
	if relocated, changed := sqlguard.RelocateHavingPredicates(sql); changed {
		d.logger.Info("relocated row-level HAVING predicates to WHERE")
		sql = relocated
	}
	return sqlguard.EnsureLimit(sql, d.defaultLimit)
}

func draftSystemPrompt(schema Snapshot) string {
	var b strings.Builder
	b.WriteString(`You are an expert PostgreSQL SQL generator. Generate ONLY the SQL query, nothing else.

RULES:
1. Use schema.table format for every table reference.
2. NO SELECT * - always list explicit columns.
3. ALWAYS include a LIMIT clause (default 100, max 1000).
4. transaction_amount is TEXT - use CAST(transaction_amount AS DECIMAL) before any math.
5. NEVER nest aggregations: AVG(SUM(...)) is invalid SQL.
6. WHERE filters individual rows (age, risk_level, participation flags, status).
   HAVING filters aggregated results only (SUM(...) > X, COUNT(...) >= Y).
   Never put non-aggregated columns in HAVING unless they appear in GROUP BY.
7. Exactly one statement, terminated by a single semicolon.

DATABASE SCHEMA:
`)
	b.WriteString(schema.FormatForPrompt())
	return b.String()
}
