package sqlpilot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Simple listing requests skip the LLM when the result set is small; a
// formatted listing answers them better than a narrative.
var simpleRequestKeywords = []string{"show", "list", "get", "give", "display"}

// Summarizer renders query results into the final response text.
type Summarizer struct {
	generator TextGenerator
	maxRows   int
	logger    *slog.Logger
}

// SummarizerOptions configures a Summarizer. Generator may be nil, in
// which case every summary takes the deterministic path.
type SummarizerOptions struct {
	Generator TextGenerator
	MaxRows   int
	Logger    *slog.Logger
}

// NewSummarizer creates a Summarizer.
func NewSummarizer(opts SummarizerOptions) *Summarizer {
	if opts.MaxRows <= 0 {
		opts.MaxRows = 1000
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Summarizer{
		generator: opts.Generator,
		maxRows:   opts.MaxRows,
		logger:    opts.Logger,
	}
}

// Summarize produces the user-facing summary for a successful execution.
// LLM failures degrade to the deterministic summary, never to an error.
func (s *Summarizer) Summarize(ctx context.Context, requestText string, rows []Row) string {
	if len(rows) == 0 {
		return "The query executed successfully but returned no results."
	}

	lower := strings.ToLower(requestText)
	for _, kw := range simpleRequestKeywords {
		if strings.Contains(lower, kw) && len(rows) <= 10 {
			return BasicSummary(rows)
		}
	}

	if s.generator == nil {
		return BasicSummary(rows)
	}

	summary, err := s.generator.Generate(ctx, summarySystemPrompt,
		fmt.Sprintf("Question: %s\n\nData returned (%d rows):\n%s\n\nSummarize this data clearly using numbered lists.",
			requestText, len(rows), FormatRows(rows, 5)))
	if err != nil {
		s.logger.Warn("summary generation failed, using basic summary", "error", err)
		return BasicSummary(rows)
	}
	summary = strings.TrimSpace(summary)
	if len(rows) >= s.maxRows {
		summary += fmt.Sprintf("\n\n(Showing first %d results)", s.maxRows)
	}
	return summary
}

const summarySystemPrompt = `You are a data analyst presenting query results.
Summarize the data concisely: state how many results were found, highlight
at most 5-7 rows as a numbered list, round numbers to 2 decimal places, and
close with one or two key observations. Never use markdown tables.`

// BasicSummary is the deterministic fallback rendering: row count, up to
// five rows with at most four columns each, and a remainder note.
func BasicSummary(rows []Row) string {
	count := len(rows)
	if count == 0 {
		return "No results found."
	}

	plural := "s"
	if count == 1 {
		plural = ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d result%s\n\n", count, plural)

	show := count
	if show > 5 {
		show = 5
	}
	for i := 0; i < show; i++ {
		parts := formatRowParts(rows[i])
		if len(parts) > 4 {
			parts = parts[:4]
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.Join(parts, " | "))
	}
	if count > show {
		fmt.Fprintf(&b, "\n... and %d more results", count-show)
	}
	return b.String()
}

// FormatRows renders rows as a compact text table preview for prompts.
func FormatRows(rows []Row, maxRows int) string {
	if len(rows) == 0 {
		return "No results returned."
	}
	columns := sortedColumns(rows[0])
	var b strings.Builder
	fmt.Fprintf(&b, "Columns: %s\n", strings.Join(columns, ", "))
	fmt.Fprintf(&b, "Rows: %d\n\n", len(rows))

	show := len(rows)
	if maxRows > 0 && show > maxRows {
		show = maxRows
	}
	for i := 0; i < show; i++ {
		values := make([]string, len(columns))
		for j, col := range columns {
			values[j] = formatScalar(rows[i][col])
		}
		b.WriteString(strings.Join(values, " | "))
		b.WriteString("\n")
	}
	if len(rows) > show {
		fmt.Fprintf(&b, "... (%d more rows)\n", len(rows)-show)
	}
	return b.String()
}

func formatRowParts(row Row) []string {
	columns := sortedColumns(row)
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s: %s", titleCase(col), formatScalar(row[col]))
	}
	return parts
}

func sortedColumns(row Row) []string {
	columns := make([]string, 0, len(row))
	for col := range row {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}

func formatScalar(v any) string {
	switch val := v.(type) {
	case nil:
		return "N/A"
	case float64:
		return fmt.Sprintf("%.2f", val)
	case float32:
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// titleCase turns a snake_case column name into a readable label.
func titleCase(column string) string {
	words := strings.Split(column, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
