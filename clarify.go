package sqlpilot

import (
	"fmt"
	"strings"

	"github.com/sqlpilot-ai/sqlpilot/sqlguard"
)

// Clarification responses never ask open-ended questions. They surface
// the concrete failure (error text, the attempted SQL, or a one-line
// rephrase hint) because showing the failure beats interrogating the user
// on a data-oriented assistant.

// clarifyExecutionFailure reports a statement the database rejected,
// attaching the attempted SQL for debuggability.
func clarifyExecutionFailure(executionError, sql string) string {
	return fmt.Sprintf(
		"Query execution error:\n%s\n\nGenerated SQL:\n```sql\n%s\n```\n\nThe database returned an error. Please try rephrasing your question.",
		executionError, sql)
}

// clarifyNoResults reports an empty result set; not an error, but a
// distinct terminal message carrying the executed SQL.
func clarifyNoResults(sql string) string {
	return fmt.Sprintf(
		"No results found.\n\nThe query executed successfully but returned no matching records.\n\nGenerated SQL:\n```sql\n%s\n```\n\nTry lowering thresholds or removing some filters.",
		sql)
}

// clarifyGenerationFailure reports a failed draft using the sentinel text.
func clarifyGenerationFailure(sentinelSQL string) string {
	cause := strings.TrimSpace(strings.TrimPrefix(sentinelSQL, sqlguard.ErrorSentinelPrefix))
	cause = strings.TrimPrefix(cause, ":")
	return fmt.Sprintf(
		"SQL generation error:%s\n\nPlease try rephrasing your question.", cause)
}

// clarifyValidationFailure surfaces the first validator error with the
// rejected SQL.
func clarifyValidationFailure(firstError, sql string) string {
	return fmt.Sprintf(
		"The generated query failed validation: %s\n\nGenerated SQL:\n```sql\n%s\n```\n\nPlease try rephrasing your question.",
		firstError, sql)
}

// clarifyLowConfidence gives a one-line reformulation hint naming the
// available tables.
func clarifyLowConfidence(requestText string, tableNames []string) string {
	preview := requestText
	if len(preview) > 200 {
		preview = preview[:200]
	}
	return fmt.Sprintf(
		"I could not work out what data you need from: %q\n\nTry naming one of the available tables: %s.",
		preview, strings.Join(tableNames, ", "))
}
