package sqlpilot

import "strings"

// Keywords that map a request to candidate tables. Substring match on the
// lowercased request; a table joins the candidate set on its first hit.
var tableKeywords = map[string][]string{
	"hr_casino.employees":                 {"employee", "staff", "worker", "hire", "salary", "department", "position"},
	"marketing_casino.customer":           {"customer", "client", "member", "user", "age", "gender", "region"},
	"marketing_casino.customer_behaviors": {"behavior", "gambling", "betting", "risk", "problem", "score", "online", "offline"},
	"finance_casino.transactions":         {"transaction", "payment", "deposit", "withdrawal", "amount", "money", "finance"},
	"operations_casino.game_sessions":     {"session", "game", "bet", "win", "loss", "play", "gaming"},
	"operations_casino.gaming_equipment":  {"equipment", "machine", "slot", "device"},
	"operations_casino.shifts":            {"shift", "schedule", "revenue", "work"},
}

// Table order keeps candidate lists deterministic across runs.
var tableKeywordOrder = []string{
	"hr_casino.employees",
	"marketing_casino.customer",
	"marketing_casino.customer_behaviors",
	"finance_casino.transactions",
	"operations_casino.game_sessions",
	"operations_casino.gaming_equipment",
	"operations_casino.shifts",
}

// defaultCandidateTable anchors generic requests that match nothing.
const defaultCandidateTable = "hr_casino.employees"

// CandidateTables tags the tables a request likely needs. The gate is
// deliberately lenient: it never blocks progress, it only narrows the
// schema subset handed to the drafting prompt. A wrong guess surfaces
// later as an execution error with the attempted SQL attached, which is a
// recoverable path.
func CandidateTables(requestText string) []string {
	lower := strings.ToLower(requestText)
	var matched []string
	for _, table := range tableKeywordOrder {
		for _, kw := range tableKeywords[table] {
			if strings.Contains(lower, kw) {
				matched = append(matched, table)
				break
			}
		}
	}
	if len(matched) == 0 {
		matched = []string{defaultCandidateTable}
	}
	return matched
}
