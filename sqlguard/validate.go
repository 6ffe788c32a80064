package sqlguard

import (
	"fmt"
	"regexp"
	"strings"
)

// ErrorSentinelPrefix marks SQL text that records a drafting failure
// instead of a statement. The validator rejects it outright so failed
// generations never reach execution.
const ErrorSentinelPrefix = "-- error"

// Result is the outcome of Validate. Any error makes the statement
// invalid; warnings are advisory and never block execution.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Column names that only make sense as row-level filters. Their presence
// in HAVING, outside an aggregate call and absent from GROUP BY, is the
// second line of defense behind RelocateHavingPredicates.
var filterColumn = regexp.MustCompile(`(?i)\b(?:\w+\.)?(risk_level|age|gender|marital_status|status|is_active|\w+_participation|\w+_flag)\b`)

var tableRef = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([A-Za-z_][\w.]*)`)

// Validate runs every safety and structural check against a candidate
// statement and collects all findings rather than stopping at the first.
// It is strict on safety and lenient on schema accuracy: when knownTables
// is non-empty, unrecognized FROM/JOIN references produce warnings only,
// leaving authoritative existence errors to the execution engine.
func Validate(sql string, knownTables []string) Result {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" || strings.HasPrefix(strings.ToLower(trimmed), ErrorSentinelPrefix) {
		return Result{Valid: false, Errors: []string{"empty or error SQL"}}
	}

	var errors, warnings []string
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		errors = append(errors, "only SELECT statements are allowed")
	}
	errors = append(errors, Scan(trimmed)...)
	if !limitToken.MatchString(trimmed) {
		warnings = append(warnings, "no LIMIT clause found")
	}
	if msg, found := havingMisuse(trimmed); found {
		errors = append(errors, msg)
	}
	for _, name := range unknownTables(trimmed, knownTables) {
		warnings = append(warnings, fmt.Sprintf("unknown table reference: %s", name))
	}
	return Result{Valid: len(errors) == 0, Errors: errors, Warnings: warnings}
}

// havingMisuse reports a row-level column filtered in HAVING without
// appearing in the GROUP BY list.
func havingMisuse(sql string) (string, bool) {
	groupLoc := groupByKeyword.FindStringIndex(sql)
	havingStart, havingEnd, ok := havingClauseSpan(sql)
	if groupLoc == nil || !ok || groupLoc[0] > havingStart {
		return "", false
	}
	groupCols := strings.ToLower(sql[groupLoc[1]:havingKeyword.FindStringIndex(sql)[0]])
	having := sql[havingStart:havingEnd]
	for _, m := range filterColumn.FindAllStringSubmatchIndex(having, -1) {
		if insideAggregate(having[:m[0]]) {
			continue
		}
		name := strings.ToLower(having[m[2]:m[3]])
		if strings.Contains(groupCols, name) {
			continue
		}
		return fmt.Sprintf("column %q must be filtered in WHERE or appear in GROUP BY, not HAVING", name), true
	}
	return "", false
}

// unknownTables collects FROM/JOIN references that match neither a known
// fully qualified name nor a known bare table name. An empty known list
// disables the check.
func unknownTables(sql string, known []string) []string {
	if len(known) == 0 {
		return nil
	}
	index := make(map[string]struct{}, len(known)*2)
	for _, t := range known {
		lower := strings.ToLower(t)
		index[lower] = struct{}{}
		if dot := strings.LastIndex(lower, "."); dot >= 0 {
			index[lower[dot+1:]] = struct{}{}
		}
	}
	var out []string
	seen := make(map[string]struct{})
	for _, m := range tableRef.FindAllStringSubmatch(sql, -1) {
		name := strings.ToLower(m[1])
		if _, ok := index[name]; ok {
			continue
		}
		if dot := strings.LastIndex(name, "."); dot >= 0 {
			if _, ok := index[name[dot+1:]]; ok {
				continue
			}
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
