package sqlguard

import (
	"regexp"
	"sort"
	"strings"
)

// Nested aggregate calls such as AVG(SUM(x)) are invalid SQL. The inner
// call must contain no parentheses of its own for the textual rewrite to
// be unambiguous.
var nestedAggregate = regexp.MustCompile(`(?i)\b(SUM|COUNT|AVG|MIN|MAX)\s*\(\s*(?:SUM|COUNT|AVG|MIN|MAX)\s*\(([^()]*)\)\s*\)`)

// RepairNestedAggregates rewrites AGG1(AGG2(expr)) to AGG1(expr),
// dropping the inner aggregate. The outer aggregation over raw values is
// the closest legal reading of the intent. Returns the repaired SQL and
// whether any rewrite occurred.
func RepairNestedAggregates(sql string) (string, bool) {
	changed := false
	for nestedAggregate.MatchString(sql) {
		sql = nestedAggregate.ReplaceAllString(sql, "$1($2)")
		changed = true
	}
	return sql, changed
}

// Predicate shapes that belong in WHERE rather than HAVING. Each pattern
// consumes a leading AND so removal leaves the clause well formed, and
// captures the bare predicate for re-insertion.
var relocatablePredicates = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+AND\s+((?:\w+\.)?risk_level\s*=\s*'[^']*')`),
	regexp.MustCompile(`(?i)\s+AND\s+((?:\w+\.)?age\s+BETWEEN\s+\d+\s+AND\s+\d+)`),
	regexp.MustCompile(`(?i)\s+AND\s+((?:\w+\.)?(?:gender|status|marital_status)\s*=\s*'[^']*')`),
	regexp.MustCompile(`(?i)\s+AND\s+((?:\w+\.)?\w+_(?:participation|flag)\s*=\s*\d+)`),
	regexp.MustCompile(`(?i)\s+AND\s+((?:\w+\.)?is_\w+\s*=\s*\d+)`),
}

var (
	havingKeyword    = regexp.MustCompile(`(?i)\bHAVING\b`)
	whereKeyword     = regexp.MustCompile(`(?i)\bWHERE\b`)
	groupByKeyword   = regexp.MustCompile(`(?i)\bGROUP\s+BY\b`)
	orderByKeyword   = regexp.MustCompile(`(?i)\bORDER\s+BY\b`)
	doubledAnd       = regexp.MustCompile(`(?i)\s+AND\s+AND\s+`)
	leadingAnd       = regexp.MustCompile(`(?i)^\s*AND\s+`)
	trailingCallName = regexp.MustCompile(`(?i)\b(?:SUM|COUNT|AVG|MIN|MAX|CAST)\s*$`)
)

// RelocateHavingPredicates moves row-level predicates out of the HAVING
// clause into the WHERE clause. Only predicates matching the known
// filterable column shapes move, and only when they sit outside every
// aggregate call. The rewrite is skipped entirely when the statement has
// no WHERE or no GROUP BY clause; synthesizing a new clause is out of
// bounds for a textual fix. Returns the rewritten SQL and whether
// anything moved.
func RelocateHavingPredicates(sql string) (string, bool) {
	havingStart, havingEnd, ok := havingClauseSpan(sql)
	if !ok {
		return sql, false
	}
	if whereKeyword.FindStringIndex(sql) == nil {
		return sql, false
	}
	groupLoc := groupByKeyword.FindStringIndex(sql)
	if groupLoc == nil || groupLoc[0] > havingStart {
		return sql, false
	}
	having := sql[havingStart:havingEnd]

	type span struct {
		predicate  string
		start, end int
	}
	var moved []span
	for _, pat := range relocatablePredicates {
		m := pat.FindStringSubmatchIndex(having)
		if m == nil {
			continue
		}
		if insideAggregate(having[:m[0]]) {
			continue
		}
		moved = append(moved, span{having[m[2]:m[3]], m[0], m[1]})
	}
	if len(moved) == 0 {
		return sql, false
	}

	// Remove back to front so earlier spans keep their offsets.
	removal := make([]span, len(moved))
	copy(removal, moved)
	sort.Slice(removal, func(i, j int) bool { return removal[i].start > removal[j].start })
	newHaving := having
	for _, s := range removal {
		newHaving = newHaving[:s.start] + newHaving[s.end:]
	}
	newHaving = doubledAnd.ReplaceAllString(newHaving, " AND ")
	newHaving = leadingAnd.ReplaceAllString(newHaving, "")
	sql = sql[:havingStart] + newHaving + sql[havingEnd:]

	predicates := make([]string, len(moved))
	for i, s := range moved {
		predicates[i] = s.predicate
	}
	insertAt := groupLoc[0]
	return strings.TrimRight(sql[:insertAt], " \t\n") +
		" AND " + strings.Join(predicates, " AND ") +
		" " + sql[insertAt:], true
}

// havingClauseSpan locates the HAVING clause body: from just past the
// keyword to the start of ORDER BY or LIMIT, or the end of the statement.
func havingClauseSpan(sql string) (start, end int, ok bool) {
	loc := havingKeyword.FindStringIndex(sql)
	if loc == nil {
		return 0, 0, false
	}
	start = loc[1]
	rest := sql[start:]
	end = len(strings.TrimRight(sql, "; \t\n"))
	if m := orderByKeyword.FindStringIndex(rest); m != nil {
		end = start + m[0]
	} else if m := limitToken.FindStringIndex(rest); m != nil {
		end = start + m[0]
	}
	return start, end, true
}

// insideAggregate reports whether a position at the end of prefix sits
// inside an unclosed aggregate or CAST call. Paren depth is tracked with
// a stack of flags recording which opens were aggregate calls.
func insideAggregate(prefix string) bool {
	var stack []bool
	for i := 0; i < len(prefix); i++ {
		switch prefix[i] {
		case '(':
			stack = append(stack, trailingCallName.MatchString(prefix[:i]))
		case ')':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	for _, agg := range stack {
		if agg {
			return true
		}
	}
	return false
}
