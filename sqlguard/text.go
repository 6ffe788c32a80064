// Package sqlguard provides structural analysis and repair for
// machine-generated SQL text: fence extraction, comment stripping, safety
// scanning, clause rewriting, and a composed validation verdict. All
// analysis is pattern-based; the package never parses full SQL.
package sqlguard

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	fencedSQL    = regexp.MustCompile("(?is)```sql\\s*(.*?)\\s*```")
	fencedAny    = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
	lineComment  = regexp.MustCompile(`--[^\n]*`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	limitToken   = regexp.MustCompile(`(?i)\bLIMIT\b`)
)

// ExtractStatement pulls a single SQL statement out of raw model output.
// A ```sql fence wins over a plain fence; text with no fence at all is
// returned verbatim. Exactly one statement is expected; additional fenced
// blocks are ignored.
func ExtractStatement(raw string) string {
	if m := fencedSQL.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := fencedAny.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// StripComments removes -- line comments and /* */ block comments so the
// scanner does not trip on keywords inside comment text.
func StripComments(sql string) string {
	sql = lineComment.ReplaceAllString(sql, "")
	return blockComment.ReplaceAllString(sql, "")
}

// NormalizeWhitespace collapses runs of whitespace to single spaces and
// trims both ends.
func NormalizeWhitespace(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

// Sanitize strips comments and normalizes whitespace in one pass.
func Sanitize(sql string) string {
	return NormalizeWhitespace(StripComments(sql))
}

// EnsureLimit appends "LIMIT n" when the statement carries no LIMIT token
// and guarantees exactly one terminating semicolon. Calling it on its own
// output is a no-op.
func EnsureLimit(sql string, defaultLimit int) string {
	sql = strings.TrimRight(strings.TrimSpace(sql), "; \t\n")
	if !limitToken.MatchString(sql) {
		sql = fmt.Sprintf("%s LIMIT %d", sql, defaultLimit)
	}
	return sql + ";"
}
