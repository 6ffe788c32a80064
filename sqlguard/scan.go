package sqlguard

import (
	"fmt"
	"regexp"
	"strings"
)

// Statement types that are never allowed through the gate, matched as
// whole words only.
var ddlKeywords = []string{"DROP", "CREATE", "ALTER", "TRUNCATE", "DELETE", "INSERT", "UPDATE"}

// System catalog namespaces the pipeline must not expose.
var systemNamespaces = []string{"INFORMATION_SCHEMA", "PG_CATALOG"}

var (
	ddlPatterns        = compileKeywordPatterns(ddlKeywords)
	wildcardProjection = regexp.MustCompile(`(?i)\bSELECT\s+\*\s+FROM\b`)
)

func compileKeywordPatterns(keywords []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(keywords))
	for i, kw := range keywords {
		patterns[i] = regexp.MustCompile(`\b` + kw + `\b`)
	}
	return patterns
}

// Scan reports structural safety violations in a single SQL statement.
// An empty result means the statement passed every check. Scan assumes
// comments have already been stripped.
func Scan(sql string) []string {
	var issues []string
	upper := strings.ToUpper(sql)
	for i, kw := range ddlKeywords {
		if ddlPatterns[i].MatchString(upper) {
			issues = append(issues, fmt.Sprintf("dangerous operation detected: %s", kw))
		}
	}
	for _, ns := range systemNamespaces {
		if strings.Contains(upper, ns) {
			issues = append(issues, fmt.Sprintf("access to %s is not allowed", ns))
		}
	}
	if wildcardProjection.MatchString(sql) {
		issues = append(issues, "SELECT * is not allowed, project explicit columns")
	}
	if bareSemicolons(sql) > 1 {
		issues = append(issues, "multiple SQL statements are not allowed")
	}
	return issues
}

// bareSemicolons counts semicolons outside single-quoted string literals.
// A doubled quote inside a literal escapes the quote.
func bareSemicolons(sql string) int {
	count := 0
	inLiteral := false
	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '\'':
			if inLiteral && i+1 < len(sql) && sql[i+1] == '\'' {
				i++
				continue
			}
			inLiteral = !inLiteral
		case ';':
			if !inLiteral {
				count++
			}
		}
	}
	return count
}
