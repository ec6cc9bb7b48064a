package guard

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/leapplan/pkg/core"
)

// ForbiddenKeywords are the mutating keywords rejected anywhere in a statement.
var ForbiddenKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER",
	"TRUNCATE", "CREATE", "REPLACE", "GRANT", "REVOKE",
}

var (
	readOnlyPattern  = regexp.MustCompile(`(?i)^\s*(SELECT|WITH)\b`)
	forbiddenPattern = regexp.MustCompile(`(?i)\b(` + strings.Join(ForbiddenKeywords, "|") + `)\b`)
	leadingPattern   = regexp.MustCompile(`(?i)^\s*([a-z]+)\b`)
	tempTablePattern = regexp.MustCompile(`(?i)\bTEMP(?:ORARY)?\s+TABLES?\b`)
	rowsPattern      = regexp.MustCompile(`(?i)^\s*\(*\s*(SELECT|WITH|SHOW|EXPLAIN|DESCRIBE|DESC|VALUES|TABLE|PRAGMA)\b`)
)

// IsReadOnly reports whether sql starts with SELECT or WITH.
func IsReadOnly(sql string) bool {
	return readOnlyPattern.MatchString(sql)
}

// ForbiddenKeyword returns the first forbidden keyword occurring in sql as a
// whole word, upper-cased, or "" if there is none.
func ForbiddenKeyword(sql string) string {
	m := forbiddenPattern.FindStringSubmatch(sql)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

// LeadingKeyword returns the first word of sql, upper-cased.
func LeadingKeyword(sql string) string {
	m := leadingPattern.FindStringSubmatch(sql)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

// HasTempTable reports whether sql references a temporary table.
func HasTempTable(sql string) bool {
	return tempTablePattern.MatchString(sql)
}

// ProducesRows reports whether sql has the shape of a row-returning statement.
func ProducesRows(sql string) bool {
	return rowsPattern.MatchString(sql)
}

// CheckReadOnly enforces the read-only prefix rule. A statement that opens
// with a forbidden keyword is reported as a forbidden operation, which is the
// more precise diagnostic. The returned error carries no step.
func CheckReadOnly(sql string) error {
	if IsReadOnly(sql) {
		return nil
	}
	lead := LeadingKeyword(sql)
	for _, kw := range ForbiddenKeywords {
		if lead == kw {
			return core.ErrForbiddenOperation(0, kw)
		}
	}
	return core.ErrNotReadOnly(0)
}

// CheckForbidden enforces the forbidden keyword rule.
func CheckForbidden(sql string) error {
	if kw := ForbiddenKeyword(sql); kw != "" {
		return core.ErrForbiddenOperation(0, kw)
	}
	return nil
}
