package plan

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/leapplan/pkg/core"
	"github.com/leapstack-labs/leapplan/pkg/guard"
)

var (
	fenceOpen  = regexp.MustCompile("(?i)^```(?:sqlite|sql|mysql|postgresql|postgres|duckdb)?\\s*")
	fenceTag   = regexp.MustCompile("^```([\\w+-]+)[ \\t]*\\r?\\n")
	fenceClose = regexp.MustCompile("\\s*```$")
)

// stripFenceOpen removes the opening fence. Any language tag alone on the
// fence line is dropped; on the same line as the statement only the known
// SQL tags are, so a statement keyword is never taken for a tag.
func stripFenceOpen(sql string) string {
	if m := fenceTag.FindStringSubmatch(sql); m != nil && !isStatementKeyword(m[1]) {
		return sql[len(m[0]):]
	}
	return fenceOpen.ReplaceAllString(sql, "")
}

func isStatementKeyword(word string) bool {
	word = strings.ToUpper(word)
	if word == "SELECT" || word == "WITH" {
		return true
	}
	for _, kw := range guard.ForbiddenKeywords {
		if word == kw {
			return true
		}
	}
	return false
}

// Normalize strips a fenced block marker (with optional language tag), its
// closing counterpart and one enclosing pair of backticks.
func Normalize(sql string) string {
	sql = strings.TrimSpace(sql)

	if strings.HasPrefix(sql, "```") {
		sql = stripFenceOpen(sql)
		sql = fenceClose.ReplaceAllString(sql, "")
	}

	if len(sql) >= 2 && strings.HasPrefix(sql, "`") && strings.HasSuffix(sql, "`") {
		sql = sql[1 : len(sql)-1]
	}

	return strings.TrimSpace(sql)
}

// Fragments strips one trailing terminator, splits on ';' and drops blank
// fragments. Each fragment is trimmed.
func Fragments(sql string) []string {
	sql = strings.TrimSpace(sql)
	sql = strings.TrimSuffix(sql, ";")

	var out []string
	for _, part := range strings.Split(sql, ";") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks every candidate in order and returns the plan, or the
// first violation. On error the returned plan is empty.
func Validate(steps []core.ExecutionStep) (core.Plan, error) {
	if len(steps) == 0 {
		return core.Plan{}, core.ErrEmptyPlan()
	}

	stmts := make([]core.ValidatedStatement, 0, len(steps))
	for i, s := range steps {
		expected := i + 1
		if s.Number != expected {
			return core.Plan{}, core.ErrStepNumbering(expected, s.Number)
		}

		sql, err := validateStatement(expected, s.SQL)
		if err != nil {
			return core.Plan{}, err
		}
		stmts = append(stmts, core.ValidatedStatement{Step: expected, SQL: sql})
	}

	return core.Plan{Statements: stmts}, nil
}

func validateStatement(step int, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", core.ErrMissingStatement(step)
	}

	sql := Normalize(raw)
	if sql == "" {
		return "", core.ErrMissingStatement(step)
	}

	frags := Fragments(sql)
	if len(frags) != 1 {
		return "", core.ErrMultiStatement(step, len(frags))
	}
	stmt := frags[0]

	if err := guard.CheckReadOnly(stmt); err != nil {
		return "", core.AtStep(err, step)
	}
	if err := guard.CheckForbidden(stmt); err != nil {
		return "", core.AtStep(err, step)
	}
	if guard.HasTempTable(stmt) {
		return "", core.ErrForbiddenTempTable(step)
	}

	return stmt, nil
}

// ParseAndValidate parses text and validates the result.
func ParseAndValidate(text string) (core.Plan, error) {
	return Validate(Parse(text))
}
