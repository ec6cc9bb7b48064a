package plan

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapplan/pkg/core"
)

// stepPattern matches "Step<N>: <description>" followed by a statement in a
// fenced block or a single pair of backticks. The description stays on the
// label line; the statement body may span lines.
var stepPattern = regexp.MustCompile(
	"(?i)Step\\s*(\\d+)\\s*:\\s*(.*?)\\s*(```[\\s\\S]*?```|`[^`]*`)",
)

// Parse returns the candidate steps found in text, in order of appearance.
// The SQL of each step keeps its delimiters; Validate normalizes them away.
func Parse(text string) []core.ExecutionStep {
	matches := stepPattern.FindAllStringSubmatch(text, -1)
	steps := make([]core.ExecutionStep, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			// numeral overflowed int; numbering check will reject it
			n = 0
		}
		steps = append(steps, core.ExecutionStep{
			Number:      n,
			Description: strings.TrimSpace(m[2]),
			SQL:         strings.TrimSpace(m[3]),
		})
	}
	return steps
}
