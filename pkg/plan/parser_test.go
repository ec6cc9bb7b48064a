package plan

import (
	"testing"

	"github.com/leapstack-labs/leapplan/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []core.ExecutionStep
	}{
		{
			name:  "single step",
			input: "Step1: top categories `SELECT category, COUNT(*) FROM films GROUP BY category LIMIT 5;`",
			want: []core.ExecutionStep{
				{Number: 1, Description: "top categories", SQL: "`SELECT category, COUNT(*) FROM films GROUP BY category LIMIT 5;`"},
			},
		},
		{
			name: "surrounding prose is ignored",
			input: "Here is the plan.\n\n" +
				"step 1 : count films `SELECT COUNT(*) FROM films;`\n" +
				"Then we look at actors.\n" +
				"STEP2: actors `SELECT * FROM actor LIMIT 10;`\n" +
				"Hope this helps!",
			want: []core.ExecutionStep{
				{Number: 1, Description: "count films", SQL: "`SELECT COUNT(*) FROM films;`"},
				{Number: 2, Description: "actors", SQL: "`SELECT * FROM actor LIMIT 10;`"},
			},
		},
		{
			name:  "statement on following lines",
			input: "Step1: revenue by store\n`SELECT store_id,\n  SUM(amount)\nFROM payment\nGROUP BY store_id;`",
			want: []core.ExecutionStep{
				{Number: 1, Description: "revenue by store", SQL: "`SELECT store_id,\n  SUM(amount)\nFROM payment\nGROUP BY store_id;`"},
			},
		},
		{
			name:  "fenced block",
			input: "Step1: list films\n```sql\nSELECT title FROM films LIMIT 3;\n```",
			want: []core.ExecutionStep{
				{Number: 1, Description: "list films", SQL: "```sql\nSELECT title FROM films LIMIT 3;\n```"},
			},
		},
		{
			name:  "numbers are kept as written",
			input: "Step1: a `SELECT 1;` Step3: b `SELECT 2;`",
			want: []core.ExecutionStep{
				{Number: 1, Description: "a", SQL: "`SELECT 1;`"},
				{Number: 3, Description: "b", SQL: "`SELECT 2;`"},
			},
		},
		{
			name:  "no steps",
			input: "I could not produce a plan for this question.",
			want:  []core.ExecutionStep{},
		},
		{
			name:  "label without statement",
			input: "Step1: nothing to run here",
			want:  []core.ExecutionStep{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_HugeNumeral(t *testing.T) {
	steps := Parse("Step99999999999999999999999: x `SELECT 1`")
	require.Len(t, steps, 1)
	assert.Equal(t, 0, steps[0].Number)
}

func FuzzParse(f *testing.F) {
	seeds := []string{
		"Step1: a `SELECT 1;`",
		"Step1: a `SELECT 1;` Step2: b `SELECT 2;`",
		"Step1: fenced\n```sql\nSELECT 1\n```",
		"Step1: unterminated `SELECT 1",
		"Step1: empty ``",
		"Step: `SELECT 1`",
		"```",
		"`",
		"",
		"Step1: `DROP TABLE films;`",
		"Step1: x `SELECT * FROM a; SELECT * FROM b;`",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		defer func() {
			if r := recover(); r != nil {
				t.Errorf("ParseAndValidate panicked on %q: %v", input, r)
			}
		}()
		p, err := ParseAndValidate(input)
		if err != nil && !p.IsEmpty() {
			t.Errorf("rejected plan returned %d statements", p.Len())
		}
		for i, s := range p.Statements {
			if s.Step != i+1 {
				t.Errorf("statement %d has step %d", i, s.Step)
			}
		}
	})
}
