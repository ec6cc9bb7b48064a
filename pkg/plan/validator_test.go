package plan

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapplan/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(n int, sql string) core.ExecutionStep {
	return core.ExecutionStep{Number: n, Description: fmt.Sprintf("step %d", n), SQL: sql}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"`SELECT 1;`", "SELECT 1;"},
		{"  SELECT 1  ", "SELECT 1"},
		{"```sql\nSELECT 1;\n```", "SELECT 1;"},
		{"```SQL SELECT 1```", "SELECT 1"},
		{"```mysql\nSELECT 1\n```", "SELECT 1"},
		{"```\nSELECT 1\n```", "SELECT 1"},
		{"``", ""},
		{"`", "`"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestFragments(t *testing.T) {
	assert.Equal(t, []string{"SELECT 1"}, Fragments("SELECT 1;"))
	assert.Equal(t, []string{"SELECT 1"}, Fragments("SELECT 1"))
	assert.Equal(t, []string{"SELECT * FROM a", "SELECT * FROM b"}, Fragments("SELECT * FROM a; SELECT * FROM b;"))
	assert.Equal(t, []string{"SELECT 1"}, Fragments("SELECT 1;;  ;"))
	assert.Empty(t, Fragments(";"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		steps    []core.ExecutionStep
		wantKind core.ErrorKind
		wantStep int
		want     []core.ValidatedStatement
	}{
		{
			name:     "empty",
			steps:    nil,
			wantKind: core.KindEmptyPlan,
		},
		{
			name:  "single select",
			steps: []core.ExecutionStep{step(1, "`SELECT category, COUNT(*) FROM films GROUP BY category LIMIT 5;`")},
			want: []core.ValidatedStatement{
				{Step: 1, SQL: "SELECT category, COUNT(*) FROM films GROUP BY category LIMIT 5"},
			},
		},
		{
			name: "two steps with cte",
			steps: []core.ExecutionStep{
				step(1, "`SELECT 1;`"),
				step(2, "```sql\nWITH t AS (SELECT 2 AS n) SELECT n FROM t;\n```"),
			},
			want: []core.ValidatedStatement{
				{Step: 1, SQL: "SELECT 1"},
				{Step: 2, SQL: "WITH t AS (SELECT 2 AS n) SELECT n FROM t"},
			},
		},
		{
			name:     "skipped number",
			steps:    []core.ExecutionStep{step(1, "`SELECT 1;`"), step(3, "`SELECT 2;`")},
			wantKind: core.KindStepNumbering,
			wantStep: 2,
		},
		{
			name:     "blank sql",
			steps:    []core.ExecutionStep{step(1, "   ")},
			wantKind: core.KindMissingStatement,
			wantStep: 1,
		},
		{
			name:     "empty backticks",
			steps:    []core.ExecutionStep{step(1, "``")},
			wantKind: core.KindMissingStatement,
			wantStep: 1,
		},
		{
			name:     "two statements",
			steps:    []core.ExecutionStep{step(1, "`SELECT * FROM a; SELECT * FROM b;`")},
			wantKind: core.KindMultiStatement,
			wantStep: 1,
		},
		{
			name:     "show is not read only",
			steps:    []core.ExecutionStep{step(1, "`SHOW TABLES;`")},
			wantKind: core.KindNotReadOnly,
			wantStep: 1,
		},
		{
			name:     "drop",
			steps:    []core.ExecutionStep{step(1, "`DROP TABLE films;`")},
			wantKind: core.KindForbiddenOperation,
			wantStep: 1,
		},
		{
			name:     "delete inside select",
			steps:    []core.ExecutionStep{step(1, "`SELECT 1;`"), step(2, "`select * from t where x = (delete from y)`")},
			wantKind: core.KindForbiddenOperation,
			wantStep: 2,
		},
		{
			name:  "keyword inside identifier",
			steps: []core.ExecutionStep{step(1, "`SELECT dropped_col, created_at FROM films`")},
			want:  []core.ValidatedStatement{{Step: 1, SQL: "SELECT dropped_col, created_at FROM films"}},
		},
		{
			name:     "select into temp table",
			steps:    []core.ExecutionStep{step(1, "`SELECT * INTO TEMP TABLE recent FROM rental`")},
			wantKind: core.KindForbiddenTempTable,
			wantStep: 1,
		},
		{
			name:     "with into temporary table",
			steps:    []core.ExecutionStep{step(1, "`WITH r AS (SELECT 1) SELECT * INTO TEMPORARY TABLE x FROM r`")},
			wantKind: core.KindForbiddenTempTable,
			wantStep: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.steps)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, core.KindOf(err))
				assert.Equal(t, tt.wantStep, core.StepOf(err))
				assert.True(t, got.IsEmpty())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Statements)
		})
	}
}

func TestValidate_FirstOffendingPosition(t *testing.T) {
	tests := []struct {
		numbers  []int
		expected int
		found    int
	}{
		{[]int{2}, 1, 2},
		{[]int{0}, 1, 0},
		{[]int{1, 1}, 2, 1},
		{[]int{1, 2, 4, 3}, 3, 4},
		{[]int{1, 2, 3, 5, 6}, 4, 5},
		{[]int{2, 1}, 1, 2},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.numbers), func(t *testing.T) {
			steps := make([]core.ExecutionStep, len(tt.numbers))
			for i, n := range tt.numbers {
				steps[i] = step(n, "`SELECT 1;`")
			}

			_, err := Validate(steps)
			require.Error(t, err)

			var cerr *core.Error
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, core.KindStepNumbering, cerr.Kind)
			assert.Equal(t, tt.expected, cerr.Expected)
			assert.Equal(t, tt.found, cerr.Found)
		})
	}
}

func TestValidate_MultiStatementCount(t *testing.T) {
	for n := 2; n <= 5; n++ {
		parts := make([]string, n)
		for i := range parts {
			parts[i] = fmt.Sprintf("SELECT %d", i)
		}
		sql := "`" + strings.Join(parts, "; ") + ";`"

		_, err := Validate([]core.ExecutionStep{step(1, sql)})

		var cerr *core.Error
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, core.KindMultiStatement, cerr.Kind)
		assert.Equal(t, n, cerr.Count)
	}
}

func TestValidate_ForbiddenKeywords(t *testing.T) {
	keywords := []string{"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "TRUNCATE", "CREATE", "REPLACE", "GRANT", "REVOKE"}

	for _, kw := range keywords {
		for _, spelled := range []string{kw, strings.ToLower(kw)} {
			t.Run(spelled, func(t *testing.T) {
				sql := fmt.Sprintf("`SELECT * FROM t WHERE note = x %s y`", spelled)
				_, err := Validate([]core.ExecutionStep{step(1, sql)})

				var cerr *core.Error
				require.ErrorAs(t, err, &cerr)
				assert.Equal(t, core.KindForbiddenOperation, cerr.Kind)
				assert.Equal(t, kw, cerr.Keyword)
			})
		}
	}
}

func TestParseAndValidate_Scenarios(t *testing.T) {
	t.Run("top categories", func(t *testing.T) {
		p, err := ParseAndValidate("Step1: top categories `SELECT category, COUNT(*) FROM films GROUP BY category LIMIT 5;`")
		require.NoError(t, err)
		require.Equal(t, 1, p.Len())
		assert.Equal(t, 1, p.Statements[0].Step)
	})

	t.Run("skipped step", func(t *testing.T) {
		_, err := ParseAndValidate("Step1: one `SELECT 1;`\nStep3: three `SELECT 2;`")
		var cerr *core.Error
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, core.KindStepNumbering, cerr.Kind)
		assert.Equal(t, 2, cerr.Expected)
		assert.Equal(t, 3, cerr.Found)
		assert.Equal(t, "step numbering invalid: expected Step2, found Step3", err.Error())
	})

	t.Run("drop table", func(t *testing.T) {
		_, err := ParseAndValidate("Step1: remove it `DROP TABLE films;`")
		assert.True(t, core.IsKind(err, core.KindForbiddenOperation))
		assert.Contains(t, err.Error(), "DROP")
	})

	t.Run("two statements", func(t *testing.T) {
		_, err := ParseAndValidate("Step1: both `SELECT * FROM a; SELECT * FROM b;`")
		var cerr *core.Error
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, core.KindMultiStatement, cerr.Kind)
		assert.Equal(t, 2, cerr.Count)
	})

	t.Run("no steps", func(t *testing.T) {
		_, err := ParseAndValidate("nothing here")
		assert.True(t, core.IsKind(err, core.KindEmptyPlan))
	})
}

func TestNormalize_LanguageTags(t *testing.T) {
	for _, tag := range []string{"sql", "sqlite", "mysql", "postgres", "postgresql", "duckdb", "tsql", "mariadb", "pl-sql", "TSQL"} {
		t.Run(tag, func(t *testing.T) {
			assert.Equal(t, "SELECT 1", Normalize("```"+tag+"\nSELECT 1\n```"))
		})
	}
}

func TestNormalize_StatementOnFenceLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```SELECT\n  title\nFROM films```", "SELECT\n  title\nFROM films"},
		{"```with\nt AS (SELECT 1) SELECT * FROM t\n```", "with\nt AS (SELECT 1) SELECT * FROM t"},
		{"```DELETE\nFROM films```", "DELETE\nFROM films"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestParseAndValidate_AnyFenceTag(t *testing.T) {
	for _, tag := range []string{"tsql", "mariadb"} {
		t.Run(tag, func(t *testing.T) {
			p, err := ParseAndValidate("Step1: count\n```" + tag + "\nSELECT 1\n```")
			require.NoError(t, err)
			require.Len(t, p.Statements, 1)
			assert.Equal(t, "SELECT 1", p.Statements[0].SQL)
		})
	}
}
