// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapplan/internal/cli/config"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// filmRows is the number of rows SetupTestProject loads into film.
const filmRows = 12

// SetupTestProject creates a temporary project: a SQLite database with a
// small film catalog and a leapplan.yaml pointing at it. It returns the
// project directory and the loaded config.
func SetupTestProject(t *testing.T, maxRows int) (string, *config.Config) {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sakila.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open target database: %v", err)
	}
	defer func() { _ = db.Close() }()

	stmts := []string{
		`CREATE TABLE film (
			film_id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			rating TEXT,
			length INTEGER
		)`,
		`CREATE TABLE actor (actor_id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
	}
	for i := 1; i <= filmRows; i++ {
		rating := "'PG'"
		if i%3 == 0 {
			rating = "NULL"
		}
		stmts = append(stmts, fmt.Sprintf(
			"INSERT INTO film (film_id, title, rating, length) VALUES (%d, 'FILM %02d', %s, %d)",
			i, i, rating, 80+i))
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to seed target database: %v", err)
		}
	}

	cfg := &config.Config{
		StatePath:    filepath.Join(dir, ".leapplan", "state.db"),
		OutputFormat: "json",
		Target: config.TargetConfig{
			Type:     "sqlite",
			Database: dbPath,
		},
		Pool: config.PoolConfig{
			Size:           2,
			AcquireTimeout: config.DefaultAcquireTimeout,
		},
		Executor:    config.ExecutorConfig{MaxRows: maxRows},
		ProjectRoot: dir,
	}

	yaml := fmt.Sprintf("target:\n  type: sqlite\n  database: %s\nexecutor:\n  max_rows: %d\n", dbPath, maxRows)
	if err := os.WriteFile(filepath.Join(dir, "leapplan.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatalf("failed to write leapplan.yaml: %v", err)
	}

	return dir, cfg
}

// WritePlan writes plan text to a file in dir and returns its path.
func WritePlan(t *testing.T, dir, text string) string {
	t.Helper()
	path := filepath.Join(dir, "plan.txt")
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatalf("failed to write plan: %v", err)
	}
	return path
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if fenceCount := strings.Count(md, "```"); fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
