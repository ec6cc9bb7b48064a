package guard

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapplan/pkg/core"
)

// Checker is implemented by every guard that runs at the execution boundary.
// Check returns the (possibly normalized) statement or an error.
type Checker interface {
	Check(sql string) (string, error)
}

// Pattern is a case-insensitive construct that a dialect does not accept.
type Pattern struct {
	// Expr is the source expression, reported back in DialectViolation errors.
	Expr string
	re   *regexp.Regexp
}

// NewPattern compiles expr case-insensitively.
func NewPattern(expr string) Pattern {
	return Pattern{Expr: expr, re: regexp.MustCompile(`(?i)` + expr)}
}

// Rewrite replaces a spelling the engine rejects with the one it expects.
type Rewrite struct {
	Expr    string
	Replace string
	re      *regexp.Regexp
}

// NewRewrite compiles expr case-insensitively.
func NewRewrite(expr, replace string) Rewrite {
	return Rewrite{Expr: expr, Replace: replace, re: regexp.MustCompile(`(?i)` + expr)}
}

// Profile is the rule set for one SQL dialect.
type Profile struct {
	Name      string
	Forbidden []Pattern
	Rewrites  []Rewrite
}

// Built-in profile names.
const (
	ProfileMySQL      = "mysql"
	ProfilePermissive = "permissive"
)

// MySQL rejects constructs from other dialects (mostly PostgreSQL) and
// spells temporary tables the MySQL way.
var MySQL = &Profile{
	Name: ProfileMySQL,
	Forbidden: []Pattern{
		NewPattern(`\bILIKE\b`),
		NewPattern(`\bRETURNING\b`),
		NewPattern(`\bFILTER\s*\(`),
		NewPattern(`::\w+`),
		NewPattern(`\bSERIAL\b`),
		NewPattern(`\bON\s+CONFLICT\b`),
		NewPattern(`\bLIMIT\s+ALL\b`),
	},
	Rewrites: []Rewrite{
		NewRewrite(`\bCREATE\s+TEMP\s+TABLE\b`, "CREATE TEMPORARY TABLE"),
	},
}

// Permissive only normalizes whitespace. It is used for engines whose
// dialect accepts the constructs MySQL rejects.
var Permissive = &Profile{Name: ProfilePermissive}

// Profile registry
var (
	profilesMu sync.RWMutex
	profiles   = map[string]*Profile{
		ProfileMySQL:      MySQL,
		ProfilePermissive: Permissive,
	}
)

// Register adds or replaces a profile.
func Register(p *Profile) {
	profilesMu.Lock()
	defer profilesMu.Unlock()
	profiles[strings.ToLower(p.Name)] = p
}

// Get returns a profile by name.
func Get(name string) (*Profile, bool) {
	profilesMu.RLock()
	defer profilesMu.RUnlock()
	p, ok := profiles[strings.ToLower(name)]
	return p, ok
}

// List returns all registered profile names (sorted).
func List() []string {
	profilesMu.RLock()
	defer profilesMu.RUnlock()
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DialectGuard enforces one dialect profile.
type DialectGuard struct {
	profile *Profile
}

// NewDialectGuard returns a guard for p. A nil profile means MySQL.
func NewDialectGuard(p *Profile) *DialectGuard {
	if p == nil {
		p = MySQL
	}
	return &DialectGuard{profile: p}
}

// ForDialect returns a guard for the named profile, falling back to MySQL
// for unknown names.
func ForDialect(name string) *DialectGuard {
	p, ok := Get(name)
	if !ok {
		p = MySQL
	}
	return NewDialectGuard(p)
}

// Profile returns the profile being enforced.
func (g *DialectGuard) Profile() *Profile {
	return g.profile
}

// Enforce rejects forbidden constructs and applies rewrites. Apart from
// trimming and rewrites the statement is returned unchanged.
func (g *DialectGuard) Enforce(sql string) (string, error) {
	clean := strings.TrimSpace(sql)

	for _, p := range g.profile.Forbidden {
		if p.re.MatchString(clean) {
			return "", core.ErrDialectViolation(p.Expr)
		}
	}

	for _, rw := range g.profile.Rewrites {
		clean = rw.re.ReplaceAllString(clean, rw.Replace)
	}

	return clean, nil
}

// Check implements Checker.
func (g *DialectGuard) Check(sql string) (string, error) {
	return g.Enforce(sql)
}
