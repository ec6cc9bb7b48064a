package pool

import (
	"testing"

	"github.com/leapstack-labs/leapplan/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestDeriveFingerprint_Deterministic(t *testing.T) {
	a := DeriveFingerprint("app", "secret", "sakila", "db.internal", 3306)
	b := DeriveFingerprint("app", "secret", "sakila", "db.internal", 3306)

	assert.Equal(t, a, b)
	assert.Len(t, string(a), 64)
	assert.NotContains(t, string(a), "secret")
	assert.Len(t, a.Short(), 12)
}

func TestDeriveFingerprint_EveryFieldMatters(t *testing.T) {
	base := DeriveFingerprint("app", "secret", "sakila", "db", 3306)

	variants := map[string]core.Fingerprint{
		"account":  DeriveFingerprint("app2", "secret", "sakila", "db", 3306),
		"secret":   DeriveFingerprint("app", "secret2", "sakila", "db", 3306),
		"database": DeriveFingerprint("app", "secret", "world", "db", 3306),
		"host":     DeriveFingerprint("app", "secret", "sakila", "db2", 3306),
		"port":     DeriveFingerprint("app", "secret", "sakila", "db", 3307),
	}
	for name, fp := range variants {
		assert.NotEqual(t, base, fp, name)
	}
}

func TestDeriveFingerprint_FieldBoundaries(t *testing.T) {
	tests := []struct {
		name string
		a, b core.Fingerprint
	}{
		{
			name: "account and secret",
			a:    DeriveFingerprint("ab", "c", "d", "h", 1),
			b:    DeriveFingerprint("a", "bc", "d", "h", 1),
		},
		{
			name: "separator inside field",
			a:    DeriveFingerprint("a|b", "c", "d", "h", 1),
			b:    DeriveFingerprint("a", "b|c", "d", "h", 1),
		},
		{
			name: "host and port",
			a:    DeriveFingerprint("a", "s", "d", "h1", 1),
			b:    DeriveFingerprint("a", "s", "d", "h", 11),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, tt.a, tt.b)
		})
	}
}

func TestFingerprintOf(t *testing.T) {
	creds := core.Credentials{Adapter: "postgres", User: "u", Password: "p", Database: "d", Host: "h", Port: 5432}
	fp := FingerprintOf(creds)
	assert.Equal(t, fp, FingerprintOf(creds))
	assert.Len(t, string(fp), 64)

	upper := creds
	upper.Adapter = "POSTGRES"
	assert.Equal(t, fp, FingerprintOf(upper))

	// the default engine and its explicit name are the same identity
	implicit := creds
	implicit.Adapter = ""
	explicit := creds
	explicit.Adapter = "mysql"
	assert.Equal(t, FingerprintOf(implicit), FingerprintOf(explicit))
}

func TestFingerprintOf_EngineIsPartOfIdentity(t *testing.T) {
	sqlite := core.Credentials{Adapter: "sqlite", Database: "/data/films.db"}
	duckdb := core.Credentials{Adapter: "duckdb", Database: "/data/films.db"}
	assert.NotEqual(t, FingerprintOf(sqlite), FingerprintOf(duckdb))
}
