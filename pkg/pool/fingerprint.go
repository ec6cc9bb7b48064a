package pool

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapplan/pkg/adapter"
	"github.com/leapstack-labs/leapplan/pkg/core"
)

// DeriveFingerprint returns the hex SHA-256 digest of the connection tuple.
// Every field is length-prefixed so no two distinct tuples share an encoding.
func DeriveFingerprint(account, secret, database, host string, port int) core.Fingerprint {
	return digest(account, secret, database, host, strconv.Itoa(port))
}

// FingerprintOf derives the fingerprint of creds. The engine name is part of
// the digest, so two engines reading the same file never share a pool.
func FingerprintOf(creds core.Credentials) core.Fingerprint {
	engine := strings.ToLower(creds.Adapter)
	if engine == "" {
		engine = adapter.DefaultAdapter
	}
	return digest(creds.User, creds.Password, creds.Database, creds.Host, strconv.Itoa(creds.Port), engine)
}

func digest(fields ...string) core.Fingerprint {
	h := sha256.New()
	for _, field := range fields {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(field)))
		_, _ = h.Write(n[:])
		_, _ = h.Write([]byte(field))
	}
	return core.Fingerprint(hex.EncodeToString(h.Sum(nil)))
}
