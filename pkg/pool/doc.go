// Package pool owns the per-identity connection pools.
//
// An identity is a Fingerprint derived from (account, secret, database,
// host, port). A Registry maps fingerprints to bounded database/sql pools;
// once a pool exists, callers only ever pass the fingerprint around and the
// credentials are not needed again.
package pool
