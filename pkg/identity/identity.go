// Package identity provides the UUID helpers shared by every record in the
// data model: new random ids for fresh records, and a deterministic
// derivation for turning a platform-specific external id into a stable
// per-agent entity id.
package identity

import (
	"crypto/sha256"

	"github.com/google/uuid"
)

// New returns a fresh random UUID as a canonical hyphenated string.
func New() string {
	return uuid.NewString()
}

// namespace is a fixed, private UUID used as the root for deterministic
// entity derivation. It has no meaning beyond seeding the SHA-1 based
// uuid.NewSHA1 construction; any stable value would do, but it must never
// change once records have been derived from it.
var namespace = uuid.MustParse("9b1f1e6a-6b3e-4f7b-8b0e-6e8f2d9a7c11")

// UniqueID derives a deterministic UUID from an agent id and an external id
// (e.g. a Discord or Telegram user id), so the same external user always
// maps to the same entity id for a given agent. It is a pure function:
// identical inputs yield identical outputs across processes and across
// runs, which lets the runtime look up "have I seen this user before"
// without a side table.
func UniqueID(agentID, externalID string) string {
	// A null byte can't appear in either input's normal use (platform ids,
	// agent ids), so this separator can't be produced by shifting characters
	// across the boundary the way a plain ":" join could (agentID="a",
	// externalID="b:c" vs. agentID="a:b", externalID="c" hashing the same).
	seed := agentID + "\x00" + externalID
	sum := sha256.Sum256([]byte(seed))
	// uuid.NewSHA1 expects a namespace + name; feeding it the SHA-256 digest
	// of (agentID, externalID) as the name keeps the derivation a pure
	// function of its inputs.
	return uuid.NewSHA1(namespace, sum[:]).String()
}

// Valid reports whether s parses as a canonical UUID string.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
