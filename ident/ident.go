// Package ident generates annotation and document identifiers.
package ident

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"

	"github.com/google/uuid"
)

// New returns a universally-unique opaque identifier. Used whenever an
// identifier is not supplied at construction time.
func New() string {
	return uuid.New().String()
}

// Deterministic returns an identifier derived only from seed: the same seed
// always yields the same identifier, on every platform. Different seeds
// collide with the same negligible probability as New.
//
// Derivation, for cross-implementation agreement: SHA-256 the seed, seed a
// PCG generator with the first two big-endian 8-byte words of the digest,
// draw two 64-bit values into a big-endian 16-byte buffer, stamp the RFC 4122
// version 4 and variant bits, and format as a canonical UUID string.
func Deterministic(seed string) string {
	digest := sha256.Sum256([]byte(seed))
	rng := rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(digest[0:8]),
		binary.BigEndian.Uint64(digest[8:16]),
	))

	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], rng.Uint64())
	binary.BigEndian.PutUint64(b[8:16], rng.Uint64())
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return uuid.UUID(b).String()
}
