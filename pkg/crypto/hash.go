// Package crypto wraps the two opaque cryptographic primitives the data
// model names: Blake3 for the canonical event hash, and Ed25519 for
// signatures. Neither is reimplemented here; this package only shapes them
// to the interfaces the rest of the tree expects (mirroring the signer.I
// shape the teacher's secp256k1 package used, reimplemented for a
// different curve).
package crypto

import "lukechampine.com/blake3"

// HashSize is the size in bytes of an event_id.
const HashSize = 32

// Hash computes the canonical Blake3 hash of b, used to derive event_id
// from an event's canonical serialization.
func Hash(b []byte) []byte {
	sum := blake3.Sum256(b)
	return sum[:]
}
