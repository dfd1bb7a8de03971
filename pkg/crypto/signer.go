package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"

	"aether.dev/pkg/utils/errorf"
)

// SigSize is the size in bytes of an Ed25519 signature.
const SigSize = ed25519.SignatureSize

// PubKeySize is the size in bytes of an Ed25519 public key.
const PubKeySize = ed25519.PublicKeySize

// I is the signer interface used across the tree: generate a keypair, load
// one from raw bytes, sign, and verify. Shaped after the teacher's
// secp256k1 signer.I, reimplemented against Ed25519 rather than ported.
type I interface {
	Generate() (err error)
	InitSec(sec []byte) (err error)
	InitPub(pub []byte) (err error)
	Sec() []byte
	Pub() []byte
	Sign(msg []byte) (sig []byte, err error)
	Verify(msg, sig []byte) (valid bool, err error)
	Zero()
}

// Signer implements I over crypto/ed25519. No ecosystem library improves on
// the standard library's constant-time Ed25519 implementation, and the data
// model names Ed25519 as an opaque primitive — see DESIGN.md.
type Signer struct {
	sec ed25519.PrivateKey
	pub ed25519.PublicKey
}

var _ I = (*Signer)(nil)

// Generate creates a new random Ed25519 keypair.
func (s *Signer) Generate() (err error) {
	pub, sec, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}
	s.pub, s.sec = pub, sec
	return nil
}

// InitSec loads a 64-byte Ed25519 private key (or a 32-byte seed, expanded).
func (s *Signer) InitSec(sec []byte) (err error) {
	switch len(sec) {
	case ed25519.SeedSize:
		s.sec = ed25519.NewKeyFromSeed(sec)
	case ed25519.PrivateKeySize:
		s.sec = append(ed25519.PrivateKey(nil), sec...)
	default:
		return errorf.E("crypto: invalid private key length %d", len(sec))
	}
	s.pub = s.sec.Public().(ed25519.PublicKey)
	return nil
}

// InitPub loads a 32-byte Ed25519 public key.
func (s *Signer) InitPub(pub []byte) (err error) {
	if len(pub) != ed25519.PublicKeySize {
		return errorf.E("crypto: invalid public key length %d", len(pub))
	}
	s.pub = append(ed25519.PublicKey(nil), pub...)
	return nil
}

// Sec returns the raw private key seed (32 bytes), or nil if unset.
func (s *Signer) Sec() []byte {
	if len(s.sec) < ed25519.SeedSize {
		return nil
	}
	return s.sec.Seed()
}

// Pub returns the raw public key (32 bytes).
func (s *Signer) Pub() []byte { return s.pub }

// Sign signs msg (normally an event_id) with the loaded private key.
func (s *Signer) Sign(msg []byte) (sig []byte, err error) {
	if len(s.sec) == 0 {
		return nil, errorf.E("crypto: no private key loaded")
	}
	return ed25519.Sign(s.sec, msg), nil
}

// Verify checks sig over msg against the loaded public key, in constant
// time with respect to the signature bytes compared.
func (s *Signer) Verify(msg, sig []byte) (valid bool, err error) {
	if len(s.pub) != ed25519.PublicKeySize {
		return false, errorf.E("crypto: no public key loaded")
	}
	if len(sig) != ed25519.SignatureSize {
		return false, nil
	}
	return ed25519.Verify(s.pub, msg, sig), nil
}

// Zero clears the private key material.
func (s *Signer) Zero() {
	for i := range s.sec {
		s.sec[i] = 0
	}
	s.sec = nil
}

// ConstantTimeEqual reports whether a and b are equal, in constant time,
// used to compare a recomputed event_id against the one carried on the
// wire.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
