// Package event defines the atomic unit of the system: a signed,
// content-addressed record. Id and Sig are derived fields: Id is the
// Blake3 hash of the canonical serialization of the other fields, and Sig
// is an Ed25519 signature over Id.
package event

import (
	"bytes"
	"encoding/binary"

	"aether.dev/pkg/crypto"
	"aether.dev/pkg/encoders/kind"
	"aether.dev/pkg/encoders/tags"
	"aether.dev/pkg/encoders/timestamp"
	"aether.dev/pkg/utils/chk"
	"aether.dev/pkg/utils/errorf"
)

// Field size limits from the data model.
const (
	PubkeySize  = 32
	IdSize      = 32
	SigSize     = 64
	MaxContent  = 16 * 1024 * 1024
)

// E is an event: the atomic, content-addressed unit dispatched and stored
// by the relay core.
type E struct {
	Id        []byte     // Blake3(canonical(E)), 32 bytes
	Pubkey    []byte     // Ed25519 public key, 32 bytes
	CreatedAt timestamp.T
	Kind      kind.K
	Tags      *tags.T
	Content   []byte
	Sig       []byte // Ed25519 signature over Id, 64 bytes
}

// New constructs an empty event ready for Unmarshal or field-by-field
// population.
func New() *E { return &E{Tags: &tags.T{}} }

// S is a slice of events, the shape returned by Store queries and carried
// in backfill responses.
type S []*E

// Canonical produces the exact byte layout hashed to derive Id:
// pubkey ‖ be_u64(created_at) ‖ be_u16(kind) ‖ tags_blob ‖ content_raw.
func (ev *E) Canonical() []byte {
	var buf bytes.Buffer
	buf.Write(ev.Pubkey)
	var u64 [8]byte
	binary.BigEndian.PutUint64(u64[:], ev.CreatedAt.U64())
	buf.Write(u64[:])
	var u16 [2]byte
	binary.BigEndian.PutUint16(u16[:], ev.Kind.Uint16())
	buf.Write(u16[:])
	buf.Write(ev.tagsBlob())
	buf.Write(ev.Content)
	return buf.Bytes()
}

// tagsBlob encodes Tags as u16(tag_count) ‖ for each tag { u8(key_len) ‖
// key_bytes ‖ u16(value_count) ‖ for each value { u16(value_len) ‖
// value_bytes } }.
func (ev *E) tagsBlob() []byte {
	var buf bytes.Buffer
	var count [2]byte
	n := ev.Tags.Len()
	binary.BigEndian.PutUint16(count[:], uint16(n))
	buf.Write(count[:])
	if ev.Tags != nil {
		for _, t := range ev.Tags.T {
			buf.WriteByte(byte(len(t.Key)))
			buf.Write(t.Key)
			var vc [2]byte
			binary.BigEndian.PutUint16(vc[:], uint16(len(t.Values)))
			buf.Write(vc[:])
			for _, v := range t.Values {
				var vl [2]byte
				binary.BigEndian.PutUint16(vl[:], uint16(len(v)))
				buf.Write(vl[:])
				buf.Write(v)
			}
		}
	}
	return buf.Bytes()
}

// ComputeId sets ev.Id to the Blake3 hash of the canonical serialization.
func (ev *E) ComputeId() { ev.Id = crypto.Hash(ev.Canonical()) }

// Sign populates Pubkey, Id, and Sig from the given signer. The caller must
// set CreatedAt, Kind, Tags, and Content first.
func (ev *E) Sign(s crypto.I) (err error) {
	ev.Pubkey = s.Pub()
	ev.ComputeId()
	if ev.Sig, err = s.Sign(ev.Id); chk.E(err) {
		return
	}
	return
}

// VerifyId reports whether ev.Id matches the Blake3 hash of its own
// canonical serialization, in constant time.
func (ev *E) VerifyId() bool {
	return crypto.ConstantTimeEqual(ev.Id, crypto.Hash(ev.Canonical()))
}

// VerifySig reports whether ev.Sig is a valid Ed25519 signature over ev.Id
// under ev.Pubkey.
func (ev *E) VerifySig() (valid bool, err error) {
	var s crypto.Signer
	if err = s.InitPub(ev.Pubkey); chk.E(err) {
		return
	}
	return s.Verify(ev.Id, ev.Sig)
}

// Valid checks field sizes and tag constraints, the structural stage of
// validation (the first step the validator runs on an inbound event).
func (ev *E) Valid() (err error) {
	if len(ev.Pubkey) != PubkeySize {
		return errorf.E("invalid pubkey length %d", len(ev.Pubkey))
	}
	if len(ev.Id) != IdSize {
		return errorf.E("invalid event_id length %d", len(ev.Id))
	}
	if len(ev.Sig) != SigSize {
		return errorf.E("invalid sig length %d", len(ev.Sig))
	}
	if len(ev.Content) > MaxContent {
		return errorf.E("content too large: %d bytes", len(ev.Content))
	}
	if ev.Tags != nil {
		for _, t := range ev.Tags.T {
			if !t.Valid() {
				return errorf.E("invalid tag %q", t.Key)
			}
		}
	}
	return nil
}

// DValue returns the d-tag value used for parameterized-replaceable keying.
func (ev *E) DValue() string {
	if ev.Tags == nil {
		return ""
	}
	return ev.Tags.DValue()
}

// Protected reports whether the event carries a "-" tag restricting
// publication to the authenticated owning pubkey.
func (ev *E) Protected() bool {
	return ev.Tags != nil && ev.Tags.Protected()
}

// ReferencedIds returns the event_ids referenced by "e" tags, used by
// NIP-09-style deletion processing.
func (ev *E) ReferencedIds() [][]byte {
	if ev.Tags == nil {
		return nil
	}
	var out [][]byte
	for _, t := range ev.Tags.GetAll("e") {
		if v := t.Value(); v != nil {
			out = append(out, v)
		}
	}
	return out
}

// ReferencedAddrs returns the (pubkey, kind, d-value) addresses referenced
// by "a" tags, in the raw "pubkey:kind:d-value" form, used by NIP-09-style
// deletion processing against parameterized-replaceable events.
func (ev *E) ReferencedAddrs() []string {
	if ev.Tags == nil {
		return nil
	}
	var out []string
	for _, t := range ev.Tags.GetAll("a") {
		if v := t.Value(); v != nil {
			out = append(out, string(v))
		}
	}
	return out
}
