// Package atomic provides typed atomic containers over go.uber.org/atomic
// for values that don't fit uber's built-in String/Bool primitives as-is
// (Bytes needs copy-on-load/copy-on-store semantics) and thin aliases for
// the ones that do, used for per-session state touched by both the
// connection's reader goroutine and its sender goroutine.
package atomic

import (
	"encoding/base64"
	"encoding/json"

	uatomic "go.uber.org/atomic"
)

// String is an atomic string, aliasing go.uber.org/atomic's.
type String = uatomic.String

// NewString constructs a String with an initial value.
func NewString(v string) *String { return uatomic.NewString(v) }

// Bool is an atomic bool, aliasing go.uber.org/atomic's.
type Bool = uatomic.Bool

// NewBool constructs a Bool with an initial value.
func NewBool(v bool) *Bool { return uatomic.NewBool(v) }

// Uint64 is an atomic uint64, aliasing go.uber.org/atomic's.
type Uint64 = uatomic.Uint64

// NewUint64 constructs a Uint64 with an initial value.
func NewUint64(v uint64) *Uint64 { return uatomic.NewUint64(v) }

// Bytes is an atomic []byte. Load and Store copy their argument so the
// stored slice is never aliased with caller-owned memory.
type Bytes struct {
	v uatomic.Value
}

// NewBytes constructs a Bytes with an initial value, which is copied.
func NewBytes(v []byte) *Bytes {
	b := &Bytes{}
	b.Store(v)
	return b
}

// Load returns a copy of the current value.
func (b *Bytes) Load() []byte {
	v, _ := b.v.Load().([]byte)
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

// Store replaces the current value with a copy of v.
func (b *Bytes) Store(v []byte) {
	cp := make([]byte, len(v))
	copy(cp, v)
	b.v.Store(cp)
}

// MarshalJSON encodes the current value as a base64 JSON string.
func (b *Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(b.Load()))
}

// UnmarshalJSON decodes a base64 JSON string into the current value.
func (b *Bytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return err
	}
	b.Store(v)
	return nil
}
