// Package kind classifies the 16-bit event kind field into its storage
// class: immutable, replaceable, ephemeral, or parameterized-replaceable.
// The ranges are fixed by the data model and never configurable.
package kind

// K is an event kind.
type K uint16

// New constructs a K from a raw value.
func New(k uint16) K { return K(k) }

const (
	immutableMax                = 999
	replaceableMin               = 10000
	replaceableMax               = 19999
	ephemeralMin                 = 20000
	ephemeralMax                 = 29999
	parameterizedReplaceableMin  = 30000
	parameterizedReplaceableMax  = 39999
)

// IsImmutable reports whether k is in the 0-999 range: stored indefinitely,
// subject to a configured TTL.
func (k K) IsImmutable() bool { return k <= immutableMax }

// IsReplaceable reports whether k is in the 10000-19999 range: at most one
// live event per (pubkey, kind).
func (k K) IsReplaceable() bool { return k >= replaceableMin && k <= replaceableMax }

// IsEphemeral reports whether k is in the 20000-29999 range: never
// persisted, fanned out only.
func (k K) IsEphemeral() bool { return k >= ephemeralMin && k <= ephemeralMax }

// IsParameterizedReplaceable reports whether k is in the 30000-39999 range:
// at most one live event per (pubkey, kind, d-value).
func (k K) IsParameterizedReplaceable() bool {
	return k >= parameterizedReplaceableMin && k <= parameterizedReplaceableMax
}

// IsValid reports whether k falls inside one of the four defined classes.
func (k K) IsValid() bool {
	return k.IsImmutable() || k.IsReplaceable() || k.IsEphemeral() ||
		k.IsParameterizedReplaceable()
}

// IsReplaceableClass reports whether k requires per-key replacement
// semantics (either plain or parameterized replaceable).
func (k K) IsReplaceableClass() bool {
	return k.IsReplaceable() || k.IsParameterizedReplaceable()
}

// Tombstone is the reserved kind for NIP-09-style deletion events.
const Tombstone K = 5

// IsTombstone reports whether k is the deletion kind.
func (k K) IsTombstone() bool { return k == Tombstone }

// Uint16 returns the raw value.
func (k K) Uint16() uint16 { return uint16(k) }
