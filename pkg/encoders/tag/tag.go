// Package tag implements a single event tag: a key followed by zero or more
// values. Keys are 1-8 ASCII [A-Za-z0-9_]; values are UTF-8, at most 16 per
// tag, at most 1024 bytes each.
package tag

import "bytes"

const (
	// MaxKeyLen is the maximum tag key length in bytes.
	MaxKeyLen = 8
	// MaxValues is the maximum number of values a tag may carry.
	MaxValues = 16
	// MaxValueLen is the maximum length in bytes of a single tag value.
	MaxValueLen = 1024
)

// T is a tag: a key and its ordered values.
type T struct {
	Key    []byte
	Values [][]byte
}

// New constructs a tag from a key and values, accepting either string or
// []byte for convenience at call sites built from literals.
func New[V string | []byte](key V, values ...V) *T {
	t := &T{Key: []byte(key)}
	for _, v := range values {
		t.Values = append(t.Values, []byte(v))
	}
	return t
}

// FromStrings constructs a tag from a plain []string, key first.
func FromStrings(fields []string) *T {
	if len(fields) == 0 {
		return &T{}
	}
	t := &T{Key: []byte(fields[0])}
	for _, v := range fields[1:] {
		t.Values = append(t.Values, []byte(v))
	}
	return t
}

// KeyIs reports whether the tag's key equals s.
func (t *T) KeyIs(s string) bool { return bytes.Equal(t.Key, []byte(s)) }

// Value returns the first value, or nil if the tag has none.
func (t *T) Value() []byte {
	if len(t.Values) == 0 {
		return nil
	}
	return t.Values[0]
}

// HasValue reports whether any of the tag's values equals v.
func (t *T) HasValue(v []byte) bool {
	for _, x := range t.Values {
		if bytes.Equal(x, v) {
			return true
		}
	}
	return false
}

// Strings renders the tag as a []string (key followed by values), the shape
// used by JSON and NIP-01 text encodings.
func (t *T) Strings() []string {
	out := make([]string, 0, len(t.Values)+1)
	out = append(out, string(t.Key))
	for _, v := range t.Values {
		out = append(out, string(v))
	}
	return out
}

// Valid reports whether the tag satisfies the size constraints of the data
// model.
func (t *T) Valid() bool {
	if len(t.Key) == 0 || len(t.Key) > MaxKeyLen {
		return false
	}
	for _, c := range t.Key {
		ok := (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') ||
			(c >= '0' && c <= '9') || c == '_'
		if !ok {
			return false
		}
	}
	if len(t.Values) > MaxValues {
		return false
	}
	for _, v := range t.Values {
		if len(v) > MaxValueLen {
			return false
		}
	}
	return true
}
