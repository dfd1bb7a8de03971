// Package tags implements the ordered collection of an event's tags, with
// the lookups the validator, store, and filter matcher all need: find the
// d-value, find all values for a key, and so on.
package tags

import "aether.dev/pkg/encoders/tag"

// T is an ordered sequence of tags, as carried on an event.
type T struct {
	T []*tag.T
}

// New constructs a Tags from a list of tags.
func New(t ...*tag.T) *T { return &T{T: t} }

// Len returns the number of tags.
func (t *T) Len() int {
	if t == nil {
		return 0
	}
	return len(t.T)
}

// GetFirst returns the first tag whose key matches the given tag's key, or
// nil if there is none. It's typically called as
// tags.GetFirst(tag.New("d")) to find the d-tag.
func (t *T) GetFirst(key *tag.T) *tag.T {
	if t == nil {
		return nil
	}
	for _, x := range t.T {
		if x.KeyIs(string(key.Key)) {
			return x
		}
	}
	return nil
}

// GetAll returns every tag whose key matches s.
func (t *T) GetAll(s string) []*tag.T {
	if t == nil {
		return nil
	}
	var out []*tag.T
	for _, x := range t.T {
		if x.KeyIs(s) {
			out = append(out, x)
		}
	}
	return out
}

// DValue returns the d-value used for parameterized-replaceable keying: the
// first value of the first tag with key "d", or the empty string if there
// is no d-tag.
func (t *T) DValue() string {
	d := t.GetFirst(&tag.T{Key: []byte("d")})
	if d == nil || len(d.Values) == 0 {
		return ""
	}
	return string(d.Values[0])
}

// Protected reports whether the tags carry a "-" tag, meaning only the
// authenticated pubkey matching the event's own pubkey may publish it.
func (t *T) Protected() bool {
	return t.GetFirst(&tag.T{Key: []byte("-")}) != nil
}

// Strings renders all tags as [][]string, the shape used by JSON and
// NIP-01 text encodings.
func (t *T) Strings() [][]string {
	if t == nil {
		return nil
	}
	out := make([][]string, 0, len(t.T))
	for _, x := range t.T {
		out = append(out, x.Strings())
	}
	return out
}

// FromStrings builds a Tags from the [][]string shape used by JSON/NIP-01.
func FromStrings(in [][]string) *T {
	out := &T{}
	for _, fields := range in {
		out.T = append(out.T, tag.FromStrings(fields))
	}
	return out
}
