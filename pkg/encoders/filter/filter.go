// Package filter implements the subscription predicate language: a
// conjunction of optional predicates, each itself a disjunction over its
// listed alternatives, plus the normalization that resolves the two
// dynamically-typed shapes adapters may hand it (numeric strings, and tag
// filters as either a list of [key, value] pairs or a {key: [values]} map)
// into one normalized form every later stage can rely on.
package filter

import (
	"bytes"
	"strconv"

	"aether.dev/pkg/encoders/event"
	"aether.dev/pkg/encoders/kind"
	"aether.dev/pkg/encoders/timestamp"
)

// F is a normalized filter.
type F struct {
	Kinds          []kind.K
	PubkeyPrefixes [][]byte
	// Tags maps a required tag key to the set of values that satisfy it;
	// an event matches a key iff it carries the key with any one of the
	// listed values (OR within a key, AND across keys).
	Tags  map[string][]string
	Since *timestamp.T
	Until *timestamp.T
	Limit int
}

// New constructs an empty filter.
func New() *F { return &F{Tags: map[string][]string{}} }

// Match reports whether ev satisfies every present predicate in f.
func Match(ev *event.E, f *F) bool {
	if f == nil {
		return true
	}
	if len(f.Kinds) > 0 {
		ok := false
		for _, k := range f.Kinds {
			if k == ev.Kind {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(f.PubkeyPrefixes) > 0 {
		ok := false
		for _, p := range f.PubkeyPrefixes {
			if bytes.HasPrefix(ev.Pubkey, p) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for key, values := range f.Tags {
		if len(values) == 0 {
			continue
		}
		matched := false
		if ev.Tags != nil {
			for _, t := range ev.Tags.GetAll(key) {
				for _, v := range values {
					if t.HasValue([]byte(v)) {
						matched = true
						break
					}
				}
				if matched {
					break
				}
			}
		}
		if !matched {
			return false
		}
	}
	if f.Since != nil && ev.CreatedAt.Before(*f.Since) {
		return false
	}
	if f.Until != nil && ev.CreatedAt.After(*f.Until) {
		return false
	}
	return true
}

// Normalize builds an F from an adapter-supplied, dynamically-typed filter
// object: numeric fields may arrive as JSON numbers or numeric strings, and
// the "tags" field may be either {"key":["v1","v2"]} or a list of
// ["key","value"] pairs; both collapse to the same F.Tags map.
func Normalize(raw map[string]any) *F {
	f := New()
	if ks, ok := raw["kinds"]; ok {
		for _, v := range asSlice(ks) {
			if n, ok := asInt(v); ok {
				f.Kinds = append(f.Kinds, kind.New(uint16(n)))
			}
		}
	}
	if pp, ok := raw["pubkey_prefixes"]; ok {
		for _, v := range asSlice(pp) {
			if s, ok := v.(string); ok {
				f.PubkeyPrefixes = append(f.PubkeyPrefixes, []byte(s))
			}
		}
	}
	if tg, ok := raw["tags"]; ok {
		switch t := tg.(type) {
		case map[string]any:
			for k, v := range t {
				for _, vv := range asSlice(v) {
					if s, ok := vv.(string); ok {
						f.Tags[k] = append(f.Tags[k], s)
					}
				}
			}
		case []any:
			for _, pair := range t {
				if p, ok := pair.([]any); ok && len(p) == 2 {
					k, kok := p[0].(string)
					v, vok := p[1].(string)
					if kok && vok {
						f.Tags[k] = append(f.Tags[k], v)
					}
				}
			}
		}
	}
	if s, ok := raw["since"]; ok {
		if n, ok := asInt(s); ok {
			ts := timestamp.New(uint64(n))
			f.Since = &ts
		}
	}
	if u, ok := raw["until"]; ok {
		if n, ok := asInt(u); ok {
			ts := timestamp.New(uint64(n))
			f.Until = &ts
		}
	}
	if l, ok := raw["limit"]; ok {
		if n, ok := asInt(l); ok {
			f.Limit = int(n)
		}
	}
	return f
}

func asSlice(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	default:
		return nil
	}
}

// asInt coerces a JSON number or numeric string into an int64, resolving
// the dynamic typing the adapters may hand this package.
func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return int64(x), true
	case int:
		return int64(x), true
	case int64:
		return x, true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
