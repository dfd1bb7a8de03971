package filter

import (
	"testing"

	"aether.dev/pkg/crypto"
	"aether.dev/pkg/encoders/event"
	"aether.dev/pkg/encoders/kind"
	"aether.dev/pkg/encoders/tag"
	"aether.dev/pkg/encoders/tags"
	"aether.dev/pkg/encoders/timestamp"
)

func makeEvent(t *testing.T, k kind.K, ts ...*tag.T) *event.E {
	t.Helper()
	var s crypto.Signer
	if err := s.Generate(); err != nil {
		t.Fatalf("generate signer: %v", err)
	}
	ev := event.New()
	ev.CreatedAt = timestamp.Now()
	ev.Kind = k
	ev.Tags = tags.New(ts...)
	ev.Content = []byte("x")
	if err := ev.Sign(&s); err != nil {
		t.Fatalf("sign: %v", err)
	}
	return ev
}

func TestMatchNilFilterAcceptsEverything(t *testing.T) {
	ev := makeEvent(t, kind.New(1))
	if !Match(ev, nil) {
		t.Error("Match(ev, nil) should always accept")
	}
}

func TestMatchKinds(t *testing.T) {
	ev := makeEvent(t, kind.New(1))
	f := New()
	f.Kinds = []kind.K{kind.New(1), kind.New(2)}
	if !Match(ev, f) {
		t.Error("expected match: event kind is in the filter's kind list")
	}
	f.Kinds = []kind.K{kind.New(2)}
	if Match(ev, f) {
		t.Error("expected no match: event kind is not in the filter's kind list")
	}
}

func TestMatchPubkeyPrefix(t *testing.T) {
	ev := makeEvent(t, kind.New(1))
	f := New()
	f.PubkeyPrefixes = [][]byte{ev.Pubkey[:4]}
	if !Match(ev, f) {
		t.Error("expected match on a correct pubkey prefix")
	}
	f.PubkeyPrefixes = [][]byte{{0xff, 0xff, 0xff, 0xff}}
	if Match(ev, f) {
		t.Error("expected no match on an unrelated pubkey prefix")
	}
}

func TestMatchTagsOrWithinKeyAndAcrossKeys(t *testing.T) {
	ev := makeEvent(t, kind.New(1), tag.New("e", "abcd"), tag.New("p", "dead"))
	f := New()
	f.Tags["e"] = []string{"abcd", "other"}
	if !Match(ev, f) {
		t.Error("expected match: one of the OR'd values for key e is present")
	}
	f.Tags["p"] = []string{"beef"}
	if Match(ev, f) {
		t.Error("expected no match: key p's required value is absent (AND across keys)")
	}
}

func TestMatchSinceUntil(t *testing.T) {
	ev := makeEvent(t, kind.New(1))
	f := New()
	past := timestamp.New(ev.CreatedAt.U64() - uint64(1_000_000_000))
	future := timestamp.New(ev.CreatedAt.U64() + uint64(1_000_000_000))
	f.Since = &past
	f.Until = &future
	if !Match(ev, f) {
		t.Error("expected match: event falls within [since, until]")
	}
	tooLate := timestamp.New(ev.CreatedAt.U64() + uint64(1_000_000_000))
	f.Since = &tooLate
	if Match(ev, f) {
		t.Error("expected no match: event is before since")
	}
}

func TestNormalizeNumericStringsAndTagShapes(t *testing.T) {
	raw := map[string]any{
		"kinds":   []any{"1", float64(2)},
		"tags":    map[string]any{"e": []any{"abcd"}},
		"since":   "100",
		"until":   float64(200),
		"limit":   "10",
	}
	f := Normalize(raw)
	if len(f.Kinds) != 2 || f.Kinds[0] != kind.New(1) || f.Kinds[1] != kind.New(2) {
		t.Errorf("Normalize: kinds = %v, want [1 2]", f.Kinds)
	}
	if f.Since == nil || f.Since.U64() != 100 {
		t.Error("Normalize: since should parse the numeric string")
	}
	if f.Until == nil || f.Until.U64() != 200 {
		t.Error("Normalize: until should parse the JSON number")
	}
	if f.Limit != 10 {
		t.Errorf("Normalize: limit = %d, want 10", f.Limit)
	}
	if vals := f.Tags["e"]; len(vals) != 1 || vals[0] != "abcd" {
		t.Errorf("Normalize: tags[e] = %v, want [abcd]", vals)
	}
}

func TestNormalizeTagsAsPairList(t *testing.T) {
	raw := map[string]any{
		"tags": []any{[]any{"p", "dead"}, []any{"p", "beef"}},
	}
	f := Normalize(raw)
	if vals := f.Tags["p"]; len(vals) != 2 {
		t.Errorf("Normalize: tags[p] = %v, want two values", vals)
	}
}
