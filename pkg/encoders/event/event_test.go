package event

import (
	"testing"

	"lukechampine.com/frand"

	"aether.dev/pkg/crypto"
	"aether.dev/pkg/encoders/kind"
	"aether.dev/pkg/encoders/tag"
	"aether.dev/pkg/encoders/tags"
	"aether.dev/pkg/encoders/timestamp"
)

// randomContent mirrors the teacher's GenerateRandomTextNoteEvent: random
// byte content of 1 to 256 bytes rather than a fixed test fixture,
// so repeated test runs exercise different content lengths.
func randomContent() []byte {
	return frand.Bytes(1 + frand.Intn(256))
}

func signedEvent(t *testing.T, k kind.K, ts ...*tag.T) *E {
	t.Helper()
	var s crypto.Signer
	if err := s.Generate(); err != nil {
		t.Fatalf("generate signer: %v", err)
	}
	ev := New()
	ev.CreatedAt = timestamp.Now()
	ev.Kind = k
	ev.Tags = tags.New(ts...)
	ev.Content = randomContent()
	if err := ev.Sign(&s); err != nil {
		t.Fatalf("sign: %v", err)
	}
	return ev
}

func TestSignVerifyRoundTrip(t *testing.T) {
	ev := signedEvent(t, kind.New(1))
	if err := ev.Valid(); err != nil {
		t.Fatalf("Valid() returned error on well-formed event: %v", err)
	}
	if !ev.VerifyId() {
		t.Error("VerifyId() should succeed on an untampered event")
	}
	valid, err := ev.VerifySig()
	if err != nil {
		t.Fatalf("VerifySig() errored: %v", err)
	}
	if !valid {
		t.Error("VerifySig() should succeed on an untampered event")
	}
}

func TestVerifyIdRejectsTamperedContent(t *testing.T) {
	ev := signedEvent(t, kind.New(1))
	ev.Content = []byte("tampered")
	if ev.VerifyId() {
		t.Error("VerifyId() should fail once content diverges from the hashed id")
	}
}

func TestVerifySigRejectsWrongKey(t *testing.T) {
	ev := signedEvent(t, kind.New(1))
	var other crypto.Signer
	if err := other.Generate(); err != nil {
		t.Fatalf("generate second signer: %v", err)
	}
	ev.Pubkey = other.Pub()
	ev.ComputeId()
	valid, err := ev.VerifySig()
	if err == nil && valid {
		t.Error("VerifySig() should fail once the pubkey no longer matches the signature")
	}
}

func TestValidRejectsOversizedContent(t *testing.T) {
	ev := signedEvent(t, kind.New(1))
	ev.Content = make([]byte, MaxContent+1)
	ev.ComputeId()
	if err := ev.Valid(); err == nil {
		t.Error("Valid() should reject content over MaxContent bytes")
	}
}

func TestValidRejectsBadFieldLengths(t *testing.T) {
	ev := signedEvent(t, kind.New(1))
	ev.Pubkey = ev.Pubkey[:16]
	if err := ev.Valid(); err == nil {
		t.Error("Valid() should reject a truncated pubkey")
	}
}

func TestProtected(t *testing.T) {
	plain := signedEvent(t, kind.New(1))
	if plain.Protected() {
		t.Error("event with no \"-\" tag should not be Protected")
	}
	protected := signedEvent(t, kind.New(1), tag.New("-"))
	if !protected.Protected() {
		t.Error("event with a \"-\" tag should be Protected")
	}
}

func TestDValue(t *testing.T) {
	ev := signedEvent(t, kind.New(30000), tag.New("d", "profile"))
	if got := ev.DValue(); got != "profile" {
		t.Errorf("DValue() = %q, want %q", got, "profile")
	}
	noD := signedEvent(t, kind.New(30000))
	if got := noD.DValue(); got != "" {
		t.Errorf("DValue() on a tagless event = %q, want empty", got)
	}
}

func TestReferencedIdsAndAddrs(t *testing.T) {
	ev := signedEvent(
		t, kind.New(5),
		tag.New("e", "abcd"),
		tag.New("a", "30000:deadbeef:profile"),
	)
	ids := ev.ReferencedIds()
	if len(ids) != 1 || string(ids[0]) != "abcd" {
		t.Errorf("ReferencedIds() = %v, want [abcd]", ids)
	}
	addrs := ev.ReferencedAddrs()
	if len(addrs) != 1 || addrs[0] != "30000:deadbeef:profile" {
		t.Errorf("ReferencedAddrs() = %v, want [30000:deadbeef:profile]", addrs)
	}
}

func TestCanonicalIsDeterministic(t *testing.T) {
	ev := signedEvent(t, kind.New(1), tag.New("e", "abcd"))
	first := ev.Canonical()
	second := ev.Canonical()
	if string(first) != string(second) {
		t.Error("Canonical() should be deterministic for an unmodified event")
	}
}
