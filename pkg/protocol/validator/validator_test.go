package validator

import (
	"testing"
	"time"

	"aether.dev/pkg/crypto"
	"aether.dev/pkg/encoders/envelopes"
	"aether.dev/pkg/encoders/event"
	"aether.dev/pkg/encoders/kind"
	"aether.dev/pkg/encoders/tag"
	"aether.dev/pkg/encoders/tags"
	"aether.dev/pkg/encoders/timestamp"
)

func signedEvent(t *testing.T, k kind.K, created timestamp.T, ts ...*tag.T) (*event.E, *crypto.Signer) {
	t.Helper()
	var s crypto.Signer
	if err := s.Generate(); err != nil {
		t.Fatalf("generate signer: %v", err)
	}
	ev := event.New()
	ev.CreatedAt = created
	ev.Kind = k
	ev.Tags = tags.New(ts...)
	ev.Content = []byte("x")
	if err := ev.Sign(&s); err != nil {
		t.Fatalf("sign: %v", err)
	}
	return ev, &s
}

func TestValidateAcceptsWellFormedEvent(t *testing.T) {
	v := New(DefaultConfig())
	ev, _ := signedEvent(t, kind.New(1), timestamp.Now())
	out := v.Validate(ev, nil)
	if !out.Accepted {
		t.Errorf("expected acceptance, got rejection with code %q", out.Code)
	}
}

func TestValidateRejectsStructurallyInvalidEvent(t *testing.T) {
	v := New(DefaultConfig())
	ev, _ := signedEvent(t, kind.New(1), timestamp.Now())
	ev.Pubkey = ev.Pubkey[:10]
	out := v.Validate(ev, nil)
	if out.Accepted || out.Code != envelopes.ErrInvalidEvent {
		t.Errorf("got %+v, want rejection with code %q", out, envelopes.ErrInvalidEvent)
	}
}

func TestValidateRejectsTamperedId(t *testing.T) {
	v := New(DefaultConfig())
	ev, _ := signedEvent(t, kind.New(1), timestamp.Now())
	ev.Content = []byte("tampered")
	out := v.Validate(ev, nil)
	if out.Accepted || out.Code != envelopes.ErrInvalidEventId {
		t.Errorf("got %+v, want rejection with code %q", out, envelopes.ErrInvalidEventId)
	}
}

func TestValidateRejectsBadSignature(t *testing.T) {
	v := New(DefaultConfig())
	ev, _ := signedEvent(t, kind.New(1), timestamp.Now())
	var other crypto.Signer
	if err := other.Generate(); err != nil {
		t.Fatalf("generate second signer: %v", err)
	}
	ev.Pubkey = other.Pub()
	ev.ComputeId()
	out := v.Validate(ev, nil)
	if out.Accepted || out.Code != envelopes.ErrInvalidSignature {
		t.Errorf("got %+v, want rejection with code %q", out, envelopes.ErrInvalidSignature)
	}
}

func TestValidateRejectsInvalidKind(t *testing.T) {
	v := New(DefaultConfig())
	ev, _ := signedEvent(t, kind.New(1500), timestamp.Now())
	out := v.Validate(ev, nil)
	if out.Accepted || out.Code != envelopes.ErrInvalidKind {
		t.Errorf("got %+v, want rejection with code %q", out, envelopes.ErrInvalidKind)
	}
}

func TestValidateRejectsFutureTimestamp(t *testing.T) {
	v := New(Config{MaxSkew: 60 * time.Second})
	ev, _ := signedEvent(t, kind.New(1), timestamp.FromTime(time.Now().Add(time.Hour)))
	out := v.Validate(ev, nil)
	if out.Accepted || out.Code != envelopes.ErrTimestampOutOfRange {
		t.Errorf("got %+v, want rejection with code %q", out, envelopes.ErrTimestampOutOfRange)
	}
}

func TestValidateEnforcesProofOfWork(t *testing.T) {
	v := New(Config{MaxSkew: time.Minute, MinPowDifficulty: 64})
	ev, _ := signedEvent(t, kind.New(1), timestamp.Now())
	out := v.Validate(ev, nil)
	if out.Accepted || out.Code != envelopes.ErrInsufficientPow {
		t.Errorf("got %+v, want rejection with code %q", out, envelopes.ErrInsufficientPow)
	}
}

func TestValidateRejectsProtectedEventWithoutMatchingAuth(t *testing.T) {
	v := New(DefaultConfig())
	ev, _ := signedEvent(t, kind.New(1), timestamp.Now(), tag.New("-"))
	out := v.Validate(ev, nil)
	if out.Accepted || out.Code != envelopes.ErrValidationFailed {
		t.Errorf("got %+v, want rejection with code %q", out, envelopes.ErrValidationFailed)
	}
}

func TestValidateAcceptsProtectedEventWithMatchingAuth(t *testing.T) {
	v := New(DefaultConfig())
	ev, _ := signedEvent(t, kind.New(1), timestamp.Now(), tag.New("-"))
	out := v.Validate(ev, ev.Pubkey)
	if !out.Accepted {
		t.Errorf("expected acceptance when authedPubkey matches the event's own pubkey, got %+v", out)
	}
}

func TestValidateRejectsProtectedEventWithDifferentAuth(t *testing.T) {
	v := New(DefaultConfig())
	ev, _ := signedEvent(t, kind.New(1), timestamp.Now(), tag.New("-"))
	other := make([]byte, len(ev.Pubkey))
	out := v.Validate(ev, other)
	if out.Accepted || out.Code != envelopes.ErrValidationFailed {
		t.Errorf("got %+v, want rejection with code %q", out, envelopes.ErrValidationFailed)
	}
}
