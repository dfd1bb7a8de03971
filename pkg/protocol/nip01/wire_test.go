package nip01

import (
	"encoding/json"
	"testing"

	"aether.dev/pkg/crypto"
	"aether.dev/pkg/encoders/event"
	"aether.dev/pkg/encoders/kind"
	"aether.dev/pkg/encoders/tag"
	"aether.dev/pkg/encoders/tags"
	"aether.dev/pkg/encoders/timestamp"
)

func signedEvent(t *testing.T) *event.E {
	t.Helper()
	var s crypto.Signer
	if err := s.Generate(); err != nil {
		t.Fatalf("generate signer: %v", err)
	}
	ev := event.New()
	ev.CreatedAt = timestamp.Now()
	ev.Kind = kind.New(1)
	ev.Tags = tags.New(tag.New("e", "abcd"))
	ev.Content = []byte("hello")
	if err := ev.Sign(&s); err != nil {
		t.Fatalf("sign: %v", err)
	}
	return ev
}

func TestEventToWireRenamesIdField(t *testing.T) {
	ev := signedEvent(t)
	raw, err := eventToWire(ev)
	if err != nil {
		t.Fatalf("eventToWire() errored: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("failed to unmarshal wire form: %v", err)
	}
	if _, ok := m["id"]; !ok {
		t.Error("eventToWire() should produce an \"id\" field")
	}
	if _, ok := m["event_id"]; ok {
		t.Error("eventToWire() should not leave an \"event_id\" field")
	}
}

func TestWireToEventRoundTrip(t *testing.T) {
	ev := signedEvent(t)
	wire, err := eventToWire(ev)
	if err != nil {
		t.Fatalf("eventToWire() errored: %v", err)
	}
	round, err := wireToEvent(wire)
	if err != nil {
		t.Fatalf("wireToEvent() errored: %v", err)
	}
	if string(round.Id) != string(ev.Id) {
		t.Error("round-tripped event_id should match the original")
	}
	if !round.VerifyId() {
		t.Error("round-tripped event should still verify its own id")
	}
}

func TestWireToEventRejectsMissingId(t *testing.T) {
	_, err := wireToEvent(json.RawMessage(`{"pubkey":"abcd"}`))
	if err == nil {
		t.Error("wireToEvent() should reject an object with no \"id\" field")
	}
}
