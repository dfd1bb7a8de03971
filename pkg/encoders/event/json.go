package event

import (
	"encoding/json"

	"aether.dev/pkg/encoders/hex"
	"aether.dev/pkg/encoders/kind"
	"aether.dev/pkg/encoders/tags"
	"aether.dev/pkg/encoders/timestamp"
	"aether.dev/pkg/utils/errorf"
)

// wire is the JSON shape of an event, matching the PUBLISH/EVENT payload
// field names in the external interface: event_id, pubkey, kind,
// created_at, tags, content, sig.
type wire struct {
	Id        string     `json:"event_id"`
	Pubkey    string     `json:"pubkey"`
	Kind      uint16     `json:"kind"`
	CreatedAt uint64     `json:"created_at"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// MarshalJSON renders the event in the wire shape used by PUBLISH/EVENT
// payloads and the HTTP adapter.
func (ev *E) MarshalJSON() ([]byte, error) {
	w := wire{
		Id:        hex.Enc(ev.Id),
		Pubkey:    hex.Enc(ev.Pubkey),
		Kind:      ev.Kind.Uint16(),
		CreatedAt: ev.CreatedAt.U64(),
		Tags:      ev.Tags.Strings(),
		Content:   string(ev.Content),
		Sig:       hex.Enc(ev.Sig),
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses the wire shape into an event, hex-decoding the
// fixed-size identity fields. It does not itself validate field sizes or
// signatures — that's the validator's job.
func (ev *E) UnmarshalJSON(b []byte) (err error) {
	var w wire
	if err = json.Unmarshal(b, &w); err != nil {
		return errorf.W("event: unmarshal: %w", err)
	}
	if ev.Id, err = hex.Dec(w.Id); err != nil {
		return errorf.W("event: bad event_id: %w", err)
	}
	if ev.Pubkey, err = hex.Dec(w.Pubkey); err != nil {
		return errorf.W("event: bad pubkey: %w", err)
	}
	if ev.Sig, err = hex.Dec(w.Sig); err != nil {
		return errorf.W("event: bad sig: %w", err)
	}
	ev.Kind = kind.New(w.Kind)
	ev.CreatedAt = timestamp.New(w.CreatedAt)
	ev.Tags = tags.FromStrings(w.Tags)
	ev.Content = []byte(w.Content)
	return nil
}
