// Package nip01 is the NIP-01-compatible text adapter: a flat JSON-array
// protocol carried over a plain WebSocket connection, independent of the
// Codec/Session handshake the native and HTTP-JSON-WebSocket surfaces
// share. It re-keys "id" to "event_id" at the boundary (the only field
// name the external interface and NIP-01 disagree on) and calls straight
// into core.Core, since REQ/CLOSE have no session or format negotiation to
// thread through.
package nip01

import (
	"encoding/json"

	"aether.dev/pkg/encoders/event"
	"aether.dev/pkg/utils/errorf"
)

// eventToWire renders ev using the external interface's field names, then
// swaps "event_id" for NIP-01's "id".
func eventToWire(ev *event.E) (json.RawMessage, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	m["id"] = m["event_id"]
	delete(m, "event_id")
	return json.Marshal(m)
}

// wireToEvent parses a NIP-01-shaped event object ("id" instead of
// "event_id") into an event.E.
func wireToEvent(raw json.RawMessage) (*event.E, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errorf.W("nip01: malformed event object: %w", err)
	}
	id, ok := m["id"]
	if !ok {
		return nil, errorf.E("nip01: event object missing \"id\"")
	}
	m["event_id"] = id
	delete(m, "id")
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	ev := event.New()
	if err := json.Unmarshal(b, ev); err != nil {
		return nil, errorf.W("nip01: %w", err)
	}
	return ev, nil
}
