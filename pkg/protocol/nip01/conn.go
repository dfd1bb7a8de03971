package nip01

import (
	"encoding/json"

	"aether.dev/pkg/core"
	"aether.dev/pkg/encoders/event"
	"aether.dev/pkg/encoders/filter"
	"aether.dev/pkg/encoders/hex"
	"aether.dev/pkg/utils/context"
	"aether.dev/pkg/utils/iptracker"
	"aether.dev/pkg/utils/log"
)

// FrameSender is implemented by whatever owns the underlying socket.
type FrameSender interface {
	SendText(b []byte) error
}

// Conn is one NIP-01 client connection: it owns its subscriptions and
// implements dispatcher.Sender to receive live-matched events from core.
type Conn struct {
	remote string
	sender FrameSender
	core   *core.Core
	subIDs map[string]bool

	// closeRequested is set once remote trips the iptracker block
	// threshold; Serve checks ShouldClose after each HandleMessage and
	// tears the connection down.
	closeRequested bool
}

// NewConn constructs a Conn for one connected client.
func NewConn(remote string, sender FrameSender, c *core.Core) *Conn {
	return &Conn{remote: remote, sender: sender, core: c, subIDs: map[string]bool{}}
}

// Deliver implements dispatcher.Sender: emit ["EVENT", sub_id, event].
func (c *Conn) Deliver(subID string, ev *event.E) error {
	return c.sendEvent(subID, ev)
}

func (c *Conn) sendEvent(subID string, ev *event.E) error {
	wire, err := eventToWire(ev)
	if err != nil {
		return err
	}
	subJSON, err := json.Marshal(subID)
	if err != nil {
		return err
	}
	return c.writeArray("EVENT", json.RawMessage(subJSON), wire)
}

func (c *Conn) writeArray(parts ...any) error {
	b, err := json.Marshal(frameFrom(parts))
	if err != nil {
		return err
	}
	return c.sender.SendText(b)
}

func frameFrom(parts []any) []any {
	// first element is always the string tag; remaining elements are
	// passed through as-is (string or json.RawMessage).
	out := make([]any, 0, len(parts)+1)
	out = append(out, parts[0])
	out = append(out, parts[1:]...)
	return out
}

// HandleMessage parses one inbound NIP-01 frame and dispatches it.
func (c *Conn) HandleMessage(ctx context.T, raw []byte) {
	if iptracker.Global.IsBlocked(c.remote) {
		c.notice("rate_limited: this address is temporarily blocked")
		c.closeRequested = true
		return
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil || len(arr) == 0 {
		c.notice("invalid_message: malformed frame")
		return
	}
	var tag string
	if err := json.Unmarshal(arr[0], &tag); err != nil {
		c.notice("invalid_message: missing frame tag")
		return
	}
	switch tag {
	case "EVENT":
		c.handleEvent(ctx, arr)
	case "REQ":
		c.handleReq(ctx, arr)
	case "CLOSE":
		c.handleClose(arr)
	default:
		c.notice("invalid_message: unknown frame tag " + tag)
	}
}

func (c *Conn) handleEvent(ctx context.T, arr []json.RawMessage) {
	if len(arr) < 2 {
		c.notice("invalid_message: EVENT missing payload")
		return
	}
	ev, err := wireToEvent(arr[1])
	if err != nil {
		c.ok("", false, err.Error())
		return
	}
	// the NIP-01 wire adapter carries no identity-authentication message in
	// this protocol's envelope vocabulary, so a NIP-01 session can never
	// satisfy the protected-publish tag check.
	result := c.core.Publish(ctx, ev, nil)
	c.ok(hex.Enc(ev.Id), result.Accepted, result.Reason)
	if !result.Accepted && iptracker.Global.RecordFailedAttempt(c.remote) {
		c.notice("rate_limited: too many rejected publishes from this address")
		c.closeRequested = true
	}
}

// ShouldClose reports whether this connection's remote address has tripped
// the iptracker block threshold and Serve should stop reading further
// frames and tear the connection down.
func (c *Conn) ShouldClose() bool { return c.closeRequested }

func (c *Conn) ok(eventID string, accepted bool, message string) {
	idJSON, _ := json.Marshal(eventID)
	acceptedJSON, _ := json.Marshal(accepted)
	msgJSON, _ := json.Marshal(message)
	if err := c.writeArray("OK", json.RawMessage(idJSON), json.RawMessage(acceptedJSON), json.RawMessage(msgJSON)); err != nil {
		log.D.F("nip01: OK write failed for %s: %v", c.remote, err)
	}
}

func (c *Conn) handleReq(ctx context.T, arr []json.RawMessage) {
	if len(arr) < 2 {
		c.notice("invalid_message: REQ missing subscription id")
		return
	}
	var subID string
	if err := json.Unmarshal(arr[1], &subID); err != nil {
		c.notice("invalid_message: malformed subscription id")
		return
	}
	merged := filter.New()
	for _, raw := range arr[2:] {
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			c.notice("invalid_message: malformed filter")
			return
		}
		f := filter.Normalize(m)
		merged.Kinds = append(merged.Kinds, f.Kinds...)
		merged.PubkeyPrefixes = append(merged.PubkeyPrefixes, f.PubkeyPrefixes...)
		for k, v := range f.Tags {
			merged.Tags[k] = append(merged.Tags[k], v...)
		}
		if f.Since != nil {
			merged.Since = f.Since
		}
		if f.Until != nil {
			merged.Until = f.Until
		}
		if f.Limit > 0 {
			merged.Limit = f.Limit
		}
	}

	backfill, err := c.core.Subscribe(ctx, subID, merged, c)
	if err != nil {
		c.notice("internal_error: " + err.Error())
		return
	}
	c.subIDs[subID] = true
	for _, ev := range backfill {
		if err := c.sendEvent(subID, ev); err != nil {
			log.D.F("nip01: backfill send failed for %s: %v", c.remote, err)
			return
		}
	}
	subJSON, _ := json.Marshal(subID)
	if err := c.writeArray("EOSE", json.RawMessage(subJSON)); err != nil {
		log.D.F("nip01: EOSE write failed for %s: %v", c.remote, err)
	}
}

func (c *Conn) handleClose(arr []json.RawMessage) {
	if len(arr) < 2 {
		return
	}
	var subID string
	if err := json.Unmarshal(arr[1], &subID); err != nil {
		return
	}
	c.core.Unsubscribe(subID)
	delete(c.subIDs, subID)
}

func (c *Conn) notice(text string) {
	b, _ := json.Marshal(text)
	if err := c.writeArray("NOTICE", json.RawMessage(b)); err != nil {
		log.D.F("nip01: NOTICE write failed for %s: %v", c.remote, err)
	}
}

// Close tears down every subscription this connection opened.
func (c *Conn) Close() {
	for id := range c.subIDs {
		c.core.Unsubscribe(id)
	}
}
