// Package gateway is the transport-independent envelope handler shared by
// the native and HTTP-JSON-WebSocket surfaces: both speak the same
// HELLO/WELCOME/PUBLISH/SUBSCRIBE/UNSUBSCRIBE/EVENT/ACK/ERROR envelope
// vocabulary over a framed byte stream, differing only in how the bytes
// reach a socket. The NIP-01 text adapter does not use this package; its
// wire shape is a different, flat JSON-array protocol translated directly
// against core.Core.
package gateway

import (
	"encoding/json"

	"aether.dev/pkg/codec"
	"aether.dev/pkg/core"
	"aether.dev/pkg/encoders/envelopes"
	"aether.dev/pkg/encoders/event"
	"aether.dev/pkg/encoders/filter"
	"aether.dev/pkg/encoders/hex"
	"aether.dev/pkg/protocol/session"
	"aether.dev/pkg/utils/context"
	"aether.dev/pkg/utils/log"
)

// FrameWriter is implemented by whatever owns the underlying socket: a
// native WebSocket connection or the HTTP adapter's JSON-WebSocket mirror.
// binary selects the transport message type (WS binary vs. text frame);
// it tracks the session's negotiated codec format, not the Noise upgrade.
type FrameWriter interface {
	WriteFrame(b []byte, binary bool) error
}

// Conn binds one FrameWriter to the session state and subscription
// identity a live connection needs, and implements dispatcher.Sender so
// the dispatcher can deliver straight to it.
type Conn struct {
	Session *session.S
	writer  FrameWriter
	core    *core.Core
	subIDs  []string

	// closeRequested is set once the session's remote address trips the
	// iptracker block threshold; the owning transport loop checks
	// ShouldClose after each HandleFrame and tears the connection down.
	closeRequested bool
}

// NewConn constructs a Conn in the New session state.
func NewConn(remoteAddr string, w FrameWriter, c *core.Core) *Conn {
	return &Conn{Session: session.NewSession(remoteAddr), writer: w, core: c}
}

// Deliver implements dispatcher.Sender: send ev as an EVENT envelope for
// the given subscription.
func (c *Conn) Deliver(subID string, ev *event.E) error {
	return c.send(envelopes.Event, envelopes.NewEvent(subID, ev))
}

func (c *Conn) send(tag string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	format := c.Session.Format
	if format == "" {
		format = codec.JSON
	}
	env := &codec.Envelope{Type: tag, Payload: b}
	out, err := codec.Encode(env, format)
	if err != nil {
		return err
	}
	return c.writer.WriteFrame(c.Session.WrapOutgoing(out), format == codec.Binary)
}

// HandleFrame decodes one inbound frame and dispatches it by envelope
// type. Frames are decoded as codec.JSON until HELLO negotiates the
// session's real format, then with the session's negotiated format for
// every subsequent frame.
func (c *Conn) HandleFrame(ctx context.T, raw []byte) {
	if c.Session.Blocked() {
		c.sendError(envelopes.ErrRateLimited, "this address is temporarily blocked")
		c.closeRequested = true
		return
	}
	inner, err := c.Session.UnwrapIncoming(raw)
	if err != nil {
		c.sendError(envelopes.ErrInvalidMessage, err.Error())
		return
	}

	format := c.Session.Format
	if format == "" {
		format = codec.JSON
	}
	env, err := codec.Decode(inner, format)
	if err != nil {
		c.sendError(envelopes.ErrInvalidMessage, err.Error())
		return
	}

	switch env.Type {
	case envelopes.Hello:
		c.handleHello(env.Payload)
	case envelopes.Publish:
		c.handlePublish(ctx, env.Payload)
	case envelopes.Subscribe:
		c.handleSubscribe(ctx, env.Payload)
	case envelopes.Unsubscribe:
		c.handleUnsubscribe(env.Payload)
	default:
		c.sendError(envelopes.ErrInvalidMessage, "unknown envelope type "+env.Type)
	}
}

func (c *Conn) handleHello(payload []byte) {
	var h envelopes.HelloPayload
	if err := json.Unmarshal(payload, &h); err != nil {
		c.sendError(envelopes.ErrInvalidMessage, err.Error())
		return
	}
	welcome, err := c.Session.HandleHello(&h)
	if err != nil {
		c.sendError(envelopes.ErrInvalidMessage, err.Error())
		return
	}
	if err := c.send(envelopes.Welcome, welcome); err != nil {
		log.D.F("gateway: failed to send WELCOME to %s: %v", c.Session.RemoteAddr, err)
	}
}

func (c *Conn) handlePublish(ctx context.T, payload []byte) {
	var p envelopes.PublishPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendError(envelopes.ErrInvalidMessage, err.Error())
		return
	}
	if p.Event == nil {
		c.sendError(envelopes.ErrInvalidEvent, "missing event")
		return
	}
	result := c.core.Publish(ctx, p.Event, c.Session.AuthPubkey.Load())
	ack := envelopes.NewAck(hex.Enc(p.Event.Id), result.Accepted, result.Reason)
	if err := c.send(envelopes.Ack, ack); err != nil {
		log.D.F("gateway: failed to send ACK to %s: %v", c.Session.RemoteAddr, err)
	}
	if !result.Accepted && c.Session.RecordFailedAuth() {
		c.sendError(envelopes.ErrRateLimited, "too many rejected publishes from this address")
		c.closeRequested = true
	}
}

func (c *Conn) handleSubscribe(ctx context.T, payload []byte) {
	var p envelopes.SubscribePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendError(envelopes.ErrInvalidMessage, err.Error())
		return
	}
	if p.SubId == "" {
		c.sendError(envelopes.ErrInvalidMessage, "missing sub_id")
		return
	}
	merged := filter.New()
	for _, raw := range p.Filters {
		f := filter.Normalize(raw)
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

	backfill, err := c.core.Subscribe(ctx, p.SubId, merged, c)
	if err != nil {
		c.sendError(envelopes.ErrInternal, err.Error())
		return
	}
	c.subIDs = append(c.subIDs, p.SubId)
	for _, ev := range backfill {
		if err := c.send(envelopes.Event, envelopes.NewEvent(p.SubId, ev)); err != nil {
			log.D.F("gateway: backfill send failed for %s: %v", c.Session.RemoteAddr, err)
			return
		}
	}
	// end-of-stored-events marker: an ACK carrying the subscription id as
	// its event_id and reason "eose", consistent with the other surfaces'
	// own idiomatic markers (NIP-01: EOSE; HTTP SSE: event: eose).
	if err := c.send(envelopes.Ack, envelopes.NewAck(p.SubId, true, "eose")); err != nil {
		log.D.F("gateway: eose-equivalent ack failed for %s: %v", c.Session.RemoteAddr, err)
	}
}

func (c *Conn) handleUnsubscribe(payload []byte) {
	var p envelopes.UnsubscribePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.sendError(envelopes.ErrInvalidMessage, err.Error())
		return
	}
	c.core.Unsubscribe(p.SubId)
}

func (c *Conn) sendError(code, message string) {
	if err := c.send(envelopes.Error, envelopes.NewError(code, message)); err != nil {
		log.D.F("gateway: failed to send ERROR to %s: %v", c.Session.RemoteAddr, err)
	}
}

// ShouldClose reports whether this connection's remote address has tripped
// the iptracker block threshold and the owning transport loop should stop
// reading further frames and tear the connection down.
func (c *Conn) ShouldClose() bool { return c.closeRequested }

// Close tears down the connection's subscriptions and session state.
func (c *Conn) Close() {
	for _, id := range c.subIDs {
		c.core.Unsubscribe(id)
	}
	c.Session.Close()
}
