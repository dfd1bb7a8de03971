// Package envelopes defines the nine payload shapes carried inside a Codec
// frame: HELLO, WELCOME, PUBLISH, SUBSCRIBE, UNSUBSCRIBE, EVENT, ACK,
// ERROR, NOISE. Every shape mirrors the field names in the external
// interface exactly, so a gateway can forward a decoded payload to another
// surface without renaming anything.
package envelopes

import "aether.dev/pkg/encoders/event"

// Type tags identify which payload shape a frame carries.
const (
	Hello       = "hello"
	Welcome     = "welcome"
	Noise       = "noise"
	Publish     = "publish"
	Subscribe   = "subscribe"
	Unsubscribe = "unsubscribe"
	Event       = "event"
	Ack         = "ack"
	Error       = "error"
)

// NoiseOffer appears embedded in HELLO/WELCOME payloads to negotiate the
// transport-encryption upgrade.
type NoiseOffer struct {
	Required bool   `json:"required"`
	Pubkey   string `json:"pubkey,omitempty"`
}

// HelloPayload is the client's opening message.
type HelloPayload struct {
	Type    string      `json:"type"`
	Version int         `json:"version"`
	Formats []string    `json:"formats"`
	Noise   *NoiseOffer `json:"noise,omitempty"`
}

// NewHello constructs a HELLO payload.
func NewHello(formats []string, noise *NoiseOffer) *HelloPayload {
	return &HelloPayload{Type: Hello, Version: 1, Formats: formats, Noise: noise}
}

// WelcomePayload is the server's response to HELLO.
type WelcomePayload struct {
	Type    string      `json:"type"`
	Version int         `json:"version"`
	Format  string      `json:"format"`
	Noise   *NoiseOffer `json:"noise,omitempty"`
}

// NewWelcome constructs a WELCOME payload.
func NewWelcome(format string, noise *NoiseOffer) *WelcomePayload {
	return &WelcomePayload{Type: Welcome, Version: 1, Format: format, Noise: noise}
}

// NoisePayload carries an encrypted inner frame once the session has
// upgraded to transport encryption.
type NoisePayload struct {
	Type       string `json:"type"`
	PayloadHex string `json:"payload_hex"`
}

// NewNoise constructs a NOISE payload from a hex-encoded counter+ciphertext.
func NewNoise(payloadHex string) *NoisePayload {
	return &NoisePayload{Type: Noise, PayloadHex: payloadHex}
}

// PublishPayload submits one event for acceptance.
type PublishPayload struct {
	Type  string   `json:"type"`
	Event *event.E `json:"event"`
}

// NewPublish constructs a PUBLISH payload.
func NewPublish(ev *event.E) *PublishPayload { return &PublishPayload{Type: Publish, Event: ev} }

// SubscribePayload opens a subscription over one or more filters. The
// external interface's filter_object shape is deliberately opaque here
// (map[string]any) so normalization can happen once, at the filter
// package, regardless of which adapter decoded it.
type SubscribePayload struct {
	Type    string           `json:"type"`
	SubId   string           `json:"sub_id"`
	Filters []map[string]any `json:"filters"`
}

// UnsubscribePayload closes a subscription.
type UnsubscribePayload struct {
	Type  string `json:"type"`
	SubId string `json:"sub_id"`
}

// NewUnsubscribe constructs an UNSUBSCRIBE payload.
func NewUnsubscribe(subID string) *UnsubscribePayload {
	return &UnsubscribePayload{Type: Unsubscribe, SubId: subID}
}

// EventPayload delivers one matched event to a subscription.
type EventPayload struct {
	Type  string   `json:"type"`
	SubId string   `json:"sub_id"`
	Event *event.E `json:"event"`
}

// NewEvent constructs an EVENT payload.
func NewEvent(subID string, ev *event.E) *EventPayload {
	return &EventPayload{Type: Event, SubId: subID, Event: ev}
}

// AckPayload acknowledges a PUBLISH, positively or negatively.
type AckPayload struct {
	Type     string `json:"type"`
	EventId  string `json:"event_id"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// NewAck constructs an ACK payload.
func NewAck(eventID string, accepted bool, reason string) *AckPayload {
	return &AckPayload{Type: Ack, EventId: eventID, Accepted: accepted, Reason: reason}
}

// ErrorPayload reports a protocol-level error; the session stays open
// unless the transport itself is being torn down.
type ErrorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// NewError constructs an ERROR payload.
func NewError(code, message string) *ErrorPayload {
	return &ErrorPayload{Type: Error, Code: code, Message: message}
}

// Error codes named at adapter boundaries.
const (
	ErrInvalidMessage        = "invalid_message"
	ErrInvalidEvent          = "invalid_event"
	ErrInvalidEventId        = "invalid_event_id"
	ErrInvalidSignature      = "invalid_signature"
	ErrInvalidKind           = "invalid_kind"
	ErrTimestampOutOfRange   = "timestamp_out_of_range"
	ErrInsufficientPow       = "insufficient_pow"
	ErrValidationFailed      = "validation_failed"
	ErrSubscriptionNotFound  = "subscription_not_found"
	ErrRateLimited           = "rate_limited"
	ErrInternal              = "internal_error"
)
