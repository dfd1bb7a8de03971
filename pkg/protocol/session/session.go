// Package session implements the per-connection state machine: NEW waits
// for HELLO, WELCOMED waits for the client to start sending steady-state
// frames (immediately upon sending WELCOME, since there is no separate
// client ack), ACTIVE processes PUBLISH/SUBSCRIBE/UNSUBSCRIBE, and CLOSED
// is terminal. Format negotiation (binary preferred over json) happens
// during the NEW→WELCOMED transition. The Noise transport-encryption
// pieces (keypair, EstablishNoise, WrapOutgoing/UnwrapIncoming) live here
// too, but HandleHello does not complete the key agreement.
package session

import (
	"time"

	"aether.dev/pkg/codec"
	"aether.dev/pkg/crypto/noise"
	"aether.dev/pkg/encoders/envelopes"
	"aether.dev/pkg/utils/atomic"
	"aether.dev/pkg/utils/errorf"
	"aether.dev/pkg/utils/iptracker"
	"aether.dev/pkg/utils/log"
)

// State is a session lifecycle state.
type State int

const (
	New State = iota
	Welcomed
	Active
	Closed
)

// HelloTimeout bounds how long a connection may sit in New before HELLO
// must arrive.
const HelloTimeout = 10 * time.Second

// S is a session: the per-connection state machine, independent of which
// gateway owns the underlying transport.
type S struct {
	RemoteAddr string
	State      *atomic.String // holds one of "new","welcomed","active","closed"
	Format     codec.Format
	AuthPubkey *atomic.Bytes

	noiseRequired bool
	noiseSend     *noise.Cipher
	noiseRecv     *noise.Cipher
	priv          [noise.KeySize]byte
	pub           [noise.KeySize]byte

	createdAt time.Time
}

func stateName(s State) string {
	switch s {
	case New:
		return "new"
	case Welcomed:
		return "welcomed"
	case Active:
		return "active"
	default:
		return "closed"
	}
}

// NewSession constructs a session in the New state for the given remote
// address.
func NewSession(remoteAddr string) *S {
	return &S{
		RemoteAddr: remoteAddr,
		State:      atomic.NewString(stateName(New)),
		AuthPubkey: atomic.NewBytes(nil),
		createdAt:  time.Now(),
	}
}

// Expired reports whether a session still in New has exceeded HelloTimeout
// without receiving HELLO.
func (s *S) Expired() bool {
	return s.State.Load() == stateName(New) && time.Since(s.createdAt) > HelloTimeout
}

// HandleHello negotiates the frame format and returns the WELCOME payload
// to send. If the client requests Noise, it generates a server keypair and
// marks noise as required in WELCOME; the WELCOME offer does not carry the
// server public key, and HandleHello does not call EstablishNoise, so the
// session stays unencrypted.
func (s *S) HandleHello(h *envelopes.HelloPayload) (*envelopes.WelcomePayload, error) {
	if s.State.Load() != stateName(New) {
		return nil, errorf.E("session: HELLO received outside New state")
	}
	format := negotiateFormat(h.Formats)
	if format == "" {
		return nil, errorf.E("session: no mutually supported format")
	}
	s.Format = format

	var offer *envelopes.NoiseOffer
	if h.Noise != nil && h.Noise.Required {
		priv, pub, err := noise.GenerateKeypair()
		if err != nil {
			return nil, err
		}
		s.priv, s.pub = priv, pub
		s.noiseRequired = true
		offer = &envelopes.NoiseOffer{Required: true}
	}

	s.State.Store(stateName(Welcomed))
	s.State.Store(stateName(Active)) // steady state begins immediately after WELCOME is sent
	return envelopes.NewWelcome(string(format), offer), nil
}

// negotiateFormat picks binary over json when both are offered.
func negotiateFormat(offered []string) codec.Format {
	hasJSON := false
	for _, f := range offered {
		if f == string(codec.Binary) {
			return codec.Binary
		}
		if f == string(codec.JSON) {
			hasJSON = true
		}
	}
	if hasJSON {
		return codec.JSON
	}
	return ""
}

// EstablishNoise completes the key agreement once the peer's public key is
// known (carried in the HELLO payload's noise.pubkey field) and installs
// the send/receive AEAD ciphers.
func (s *S) EstablishNoise(peerPub [noise.KeySize]byte) error {
	secret, err := noise.SharedSecret(s.priv, peerPub)
	if err != nil {
		return err
	}
	key, err := noise.DeriveKey(secret)
	if err != nil {
		return err
	}
	send, err := noise.New(key)
	if err != nil {
		return err
	}
	recv, err := noise.New(key)
	if err != nil {
		return err
	}
	s.noiseSend, s.noiseRecv = send, recv
	return nil
}

// NoiseEnabled reports whether this session upgraded to transport
// encryption.
func (s *S) NoiseEnabled() bool { return s.noiseSend != nil && s.noiseRecv != nil }

// WrapOutgoing seals an inner frame into a NOISE payload if the session is
// encrypted; otherwise it returns the frame unchanged.
func (s *S) WrapOutgoing(frame []byte) []byte {
	if !s.NoiseEnabled() {
		return frame
	}
	return s.noiseSend.Seal(frame)
}

// UnwrapIncoming opens a NOISE payload if the session is encrypted;
// otherwise it returns the frame unchanged.
func (s *S) UnwrapIncoming(frame []byte) ([]byte, error) {
	if !s.NoiseEnabled() {
		return frame, nil
	}
	return s.noiseRecv.Open(frame)
}

// Close transitions the session to Closed. Idempotent.
func (s *S) Close() {
	if s.State.Load() == stateName(Closed) {
		return
	}
	s.State.Store(stateName(Closed))
	log.T.F("session %s closed", s.RemoteAddr)
}

// IsActive reports whether the session is ready to process
// PUBLISH/SUBSCRIBE/UNSUBSCRIBE.
func (s *S) IsActive() bool { return s.State.Load() == stateName(Active) }

// IsClosed reports whether the session has been closed.
func (s *S) IsClosed() bool { return s.State.Load() == stateName(Closed) }

// RecordFailedAuth delegates to the shared per-IP tracker; callers close
// the connection with a rate_limited ERROR once it reports blocked.
func (s *S) RecordFailedAuth() (blocked bool) {
	return iptracker.Global.RecordFailedAttempt(s.RemoteAddr)
}

// Authenticated clears this session's failed-auth record on success.
func (s *S) Authenticated(pubkey []byte) {
	iptracker.Global.Authenticate(s.RemoteAddr)
	s.AuthPubkey.Store(pubkey)
}

// Blocked reports whether this session's remote address is currently
// blocked due to repeated failed authentication.
func (s *S) Blocked() bool { return iptracker.Global.IsBlocked(s.RemoteAddr) }
