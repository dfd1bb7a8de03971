// Package validator runs every inbound event through the ordered checks
// the data model requires before it may reach the store or dispatcher:
// structural limits, canonical-hash recomputation, signature verification,
// kind-range membership, timestamp skew, and an optional proof-of-work
// floor. Every check yields a named discriminant rather than a bare error,
// so gateways can translate it into their own wire shape without
// inspecting error strings.
package validator

import (
	"time"

	"aether.dev/pkg/encoders/envelopes"
	"aether.dev/pkg/encoders/event"
	"aether.dev/pkg/utils"
)

// Outcome is the named discriminant callers branch on.
type Outcome struct {
	Accepted bool
	Code     string // one of envelopes.Err* when Accepted is false
}

func reject(code string) Outcome { return Outcome{Accepted: false, Code: code} }

var accepted = Outcome{Accepted: true}

// Config holds the relay-policy knobs the validator enforces.
type Config struct {
	// MaxSkew bounds how far into the future created_at may be.
	MaxSkew time.Duration
	// MinPowDifficulty is the minimum number of leading zero bits an
	// event_id must have; 0 disables proof-of-work enforcement. Applied
	// to every accepted event (a relay policy knob, not limited to a
	// single kind — see DESIGN.md).
	MinPowDifficulty int
}

// DefaultConfig matches the data model's stated default: 60s of future
// skew tolerance, PoW disabled.
func DefaultConfig() Config {
	return Config{MaxSkew: 60 * time.Second, MinPowDifficulty: 0}
}

// V validates inbound events against a fixed policy configuration.
type V struct{ cfg Config }

// New constructs a validator with the given policy.
func New(cfg Config) *V { return &V{cfg: cfg} }

// Validate runs the ordered checks over ev and returns the first failing
// discriminant, or Outcome{Accepted:true} if every check passes.
// authedPubkey is the session's authenticated pubkey, if any (nil for an
// unauthenticated session); it is only consulted for the protected-publish
// tag check.
func (v *V) Validate(ev *event.E, authedPubkey []byte) Outcome {
	if err := ev.Valid(); err != nil {
		return reject(envelopes.ErrInvalidEvent)
	}

	if !ev.VerifyId() {
		return reject(envelopes.ErrInvalidEventId)
	}

	valid, err := ev.VerifySig()
	if err != nil || !valid {
		return reject(envelopes.ErrInvalidSignature)
	}

	if !ev.Kind.IsValid() {
		return reject(envelopes.ErrInvalidKind)
	}

	if ev.CreatedAt.Time().After(time.Now().Add(v.cfg.MaxSkew)) {
		return reject(envelopes.ErrTimestampOutOfRange)
	}

	if v.cfg.MinPowDifficulty > 0 && leadingZeroBits(ev.Id) < v.cfg.MinPowDifficulty {
		return reject(envelopes.ErrInsufficientPow)
	}

	// protected-publish tag ("-"): only the authenticated pubkey matching
	// the event's own pubkey may publish it.
	if ev.Protected() && !utils.FastEqual(authedPubkey, ev.Pubkey) {
		return reject(envelopes.ErrValidationFailed)
	}

	return accepted
}

// leadingZeroBits counts the number of leading zero bits in b.
func leadingZeroBits(b []byte) int {
	count := 0
	for _, byt := range b {
		if byt == 0 {
			count += 8
			continue
		}
		for mask := byte(0x80); mask > 0; mask >>= 1 {
			if byt&mask != 0 {
				return count
			}
			count++
		}
	}
	return count
}
