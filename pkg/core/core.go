// Package core wires the store, dispatcher, and validator into the single
// relay engine every gateway (native, NIP-01, HTTP) drives. It replaces the
// teacher's pluggable server.I/publisher.I interface pair with one
// concrete type: this relay has exactly one storage backend and one
// dispatch fan-out, so the extra indirection bought nothing and only the
// handler-dispatch shape of the teacher's socketapi.A was worth keeping.
package core

import (
	"aether.dev/pkg/encoders/envelopes"
	"aether.dev/pkg/encoders/event"
	"aether.dev/pkg/encoders/filter"
	"aether.dev/pkg/protocol/dispatcher"
	"aether.dev/pkg/protocol/validator"
	store "aether.dev/pkg/interfaces/store"
	"aether.dev/pkg/utils/context"
	"aether.dev/pkg/utils/log"
)

// Core is the relay engine: validate, persist, fan out.
type Core struct {
	Store      store.I
	Dispatcher *dispatcher.D
	Validator  *validator.V
	// Owners are pubkeys authorized to delete events authored by anyone,
	// per the data model's NIP-09-style deletion-authorization rule.
	Owners [][]byte
}

// New constructs a Core from its three collaborators.
func New(st store.I, disp *dispatcher.D, val *validator.V, owners [][]byte) *Core {
	return &Core{Store: st, Dispatcher: disp, Validator: val, Owners: owners}
}

// PublishResult is the outcome of Publish, shaped for a gateway to turn
// directly into an ACK/OK frame.
type PublishResult struct {
	Accepted bool
	Code     string // one of envelopes.Err*, set only when !Accepted
	Reason   string
}

// Publish validates ev, applies it to the store (or, for deletion events,
// to the deletion path), dispatches it to matching live subscriptions, and
// reports the outcome. An event the store reports as a duplicate is
// acknowledged with reason "duplicate" and not dispatched again.
// authedPubkey is the publishing session's
// authenticated pubkey, if any; it gates the protected-publish tag check.
func (c *Core) Publish(ctx context.T, ev *event.E, authedPubkey []byte) PublishResult {
	outcome := c.Validator.Validate(ev, authedPubkey)
	if !outcome.Accepted {
		return PublishResult{Accepted: false, Code: outcome.Code, Reason: outcome.Code}
	}

	if ev.Kind.IsTombstone() {
		if deleter, ok := c.Store.(interface {
			DeleteWithOwners(*event.E, [][]byte) error
		}); ok {
			if err := deleter.DeleteWithOwners(ev, c.Owners); err != nil {
				log.W.F("core: delete failed for %x: %v", ev.Id, err)
				return PublishResult{Accepted: false, Code: envelopes.ErrValidationFailed, Reason: err.Error()}
			}
		} else if err := c.Store.Delete(ctx, ev); err != nil {
			log.W.F("core: delete failed for %x: %v", ev.Id, err)
			return PublishResult{Accepted: false, Code: envelopes.ErrValidationFailed, Reason: err.Error()}
		}
	}

	if ev.Kind.IsEphemeral() {
		c.Dispatcher.Dispatch(ev)
		return PublishResult{Accepted: true}
	}

	res, err := c.Store.Put(ctx, ev)
	if err != nil {
		log.E.F("core: put failed for %x: %v", ev.Id, err)
		return PublishResult{Accepted: false, Code: envelopes.ErrInternal, Reason: err.Error()}
	}
	if res.Result == store.Duplicate {
		return PublishResult{Accepted: true, Reason: "duplicate"}
	}
	c.Dispatcher.Dispatch(ev)
	return PublishResult{Accepted: true}
}

// Subscribe registers a live subscription and returns the matching stored
// events to replay before the subscription starts receiving live matches.
// Callers must send their own end-of-stored-events marker after replaying
// the returned events, before any event delivered through sender arrives.
func (c *Core) Subscribe(ctx context.T, id string, f *filter.F, sender dispatcher.Sender) (backfill event.S, err error) {
	backfill, err = c.Store.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	c.Dispatcher.Subscribe(id, f, sender, dispatcher.DefaultCapacity)
	return backfill, nil
}

// Unsubscribe tears down a live subscription.
func (c *Core) Unsubscribe(id string) { c.Dispatcher.Unsubscribe(id) }

// Query runs a one-shot historical query with no subscription side effect.
func (c *Core) Query(ctx context.T, f *filter.F) (event.S, error) {
	return c.Store.Query(ctx, f)
}
