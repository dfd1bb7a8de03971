// Package store is the persistence-layer contract, composed from small
// single-method interfaces the way the rest of this tree composes its
// abstractions, so a backend can implement only the pieces it needs to
// back a particular deployment (in-memory test store vs badger-backed
// production store).
package store

import (
	"io"

	"aether.dev/pkg/encoders/event"
	"aether.dev/pkg/encoders/filter"
	"aether.dev/pkg/utils/context"
)

// Result discriminates the outcome of Put, per §4.4's conflict rule.
type Result int

const (
	// Inserted: the event is newly stored (or, for ephemeral kinds,
	// newly accepted for dispatch only).
	Inserted Result = iota
	// Duplicate: the event_id was already present, or the event lost a
	// replaceable-key conflict to the current incumbent.
	Duplicate
	// Replaced: the event won a replaceable-key conflict; OldId names the
	// event_id it displaced.
	Replaced
)

// PutResult is the outcome of a single Put call.
type PutResult struct {
	Result Result
	OldId  []byte // set only when Result == Replaced
}

// I is the full persistence-layer contract used by the relay core.
type I interface {
	Pather
	io.Closer
	Syncer
	Putter
	Querier
	Deleter
	Wiper
}

// Pather reports the backend's storage location, for diagnostics.
type Pather interface {
	Path() string
}

// Syncer flushes any buffered writes to durable storage.
type Syncer interface {
	Sync() error
}

// Putter persists (or, for ephemeral kinds, merely accepts) one event under
// the kind-range storage class and conflict rule of §4.4. Put must be
// linearizable per replaceable key.
type Putter interface {
	Put(c context.T, ev *event.E) (PutResult, error)
}

// Querier returns historical events matching a filter, in the ordering
// §4.4 defines: created_at descending, ties broken by event_id descending.
type Querier interface {
	Query(c context.T, f *filter.F) (event.S, error)
}

// Deleter processes a NIP-09-style tombstone: delete the events an
// accepted deletion event references, when authorized.
type Deleter interface {
	Delete(c context.T, ev *event.E) error
}

// Wiper drops everything in the store; used by tests and by administrative
// resets.
type Wiper interface {
	Wipe() error
}

// Accountant reports approximate size, surfaced at /metrics.
type Accountant interface {
	EventCount() (uint64, error)
}
