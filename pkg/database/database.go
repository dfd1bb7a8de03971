// Package database is the badger-v4-backed implementation of store.I: the
// embedded KV backend for every index the data model requires (primary,
// replaceable, parameterized, by-kind, by-pubkey-prefix, by-tag), the
// conflict rule for replaceable kinds, and TTL-based garbage collection of
// immutable events.
package database

import (
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"aether.dev/pkg/encoders/event"
	store "aether.dev/pkg/interfaces/store"
	"aether.dev/pkg/utils/chk"
	"aether.dev/pkg/utils/context"
	"aether.dev/pkg/utils/log"
	"aether.dev/pkg/utils/units"
)

// D is a badger-backed event store.
type D struct {
	ctx     context.T
	cancel  context.F
	dataDir string
	ttl     time.Duration
	*badger.DB
}

var _ store.I = (*D)(nil)

// New opens (creating if necessary) a badger database at dataDir. ttl is
// the retention window for IMMUTABLE-class events; zero disables
// expiration. inMemory selects badger's in-memory mode (the "memory"
// storage backend selector), ignoring dataDir for storage but still
// reporting it from Path.
func New(ctx context.T, cancel context.F, dataDir string, ttl time.Duration, inMemory bool) (d *D, err error) {
	d = &D{ctx: ctx, cancel: cancel, dataDir: dataDir, ttl: ttl}
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err = os.MkdirAll(dataDir, 0755); chk.E(err) {
			return
		}
		opts = badger.DefaultOptions(dataDir)
		opts.BlockCacheSize = int64(units.Gb)
	}
	opts.Logger = nil // the relay's own logger covers this; badger's is noisy at info level
	if d.DB, err = badger.Open(opts); chk.E(err) {
		return
	}
	go d.gcLoop()
	return
}

func (d *D) gcLoop() {
	if d.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n, err := d.gc(time.Now()); !chk.E(err) && n > 0 {
				log.I.F("database: expired %d immutable events past ttl", n)
			}
		case <-d.ctx.Done():
			return
		}
	}
}

// Path returns the directory backing this store.
func (d *D) Path() string { return d.dataDir }

// Sync flushes badger's value log and runs a GC pass opportunistically.
func (d *D) Sync() (err error) {
	_ = d.DB.RunValueLogGC(0.5)
	return d.DB.Sync()
}

// Close releases the underlying badger handle.
func (d *D) Close() error { return d.DB.Close() }

// Wipe drops every key in the database.
func (d *D) Wipe() (err error) {
	return d.DB.DropAll()
}

// EventCount reports the number of stored events, for /metrics.
func (d *D) EventCount() (count uint64, err error) {
	err = d.DB.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte{prefixEvent}})
		defer it.Close()
		for it.Seek([]byte{prefixEvent}); it.ValidForPrefix([]byte{prefixEvent}); it.Next() {
			count++
		}
		return nil
	})
	return
}

func marshalEvent(ev *event.E) ([]byte, error) { return msgpack.Marshal(ev) }

func unmarshalEvent(b []byte) (*event.E, error) {
	ev := event.New()
	if err := msgpack.Unmarshal(b, ev); err != nil {
		return nil, err
	}
	return ev, nil
}
