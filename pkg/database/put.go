package database

import (
	"github.com/dgraph-io/badger/v4"

	"aether.dev/pkg/encoders/event"
	store "aether.dev/pkg/interfaces/store"
	"aether.dev/pkg/utils/context"
)

// Put stores ev according to its kind-range storage class, applying the
// conflict rule for replaceable and parameterized-replaceable kinds:
// the winner is the event with the greater created_at, tie-broken by the
// lexicographically greater event_id.
func (d *D) Put(_ context.T, ev *event.E) (res store.PutResult, err error) {
	if ev.Kind.IsEphemeral() {
		return store.PutResult{Result: store.Inserted}, nil
	}

	err = d.DB.Update(func(txn *badger.Txn) error {
		if tombstoned, tsErr := isTombstoned(txn, ev.Id, ev.CreatedAt.U64()); tsErr != nil {
			return tsErr
		} else if tombstoned {
			res = store.PutResult{Result: store.Duplicate}
			return nil
		}

		switch {
		case ev.Kind.IsImmutable():
			if _, getErr := txn.Get(eventKey(ev.Id)); getErr == nil {
				res = store.PutResult{Result: store.Duplicate}
				return nil
			} else if getErr != badger.ErrKeyNotFound {
				return getErr
			}
			if err := writeEvent(txn, ev); err != nil {
				return err
			}
			res = store.PutResult{Result: store.Inserted}
			return nil

		case ev.Kind.IsReplaceable():
			return putKeyed(txn, replaceableKey(ev.Pubkey, ev.Kind), ev, &res)

		case ev.Kind.IsParameterizedReplaceable():
			return putKeyed(txn, paramKey(ev.Pubkey, ev.Kind, ev.DValue()), ev, &res)
		}
		return nil
	})
	return
}

// putKeyed implements the shared replaceable/parameterized-replaceable
// path: read the current winner at key, compare under the conflict rule,
// and either insert fresh, replace the incumbent, or discard the
// challenger.
func putKeyed(txn *badger.Txn, key []byte, ev *event.E, res *store.PutResult) error {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		if err := writeEvent(txn, ev); err != nil {
			return err
		}
		if err := txn.Set(key, ev.Id); err != nil {
			return err
		}
		*res = store.PutResult{Result: store.Inserted}
		return nil
	} else if err != nil {
		return err
	}

	var oldId []byte
	if err := item.Value(func(v []byte) error {
		oldId = append([]byte(nil), v...)
		return nil
	}); err != nil {
		return err
	}

	oldEv, err := getEvent(txn, oldId)
	if err != nil {
		return err
	}

	if !wins(ev, oldEv) {
		*res = store.PutResult{Result: store.Duplicate}
		return nil
	}

	if err := deleteEventAndIndexes(txn, oldEv); err != nil {
		return err
	}
	if err := writeEvent(txn, ev); err != nil {
		return err
	}
	if err := txn.Set(key, ev.Id); err != nil {
		return err
	}
	*res = store.PutResult{Result: store.Replaced, OldId: oldId}
	return nil
}

// wins reports whether challenger beats incumbent under the conflict rule:
// greater created_at, tie-broken by lexicographically greater event_id.
func wins(challenger, incumbent *event.E) bool {
	if challenger.CreatedAt != incumbent.CreatedAt {
		return challenger.CreatedAt.After(incumbent.CreatedAt)
	}
	return compareBytes(challenger.Id, incumbent.Id) > 0
}

func compareBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func writeEvent(txn *badger.Txn, ev *event.E) error {
	bin, err := marshalEvent(ev)
	if err != nil {
		return err
	}
	if err := txn.Set(eventKey(ev.Id), bin); err != nil {
		return err
	}
	if err := txn.Set(allKey(ev.CreatedAt.U64(), ev.Id), nil); err != nil {
		return err
	}
	if err := txn.Set(byKindKey(ev.Kind, ev.CreatedAt.U64(), ev.Id), nil); err != nil {
		return err
	}
	if err := txn.Set(byPubkeyKey(ev.Pubkey, ev.CreatedAt.U64(), ev.Id), nil); err != nil {
		return err
	}
	if ev.Tags != nil {
		for _, t := range ev.Tags.T {
			for _, v := range t.Values {
				if err := txn.Set(byTagKey(string(t.Key), string(v), ev.CreatedAt.U64(), ev.Id), nil); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func deleteEventAndIndexes(txn *badger.Txn, ev *event.E) error {
	if err := txn.Delete(eventKey(ev.Id)); err != nil {
		return err
	}
	if err := txn.Delete(allKey(ev.CreatedAt.U64(), ev.Id)); err != nil {
		return err
	}
	if err := txn.Delete(byKindKey(ev.Kind, ev.CreatedAt.U64(), ev.Id)); err != nil {
		return err
	}
	if err := txn.Delete(byPubkeyKey(ev.Pubkey, ev.CreatedAt.U64(), ev.Id)); err != nil {
		return err
	}
	if ev.Tags != nil {
		for _, t := range ev.Tags.T {
			for _, v := range t.Values {
				if err := txn.Delete(byTagKey(string(t.Key), string(v), ev.CreatedAt.U64(), ev.Id)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func getEvent(txn *badger.Txn, id []byte) (*event.E, error) {
	item, err := txn.Get(eventKey(id))
	if err != nil {
		return nil, err
	}
	var ev *event.E
	err = item.Value(func(v []byte) error {
		e, uErr := unmarshalEvent(v)
		if uErr != nil {
			return uErr
		}
		ev = e
		return nil
	})
	return ev, err
}

func isTombstoned(txn *badger.Txn, id []byte, candidateCreatedAt uint64) (bool, error) {
	item, err := txn.Get(tombstoneKey(id))
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var tombCreatedAt uint64
	err = item.Value(func(v []byte) error {
		tombCreatedAt = beDecodeUint64(v)
		return nil
	})
	if err != nil {
		return false, err
	}
	return candidateCreatedAt <= tombCreatedAt, nil
}

func beDecodeUint64(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}
