package database

import (
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"aether.dev/pkg/encoders/event"
	"aether.dev/pkg/encoders/hex"
	"aether.dev/pkg/encoders/kind"
	"aether.dev/pkg/utils"
	"aether.dev/pkg/utils/context"
	"aether.dev/pkg/utils/errorf"
)

// Delete processes a NIP-09-style tombstone event: for every event or
// parameterized address its "e"/"a" tags reference, the referenced event
// is removed if ev's author matches the referenced event's author (Delete
// applies no owners list; DeleteWithOwners does), and a tombstone record is kept so
// a later republish of the same event_id with an equal-or-earlier
// created_at is refused.
func (d *D) Delete(_ context.T, ev *event.E) (err error) {
	return d.deleteWithOwners(ev, nil)
}

// DeleteWithOwners is Delete extended with an owners list: admins whose
// deletions apply as if they were the referenced event's own author.
func (d *D) DeleteWithOwners(ev *event.E, owners [][]byte) error {
	return d.deleteWithOwners(ev, owners)
}

func (d *D) deleteWithOwners(ev *event.E, owners [][]byte) (err error) {
	return d.DB.Update(func(txn *badger.Txn) error {
		for _, id := range ev.ReferencedIds() {
			if err := deleteOneById(txn, id, ev, owners); err != nil {
				return err
			}
		}
		for _, addr := range ev.ReferencedAddrs() {
			id, ok, err := resolveAddr(txn, addr)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := deleteOneById(txn, id, ev, owners); err != nil {
				return err
			}
		}
		return nil
	})
}

func deleteOneById(txn *badger.Txn, id []byte, deletion *event.E, owners [][]byte) error {
	target, err := getEvent(txn, id)
	if err == badger.ErrKeyNotFound {
		// nothing stored under that id (already gone, or never accepted);
		// still record the tombstone so a late-arriving copy is refused.
		return setTombstone(txn, id, deletion.CreatedAt.U64())
	}
	if err != nil {
		return err
	}
	if !utils.FastEqual(target.Pubkey, deletion.Pubkey) && !containsKey(owners, deletion.Pubkey) {
		return errorf.E("delete: %s is not authorized to delete event authored by %x", deletion.Pubkey, target.Pubkey)
	}
	if err := deleteEventAndIndexes(txn, target); err != nil {
		return err
	}
	return setTombstone(txn, id, deletion.CreatedAt.U64())
}

func setTombstone(txn *badger.Txn, id []byte, createdAt uint64) error {
	return txn.Set(tombstoneKey(id), beUint64(createdAt))
}

func containsKey(list [][]byte, k []byte) bool {
	for _, x := range list {
		if utils.FastEqual(x, k) {
			return true
		}
	}
	return false
}

// resolveAddr resolves an "a" tag value of the form "pubkey:kind:d_value"
// to the current live event_id for that parameterized-replaceable key, if
// any.
func resolveAddr(txn *badger.Txn, addr string) (id []byte, ok bool, err error) {
	parts := strings.SplitN(addr, ":", 3)
	if len(parts) < 2 {
		return nil, false, nil
	}
	pubkey, err := hex.Dec(parts[0])
	if err != nil {
		return nil, false, nil
	}
	kindNum, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return nil, false, nil
	}
	d := ""
	if len(parts) == 3 {
		d = parts[2]
	}
	k := kind.New(uint16(kindNum))
	var key []byte
	if k.IsParameterizedReplaceable() {
		key = paramKey(pubkey, k, d)
	} else if k.IsReplaceable() {
		key = replaceableKey(pubkey, k)
	} else {
		return nil, false, nil
	}
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	err = item.Value(func(v []byte) error {
		id = append([]byte(nil), v...)
		return nil
	})
	return id, id != nil, err
}
