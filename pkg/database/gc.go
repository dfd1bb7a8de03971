package database

import (
	"time"

	"github.com/dgraph-io/badger/v4"
)

// gc drops IMMUTABLE events older than the configured TTL. It is a no-op
// for replaceable classes (constant per key) and ephemeral events (never
// stored).
func (d *D) gc(now time.Time) (dropped int, err error) {
	if d.ttl <= 0 {
		return 0, nil
	}
	cutoff := uint64(now.Add(-d.ttl).UnixNano())

	err = d.DB.Update(func(txn *badger.Txn) error {
		prefix := allPrefix()
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()
		var expired [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			// key = prefixAll | inv_created_at(8) | event_id; ascending
			// order is newest-first, so non-expired entries come first
			// and are skipped; every entry after the cutoff is older.
			invTs := beDecodeUint64(key[1:9])
			createdAt := ^invTs
			if createdAt >= cutoff {
				continue
			}
			id := append([]byte(nil), key[9:]...)
			expired = append(expired, id)
		}
		for _, id := range expired {
			ev, gErr := getEvent(txn, id)
			if gErr == badger.ErrKeyNotFound {
				continue
			}
			if gErr != nil {
				return gErr
			}
			if !ev.Kind.IsImmutable() {
				// replaceable/parameterized events never expire; only
				// their all-index entry would have been stale, which
				// can't happen since they're indexed under their own key.
				continue
			}
			if err := deleteEventAndIndexes(txn, ev); err != nil {
				return err
			}
			dropped++
		}
		return nil
	})
	return
}
