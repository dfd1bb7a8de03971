package database

import (
	"sort"

	"github.com/dgraph-io/badger/v4"

	"aether.dev/pkg/encoders/event"
	"aether.dev/pkg/encoders/filter"
	"aether.dev/pkg/utils/context"
)

// Query returns the events matching f, ordered created_at descending with
// ties broken by event_id descending, honoring f.Limit. It picks the
// narrowest available index for a first pass (kind, pubkey-prefix, or tag),
// falling back to a full scan of the all-events index, then applies
// filter.Match authoritatively before sorting and truncating.
func (d *D) Query(_ context.T, f *filter.F) (evs event.S, err error) {
	var ids [][]byte

	err = d.DB.View(func(txn *badger.Txn) error {
		switch {
		case len(f.Kinds) > 0:
			seen := map[string]bool{}
			for _, k := range f.Kinds {
				prefix := byKindPrefix(k)
				it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
				for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
					id := idFromIndexKey(it.Item().KeyCopy(nil), len(prefix))
					if k := string(id); !seen[k] {
						seen[k] = true
						ids = append(ids, id)
					}
				}
				it.Close()
			}
		case len(f.PubkeyPrefixes) > 0:
			seen := map[string]bool{}
			for _, p := range f.PubkeyPrefixes {
				prefix := byPubkeyPrefix(p)
				it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
				for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
					id := idFromIndexKey(it.Item().KeyCopy(nil), len(prefix))
					if k := string(id); !seen[k] {
						seen[k] = true
						ids = append(ids, id)
					}
				}
				it.Close()
			}
		case len(f.Tags) > 0:
			seen := map[string]bool{}
			for key, values := range f.Tags {
				for _, v := range values {
					prefix := byTagPrefix(key, v)
					it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
					for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
						id := idFromIndexKey(it.Item().KeyCopy(nil), len(prefix))
						if k := string(id); !seen[k] {
							seen[k] = true
							ids = append(ids, id)
						}
					}
					it.Close()
				}
				break // one key is enough to form a candidate set; Match applies the rest
			}
		default:
			prefix := allPrefix()
			it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				id := idFromIndexKey(it.Item().KeyCopy(nil), len(prefix))
				ids = append(ids, id)
			}
			it.Close()
		}

		for _, id := range ids {
			ev, gErr := getEvent(txn, id)
			if gErr == badger.ErrKeyNotFound {
				continue
			}
			if gErr != nil {
				return gErr
			}
			if filter.Match(ev, f) {
				evs = append(evs, ev)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(evs, func(i, j int) bool {
		if evs[i].CreatedAt != evs[j].CreatedAt {
			return evs[i].CreatedAt.After(evs[j].CreatedAt)
		}
		return compareBytes(evs[i].Id, evs[j].Id) > 0
	})

	if f.Limit > 0 && len(evs) > f.Limit {
		evs = evs[:f.Limit]
	}
	return evs, nil
}

// idFromIndexKey extracts the trailing event_id from an index key whose
// prefix (everything but the last 32 bytes) has length prefixLen, skipping
// over the inverted-created_at field that precedes it.
func idFromIndexKey(key []byte, prefixLen int) []byte {
	// every secondary index key ends with an 8-byte inverted created_at
	// followed by the 32-byte event_id.
	if len(key) < 32 {
		return nil
	}
	return key[len(key)-32:]
}
