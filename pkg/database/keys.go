package database

import (
	"encoding/binary"

	"aether.dev/pkg/encoders/kind"
)

// Key prefixes. Single-byte so iteration prefixes stay short and the
// lexicographic ordering badger gives us for free lines up with the
// indexes the store needs.
const (
	prefixEvent       = 'e' // e | event_id -> msgpack event
	prefixReplaceable = 'r' // r | pubkey | kind -> event_id (REPLACEABLE)
	prefixParam       = 'p' // p | pubkey | kind | d_value -> event_id (PARAMETERIZED_REPLACEABLE)
	prefixByKind      = 'k' // k | kind | inv_created_at | event_id -> nil
	prefixByPubkey    = 'u' // u | pubkey | inv_created_at | event_id -> nil
	prefixByTag       = 't' // t | key_len | key | val_len | val | inv_created_at | event_id -> nil
	prefixAll         = 'a' // a | inv_created_at | event_id -> nil
	prefixTombstone   = 'x' // x | event_id -> created_at of the tombstone
)

// invCreatedAt produces the bitwise complement of a created_at value so
// that ascending badger key order yields descending created_at order,
// letting every range scan in this package walk newest-first without a
// reverse iterator.
func invCreatedAt(ts uint64) uint64 { return ^ts }

func beUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func beUint16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func eventKey(id []byte) []byte {
	return append([]byte{prefixEvent}, id...)
}

func replaceableKey(pubkey []byte, k kind.K) []byte {
	b := []byte{prefixReplaceable}
	b = append(b, pubkey...)
	b = append(b, beUint16(k.Uint16())...)
	return b
}

func paramKey(pubkey []byte, k kind.K, dValue string) []byte {
	b := []byte{prefixParam}
	b = append(b, pubkey...)
	b = append(b, beUint16(k.Uint16())...)
	b = append(b, []byte(dValue)...)
	return b
}

func byKindKey(k kind.K, createdAt uint64, id []byte) []byte {
	b := []byte{prefixByKind}
	b = append(b, beUint16(k.Uint16())...)
	b = append(b, beUint64(invCreatedAt(createdAt))...)
	b = append(b, id...)
	return b
}

func byKindPrefix(k kind.K) []byte {
	return append([]byte{prefixByKind}, beUint16(k.Uint16())...)
}

func byPubkeyKey(pubkey []byte, createdAt uint64, id []byte) []byte {
	b := []byte{prefixByPubkey}
	b = append(b, pubkey...)
	b = append(b, beUint64(invCreatedAt(createdAt))...)
	b = append(b, id...)
	return b
}

func byPubkeyPrefix(prefix []byte) []byte {
	return append([]byte{prefixByPubkey}, prefix...)
}

func byTagKey(key, val string, createdAt uint64, id []byte) []byte {
	b := []byte{prefixByTag}
	b = append(b, byte(len(key)))
	b = append(b, []byte(key)...)
	b = append(b, beUint16(uint16(len(val)))...)
	b = append(b, []byte(val)...)
	b = append(b, beUint64(invCreatedAt(createdAt))...)
	b = append(b, id...)
	return b
}

func byTagPrefix(key, val string) []byte {
	b := []byte{prefixByTag}
	b = append(b, byte(len(key)))
	b = append(b, []byte(key)...)
	b = append(b, beUint16(uint16(len(val)))...)
	b = append(b, []byte(val)...)
	return b
}

func allKey(createdAt uint64, id []byte) []byte {
	b := []byte{prefixAll}
	b = append(b, beUint64(invCreatedAt(createdAt))...)
	b = append(b, id...)
	return b
}

func allPrefix() []byte { return []byte{prefixAll} }

func tombstoneKey(id []byte) []byte {
	return append([]byte{prefixTombstone}, id...)
}
