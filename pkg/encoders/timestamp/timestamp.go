// Package timestamp wraps event creation times, which are unsigned 64-bit
// nanosecond counts since the Unix epoch (see the canonical serialization
// in the data model), in a small typed value with the conversions the rest
// of the tree needs.
package timestamp

import "time"

// T is a created_at value: nanoseconds since the Unix epoch.
type T uint64

// Now returns the current time as a T.
func Now() T { return T(time.Now().UnixNano()) }

// New constructs a T from a raw nanosecond count.
func New(ns uint64) T { return T(ns) }

// FromTime converts a time.Time to a T.
func FromTime(t time.Time) T { return T(t.UnixNano()) }

// U64 returns the raw nanosecond count.
func (t T) U64() uint64 { return uint64(t) }

// I64 returns the raw nanosecond count as a signed integer, for APIs
// (badger keys, JSON numbers) that prefer int64.
func (t T) I64() int64 { return int64(t) }

// Time returns the value as a time.Time.
func (t T) Time() time.Time { return time.Unix(0, int64(t)) }

// After reports whether t is strictly after o.
func (t T) After(o T) bool { return t > o }

// Before reports whether t is strictly before o.
func (t T) Before(o T) bool { return t < o }
