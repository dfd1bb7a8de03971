// Package hex provides fast hex encode/decode for the fixed-size identity
// fields (pubkey, event_id, sig) that appear at every wire and storage
// boundary, built on templexxx/xhex rather than the standard library's
// encoding/hex, which is measurably slower on the hot path of decoding an
// incoming event's three hex fields per message.
package hex

import "github.com/templexxx/xhex"

// Enc returns the lowercase hex encoding of b.
func Enc(b []byte) string {
	dst := make([]byte, xhex.EncodedLen(len(b)))
	xhex.Encode(dst, b)
	return string(dst)
}

// EncAppend appends the lowercase hex encoding of b to dst.
func EncAppend(dst, b []byte) []byte {
	out := make([]byte, xhex.EncodedLen(len(b)))
	xhex.Encode(out, b)
	return append(dst, out...)
}

// Dec decodes a hex string into bytes.
func Dec(s string) ([]byte, error) {
	dst := make([]byte, xhex.DecodedLen(len(s)))
	if err := xhex.Decode(dst, []byte(s)); err != nil {
		return nil, err
	}
	return dst, nil
}

// DecLen decodes a hex string, returning an error if the result is not
// exactly n bytes long (used to validate the fixed-size identity fields).
func DecLen(s string, n int) ([]byte, error) {
	b, err := Dec(s)
	if err != nil {
		return nil, err
	}
	if len(b) != n {
		return nil, ErrLength
	}
	return b, nil
}

// ErrLength is returned by DecLen when the decoded value has the wrong size.
var ErrLength = errLength{}

type errLength struct{}

func (errLength) Error() string { return "hex: decoded value has unexpected length" }
