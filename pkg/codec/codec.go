// Package codec implements the two frame formats negotiated at session
// handshake: a msgpack-table binary envelope (outer 2-field table, type tag
// plus an inner JSON payload — binary framing, introspectable payload) and
// a plain JSON envelope (the payload object itself, carrying its own "type"
// field). Both share the same 4-byte big-endian length-prefix framing for
// stream transports.
package codec

import (
	"encoding/binary"
	"encoding/json"
	"io"

	"aether.dev/pkg/utils/errorf"
	"github.com/vmihailenco/msgpack/v5"
)

// Format selects which envelope shape a session negotiated.
type Format string

const (
	Binary Format = "binary"
	JSON   Format = "json"
)

// MaxFrameSize bounds a single decoded frame, guarding against a hostile or
// malfunctioning peer claiming an enormous length prefix.
const MaxFrameSize = 32 * 1024 * 1024

// Envelope is the decoded, format-independent shape: a type tag and the
// inner payload bytes (a JSON object, still carrying its own "type" field
// so callers don't need the outer tag to interpret it standalone).
type Envelope struct {
	Type    string
	Payload []byte
}

// table is the outer binary envelope: a two-field msgpack map.
type table struct {
	Type    string `msgpack:"type"`
	Payload []byte `msgpack:"payload"`
}

// Encode renders an envelope in the given format.
func Encode(env *Envelope, format Format) (out []byte, err error) {
	switch format {
	case Binary:
		return msgpack.Marshal(table{Type: env.Type, Payload: env.Payload})
	case JSON:
		return env.Payload, nil
	default:
		return nil, errorf.E("codec: unknown format %q", format)
	}
}

// typeProbe extracts just the "type" field from a JSON object, without
// decoding the rest of the payload.
type typeProbe struct {
	Type string `json:"type"`
}

// Decode parses a frame in the given format back into an Envelope. For
// JSON, the type tag is recovered from the payload's own "type" field.
func Decode(b []byte, format Format) (env *Envelope, err error) {
	switch format {
	case Binary:
		var t table
		if err = msgpack.Unmarshal(b, &t); err != nil {
			return nil, errorf.W("codec: malformed_frame: %w", err)
		}
		return &Envelope{Type: t.Type, Payload: t.Payload}, nil
	case JSON:
		var p typeProbe
		if err = json.Unmarshal(b, &p); err != nil {
			return nil, errorf.W("codec: malformed_frame: %w", err)
		}
		if p.Type == "" {
			return nil, errorf.E("codec: malformed_frame: missing type")
		}
		return &Envelope{Type: p.Type, Payload: b}, nil
	default:
		return nil, errorf.E("codec: unknown format %q", format)
	}
}

// WriteFrame writes a 4-byte big-endian length prefix followed by b.
func WriteFrame(w io.Writer, b []byte) (err error) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	if _, err = w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ReadFrame reads a length-prefixed frame from r, rejecting lengths beyond
// MaxFrameSize.
func ReadFrame(r io.Reader) (b []byte, err error) {
	var lenBuf [4]byte
	if _, err = io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, errorf.E("codec: malformed_frame: length %d exceeds maximum", n)
	}
	b = make([]byte, n)
	if _, err = io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
