package codec

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeJSONRoundTrip(t *testing.T) {
	env := &Envelope{Type: "hello", Payload: []byte(`{"type":"hello","version":1}`)}
	out, err := Encode(env, JSON)
	if err != nil {
		t.Fatalf("Encode() errored: %v", err)
	}
	if !bytes.Equal(out, env.Payload) {
		t.Errorf("JSON Encode() should pass the payload through unchanged")
	}
	decoded, err := Decode(out, JSON)
	if err != nil {
		t.Fatalf("Decode() errored: %v", err)
	}
	if decoded.Type != "hello" {
		t.Errorf("Decode() recovered type %q, want %q", decoded.Type, "hello")
	}
}

func TestEncodeDecodeBinaryRoundTrip(t *testing.T) {
	env := &Envelope{Type: "publish", Payload: []byte(`{"event":{}}`)}
	out, err := Encode(env, Binary)
	if err != nil {
		t.Fatalf("Encode() errored: %v", err)
	}
	decoded, err := Decode(out, Binary)
	if err != nil {
		t.Fatalf("Decode() errored: %v", err)
	}
	if decoded.Type != env.Type {
		t.Errorf("Decode() recovered type %q, want %q", decoded.Type, env.Type)
	}
	if !bytes.Equal(decoded.Payload, env.Payload) {
		t.Errorf("Decode() recovered payload %q, want %q", decoded.Payload, env.Payload)
	}
}

func TestDecodeJSONRejectsMissingType(t *testing.T) {
	_, err := Decode([]byte(`{"foo":"bar"}`), JSON)
	if err == nil {
		t.Error("Decode() should reject a JSON payload with no type field")
	}
}

func TestDecodeRejectsUnknownFormat(t *testing.T) {
	if _, err := Decode([]byte("x"), Format("weird")); err == nil {
		t.Error("Decode() should reject an unknown format")
	}
	if _, err := Encode(&Envelope{}, Format("weird")); err == nil {
		t.Error("Encode() should reject an unknown format")
	}
}

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello frame")
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame() errored: %v", err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame() errored: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("ReadFrame() = %q, want %q", got, payload)
	}
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	oversized := uint32(MaxFrameSize + 1)
	lenBuf := []byte{
		byte(oversized >> 24), byte(oversized >> 16), byte(oversized >> 8), byte(oversized),
	}
	buf.Write(lenBuf)
	if _, err := ReadFrame(&buf); err == nil {
		t.Error("ReadFrame() should reject a length prefix beyond MaxFrameSize")
	}
}
