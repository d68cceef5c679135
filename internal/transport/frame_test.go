package transport_test

import (
	"testing"

	"courier/internal/transport"
)

func TestFrame_EncodeDecode(t *testing.T) {
	f := transport.Frame{
		Timestamp:   1735689600123,
		Sender:      "0xalice",
		Content:     "hello, bob ☕",
		MessageID:   "3f6a1c",
		MessageType: "message",
	}
	got, err := transport.DecodeFrame(transport.EncodeFrame(f))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if got != f {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, f)
	}
}

func TestFrame_EmptyFields(t *testing.T) {
	got, err := transport.DecodeFrame(transport.EncodeFrame(transport.Frame{}))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if got != (transport.Frame{}) {
		t.Fatalf("got %+v", got)
	}
}

func TestDecodeFrame_Malformed(t *testing.T) {
	good := transport.EncodeFrame(transport.Frame{Sender: "s", Content: "c", MessageID: "m", MessageType: "t"})

	cases := map[string][]byte{
		"empty":           {},
		"short":           good[:5],
		"bad version":     append([]byte{99}, good[1:]...),
		"truncated field": good[:len(good)-1],
		"trailing bytes":  append(append([]byte(nil), good...), 0),
	}
	for name, b := range cases {
		if _, err := transport.DecodeFrame(b); err == nil {
			t.Fatalf("%s: decode succeeded on malformed input", name)
		}
	}
}
