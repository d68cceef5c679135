package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// frameVersion is the first byte of every encoded frame.
const frameVersion = 1

// maxFieldLen bounds a single string field in a decoded frame. Anything
// larger is a corrupt or hostile payload.
const maxFieldLen = 1 << 20

var ErrBadFrame = errors.New("malformed frame")

// Frame is the fixed wire schema for one message. Content is plaintext here;
// the whole encoded frame is sealed with the conversation key before it
// touches the network.
type Frame struct {
	Timestamp   int64
	Sender      string
	Content     string
	MessageID   string
	MessageType string
}

// EncodeFrame serializes f as: version byte, big-endian int64 timestamp, then
// the four string fields each prefixed with a big-endian uint32 length.
func EncodeFrame(f Frame) []byte {
	fields := []string{f.Sender, f.Content, f.MessageID, f.MessageType}

	n := 1 + 8
	for _, s := range fields {
		n += 4 + len(s)
	}
	out := make([]byte, 0, n)
	out = append(out, frameVersion)
	out = binary.BigEndian.AppendUint64(out, uint64(f.Timestamp))
	for _, s := range fields {
		out = binary.BigEndian.AppendUint32(out, uint32(len(s)))
		out = append(out, s...)
	}
	return out
}

// DecodeFrame parses a payload produced by EncodeFrame.
func DecodeFrame(b []byte) (Frame, error) {
	var f Frame
	if len(b) < 9 {
		return f, ErrBadFrame
	}
	if b[0] != frameVersion {
		return f, fmt.Errorf("%w: unknown version %d", ErrBadFrame, b[0])
	}
	f.Timestamp = int64(binary.BigEndian.Uint64(b[1:9]))
	rest := b[9:]

	read := func() (string, error) {
		if len(rest) < 4 {
			return "", ErrBadFrame
		}
		n := binary.BigEndian.Uint32(rest[:4])
		rest = rest[4:]
		if n > maxFieldLen || uint32(len(rest)) < n {
			return "", ErrBadFrame
		}
		s := string(rest[:n])
		rest = rest[n:]
		return s, nil
	}

	var err error
	if f.Sender, err = read(); err != nil {
		return Frame{}, err
	}
	if f.Content, err = read(); err != nil {
		return Frame{}, err
	}
	if f.MessageID, err = read(); err != nil {
		return Frame{}, err
	}
	if f.MessageType, err = read(); err != nil {
		return Frame{}, err
	}
	if len(rest) != 0 {
		return Frame{}, fmt.Errorf("%w: %d trailing bytes", ErrBadFrame, len(rest))
	}
	return f, nil
}
