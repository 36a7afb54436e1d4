package wire

import (
	"encoding/binary"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// MaxMessageBytes bounds a single frame in both directions. An HTML body plus
// base64 thumbnails fits comfortably; anything past this is a broken or
// hostile peer.
const MaxMessageBytes = 100_000_000

var (
	// ErrInvalidLength flags framing violations: a zero or oversized length
	// header, or a connection that closed before delivering a full frame.
	ErrInvalidLength = errors.New("invalid message length")
	// ErrMalformedMessage flags frames whose payload is not valid JSON.
	ErrMalformedMessage = errors.New("malformed message")
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// WriteMessage frames msg as JSON and writes it in a single Write call.
func WriteMessage(w io.Writer, msg interface{}) error {
	payload, err := jsonCodec.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshaling message")
	}
	if len(payload) == 0 || len(payload) > MaxMessageBytes {
		return errors.Wrapf(ErrInvalidLength, "encoded message is %d bytes", len(payload))
	}

	frame := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[4:], payload)

	if _, err := w.Write(frame); err != nil {
		return errors.Wrap(err, "writing frame")
	}
	return nil
}

// ReadMessage reads exactly one frame and unmarshals it into msg. A clean EOF
// before the first header byte is returned as io.EOF so callers can tell a
// closed peer from a truncated frame.
func ReadMessage(r io.Reader, msg interface{}) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return errors.Wrapf(ErrInvalidLength, "reading frame header: %v", err)
	}

	length := binary.BigEndian.Uint32(header[:])
	if length == 0 || length > MaxMessageBytes {
		return errors.Wrapf(ErrInvalidLength, "frame header declares %d bytes", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return errors.Wrapf(ErrInvalidLength, "reading %d byte frame: %v", length, err)
	}

	if err := jsonCodec.Unmarshal(payload, msg); err != nil {
		return errors.Wrapf(ErrMalformedMessage, "decoding frame: %v", err)
	}
	return nil
}
