// Package frame implements the length-prefixed message codec shared by the
// control and bulk channels: a 4-byte little-endian body length followed by
// a UTF-8 JSON body.
package frame

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/glance/internal/core/domain"
)

// Channel limits.
const (
	// MaxControlMessage bounds bodies read from the control channel.
	MaxControlMessage = 64 << 20

	// MaxControlResponse bounds bodies written back to the control channel.
	MaxControlResponse = 1 << 20

	// headerSize is the length prefix size in bytes.
	headerSize = 4
)

// ReadRaw reads one frame body. max <= 0 disables the size check. A body
// larger than max returns domain.ErrMessageTooLarge without consuming it,
// leaving the stream unusable. A clean EOF before the header returns io.EOF.
func ReadRaw(r io.Reader, max int64) ([]byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("reading frame header: %w", err)
		}
		return nil, err
	}
	n := int64(binary.LittleEndian.Uint32(header[:]))
	if max > 0 && n > max {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrMessageTooLarge, n, max)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("reading frame body: %w", io.ErrUnexpectedEOF)
	}
	return body, nil
}

// WriteRaw writes body as one frame. max <= 0 disables the size check.
func WriteRaw(w io.Writer, body []byte, max int64) error {
	if max > 0 && int64(len(body)) > max {
		return fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrMessageTooLarge, len(body), max)
	}
	if int64(len(body)) > int64(^uint32(0)) {
		return fmt.Errorf("%w: %d bytes does not fit the header", domain.ErrMessageTooLarge, len(body))
	}
	buf := make([]byte, headerSize+len(body))
	binary.LittleEndian.PutUint32(buf, uint32(len(body)))
	copy(buf[headerSize:], body)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Read reads one frame and decodes its JSON body into v.
func Read(r io.Reader, v any, max int64) error {
	body, err := ReadRaw(r, max)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decoding frame: %w", domain.ErrInvalidInput, err)
	}
	return nil
}

// Write encodes v as JSON and writes it as one frame.
func Write(w io.Writer, v any, max int64) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	return WriteRaw(w, body, max)
}
