// Package frame splits a byte stream into whole messages using only their
// headers, so each one can be handed to a decoder.
package frame

import (
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/xwire/internal/protocol/message"
	"github.com/danmuck/xwire/internal/protocol/wire"
)

// ErrorSize is the fixed size of an error packet.
const ErrorSize = 32

// replyPrefix covers the tag, metabyte, sequence and length of a reply.
const replyPrefix = 8

var (
	ErrShortHeader  = errors.New("frame: short header")
	ErrShortBody    = errors.New("frame: stream ended inside a message")
	ErrBadLength    = errors.New("frame: length smaller than header")
	ErrUnknownEvent = errors.New("frame: no size known for event code")
)

// EventSizer reports the encoded size of events with the given code.
type EventSizer interface {
	EventSize(code uint8) (int, bool)
}

// ReadRequest reads one whole request from r. A clean end of stream before
// the first byte returns io.EOF.
func ReadRequest(r io.Reader, limits wire.Limits) ([]byte, error) {
	head, err := readHeader(r, message.RequestHeaderSize)
	if err != nil {
		return nil, err
	}
	units, err := wire.NewReader(head[2:4]).U16()
	if err != nil {
		return nil, err
	}
	return readRest(r, head, int(units)*4, limits)
}

// ReadServer reads one reply, event or error from r. Replies are assumed
// to carry a sequence number, which places their length at bytes 4..8.
func ReadServer(r io.Reader, events EventSizer, limits wire.Limits) ([]byte, error) {
	head, err := readHeader(r, 4)
	if err != nil {
		return nil, err
	}
	switch head[0] {
	case message.ErrorTag:
		return readRest(r, head, ErrorSize, limits)
	case message.ReplyTag:
		tail := make([]byte, replyPrefix-len(head))
		if _, err := io.ReadFull(r, tail); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrShortHeader, err)
		}
		head = append(head, tail...)
		units, err := wire.NewReader(head[4:8]).U32()
		if err != nil {
			return nil, err
		}
		return readRest(r, head, int(units)*4, limits)
	default:
		size, ok := events.EventSize(head[0])
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownEvent, head[0])
		}
		return readRest(r, head, size, limits)
	}
}

func readHeader(r io.Reader, n int) ([]byte, error) {
	head := make([]byte, n)
	got, err := io.ReadFull(r, head)
	switch {
	case err == nil:
		return head, nil
	case errors.Is(err, io.EOF) && got == 0:
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, ErrShortHeader
	}
	return nil, err
}

func readRest(r io.Reader, head []byte, total int, limits wire.Limits) ([]byte, error) {
	if total < len(head) {
		return nil, fmt.Errorf("%w: %d < %d", ErrBadLength, total, len(head))
	}
	if !limits.Allows(total) {
		return nil, fmt.Errorf("%w: %d bytes", message.ErrTooLarge, total)
	}
	out := make([]byte, total)
	copy(out, head)
	if _, err := io.ReadFull(r, out[len(head):]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrShortBody
		}
		return nil, err
	}
	return out, nil
}

// Split reads messages from r until a clean end of stream, calling fn with
// each one. next is ReadRequest or a ReadServer closure.
func Split(r io.Reader, next func(io.Reader) ([]byte, error), fn func(int, []byte) error) error {
	for i := 0; ; i++ {
		msg, err := next(r)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("frame: message %d: %w", i, err)
		}
		if err := fn(i, msg); err != nil {
			return err
		}
	}
}
