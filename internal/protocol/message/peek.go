package message

import (
	"encoding/binary"

	"github.com/danmuck/xwire/internal/protocol/wire"
)

// Class is the kind of server-to-client message, told apart by the first
// byte.
type Class uint8

const (
	ClassError Class = iota
	ClassReply
	ClassEvent
)

func (c Class) String() string {
	switch c {
	case ClassError:
		return "error"
	case ClassReply:
		return "reply"
	default:
		return "event"
	}
}

// Header is the common prefix of server-to-client messages.
type Header struct {
	Class    Class
	Code     uint8
	Metabyte uint8
	Sequence uint16
}

// Peek classifies a server-to-client message without consuming it. It
// assumes the sequence slot is present, which holds for every error and
// event and for replies that do not opt out.
func Peek(data []byte) (Header, error) {
	if len(data) < 4 {
		return Header{}, &wire.ReadError{Offset: 0, Need: 4, Have: len(data)}
	}
	h := Header{
		Code:     data[0],
		Metabyte: data[1],
		Sequence: binary.LittleEndian.Uint16(data[2:4]),
	}
	switch data[0] {
	case ErrorTag:
		h.Class = ClassError
	case ReplyTag:
		h.Class = ClassReply
	default:
		h.Class = ClassEvent
	}
	return h, nil
}
