// Package message frames items behind the fixed per-kind headers.
//
// Header grammar (all integers little-endian):
//
//	Request  [major u8][minor | metabyte | 0][length u16]
//	Reply    [1][metabyte | 0][sequence u16, unless opted out][length u32]
//	Event    [code u8][metabyte | 0][sequence u16]
//
// Lengths count 4-byte units of the whole message and are always computed,
// never stored.
package message

import (
	"errors"
	"fmt"

	"github.com/danmuck/xwire/internal/protocol/codec"
	"github.com/danmuck/xwire/internal/protocol/layout"
)

const (
	ErrorTag uint8 = 0
	ReplyTag uint8 = 1

	RequestHeaderSize = 4
	EventHeaderSize   = 4

	maxRequestUnits = 0xffff
)

var (
	ErrUnaligned         = errors.New("message: size is not a multiple of 4")
	ErrLengthOverflow    = errors.New("message: length does not fit the length field")
	ErrTooLarge          = errors.New("message: exceeds size limit")
	ErrOpcodeMismatch    = errors.New("message: opcode mismatch")
	ErrNotReply          = errors.New("message: not a reply")
	ErrCodeMismatch      = errors.New("message: event code mismatch")
	ErrMissingSequence   = errors.New("message: event has no sequence item")
	ErrMetabyteWithMinor = errors.New("message: metabyte item in a request with a minor opcode")
)

// Request is a client-to-server call.
type Request interface {
	layout.Layouter
	MajorOpcode() uint8
	// MinorOpcode reports the extension minor opcode, if the request has one.
	MinorOpcode() (uint8, bool)
}

// Reply is a server-to-client response. A reply carries the sequence
// number when its layout has a sequence item.
type Reply interface {
	layout.Layouter
}

// Event is an asynchronous server-to-client notification.
type Event interface {
	layout.Layouter
	Code() uint8
}

// Seq is the auto-managed sequence number carried by replies and events.
// Embed it and include Item() in the layout.
type Seq struct {
	Number uint16
}

func (s *Seq) Sequence() uint16 {
	return s.Number
}

func (s *Seq) SetSequence(n uint16) {
	s.Number = n
}

func (s *Seq) Item() *layout.Item {
	return layout.Field("sequence", codec.Card16(&s.Number)).Sequence()
}

type uint32er interface {
	Uint32() uint32
}

// SequenceOf returns the sequence number held by m's sequence item.
func SequenceOf(m layout.Layouter) (uint16, bool) {
	it := m.Items(layout.NewScope(layout.KindReply)).SequenceItem()
	if it == nil {
		return 0, false
	}
	v, ok := it.Value().(uint32er)
	if !ok {
		return 0, false
	}
	return uint16(v.Uint32()), true
}

// RequestLength is the request's length field: its total size in 4-byte
// units.
func RequestLength(req Request) (uint16, error) {
	items := req.Items(layout.NewScope(layout.KindRequest))
	if err := items.Prepare(); err != nil {
		return 0, err
	}
	total := RequestHeaderSize + items.Body().DataSize()
	units, err := units(total)
	if err != nil {
		return 0, err
	}
	if units > maxRequestUnits {
		return 0, fmt.Errorf("%w: %d units", ErrLengthOverflow, units)
	}
	return uint16(units), nil
}

// ReplyLength is the reply's length field: its total size in 4-byte units.
func ReplyLength(rep Reply) (uint32, error) {
	items := rep.Items(layout.NewScope(layout.KindReply))
	if err := items.Prepare(); err != nil {
		return 0, err
	}
	units, err := units(replyHeaderSize(items) + items.Body().DataSize())
	if err != nil {
		return 0, err
	}
	return uint32(units), nil
}

// Check validates m's layout as the given kind, including the header rules
// that depend on the kind's metadata.
func Check(kind layout.Kind, m layout.Layouter) error {
	items := m.Items(layout.NewScope(kind))
	if err := items.Validate(kind); err != nil {
		return err
	}
	switch kind {
	case layout.KindRequest:
		req, ok := m.(Request)
		if !ok {
			return fmt.Errorf("message: %T does not implement Request", m)
		}
		if _, hasMinor := req.MinorOpcode(); hasMinor && items.Metabyte() != nil {
			return &layout.DefinitionError{Kind: kind, Item: items.Metabyte().Name(), Err: ErrMetabyteWithMinor}
		}
	case layout.KindEvent:
		if _, ok := m.(Event); !ok {
			return fmt.Errorf("message: %T does not implement Event", m)
		}
		if items.SequenceItem() == nil {
			return &layout.DefinitionError{Kind: kind, Item: "sequence", Err: ErrMissingSequence}
		}
	}
	return nil
}

func replyHeaderSize(items layout.Items) int {
	size := 6
	if items.SequenceItem() != nil {
		size += 2
	}
	return size
}

func units(total int) (int, error) {
	if total%4 != 0 {
		return 0, fmt.Errorf("%w: %d bytes", ErrUnaligned, total)
	}
	return total / 4, nil
}
