package layout

import (
	"fmt"

	"github.com/danmuck/xwire/internal/protocol/wire"
)

// Kind is the message kind a layout belongs to.
type Kind uint8

const (
	KindStruct Kind = iota
	KindRequest
	KindReply
	KindEvent
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindRequest:
		return "request"
	case KindReply:
		return "reply"
	case KindEvent:
		return "event"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Scope is per-operation state shared by a message's items.
type Scope struct {
	kind      Kind
	length    int
	hasLength bool
}

func NewScope(kind Kind) *Scope {
	return &Scope{kind: kind}
}

func (s *Scope) Kind() Kind {
	return s.kind
}

// Length is the message length in bytes as carried by the header. It is
// zero until the header has been written or read.
func (s *Scope) Length() int {
	return s.length
}

func (s *Scope) HasLength() bool {
	return s.hasLength
}

func (s *Scope) SetLength(n int) {
	s.length = n
	s.hasLength = true
}

// Layouter is implemented by every message, structure and enum variant.
// Items binds a fresh item list to the receiver's fields.
type Layouter interface {
	Items(s *Scope) Items
}

// Items is an ordered layout.
type Items []*Item

// Prepare evaluates every let in order so later sources see their values.
func (items Items) Prepare() error {
	for _, it := range items {
		if err := it.Prepare(); err != nil {
			return err
		}
	}
	return nil
}

func (items Items) DataSize() int {
	total := 0
	for _, it := range items {
		total += it.Size()
	}
	return total
}

// Metabyte returns the item occupying the header's second byte, if any.
func (items Items) Metabyte() *Item {
	for _, it := range items {
		if it.metabyte {
			return it
		}
	}
	return nil
}

// SequenceItem returns the item occupying the sequence slot, if any.
func (items Items) SequenceItem() *Item {
	for _, it := range items {
		if it.sequence {
			return it
		}
	}
	return nil
}

// Body returns the items serialized after the header.
func (items Items) Body() Items {
	body := make(Items, 0, len(items))
	for _, it := range items {
		if it.metabyte || it.sequence {
			continue
		}
		body = append(body, it)
	}
	return body
}

func (items Items) Write(w *wire.Writer) error {
	for _, it := range items {
		if err := it.Write(w); err != nil {
			return fmt.Errorf("layout: write %s: %w", it.label(), err)
		}
	}
	return nil
}

func (items Items) Read(r *wire.Reader) error {
	for _, it := range items {
		if err := it.Read(r); err != nil {
			return fmt.Errorf("layout: read %s: %w", it.label(), err)
		}
	}
	return nil
}

// WriteMetabyte fills the metabyte slot: the metabyte item if declared,
// otherwise one zero byte.
func (items Items) WriteMetabyte(w *wire.Writer) error {
	if it := items.Metabyte(); it != nil {
		if err := it.Write(w); err != nil {
			return fmt.Errorf("layout: write metabyte %s: %w", it.label(), err)
		}
		return nil
	}
	return w.U8(0)
}

// ReadMetabyte consumes the metabyte slot.
func (items Items) ReadMetabyte(r *wire.Reader) error {
	if it := items.Metabyte(); it != nil {
		if err := it.Read(r); err != nil {
			return fmt.Errorf("layout: read metabyte %s: %w", it.label(), err)
		}
		return nil
	}
	return r.Skip(1)
}

// Find returns the named item.
func (items Items) Find(name string) (*Item, bool) {
	for _, it := range items {
		if it.name != "" && it.name == name {
			return it, true
		}
	}
	return nil, false
}
