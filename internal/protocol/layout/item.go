// Package layout owns the ordered item lists that describe a message's
// byte layout: fields, computed lets and unused padding. It sizes items
// ahead of writing and serializes them strictly in declaration order.
package layout

import (
	"fmt"

	"github.com/danmuck/xwire/internal/protocol/codec"
	"github.com/danmuck/xwire/internal/protocol/wire"
)

// SelfLength is the source name of the enclosing message's length field.
const SelfLength = "self.length"

type itemKind uint8

const (
	kindField itemKind = iota
	kindLet
	kindUnused
	kindUnusedArray
)

func (k itemKind) String() string {
	switch k {
	case kindField:
		return "field"
	case kindLet:
		return "let"
	case kindUnused:
		return "unused"
	case kindUnusedArray:
		return "unused array"
	default:
		return "unknown"
	}
}

// Item is one element of a message layout.
type Item struct {
	name     string
	kind     itemKind
	value    codec.Codec
	compute  func() int
	count    func() int
	sources  []string
	metabyte bool
	sequence bool
}

// Field declares a stored value.
func Field(name string, v codec.Codec) *Item {
	return &Item{name: name, kind: kindField, value: v}
}

// Let declares a value derived from other items. compute's result is
// assigned to v before it is written, so v must be codec.Assignable; on
// read the decoded value lands in v instead and is visible to later
// sources.
func Let(name string, v codec.Codec, compute func() int) *Item {
	return &Item{name: name, kind: kindLet, value: v, compute: compute}
}

// Unused declares one reserved byte.
func Unused() *Item {
	return &Item{kind: kindUnused}
}

// UnusedArray declares count() reserved bytes.
func UnusedArray(name string, count func() int) *Item {
	return &Item{name: name, kind: kindUnusedArray, count: count}
}

// Metabyte places the item in the header's second byte.
func (it *Item) Metabyte() *Item {
	it.metabyte = true
	return it
}

// Sequence places the item in the reply/event sequence slot.
func (it *Item) Sequence() *Item {
	it.sequence = true
	return it
}

// From declares the earlier items the item's source (or, for a field, its
// decode context) reads.
func (it *Item) From(sources ...string) *Item {
	it.sources = append(it.sources, sources...)
	return it
}

func (it *Item) Name() string       { return it.name }
func (it *Item) IsMetabyte() bool   { return it.metabyte }
func (it *Item) IsSequence() bool   { return it.sequence }
func (it *Item) IsField() bool      { return it.kind == kindField }
func (it *Item) Sources() []string  { return it.sources }
func (it *Item) Value() codec.Codec { return it.value }

// Prepare evaluates a let's source and stores it. A result that does not
// fit the let's width fails with ErrLetOverflow. Other items are left
// alone.
func (it *Item) Prepare() error {
	if it.kind != kindLet || it.compute == nil {
		return nil
	}
	a, ok := it.value.(codec.Assignable)
	if !ok {
		return &DefinitionError{Item: it.label(), Err: ErrLetWidth}
	}
	n := it.compute()
	if err := a.Assign(n); err != nil {
		return fmt.Errorf("%w: %s = %d: %w", ErrLetOverflow, it.label(), n, err)
	}
	return nil
}

// Size is the number of bytes the item occupies.
func (it *Item) Size() int {
	switch it.kind {
	case kindField, kindLet:
		return it.value.DataSize()
	case kindUnused:
		return 1
	case kindUnusedArray:
		n := it.count()
		if n < 0 {
			return 0
		}
		return n
	default:
		return 0
	}
}

// staticSize reports the item's size when it cannot vary with content.
func (it *Item) staticSize() (int, bool) {
	switch it.kind {
	case kindUnused:
		return 1, true
	case kindField, kindLet:
		if s, ok := it.value.(codec.Static); ok {
			return s.StaticSize(), true
		}
	}
	return 0, false
}

func (it *Item) Write(w *wire.Writer) error {
	switch it.kind {
	case kindField:
		return it.value.Write(w)
	case kindLet:
		if err := it.Prepare(); err != nil {
			return err
		}
		return it.value.Write(w)
	case kindUnused:
		return w.U8(0)
	case kindUnusedArray:
		return w.Zeros(it.count())
	}
	return nil
}

func (it *Item) Read(r *wire.Reader) error {
	switch it.kind {
	case kindField, kindLet:
		return it.value.Read(r)
	case kindUnused:
		return r.Skip(1)
	case kindUnusedArray:
		return r.Skip(it.count())
	}
	return nil
}

func (it *Item) label() string {
	if it.name != "" {
		return it.name
	}
	return "(" + it.kind.String() + ")"
}
