package layout

import (
	"errors"
	"fmt"

	"github.com/danmuck/xwire/internal/protocol/codec"
)

// Definition-time errors. A layout that fails Validate is a programming
// error in the message description, not bad input.
var (
	ErrDuplicateItem      = errors.New("layout: duplicate item name")
	ErrMultipleMetabyte   = errors.New("layout: more than one metabyte item")
	ErrMetabyteWidth      = errors.New("layout: metabyte item must be exactly one byte")
	ErrMetabytePlacement  = errors.New("layout: metabyte item outside a message header")
	ErrMultipleSequence   = errors.New("layout: more than one sequence item")
	ErrSequencePlacement  = errors.New("layout: sequence item outside a reply or event")
	ErrSequenceWidth      = errors.New("layout: sequence item must be a two-byte field")
	ErrLetWidth           = errors.New("layout: let item must have a fixed width")
	ErrUnknownSource      = errors.New("layout: source names an unknown or later item")
	ErrSelfLengthMisplace = errors.New("layout: self.length is only resolvable in requests and replies")
)

// ErrLetOverflow is an encode-time error: a let's computed value does not
// fit the let's width.
var ErrLetOverflow = errors.New("layout: let value does not fit its width")

// DefinitionError reports a malformed layout.
type DefinitionError struct {
	Kind   Kind
	Item   string
	Detail string
	Err    error
}

func (e *DefinitionError) Error() string {
	msg := fmt.Sprintf("layout: %s item %q: %v", e.Kind, e.Item, e.Err)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}

// Validate checks the layout's structural invariants for the given kind.
func (items Items) Validate(kind Kind) error {
	declared := make(map[string]struct{}, len(items))
	var metabyte, sequence *Item

	fail := func(it *Item, err error, detail string) error {
		return &DefinitionError{Kind: kind, Item: it.label(), Detail: detail, Err: err}
	}

	for _, it := range items {
		for _, src := range it.sources {
			if src == SelfLength {
				if kind != KindRequest && kind != KindReply {
					return fail(it, ErrSelfLengthMisplace, "")
				}
				continue
			}
			if _, ok := declared[src]; !ok {
				return fail(it, ErrUnknownSource, src)
			}
		}

		if it.kind == kindLet {
			if _, ok := it.staticSize(); !ok {
				return fail(it, ErrLetWidth, "")
			}
			if _, ok := it.value.(codec.Assignable); !ok && it.compute != nil {
				return fail(it, ErrLetWidth, "value cannot take a computed integer")
			}
		}

		if it.metabyte {
			if kind == KindStruct {
				return fail(it, ErrMetabytePlacement, "")
			}
			if metabyte != nil {
				return fail(it, ErrMultipleMetabyte, "first is "+metabyte.label())
			}
			if size, ok := it.staticSize(); !ok || size != 1 {
				return fail(it, ErrMetabyteWidth, "")
			}
			metabyte = it
		}

		if it.sequence {
			if kind != KindReply && kind != KindEvent {
				return fail(it, ErrSequencePlacement, "")
			}
			if sequence != nil {
				return fail(it, ErrMultipleSequence, "first is "+sequence.label())
			}
			if size, ok := it.staticSize(); !ok || size != 2 || it.kind != kindField {
				return fail(it, ErrSequenceWidth, "")
			}
			sequence = it
		}

		if it.name == "" {
			continue
		}
		if _, dup := declared[it.name]; dup || it.name == SelfLength {
			return fail(it, ErrDuplicateItem, "")
		}
		declared[it.name] = struct{}{}
	}
	return nil
}
