// Package enum encodes tagged unions: a one-byte discriminant followed by
// the selected variant's items.
//
// Discriminants resolve like C enumerators: the first variant is 0 unless
// given explicitly, and every later variant is the previous one plus one
// unless given explicitly. Duplicate resolved discriminants are rejected
// when the enum is built.
package enum

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/danmuck/xwire/internal/protocol/layout"
	"github.com/danmuck/xwire/internal/protocol/wire"
)

var (
	ErrUnrecognizedDiscriminant = errors.New("enum: unrecognized discriminant")
	ErrDuplicateDiscriminant    = errors.New("enum: duplicate discriminant")
	ErrDiscriminantRange        = errors.New("enum: discriminant does not fit in one byte")
	ErrDuplicateVariant         = errors.New("enum: duplicate variant name")
	ErrUnknownVariant           = errors.New("enum: value is not a declared variant")
	ErrNilVariant               = errors.New("enum: nil variant")
)

// UnrecognizedDiscriminantError reports a tag byte no variant claims.
type UnrecognizedDiscriminantError struct {
	Enum string
	Byte uint8
}

func (e *UnrecognizedDiscriminantError) Error() string {
	return fmt.Sprintf("enum: %s: unrecognized discriminant %d", e.Enum, e.Byte)
}

func (e *UnrecognizedDiscriminantError) Unwrap() error {
	return ErrUnrecognizedDiscriminant
}

// DefinitionError reports a malformed enum declaration.
type DefinitionError struct {
	Enum    string
	Variant string
	Err     error
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("enum: %s variant %q: %v", e.Enum, e.Variant, e.Err)
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}

// Variant is one alternative of a tagged union.
type Variant interface {
	layout.Layouter
	VariantName() string
}

// CaseSpec declares a variant and how to construct an empty one.
type CaseSpec[V Variant] struct {
	name     string
	ctor     func() V
	explicit bool
	value    int
}

func Case[V Variant](name string, ctor func() V) CaseSpec[V] {
	return CaseSpec[V]{name: name, ctor: ctor}
}

// At gives the variant an explicit discriminant.
func (c CaseSpec[V]) At(discriminant int) CaseSpec[V] {
	c.explicit = true
	c.value = discriminant
	return c
}

// Enum is a resolved tagged union.
type Enum[V Variant] struct {
	name   string
	cases  []CaseSpec[V]
	byDisc map[uint8]int
	byName map[string]uint8
}

// New resolves the discriminants of cases, in order, and validates every
// variant's layout.
func New[V Variant](name string, cases ...CaseSpec[V]) (*Enum[V], error) {
	e := &Enum[V]{
		name:   name,
		cases:  cases,
		byDisc: make(map[uint8]int, len(cases)),
		byName: make(map[string]uint8, len(cases)),
	}
	next := 0
	for i, c := range cases {
		d := next
		if c.explicit {
			d = c.value
		}
		if d < 0 || d > 0xff {
			return nil, &DefinitionError{Enum: name, Variant: c.name, Err: fmt.Errorf("%w: %d", ErrDiscriminantRange, d)}
		}
		if prev, dup := e.byDisc[uint8(d)]; dup {
			return nil, &DefinitionError{Enum: name, Variant: c.name, Err: fmt.Errorf("%w: %d also used by %q", ErrDuplicateDiscriminant, d, cases[prev].name)}
		}
		if _, dup := e.byName[c.name]; dup {
			return nil, &DefinitionError{Enum: name, Variant: c.name, Err: ErrDuplicateVariant}
		}
		if err := layout.Check(layout.KindStruct, c.ctor()); err != nil {
			return nil, &DefinitionError{Enum: name, Variant: c.name, Err: err}
		}
		e.byDisc[uint8(d)] = i
		e.byName[c.name] = uint8(d)
		next = d + 1
	}
	return e, nil
}

// MustNew is New for package-level declarations.
func MustNew[V Variant](name string, cases ...CaseSpec[V]) *Enum[V] {
	e, err := New(name, cases...)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Enum[V]) Name() string {
	return e.name
}

// Discriminant returns the resolved discriminant of the named variant.
func (e *Enum[V]) Discriminant(variant string) (uint8, bool) {
	d, ok := e.byName[variant]
	return d, ok
}

// isNil reports a nil interface or a nil pointer held in one. Variants are
// pointer types whose Items bind to the pointee, so a typed nil would be
// dereferenced.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// DataSize is the tag byte plus the variant's items. A nil variant,
// including a typed nil pointer, has no size; writing it fails.
func (e *Enum[V]) DataSize(v V) int {
	if isNil(v) {
		return 0
	}
	return 1 + layout.StructSize(v)
}

func (e *Enum[V]) Write(w *wire.Writer, v V) error {
	if isNil(v) {
		return fmt.Errorf("%w: %s", ErrNilVariant, e.name)
	}
	d, ok := e.byName[v.VariantName()]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownVariant, e.name, v.VariantName())
	}
	if err := w.U8(d); err != nil {
		return err
	}
	return layout.WriteStruct(w, v)
}

// Read decodes the tag byte and the variant it selects. An unclaimed tag
// fails with *UnrecognizedDiscriminantError.
func (e *Enum[V]) Read(r *wire.Reader) (V, error) {
	var zero V
	d, err := r.U8()
	if err != nil {
		return zero, err
	}
	i, ok := e.byDisc[d]
	if !ok {
		return zero, &UnrecognizedDiscriminantError{Enum: e.name, Byte: d}
	}
	v := e.cases[i].ctor()
	if err := layout.ReadStruct(r, v); err != nil {
		return zero, fmt.Errorf("enum: %s.%s: %w", e.name, e.cases[i].name, err)
	}
	return v, nil
}
