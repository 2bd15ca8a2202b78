package enum

import (
	"fmt"

	"github.com/danmuck/xwire/internal/protocol/wire"
)

// Value binds a variant-holding field so an enum can be an item of a
// message.
type Value[V Variant] struct {
	e *Enum[V]
	p *V
}

func Field[V Variant](e *Enum[V], p *V) Value[V] {
	return Value[V]{e: e, p: p}
}

func (v Value[V]) DataSize() int {
	return v.e.DataSize(*v.p)
}

func (v Value[V]) Write(w *wire.Writer) error {
	return v.e.Write(w, *v.p)
}

func (v Value[V]) Read(r *wire.Reader) error {
	x, err := v.e.Read(r)
	if err != nil {
		return err
	}
	*v.p = x
	return nil
}

// List binds a sequence of variants whose count is known from an earlier
// item.
type List[V Variant] struct {
	e *Enum[V]
	p *[]V
	n func() int
}

func ListOf[V Variant](e *Enum[V], p *[]V, n func() int) List[V] {
	return List[V]{e: e, p: p, n: n}
}

func (v List[V]) DataSize() int {
	total := 0
	for _, x := range *v.p {
		total += v.e.DataSize(x)
	}
	return total
}

func (v List[V]) Write(w *wire.Writer) error {
	for _, x := range *v.p {
		if err := v.e.Write(w, x); err != nil {
			return err
		}
	}
	return nil
}

func (v List[V]) Read(r *wire.Reader) error {
	count := v.n()
	if count < 0 {
		return fmt.Errorf("enum: negative list length %d", count)
	}
	// Every variant is at least its tag byte.
	if count > r.Remaining() {
		return &wire.ReadError{Offset: r.Offset(), Need: count, Have: r.Remaining()}
	}
	out := make([]V, 0, count)
	for i := 0; i < count; i++ {
		x, err := v.e.Read(r)
		if err != nil {
			return fmt.Errorf("enum: list element %d: %w", i, err)
		}
		out = append(out, x)
	}
	*v.p = out
	return nil
}
