package codec

import (
	"fmt"

	"github.com/danmuck/xwire/internal/protocol/wire"
)

type integer interface {
	~uint8 | ~uint16 | ~uint32 | ~int8 | ~int16 | ~int32
}

// Int binds a fixed-width integer field. The width is fixed by the
// constructor, not by T, so named types keep their wire size.
type Int[T integer] struct {
	p    *T
	size int
}

func Card8[T ~uint8](p *T) Int[T]   { return Int[T]{p: p, size: 1} }
func Card16[T ~uint16](p *T) Int[T] { return Int[T]{p: p, size: 2} }
func Card32[T ~uint32](p *T) Int[T] { return Int[T]{p: p, size: 4} }
func Int8[T ~int8](p *T) Int[T]     { return Int[T]{p: p, size: 1} }
func Int16[T ~int16](p *T) Int[T]   { return Int[T]{p: p, size: 2} }
func Int32[T ~int32](p *T) Int[T]   { return Int[T]{p: p, size: 4} }

func (v Int[T]) DataSize() int   { return v.size }
func (v Int[T]) StaticSize() int { return v.size }

// Uint32 returns the bound value widened to 32 bits.
func (v Int[T]) Uint32() uint32 {
	return uint32(*v.p)
}

// Assign stores n, rejecting values outside the bound width and
// signedness.
func (v Int[T]) Assign(n int) error {
	bits := uint(v.size * 8)
	lo, hi := int64(0), int64(1)<<bits-1
	if ^T(0) < 0 {
		lo, hi = -(int64(1) << (bits - 1)), int64(1)<<(bits-1)-1
	}
	if x := int64(n); x < lo || x > hi {
		return fmt.Errorf("%w: %d outside [%d, %d]", ErrOverflow, n, lo, hi)
	}
	*v.p = T(n)
	return nil
}

func (v Int[T]) Write(w *wire.Writer) error {
	switch v.size {
	case 1:
		return w.U8(uint8(*v.p))
	case 2:
		return w.U16(uint16(*v.p))
	default:
		return w.U32(uint32(*v.p))
	}
}

func (v Int[T]) Read(r *wire.Reader) error {
	switch v.size {
	case 1:
		x, err := r.U8()
		if err != nil {
			return err
		}
		*v.p = T(x)
	case 2:
		x, err := r.U16()
		if err != nil {
			return err
		}
		*v.p = T(x)
	default:
		x, err := r.U32()
		if err != nil {
			return err
		}
		*v.p = T(x)
	}
	return nil
}

// Bool binds a one-byte boolean.
type Bool struct {
	p *bool
}

func Bool8(p *bool) Bool { return Bool{p: p} }

func (v Bool) DataSize() int   { return 1 }
func (v Bool) StaticSize() int { return 1 }

func (v Bool) Uint32() uint32 {
	if *v.p {
		return 1
	}
	return 0
}

// Assign accepts 0 and 1 only.
func (v Bool) Assign(n int) error {
	if n != 0 && n != 1 {
		return fmt.Errorf("%w: %d is not a boolean", ErrOverflow, n)
	}
	*v.p = n == 1
	return nil
}

func (v Bool) Write(w *wire.Writer) error {
	return w.Bool(*v.p)
}

func (v Bool) Read(r *wire.Reader) error {
	x, err := r.Bool()
	if err != nil {
		return err
	}
	*v.p = x
	return nil
}

// Bytes binds a run of raw bytes. On write the run is emitted as held; on
// read n reports how many bytes belong to it.
type Bytes struct {
	p *[]byte
	n func() int
}

func ByteRun(p *[]byte, n func() int) Bytes { return Bytes{p: p, n: n} }

func (v Bytes) DataSize() int { return len(*v.p) }

func (v Bytes) Write(w *wire.Writer) error {
	_, err := w.Write(*v.p)
	return err
}

func (v Bytes) Read(r *wire.Reader) error {
	return v.ReadWith(r, v.n())
}

func (v Bytes) ReadWith(r *wire.Reader, n int) error {
	return (*Run)(v.p).ReadWith(r, n)
}

// Run is a byte run whose length comes from the enclosing message.
type Run []byte

func (b *Run) ReadWith(r *wire.Reader, n int) error {
	x, err := r.Bytes(n)
	if err != nil {
		return err
	}
	*b = x
	return nil
}

// String binds a STRING8: Latin-1 bytes without a terminator.
type String struct {
	p *string
	n func() int
}

func String8(p *string, n func() int) String { return String{p: p, n: n} }

func (v String) DataSize() int { return len(*v.p) }

func (v String) Write(w *wire.Writer) error {
	_, err := w.Write([]byte(*v.p))
	return err
}

func (v String) Read(r *wire.Reader) error {
	return v.ReadWith(r, v.n())
}

func (v String) ReadWith(r *wire.Reader, n int) error {
	return (*Text)(v.p).ReadWith(r, n)
}

// Text is a STRING8 whose length comes from the enclosing message.
type Text string

func (s *Text) ReadWith(r *wire.Reader, n int) error {
	b, err := r.Bytes(n)
	if err != nil {
		return err
	}
	*s = Text(b)
	return nil
}

// List binds a sequence of nested values, each encoded with its own codec.
type List[T any, PT interface {
	*T
	Codec
}] struct {
	p *[]T
	n func() int
}

func ListOf[T any, PT interface {
	*T
	Codec
}](p *[]T, n func() int) List[T, PT] {
	return List[T, PT]{p: p, n: n}
}

func (v List[T, PT]) DataSize() int {
	total := 0
	for i := range *v.p {
		total += PT(&(*v.p)[i]).DataSize()
	}
	return total
}

func (v List[T, PT]) Write(w *wire.Writer) error {
	for i := range *v.p {
		if err := PT(&(*v.p)[i]).Write(w); err != nil {
			return err
		}
	}
	return nil
}

func (v List[T, PT]) Read(r *wire.Reader) error {
	return v.ReadWith(r, v.n())
}

func (v List[T, PT]) ReadWith(r *wire.Reader, count int) error {
	return (*Elems[T, PT])(v.p).ReadWith(r, count)
}

// Elems is a list of nested values whose count comes from the enclosing
// message.
type Elems[T any, PT interface {
	*T
	Codec
}] []T

// ReadWith decodes count elements. The count comes from the input, so it is
// checked against the remaining bytes before anything is allocated.
func (l *Elems[T, PT]) ReadWith(r *wire.Reader, count int) error {
	if count < 0 {
		return fmt.Errorf("codec: negative list length %d", count)
	}
	var zero T
	if s, ok := any(PT(&zero)).(Static); ok && s.StaticSize() > 0 {
		if need := count * s.StaticSize(); count > r.Remaining() || need > r.Remaining() {
			return &wire.ReadError{Offset: r.Offset(), Need: need, Have: r.Remaining()}
		}
	}
	out := make([]T, 0, min(count, r.Remaining()))
	for i := 0; i < count; i++ {
		var x T
		if err := PT(&x).Read(r); err != nil {
			return fmt.Errorf("codec: list element %d: %w", i, err)
		}
		out = append(out, x)
	}
	*l = out
	return nil
}

// Option32 is a CARD32 that may be absent.
type Option32 struct {
	Value uint32
	Valid bool
}

func Some32(v uint32) Option32 { return Option32{Value: v, Valid: true} }

// Optional binds an Option32 encoded as a single word, where none is the
// reserved word standing for absence.
type Optional struct {
	p    *Option32
	none uint32
}

func Optional32(p *Option32, none uint32) Optional { return Optional{p: p, none: none} }

func (v Optional) DataSize() int   { return 4 }
func (v Optional) StaticSize() int { return 4 }

func (v Optional) Write(w *wire.Writer) error {
	if !v.p.Valid {
		return w.U32(v.none)
	}
	if v.p.Value == v.none {
		return fmt.Errorf("%w: %#x", ErrReservedValue, v.none)
	}
	return w.U32(v.p.Value)
}

func (v Optional) Read(r *wire.Reader) error {
	x, err := r.U32()
	if err != nil {
		return err
	}
	if x == v.none {
		*v.p = Option32{}
		return nil
	}
	*v.p = Some32(x)
	return nil
}

var (
	_ Assignable           = Int[uint8]{}
	_ Assignable           = Bool{}
	_ ContextReadable[int] = (*Run)(nil)
	_ ContextReadable[int] = (*Text)(nil)
	_ ContextReadable[int] = Bytes{}
	_ ContextReadable[int] = String{}
)
