// Package codec defines the read/write contract every message type
// satisfies and the composite values (integers, byte runs, lists,
// optionals) message items are built from.
//
// A value's size is always computed from the value itself. DataSize must
// be exact because length fields precede the data they measure.
package codec

import (
	"errors"
	"fmt"

	"github.com/danmuck/xwire/internal/protocol/wire"
)

var (
	ErrSizeMismatch  = errors.New("codec: written size does not match data size")
	ErrTrailingBytes = errors.New("codec: trailing bytes after value")
	ErrReservedValue = errors.New("codec: value collides with reserved sentinel")
	ErrOverflow      = errors.New("codec: value does not fit its width")
)

// Sizer reports the exact number of bytes Write will produce.
type Sizer interface {
	DataSize() int
}

type Writable interface {
	Sizer
	Write(w *wire.Writer) error
}

// Readable decodes into its receiver, consuming bytes from r in
// declaration order.
type Readable interface {
	Read(r *wire.Reader) error
}

type Codec interface {
	Writable
	Readable
}

// ContextReadable is implemented by values that need information from an
// enclosing message (usually a length) to be decoded.
type ContextReadable[C any] interface {
	ReadWith(r *wire.Reader, ctx C) error
}

// Static is implemented by values whose size does not depend on their
// contents.
type Static interface {
	StaticSize() int
}

// Assignable is a fixed-width value that can take a computed integer,
// failing with ErrOverflow when the integer does not fit.
type Assignable interface {
	Assign(n int) error
}

// Read constructs a T and decodes it from r.
func Read[T any, PT interface {
	*T
	Readable
}](r *wire.Reader) (T, error) {
	var v T
	if err := PT(&v).Read(r); err != nil {
		return v, err
	}
	return v, nil
}

// ReadWith constructs a T and decodes it from r using ctx.
func ReadWith[T any, C any, PT interface {
	*T
	ContextReadable[C]
}](r *wire.Reader, ctx C) (T, error) {
	var v T
	if err := PT(&v).ReadWith(r, ctx); err != nil {
		return v, err
	}
	return v, nil
}

// Encode writes v into a fresh buffer and checks that exactly DataSize
// bytes were produced.
func Encode(v Writable) ([]byte, error) {
	size := v.DataSize()
	w := wire.NewWriter(size)
	if err := v.Write(w); err != nil {
		return nil, err
	}
	if w.Len() != size {
		return nil, fmt.Errorf("%w: wrote %d, data size %d", ErrSizeMismatch, w.Len(), size)
	}
	return w.Bytes(), nil
}

// Decode reads a T from data, failing if any bytes are left over.
func Decode[T any, PT interface {
	*T
	Readable
}](data []byte) (T, error) {
	r := wire.NewReader(data)
	v, err := Read[T, PT](r)
	if err != nil {
		return v, err
	}
	if r.Remaining() != 0 {
		return v, fmt.Errorf("%w: %d bytes", ErrTrailingBytes, r.Remaining())
	}
	return v, nil
}
