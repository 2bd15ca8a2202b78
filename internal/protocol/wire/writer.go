// Package wire owns the fixed-width primitive codec: a little-endian
// append-only Writer and a bounds-checked Reader cursor.
package wire

import (
	"encoding/binary"
	"io"
)

// Alignment is the unit all message lengths are measured in.
const Alignment = 4

// Writer appends little-endian values to a byte buffer. A Writer created
// with NewLimitedWriter refuses to grow past its capacity.
type Writer struct {
	buf []byte
	max int
}

func NewWriter(sizeHint int) *Writer {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Writer{buf: make([]byte, 0, sizeHint), max: -1}
}

// NewLimitedWriter returns a Writer that fails with ErrBufferFull once
// more than max bytes would be held.
func NewLimitedWriter(max int) *Writer {
	if max < 0 {
		max = 0
	}
	return &Writer{buf: make([]byte, 0, max), max: max}
}

func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the encoded bytes. The slice aliases the Writer's buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

// Truncate discards everything after the first n bytes.
func (w *Writer) Truncate(n int) {
	if n >= 0 && n < len(w.buf) {
		w.buf = w.buf[:n]
	}
}

func (w *Writer) grow(n int) ([]byte, error) {
	if w.max >= 0 && len(w.buf)+n > w.max {
		return nil, &WriteError{Offset: len(w.buf), Size: n, Err: ErrBufferFull}
	}
	start := len(w.buf)
	w.buf = append(w.buf, make([]byte, n)...)
	return w.buf[start:], nil
}

func (w *Writer) U8(v uint8) error {
	b, err := w.grow(1)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

func (w *Writer) U16(v uint16) error {
	b, err := w.grow(2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, v)
	return nil
}

func (w *Writer) U32(v uint32) error {
	b, err := w.grow(4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}

func (w *Writer) I8(v int8) error {
	return w.U8(uint8(v))
}

func (w *Writer) I16(v int16) error {
	return w.U16(uint16(v))
}

func (w *Writer) I32(v int32) error {
	return w.U32(uint32(v))
}

func (w *Writer) Bool(v bool) error {
	if v {
		return w.U8(1)
	}
	return w.U8(0)
}

// Write appends p verbatim, satisfying io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	b, err := w.grow(len(p))
	if err != nil {
		return 0, err
	}
	return copy(b, p), nil
}

// Zeros appends n zero bytes.
func (w *Writer) Zeros(n int) error {
	if n < 0 {
		return &WriteError{Offset: len(w.buf), Size: n, Err: ErrNegativeCount}
	}
	_, err := w.grow(n)
	return err
}

// Flush copies the buffered bytes to dst and resets the Writer.
func (w *Writer) Flush(dst io.Writer) error {
	n, err := dst.Write(w.buf)
	if err != nil {
		return &WriteError{Offset: n, Size: len(w.buf), Err: err}
	}
	if n != len(w.buf) {
		return &WriteError{Offset: n, Size: len(w.buf), Err: io.ErrShortWrite}
	}
	w.Reset()
	return nil
}

// Pad returns the number of bytes needed to round n up to a multiple of 4.
func Pad(n int) int {
	return (Alignment - n%Alignment) % Alignment
}

// Align4 rounds n up to a multiple of 4.
func Align4(n int) int {
	return n + Pad(n)
}
