package wire

import (
	"errors"
	"fmt"
)

var (
	ErrUnexpectedEOF = errors.New("wire: unexpected end of input")
	ErrBufferFull    = errors.New("wire: buffer capacity exceeded")
	ErrNegativeCount = errors.New("wire: negative byte count")
)

// ReadError reports a read that needed more bytes than remained.
type ReadError struct {
	Offset int
	Need   int
	Have   int
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("wire: unexpected end of input at offset %d: need %d bytes, have %d", e.Offset, e.Need, e.Have)
}

func (e *ReadError) Unwrap() error {
	return ErrUnexpectedEOF
}

// WriteError reports a failure of the output sink.
type WriteError struct {
	Offset int
	Size   int
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("wire: write of %d bytes at offset %d failed: %v", e.Size, e.Offset, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
