package message

import (
	"fmt"

	"github.com/danmuck/xwire/internal/logging"
	"github.com/danmuck/xwire/internal/protocol/layout"
	"github.com/danmuck/xwire/internal/protocol/wire"
)

// ReadRequest decodes a whole request, checking its opcodes against req.
func ReadRequest(r *wire.Reader, req Request, limits wire.Limits) error {
	major, err := r.U8()
	if err != nil {
		return err
	}
	if major != req.MajorOpcode() {
		return fmt.Errorf("%w: major %d, want %d", ErrOpcodeMismatch, major, req.MajorOpcode())
	}
	consumed := 1
	if want, ok := req.MinorOpcode(); ok {
		minor, err := r.U8()
		if err != nil {
			return err
		}
		if minor != want {
			return fmt.Errorf("%w: minor %d, want %d", ErrOpcodeMismatch, minor, want)
		}
		consumed++
	}
	return readRequest(r, req, consumed, limits)
}

// ReadRequestBody decodes a request whose major opcode, and minor opcode
// when it has one, were already consumed by a dispatcher.
func ReadRequestBody(r *wire.Reader, req Request, limits wire.Limits) error {
	consumed := 1
	if _, ok := req.MinorOpcode(); ok {
		consumed++
	}
	return readRequest(r, req, consumed, limits)
}

func readRequest(r *wire.Reader, req Request, consumed int, limits wire.Limits) error {
	scope := layout.NewScope(layout.KindRequest)
	items := req.Items(scope)
	begin := r.Offset()

	if _, hasMinor := req.MinorOpcode(); !hasMinor {
		if err := items.ReadMetabyte(r); err != nil {
			return err
		}
	}
	n, err := r.U16()
	if err != nil {
		return err
	}
	length := int(n) * 4
	if err := checkLimit(length, limits); err != nil {
		return err
	}
	scope.SetLength(length)

	if err := items.Body().Read(r); err != nil {
		return err
	}
	diagnose(layout.KindRequest, length, consumed+r.Offset()-begin)
	return nil
}

// ReadReply decodes a whole reply, checking the reply tag.
func ReadReply(r *wire.Reader, rep Reply, limits wire.Limits) error {
	tag, err := r.U8()
	if err != nil {
		return err
	}
	if tag != ReplyTag {
		return fmt.Errorf("%w: tag %d", ErrNotReply, tag)
	}
	return ReadReplyBody(r, rep, limits)
}

// ReadReplyBody decodes a reply whose tag byte was already consumed.
func ReadReplyBody(r *wire.Reader, rep Reply, limits wire.Limits) error {
	scope := layout.NewScope(layout.KindReply)
	items := rep.Items(scope)
	begin := r.Offset()

	if err := items.ReadMetabyte(r); err != nil {
		return err
	}
	if seq := items.SequenceItem(); seq != nil {
		if err := seq.Read(r); err != nil {
			return err
		}
	}
	n, err := r.U32()
	if err != nil {
		return err
	}
	length := int(n) * 4
	if err := checkLimit(length, limits); err != nil {
		return err
	}
	scope.SetLength(length)

	if err := items.Body().Read(r); err != nil {
		return err
	}
	diagnose(layout.KindReply, length, 1+r.Offset()-begin)
	return nil
}

// ReadEvent decodes a whole event, checking its code.
func ReadEvent(r *wire.Reader, ev Event, limits wire.Limits) error {
	code, err := r.U8()
	if err != nil {
		return err
	}
	if code != ev.Code() {
		return fmt.Errorf("%w: code %d, want %d", ErrCodeMismatch, code, ev.Code())
	}
	return ReadEventBody(r, ev, limits)
}

// ReadEventBody decodes an event whose code byte was already consumed.
func ReadEventBody(r *wire.Reader, ev Event, limits wire.Limits) error {
	items := ev.Items(layout.NewScope(layout.KindEvent))
	seq := items.SequenceItem()
	if seq == nil {
		return ErrMissingSequence
	}
	begin := r.Offset()
	if err := items.ReadMetabyte(r); err != nil {
		return err
	}
	if err := seq.Read(r); err != nil {
		return err
	}
	if err := items.Body().Read(r); err != nil {
		return err
	}
	return checkLimit(1+r.Offset()-begin, limits)
}

func UnmarshalRequest(data []byte, req Request) error {
	return ReadRequest(wire.NewReader(data), req, wire.DefaultLimits())
}

func UnmarshalReply(data []byte, rep Reply) error {
	return ReadReply(wire.NewReader(data), rep, wire.DefaultLimits())
}

func UnmarshalEvent(data []byte, ev Event) error {
	return ReadEvent(wire.NewReader(data), ev, wire.DefaultLimits())
}

// UnmarshalStruct decodes a headerless structure.
func UnmarshalStruct(data []byte, s layout.Layouter) error {
	return layout.ReadStruct(wire.NewReader(data), s)
}

// diagnose reports a length field that disagrees with the bytes the items
// consumed. The length never drives decoding.
func diagnose(kind layout.Kind, length, consumed int) {
	if length == consumed {
		return
	}
	logging.Logger().Warn().
		Stringer("kind", kind).
		Int("length", length).
		Int("consumed", consumed).
		Msg("length field disagrees with decoded items")
}
