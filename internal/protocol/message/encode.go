package message

import (
	"fmt"

	"github.com/danmuck/xwire/internal/logging"
	"github.com/danmuck/xwire/internal/protocol/codec"
	"github.com/danmuck/xwire/internal/protocol/layout"
	"github.com/danmuck/xwire/internal/protocol/wire"
)

// WriteRequest appends req's header and items to w. Nothing is left in w
// when it fails.
func WriteRequest(w *wire.Writer, req Request, limits wire.Limits) error {
	scope := layout.NewScope(layout.KindRequest)
	items := req.Items(scope)
	if err := items.Prepare(); err != nil {
		return err
	}
	body := items.Body()

	minor, hasMinor := req.MinorOpcode()
	if hasMinor && items.Metabyte() != nil {
		return ErrMetabyteWithMinor
	}

	total := RequestHeaderSize + body.DataSize()
	n, err := units(total)
	if err != nil {
		return err
	}
	if n > maxRequestUnits {
		return fmt.Errorf("%w: %d units", ErrLengthOverflow, n)
	}
	if err := checkLimit(total, limits); err != nil {
		return err
	}
	scope.SetLength(total)

	start := w.Len()
	err = func() error {
		if err := w.U8(req.MajorOpcode()); err != nil {
			return err
		}
		if hasMinor {
			if err := w.U8(minor); err != nil {
				return err
			}
		} else if err := items.WriteMetabyte(w); err != nil {
			return err
		}
		if err := w.U16(uint16(n)); err != nil {
			return err
		}
		return body.Write(w)
	}()
	return finish(w, start, total, layout.KindRequest, err)
}

// WriteReply appends rep's header and items to w. The sequence slot is
// written only when rep's layout declares a sequence item.
func WriteReply(w *wire.Writer, rep Reply, limits wire.Limits) error {
	scope := layout.NewScope(layout.KindReply)
	items := rep.Items(scope)
	if err := items.Prepare(); err != nil {
		return err
	}
	body := items.Body()
	seq := items.SequenceItem()

	total := replyHeaderSize(items) + body.DataSize()
	n, err := units(total)
	if err != nil {
		return err
	}
	if err := checkLimit(total, limits); err != nil {
		return err
	}
	scope.SetLength(total)

	start := w.Len()
	err = func() error {
		if err := w.U8(ReplyTag); err != nil {
			return err
		}
		if err := items.WriteMetabyte(w); err != nil {
			return err
		}
		if seq != nil {
			if err := seq.Write(w); err != nil {
				return err
			}
		}
		if err := w.U32(uint32(n)); err != nil {
			return err
		}
		return body.Write(w)
	}()
	return finish(w, start, total, layout.KindReply, err)
}

// WriteEvent appends ev's header and items to w.
func WriteEvent(w *wire.Writer, ev Event, limits wire.Limits) error {
	items := ev.Items(layout.NewScope(layout.KindEvent))
	if err := items.Prepare(); err != nil {
		return err
	}
	body := items.Body()
	seq := items.SequenceItem()
	if seq == nil {
		return ErrMissingSequence
	}

	total := EventHeaderSize + body.DataSize()
	if err := checkLimit(total, limits); err != nil {
		return err
	}

	start := w.Len()
	err := func() error {
		if err := w.U8(ev.Code()); err != nil {
			return err
		}
		if err := items.WriteMetabyte(w); err != nil {
			return err
		}
		if err := seq.Write(w); err != nil {
			return err
		}
		return body.Write(w)
	}()
	return finish(w, start, total, layout.KindEvent, err)
}

func MarshalRequest(req Request) ([]byte, error) {
	w := wire.NewWriter(32)
	if err := WriteRequest(w, req, wire.DefaultLimits()); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func MarshalReply(rep Reply) ([]byte, error) {
	w := wire.NewWriter(32)
	if err := WriteReply(w, rep, wire.DefaultLimits()); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func MarshalEvent(ev Event) ([]byte, error) {
	w := wire.NewWriter(32)
	if err := WriteEvent(w, ev, wire.DefaultLimits()); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// MarshalStruct encodes a headerless structure.
func MarshalStruct(s layout.Layouter) ([]byte, error) {
	w := wire.NewWriter(layout.StructSize(s))
	if err := layout.WriteStruct(w, s); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func checkLimit(total int, limits wire.Limits) error {
	if !limits.Allows(total) {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, total, limits.MaxMessageBytes)
	}
	return nil
}

func finish(w *wire.Writer, start, total int, kind layout.Kind, err error) error {
	if err != nil {
		w.Truncate(start)
		return err
	}
	if written := w.Len() - start; written != total {
		w.Truncate(start)
		return fmt.Errorf("%w: %s wrote %d, sized %d", codec.ErrSizeMismatch, kind, written, total)
	}
	logging.Logger().Trace().Stringer("kind", kind).Int("bytes", total).Msg("message encoded")
	return nil
}
