// Package xproto holds hand-written core protocol types built on the
// layout engine, in the shape a generator would emit them.
package xproto

import (
	"github.com/danmuck/xwire/internal/protocol/codec"
	"github.com/danmuck/xwire/internal/protocol/layout"
	"github.com/danmuck/xwire/internal/protocol/wire"
)

type (
	Window    uint32
	Drawable  uint32
	Gcontext  uint32
	Atom      uint32
	Keycode   uint8
	Timestamp uint32
)

// CurrentTime is the reserved timestamp meaning "the server's current
// time".
const CurrentTime Timestamp = 0

// Point is a POINT.
type Point struct {
	X, Y int16
}

func (p *Point) Items(*layout.Scope) layout.Items {
	return layout.Items{
		layout.Field("x", codec.Int16(&p.X)),
		layout.Field("y", codec.Int16(&p.Y)),
	}
}

func (p *Point) DataSize() int              { return layout.StructSize(p) }
func (p *Point) Write(w *wire.Writer) error { return layout.WriteStruct(w, p) }
func (p *Point) Read(r *wire.Reader) error  { return layout.ReadStruct(r, p) }

// Rectangle is a RECTANGLE.
type Rectangle struct {
	X, Y          int16
	Width, Height uint16
}

func (rc *Rectangle) Items(*layout.Scope) layout.Items {
	return layout.Items{
		layout.Field("x", codec.Int16(&rc.X)),
		layout.Field("y", codec.Int16(&rc.Y)),
		layout.Field("width", codec.Card16(&rc.Width)),
		layout.Field("height", codec.Card16(&rc.Height)),
	}
}

func (rc *Rectangle) DataSize() int              { return layout.StructSize(rc) }
func (rc *Rectangle) Write(w *wire.Writer) error { return layout.WriteStruct(w, rc) }
func (rc *Rectangle) Read(r *wire.Reader) error  { return layout.ReadStruct(r, rc) }

// CurrentableTime is a timestamp that may be CurrentTime, which travels
// as the reserved zero word.
type CurrentableTime = codec.Option32

func At(t Timestamp) CurrentableTime {
	return codec.Some32(uint32(t))
}

func currentable(p *CurrentableTime) codec.Optional {
	return codec.Optional32(p, uint32(CurrentTime))
}
