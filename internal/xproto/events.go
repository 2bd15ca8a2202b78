package xproto

import (
	"github.com/danmuck/xwire/internal/protocol/codec"
	"github.com/danmuck/xwire/internal/protocol/layout"
	"github.com/danmuck/xwire/internal/protocol/message"
)

const (
	KeyPressCode uint8 = 2
	ExposeCode   uint8 = 12
)

type KeyPress struct {
	message.Seq
	Detail     Keycode
	Time       Timestamp
	Root       Window
	Event      Window
	Child      Window
	RootX      int16
	RootY      int16
	EventX     int16
	EventY     int16
	State      uint16
	SameScreen bool
}

func (*KeyPress) Code() uint8 { return KeyPressCode }

func (m *KeyPress) Items(*layout.Scope) layout.Items {
	return layout.Items{
		layout.Field("detail", codec.Card8(&m.Detail)).Metabyte(),
		m.Seq.Item(),
		layout.Field("time", codec.Card32(&m.Time)),
		layout.Field("root", codec.Card32(&m.Root)),
		layout.Field("event", codec.Card32(&m.Event)),
		layout.Field("child", codec.Card32(&m.Child)),
		layout.Field("root_x", codec.Int16(&m.RootX)),
		layout.Field("root_y", codec.Int16(&m.RootY)),
		layout.Field("event_x", codec.Int16(&m.EventX)),
		layout.Field("event_y", codec.Int16(&m.EventY)),
		layout.Field("state", codec.Card16(&m.State)),
		layout.Field("same_screen", codec.Bool8(&m.SameScreen)),
		layout.Unused(),
	}
}

type Expose struct {
	message.Seq
	Window Window
	X, Y   uint16
	Width  uint16
	Height uint16
	Count  uint16
}

func (*Expose) Code() uint8 { return ExposeCode }

func (m *Expose) Items(*layout.Scope) layout.Items {
	return layout.Items{
		m.Seq.Item(),
		layout.Field("window", codec.Card32(&m.Window)),
		layout.Field("x", codec.Card16(&m.X)),
		layout.Field("y", codec.Card16(&m.Y)),
		layout.Field("width", codec.Card16(&m.Width)),
		layout.Field("height", codec.Card16(&m.Height)),
		layout.Field("count", codec.Card16(&m.Count)),
		layout.UnusedArray("", func() int { return 14 }),
	}
}
