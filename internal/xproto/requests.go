package xproto

import (
	"github.com/danmuck/xwire/internal/protocol/codec"
	"github.com/danmuck/xwire/internal/protocol/enum"
	"github.com/danmuck/xwire/internal/protocol/layout"
	"github.com/danmuck/xwire/internal/protocol/message"
	"github.com/danmuck/xwire/internal/protocol/wire"
)

// Core request opcodes.
const (
	GetGeometryOpcode   uint8 = 14
	InternAtomOpcode    uint8 = 16
	SetInputFocusOpcode uint8 = 42
	PolyPointOpcode     uint8 = 64
	PolyRectangleOpcode uint8 = 67
	ChangeHostsOpcode   uint8 = 109
	ListHostsOpcode     uint8 = 110
)

// Call is a request that expects a reply.
type Call interface {
	message.Request
	NewReply() message.Reply
}

type GetGeometry struct {
	Drawable Drawable
}

func (*GetGeometry) MajorOpcode() uint8         { return GetGeometryOpcode }
func (*GetGeometry) MinorOpcode() (uint8, bool) { return 0, false }
func (*GetGeometry) NewReply() message.Reply    { return &GetGeometryReply{} }

func (m *GetGeometry) Items(*layout.Scope) layout.Items {
	return layout.Items{
		layout.Field("drawable", codec.Card32(&m.Drawable)),
	}
}

type InternAtom struct {
	OnlyIfExists bool
	Name         string
}

func (*InternAtom) MajorOpcode() uint8         { return InternAtomOpcode }
func (*InternAtom) MinorOpcode() (uint8, bool) { return 0, false }
func (*InternAtom) NewReply() message.Reply    { return &InternAtomReply{} }

func (m *InternAtom) Items(*layout.Scope) layout.Items {
	var nameLen uint16
	return layout.Items{
		layout.Field("only_if_exists", codec.Bool8(&m.OnlyIfExists)).Metabyte(),
		layout.Let("name_len", codec.Card16(&nameLen), func() int { return len(m.Name) }),
		layout.UnusedArray("", func() int { return 2 }),
		layout.Field("name", codec.String8(&m.Name, func() int { return int(nameLen) })).From("name_len"),
		layout.UnusedArray("pad", func() int { return wire.Pad(len(m.Name)) }).From("name"),
	}
}

// RevertTo is the focus fallback of SetInputFocus.
type RevertTo uint8

const (
	RevertToNone        RevertTo = 0
	RevertToPointerRoot RevertTo = 1
	RevertToParent      RevertTo = 2
)

type SetInputFocus struct {
	RevertTo RevertTo
	Focus    Window
	Time     CurrentableTime
}

func (*SetInputFocus) MajorOpcode() uint8         { return SetInputFocusOpcode }
func (*SetInputFocus) MinorOpcode() (uint8, bool) { return 0, false }

func (m *SetInputFocus) Items(*layout.Scope) layout.Items {
	return layout.Items{
		layout.Field("revert_to", codec.Card8(&m.RevertTo)).Metabyte(),
		layout.Field("focus", codec.Card32(&m.Focus)),
		layout.Field("time", currentable(&m.Time)),
	}
}

// CoordMode says whether points after the first are relative to the
// previous one.
type CoordMode uint8

const (
	CoordModeOrigin   CoordMode = 0
	CoordModePrevious CoordMode = 1
)

// polyHeader is drawable and gc, the fixed prefix of the Poly* requests.
const polyHeader = message.RequestHeaderSize + 8

// PolyPoint carries no point count; the request length implies it.
type PolyPoint struct {
	CoordinateMode CoordMode
	Drawable       Drawable
	Gc             Gcontext
	Points         []Point
}

func (*PolyPoint) MajorOpcode() uint8         { return PolyPointOpcode }
func (*PolyPoint) MinorOpcode() (uint8, bool) { return 0, false }

func (m *PolyPoint) Items(s *layout.Scope) layout.Items {
	return layout.Items{
		layout.Field("coordinate_mode", codec.Card8(&m.CoordinateMode)).Metabyte(),
		layout.Field("drawable", codec.Card32(&m.Drawable)),
		layout.Field("gc", codec.Card32(&m.Gc)),
		layout.Field("points", codec.ListOf(&m.Points, func() int { return (s.Length() - polyHeader) / 4 })).From(layout.SelfLength),
	}
}

type PolyRectangle struct {
	Drawable   Drawable
	Gc         Gcontext
	Rectangles []Rectangle
}

func (*PolyRectangle) MajorOpcode() uint8         { return PolyRectangleOpcode }
func (*PolyRectangle) MinorOpcode() (uint8, bool) { return 0, false }

func (m *PolyRectangle) Items(s *layout.Scope) layout.Items {
	return layout.Items{
		layout.Field("drawable", codec.Card32(&m.Drawable)),
		layout.Field("gc", codec.Card32(&m.Gc)),
		layout.Field("rectangles", codec.ListOf(&m.Rectangles, func() int { return (s.Length() - polyHeader) / 8 })).From(layout.SelfLength),
	}
}

// HostMode says whether ChangeHosts adds or removes the host.
type HostMode uint8

const (
	HostModeInsert HostMode = 0
	HostModeDelete HostMode = 1
)

type ChangeHosts struct {
	Mode HostMode
	Host Host
}

func (*ChangeHosts) MajorOpcode() uint8         { return ChangeHostsOpcode }
func (*ChangeHosts) MinorOpcode() (uint8, bool) { return 0, false }

func (m *ChangeHosts) Items(*layout.Scope) layout.Items {
	return layout.Items{
		layout.Field("mode", codec.Card8(&m.Mode)).Metabyte(),
		layout.Field("host", enum.Field(Hosts, &m.Host)),
	}
}

type ListHosts struct{}

func (*ListHosts) MajorOpcode() uint8               { return ListHostsOpcode }
func (*ListHosts) MinorOpcode() (uint8, bool)       { return 0, false }
func (*ListHosts) NewReply() message.Reply          { return &ListHostsReply{} }
func (*ListHosts) Items(*layout.Scope) layout.Items { return nil }

// ShapeQueryVersion is the first request of the SHAPE extension. Its
// major opcode is assigned by the server at runtime.
type ShapeQueryVersion struct {
	Major uint8
}

const ShapeQueryVersionMinor uint8 = 0

func (m *ShapeQueryVersion) MajorOpcode() uint8             { return m.Major }
func (*ShapeQueryVersion) MinorOpcode() (uint8, bool)       { return ShapeQueryVersionMinor, true }
func (*ShapeQueryVersion) NewReply() message.Reply          { return &ShapeQueryVersionReply{} }
func (*ShapeQueryVersion) Items(*layout.Scope) layout.Items { return nil }
