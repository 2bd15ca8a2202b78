package xproto

import (
	"github.com/danmuck/xwire/internal/protocol/codec"
	"github.com/danmuck/xwire/internal/protocol/enum"
	"github.com/danmuck/xwire/internal/protocol/layout"
	"github.com/danmuck/xwire/internal/protocol/message"
)

type GetGeometryReply struct {
	message.Seq
	Depth         uint8
	Root          Window
	X, Y          int16
	Width, Height uint16
	BorderWidth   uint16
}

func (m *GetGeometryReply) Items(*layout.Scope) layout.Items {
	return layout.Items{
		layout.Field("depth", codec.Card8(&m.Depth)).Metabyte(),
		m.Seq.Item(),
		layout.Field("root", codec.Card32(&m.Root)),
		layout.Field("x", codec.Int16(&m.X)),
		layout.Field("y", codec.Int16(&m.Y)),
		layout.Field("width", codec.Card16(&m.Width)),
		layout.Field("height", codec.Card16(&m.Height)),
		layout.Field("border_width", codec.Card16(&m.BorderWidth)),
		layout.UnusedArray("", func() int { return 10 }),
	}
}

type InternAtomReply struct {
	message.Seq
	Atom Atom
}

func (m *InternAtomReply) Items(*layout.Scope) layout.Items {
	return layout.Items{
		m.Seq.Item(),
		layout.Field("atom", codec.Card32(&m.Atom)),
		layout.UnusedArray("", func() int { return 20 }),
	}
}

type ListHostsReply struct {
	message.Seq
	Enabled bool
	Hosts   []Host
}

func (m *ListHostsReply) Items(*layout.Scope) layout.Items {
	var hostsLen uint16
	return layout.Items{
		layout.Field("enabled", codec.Bool8(&m.Enabled)).Metabyte(),
		m.Seq.Item(),
		layout.Let("hosts_len", codec.Card16(&hostsLen), func() int { return len(m.Hosts) }),
		layout.UnusedArray("", func() int { return 22 }),
		layout.Field("hosts", enum.ListOf(Hosts, &m.Hosts, func() int { return int(hostsLen) })).From("hosts_len"),
	}
}

type ShapeQueryVersionReply struct {
	message.Seq
	MajorVersion uint16
	MinorVersion uint16
}

func (m *ShapeQueryVersionReply) Items(*layout.Scope) layout.Items {
	return layout.Items{
		m.Seq.Item(),
		layout.Field("major_version", codec.Card16(&m.MajorVersion)),
		layout.Field("minor_version", codec.Card16(&m.MinorVersion)),
		layout.UnusedArray("", func() int { return 20 }),
	}
}
