package xproto

import (
	"fmt"

	"github.com/danmuck/xwire/internal/protocol/layout"
	"github.com/danmuck/xwire/internal/protocol/message"
)

var requests = map[uint8]func() message.Request{
	GetGeometryOpcode:   func() message.Request { return &GetGeometry{} },
	InternAtomOpcode:    func() message.Request { return &InternAtom{} },
	SetInputFocusOpcode: func() message.Request { return &SetInputFocus{} },
	PolyPointOpcode:     func() message.Request { return &PolyPoint{} },
	PolyRectangleOpcode: func() message.Request { return &PolyRectangle{} },
	ChangeHostsOpcode:   func() message.Request { return &ChangeHosts{} },
	ListHostsOpcode:     func() message.Request { return &ListHosts{} },
}

var events = map[uint8]func() message.Event{
	KeyPressCode: func() message.Event { return &KeyPress{} },
	ExposeCode:   func() message.Event { return &Expose{} },
}

// NewRequest returns an empty core request for a major opcode.
func NewRequest(major uint8) (message.Request, bool) {
	ctor, ok := requests[major]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

func NewEvent(code uint8) (message.Event, bool) {
	ctor, ok := events[code]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// EventSizes reports core event sizes to a stream splitter.
type EventSizes struct{}

func (EventSizes) EventSize(code uint8) (int, bool) {
	ev, ok := NewEvent(code)
	if !ok {
		return 0, false
	}
	data, err := message.MarshalEvent(ev)
	if err != nil {
		return 0, false
	}
	return len(data), true
}

// Check validates the layout of every type in the package.
func Check() error {
	for major, ctor := range requests {
		req := ctor()
		if err := message.Check(layout.KindRequest, req); err != nil {
			return fmt.Errorf("xproto: request %d: %w", major, err)
		}
		if call, ok := req.(Call); ok {
			if err := message.Check(layout.KindReply, call.NewReply()); err != nil {
				return fmt.Errorf("xproto: reply to %d: %w", major, err)
			}
		}
	}
	for code, ctor := range events {
		if err := message.Check(layout.KindEvent, ctor()); err != nil {
			return fmt.Errorf("xproto: event %d: %w", code, err)
		}
	}
	for _, s := range []layout.Layouter{&Point{}, &Rectangle{}, &HostAddress{}} {
		if err := layout.Check(layout.KindStruct, s); err != nil {
			return fmt.Errorf("xproto: %T: %w", s, err)
		}
	}
	ext := &ShapeQueryVersion{}
	if err := message.Check(layout.KindRequest, ext); err != nil {
		return fmt.Errorf("xproto: shape: %w", err)
	}
	return message.Check(layout.KindReply, ext.NewReply())
}
