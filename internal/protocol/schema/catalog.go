package schema

import (
	"fmt"

	"github.com/danmuck/xwire/internal/logging"
	"github.com/danmuck/xwire/internal/protocol/layout"
	"github.com/danmuck/xwire/internal/protocol/message"
	"github.com/danmuck/xwire/internal/protocol/wire"
)

type requestKey struct {
	major uint8
	minor uint8
}

// Catalog indexes compiled definitions by name and by the header bytes
// that select them.
type Catalog struct {
	defs       []*Definition
	byName     map[string]*Definition
	requests   map[requestKey]*Definition
	extensions map[uint8]bool
	events     map[uint8]*Definition
}

func newCatalog() *Catalog {
	return &Catalog{
		byName:     make(map[string]*Definition),
		requests:   make(map[requestKey]*Definition),
		extensions: make(map[uint8]bool),
		events:     make(map[uint8]*Definition),
	}
}

func (c *Catalog) add(def *Definition) error {
	if _, dup := c.byName[def.Name]; dup {
		return ValidationError{Message: def.Name, Err: ErrDuplicateMessage}
	}
	switch {
	case def.IsEnum:
	case def.Kind == layout.KindRequest:
		ext, seen := c.extensions[def.Opcode]
		if seen && ext != def.HasMinor {
			return ValidationError{Message: def.Name, Reason: fmt.Sprintf("major %d mixes core and extension requests", def.Opcode), Err: ErrDuplicateOpcode}
		}
		key := requestKey{major: def.Opcode, minor: def.Minor}
		if prev, dup := c.requests[key]; dup {
			return ValidationError{Message: def.Name, Reason: "opcode already used by " + prev.Name, Err: ErrDuplicateOpcode}
		}
		c.extensions[def.Opcode] = def.HasMinor
		c.requests[key] = def
	case def.Kind == layout.KindEvent:
		if prev, dup := c.events[def.Code]; dup {
			return ValidationError{Message: def.Name, Reason: "code already used by " + prev.Name, Err: ErrDuplicateOpcode}
		}
		if def.fixed() {
			data, err := message.MarshalEvent(def.New())
			if err != nil {
				return ValidationError{Message: def.Name, Reason: "cannot size event", Err: err}
			}
			def.size = len(data)
		}
		c.events[def.Code] = def
	}
	c.defs = append(c.defs, def)
	c.byName[def.Name] = def
	return nil
}

func (c *Catalog) Lookup(name string) (*Definition, bool) {
	def, ok := c.byName[name]
	return def, ok
}

// Definitions returns every definition in declaration order.
func (c *Catalog) Definitions() []*Definition {
	out := make([]*Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// EventSize reports the size of fixed-width events, which lets a stream
// splitter find event boundaries.
func (c *Catalog) EventSize(code uint8) (int, bool) {
	def, ok := c.events[code]
	if !ok || def.size == 0 {
		return 0, false
	}
	return def.size, true
}

// Encode frames v according to its definition's kind.
func (c *Catalog) Encode(v *Value, limits wire.Limits) ([]byte, error) {
	w := wire.NewWriter(0)
	var err error
	switch def := v.Definition(); {
	case def.IsEnum:
		err = fmt.Errorf("%w: %s is an enum variant, not a message", ErrUnknownMessage, def.Name)
	case def.Kind == layout.KindRequest:
		err = message.WriteRequest(w, v, limits)
	case def.Kind == layout.KindReply:
		err = message.WriteReply(w, v, limits)
	case def.Kind == layout.KindEvent:
		err = message.WriteEvent(w, v, limits)
	default:
		err = layout.WriteStruct(w, v)
	}
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DecodeRequest selects a request definition by its opcodes and decodes
// it.
func (c *Catalog) DecodeRequest(data []byte, limits wire.Limits) (*Value, error) {
	r := wire.NewReader(data)
	major, err := r.U8()
	if err != nil {
		return nil, err
	}
	key := requestKey{major: major}
	if c.extensions[major] {
		if key.minor, err = r.U8(); err != nil {
			return nil, err
		}
	}
	def, ok := c.requests[key]
	if !ok {
		return nil, fmt.Errorf("%w: request major=%d minor=%d", ErrUnknownMessage, key.major, key.minor)
	}
	v := def.New()
	if err := message.ReadRequestBody(r, v, limits); err != nil {
		return nil, fmt.Errorf("schema: %s: %w", def.Name, err)
	}
	logging.Logger().Debug().Str("message", def.Name).Int("bytes", r.Offset()).Msg("request decoded")
	return v, nil
}

// DecodeEvent selects an event definition by its code and decodes it.
func (c *Catalog) DecodeEvent(data []byte, limits wire.Limits) (*Value, error) {
	r := wire.NewReader(data)
	code, err := r.U8()
	if err != nil {
		return nil, err
	}
	def, ok := c.events[code]
	if !ok {
		return nil, fmt.Errorf("%w: event code=%d", ErrUnknownMessage, code)
	}
	v := def.New()
	if err := message.ReadEventBody(r, v, limits); err != nil {
		return nil, fmt.Errorf("schema: %s: %w", def.Name, err)
	}
	return v, nil
}

// DecodeReply decodes data as the named reply. Replies carry no opcode,
// so the caller names the definition, usually from the request's reply.
func (c *Catalog) DecodeReply(name string, data []byte, limits wire.Limits) (*Value, error) {
	def, ok := c.byName[name]
	if !ok || def.IsEnum || def.Kind != layout.KindReply {
		return nil, fmt.Errorf("%w: reply %s", ErrUnknownMessage, name)
	}
	v := def.New()
	if err := message.ReadReply(wire.NewReader(data), v, limits); err != nil {
		return nil, fmt.Errorf("schema: %s: %w", def.Name, err)
	}
	return v, nil
}

// DecodeStruct decodes data as the named headerless structure.
func (c *Catalog) DecodeStruct(name string, data []byte) (*Value, error) {
	def, ok := c.byName[name]
	if !ok || def.IsEnum || def.Kind != layout.KindStruct {
		return nil, fmt.Errorf("%w: struct %s", ErrUnknownMessage, name)
	}
	v := def.New()
	if err := message.UnmarshalStruct(data, v); err != nil {
		return nil, fmt.Errorf("schema: %s: %w", def.Name, err)
	}
	return v, nil
}

// DecodeServer decodes a server-to-client message. Events dispatch on
// their code; replies need replyName since their header does not say what
// they answer.
func (c *Catalog) DecodeServer(data []byte, replyName string, limits wire.Limits) (*Value, error) {
	h, err := message.Peek(data)
	if err != nil {
		return nil, err
	}
	switch h.Class {
	case message.ClassReply:
		if replyName == "" {
			return nil, fmt.Errorf("%w: reply to sequence %d needs a definition name", ErrUnknownMessage, h.Sequence)
		}
		return c.DecodeReply(replyName, data, limits)
	case message.ClassEvent:
		return c.DecodeEvent(data, limits)
	}
	return nil, fmt.Errorf("%w: error code=%d", ErrUnknownMessage, h.Metabyte)
}
