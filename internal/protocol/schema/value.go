package schema

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/danmuck/xwire/internal/protocol/codec"
	"github.com/danmuck/xwire/internal/protocol/enum"
	"github.com/danmuck/xwire/internal/protocol/layout"
)

type cell struct {
	u8  uint8
	u16 uint16
	u32 uint32
	i8  int8
	i16 int16
	i32 int32
	b   bool
	raw []byte
	str string
	sub *Value
}

func (c *cell) num(t Type) int64 {
	switch t {
	case TypeU8:
		return int64(c.u8)
	case TypeU16:
		return int64(c.u16)
	case TypeU32:
		return int64(c.u32)
	case TypeI8:
		return int64(c.i8)
	case TypeI16:
		return int64(c.i16)
	case TypeI32:
		return int64(c.i32)
	case TypeBool:
		if c.b {
			return 1
		}
	}
	return 0
}

// set stores v; callers check it against the type's bounds first.
func (c *cell) set(t Type, v int64) {
	switch t {
	case TypeU8:
		c.u8 = uint8(v)
	case TypeU16:
		c.u16 = uint16(v)
	case TypeU32:
		c.u32 = uint32(v)
	case TypeI8:
		c.i8 = int8(v)
	case TypeI16:
		c.i16 = int16(v)
	case TypeI32:
		c.i32 = int32(v)
	case TypeBool:
		c.b = v != 0
	}
}

func (c *cell) codec(it *itemDef) codec.Codec {
	switch it.typ {
	case TypeU8:
		return codec.Card8(&c.u8)
	case TypeU16:
		return codec.Card16(&c.u16)
	case TypeU32:
		return codec.Card32(&c.u32)
	case TypeI8:
		return codec.Int8(&c.i8)
	case TypeI16:
		return codec.Int16(&c.i16)
	case TypeI32:
		return codec.Int32(&c.i32)
	case TypeBool:
		return codec.Bool8(&c.b)
	case TypeEnum:
		return enum.Field(it.union.union, &c.sub)
	}
	return nil
}

// Value is an instance of a Definition. It implements the request, reply,
// event and enum variant interfaces, so the framing engine treats it like
// any generated message type.
type Value struct {
	def   *Definition
	cells []cell
}

// New returns a zero value of the definition. For an enum it is the first
// variant.
func (d *Definition) New() *Value {
	if d.IsEnum {
		return d.variants[0].New()
	}
	v := &Value{def: d, cells: make([]cell, len(d.items))}
	for i, it := range d.items {
		if it.typ == TypeEnum {
			v.cells[i].sub = it.union.New()
		}
	}
	return v
}

func (v *Value) Definition() *Definition { return v.def }
func (v *Value) MajorOpcode() uint8      { return v.def.Opcode }
func (v *Value) Code() uint8             { return v.def.Code }
func (v *Value) VariantName() string     { return v.def.Name }

func (v *Value) MinorOpcode() (uint8, bool) {
	return v.def.Minor, v.def.HasMinor
}

// frame evaluates expressions against a value while one of its layouts is
// in use.
type frame struct {
	v     *Value
	scope *layout.Scope
}

func (f frame) number(name string) int {
	i := f.v.def.index[name]
	return int(f.v.cells[i].num(f.v.def.items[i].typ))
}

func (f frame) size(name string) int {
	i := f.v.def.index[name]
	c := &f.v.cells[i]
	switch f.v.def.items[i].typ {
	case TypeBytes:
		return len(c.raw)
	case TypeString:
		return len(c.str)
	case TypeEnum:
		return f.v.def.items[i].union.union.DataSize(c.sub)
	}
	return 0
}

func (f frame) selfLength() int {
	return f.scope.Length()
}

func (v *Value) Items(scope *layout.Scope) layout.Items {
	f := frame{v: v, scope: scope}
	items := make(layout.Items, 0, len(v.def.items))
	for i, it := range v.def.items {
		c := &v.cells[i]
		var item *layout.Item
		switch it.kind {
		case itemField:
			switch it.typ {
			case TypeBytes:
				item = layout.Field(it.name, codec.ByteRun(&c.raw, evaluator(it.context, f)))
			case TypeString:
				item = layout.Field(it.name, codec.String8(&c.str, evaluator(it.context, f)))
			default:
				item = layout.Field(it.name, c.codec(it))
			}
		case itemLet:
			item = layout.Let(it.name, c.codec(it), evaluator(it.source, f))
		case itemUnused:
			switch {
			case it.context != nil:
				item = layout.UnusedArray(it.name, evaluator(it.context, f))
			case it.count > 1:
				n := it.count
				item = layout.UnusedArray(it.name, func() int { return n })
			default:
				item = layout.Unused()
			}
		}
		if it.context != nil {
			item = item.From(it.context.refs...)
		}
		if it.metabyte {
			item = item.Metabyte()
		}
		if it.sequence {
			item = item.Sequence()
		}
		items = append(items, item)
	}
	return items
}

func evaluator(e *expr, f frame) func() int {
	return func() int { return e.eval(f) }
}

func (v *Value) cell(name string, want ...Type) (*cell, *itemDef, error) {
	i, ok := v.def.index[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s.%s", ErrUnknownItem, v.def.Name, name)
	}
	it := v.def.items[i]
	for _, t := range want {
		if it.typ == t {
			return &v.cells[i], it, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: %s.%s is %s", ErrTypeMismatch, v.def.Name, name, it.typ)
}

var numericTypes = []Type{TypeU8, TypeU16, TypeU32, TypeI8, TypeI16, TypeI32, TypeBool}

func (v *Value) Int(name string) (int64, error) {
	c, it, err := v.cell(name, numericTypes...)
	if err != nil {
		return 0, err
	}
	return c.num(it.typ), nil
}

// SetInt stores n, rejecting values the item's type cannot hold.
func (v *Value) SetInt(name string, n int64) error {
	c, it, err := v.cell(name, numericTypes...)
	if err != nil {
		return err
	}
	lo, hi := it.typ.bounds()
	if n < lo || n > hi {
		return fmt.Errorf("%w: %s.%s: %d outside [%d, %d]", ErrTypeMismatch, v.def.Name, name, n, lo, hi)
	}
	c.set(it.typ, n)
	return nil
}

func (v *Value) Bytes(name string) ([]byte, error) {
	c, _, err := v.cell(name, TypeBytes)
	if err != nil {
		return nil, err
	}
	return c.raw, nil
}

func (v *Value) SetBytes(name string, b []byte) error {
	c, _, err := v.cell(name, TypeBytes)
	if err != nil {
		return err
	}
	c.raw = b
	return nil
}

func (v *Value) Str(name string) (string, error) {
	c, _, err := v.cell(name, TypeString)
	if err != nil {
		return "", err
	}
	return c.str, nil
}

func (v *Value) SetStr(name, s string) error {
	c, _, err := v.cell(name, TypeString)
	if err != nil {
		return err
	}
	c.str = s
	return nil
}

func (v *Value) Enum(name string) (*Value, error) {
	c, _, err := v.cell(name, TypeEnum)
	if err != nil {
		return nil, err
	}
	return c.sub, nil
}

// EnumOf returns the enum definition an enum item draws its variants from.
func (v *Value) EnumOf(name string) (*Definition, error) {
	_, it, err := v.cell(name, TypeEnum)
	if err != nil {
		return nil, err
	}
	return it.union, nil
}

// SetEnum stores a variant value; it must belong to the item's enum.
func (v *Value) SetEnum(name string, variant *Value) error {
	c, it, err := v.cell(name, TypeEnum)
	if err != nil {
		return err
	}
	if _, ok := it.union.union.Discriminant(variant.VariantName()); !ok {
		return fmt.Errorf("%w: %s is not a variant of %s", ErrTypeMismatch, variant.VariantName(), it.union.Name)
	}
	c.sub = variant
	return nil
}

// SetText parses text according to the item's type. Bytes are hex.
func (v *Value) SetText(name, text string) error {
	i, ok := v.def.index[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownItem, v.def.Name, name)
	}
	switch v.def.items[i].typ {
	case TypeBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return fmt.Errorf("%w: %s.%s: %v", ErrTypeMismatch, v.def.Name, name, err)
		}
		return v.SetInt(name, boolInt(b))
	case TypeBytes:
		b, err := hex.DecodeString(text)
		if err != nil {
			return fmt.Errorf("%w: %s.%s: %v", ErrTypeMismatch, v.def.Name, name, err)
		}
		return v.SetBytes(name, b)
	case TypeString:
		return v.SetStr(name, text)
	case TypeEnum:
		return fmt.Errorf("%w: %s.%s: enum items cannot be set from text", ErrTypeMismatch, v.def.Name, name)
	default:
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return fmt.Errorf("%w: %s.%s: %v", ErrTypeMismatch, v.def.Name, name, err)
		}
		return v.SetInt(name, n)
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Fields renders the named items for display. Enum items nest as maps
// carrying a "variant" key.
func (v *Value) Fields() map[string]any {
	out := make(map[string]any, len(v.def.items))
	for i, it := range v.def.items {
		if it.name == "" || it.kind == itemUnused {
			continue
		}
		c := &v.cells[i]
		switch it.typ {
		case TypeBool:
			out[it.name] = c.b
		case TypeBytes:
			out[it.name] = hex.EncodeToString(c.raw)
		case TypeString:
			out[it.name] = c.str
		case TypeEnum:
			sub := c.sub.Fields()
			sub["variant"] = c.sub.VariantName()
			out[it.name] = sub
		default:
			out[it.name] = c.num(it.typ)
		}
	}
	return out
}
