package schema

import (
	"fmt"
	"slices"

	"github.com/danmuck/xwire/internal/logging"
	"github.com/danmuck/xwire/internal/protocol/enum"
	"github.com/danmuck/xwire/internal/protocol/layout"
	"github.com/danmuck/xwire/internal/protocol/message"
)

type itemKind uint8

const (
	itemField itemKind = iota
	itemLet
	itemUnused
)

type itemDef struct {
	name     string
	kind     itemKind
	typ      Type
	union    *Definition
	metabyte bool
	sequence bool
	source   *expr
	context  *expr
	count    int
}

// Definition is a compiled message, structure or enum.
type Definition struct {
	Name     string
	Kind     layout.Kind
	IsEnum   bool
	Opcode   uint8
	Minor    uint8
	HasMinor bool
	Code     uint8
	Reply    string

	items    []*itemDef
	index    map[string]int
	union    *enum.Enum[*Value]
	variants []*Definition
	// size is the encoded size of a definition whose items are all fixed
	// width, or 0.
	size int
}

func (d *Definition) lookup(name string) (Type, bool) {
	i, ok := d.index[name]
	if !ok {
		return 0, false
	}
	return d.items[i].typ, true
}

// ItemNames lists the named items in declaration order.
func (d *Definition) ItemNames() []string {
	names := make([]string, 0, len(d.items))
	for _, it := range d.items {
		if it.name != "" && it.kind != itemUnused {
			names = append(names, it.name)
		}
	}
	return names
}

// Variant returns an empty value of the named enum variant.
func (d *Definition) Variant(name string) (*Value, error) {
	for _, v := range d.variants {
		if v.Name == name {
			return v.New(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMessage, d.Name, name)
}

// Discriminant reports the resolved tag of an enum variant.
func (d *Definition) Discriminant(variant string) (uint8, bool) {
	if d.union == nil {
		return 0, false
	}
	return d.union.Discriminant(variant)
}

func parseKind(s string) (layout.Kind, bool, error) {
	switch s {
	case "struct", "":
		return layout.KindStruct, false, nil
	case "request":
		return layout.KindRequest, false, nil
	case "reply":
		return layout.KindReply, false, nil
	case "event":
		return layout.KindEvent, false, nil
	case "enum":
		return layout.KindStruct, true, nil
	}
	return 0, false, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Compile builds a catalogue from a parsed document. Definitions may only
// refer to enums declared before them.
func Compile(doc Document) (*Catalog, error) {
	cat := newCatalog()
	for _, md := range doc.Messages {
		def, err := compileMessage(md, cat)
		if err != nil {
			return nil, err
		}
		if err := cat.add(def); err != nil {
			return nil, err
		}
		logging.Logger().Debug().
			Str("message", def.Name).
			Stringer("kind", def.Kind).
			Bool("enum", def.IsEnum).
			Int("items", len(def.items)).
			Msg("schema definition compiled")
	}
	for _, def := range cat.defs {
		if def.Reply == "" {
			continue
		}
		rep, ok := cat.byName[def.Reply]
		if !ok || rep.Kind != layout.KindReply || rep.IsEnum {
			return nil, ValidationError{Message: def.Name, Reason: "reply " + def.Reply + " is not a reply definition", Err: ErrUnknownMessage}
		}
	}
	return cat, nil
}

func compileMessage(md MessageDoc, cat *Catalog) (*Definition, error) {
	if md.Name == "" {
		return nil, ValidationError{Message: "(unnamed)", Reason: "missing name"}
	}
	kind, isEnum, err := parseKind(md.Kind)
	if err != nil {
		return nil, ValidationError{Message: md.Name, Err: err}
	}
	if isEnum {
		return compileEnum(md, cat)
	}
	if len(md.Variants) > 0 {
		return nil, ValidationError{Message: md.Name, Reason: "variants are only valid on enums"}
	}

	def := &Definition{Name: md.Name, Kind: kind, Reply: md.Reply}
	switch kind {
	case layout.KindRequest:
		def.Opcode = md.Opcode
		if md.MinorOpcode != nil {
			def.Minor, def.HasMinor = *md.MinorOpcode, true
		}
	case layout.KindEvent:
		def.Code = md.Code
	}
	if md.Reply != "" && kind != layout.KindRequest {
		return nil, ValidationError{Message: md.Name, Reason: "only requests name a reply"}
	}
	if err := compileItems(def, md.Items, cat); err != nil {
		return nil, err
	}
	if kind == layout.KindStruct {
		err = layout.Check(kind, def.New())
	} else {
		err = message.Check(kind, def.New())
	}
	if err != nil {
		return nil, ValidationError{Message: md.Name, Reason: "invalid layout", Err: err}
	}
	return def, nil
}

func compileEnum(md MessageDoc, cat *Catalog) (*Definition, error) {
	if len(md.Items) > 0 {
		return nil, ValidationError{Message: md.Name, Reason: "enums carry variants, not items"}
	}
	if len(md.Variants) == 0 {
		return nil, ValidationError{Message: md.Name, Reason: "enum has no variants"}
	}
	def := &Definition{Name: md.Name, Kind: layout.KindStruct, IsEnum: true}
	cases := make([]enum.CaseSpec[*Value], 0, len(md.Variants))
	for _, vd := range md.Variants {
		variant := &Definition{Name: vd.Name, Kind: layout.KindStruct}
		if err := compileItems(variant, vd.Items, cat); err != nil {
			return nil, err
		}
		def.variants = append(def.variants, variant)
		c := enum.Case(vd.Name, variant.New)
		if vd.Discriminant != nil {
			c = c.At(*vd.Discriminant)
		}
		cases = append(cases, c)
	}
	union, err := enum.New(md.Name, cases...)
	if err != nil {
		return nil, ValidationError{Message: md.Name, Reason: "invalid enum", Err: err}
	}
	def.union = union
	return def, nil
}

// compileItems resolves item types first so a let may name an item that
// follows it, then compiles expressions against the full item set.
func compileItems(def *Definition, docs []ItemDoc, cat *Catalog) error {
	def.index = make(map[string]int, len(docs))
	for i, doc := range docs {
		it := &itemDef{name: doc.Name, metabyte: doc.Metabyte, sequence: doc.Sequence, count: doc.Count}
		fail := func(reason string, err error) error {
			return ValidationError{Message: def.Name, Item: doc.Name, Reason: reason, Err: err}
		}
		switch doc.Item {
		case "field", "":
			it.kind = itemField
		case "let":
			it.kind = itemLet
		case "unused":
			it.kind = itemUnused
		default:
			return fail("", fmt.Errorf("%w: %q", ErrUnknownItemKind, doc.Item))
		}
		if it.kind != itemUnused {
			if doc.Name == "" {
				return fail("missing name", nil)
			}
			typ, err := ParseType(doc.Type)
			if err != nil {
				return fail("", err)
			}
			it.typ = typ
			if typ == TypeEnum {
				u, ok := cat.byName[doc.Enum]
				if !ok || !u.IsEnum {
					return fail("", fmt.Errorf("%w: %q", ErrUnknownEnum, doc.Enum))
				}
				it.union = u
			}
			if it.kind == itemLet && !typ.numeric() {
				return fail("let items must be numeric", nil)
			}
		}
		if doc.Name != "" {
			if _, dup := def.index[doc.Name]; dup {
				return fail("", layout.ErrDuplicateItem)
			}
			def.index[doc.Name] = i
		}
		def.items = append(def.items, it)
	}

	for i, doc := range docs {
		it := def.items[i]
		fail := func(reason string, err error) error {
			return ValidationError{Message: def.Name, Item: doc.Name, Reason: reason, Err: err}
		}
		if doc.Source != "" {
			if it.kind != itemLet {
				return fail("source is only valid on let items", nil)
			}
			e, err := compileExpr(doc.Source, def)
			if err != nil {
				return fail("", err)
			}
			// Let sources may name later items, so they are not handed to
			// the layout's source check; self.length is checked here.
			if slices.Contains(e.refs, layout.SelfLength) && def.Kind != layout.KindRequest && def.Kind != layout.KindReply {
				return fail("", layout.ErrSelfLengthMisplace)
			}
			it.source = e
		} else if it.kind == itemLet {
			return fail("let item needs a source expression", nil)
		}
		if doc.Context != "" {
			if it.kind == itemLet || (it.kind == itemField && it.typ != TypeBytes && it.typ != TypeString) {
				return fail("context is only valid on bytes, string and unused items", nil)
			}
			e, err := compileExpr(doc.Context, def)
			if err != nil {
				return fail("", err)
			}
			it.context = e
		} else if it.kind == itemField && (it.typ == TypeBytes || it.typ == TypeString) {
			return fail("", ErrMissingContext)
		}
		if doc.Count != 0 && (it.kind != itemUnused || it.context != nil || doc.Count < 0) {
			return fail("count is only valid on unused items without a context", nil)
		}
	}
	return nil
}

func (d *Definition) fixed() bool {
	for _, it := range d.items {
		if it.context != nil || it.typ == TypeBytes || it.typ == TypeString || it.typ == TypeEnum {
			return false
		}
	}
	return true
}
