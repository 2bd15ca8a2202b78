// Package schema compiles message descriptions written in TOML into
// definitions the framing engine can encode and decode without generated
// Go types.
//
// A catalogue file holds one [[message]] table per definition:
//
//	[[message]]
//	name = "InternAtom"
//	kind = "request"
//	opcode = 16
//
//	[[message.item]]
//	name = "only_if_exists"
//	type = "bool"
//	metabyte = true
//
//	[[message.item]]
//	name = "name_len"
//	item = "let"
//	type = "u16"
//	source = "len(name)"
//
//	[[message.item]]
//	item = "unused"
//	count = 2
//
//	[[message.item]]
//	name = "name"
//	type = "string"
//	context = "name_len"
//
//	[[message.item]]
//	item = "unused"
//	context = "pad(name_len)"
//
// Expressions use Go syntax: integer literals, names of other items,
// + - * / %, len(x), pad(x) and self.length.
package schema

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

var (
	ErrUnknownKind      = errors.New("schema: unknown kind")
	ErrUnknownType      = errors.New("schema: unknown item type")
	ErrUnknownItemKind  = errors.New("schema: unknown item kind")
	ErrDuplicateMessage = errors.New("schema: duplicate message name")
	ErrDuplicateOpcode  = errors.New("schema: duplicate opcode")
	ErrBadExpression    = errors.New("schema: bad expression")
	ErrMissingContext   = errors.New("schema: variable-width field needs a context expression")
	ErrUnknownEnum      = errors.New("schema: unknown enum")
	ErrUnknownItem      = errors.New("schema: unknown item")
	ErrTypeMismatch     = errors.New("schema: value does not match item type")
	ErrUnknownMessage   = errors.New("schema: unknown message")
)

// Document is a parsed catalogue file.
type Document struct {
	Messages []MessageDoc `toml:"message"`
}

type MessageDoc struct {
	Name        string       `toml:"name"`
	Kind        string       `toml:"kind"`
	Opcode      uint8        `toml:"opcode"`
	MinorOpcode *uint8       `toml:"minor_opcode"`
	Code        uint8        `toml:"code"`
	Reply       string       `toml:"reply"`
	Items       []ItemDoc    `toml:"item"`
	Variants    []VariantDoc `toml:"variant"`
}

// ItemDoc describes one item. Item defaults to "field".
type ItemDoc struct {
	Name     string `toml:"name"`
	Item     string `toml:"item"`
	Type     string `toml:"type"`
	Enum     string `toml:"enum"`
	Metabyte bool   `toml:"metabyte"`
	Sequence bool   `toml:"sequence"`
	Source   string `toml:"source"`
	Context  string `toml:"context"`
	Count    int    `toml:"count"`
}

// VariantDoc is one alternative of an enum. Discriminant defaults to the
// previous variant's plus one.
type VariantDoc struct {
	Name         string    `toml:"name"`
	Discriminant *int      `toml:"discriminant"`
	Items        []ItemDoc `toml:"item"`
}

// ValidationError reports a definition the catalogue cannot compile.
type ValidationError struct {
	Message string
	Item    string
	Reason  string
	Err     error
}

func (e ValidationError) Error() string {
	msg := fmt.Sprintf("schema: message=%s", e.Message)
	if e.Item != "" {
		msg += fmt.Sprintf(" item=%s", e.Item)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// Parse decodes a catalogue document. Unknown keys are rejected so typos
// do not silently drop items.
func Parse(data []byte) (Document, error) {
	var doc Document
	meta, err := toml.Decode(string(data), &doc)
	if err != nil {
		return Document{}, fmt.Errorf("schema: parse: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Document{}, fmt.Errorf("schema: unknown key %q", undecoded[0].String())
	}
	return doc, nil
}

// Load reads, parses and compiles a catalogue file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Compile(doc)
}
