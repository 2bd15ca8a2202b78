package schema

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danmuck/xwire/internal/protocol/enum"
	"github.com/danmuck/xwire/internal/protocol/layout"
	"github.com/danmuck/xwire/internal/protocol/message"
	"github.com/danmuck/xwire/internal/protocol/wire"
	"github.com/danmuck/xwire/internal/testutil/testlog"
)

func loadCore(t *testing.T) *Catalog {
	t.Helper()
	cat, err := Load(filepath.Join("testdata", "core.toml"))
	if err != nil {
		t.Fatalf("load catalogue: %v", err)
	}
	return cat
}

func mustDef(t *testing.T, cat *Catalog, name string) *Definition {
	t.Helper()
	def, ok := cat.Lookup(name)
	if !ok {
		t.Fatalf("definition %s not found", name)
	}
	return def
}

func TestLoadCatalogueResolvesDefinitions(t *testing.T) {
	testlog.Start(t)
	cat := loadCore(t)
	var names []string
	for _, def := range cat.Definitions() {
		names = append(names, def.Name)
	}
	want := []string{
		"Host", "Point", "GetGeometry", "GetGeometryReply", "InternAtom",
		"InternAtomReply", "ChangeHosts", "ShapeQueryVersion", "Expose",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("definitions mismatch (-want +got):\n%s", diff)
	}

	host := mustDef(t, cat, "Host")
	for variant, d := range map[string]uint8{"Internet": 0, "DECnet": 1, "Chaos": 2, "ServerInterpreted": 5, "InternetV6": 6} {
		got, ok := host.Discriminant(variant)
		if !ok || got != d {
			t.Fatalf("%s: got=%d ok=%v want=%d", variant, got, ok, d)
		}
	}
}

func TestInternAtomEncodesComputedLengthAndPadding(t *testing.T) {
	testlog.Start(t)
	cat := loadCore(t)
	v := mustDef(t, cat, "InternAtom").New()
	if err := v.SetText("only_if_exists", "true"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := v.SetStr("name", "WM"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := cat.Encode(v, wire.DefaultLimits())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{16, 1, 3, 0, 2, 0, 0, 0, 'W', 'M', 0, 0}
	if !bytes.Equal(got, want) {
		t.Fatalf("bytes mismatch: got=%v want=%v", got, want)
	}

	decoded, err := cat.DecodeRequest(got, wire.DefaultLimits())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Definition().Name != "InternAtom" {
		t.Fatalf("dispatched to %s", decoded.Definition().Name)
	}
	wantFields := map[string]any{"only_if_exists": true, "name_len": int64(2), "name": "WM"}
	if diff := cmp.Diff(wantFields, decoded.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestGetGeometryReplyDecodesHeaderItems(t *testing.T) {
	testlog.Start(t)
	cat := loadCore(t)
	data := []byte{
		1, 24, 7, 0, 8, 0, 0, 0,
		0x2a, 0, 0, 0, 0xf6, 0xff, 20, 0,
		0x80, 0x02, 0xe0, 0x01, 1, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
	v, err := cat.DecodeServer(data, "GetGeometryReply", wire.DefaultLimits())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"depth": int64(24), "sequence": int64(7), "root": int64(42),
		"x": int64(-10), "y": int64(20), "width": int64(640), "height": int64(480),
		"border_width": int64(1),
	}
	if diff := cmp.Diff(want, v.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if seq, ok := message.SequenceOf(v); !ok || seq != 7 {
		t.Fatalf("unexpected sequence: %d %v", seq, ok)
	}

	again, err := cat.Encode(v, wire.DefaultLimits())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(again, data) {
		t.Fatalf("re-encode mismatch: got=%v want=%v", again, data)
	}
}

func TestChangeHostsCarriesEnumVariant(t *testing.T) {
	testlog.Start(t)
	cat := loadCore(t)
	host, err := mustDef(t, cat, "Host").Variant("ServerInterpreted")
	if err != nil {
		t.Fatalf("variant: %v", err)
	}
	if err := host.SetBytes("value", []byte("ab")); err != nil {
		t.Fatalf("set: %v", err)
	}
	req := mustDef(t, cat, "ChangeHosts").New()
	if err := req.SetInt("mode", 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := req.SetEnum("host", host); err != nil {
		t.Fatalf("set enum: %v", err)
	}
	got, err := cat.Encode(req, wire.DefaultLimits())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{109, 1, 3, 0, 5, 2, 0, 'a', 'b', 0, 0, 0}
	if !bytes.Equal(got, want) {
		t.Fatalf("bytes mismatch: got=%v want=%v", got, want)
	}

	decoded, err := cat.DecodeRequest(got, wire.DefaultLimits())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	sub, err := decoded.Enum("host")
	if err != nil {
		t.Fatalf("enum: %v", err)
	}
	if sub.VariantName() != "ServerInterpreted" {
		t.Fatalf("unexpected variant %s", sub.VariantName())
	}
	if value, _ := sub.Bytes("value"); string(value) != "ab" {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestChangeHostsRejectsUnknownFamily(t *testing.T) {
	testlog.Start(t)
	cat := loadCore(t)
	_, err := cat.DecodeRequest([]byte{109, 0, 3, 0, 3, 0, 0, 0, 0, 0, 0, 0}, wire.DefaultLimits())
	var unrecognized *enum.UnrecognizedDiscriminantError
	if !errors.As(err, &unrecognized) || unrecognized.Byte != 3 {
		t.Fatalf("expected unrecognized discriminant 3, got %v", err)
	}
}

func TestSetEnumRejectsForeignVariant(t *testing.T) {
	testlog.Start(t)
	cat := loadCore(t)
	point := mustDef(t, cat, "Point").New()
	err := mustDef(t, cat, "ChangeHosts").New().SetEnum("host", point)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestDispatchByMinorOpcodeAndEventCode(t *testing.T) {
	testlog.Start(t)
	cat := loadCore(t)
	v, err := cat.DecodeRequest([]byte{129, 0, 1, 0}, wire.DefaultLimits())
	if err != nil {
		t.Fatalf("decode extension request: %v", err)
	}
	if v.Definition().Name != "ShapeQueryVersion" {
		t.Fatalf("dispatched to %s", v.Definition().Name)
	}
	if _, err := cat.DecodeRequest([]byte{129, 9, 1, 0}, wire.DefaultLimits()); !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("expected ErrUnknownMessage for unknown minor, got %v", err)
	}

	expose := mustDef(t, cat, "Expose").New()
	for name, n := range map[string]int64{"sequence": 3, "window": 0x400001, "width": 10, "height": 5, "count": 1} {
		if err := expose.SetInt(name, n); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
	data, err := cat.Encode(expose, wire.DefaultLimits())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) != 32 || data[0] != 12 {
		t.Fatalf("unexpected event bytes: %v", data)
	}
	decoded, err := cat.DecodeServer(data, "", wire.DefaultLimits())
	if err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if diff := cmp.Diff(expose.Fields(), decoded.Fields()); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeServerNeedsReplyName(t *testing.T) {
	testlog.Start(t)
	cat := loadCore(t)
	_, err := cat.DecodeServer([]byte{1, 0, 1, 0, 3, 0, 0, 0, 9, 0, 0, 0}, "", wire.DefaultLimits())
	if !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("expected ErrUnknownMessage, got %v", err)
	}
	_, err = cat.DecodeServer([]byte{0, 3, 1, 0}, "", wire.DefaultLimits())
	if !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("expected ErrUnknownMessage for error packet, got %v", err)
	}
}

func TestSetIntRejectsOutOfRange(t *testing.T) {
	testlog.Start(t)
	cat := loadCore(t)
	v := mustDef(t, cat, "Point").New()
	if err := v.SetInt("x", 40000); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if err := v.SetText("y", "-0x10"); err != nil {
		t.Fatalf("set text: %v", err)
	}
	if y, _ := v.Int("y"); y != -16 {
		t.Fatalf("unexpected y: %d", y)
	}
	if err := v.SetText("missing", "1"); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}
	if _, err := v.Str("x"); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestCompileRejectsInvalidDefinitions(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "unknown kind",
			doc:  "[[message]]\nname = \"A\"\nkind = \"bogus\"\n",
			want: ErrUnknownKind,
		},
		{
			name: "unknown type",
			doc:  "[[message]]\nname = \"A\"\n[[message.item]]\nname = \"a\"\ntype = \"u64\"\n",
			want: ErrUnknownType,
		},
		{
			name: "variable field without context",
			doc:  "[[message]]\nname = \"A\"\n[[message.item]]\nname = \"a\"\ntype = \"bytes\"\n",
			want: ErrMissingContext,
		},
		{
			name: "unknown expression name",
			doc:  "[[message]]\nname = \"A\"\n[[message.item]]\nname = \"a\"\ntype = \"bytes\"\ncontext = \"n\"\n",
			want: ErrBadExpression,
		},
		{
			name: "context names a later item",
			doc: "[[message]]\nname = \"A\"\n[[message.item]]\nname = \"a\"\ntype = \"bytes\"\ncontext = \"n\"\n" +
				"[[message.item]]\nname = \"n\"\ntype = \"u8\"\n",
			want: layout.ErrUnknownSource,
		},
		{
			name: "metabyte in struct",
			doc:  "[[message]]\nname = \"A\"\n[[message.item]]\nname = \"a\"\ntype = \"u8\"\nmetabyte = true\n",
			want: layout.ErrMetabytePlacement,
		},
		{
			name: "self.length in event",
			doc: "[[message]]\nname = \"E\"\nkind = \"event\"\ncode = 2\n" +
				"[[message.item]]\nname = \"sequence\"\ntype = \"u16\"\nsequence = true\n" +
				"[[message.item]]\nname = \"data\"\ntype = \"bytes\"\ncontext = \"self.length - 4\"\n",
			want: layout.ErrSelfLengthMisplace,
		},
		{
			name: "self.length in event let",
			doc: "[[message]]\nname = \"Ev\"\nkind = \"event\"\ncode = 2\n" +
				"[[message.item]]\nname = \"sequence\"\ntype = \"u16\"\nsequence = true\n" +
				"[[message.item]]\nname = \"n\"\nitem = \"let\"\ntype = \"u8\"\nsource = \"self.length\"\n",
			want: layout.ErrSelfLengthMisplace,
		},
		{
			name: "self.length in struct let",
			doc:  "[[message]]\nname = \"S\"\n[[message.item]]\nname = \"n\"\nitem = \"let\"\ntype = \"u8\"\nsource = \"self.length / 4\"\n",
			want: layout.ErrSelfLengthMisplace,
		},
		{
			name: "duplicate opcode",
			doc:  "[[message]]\nname = \"A\"\nkind = \"request\"\nopcode = 3\n[[message]]\nname = \"B\"\nkind = \"request\"\nopcode = 3\n",
			want: ErrDuplicateOpcode,
		},
		{
			name: "duplicate name",
			doc:  "[[message]]\nname = \"A\"\n[[message]]\nname = \"A\"\n",
			want: ErrDuplicateMessage,
		},
		{
			name: "unknown enum",
			doc:  "[[message]]\nname = \"A\"\n[[message.item]]\nname = \"h\"\ntype = \"enum\"\nenum = \"Host\"\n",
			want: ErrUnknownEnum,
		},
		{
			name: "duplicate discriminant",
			doc: "[[message]]\nname = \"E\"\nkind = \"enum\"\n" +
				"[[message.variant]]\nname = \"A\"\ndiscriminant = 1\n[[message.variant]]\nname = \"B\"\ndiscriminant = 1\n",
			want: enum.ErrDuplicateDiscriminant,
		},
		{
			name: "reply names a request",
			doc:  "[[message]]\nname = \"A\"\nkind = \"request\"\nopcode = 1\nreply = \"A\"\n",
			want: ErrUnknownMessage,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Parse([]byte(tc.doc))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			_, err = Compile(doc)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	testlog.Start(t)
	_, err := Parse([]byte("[[message]]\nname = \"A\"\nopcod = 3\n"))
	if err == nil {
		t.Fatalf("expected unknown key error")
	}
}

type fakeNames map[string]Type

func (f fakeNames) lookup(name string) (Type, bool) {
	t, ok := f[name]
	return t, ok
}

type fakeEnv struct {
	numbers map[string]int
	sizes   map[string]int
	length  int
}

func (e fakeEnv) number(name string) int { return e.numbers[name] }
func (e fakeEnv) size(name string) int   { return e.sizes[name] }
func (e fakeEnv) selfLength() int        { return e.length }

func TestExpressions(t *testing.T) {
	names := fakeNames{"n": TypeU16, "data": TypeBytes}
	env := fakeEnv{numbers: map[string]int{"n": 5}, sizes: map[string]int{"data": 7}, length: 32}
	cases := []struct {
		text string
		want int
		refs []string
	}{
		{text: "n", want: 5, refs: []string{"n"}},
		{text: "pad(n)", want: 3, refs: []string{"n"}},
		{text: "len(data) + pad(len(data))", want: 8, refs: []string{"data"}},
		{text: "(self.length - 8) / 4", want: 6, refs: []string{layout.SelfLength}},
		{text: "n * 2 % 3", want: 1, refs: []string{"n"}},
		{text: "n / (n - 5)", want: 0, refs: []string{"n"}},
		{text: "-n + 0x10", want: 11, refs: []string{"n"}},
	}
	for _, tc := range cases {
		e, err := compileExpr(tc.text, names)
		if err != nil {
			t.Fatalf("%s: compile: %v", tc.text, err)
		}
		if got := e.eval(env); got != tc.want {
			t.Fatalf("%s: got=%d want=%d", tc.text, got, tc.want)
		}
		if diff := cmp.Diff(tc.refs, e.refs); diff != "" {
			t.Fatalf("%s: refs mismatch (-want +got):\n%s", tc.text, diff)
		}
	}

	for _, bad := range []string{"x", "len(n)", "data", "foo(n)", "self.width", "1.5", "n << 2", "\"s\""} {
		if _, err := compileExpr(bad, names); !errors.Is(err, ErrBadExpression) {
			t.Fatalf("%s: expected ErrBadExpression, got %v", bad, err)
		}
	}
}

func TestEventSizeForFixedEvents(t *testing.T) {
	testlog.Start(t)
	cat := loadCore(t)
	if n, ok := cat.EventSize(12); !ok || n != 32 {
		t.Fatalf("Expose size: got=%d ok=%v", n, ok)
	}
	if _, ok := cat.EventSize(99); ok {
		t.Fatalf("expected no size for unknown code")
	}
}

func TestLetSelfLengthAllowedInRequest(t *testing.T) {
	testlog.Start(t)
	doc, err := Parse([]byte("[[message]]\nname = \"R\"\nkind = \"request\"\nopcode = 1\n" +
		"[[message.item]]\nname = \"n\"\nitem = \"let\"\ntype = \"u16\"\nsource = \"self.length\"\n" +
		"[[message.item]]\nitem = \"unused\"\ncount = 2\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Compile(doc); err != nil {
		t.Fatalf("compile: %v", err)
	}
}

func TestLetOverflowIsAnEncodeError(t *testing.T) {
	testlog.Start(t)
	cat := loadCore(t)
	v := mustDef(t, cat, "InternAtom").New()
	if err := v.SetStr("name", strings.Repeat("a", 70000)); err != nil {
		t.Fatalf("set: %v", err)
	}
	_, err := cat.Encode(v, wire.DefaultLimits())
	if !errors.Is(err, layout.ErrLetOverflow) {
		t.Fatalf("expected ErrLetOverflow, got %v", err)
	}
}

func TestDecodeStructByName(t *testing.T) {
	testlog.Start(t)
	cat := loadCore(t)
	v, err := cat.DecodeStruct("Point", []byte{0xfe, 0xff, 3, 0})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	x, _ := v.Int("x")
	y, _ := v.Int("y")
	if x != -2 || y != 3 {
		t.Fatalf("unexpected point: x=%d y=%d", x, y)
	}
	if _, err := cat.DecodeStruct("InternAtom", nil); !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("expected ErrUnknownMessage, got %v", err)
	}
}
