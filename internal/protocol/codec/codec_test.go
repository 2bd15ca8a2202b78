package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danmuck/xwire/internal/protocol/wire"
)

type pair struct {
	X int16
	Y uint32
}

func (p *pair) DataSize() int { return 6 }

func (p *pair) Write(w *wire.Writer) error {
	if err := Int16(&p.X).Write(w); err != nil {
		return err
	}
	return Card32(&p.Y).Write(w)
}

func (p *pair) Read(r *wire.Reader) error {
	if err := Int16(&p.X).Read(r); err != nil {
		return err
	}
	return Card32(&p.Y).Read(r)
}

type short struct{}

func (short) DataSize() int              { return 4 }
func (short) Write(w *wire.Writer) error { return w.U8(1) }

func TestIntegersAreLittleEndian(t *testing.T) {
	in := &pair{X: -2, Y: 0x01020304}
	got, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{0xfe, 0xff, 0x04, 0x03, 0x02, 0x01}
	if !bytes.Equal(got, want) {
		t.Fatalf("bytes mismatch: got=%v want=%v", got, want)
	}
	out, err := Decode[pair](got)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(*in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	_, err := Decode[pair]([]byte{0, 0, 0, 0, 0, 0, 9})
	if !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("expected ErrTrailingBytes, got %v", err)
	}
	_, err = Decode[pair]([]byte{0, 0, 0})
	if !errors.Is(err, wire.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestEncodeChecksDataSize(t *testing.T) {
	if _, err := Encode(short{}); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch, got %v", err)
	}
}

func TestListUsesElementCodec(t *testing.T) {
	items := []pair{{X: 1, Y: 2}, {X: -1, Y: 3}}
	list := ListOf[pair](&items, func() int { return len(items) })
	if list.DataSize() != 12 {
		t.Fatalf("unexpected size: %d", list.DataSize())
	}
	data, err := Encode(list)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var out []pair
	r := wire.NewReader(data)
	if err := ListOf[pair](&out, func() int { return 2 }).Read(r); err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff(items, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	err = ListOf[pair](&out, func() int { return 3 }).Read(wire.NewReader(data))
	if !errors.Is(err, wire.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
	if err := ListOf[pair](&out, func() int { return -1 }).Read(wire.NewReader(nil)); err == nil {
		t.Fatalf("expected negative length error")
	}
}

func TestStringAndBytesReadContextLength(t *testing.T) {
	var s string
	var b []byte
	r := wire.NewReader([]byte{'h', 'i', 7, 8, 9})
	if err := String8(&s, func() int { return 2 }).Read(r); err != nil {
		t.Fatalf("read string: %v", err)
	}
	if err := ByteRun(&b, func() int { return 3 }).Read(r); err != nil {
		t.Fatalf("read bytes: %v", err)
	}
	if s != "hi" || !bytes.Equal(b, []byte{7, 8, 9}) {
		t.Fatalf("unexpected values: %q %v", s, b)
	}
}

func TestOptionalReservedWord(t *testing.T) {
	none := Option32{}
	data, err := Encode(Optional32(&none, 0))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(data, []byte{0, 0, 0, 0}) {
		t.Fatalf("unexpected none encoding: %v", data)
	}

	clash := Some32(0)
	if _, err := Encode(Optional32(&clash, 0)); !errors.Is(err, ErrReservedValue) {
		t.Fatalf("expected ErrReservedValue, got %v", err)
	}

	var got Option32
	if err := Optional32(&got, 0).Read(wire.NewReader([]byte{5, 0, 0, 0})); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != Some32(5) {
		t.Fatalf("unexpected option: %+v", got)
	}
}

func TestBoolNonZeroIsTrue(t *testing.T) {
	v := true
	if Bool8(&v).Uint32() != 1 {
		t.Fatalf("expected 1")
	}
	var out bool
	if err := Bool8(&out).Read(wire.NewReader([]byte{2})); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !out {
		t.Fatalf("non-zero byte should decode as true")
	}
}

func TestReadWithTakesLengthFromContext(t *testing.T) {
	r := wire.NewReader([]byte{'h', 'i', 7, 8, 9, 1, 0, 2, 0, 0, 0})
	text, err := ReadWith[Text](r, 2)
	if err != nil || text != "hi" {
		t.Fatalf("text: %q %v", text, err)
	}
	run, err := ReadWith[Run](r, 3)
	if err != nil || !bytes.Equal(run, []byte{7, 8, 9}) {
		t.Fatalf("run: %v %v", run, err)
	}
	elems, err := ReadWith[Elems[pair, *pair]](r, 1)
	if err != nil {
		t.Fatalf("elems: %v", err)
	}
	if diff := cmp.Diff(Elems[pair, *pair]{{X: 1, Y: 2}}, elems); diff != "" {
		t.Fatalf("elems mismatch (-want +got):\n%s", diff)
	}
	if _, err := ReadWith[Run](r, 1); !errors.Is(err, wire.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestBoundValuesReadWithExplicitLength(t *testing.T) {
	var s string
	var b []byte
	var ps []pair
	r := wire.NewReader([]byte{'o', 'k', 0xaa, 3, 0, 4, 0, 0, 0})
	if err := String8(&s, nil).ReadWith(r, 2); err != nil {
		t.Fatalf("string: %v", err)
	}
	if err := ByteRun(&b, nil).ReadWith(r, 1); err != nil {
		t.Fatalf("bytes: %v", err)
	}
	if err := ListOf[pair](&ps, nil).ReadWith(r, 1); err != nil {
		t.Fatalf("list: %v", err)
	}
	if s != "ok" || !bytes.Equal(b, []byte{0xaa}) || len(ps) != 1 || ps[0] != (pair{X: 3, Y: 4}) {
		t.Fatalf("unexpected values: %q %v %+v", s, b, ps)
	}
}

func TestListCountBeyondInputFailsBeforeAllocating(t *testing.T) {
	var out []pair
	err := ListOf[pair](&out, func() int { return 0x0fffffff }).Read(wire.NewReader([]byte{1, 2, 3, 4}))
	if !errors.Is(err, wire.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
	var ints []sized8
	err = ListOf[sized8](&ints, func() int { return 5 }).Read(wire.NewReader([]byte{1, 2}))
	if !errors.Is(err, wire.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
	}
}

// sized8 is a one-byte element with a static size.
type sized8 uint8

func (s *sized8) DataSize() int              { return 1 }
func (s *sized8) StaticSize() int            { return 1 }
func (s *sized8) Write(w *wire.Writer) error { return Card8(s).Write(w) }
func (s *sized8) Read(r *wire.Reader) error  { return Card8(s).Read(r) }

func TestAssignChecksWidthAndSign(t *testing.T) {
	var u8 uint8
	var u16 uint16
	var u32 uint32
	var i8 int8
	var i16 int16
	var b bool
	cases := []struct {
		name string
		a    Assignable
		n    int
		ok   bool
	}{
		{"u8 max", Card8(&u8), 255, true},
		{"u8 over", Card8(&u8), 256, false},
		{"u8 negative", Card8(&u8), -1, false},
		{"u16 max", Card16(&u16), 0xffff, true},
		{"u16 over", Card16(&u16), 70000, false},
		{"u32 max", Card32(&u32), 0xffffffff, true},
		{"i8 min", Int8(&i8), -128, true},
		{"i8 over", Int8(&i8), 128, false},
		{"i16 under", Int16(&i16), -32769, false},
		{"bool", Bool8(&b), 1, true},
		{"bool two", Bool8(&b), 2, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.a.Assign(tc.n)
			if tc.ok && err != nil {
				t.Fatalf("assign %d: %v", tc.n, err)
			}
			if !tc.ok && !errors.Is(err, ErrOverflow) {
				t.Fatalf("expected ErrOverflow for %d, got %v", tc.n, err)
			}
		})
	}
	if u16 != 0xffff || u32 != 0xffffffff || i8 != -128 || !b {
		t.Fatalf("assigned values not stored: %d %d %d %v", u16, u32, i8, b)
	}
}
