package layout

import "github.com/danmuck/xwire/internal/protocol/wire"

// StructSize is the encoded size of a headerless structure. Lets have a
// fixed width, so a let that would overflow does not change the size;
// writing reports it.
func StructSize(l Layouter) int {
	items := l.Items(NewScope(KindStruct))
	_ = items.Prepare()
	return items.DataSize()
}

// WriteStruct writes every item of l in order. Structures have no header.
func WriteStruct(w *wire.Writer, l Layouter) error {
	items := l.Items(NewScope(KindStruct))
	if err := items.Prepare(); err != nil {
		return err
	}
	return items.Write(w)
}

// ReadStruct decodes every item of l in order.
func ReadStruct(r *wire.Reader, l Layouter) error {
	return l.Items(NewScope(KindStruct)).Read(r)
}

// Check validates l's layout as the given kind.
func Check(kind Kind, l Layouter) error {
	return l.Items(NewScope(kind)).Validate(kind)
}
