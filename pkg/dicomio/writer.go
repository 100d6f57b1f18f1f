package dicomio

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/cortexmed/dicom/pkg/charset"
)

// Writer encodes the low-level DICOM wire types, the byte-exact inverse of
// Reader: same transfer-syntax stack shape, same sticky-error convention.
type Writer struct {
	err error
	out io.Writer

	byteorder  binary.ByteOrder
	explicitVR bool

	coding  codingLookup
	tsStack []transferSyntaxEntry
}

// NewWriter builds a Writer that emits to out using the given initial byte
// order and VR style.
func NewWriter(out io.Writer, byteorder binary.ByteOrder, explicitVR bool) *Writer {
	return &Writer{out: out, byteorder: byteorder, explicitVR: explicitVR}
}

// NewBytesWriter builds a Writer backed by an in-memory buffer; call Bytes
// to retrieve the encoded output.
func NewBytesWriter(byteorder binary.ByteOrder, explicitVR bool) *Writer {
	return NewWriter(&bytes.Buffer{}, byteorder, explicitVR)
}

// Bytes returns the accumulated output of a Writer created with
// NewBytesWriter. It panics if a sticky error was recorded, since returned
// bytes would be incomplete or corrupt.
func (w *Writer) Bytes() []byte {
	if w.err != nil {
		panic(w.err)
	}
	return w.out.(*bytes.Buffer).Bytes()
}

// ByteOrder returns the Writer's current byte order.
func (w *Writer) ByteOrder() binary.ByteOrder { return w.byteorder }

// ExplicitVR reports whether the Writer is currently encoding under an
// Explicit VR transfer syntax.
func (w *Writer) ExplicitVR() bool { return w.explicitVR }

// PushTransferSyntax temporarily switches byte order and VR style; see
// Reader.PushTransferSyntax.
func (w *Writer) PushTransferSyntax(byteorder binary.ByteOrder, explicitVR bool) {
	w.tsStack = append(w.tsStack, transferSyntaxEntry{w.byteorder, w.explicitVR})
	w.byteorder = byteorder
	w.explicitVR = explicitVR
}

// PopTransferSyntax restores the transfer syntax saved by the last
// unmatched PushTransferSyntax call.
func (w *Writer) PopTransferSyntax() {
	last := len(w.tsStack) - 1
	e := w.tsStack[last]
	w.byteorder = e.byteorder
	w.explicitVR = e.explicitVR
	w.tsStack = w.tsStack[:last]
}

// SetCodingSystem installs the encoder set used by WriteString.
func (w *Writer) SetCodingSystem(cs charset.CodingSystem) {
	w.coding = codingLookup{cs: cs, ok: true}
}

// SetError records err as the sticky error, unless one is already set.
func (w *Writer) SetError(err error) {
	if err != nil && w.err == nil {
		w.err = err
	}
}

// Error returns the sticky error recorded so far, or nil.
func (w *Writer) Error() error { return w.err }

func (w *Writer) WriteByte(v byte) {
	if err := binary.Write(w.out, w.byteorder, v); err != nil {
		w.SetError(errors.Wrap(err, "dicomio: WriteByte"))
	}
}

func (w *Writer) WriteUInt16(v uint16) {
	if err := binary.Write(w.out, w.byteorder, v); err != nil {
		w.SetError(errors.Wrap(err, "dicomio: WriteUInt16"))
	}
}

func (w *Writer) WriteUInt32(v uint32) {
	if err := binary.Write(w.out, w.byteorder, v); err != nil {
		w.SetError(errors.Wrap(err, "dicomio: WriteUInt32"))
	}
}

func (w *Writer) WriteInt16(v int16) {
	if err := binary.Write(w.out, w.byteorder, v); err != nil {
		w.SetError(errors.Wrap(err, "dicomio: WriteInt16"))
	}
}

func (w *Writer) WriteInt32(v int32) {
	if err := binary.Write(w.out, w.byteorder, v); err != nil {
		w.SetError(errors.Wrap(err, "dicomio: WriteInt32"))
	}
}

func (w *Writer) WriteFloat32(v float32) {
	if err := binary.Write(w.out, w.byteorder, v); err != nil {
		w.SetError(errors.Wrap(err, "dicomio: WriteFloat32"))
	}
}

func (w *Writer) WriteFloat64(v float64) {
	if err := binary.Write(w.out, w.byteorder, v); err != nil {
		w.SetError(errors.Wrap(err, "dicomio: WriteFloat64"))
	}
}

// WriteBytes writes v verbatim, with no length prefix or padding.
func (w *Writer) WriteBytes(v []byte) {
	if _, err := w.out.Write(v); err != nil {
		w.SetError(errors.Wrap(err, "dicomio: WriteBytes"))
	}
}

// WriteZeros writes n zero bytes, used to pad odd-length values to an even
// boundary.
func (w *Writer) WriteZeros(n int) {
	if n <= 0 {
		return
	}
	w.WriteBytes(make([]byte, n))
}

// WriteString writes s encoded under the Ideographic role of the current
// coding system, with no length prefix or padding: callers pad to even
// length themselves using the VR's default pad byte.
func (w *Writer) WriteString(s string) {
	var enc *charset.Decoder
	if w.coding.ok {
		enc = w.coding.cs.Ideographic
	}
	b, err := enc.Encode(s)
	if err != nil {
		w.SetError(errors.Wrap(err, "dicomio: WriteString"))
		return
	}
	w.WriteBytes(b)
}
