package dicom

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/cortexmed/dicom/pkg/dicomio"
	"github.com/cortexmed/dicom/pkg/tag"
	"github.com/cortexmed/dicom/pkg/uid"
	"github.com/cortexmed/dicom/pkg/vr"
)

// Write serializes ds as a Part 10 stream: the preamble and DICM prefix
// (unless OmitPreamble), the group-0002 file-meta elements already present
// in ds, then the remaining elements under the transfer syntax declared by
// ds's TransferSyntaxUID.
//
// ds's elements must already include the file-meta group; Write computes
// and overwrites only the group length itself.
func Write(ds *Dataset, out io.Writer, opts ...WriteOption) error {
	o := defaultWriteOptions()
	for _, opt := range opts {
		opt(o)
	}

	var metaElems, bodyElems []*Element
	for _, e := range ds.Elements() {
		if e.Tag.Group == 0x0002 {
			if e.Tag == tag.FileMetaInformationGroupLength {
				continue
			}
			metaElems = append(metaElems, e)
		} else {
			bodyElems = append(bodyElems, e)
		}
	}

	w := dicomio.NewWriter(out, binary.LittleEndian, true)

	if !o.OmitPreamble {
		w.WriteBytes(o.Preamble)
		w.WriteString("DICM")
	}

	if err := writeFileMeta(w, metaElems); err != nil {
		return err
	}

	ts, ok := uid.StandardDictionary{}.TransferSyntaxByUID(ds.TransferSyntaxUID())
	if !ok {
		ts = uid.UnknownTransferSyntax(ds.TransferSyntaxUID())
	}
	byteorder := binary.ByteOrder(binary.LittleEndian)
	if ts.BigEndian {
		byteorder = binary.BigEndian
	}
	w.PushTransferSyntax(byteorder, ts.ExplicitVR)
	for _, e := range bodyElems {
		writeElement(w, e)
	}
	w.PopTransferSyntax()

	return w.Error()
}

func writeFileMeta(w *dicomio.Writer, metaElems []*Element) error {
	sub := dicomio.NewBytesWriter(binary.LittleEndian, true)
	for _, e := range metaElems {
		writeElement(sub, e)
	}
	if sub.Error() != nil {
		return sub.Error()
	}
	body := sub.Bytes()

	w.PushTransferSyntax(binary.LittleEndian, true)
	writeElement(w, &Element{
		Tag:   tag.FileMetaInformationGroupLength,
		VR:    vr.UL,
		Value: UInt32sValue{uint32(len(body))},
	})
	w.WriteBytes(body)
	w.PopTransferSyntax()
	return w.Error()
}

// writeElement encodes one element, the structural inverse of
// Parser.readDataElement: it honors LengthUndefined/ItemLengthUndefined on
// sequences and items so a stream parsed with the delimiter-based encoding
// round-trips back to the same encoding, rather than always normalizing to
// a computed length.
func writeElement(w *dicomio.Writer, e *Element) {
	if e.Tag == tag.PixelData {
		writePixelData(w, e)
		return
	}
	if e.VR == vr.SQ {
		writeSequence(w, e)
		return
	}

	sub := dicomio.NewBytesWriter(w.ByteOrder(), w.ExplicitVR())
	encodeScalarValue(sub, e.VR, e.Value)
	if sub.Error() != nil {
		w.SetError(sub.Error())
		return
	}
	body := sub.Bytes()
	writeElementHeader(w, e.Tag, e.VR, uint32(len(body)))
	w.WriteBytes(body)
}

func writeElementHeader(w *dicomio.Writer, t tag.Tag, v vr.VR, vl uint32) {
	w.WriteUInt16(t.Group)
	w.WriteUInt16(t.Element)

	if t.Group == 0xFFFE {
		w.WriteUInt32(vl)
		return
	}
	if !w.ExplicitVR() {
		w.WriteUInt32(vl)
		return
	}
	w.WriteString(string(v))
	if v.HasExplicitPad() {
		w.WriteZeros(2)
		w.WriteUInt32(vl)
	} else {
		w.WriteUInt16(uint16(vl))
	}
}

func writeSequence(w *dicomio.Writer, e *Element) {
	items, _ := e.Value.(SequenceValue)

	if e.LengthUndefined {
		writeElementHeader(w, e.Tag, vr.SQ, UndefinedLength)
		for _, item := range items {
			writeItem(w, item)
		}
		writeElementHeader(w, tag.SequenceDelimitationItem, vr.NA, 0)
		return
	}

	sub := dicomio.NewBytesWriter(w.ByteOrder(), w.ExplicitVR())
	for _, item := range items {
		writeItem(sub, item)
	}
	if sub.Error() != nil {
		w.SetError(sub.Error())
		return
	}
	body := sub.Bytes()
	writeElementHeader(w, e.Tag, vr.SQ, uint32(len(body)))
	w.WriteBytes(body)
}

func writeItem(w *dicomio.Writer, item *Dataset) {
	if item.ItemLengthUndefined {
		writeElementHeader(w, tag.Item, vr.NA, UndefinedLength)
		for _, e := range item.Elements() {
			writeElement(w, e)
		}
		writeElementHeader(w, tag.ItemDelimitationItem, vr.NA, 0)
		return
	}

	sub := dicomio.NewBytesWriter(w.ByteOrder(), w.ExplicitVR())
	for _, e := range item.Elements() {
		writeElement(sub, e)
	}
	if sub.Error() != nil {
		w.SetError(sub.Error())
		return
	}
	body := sub.Bytes()
	writeElementHeader(w, tag.Item, vr.NA, uint32(len(body)))
	w.WriteBytes(body)
}

func writePixelData(w *dicomio.Writer, e *Element) {
	val, ok := e.Value.(*PixelDataValue)
	if !ok {
		w.SetError(errors.Errorf("dicom: PixelData element has non-PixelDataValue value"))
		return
	}

	if !val.Encapsulated {
		writeElementHeader(w, tag.PixelData, e.VR, uint32(len(val.Native)))
		w.WriteBytes(val.Native)
		return
	}

	writeElementHeader(w, tag.PixelData, e.VR, UndefinedLength)

	offsetsWriter := dicomio.NewBytesWriter(w.ByteOrder(), false)
	for _, off := range val.Offsets {
		offsetsWriter.WriteUInt32(off)
	}
	writeElementHeader(w, tag.Item, vr.NA, uint32(len(offsetsWriter.Bytes())))
	w.WriteBytes(offsetsWriter.Bytes())

	for _, frame := range val.Frames {
		writeElementHeader(w, tag.Item, vr.NA, uint32(len(frame)))
		w.WriteBytes(frame)
	}
	writeElementHeader(w, tag.SequenceDelimitationItem, vr.NA, 0)
}
