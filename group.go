package dicom

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/cortexmed/dicom/pkg/dicomio"
	"github.com/cortexmed/dicom/pkg/tag"
	"github.com/cortexmed/dicom/pkg/tagpath"
	"github.com/cortexmed/dicom/pkg/uid"
	"github.com/cortexmed/dicom/pkg/vr"
)

// ReadImplicitGroup reads a group-length-prefixed run of elements encoded
// Implicit VR Little Endian: a UL element under lengthTag giving the byte
// count of the elements that follow. This is the same framing readFileMeta
// uses for the group-0002 file-meta block (there under group 0002, Explicit
// VR); ReadImplicitGroup generalizes it for callers outside this package
// that need the group-0000 DIMSE command set (PS3.7 6.3.1), which uses
// Implicit VR instead and carries no preamble or file-meta group of its
// own.
func ReadImplicitGroup(r io.Reader, dict tag.Dictionary, lengthTag tag.Tag) (*Dataset, error) {
	rd := dicomio.NewReader(r, binary.LittleEndian, false)
	p := &Parser{r: rd, opts: &ParseOptions{TagDictionary: dict, UIDDictionary: uid.StandardDictionary{}}}

	t := readTag(rd)
	if t != lengthTag {
		return nil, errors.Errorf("dicom: expected group length tag %s, found %s", lengthTag, t)
	}
	_, vl := readImplicit(rd, dict, t)
	if rd.Error() != nil {
		return nil, rd.Error()
	}
	if vl != 4 {
		return nil, errors.Errorf("dicom: group length element %s must be 4 bytes, found %d", lengthTag, vl)
	}
	groupLength := rd.ReadUInt32()
	if rd.Error() != nil {
		return nil, rd.Error()
	}

	ds := NewDataset()
	ds.Append(&Element{Tag: t, VR: vr.UL, Value: UInt32sValue{groupLength}})

	rd.PushLimit(int64(groupLength))
	for !rd.EOF() {
		e, err := p.readDataElement(rd, tagpath.Path{})
		if err != nil {
			rd.PopLimit()
			return ds, err
		}
		ds.Append(e)
	}
	rd.PopLimit()
	return ds, nil
}

// WriteImplicitGroup writes elems as an Implicit VR Little Endian
// group-length-prefixed run under lengthTag, the write-side inverse of
// ReadImplicitGroup. elems must not itself include the group length
// element; WriteImplicitGroup computes and emits it.
func WriteImplicitGroup(w io.Writer, lengthTag tag.Tag, elems []*Element) error {
	sub := dicomio.NewBytesWriter(binary.LittleEndian, false)
	for _, e := range elems {
		writeElement(sub, e)
	}
	if sub.Error() != nil {
		return sub.Error()
	}
	body := sub.Bytes()

	out := dicomio.NewWriter(w, binary.LittleEndian, false)
	writeElement(out, &Element{Tag: lengthTag, VR: vr.UL, Value: UInt32sValue{uint32(len(body))}})
	out.WriteBytes(body)
	return out.Error()
}
