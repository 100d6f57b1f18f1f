package dicom

import (
	"github.com/cortexmed/dicom/pkg/dicomio"
	"github.com/cortexmed/dicom/pkg/tag"
	"github.com/cortexmed/dicom/pkg/vr"
)

// UndefinedLength is the sentinel value length meaning "read until the
// appropriate delimiter is seen", legal only for SQ, for UN/OB/OW/OF
// acting as a sequence, and for encapsulated PixelData.
const UndefinedLength uint32 = 0xFFFFFFFF

// readVirtualLength reads the bare 4-byte length carried by a group-0xFFFE
// virtual tag (Item, ItemDelimitationItem, SequenceDelimitationItem), which
// has no VR of its own in the stream.
func readVirtualLength(r *dicomio.Reader) uint32 {
	return r.ReadUInt32()
}

func readTag(r *dicomio.Reader) tag.Tag {
	group := r.ReadUInt16()
	element := r.ReadUInt16()
	return tag.Tag{Group: group, Element: element}
}

// readImplicit reads a 4-byte length and resolves VR via dictionary
// lookup, defaulting to UN for tags the dictionary doesn't know.
func readImplicit(r *dicomio.Reader, dict tag.Dictionary, t tag.Tag) (vr.VR, uint32) {
	v := tag.VROrUnknown(dict, t)
	vl := r.ReadUInt32()
	if vl != UndefinedLength && vl%2 != 0 {
		r.SetErrorf("dicom: odd length %d for implicit VR %s, tag %s", vl, v, t)
	}
	return v, vl
}

// readExplicit reads the 2-byte VR code and, depending on which VR it is,
// either a bare 2-byte length or 2 reserved bytes plus a 4-byte length
// (PS3.5 7.1.2). An unrecognized VR code is resolved via onUnknown if
// given, else is a fatal UnknownExplicitVRError.
func readExplicit(r *dicomio.Reader, onUnknown func(string) (vr.VR, error)) (vr.VR, uint32) {
	code := r.ReadString(2)
	var v vr.VR
	if vr.Valid(code) {
		v = vr.VR(code)
	} else if onUnknown != nil {
		resolved, err := onUnknown(code)
		if err != nil {
			r.SetError(err)
			return vr.UN, 0
		}
		v = resolved
	} else {
		r.SetError(&UnknownExplicitVRError{Code: code})
		return vr.UN, 0
	}

	var vl uint32
	if v.HasExplicitPad() {
		r.Skip(2)
		vl = r.ReadUInt32()
	} else {
		vl = uint32(r.ReadUInt16())
	}
	if vl != UndefinedLength && vl%2 != 0 {
		r.SetErrorf("dicom: odd length %d for explicit VR %s", vl, v)
	}
	return v, vl
}
