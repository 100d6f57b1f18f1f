package dicom

import (
	"strings"

	"github.com/cortexmed/dicom/pkg/dicomio"
	"github.com/cortexmed/dicom/pkg/tag"
	"github.com/cortexmed/dicom/pkg/tagpath"
	"github.com/cortexmed/dicom/pkg/vr"
)

// Element is one dataset entry: a tag, its VR, and its decoded value, plus
// the sequence-path context a stop condition or error message needs to
// name where in a nested dataset this element sits.
type Element struct {
	Tag          tag.Tag
	VR           vr.VR
	Value        Value
	SequencePath tagpath.Path

	// Truncated is true when a byte-count stop condition fired inside
	// this element's value; Value then holds only the prefix of bytes
	// read before the stop.
	Truncated bool

	// LengthUndefined records whether this element was originally
	// encoded with the UndefinedLength sentinel (legal for SQ and for
	// encapsulated PixelData). The writer uses it to choose between
	// emitting a computed length or the delimiter-based undefined-length
	// encoding, preserving a byte-exact round trip.
	LengthUndefined bool
}

func trimText(s string) string {
	return strings.Trim(s, " \x00")
}

// decodeScalarValue reads a non-sequence element's value from r, which
// must already be bounded to exactly vl readable bytes (via PushLimit),
// and decodes it according to v's rules.
func decodeScalarValue(r *dicomio.Reader, v vr.VR, vl uint32) Value {
	switch v {
	case vr.AT:
		var tags []tag.Tag
		for !r.EOF() {
			tags = append(tags, tag.Tag{Group: r.ReadUInt16(), Element: r.ReadUInt16()})
		}
		return TagsValue(tags)
	case vr.OB, vr.UN:
		return BytesValue(r.ReadBytes(int(vl)))
	case vr.OW:
		var words []uint16
		for !r.EOF() {
			words = append(words, r.ReadUInt16())
		}
		return UInt16sValue(words)
	case vr.US:
		var words []uint16
		for !r.EOF() {
			words = append(words, r.ReadUInt16())
		}
		return UInt16sValue(words)
	case vr.OL, vr.UL:
		var vals []uint32
		for !r.EOF() {
			vals = append(vals, r.ReadUInt32())
		}
		return UInt32sValue(vals)
	case vr.SL:
		var vals []int32
		for !r.EOF() {
			vals = append(vals, r.ReadInt32())
		}
		return Int32sValue(vals)
	case vr.SS:
		var vals []int16
		for !r.EOF() {
			vals = append(vals, r.ReadInt16())
		}
		return Int16sValue(vals)
	case vr.OF, vr.FL:
		var vals []float32
		for !r.EOF() {
			vals = append(vals, r.ReadFloat32())
		}
		return Float32sValue(vals)
	case vr.OD, vr.FD:
		var vals []float64
		for !r.EOF() {
			vals = append(vals, r.ReadFloat64())
		}
		return Float64sValue(vals)
	default:
		// String VRs, including DA/DT/TM (left as opaque strings; no
		// calendar semantics are imposed here — see pkg/dcmtime for the
		// optional calendar-aware accessor) and
		// PN (whose Alphabetic/Ideographic/Phonetic component groups are
		// decoded uniformly here; splitting on "=" is left to callers).
		raw := r.ReadString(int(vl))
		str := trimText(raw)
		if str == "" {
			return StringsValue(nil)
		}
		return StringsValue(strings.Split(str, "\\"))
	}
}

// encodeScalarValue writes a non-sequence element's value to w, the
// inverse of decodeScalarValue, padding to an even byte count per v's
// default pad byte.
func encodeScalarValue(w *dicomio.Writer, v vr.VR, value Value) {
	switch v {
	case vr.AT:
		for _, t := range valueOrEmpty[TagsValue](value) {
			w.WriteUInt16(t.Group)
			w.WriteUInt16(t.Element)
		}
	case vr.OB, vr.UN:
		b := valueOrEmpty[BytesValue](value)
		w.WriteBytes(b)
		if len(b)%2 != 0 {
			w.WriteByte(0)
		}
	case vr.OW, vr.US:
		for _, x := range valueOrEmpty[UInt16sValue](value) {
			w.WriteUInt16(x)
		}
	case vr.OL, vr.UL:
		for _, x := range valueOrEmpty[UInt32sValue](value) {
			w.WriteUInt32(x)
		}
	case vr.SL:
		for _, x := range valueOrEmpty[Int32sValue](value) {
			w.WriteInt32(x)
		}
	case vr.SS:
		for _, x := range valueOrEmpty[Int16sValue](value) {
			w.WriteInt16(x)
		}
	case vr.OF, vr.FL:
		for _, x := range valueOrEmpty[Float32sValue](value) {
			w.WriteFloat32(x)
		}
	case vr.OD, vr.FD:
		for _, x := range valueOrEmpty[Float64sValue](value) {
			w.WriteFloat64(x)
		}
	default:
		s := strings.Join(valueOrEmpty[StringsValue](value), "\\")
		w.WriteString(s)
		if len(s)%2 != 0 {
			w.WriteByte(v.DefaultPadByte())
		}
	}
}

// valueOrEmpty type-asserts value to T, returning the zero value instead
// of panicking if the Element was built with a mismatched Value kind.
func valueOrEmpty[T Value](value Value) T {
	v, _ := value.(T)
	return v
}
