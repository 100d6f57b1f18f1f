package dicom

import "github.com/cortexmed/dicom/pkg/tag"

// Value is the typed payload of an Element: the set of concrete types
// below is closed, one per VR family.
type Value interface {
	isValue()
}

// StringsValue holds the backslash-split, trimmed, charset-decoded
// components of a text-VR element (PN, LO, SH, CS, DA, DT, TM, UI, etc).
type StringsValue []string

func (StringsValue) isValue() {}

// BytesValue holds an opaque byte-VR element (OB, unrecognized UN).
type BytesValue []byte

func (BytesValue) isValue() {}

// UInt16sValue holds US/OW-family values.
type UInt16sValue []uint16

func (UInt16sValue) isValue() {}

// UInt32sValue holds UL-family values.
type UInt32sValue []uint32

func (UInt32sValue) isValue() {}

// Int16sValue holds SS-family values.
type Int16sValue []int16

func (Int16sValue) isValue() {}

// Int32sValue holds SL-family values.
type Int32sValue []int32

func (Int32sValue) isValue() {}

// Float32sValue holds FL/OF-family values.
type Float32sValue []float32

func (Float32sValue) isValue() {}

// Float64sValue holds FD/OD-family values.
type Float64sValue []float64

func (Float64sValue) isValue() {}

// TagsValue holds AT (attribute tag) values.
type TagsValue []tag.Tag

func (TagsValue) isValue() {}

// SequenceValue holds the items of an SQ element, each a nested Dataset.
type SequenceValue []*Dataset

func (SequenceValue) isValue() {}

// PixelDataValue holds a PixelData element's payload. Encapsulated is true
// when the element was encoded with undefined length (PS3.5 A.4): Offsets
// is the parsed Basic Offset Table and Frames holds one []byte per
// embedded fragment item. Otherwise Native holds the raw, defined-length
// pixel bytes untouched (pixel decompression is out of scope).
type PixelDataValue struct {
	Encapsulated bool
	Offsets      []uint32
	Frames       [][]byte
	Native       []byte
}

func (PixelDataValue) isValue() {}
