package dicom_test

import (
	"bytes"
	"testing"

	"github.com/cortexmed/dicom"
	"github.com/cortexmed/dicom/pkg/tag"
	"github.com/cortexmed/dicom/pkg/uid"
)

func TestParseExplicitVRLittleEndian(t *testing.T) {
	var dataset bytes.Buffer
	dataset.Write(rawElement(0x0010, 0x0010, "PN", padEven("Doe^John")))
	dataset.Write(rawElement(0x0010, 0x0020, "LO", padEven("12345")))

	raw := buildFile(uid.ExplicitVRLittleEndian.UID, dataset.Bytes())

	ds, err := dicom.Parse(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := ds.GetString(tag.PatientName); got != "Doe^John" {
		t.Errorf("PatientName = %q, want %q", got, "Doe^John")
	}
	if got := ds.GetString(tag.PatientID); got != "12345" {
		t.Errorf("PatientID = %q, want %q", got, "12345")
	}
	if got := ds.TransferSyntaxUID(); got != uid.ExplicitVRLittleEndian.UID {
		t.Errorf("TransferSyntaxUID() = %q, want %q", got, uid.ExplicitVRLittleEndian.UID)
	}
}

func TestParseImplicitVRLittleEndian(t *testing.T) {
	var dataset bytes.Buffer
	// Implicit VR: tag, then a 4-byte length, then the value; no VR code.
	val := padEven("1.2.3")
	dataset.Write([]byte{0x20, 0x00, 0x0D, 0x00})
	dataset.Write([]byte{byte(len(val)), 0, 0, 0})
	dataset.Write(val)

	raw := buildFile(uid.ImplicitVRLittleEndian.UID, dataset.Bytes())

	ds, err := dicom.Parse(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := ds.GetString(tag.StudyInstanceUID); got != "1.2.3" {
		t.Errorf("StudyInstanceUID = %q, want %q", got, "1.2.3")
	}
}

func TestParseBadPrefixFails(t *testing.T) {
	raw := make([]byte, 132)
	copy(raw[128:], "XXXX")

	_, err := dicom.Parse(bytes.NewReader(raw))
	if err != dicom.ErrBadDICOMPrefix {
		t.Fatalf("Parse() error = %v, want %v", err, dicom.ErrBadDICOMPrefix)
	}
}

func TestParseAssumeNoPreamble(t *testing.T) {
	raw := buildFile(uid.ExplicitVRLittleEndian.UID, rawElement(0x0010, 0x0010, "PN", padEven("Ann")))
	body := raw[132:] // strip preamble + DICM

	ds, err := dicom.Parse(bytes.NewReader(body), dicom.AssumeNoPreamble())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := ds.GetString(tag.PatientName); got != "Ann" {
		t.Errorf("PatientName = %q, want %q", got, "Ann")
	}
}

func TestParseSequenceWithDefinedLength(t *testing.T) {
	var item bytes.Buffer
	item.Write(rawElement(0x0010, 0x0010, "PN", padEven("Nested")))

	var seqBody bytes.Buffer
	seqBody.Write(rawVirtualTag(0xFFFE, 0xE000, uint32(item.Len())))
	seqBody.Write(item.Bytes())

	var dataset bytes.Buffer
	dataset.Write(rawElement(0x0008, 0x1140, "SQ", seqBody.Bytes()))

	raw := buildFile(uid.ExplicitVRLittleEndian.UID, dataset.Bytes())
	ds, err := dicom.Parse(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	seqTag := tag.Tag{Group: 0x0008, Element: 0x1140}
	e, ok := ds.Find(seqTag)
	if !ok {
		t.Fatalf("sequence element not found")
	}
	items, ok := e.Value.(dicom.SequenceValue)
	if !ok || len(items) != 1 {
		t.Fatalf("sequence value = %#v, want 1 item", e.Value)
	}
	if got := items[0].GetString(tag.PatientName); got != "Nested" {
		t.Errorf("item PatientName = %q, want %q", got, "Nested")
	}
}

func TestParseSequenceWithUndefinedLength(t *testing.T) {
	var item bytes.Buffer
	item.Write(rawElement(0x0010, 0x0020, "LO", padEven("itemval")))

	var seqBody bytes.Buffer
	seqBody.Write(rawVirtualTag(0xFFFE, 0xE000, 0xFFFFFFFF))
	seqBody.Write(item.Bytes())
	seqBody.Write(rawVirtualTag(0xFFFE, 0xE00D, 0)) // ItemDelimitationItem
	seqBody.Write(rawVirtualTag(0xFFFE, 0xE0DD, 0)) // SequenceDelimitationItem

	var dataset bytes.Buffer
	var header bytes.Buffer
	header.Write([]byte{0x40, 0x00, 0x40, 0x01}) // group 0040, elem 0140 arbitrary SQ tag
	header.WriteString("SQ")
	header.Write([]byte{0, 0})
	header.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	dataset.Write(header.Bytes())
	dataset.Write(seqBody.Bytes())

	raw := buildFile(uid.ExplicitVRLittleEndian.UID, dataset.Bytes())
	ds, err := dicom.Parse(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	seqTag := tag.Tag{Group: 0x0040, Element: 0x0140}
	e, ok := ds.Find(seqTag)
	if !ok {
		t.Fatalf("sequence element not found")
	}
	if e.LengthUndefined != true {
		t.Errorf("LengthUndefined = %v, want true", e.LengthUndefined)
	}
	items, ok := e.Value.(dicom.SequenceValue)
	if !ok || len(items) != 1 {
		t.Fatalf("sequence value = %#v, want 1 item", e.Value)
	}
	if !items[0].ItemLengthUndefined {
		t.Errorf("item ItemLengthUndefined = false, want true")
	}
	if got := items[0].GetString(tag.Tag{Group: 0x0010, Element: 0x0020}); got != "itemval" {
		t.Errorf("item value = %q, want %q", got, "itemval")
	}
}

func TestParseNonStandardSequenceOverride(t *testing.T) {
	// A UN element with undefined length outside a sequence must be parsed
	// as an Implicit VR Little Endian sequence, regardless of the outer
	// transfer syntax (Explicit VR here).
	var item bytes.Buffer
	item.Write([]byte{0x10, 0x00, 0x10, 0x00}) // (0010,0010) implicit VR: tag then 4-byte length
	val := padEven("Implicit")
	item.Write([]byte{byte(len(val)), 0, 0, 0})
	item.Write(val)

	var seqBody bytes.Buffer
	seqBody.Write(rawVirtualTag(0xFFFE, 0xE000, uint32(item.Len())))
	seqBody.Write(item.Bytes())
	seqBody.Write(rawVirtualTag(0xFFFE, 0xE0DD, 0))

	var header bytes.Buffer
	header.Write([]byte{0x09, 0x00, 0x01, 0x00}) // arbitrary private tag
	header.WriteString("UN")
	header.Write([]byte{0, 0})
	header.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})

	var dataset bytes.Buffer
	dataset.Write(header.Bytes())
	dataset.Write(seqBody.Bytes())

	raw := buildFile(uid.ExplicitVRLittleEndian.UID, dataset.Bytes())
	ds, err := dicom.Parse(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	e, ok := ds.Find(tag.Tag{Group: 0x0009, Element: 0x0001})
	if !ok {
		t.Fatalf("element not found")
	}
	items, ok := e.Value.(dicom.SequenceValue)
	if !ok || len(items) != 1 {
		t.Fatalf("value = %#v, want a 1-item sequence", e.Value)
	}
	if got := items[0].GetString(tag.Tag{Group: 0x0010, Element: 0x0010}); got != "Implicit" {
		t.Errorf("nested value = %q, want %q", got, "Implicit")
	}
}

func TestParseNativePixelData(t *testing.T) {
	pixels := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	dataset := rawElement(0x7FE0, 0x0010, "OW", pixels)

	raw := buildFile(uid.ExplicitVRLittleEndian.UID, dataset)
	ds, err := dicom.Parse(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	e, ok := ds.Find(tag.PixelData)
	if !ok {
		t.Fatalf("PixelData not found")
	}
	pv, ok := e.Value.(*dicom.PixelDataValue)
	if !ok {
		t.Fatalf("value type = %T, want *PixelDataValue", e.Value)
	}
	if pv.Encapsulated {
		t.Errorf("Encapsulated = true, want false")
	}
	if !bytes.Equal(pv.Native, pixels) {
		t.Errorf("Native = %v, want %v", pv.Native, pixels)
	}
}

func TestParseEncapsulatedPixelData(t *testing.T) {
	offsets := []byte{0, 0, 0, 0}
	frame1 := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	var dataset bytes.Buffer
	var header bytes.Buffer
	header.Write([]byte{0xE0, 0x7F, 0x10, 0x00})
	header.WriteString("OB")
	header.Write([]byte{0, 0})
	header.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	dataset.Write(header.Bytes())
	dataset.Write(rawVirtualTag(0xFFFE, 0xE000, uint32(len(offsets))))
	dataset.Write(offsets)
	dataset.Write(rawVirtualTag(0xFFFE, 0xE000, uint32(len(frame1))))
	dataset.Write(frame1)
	dataset.Write(rawVirtualTag(0xFFFE, 0xE0DD, 0))

	raw := buildFile(uid.JPEGBaseline1.UID, dataset.Bytes())
	ds, err := dicom.Parse(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	e, ok := ds.Find(tag.PixelData)
	if !ok {
		t.Fatalf("PixelData not found")
	}
	pv, ok := e.Value.(*dicom.PixelDataValue)
	if !ok {
		t.Fatalf("value type = %T, want *PixelDataValue", e.Value)
	}
	if !pv.Encapsulated {
		t.Fatalf("Encapsulated = false, want true")
	}
	if len(pv.Offsets) != 1 || pv.Offsets[0] != 0 {
		t.Errorf("Offsets = %v, want [0]", pv.Offsets)
	}
	if len(pv.Frames) != 1 || !bytes.Equal(pv.Frames[0], frame1) {
		t.Errorf("Frames = %v, want [%v]", pv.Frames, frame1)
	}
}

func TestParseStopBeforeTag(t *testing.T) {
	var dataset bytes.Buffer
	dataset.Write(rawElement(0x0010, 0x0010, "PN", padEven("Before")))
	dataset.Write(rawElement(0x0010, 0x0020, "LO", padEven("After")))

	raw := buildFile(uid.ExplicitVRLittleEndian.UID, dataset.Bytes())
	ds, err := dicom.Parse(bytes.NewReader(raw), dicom.WithStopCondition(dicom.StopCondition{
		Kind: dicom.StopBeforeTag,
		Tag:  tag.PatientID,
	}))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, ok := ds.Find(tag.PatientName); !ok {
		t.Errorf("PatientName should have been parsed before the stop")
	}
	if _, ok := ds.Find(tag.PatientID); ok {
		t.Errorf("PatientID should not have been parsed, stop condition precedes it")
	}
}
