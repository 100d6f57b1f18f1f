package dicom_test

import (
	"bytes"
	"testing"

	"github.com/cortexmed/dicom"
	"github.com/cortexmed/dicom/pkg/tag"
	"github.com/cortexmed/dicom/pkg/uid"
)

func TestElementDecodesMultiValuedStrings(t *testing.T) {
	var ds bytes.Buffer
	ds.Write(rawElement(0x0008, 0x0005, "CS", padEven("ISO_IR 100")))
	ds.Write(rawElement(0x0008, 0x0008, "CS", padEven("ORIGINAL\\PRIMARY")))

	raw := buildFile(uid.ExplicitVRLittleEndian.UID, ds.Bytes())
	parsed, err := dicom.Parse(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	e, ok := parsed.Find(tag.Tag{Group: 0x0008, Element: 0x0008})
	if !ok {
		t.Fatalf("element not found")
	}
	sv, ok := e.Value.(dicom.StringsValue)
	if !ok || len(sv) != 2 || sv[0] != "ORIGINAL" || sv[1] != "PRIMARY" {
		t.Errorf("value = %#v, want [ORIGINAL PRIMARY]", e.Value)
	}
}

func TestElementDecodesBinaryFamilies(t *testing.T) {
	var ds bytes.Buffer
	ds.Write(rawElement(0x0028, 0x0100, "US", []byte{8, 0}))       // BitsAllocated = 8
	ds.Write(rawElement(0x0028, 0x1052, "DS", padEven("0")))       // RescaleIntercept as string
	var attr bytes.Buffer
	attr.Write([]byte{0x10, 0x00, 0x10, 0x00}) // an AT value pointing at PatientName
	ds.Write(rawElement(0x0004, 0x1220, "AT", attr.Bytes()))

	raw := buildFile(uid.ExplicitVRLittleEndian.UID, ds.Bytes())
	parsed, err := dicom.Parse(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	bitsTag := tag.Tag{Group: 0x0028, Element: 0x0100}
	e, ok := parsed.Find(bitsTag)
	if !ok {
		t.Fatalf("BitsAllocated not found")
	}
	uv, ok := e.Value.(dicom.UInt16sValue)
	if !ok || len(uv) != 1 || uv[0] != 8 {
		t.Errorf("BitsAllocated value = %#v, want [8]", e.Value)
	}

	atTag := tag.Tag{Group: 0x0004, Element: 0x1220}
	e2, ok := parsed.Find(atTag)
	if !ok {
		t.Fatalf("AT element not found")
	}
	tv, ok := e2.Value.(dicom.TagsValue)
	if !ok || len(tv) != 1 || tv[0] != tag.PatientName {
		t.Errorf("AT value = %#v, want [%v]", e2.Value, tag.PatientName)
	}
}

func TestElementRoundTripsFL(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 128, 63}) // 1.0 as float32 little endian
	dataset := rawElement(0x0028, 0x1053, "FL", buf.Bytes())

	raw := buildFile(uid.ExplicitVRLittleEndian.UID, dataset)
	ds, err := dicom.Parse(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	e, ok := ds.Find(tag.Tag{Group: 0x0028, Element: 0x1053})
	if !ok {
		t.Fatalf("element not found")
	}
	fv, ok := e.Value.(dicom.Float32sValue)
	if !ok || len(fv) != 1 || fv[0] != 1.0 {
		t.Errorf("value = %#v, want [1.0]", e.Value)
	}

	var out bytes.Buffer
	if err := dicom.Write(ds, &out); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	ds2, err := dicom.Parse(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("re-Parse() error = %v", err)
	}
	e2, _ := ds2.Find(tag.Tag{Group: 0x0028, Element: 0x1053})
	fv2 := e2.Value.(dicom.Float32sValue)
	if len(fv2) != 1 || fv2[0] != 1.0 {
		t.Errorf("round-tripped value = %#v, want [1.0]", e2.Value)
	}
}
