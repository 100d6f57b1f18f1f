package dicom_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cortexmed/dicom"
	"github.com/cortexmed/dicom/pkg/tag"
	"github.com/cortexmed/dicom/pkg/uid"
)

func TestParseFileReadsFromDisk(t *testing.T) {
	raw := buildFile(uid.ExplicitVRLittleEndian.UID, rawElement(0x0010, 0x0010, "PN", padEven("FromDisk")))

	dir := t.TempDir()
	path := filepath.Join(dir, "sample.dcm")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	ds, err := dicom.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if got := ds.GetString(tag.PatientName); got != "FromDisk" {
		t.Errorf("PatientName = %q, want %q", got, "FromDisk")
	}
}

func TestParseFileMissingReturnsError(t *testing.T) {
	_, err := dicom.ParseFile(filepath.Join(t.TempDir(), "missing.dcm"))
	if err == nil {
		t.Fatalf("ParseFile() error = nil, want non-nil")
	}
}

func TestParseAllowPartialObjectReturnsElementsParsedSoFar(t *testing.T) {
	var dataset bytes.Buffer
	dataset.Write(rawElement(0x0010, 0x0010, "PN", padEven("Partial")))

	raw := buildFile(uid.ExplicitVRLittleEndian.UID, dataset.Bytes())
	truncated := raw[:len(raw)-3] // cut off mid-element

	ds, err := dicom.Parse(bytes.NewReader(truncated), dicom.AllowPartialObject())
	if err == nil {
		t.Fatalf("Parse() error = nil, want a truncation error")
	}
	if ds == nil {
		t.Fatalf("Parse() dataset = nil, want the partially-parsed dataset")
	}
	if got := ds.TransferSyntaxUID(); got != uid.ExplicitVRLittleEndian.UID {
		t.Errorf("partial dataset TransferSyntaxUID = %q, want %q", got, uid.ExplicitVRLittleEndian.UID)
	}
}

func TestParseWithoutAllowPartialObjectDiscardsOnError(t *testing.T) {
	var dataset bytes.Buffer
	dataset.Write(rawElement(0x0010, 0x0010, "PN", padEven("Partial")))

	raw := buildFile(uid.ExplicitVRLittleEndian.UID, dataset.Bytes())
	truncated := raw[:len(raw)-3]

	ds, err := dicom.Parse(bytes.NewReader(truncated))
	if err == nil {
		t.Fatalf("Parse() error = nil, want a truncation error")
	}
	if ds != nil {
		t.Errorf("Parse() dataset = %v, want nil without AllowPartialObject", ds)
	}
}
