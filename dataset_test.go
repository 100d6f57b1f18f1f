package dicom_test

import (
	"testing"

	"github.com/cortexmed/dicom"
	"github.com/cortexmed/dicom/pkg/tag"
)

func TestDatasetAppendAndFind(t *testing.T) {
	ds := dicom.NewDataset()
	if ds.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", ds.Len())
	}

	e := &dicom.Element{Tag: tag.PatientID, Value: dicom.StringsValue{"12345"}}
	ds.Append(e)

	if ds.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", ds.Len())
	}
	got, ok := ds.Find(tag.PatientID)
	if !ok || got != e {
		t.Fatalf("Find(PatientID) = %v, %v, want %v, true", got, ok, e)
	}
	if _, ok := ds.Find(tag.PatientName); ok {
		t.Fatalf("Find(PatientName) = found, want not found")
	}
}

func TestDatasetElementsPreservesOrder(t *testing.T) {
	ds := dicom.NewDataset()
	tags := []tag.Tag{tag.PatientID, tag.StudyInstanceUID, tag.SeriesInstanceUID}
	for _, tg := range tags {
		ds.Append(&dicom.Element{Tag: tg, Value: dicom.StringsValue{"x"}})
	}
	got := ds.Elements()
	if len(got) != len(tags) {
		t.Fatalf("Elements() len = %d, want %d", len(got), len(tags))
	}
	for i, tg := range tags {
		if got[i].Tag != tg {
			t.Errorf("Elements()[%d].Tag = %v, want %v", i, got[i].Tag, tg)
		}
	}
}

func TestDatasetGetString(t *testing.T) {
	ds := dicom.NewDataset()
	ds.Append(&dicom.Element{Tag: tag.TransferSyntaxUID, Value: dicom.StringsValue{"1.2.840.10008.1.2.1"}})

	if got := ds.TransferSyntaxUID(); got != "1.2.840.10008.1.2.1" {
		t.Errorf("TransferSyntaxUID() = %q, want %q", got, "1.2.840.10008.1.2.1")
	}
	if got := ds.GetString(tag.PatientName); got != "" {
		t.Errorf("GetString(absent) = %q, want empty", got)
	}
}

func TestDatasetSpecificCharacterSet(t *testing.T) {
	ds := dicom.NewDataset()
	if got := ds.SpecificCharacterSet(); got != nil {
		t.Errorf("SpecificCharacterSet() on empty dataset = %v, want nil", got)
	}
	ds.Append(&dicom.Element{Tag: tag.SpecificCharacterSet, Value: dicom.StringsValue{"ISO_IR 100"}})
	got := ds.SpecificCharacterSet()
	if len(got) != 1 || got[0] != "ISO_IR 100" {
		t.Errorf("SpecificCharacterSet() = %v, want [ISO_IR 100]", got)
	}
}

func TestDatasetDuplicateTagKeepsBothElements(t *testing.T) {
	ds := dicom.NewDataset()
	first := &dicom.Element{Tag: tag.PatientID, Value: dicom.StringsValue{"a"}}
	second := &dicom.Element{Tag: tag.PatientID, Value: dicom.StringsValue{"b"}}
	ds.Append(first)
	ds.Append(second)

	if ds.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ds.Len())
	}
	got, _ := ds.Find(tag.PatientID)
	if got != second {
		t.Errorf("Find(PatientID) = %v, want most recent append %v", got, second)
	}
}
