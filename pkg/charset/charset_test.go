package charset_test

import (
	"testing"

	"github.com/cortexmed/dicom/pkg/charset"
)

func TestResolveOneDefaultIsPassthrough(t *testing.T) {
	d, err := charset.ResolveOne("")
	if err != nil {
		t.Fatalf("ResolveOne(\"\") error: %v", err)
	}
	got, err := d.Decode([]byte("DOE^JOHN"))
	if err != nil || got != "DOE^JOHN" {
		t.Errorf("Decode() = %q, %v, want DOE^JOHN, nil", got, err)
	}
}

func TestResolveOneNormalizesLabel(t *testing.T) {
	// "ISO_IR 100" and "ISO_IR100" and "iso-ir-100" should all resolve the
	// same way once whitespace/hyphens/underscores are stripped and the
	// label is lowercased.
	a, err := charset.ResolveOne("ISO_IR 100")
	if err != nil {
		t.Fatalf("ResolveOne error: %v", err)
	}
	b, err := charset.ResolveOne("iso-ir-100")
	if err != nil {
		t.Fatalf("ResolveOne error: %v", err)
	}
	in := []byte{0xE9} // e-acute in ISO-8859-1
	wantA, errA := a.Decode(in)
	wantB, errB := b.Decode(in)
	if errA != nil || errB != nil || wantA != wantB {
		t.Errorf("normalized labels decoded differently: %q/%v vs %q/%v", wantA, errA, wantB, errB)
	}
}

func TestResolveOneUnknownLabel(t *testing.T) {
	if _, err := charset.ResolveOne("NOT_A_REAL_CHARSET"); err == nil {
		t.Error("expected error for unknown charset label")
	}
}

func TestResolveSingleValueAppliesToAllRoles(t *testing.T) {
	cs, err := charset.Resolve([]string{"ISO_IR 100"})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if cs.Alphabetic != cs.Ideographic || cs.Ideographic != cs.Phonetic {
		t.Error("single-value SpecificCharacterSet should populate all three roles identically")
	}
}

func TestResolveTwoValuesShareIdeographicAndPhonetic(t *testing.T) {
	cs, err := charset.Resolve([]string{"", "ISO 2022 IR 87"})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if cs.Ideographic != cs.Phonetic {
		t.Error("two-value SpecificCharacterSet should share Ideographic and Phonetic decoders")
	}
	if cs.Alphabetic == cs.Ideographic {
		t.Error("two-value SpecificCharacterSet should use a distinct Alphabetic decoder")
	}
}

func TestResolveEmptyIsDefault(t *testing.T) {
	cs, err := charset.Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve(nil) error: %v", err)
	}
	if cs.Alphabetic != nil || cs.Ideographic != nil || cs.Phonetic != nil {
		t.Error("Resolve(nil) should leave all roles as the nil default decoder")
	}
}

func TestISOIR192DecodesAsUTF8(t *testing.T) {
	d, err := charset.ResolveOne("ISO_IR 192")
	if err != nil {
		t.Fatalf("ResolveOne error: %v", err)
	}
	got, err := d.Decode([]byte("hello"))
	if err != nil || got != "hello" {
		t.Errorf("Decode() = %q, %v, want hello, nil", got, err)
	}
}
