package uid_test

import (
	"testing"

	"github.com/cortexmed/dicom/pkg/uid"
)

func TestUncompressed(t *testing.T) {
	if !uid.ImplicitVRLittleEndian.Uncompressed() {
		t.Error("implicit VR LE should be uncompressed")
	}
	if uid.DeflatedExplicitVRLittleEndian.Uncompressed() {
		t.Error("deflated TS should not report uncompressed")
	}
	if uid.JPEGBaseline1.Uncompressed() {
		t.Error("encapsulated TS should not report uncompressed")
	}
}

// TestNamingImpliesFlags checks that each uncompressed transfer syntax's
// name is consistent with its boolean flags.
func TestNamingImpliesFlags(t *testing.T) {
	d := uid.StandardDictionary{}
	for _, candidate := range []uid.TransferSyntax{
		uid.ImplicitVRLittleEndian,
		uid.ExplicitVRLittleEndian,
		uid.DeflatedExplicitVRLittleEndian,
		uid.ExplicitVRBigEndian,
	} {
		ts, ok := d.TransferSyntaxByUID(candidate.UID)
		if !ok {
			t.Fatalf("dictionary missing %s", candidate.UID)
		}
		if !uid.NamingImpliesFlags(ts) {
			t.Errorf("%s: name does not imply its flags: %+v", ts.Name, ts)
		}
	}
}

func TestTransferSyntaxByUIDRoundTrip(t *testing.T) {
	d := uid.StandardDictionary{}
	ts, ok := d.TransferSyntaxByUID(uid.ExplicitVRBigEndian.UID)
	if !ok || ts.Name != "Explicit VR Big Endian" {
		t.Errorf("unexpected lookup result: %+v, %v", ts, ok)
	}
}

func TestUnknownTransferSyntaxIsEncapsulatedPassthrough(t *testing.T) {
	ts := uid.UnknownTransferSyntax("1.2.3.4.5")
	if !ts.Encapsulated || ts.Uncompressed() {
		t.Errorf("unknown transfer syntax should be treated as encapsulated pass-through: %+v", ts)
	}
}
