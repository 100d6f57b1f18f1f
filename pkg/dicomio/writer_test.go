package dicomio_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/cortexmed/dicom/pkg/dicomio"
)

func TestWriteReadRoundTrip(t *testing.T) {
	w := dicomio.NewBytesWriter(binary.LittleEndian, true)
	w.WriteUInt16(0x1234)
	w.WriteUInt32(0xDEADBEEF)
	w.WriteString("ABCD")
	if w.Error() != nil {
		t.Fatalf("write error: %v", w.Error())
	}
	encoded := w.Bytes()

	r := dicomio.NewReader(bytes.NewReader(encoded), binary.LittleEndian, true)
	if got := r.ReadUInt16(); got != 0x1234 {
		t.Errorf("ReadUInt16() = %#x, want 0x1234", got)
	}
	if got := r.ReadUInt32(); got != 0xDEADBEEF {
		t.Errorf("ReadUInt32() = %#x, want 0xDEADBEEF", got)
	}
	if got := r.ReadString(4); got != "ABCD" {
		t.Errorf("ReadString() = %q, want ABCD", got)
	}
}

func TestWriteZerosPadsOddLength(t *testing.T) {
	w := dicomio.NewBytesWriter(binary.LittleEndian, true)
	w.WriteString("ODD")
	w.WriteZeros(1)
	if got := w.Bytes(); string(got) != "ODD\x00" {
		t.Errorf("Bytes() = %q, want \"ODD\\x00\"", got)
	}
}

func TestPushPopTransferSyntaxWriter(t *testing.T) {
	w := dicomio.NewBytesWriter(binary.LittleEndian, true)
	w.PushTransferSyntax(binary.BigEndian, false)
	if w.ByteOrder() != binary.BigEndian || w.ExplicitVR() {
		t.Fatal("PushTransferSyntax did not apply")
	}
	w.PopTransferSyntax()
	if w.ByteOrder() != binary.LittleEndian || !w.ExplicitVR() {
		t.Error("PopTransferSyntax did not restore prior setting")
	}
}
