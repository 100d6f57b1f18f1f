package vr_test

import (
	"testing"

	"github.com/cortexmed/dicom/pkg/vr"
)

func TestHasExplicitPad(t *testing.T) {
	padded := []vr.VR{vr.OB, vr.OW, vr.OF, vr.SQ, vr.UN, vr.UT, vr.UC, vr.UR, vr.OD, vr.OL}
	for _, v := range padded {
		if !v.HasExplicitPad() {
			t.Errorf("%s: expected HasExplicitPad() == true", v)
		}
	}

	unpadded := []vr.VR{vr.AE, vr.CS, vr.UL, vr.US, vr.UI, vr.DA}
	for _, v := range unpadded {
		if v.HasExplicitPad() {
			t.Errorf("%s: expected HasExplicitPad() == false", v)
		}
	}
}

func TestDefaultPadByte(t *testing.T) {
	if got := vr.UI.DefaultPadByte(); got != 0x00 {
		t.Errorf("UI.DefaultPadByte() = %x, want 0x00", got)
	}
	if got := vr.LO.DefaultPadByte(); got != ' ' {
		t.Errorf("LO.DefaultPadByte() = %x, want 0x20", got)
	}
}

func TestValid(t *testing.T) {
	if !vr.Valid("UL") {
		t.Error("UL should be valid")
	}
	if vr.Valid("ZZ") {
		t.Error("ZZ should not be valid")
	}
}
