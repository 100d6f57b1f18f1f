package dimse

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/cortexmed/dicom"
	"github.com/cortexmed/dicom/pkg/tag"
	"github.com/cortexmed/dicom/pkg/vr"
)

// Message is the common interface of every DIMSE command message: the
// small group-0000 element set exchanged ahead of an optional data set
// (PS3.7 6.3, 9, 10, 11).
type Message interface {
	fmt.Stringer

	// CommandField identifies which command this message carries.
	CommandField() CommandField

	// HasDataSet reports whether this message's CommandDataSetType
	// element declares that a data set follows in subsequent PDVs.
	HasDataSet() bool

	elements() []*dicom.Element
}

// ReadMessage decodes one DIMSE command set from r (PS3.7 6.3.1): a
// group-length-prefixed run of elements under Implicit VR Little Endian.
// dict resolves VRs for Implicit VR decoding of any non-command element a
// malformed or extended peer includes; the command elements themselves
// all have well-known VRs that do not depend on it.
func ReadMessage(r io.Reader, dict tag.Dictionary) (Message, error) {
	ds, err := dicom.ReadImplicitGroup(r, dict, tag.CommandGroupLength)
	if err != nil {
		return nil, errors.Wrap(err, "dimse: reading command set")
	}

	field, ok := findUint16(ds, tag.CommandField)
	if !ok {
		return nil, errors.New("dimse: command set missing CommandField")
	}

	switch CommandField(field) {
	case CommandCEchoRQ:
		return decodeCEchoRQ(ds), nil
	case CommandCEchoRSP:
		return decodeCEchoRSP(ds), nil
	case CommandCStoreRQ:
		return decodeCStoreRQ(ds), nil
	case CommandCStoreRSP:
		return decodeCStoreRSP(ds), nil
	case CommandCFindRQ:
		return decodeCFindRQ(ds), nil
	case CommandCFindRSP:
		return decodeCFindRSP(ds), nil
	case CommandCGetRQ:
		return decodeCGetRQ(ds), nil
	case CommandCGetRSP:
		return decodeCGetRSP(ds), nil
	case CommandCMoveRQ:
		return decodeCMoveRQ(ds), nil
	case CommandCMoveRSP:
		return decodeCMoveRSP(ds), nil
	case CommandCCancelRQ:
		return decodeCCancelRQ(ds), nil
	default:
		return nil, errors.Errorf("dimse: unsupported command field 0x%04x", field)
	}
}

// WriteMessage encodes m's command set to w under Implicit VR Little
// Endian, the write-side inverse of ReadMessage.
func WriteMessage(w io.Writer, m Message) error {
	if err := dicom.WriteImplicitGroup(w, tag.CommandGroupLength, m.elements()); err != nil {
		return errors.Wrap(err, "dimse: writing command set")
	}
	return nil
}

func findUint16(ds *dicom.Dataset, t tag.Tag) (uint16, bool) {
	e, ok := ds.Find(t)
	if !ok {
		return 0, false
	}
	v, ok := e.Value.(dicom.UInt16sValue)
	if !ok || len(v) == 0 {
		return 0, false
	}
	return v[0], true
}

func getUint16(ds *dicom.Dataset, t tag.Tag) uint16 {
	v, _ := findUint16(ds, t)
	return v
}

func getString(ds *dicom.Dataset, t tag.Tag) string {
	return ds.GetString(t)
}

func u16Elem(t tag.Tag, v uint16) *dicom.Element {
	return &dicom.Element{Tag: t, VR: vrFor(t), Value: dicom.UInt16sValue{v}}
}

func strElem(t tag.Tag, v string) *dicom.Element {
	return &dicom.Element{Tag: t, VR: vrFor(t), Value: dicom.StringsValue{v}}
}

// vrFor returns the fixed VR of a group-0000 command tag (PS3.7 Annex E).
func vrFor(t tag.Tag) vr.VR {
	switch t {
	case tag.AffectedSOPClassUID, tag.RequestedSOPClassUID,
		tag.AffectedSOPInstanceUID, tag.RequestedSOPInstanceUID:
		return vr.UI
	case tag.MoveDestination, tag.MoveOriginatorAETitle:
		return vr.AE
	default:
		return vr.US
	}
}
