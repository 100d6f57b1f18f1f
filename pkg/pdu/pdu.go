// Package pdu codes the Protocol Data Units of the DICOM Upper Layer
// protocol (PS3.8): the association-control and data-transfer messages
// exchanged over a TCP connection before and during a DIMSE conversation.
// Every PDU shares a 1-byte type, a reserved byte, and a 4-byte big-endian
// length ahead of a type-specific body; the body is always encoded without
// regard to the dataset's own transfer syntax.
package pdu

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/cortexmed/dicom/pkg/dicomio"
)

// Type identifies a PDU's kind, the first byte of every PDU on the wire.
type Type byte

const (
	TypeAssociateRQ Type = 1
	TypeAssociateAC Type = 2
	TypeAssociateRJ Type = 3
	TypePDataTF     Type = 4
	TypeReleaseRQ   Type = 5
	TypeReleaseRP   Type = 6
	TypeAbort       Type = 7
)

func (t Type) String() string {
	switch t {
	case TypeAssociateRQ:
		return "A-ASSOCIATE-RQ"
	case TypeAssociateAC:
		return "A-ASSOCIATE-AC"
	case TypeAssociateRJ:
		return "A-ASSOCIATE-RJ"
	case TypePDataTF:
		return "P-DATA-TF"
	case TypeReleaseRQ:
		return "A-RELEASE-RQ"
	case TypeReleaseRP:
		return "A-RELEASE-RP"
	case TypeAbort:
		return "A-ABORT"
	default:
		return "unknown PDU type"
	}
}

// PDU is the common interface of all seven top-level PDU kinds.
type PDU interface {
	pduType() Type
	writePayload(w *dicomio.Writer)
	String() string
}

// Write encodes pdu as a complete PDU: header plus payload.
func Write(pdu PDU) ([]byte, error) {
	payloadW := dicomio.NewBytesWriter(binary.BigEndian, false)
	pdu.writePayload(payloadW)
	if err := payloadW.Error(); err != nil {
		return nil, err
	}
	payload := payloadW.Bytes()

	w := dicomio.NewBytesWriter(binary.BigEndian, false)
	w.WriteByte(byte(pdu.pduType()))
	w.WriteZeros(1)
	w.WriteUInt32(uint32(len(payload)))
	w.WriteBytes(payload)
	if err := w.Error(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Read decodes one PDU from r. maxPDUSize bounds the accepted body length
// as a defense against a peer advertising an implausible length; a
// declared length of twice maxPDUSize or more is rejected with
// ErrPDUTooLarge rather than driving an unbounded allocation.
func Read(r io.Reader, maxPDUSize int) (PDU, error) {
	header := dicomio.NewReader(r, binary.BigEndian, false)
	t := Type(header.ReadByte())
	header.Skip(1)
	length := header.ReadUInt32()
	if err := header.Error(); err != nil {
		return nil, errors.Wrap(err, "pdu: reading header")
	}
	if length >= uint32(maxPDUSize)*2 {
		return nil, errors.Wrapf(ErrPDUTooLarge, "length %d exceeds max PDU size %d", length, maxPDUSize)
	}

	body := dicomio.NewReader(io.LimitReader(r, int64(length)), binary.BigEndian, false)
	var out PDU
	switch t {
	case TypeAssociateRQ, TypeAssociateAC:
		out = readAssociate(body, t)
	case TypeAssociateRJ:
		out = readAssociateRJ(body)
	case TypePDataTF:
		out = readPDataTF(body, length)
	case TypeReleaseRQ:
		out = readReleaseRQ(body)
	case TypeReleaseRP:
		out = readReleaseRP(body)
	case TypeAbort:
		out = readAbort(body)
	default:
		return nil, errors.Wrapf(ErrUnknownPDUType, "type code 0x%x", byte(t))
	}
	if err := body.Finish(); err != nil {
		return nil, errors.Wrap(err, "pdu: reading body")
	}
	return out, nil
}

const CurrentProtocolVersion uint16 = 1

// Associate is the payload shared by A-ASSOCIATE-RQ and A-ASSOCIATE-AC
// (PS3.8 9.3.2, 9.3.3): they differ only in their Type and in how a
// responder echoes the requester's AE titles back unchanged.
type Associate struct {
	Type            Type
	ProtocolVersion uint16
	CalledAETitle   string
	CallingAETitle  string
	Items           []SubItem
}

func (a *Associate) pduType() Type { return a.Type }

func (a *Associate) writePayload(w *dicomio.Writer) {
	called, err := aeTitleField(a.CalledAETitle)
	if err != nil {
		w.SetError(errors.Wrap(err, "pdu: CalledAETitle"))
		return
	}
	calling, err := aeTitleField(a.CallingAETitle)
	if err != nil {
		w.SetError(errors.Wrap(err, "pdu: CallingAETitle"))
		return
	}
	w.WriteUInt16(a.ProtocolVersion)
	w.WriteZeros(2)
	w.WriteBytes(called)
	w.WriteBytes(calling)
	w.WriteZeros(32)
	for _, item := range a.Items {
		item.write(w)
	}
}

func (a *Associate) String() string {
	return a.pduType().String() + "{called:" + a.CalledAETitle + " calling:" + a.CallingAETitle + "}"
}

func readAssociate(r *dicomio.Reader, t Type) *Associate {
	a := &Associate{Type: t}
	a.ProtocolVersion = r.ReadUInt16()
	r.Skip(2)
	a.CalledAETitle = trimField(r.ReadString(16))
	a.CallingAETitle = trimField(r.ReadString(16))
	r.Skip(32)
	for !r.EOF() {
		item := readSubItem(r)
		if r.Error() != nil {
			break
		}
		a.Items = append(a.Items, item)
	}
	if len(a.CalledAETitle) == 0 || len(a.CalledAETitle) > 16 {
		r.SetError(errors.Wrapf(ErrInvalidAETitle, "CalledAETitle %q", a.CalledAETitle))
	} else if len(a.CallingAETitle) == 0 || len(a.CallingAETitle) > 16 {
		r.SetError(errors.Wrapf(ErrInvalidAETitle, "CallingAETitle %q", a.CallingAETitle))
	}
	return a
}

// AssociateRJ is A-ASSOCIATE-RJ (PS3.8 9.3.4): a negotiation refusal.
type AssociateRJ struct {
	Result byte
	Source byte
	Reason byte
}

// Result values.
const (
	ResultRejectedPermanent byte = 1
	ResultRejectedTransient byte = 2
)

// Source values.
const (
	SourceServiceUser                 byte = 1
	SourceServiceProviderACSE         byte = 2
	SourceServiceProviderPresentation byte = 3
)

// Reason values (meaning depends on Source; these cover SourceServiceUser).
const (
	ReasonNoReasonGiven                      byte = 1
	ReasonApplicationContextNameNotSupported byte = 2
	ReasonCallingAETitleNotRecognized        byte = 3
	ReasonCalledAETitleNotRecognized         byte = 7
)

func (pdu *AssociateRJ) pduType() Type { return TypeAssociateRJ }

func (pdu *AssociateRJ) writePayload(w *dicomio.Writer) {
	w.WriteZeros(1)
	w.WriteByte(pdu.Result)
	w.WriteByte(pdu.Source)
	w.WriteByte(pdu.Reason)
}

func (pdu *AssociateRJ) String() string { return "A-ASSOCIATE-RJ" }

func readAssociateRJ(r *dicomio.Reader) *AssociateRJ {
	r.Skip(1)
	return &AssociateRJ{Result: r.ReadByte(), Source: r.ReadByte(), Reason: r.ReadByte()}
}

// ReleaseRQ is A-RELEASE-RQ (PS3.8 9.3.6): a 4-byte reserved field, no
// other content.
type ReleaseRQ struct{}

func (pdu *ReleaseRQ) pduType() Type                  { return TypeReleaseRQ }
func (pdu *ReleaseRQ) writePayload(w *dicomio.Writer) { w.WriteZeros(4) }
func (pdu *ReleaseRQ) String() string                 { return "A-RELEASE-RQ" }

func readReleaseRQ(r *dicomio.Reader) *ReleaseRQ {
	r.Skip(4)
	return &ReleaseRQ{}
}

// ReleaseRP is A-RELEASE-RP (PS3.8 9.3.7), the reply that lets the
// requester close the connection.
type ReleaseRP struct{}

func (pdu *ReleaseRP) pduType() Type                  { return TypeReleaseRP }
func (pdu *ReleaseRP) writePayload(w *dicomio.Writer) { w.WriteZeros(4) }
func (pdu *ReleaseRP) String() string                 { return "A-RELEASE-RP" }

func readReleaseRP(r *dicomio.Reader) *ReleaseRP {
	r.Skip(4)
	return &ReleaseRP{}
}

// Abort is A-ABORT (PS3.8 9.3.8): either side may send this unilaterally
// from any association state.
type Abort struct {
	Source byte
	Reason byte
}

// Source values for Abort.
const (
	AbortSourceServiceUser         byte = 0
	AbortSourceServiceProvider     byte = 2
)

func (pdu *Abort) pduType() Type { return TypeAbort }

func (pdu *Abort) writePayload(w *dicomio.Writer) {
	w.WriteZeros(2)
	w.WriteByte(pdu.Source)
	w.WriteByte(pdu.Reason)
}

func (pdu *Abort) String() string { return "A-ABORT" }

func readAbort(r *dicomio.Reader) *Abort {
	r.Skip(2)
	return &Abort{Source: r.ReadByte(), Reason: r.ReadByte()}
}

// PresentationDataValue is one PDV inside a P-DATA-TF PDU (PS3.8 9.3.5.1):
// a presentation-context id, a one-byte message control header packing the
// command/data and last-fragment bits, and the fragment payload.
type PresentationDataValue struct {
	ContextID byte
	Command   bool
	Last      bool
	Value     []byte
}

func readPresentationDataValue(r *dicomio.Reader) PresentationDataValue {
	length := r.ReadUInt32()
	if length < 2 {
		r.SetError(errors.Wrapf(ErrMalformedPDU, "PDV length %d shorter than its own header", length))
		return PresentationDataValue{}
	}
	contextID := r.ReadByte()
	header := r.ReadByte()
	value := r.ReadBytes(int(length) - 2)
	if header&0xfc != 0 {
		r.SetError(errors.Wrapf(ErrMalformedPDU, "illegal PDV header byte 0x%x", header))
	}
	return PresentationDataValue{
		ContextID: contextID,
		Command:   header&1 != 0,
		Last:      header&2 != 0,
		Value:     value,
	}
}

func (v *PresentationDataValue) write(w *dicomio.Writer) {
	var header byte
	if v.Command {
		header |= 1
	}
	if v.Last {
		header |= 2
	}
	w.WriteUInt32(uint32(2 + len(v.Value)))
	w.WriteByte(v.ContextID)
	w.WriteByte(header)
	w.WriteBytes(v.Value)
}

// PDataTF is P-DATA-TF (PS3.8 9.3.5): one or more presentation data values,
// the only PDU kind exchanged once an association is Established.
type PDataTF struct {
	Items []PresentationDataValue
}

func (pdu *PDataTF) pduType() Type { return TypePDataTF }

func (pdu *PDataTF) writePayload(w *dicomio.Writer) {
	for i := range pdu.Items {
		pdu.Items[i].write(w)
	}
}

func (pdu *PDataTF) String() string { return "P-DATA-TF" }

func readPDataTF(r *dicomio.Reader, length uint32) *PDataTF {
	pdu := &PDataTF{}
	for !r.EOF() {
		item := readPresentationDataValue(r)
		if r.Error() != nil {
			break
		}
		pdu.Items = append(pdu.Items, item)
	}
	return pdu
}

// aeTitleField encodes v into the 16-byte, space-padded fixed-width field
// PS3.8 9.3.2 uses for AE titles. An AE title must be 1-16 characters
// (PS3.8 9.3.2 Table 9-10, Note 3); zero-length or overlong values are
// rejected rather than silently padded or truncated.
func aeTitleField(v string) ([]byte, error) {
	if len(v) == 0 || len(v) > 16 {
		return nil, errors.Wrapf(ErrInvalidAETitle, "%q", v)
	}
	b := make([]byte, 16)
	for i := range b {
		b[i] = ' '
	}
	copy(b, v)
	return b, nil
}

func trimField(s string) string {
	i := len(s)
	for i > 0 && s[i-1] == ' ' {
		i--
	}
	return s[:i]
}
