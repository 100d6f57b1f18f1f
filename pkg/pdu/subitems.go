package pdu

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/cortexmed/dicom/pkg/dicomio"
)

// ItemType identifies a sub-item's kind, the first byte of every sub-item
// nested inside an Associate or its UserInformationItem (PS3.8 9.3.2.3,
// Annex D).
type ItemType byte

const (
	ItemTypeApplicationContext          ItemType = 0x10
	ItemTypePresentationContextRequest  ItemType = 0x20
	ItemTypePresentationContextResponse ItemType = 0x21
	ItemTypeAbstractSyntax              ItemType = 0x30
	ItemTypeTransferSyntax              ItemType = 0x40
	ItemTypeUserInformation             ItemType = 0x50
	ItemTypeMaximumLength               ItemType = 0x51
	ItemTypeImplementationClassUID      ItemType = 0x52
	ItemTypeAsyncOperationsWindow       ItemType = 0x53
	ItemTypeRoleSelection               ItemType = 0x54
	ItemTypeImplementationVersionName   ItemType = 0x55
	ItemTypeExtendedNegotiation         ItemType = 0x56
	ItemTypeUserIdentityRequest         ItemType = 0x58
	ItemTypeUserIdentityResponse        ItemType = 0x59
)

// SubItem is the common interface of every nested item kind.
type SubItem interface {
	write(w *dicomio.Writer)
	String() string
}

func writeItemHeader(w *dicomio.Writer, t ItemType, length uint16) {
	w.WriteByte(byte(t))
	w.WriteZeros(1)
	w.WriteUInt16(length)
}

func readSubItem(r *dicomio.Reader) SubItem {
	t := ItemType(r.ReadByte())
	r.Skip(1)
	length := r.ReadUInt16()
	switch t {
	case ItemTypeApplicationContext:
		return &ApplicationContextItem{Name: r.ReadString(int(length))}
	case ItemTypeAbstractSyntax:
		return &AbstractSyntaxSubItem{UID: r.ReadString(int(length))}
	case ItemTypeTransferSyntax:
		return &TransferSyntaxSubItem{UID: r.ReadString(int(length))}
	case ItemTypePresentationContextRequest, ItemTypePresentationContextResponse:
		return readPresentationContextItem(r, t, length)
	case ItemTypeUserInformation:
		return readUserInformationItem(r, length)
	case ItemTypeMaximumLength:
		return readMaximumLengthItem(r, length)
	case ItemTypeImplementationClassUID:
		return &ImplementationClassUIDSubItem{UID: r.ReadString(int(length))}
	case ItemTypeImplementationVersionName:
		return &ImplementationVersionNameSubItem{Name: r.ReadString(int(length))}
	case ItemTypeAsyncOperationsWindow:
		return readAsyncOperationsWindowSubItem(r, length)
	case ItemTypeRoleSelection:
		return readRoleSelectionSubItem(r, length)
	case ItemTypeExtendedNegotiation:
		return readExtendedNegotiationSubItem(r, length)
	case ItemTypeUserIdentityRequest, ItemTypeUserIdentityResponse:
		return readUserIdentitySubItem(r, t, length)
	default:
		return &UnknownSubItem{Type: t, Data: r.ReadBytes(int(length))}
	}
}

// UnknownSubItem preserves a sub-item whose type this package does not
// model, so a well-formed but unrecognized item doesn't fail the whole
// Associate PDU.
type UnknownSubItem struct {
	Type ItemType
	Data []byte
}

func (v *UnknownSubItem) write(w *dicomio.Writer) {
	writeItemHeader(w, v.Type, uint16(len(v.Data)))
	w.WriteBytes(v.Data)
}

func (v *UnknownSubItem) String() string {
	return fmt.Sprintf("unknownSubItem{type:0x%x len:%d}", byte(v.Type), len(v.Data))
}

// ApplicationContextItem names the association's DICOM application
// context (PS3.8 9.3.2.1); DefaultApplicationContextName is the only
// context this module's association layer proposes or accepts.
type ApplicationContextItem struct {
	Name string
}

const DefaultApplicationContextName = "1.2.840.10008.3.1.1.1"

func (v *ApplicationContextItem) write(w *dicomio.Writer) {
	writeItemHeader(w, ItemTypeApplicationContext, uint16(len(v.Name)))
	w.WriteString(v.Name)
}

func (v *ApplicationContextItem) String() string {
	return fmt.Sprintf("applicationContext{%s}", v.Name)
}

// AbstractSyntaxSubItem carries a presentation context's proposed SOP
// Class or Meta SOP Class UID (PS3.8 9.3.2.2.1).
type AbstractSyntaxSubItem struct {
	UID string
}

func (v *AbstractSyntaxSubItem) write(w *dicomio.Writer) {
	writeItemHeader(w, ItemTypeAbstractSyntax, uint16(len(v.UID)))
	w.WriteString(v.UID)
}

func (v *AbstractSyntaxSubItem) String() string {
	return fmt.Sprintf("abstractSyntax{%s}", v.UID)
}

// TransferSyntaxSubItem carries one transfer syntax UID proposed (request)
// or selected (response) for a presentation context (PS3.8 9.3.2.2.2).
type TransferSyntaxSubItem struct {
	UID string
}

func (v *TransferSyntaxSubItem) write(w *dicomio.Writer) {
	writeItemHeader(w, ItemTypeTransferSyntax, uint16(len(v.UID)))
	w.WriteString(v.UID)
}

func (v *TransferSyntaxSubItem) String() string {
	return fmt.Sprintf("transferSyntax{%s}", v.UID)
}

// PresentationContextItem proposes (Type ==
// ItemTypePresentationContextRequest) or responds to (Type ==
// ItemTypePresentationContextResponse) one presentation context (PS3.8
// 9.3.2.2, 9.3.3.2). On a request, Items holds one AbstractSyntaxSubItem
// followed by one or more TransferSyntaxSubItem; on a response, Items
// holds at most one TransferSyntaxSubItem, the single syntax selected.
type PresentationContextItem struct {
	Type      ItemType
	ContextID byte
	Result    byte // meaningful only on a response
	Items     []SubItem
}

func readPresentationContextItem(r *dicomio.Reader, t ItemType, length uint16) *PresentationContextItem {
	r.PushLimit(int64(length))
	defer r.PopLimit()
	v := &PresentationContextItem{Type: t}
	v.ContextID = r.ReadByte()
	r.Skip(1)
	v.Result = r.ReadByte()
	r.Skip(1)
	for !r.EOF() {
		item := readSubItem(r)
		if r.Error() != nil {
			break
		}
		v.Items = append(v.Items, item)
	}
	if v.ContextID%2 != 1 {
		r.SetError(errors.Wrapf(ErrMalformedPDU, "presentation context ID %d must be odd", v.ContextID))
	}
	return v
}

func (v *PresentationContextItem) write(w *dicomio.Writer) {
	sub := dicomio.NewBytesWriter(w.ByteOrder(), w.ExplicitVR())
	for _, item := range v.Items {
		item.write(sub)
	}
	if sub.Error() != nil {
		w.SetError(sub.Error())
		return
	}
	body := sub.Bytes()
	writeItemHeader(w, v.Type, uint16(4+len(body)))
	w.WriteByte(v.ContextID)
	w.WriteZeros(1)
	w.WriteByte(v.Result)
	w.WriteZeros(1)
	w.WriteBytes(body)
}

func (v *PresentationContextItem) String() string {
	kind := "rq"
	if v.Type == ItemTypePresentationContextResponse {
		kind = "ac"
	}
	return fmt.Sprintf("presentationContext%s{id:%d result:%d}", kind, v.ContextID, v.Result)
}

// Presentation context result codes (PS3.8 Table 9-18).
const (
	PresentationResultAcceptance                    byte = 0
	PresentationResultUserRejection                 byte = 1
	PresentationResultNoReason                      byte = 2
	PresentationResultAbstractSyntaxNotSupported    byte = 3
	PresentationResultTransferSyntaxesNotSupported  byte = 4
)

// UserInformationItem is the container sub-item for the negotiation items
// of PS3.8 Annex D: max length, implementation identity, async window,
// role selection, extended negotiation, user identity.
type UserInformationItem struct {
	Items []SubItem
}

func readUserInformationItem(r *dicomio.Reader, length uint16) *UserInformationItem {
	r.PushLimit(int64(length))
	defer r.PopLimit()
	v := &UserInformationItem{}
	for !r.EOF() {
		item := readSubItem(r)
		if r.Error() != nil {
			break
		}
		v.Items = append(v.Items, item)
	}
	return v
}

func (v *UserInformationItem) write(w *dicomio.Writer) {
	sub := dicomio.NewBytesWriter(w.ByteOrder(), w.ExplicitVR())
	for _, item := range v.Items {
		item.write(sub)
	}
	if sub.Error() != nil {
		w.SetError(sub.Error())
		return
	}
	body := sub.Bytes()
	writeItemHeader(w, ItemTypeUserInformation, uint16(len(body)))
	w.WriteBytes(body)
}

func (v *UserInformationItem) String() string {
	return fmt.Sprintf("userInformation{%d items}", len(v.Items))
}

// MaximumLengthItem advertises the sender's maximum PDU length (PS3.8
// Annex D.1); both sides of an association send one and honor the peer's
// value.
type MaximumLengthItem struct {
	MaximumLengthReceived uint32
}

func readMaximumLengthItem(r *dicomio.Reader, length uint16) *MaximumLengthItem {
	if length != 4 {
		r.SetError(errors.Wrapf(ErrMalformedPDU, "maximum-length item must be 4 bytes, found %d", length))
	}
	return &MaximumLengthItem{MaximumLengthReceived: r.ReadUInt32()}
}

func (v *MaximumLengthItem) write(w *dicomio.Writer) {
	writeItemHeader(w, ItemTypeMaximumLength, 4)
	w.WriteUInt32(v.MaximumLengthReceived)
}

func (v *MaximumLengthItem) String() string {
	return fmt.Sprintf("maximumLength{%d}", v.MaximumLengthReceived)
}

// ImplementationClassUIDSubItem identifies the implementation (PS3.7
// Annex D.3.3.2.1), advertised by both association peers.
type ImplementationClassUIDSubItem struct {
	UID string
}

func (v *ImplementationClassUIDSubItem) write(w *dicomio.Writer) {
	writeItemHeader(w, ItemTypeImplementationClassUID, uint16(len(v.UID)))
	w.WriteString(v.UID)
}

func (v *ImplementationClassUIDSubItem) String() string {
	return fmt.Sprintf("implementationClassUID{%s}", v.UID)
}

// ImplementationVersionNameSubItem is a free-text implementation version
// string (PS3.7 Annex D.3.3.2.3), optional.
type ImplementationVersionNameSubItem struct {
	Name string
}

func (v *ImplementationVersionNameSubItem) write(w *dicomio.Writer) {
	writeItemHeader(w, ItemTypeImplementationVersionName, uint16(len(v.Name)))
	w.WriteString(v.Name)
}

func (v *ImplementationVersionNameSubItem) String() string {
	return fmt.Sprintf("implementationVersionName{%s}", v.Name)
}

// AsyncOperationsWindowSubItem negotiates how many operations may be
// outstanding concurrently on the association (PS3.7 Annex D.3.3.3.1).
// This package parses and writes the item; the association layer
// neither sends one nor echoes a peer's value.
type AsyncOperationsWindowSubItem struct {
	MaxOpsInvoked   uint16
	MaxOpsPerformed uint16
}

func readAsyncOperationsWindowSubItem(r *dicomio.Reader, length uint16) *AsyncOperationsWindowSubItem {
	return &AsyncOperationsWindowSubItem{MaxOpsInvoked: r.ReadUInt16(), MaxOpsPerformed: r.ReadUInt16()}
}

func (v *AsyncOperationsWindowSubItem) write(w *dicomio.Writer) {
	writeItemHeader(w, ItemTypeAsyncOperationsWindow, 4)
	w.WriteUInt16(v.MaxOpsInvoked)
	w.WriteUInt16(v.MaxOpsPerformed)
}

func (v *AsyncOperationsWindowSubItem) String() string {
	return fmt.Sprintf("asyncOperationsWindow{invoked:%d performed:%d}", v.MaxOpsInvoked, v.MaxOpsPerformed)
}

// RoleSelectionSubItem negotiates SCU/SCP roles for one abstract syntax
// (PS3.7 Annex D.3.3.4), used by C-GET and C-MOVE where the association
// initiator must also act as a C-STORE SCP for the duration of the
// operation.
type RoleSelectionSubItem struct {
	SOPClassUID string
	SCURole     byte
	SCPRole     byte
}

func readRoleSelectionSubItem(r *dicomio.Reader, length uint16) *RoleSelectionSubItem {
	r.PushLimit(int64(length))
	defer r.PopLimit()
	uidLen := r.ReadUInt16()
	uid := r.ReadString(int(uidLen))
	return &RoleSelectionSubItem{SOPClassUID: uid, SCURole: r.ReadByte(), SCPRole: r.ReadByte()}
}

func (v *RoleSelectionSubItem) write(w *dicomio.Writer) {
	writeItemHeader(w, ItemTypeRoleSelection, uint16(2+len(v.SOPClassUID)+2))
	w.WriteUInt16(uint16(len(v.SOPClassUID)))
	w.WriteString(v.SOPClassUID)
	w.WriteByte(v.SCURole)
	w.WriteByte(v.SCPRole)
}

func (v *RoleSelectionSubItem) String() string {
	return fmt.Sprintf("roleSelection{%s scu:%d scp:%d}", v.SOPClassUID, v.SCURole, v.SCPRole)
}

// ExtendedNegotiationSubItem carries SOP-class-specific negotiation data
// whose interpretation this package treats as opaque (PS3.7 Annex
// D.3.3.5): callers that implement a particular extended-negotiation
// profile decode AppInfo themselves.
type ExtendedNegotiationSubItem struct {
	SOPClassUID string
	AppInfo     []byte
}

func readExtendedNegotiationSubItem(r *dicomio.Reader, length uint16) *ExtendedNegotiationSubItem {
	r.PushLimit(int64(length))
	defer r.PopLimit()
	uidLen := r.ReadUInt16()
	uid := r.ReadString(int(uidLen))
	remaining := int(length) - 2 - int(uidLen)
	return &ExtendedNegotiationSubItem{SOPClassUID: uid, AppInfo: r.ReadBytes(remaining)}
}

func (v *ExtendedNegotiationSubItem) write(w *dicomio.Writer) {
	writeItemHeader(w, ItemTypeExtendedNegotiation, uint16(2+len(v.SOPClassUID)+len(v.AppInfo)))
	w.WriteUInt16(uint16(len(v.SOPClassUID)))
	w.WriteString(v.SOPClassUID)
	w.WriteBytes(v.AppInfo)
}

func (v *ExtendedNegotiationSubItem) String() string {
	return fmt.Sprintf("extendedNegotiation{%s %dB}", v.SOPClassUID, len(v.AppInfo))
}

// UserIdentitySubItem carries PS3.7 Annex D.3.3.7 user identity
// negotiation: Type distinguishes the request (0x58) from the response
// (0x59) framing. On a request, PrimaryField/SecondaryField hold the
// identity and (for UserIdentityTypeUsernamePassword) the secret; on a
// response, PrimaryField holds the server's response token, if any.
type UserIdentitySubItem struct {
	Type                      ItemType
	UserIdentityType          byte
	PositiveResponseRequested bool
	PrimaryField              []byte
	SecondaryField            []byte
}

// UserIdentityType values (PS3.7 Table D.3-1).
const (
	UserIdentityTypeUsername         byte = 1
	UserIdentityTypeUsernamePassword byte = 2
	UserIdentityTypeKerberos         byte = 3
	UserIdentityTypeSAML             byte = 4
)

func readUserIdentitySubItem(r *dicomio.Reader, t ItemType, length uint16) *UserIdentitySubItem {
	r.PushLimit(int64(length))
	defer r.PopLimit()
	v := &UserIdentitySubItem{Type: t}
	if t == ItemTypeUserIdentityRequest {
		v.UserIdentityType = r.ReadByte()
		v.PositiveResponseRequested = r.ReadByte() != 0
		primaryLen := r.ReadUInt16()
		v.PrimaryField = r.ReadBytes(int(primaryLen))
		secondaryLen := r.ReadUInt16()
		v.SecondaryField = r.ReadBytes(int(secondaryLen))
		return v
	}
	primaryLen := r.ReadUInt16()
	v.PrimaryField = r.ReadBytes(int(primaryLen))
	return v
}

func (v *UserIdentitySubItem) write(w *dicomio.Writer) {
	if v.Type == ItemTypeUserIdentityRequest {
		writeItemHeader(w, v.Type, uint16(1+1+2+len(v.PrimaryField)+2+len(v.SecondaryField)))
		w.WriteByte(v.UserIdentityType)
		if v.PositiveResponseRequested {
			w.WriteByte(1)
		} else {
			w.WriteByte(0)
		}
		w.WriteUInt16(uint16(len(v.PrimaryField)))
		w.WriteBytes(v.PrimaryField)
		w.WriteUInt16(uint16(len(v.SecondaryField)))
		w.WriteBytes(v.SecondaryField)
		return
	}
	writeItemHeader(w, v.Type, uint16(2+len(v.PrimaryField)))
	w.WriteUInt16(uint16(len(v.PrimaryField)))
	w.WriteBytes(v.PrimaryField)
}

func (v *UserIdentitySubItem) String() string {
	return fmt.Sprintf("userIdentity{type:%d}", v.UserIdentityType)
}
