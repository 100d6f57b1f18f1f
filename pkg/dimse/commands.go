package dimse

import (
	"fmt"

	"github.com/cortexmed/dicom"
	"github.com/cortexmed/dicom/pkg/tag"
)

// CEchoRQ is C-ECHO-RQ (PS3.7 9.3.5.1): a connectivity probe carrying no
// data set.
type CEchoRQ struct {
	MessageID           uint16
	AffectedSOPClassUID string
}

func (m *CEchoRQ) CommandField() CommandField { return CommandCEchoRQ }
func (m *CEchoRQ) HasDataSet() bool           { return false }
func (m *CEchoRQ) String() string {
	return fmt.Sprintf("C-ECHO-RQ{messageID:%d class:%s}", m.MessageID, m.AffectedSOPClassUID)
}
func (m *CEchoRQ) elements() []*dicom.Element {
	return []*dicom.Element{
		strElem(tag.AffectedSOPClassUID, m.AffectedSOPClassUID),
		u16Elem(tag.CommandField, uint16(CommandCEchoRQ)),
		u16Elem(tag.MessageID, m.MessageID),
		u16Elem(tag.CommandDataSetType, NoDataSet),
	}
}

func decodeCEchoRQ(ds *dicom.Dataset) *CEchoRQ {
	return &CEchoRQ{
		MessageID:           getUint16(ds, tag.MessageID),
		AffectedSOPClassUID: getString(ds, tag.AffectedSOPClassUID),
	}
}

// CEchoRSP is C-ECHO-RSP (PS3.7 9.3.5.2).
type CEchoRSP struct {
	MessageIDBeingRespondedTo uint16
	AffectedSOPClassUID       string
	Status                    Status
}

func (m *CEchoRSP) CommandField() CommandField { return CommandCEchoRSP }
func (m *CEchoRSP) HasDataSet() bool           { return false }
func (m *CEchoRSP) String() string {
	return fmt.Sprintf("C-ECHO-RSP{messageID:%d status:%s}", m.MessageIDBeingRespondedTo, m.Status)
}
func (m *CEchoRSP) elements() []*dicom.Element {
	return []*dicom.Element{
		strElem(tag.AffectedSOPClassUID, m.AffectedSOPClassUID),
		u16Elem(tag.CommandField, uint16(CommandCEchoRSP)),
		u16Elem(tag.MessageIDBeingRespondedTo, m.MessageIDBeingRespondedTo),
		u16Elem(tag.CommandDataSetType, NoDataSet),
		u16Elem(tag.Status, uint16(m.Status)),
	}
}

func decodeCEchoRSP(ds *dicom.Dataset) *CEchoRSP {
	return &CEchoRSP{
		MessageIDBeingRespondedTo: getUint16(ds, tag.MessageIDBeingRespondedTo),
		AffectedSOPClassUID:       getString(ds, tag.AffectedSOPClassUID),
		Status:                    Status(getUint16(ds, tag.Status)),
	}
}

// CStoreRQ is C-STORE-RQ (PS3.7 9.3.1.1): the data set that follows is the
// instance being stored.
type CStoreRQ struct {
	MessageID            uint16
	AffectedSOPClassUID  string
	Priority             Priority
	AffectedSOPInstanceUID string
	MoveOriginatorAETitle string
	MoveOriginatorMessageID uint16
}

func (m *CStoreRQ) CommandField() CommandField { return CommandCStoreRQ }
func (m *CStoreRQ) HasDataSet() bool           { return true }
func (m *CStoreRQ) String() string {
	return fmt.Sprintf("C-STORE-RQ{messageID:%d class:%s instance:%s}",
		m.MessageID, m.AffectedSOPClassUID, m.AffectedSOPInstanceUID)
}
func (m *CStoreRQ) elements() []*dicom.Element {
	elems := []*dicom.Element{
		strElem(tag.AffectedSOPClassUID, m.AffectedSOPClassUID),
		u16Elem(tag.CommandField, uint16(CommandCStoreRQ)),
		u16Elem(tag.MessageID, m.MessageID),
		u16Elem(tag.Priority, uint16(m.Priority)),
		u16Elem(tag.CommandDataSetType, 1), // any non-NoDataSet value; a real data set always follows
		strElem(tag.AffectedSOPInstanceUID, m.AffectedSOPInstanceUID),
	}
	// Move Originator fields (PS3.7 9.3.1.1 Table 9.3-1) are Type 3: present
	// only when this C-STORE-RQ is a sub-operation of a C-MOVE.
	if m.MoveOriginatorAETitle != "" {
		elems = append(elems,
			strElem(tag.MoveOriginatorAETitle, m.MoveOriginatorAETitle),
			u16Elem(tag.MoveOriginatorMessageID, m.MoveOriginatorMessageID))
	}
	return elems
}

func decodeCStoreRQ(ds *dicom.Dataset) *CStoreRQ {
	return &CStoreRQ{
		MessageID:               getUint16(ds, tag.MessageID),
		AffectedSOPClassUID:     getString(ds, tag.AffectedSOPClassUID),
		Priority:                Priority(getUint16(ds, tag.Priority)),
		AffectedSOPInstanceUID:  getString(ds, tag.AffectedSOPInstanceUID),
		MoveOriginatorAETitle:   getString(ds, tag.MoveOriginatorAETitle),
		MoveOriginatorMessageID: getUint16(ds, tag.MoveOriginatorMessageID),
	}
}

// CStoreRSP is C-STORE-RSP (PS3.7 9.3.1.2): no data set.
type CStoreRSP struct {
	MessageIDBeingRespondedTo uint16
	AffectedSOPClassUID       string
	AffectedSOPInstanceUID    string
	Status                    Status
}

func (m *CStoreRSP) CommandField() CommandField { return CommandCStoreRSP }
func (m *CStoreRSP) HasDataSet() bool           { return false }
func (m *CStoreRSP) String() string {
	return fmt.Sprintf("C-STORE-RSP{messageID:%d status:%s}", m.MessageIDBeingRespondedTo, m.Status)
}
func (m *CStoreRSP) elements() []*dicom.Element {
	return []*dicom.Element{
		strElem(tag.AffectedSOPClassUID, m.AffectedSOPClassUID),
		u16Elem(tag.CommandField, uint16(CommandCStoreRSP)),
		u16Elem(tag.MessageIDBeingRespondedTo, m.MessageIDBeingRespondedTo),
		u16Elem(tag.CommandDataSetType, NoDataSet),
		u16Elem(tag.Status, uint16(m.Status)),
		strElem(tag.AffectedSOPInstanceUID, m.AffectedSOPInstanceUID),
	}
}

func decodeCStoreRSP(ds *dicom.Dataset) *CStoreRSP {
	return &CStoreRSP{
		MessageIDBeingRespondedTo: getUint16(ds, tag.MessageIDBeingRespondedTo),
		AffectedSOPClassUID:       getString(ds, tag.AffectedSOPClassUID),
		AffectedSOPInstanceUID:    getString(ds, tag.AffectedSOPInstanceUID),
		Status:                    Status(getUint16(ds, tag.Status)),
	}
}

// CFindRQ is C-FIND-RQ (PS3.7 9.3.2.1): the data set that follows carries
// the identifier (the query keys and their matching values).
type CFindRQ struct {
	MessageID           uint16
	AffectedSOPClassUID string
	Priority            Priority
}

func (m *CFindRQ) CommandField() CommandField { return CommandCFindRQ }
func (m *CFindRQ) HasDataSet() bool           { return true }
func (m *CFindRQ) String() string {
	return fmt.Sprintf("C-FIND-RQ{messageID:%d class:%s}", m.MessageID, m.AffectedSOPClassUID)
}
func (m *CFindRQ) elements() []*dicom.Element {
	return []*dicom.Element{
		strElem(tag.AffectedSOPClassUID, m.AffectedSOPClassUID),
		u16Elem(tag.CommandField, uint16(CommandCFindRQ)),
		u16Elem(tag.MessageID, m.MessageID),
		u16Elem(tag.Priority, uint16(m.Priority)),
		u16Elem(tag.CommandDataSetType, 1),
	}
}

func decodeCFindRQ(ds *dicom.Dataset) *CFindRQ {
	return &CFindRQ{
		MessageID:           getUint16(ds, tag.MessageID),
		AffectedSOPClassUID: getString(ds, tag.AffectedSOPClassUID),
		Priority:            Priority(getUint16(ds, tag.Priority)),
	}
}

// CFindRSP is C-FIND-RSP (PS3.7 9.3.2.2): a Pending response carries a
// data set (one matched identifier); the final Success/Cancel/Failure
// response carries none.
type CFindRSP struct {
	MessageIDBeingRespondedTo uint16
	AffectedSOPClassUID       string
	Status                    Status
	HasIdentifier             bool
}

func (m *CFindRSP) CommandField() CommandField { return CommandCFindRSP }
func (m *CFindRSP) HasDataSet() bool           { return m.HasIdentifier }
func (m *CFindRSP) String() string {
	return fmt.Sprintf("C-FIND-RSP{messageID:%d status:%s}", m.MessageIDBeingRespondedTo, m.Status)
}
func (m *CFindRSP) elements() []*dicom.Element {
	dsType := NoDataSet
	if m.HasIdentifier {
		dsType = 1
	}
	return []*dicom.Element{
		strElem(tag.AffectedSOPClassUID, m.AffectedSOPClassUID),
		u16Elem(tag.CommandField, uint16(CommandCFindRSP)),
		u16Elem(tag.MessageIDBeingRespondedTo, m.MessageIDBeingRespondedTo),
		u16Elem(tag.CommandDataSetType, dsType),
		u16Elem(tag.Status, uint16(m.Status)),
	}
}

func decodeCFindRSP(ds *dicom.Dataset) *CFindRSP {
	return &CFindRSP{
		MessageIDBeingRespondedTo: getUint16(ds, tag.MessageIDBeingRespondedTo),
		AffectedSOPClassUID:       getString(ds, tag.AffectedSOPClassUID),
		Status:                    Status(getUint16(ds, tag.Status)),
		HasIdentifier:             getUint16(ds, tag.CommandDataSetType) != NoDataSet,
	}
}

// CGetRQ is C-GET-RQ (PS3.7 9.3.3.1): the data set that follows carries
// the identifier naming which instances to retrieve.
type CGetRQ struct {
	MessageID           uint16
	AffectedSOPClassUID string
	Priority            Priority
}

func (m *CGetRQ) CommandField() CommandField { return CommandCGetRQ }
func (m *CGetRQ) HasDataSet() bool           { return true }
func (m *CGetRQ) String() string {
	return fmt.Sprintf("C-GET-RQ{messageID:%d class:%s}", m.MessageID, m.AffectedSOPClassUID)
}
func (m *CGetRQ) elements() []*dicom.Element {
	return []*dicom.Element{
		strElem(tag.AffectedSOPClassUID, m.AffectedSOPClassUID),
		u16Elem(tag.CommandField, uint16(CommandCGetRQ)),
		u16Elem(tag.MessageID, m.MessageID),
		u16Elem(tag.Priority, uint16(m.Priority)),
		u16Elem(tag.CommandDataSetType, 1),
	}
}

func decodeCGetRQ(ds *dicom.Dataset) *CGetRQ {
	return &CGetRQ{
		MessageID:           getUint16(ds, tag.MessageID),
		AffectedSOPClassUID: getString(ds, tag.AffectedSOPClassUID),
		Priority:            Priority(getUint16(ds, tag.Priority)),
	}
}

// CGetRSP is C-GET-RSP (PS3.7 9.3.3.2): reports progress of the nested
// C-STORE sub-operations this C-GET drives, as running counts plus an
// overall status (Pending while more sub-operations remain, Success or a
// Warning/Failure code once the last one completes).
type CGetRSP struct {
	MessageIDBeingRespondedTo uint16
	AffectedSOPClassUID       string
	Status                    Status
	Remaining                 uint16
	Completed                 uint16
	Failed                    uint16
	Warning                   uint16
}

func (m *CGetRSP) CommandField() CommandField { return CommandCGetRSP }
func (m *CGetRSP) HasDataSet() bool           { return false }
func (m *CGetRSP) String() string {
	return fmt.Sprintf("C-GET-RSP{messageID:%d status:%s remaining:%d completed:%d failed:%d warning:%d}",
		m.MessageIDBeingRespondedTo, m.Status, m.Remaining, m.Completed, m.Failed, m.Warning)
}
func (m *CGetRSP) elements() []*dicom.Element {
	return []*dicom.Element{
		strElem(tag.AffectedSOPClassUID, m.AffectedSOPClassUID),
		u16Elem(tag.CommandField, uint16(CommandCGetRSP)),
		u16Elem(tag.MessageIDBeingRespondedTo, m.MessageIDBeingRespondedTo),
		u16Elem(tag.CommandDataSetType, NoDataSet),
		u16Elem(tag.Status, uint16(m.Status)),
		u16Elem(tag.NumberOfRemainingSubOps, m.Remaining),
		u16Elem(tag.NumberOfCompletedSubOps, m.Completed),
		u16Elem(tag.NumberOfFailedSubOps, m.Failed),
		u16Elem(tag.NumberOfWarningSubOps, m.Warning),
	}
}

func decodeCGetRSP(ds *dicom.Dataset) *CGetRSP {
	return &CGetRSP{
		MessageIDBeingRespondedTo: getUint16(ds, tag.MessageIDBeingRespondedTo),
		AffectedSOPClassUID:       getString(ds, tag.AffectedSOPClassUID),
		Status:                    Status(getUint16(ds, tag.Status)),
		Remaining:                 getUint16(ds, tag.NumberOfRemainingSubOps),
		Completed:                 getUint16(ds, tag.NumberOfCompletedSubOps),
		Failed:                    getUint16(ds, tag.NumberOfFailedSubOps),
		Warning:                   getUint16(ds, tag.NumberOfWarningSubOps),
	}
}

// CMoveRQ is C-MOVE-RQ (PS3.7 9.3.4.1): the data set that follows carries
// the identifier naming which instances to move to MoveDestination.
type CMoveRQ struct {
	MessageID           uint16
	AffectedSOPClassUID string
	Priority            Priority
	MoveDestination     string
}

func (m *CMoveRQ) CommandField() CommandField { return CommandCMoveRQ }
func (m *CMoveRQ) HasDataSet() bool           { return true }
func (m *CMoveRQ) String() string {
	return fmt.Sprintf("C-MOVE-RQ{messageID:%d class:%s destination:%s}",
		m.MessageID, m.AffectedSOPClassUID, m.MoveDestination)
}
func (m *CMoveRQ) elements() []*dicom.Element {
	return []*dicom.Element{
		strElem(tag.AffectedSOPClassUID, m.AffectedSOPClassUID),
		u16Elem(tag.CommandField, uint16(CommandCMoveRQ)),
		u16Elem(tag.MessageID, m.MessageID),
		u16Elem(tag.Priority, uint16(m.Priority)),
		strElem(tag.MoveDestination, m.MoveDestination),
		u16Elem(tag.CommandDataSetType, 1),
	}
}

func decodeCMoveRQ(ds *dicom.Dataset) *CMoveRQ {
	return &CMoveRQ{
		MessageID:           getUint16(ds, tag.MessageID),
		AffectedSOPClassUID: getString(ds, tag.AffectedSOPClassUID),
		Priority:            Priority(getUint16(ds, tag.Priority)),
		MoveDestination:     getString(ds, tag.MoveDestination),
	}
}

// CMoveRSP is C-MOVE-RSP (PS3.7 9.3.4.2), the same running-counts shape
// as CGetRSP.
type CMoveRSP struct {
	MessageIDBeingRespondedTo uint16
	AffectedSOPClassUID       string
	Status                    Status
	Remaining                 uint16
	Completed                 uint16
	Failed                    uint16
	Warning                   uint16
}

func (m *CMoveRSP) CommandField() CommandField { return CommandCMoveRSP }
func (m *CMoveRSP) HasDataSet() bool           { return false }
func (m *CMoveRSP) String() string {
	return fmt.Sprintf("C-MOVE-RSP{messageID:%d status:%s remaining:%d completed:%d failed:%d warning:%d}",
		m.MessageIDBeingRespondedTo, m.Status, m.Remaining, m.Completed, m.Failed, m.Warning)
}
func (m *CMoveRSP) elements() []*dicom.Element {
	return []*dicom.Element{
		strElem(tag.AffectedSOPClassUID, m.AffectedSOPClassUID),
		u16Elem(tag.CommandField, uint16(CommandCMoveRSP)),
		u16Elem(tag.MessageIDBeingRespondedTo, m.MessageIDBeingRespondedTo),
		u16Elem(tag.CommandDataSetType, NoDataSet),
		u16Elem(tag.Status, uint16(m.Status)),
		u16Elem(tag.NumberOfRemainingSubOps, m.Remaining),
		u16Elem(tag.NumberOfCompletedSubOps, m.Completed),
		u16Elem(tag.NumberOfFailedSubOps, m.Failed),
		u16Elem(tag.NumberOfWarningSubOps, m.Warning),
	}
}

func decodeCMoveRSP(ds *dicom.Dataset) *CMoveRSP {
	return &CMoveRSP{
		MessageIDBeingRespondedTo: getUint16(ds, tag.MessageIDBeingRespondedTo),
		AffectedSOPClassUID:       getString(ds, tag.AffectedSOPClassUID),
		Status:                    Status(getUint16(ds, tag.Status)),
		Remaining:                 getUint16(ds, tag.NumberOfRemainingSubOps),
		Completed:                 getUint16(ds, tag.NumberOfCompletedSubOps),
		Failed:                    getUint16(ds, tag.NumberOfFailedSubOps),
		Warning:                   getUint16(ds, tag.NumberOfWarningSubOps),
	}
}

// CCancelRQ is C-CANCEL-RQ (PS3.7 9.3.2.3 and similar in 9.3.3/9.3.4): a
// request to cancel an outstanding C-FIND/C-GET/C-MOVE, identified by the
// MessageID it originally carried.
type CCancelRQ struct {
	MessageIDBeingRespondedTo uint16
}

func (m *CCancelRQ) CommandField() CommandField { return CommandCCancelRQ }
func (m *CCancelRQ) HasDataSet() bool           { return false }
func (m *CCancelRQ) String() string {
	return fmt.Sprintf("C-CANCEL-RQ{messageID:%d}", m.MessageIDBeingRespondedTo)
}
func (m *CCancelRQ) elements() []*dicom.Element {
	return []*dicom.Element{
		u16Elem(tag.CommandField, uint16(CommandCCancelRQ)),
		u16Elem(tag.MessageIDBeingRespondedTo, m.MessageIDBeingRespondedTo),
		u16Elem(tag.CommandDataSetType, NoDataSet),
	}
}

func decodeCCancelRQ(ds *dicom.Dataset) *CCancelRQ {
	return &CCancelRQ{MessageIDBeingRespondedTo: getUint16(ds, tag.MessageIDBeingRespondedTo)}
}
