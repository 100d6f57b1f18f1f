package tag

import "github.com/cortexmed/dicom/pkg/vr"

// StandardDictionary is a small, hand-maintained table covering the tags
// this module references directly (file-meta, common identification and
// command tags) plus a representative sample of imaging attributes. A
// production deployment replaces or layers this with a dictionary
// generated from the full DICOM standard via MultiDictionary; generating
// that table is explicitly out of scope here.
type StandardDictionary struct{}

var standardEntries = []Info{
	{Tag: FileMetaInformationGroupLength, VR: vr.UL, VM: "1", Keyword: "FileMetaInformationGroupLength", Name: "File Meta Information Group Length"},
	{Tag: MediaStorageSOPClassUID, VR: vr.UI, VM: "1", Keyword: "MediaStorageSOPClassUID", Name: "Media Storage SOP Class UID"},
	{Tag: MediaStorageSOPInstanceUID, VR: vr.UI, VM: "1", Keyword: "MediaStorageSOPInstanceUID", Name: "Media Storage SOP Instance UID"},
	{Tag: TransferSyntaxUID, VR: vr.UI, VM: "1", Keyword: "TransferSyntaxUID", Name: "Transfer Syntax UID"},
	{Tag: ImplementationClassUID, VR: vr.UI, VM: "1", Keyword: "ImplementationClassUID", Name: "Implementation Class UID"},
	{Tag: ImplementationVersionName, VR: vr.SH, VM: "1", Keyword: "ImplementationVersionName", Name: "Implementation Version Name"},
	{Tag: SpecificCharacterSet, VR: vr.CS, VM: "1-n", Keyword: "SpecificCharacterSet", Name: "Specific Character Set"},
	{Tag: SOPClassUID, VR: vr.UI, VM: "1", Keyword: "SOPClassUID", Name: "SOP Class UID"},
	{Tag: SOPInstanceUID, VR: vr.UI, VM: "1", Keyword: "SOPInstanceUID", Name: "SOP Instance UID"},
	{Tag: StudyDate, VR: vr.DA, VM: "1", Keyword: "StudyDate", Name: "Study Date"},
	{Tag: QueryRetrieveLevel, VR: vr.CS, VM: "1", Keyword: "QueryRetrieveLevel", Name: "Query/Retrieve Level"},
	{Tag: PatientName, VR: vr.PN, VM: "1", Keyword: "PatientName", Name: "Patient's Name"},
	{Tag: PatientID, VR: vr.LO, VM: "1", Keyword: "PatientID", Name: "Patient ID"},
	{Tag: StudyInstanceUID, VR: vr.UI, VM: "1", Keyword: "StudyInstanceUID", Name: "Study Instance UID"},
	{Tag: SeriesInstanceUID, VR: vr.UI, VM: "1", Keyword: "SeriesInstanceUID", Name: "Series Instance UID"},
	{Tag: PixelData, VR: vr.OW, VM: "1", Keyword: "PixelData", Name: "Pixel Data"},
	{Tag: CommandGroupLength, VR: vr.UL, VM: "1", Keyword: "CommandGroupLength", Name: "Command Group Length"},
	{Tag: AffectedSOPClassUID, VR: vr.UI, VM: "1", Keyword: "AffectedSOPClassUID", Name: "Affected SOP Class UID"},
	{Tag: RequestedSOPClassUID, VR: vr.UI, VM: "1", Keyword: "RequestedSOPClassUID", Name: "Requested SOP Class UID"},
	{Tag: CommandField, VR: vr.US, VM: "1", Keyword: "CommandField", Name: "Command Field"},
	{Tag: MessageID, VR: vr.US, VM: "1", Keyword: "MessageID", Name: "Message ID"},
	{Tag: MessageIDBeingRespondedTo, VR: vr.US, VM: "1", Keyword: "MessageIDBeingRespondedTo", Name: "Message ID Being Responded To"},
	{Tag: Priority, VR: vr.US, VM: "1", Keyword: "Priority", Name: "Priority"},
	{Tag: CommandDataSetType, VR: vr.US, VM: "1", Keyword: "CommandDataSetType", Name: "Command Data Set Type"},
	{Tag: Status, VR: vr.US, VM: "1", Keyword: "Status", Name: "Status"},
	{Tag: AffectedSOPInstanceUID, VR: vr.UI, VM: "1", Keyword: "AffectedSOPInstanceUID", Name: "Affected SOP Instance UID"},
	{Tag: RequestedSOPInstanceUID, VR: vr.UI, VM: "1", Keyword: "RequestedSOPInstanceUID", Name: "Requested SOP Instance UID"},
	{Tag: MoveDestination, VR: vr.AE, VM: "1", Keyword: "MoveDestination", Name: "Move Destination"},
	{Tag: NumberOfRemainingSubOps, VR: vr.US, VM: "1", Keyword: "NumberOfRemainingSuboperations", Name: "Number of Remaining Sub-operations"},
	{Tag: NumberOfCompletedSubOps, VR: vr.US, VM: "1", Keyword: "NumberOfCompletedSuboperations", Name: "Number of Completed Sub-operations"},
	{Tag: NumberOfFailedSubOps, VR: vr.US, VM: "1", Keyword: "NumberOfFailedSuboperations", Name: "Number of Failed Sub-operations"},
	{Tag: NumberOfWarningSubOps, VR: vr.US, VM: "1", Keyword: "NumberOfWarningSuboperations", Name: "Number of Warning Sub-operations"},
	{Tag: MoveOriginatorAETitle, VR: vr.AE, VM: "1", Keyword: "MoveOriginatorApplicationEntityTitle", Name: "Move Originator Application Entity Title"},
	{Tag: MoveOriginatorMessageID, VR: vr.US, VM: "1", Keyword: "MoveOriginatorMessageID", Name: "Move Originator Message ID"},
}

var (
	byNumber  = make(map[Tag]Info, len(standardEntries))
	byKeyword = make(map[string]Info, len(standardEntries))
)

func init() {
	for _, e := range standardEntries {
		byNumber[e.Tag] = e
		byKeyword[e.Keyword] = e
	}
}

// TagByNumber implements Dictionary.
func (StandardDictionary) TagByNumber(t Tag) (Info, bool) {
	info, ok := byNumber[t]
	return info, ok
}

// TagByKeyword implements Dictionary.
func (StandardDictionary) TagByKeyword(keyword string) (Info, bool) {
	info, ok := byKeyword[keyword]
	return info, ok
}
