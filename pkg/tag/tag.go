// Package tag defines the DICOM Tag primitive and the Dictionary trait used
// to resolve a tag's default VR, VM, and human-readable identifier.
package tag

import (
	"fmt"

	"github.com/cortexmed/dicom/pkg/vr"
)

// Tag is the <group, element> pair that identifies a DICOM data element.
type Tag struct {
	Group   uint16
	Element uint16
}

// New is a convenience constructor, mirroring how the corpus constructs tags
// inline (e.g. dicomtag.Tag{group, element}).
func New(group, element uint16) Tag {
	return Tag{Group: group, Element: element}
}

// Uint32 returns the tag's numeric identity, group in the high 16 bits,
// element in the low 16 bits. Tags compare and hash by this value.
func (t Tag) Uint32() uint32 {
	return uint32(t.Group)<<16 | uint32(t.Element)
}

// Less reports whether t sorts before other under ascending (group, element)
// order, the ordering a well-formed dataset must respect.
func (t Tag) Less(other Tag) bool {
	return t.Uint32() < other.Uint32()
}

// String renders the tag in the conventional "(gggg,eeee)" form.
func (t Tag) String() string {
	return fmt.Sprintf("(%04x,%04x)", t.Group, t.Element)
}

// IsPrivate reports whether the tag's group is odd, the PS3.5 convention for
// private (non-standard) groups.
func (t Tag) IsPrivate() bool {
	return t.Group%2 == 1
}

// Virtual tags carrying structural meaning rather than element data. PS3.5
// Section 7.5.
var (
	Item                     = Tag{0xFFFE, 0xE000}
	ItemDelimitationItem     = Tag{0xFFFE, 0xE00D}
	SequenceDelimitationItem = Tag{0xFFFE, 0xE0DD}
)

// File-meta (group 0002) tags the parser and writer treat specially.
var (
	FileMetaInformationGroupLength = Tag{0x0002, 0x0000}
	TransferSyntaxUID              = Tag{0x0002, 0x0010}
	MediaStorageSOPClassUID        = Tag{0x0002, 0x0002}
	MediaStorageSOPInstanceUID     = Tag{0x0002, 0x0003}
	ImplementationClassUID         = Tag{0x0002, 0x0012}
	ImplementationVersionName      = Tag{0x0002, 0x0013}
)

// Commonly referenced dataset tags used across the parser, writer, and
// DIMSE layers.
var (
	SpecificCharacterSet = Tag{0x0008, 0x0005}
	SOPClassUID          = Tag{0x0008, 0x0016}
	SOPInstanceUID       = Tag{0x0008, 0x0018}
	StudyDate            = Tag{0x0008, 0x0020}
	QueryRetrieveLevel   = Tag{0x0008, 0x0052}
	PatientName          = Tag{0x0010, 0x0010}
	PatientID            = Tag{0x0010, 0x0020}
	StudyInstanceUID     = Tag{0x0020, 0x000D}
	SeriesInstanceUID    = Tag{0x0020, 0x000E}
	PixelData            = Tag{0x7FE0, 0x0010}
)

// Command-group (0000) tags used to frame DIMSE messages, encoded Implicit
// VR Little Endian per PS3.7 6.3.
var (
	CommandGroupLength        = Tag{0x0000, 0x0000}
	AffectedSOPClassUID       = Tag{0x0000, 0x0002}
	RequestedSOPClassUID      = Tag{0x0000, 0x0003}
	CommandField              = Tag{0x0000, 0x0100}
	MessageID                 = Tag{0x0000, 0x0110}
	MessageIDBeingRespondedTo = Tag{0x0000, 0x0120}
	Priority                  = Tag{0x0000, 0x0700}
	CommandDataSetType        = Tag{0x0000, 0x0800}
	Status                    = Tag{0x0000, 0x0900}
	AffectedSOPInstanceUID    = Tag{0x0000, 0x1000}
	RequestedSOPInstanceUID   = Tag{0x0000, 0x1001}
	MoveDestination           = Tag{0x0000, 0x0600}
	NumberOfRemainingSubOps   = Tag{0x0000, 0x1020}
	NumberOfCompletedSubOps   = Tag{0x0000, 0x1021}
	NumberOfFailedSubOps      = Tag{0x0000, 0x1022}
	NumberOfWarningSubOps     = Tag{0x0000, 0x1023}
	MoveOriginatorAETitle     = Tag{0x0000, 0x1030}
	MoveOriginatorMessageID   = Tag{0x0000, 0x1031}
)

// Info carries the static metadata a Dictionary associates with a Tag.
type Info struct {
	Tag     Tag
	VR      vr.VR
	VM      string
	Keyword string
	Name    string
}

// Dictionary is the pluggable lookup trait the core parser/writer depend on.
// It is the core's only upward dependency for tag metadata; a real
// application wires in a dictionary generated from the DICOM standard.
// The core ships a small built-in StandardDictionary sufficient for the
// tags it references directly; exhaustive generated tables are explicitly
// out of scope here.
type Dictionary interface {
	// TagByNumber resolves a Tag's static info by its numeric identity.
	TagByNumber(t Tag) (Info, bool)
	// TagByKeyword resolves a Tag's static info by its dictionary keyword,
	// e.g. "PatientName".
	TagByKeyword(keyword string) (Info, bool)
}

// MultiDictionary composes dictionaries by priority: the first dictionary
// that knows about a tag wins.
type MultiDictionary []Dictionary

func (m MultiDictionary) TagByNumber(t Tag) (Info, bool) {
	for _, d := range m {
		if info, ok := d.TagByNumber(t); ok {
			return info, true
		}
	}
	return Info{}, false
}

func (m MultiDictionary) TagByKeyword(keyword string) (Info, bool) {
	for _, d := range m {
		if info, ok := d.TagByKeyword(keyword); ok {
			return info, true
		}
	}
	return Info{}, false
}

// VROrUnknown resolves tag's default VR via dict, falling back to vr.UN
// when the dictionary doesn't recognize it, for Implicit VR decoding.
func VROrUnknown(dict Dictionary, t Tag) vr.VR {
	if dict == nil {
		return vr.UN
	}
	if info, ok := dict.TagByNumber(t); ok {
		return info.VR
	}
	return vr.UN
}
