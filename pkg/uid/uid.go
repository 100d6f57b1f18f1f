// Package uid defines DICOM UIDs and Transfer Syntaxes, and the pluggable
// Dictionary trait used to resolve them.
package uid

import "strings"

// TransferSyntax describes the wire encoding a dataset declares via
// TransferSyntaxUID: byte order, VR style, and whether the stream is
// deflated or carries encapsulated (already-compressed) pixel data.
type TransferSyntax struct {
	UID           string
	Name          string
	ExplicitVR    bool
	BigEndian     bool
	Deflated      bool
	Encapsulated  bool
}

// Uncompressed reports whether elements are stored as raw, unwrapped bytes:
// neither deflated nor carrying encapsulated (compressed) pixel data.
func (t TransferSyntax) Uncompressed() bool {
	return !t.Deflated && !t.Encapsulated
}

// The natively-supported transfer syntaxes. Others are accepted as
// pass-through encapsulated payloads via UnknownTransferSyntax.
var (
	ImplicitVRLittleEndian = TransferSyntax{
		UID: "1.2.840.10008.1.2", Name: "Implicit VR Little Endian",
		ExplicitVR: false, BigEndian: false, Deflated: false, Encapsulated: false,
	}
	ExplicitVRLittleEndian = TransferSyntax{
		UID: "1.2.840.10008.1.2.1", Name: "Explicit VR Little Endian",
		ExplicitVR: true, BigEndian: false, Deflated: false, Encapsulated: false,
	}
	DeflatedExplicitVRLittleEndian = TransferSyntax{
		UID: "1.2.840.10008.1.2.1.99", Name: "Deflated Explicit VR Little Endian",
		ExplicitVR: true, BigEndian: false, Deflated: true, Encapsulated: false,
	}
	ExplicitVRBigEndian = TransferSyntax{
		UID: "1.2.840.10008.1.2.2", Name: "Explicit VR Big Endian",
		ExplicitVR: true, BigEndian: true, Deflated: false, Encapsulated: false,
	}

	// A representative sample of encapsulated (compressed pixel data)
	// transfer syntaxes, accepted as pass-through payloads: their pixel
	// data is framed but not decompressed.
	JPEGBaseline1 = TransferSyntax{
		UID: "1.2.840.10008.1.2.4.50", Name: "JPEG Baseline (Process 1)",
		ExplicitVR: true, BigEndian: false, Deflated: false, Encapsulated: true,
	}
	JPEGLosslessSV1 = TransferSyntax{
		UID: "1.2.840.10008.1.2.4.70", Name: "JPEG Lossless, Nonhierarchical, First-Order Prediction",
		ExplicitVR: true, BigEndian: false, Deflated: false, Encapsulated: true,
	}
	JPEG2000 = TransferSyntax{
		UID: "1.2.840.10008.1.2.4.90", Name: "JPEG 2000 Image Compression (Lossless Only)",
		ExplicitVR: true, BigEndian: false, Deflated: false, Encapsulated: true,
	}
	RLELossless = TransferSyntax{
		UID: "1.2.840.10008.1.2.5", Name: "RLE Lossless",
		ExplicitVR: true, BigEndian: false, Deflated: false, Encapsulated: true,
	}
)

// Dictionary resolves transfer syntaxes and general UIDs by UID value or
// by name, mirroring tag.Dictionary's role for tag lookups.
type Dictionary interface {
	TransferSyntaxByUID(id string) (TransferSyntax, bool)
	TransferSyntaxByName(name string) (TransferSyntax, bool)
	UIDByValue(id string) (Entry, bool)
	UIDByName(name string) (Entry, bool)
}

// Entry is a generic (non-transfer-syntax) UID: a SOP Class, Meta SOP
// Class, or similar identifier.
type Entry struct {
	UID  string
	Name string
}

// MultiDictionary composes Dictionary implementations by priority, same
// shape as tag.MultiDictionary.
type MultiDictionary []Dictionary

func (m MultiDictionary) TransferSyntaxByUID(id string) (TransferSyntax, bool) {
	for _, d := range m {
		if ts, ok := d.TransferSyntaxByUID(id); ok {
			return ts, true
		}
	}
	return TransferSyntax{}, false
}

func (m MultiDictionary) TransferSyntaxByName(name string) (TransferSyntax, bool) {
	for _, d := range m {
		if ts, ok := d.TransferSyntaxByName(name); ok {
			return ts, true
		}
	}
	return TransferSyntax{}, false
}

func (m MultiDictionary) UIDByValue(id string) (Entry, bool) {
	for _, d := range m {
		if e, ok := d.UIDByValue(id); ok {
			return e, true
		}
	}
	return Entry{}, false
}

func (m MultiDictionary) UIDByName(name string) (Entry, bool) {
	for _, d := range m {
		if e, ok := d.UIDByName(name); ok {
			return e, true
		}
	}
	return Entry{}, false
}

// StandardDictionary is the small built-in table of transfer syntaxes and
// SOP classes the core library uses directly.
type StandardDictionary struct{}

var standardTransferSyntaxes = []TransferSyntax{
	ImplicitVRLittleEndian,
	ExplicitVRLittleEndian,
	DeflatedExplicitVRLittleEndian,
	ExplicitVRBigEndian,
	JPEGBaseline1,
	JPEGLosslessSV1,
	JPEG2000,
	RLELossless,
}

var standardUIDs = []Entry{
	{UID: "1.2.840.10008.5.1.4.1.1.7", Name: "SecondaryCaptureImageStorage"},
	{UID: "1.2.840.10008.5.1.4.1.1.2", Name: "CTImageStorage"},
	{UID: "1.2.840.10008.5.1.4.1.1.4", Name: "MRImageStorage"},
	{UID: "1.2.840.10008.1.1", Name: "Verification"},
	{UID: "1.2.840.10008.5.1.4.1.2.1.1", Name: "PatientRootQueryRetrieveInformationModelFIND"},
	{UID: "1.2.840.10008.5.1.4.1.2.1.2", Name: "PatientRootQueryRetrieveInformationModelMOVE"},
	{UID: "1.2.840.10008.5.1.4.1.2.1.3", Name: "PatientRootQueryRetrieveInformationModelGET"},
	{UID: "1.2.840.10008.3.1.1.1", Name: "DICOMApplicationContextName"},
}

var (
	tsByUID  = make(map[string]TransferSyntax, len(standardTransferSyntaxes))
	tsByName = make(map[string]TransferSyntax, len(standardTransferSyntaxes))
	uidByVal = make(map[string]Entry, len(standardUIDs))
	uidByNam = make(map[string]Entry, len(standardUIDs))
)

func init() {
	for _, ts := range standardTransferSyntaxes {
		tsByUID[ts.UID] = ts
		tsByName[ts.Name] = ts
	}
	for _, e := range standardUIDs {
		uidByVal[e.UID] = e
		uidByNam[e.Name] = e
	}
}

func (StandardDictionary) TransferSyntaxByUID(id string) (TransferSyntax, bool) {
	ts, ok := tsByUID[id]
	return ts, ok
}

func (StandardDictionary) TransferSyntaxByName(name string) (TransferSyntax, bool) {
	ts, ok := tsByName[name]
	return ts, ok
}

func (StandardDictionary) UIDByValue(id string) (Entry, bool) {
	e, ok := uidByVal[id]
	return e, ok
}

func (StandardDictionary) UIDByName(name string) (Entry, bool) {
	e, ok := uidByNam[name]
	return e, ok
}

// UnknownTransferSyntax synthesizes a TransferSyntax for a UID the
// dictionary doesn't recognize, treating it as an encapsulated Explicit VR
// Little Endian pass-through payload.
func UnknownTransferSyntax(id string) TransferSyntax {
	return TransferSyntax{
		UID: id, Name: "Unknown Transfer Syntax",
		ExplicitVR: true, BigEndian: false, Deflated: false, Encapsulated: true,
	}
}

// NamingImpliesFlags checks that ts's Name is consistent with its
// BigEndian/ExplicitVR/Deflated flags; Encapsulated is not checked.
func NamingImpliesFlags(ts TransferSyntax) bool {
	name := ts.Name
	if strings.Contains(name, "Big Endian") && !ts.BigEndian {
		return false
	}
	if strings.Contains(name, "Little Endian") && ts.BigEndian {
		return false
	}
	if strings.Contains(name, "Explicit VR") && !ts.ExplicitVR {
		return false
	}
	if strings.Contains(name, "Implicit VR") && ts.ExplicitVR {
		return false
	}
	if strings.Contains(name, "Deflated") && !ts.Deflated {
		return false
	}
	return true
}
