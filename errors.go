package dicom

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/cortexmed/dicom/pkg/tag"
	"github.com/cortexmed/dicom/pkg/vr"
)

// ErrBadDICOMPrefix is returned when the four bytes following the
// preamble are not the ASCII literal "DICM".
var ErrBadDICOMPrefix = errors.New("dicom: DICM prefix not found")

// ErrExpectedEOF is returned when the input ends in the middle of an
// element rather than cleanly at an element boundary.
var ErrExpectedEOF = errors.New("dicom: unexpected end of stream inside an element")

// UnknownExplicitVRError is returned when an Explicit VR stream contains a
// 2-byte VR code this module does not recognize and the configured
// OnUnknownExplicitVR handler (default: none) did not resolve it.
type UnknownExplicitVRError struct {
	Code string
}

func (e *UnknownExplicitVRError) Error() string {
	return fmt.Sprintf("dicom: unknown explicit VR code %q", e.Code)
}

// IOError wraps a failure reading from or writing to the underlying
// stream, attaching the operation that failed.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return fmt.Sprintf("dicom: %s: %v", e.Op, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// ValueParseError is returned when an element's raw bytes cannot be
// decoded according to its VR's rules.
type ValueParseError struct {
	Tag     tag.Tag
	VR      vr.VR
	Message string
	Bytes   []byte
}

func (e *ValueParseError) Error() string {
	return fmt.Sprintf("dicom: %s %s: %s", e.Tag, e.VR, e.Message)
}
