package dicom

import (
	"github.com/cortexmed/dicom/pkg/charset"
	"github.com/cortexmed/dicom/pkg/tag"
	"github.com/cortexmed/dicom/pkg/tagpath"
	"github.com/cortexmed/dicom/pkg/uid"
	"github.com/cortexmed/dicom/pkg/vr"
)

// StopKind enumerates the flavors of early-stop a Parser can be configured
// to honor.
type StopKind int

const (
	// StopNever means the parser runs to end-of-dataset.
	StopNever StopKind = iota
	// StopAtByteCount stops once ByteCount bytes have been consumed from
	// the start of the stream, possibly mid-element.
	StopAtByteCount
	// StopBeforeTag stops just before yielding an element whose tag
	// equals Tag, at the root (AnyDepth false) or at any nesting depth.
	StopBeforeTag
	// StopAfterTag stops just after yielding an element whose tag equals
	// Tag, at the root (AnyDepth false) or at any nesting depth.
	StopAfterTag
	// StopAtSequencePath stops once the parser's current sequence path
	// has Path as a prefix.
	StopAtSequencePath
)

// StopCondition configures when Parser.Next stops producing elements:
// end-of-dataset, a byte count, before/after a tag (root or any depth), or
// inside a sequence-path.
type StopCondition struct {
	Kind      StopKind
	ByteCount int64
	Tag       tag.Tag
	AnyDepth  bool
	Path      tagpath.Path
}

// ParseOptions holds the resolved configuration built by applying
// ParseOption functions over the defaults.
type ParseOptions struct {
	TagDictionary         tag.Dictionary
	UIDDictionary         uid.Dictionary
	InitialTransferSyntax uid.TransferSyntax
	InitialCodingSystem   charset.CodingSystem
	AllowPartialObject    bool
	AssumeNoPreamble      bool
	Stop                  StopCondition
	OnUnknownExplicitVR   func(code string) (vr.VR, error)
}

// ParseOption configures a Parser. See NewParser.
type ParseOption func(*ParseOptions)

func defaultParseOptions() *ParseOptions {
	return &ParseOptions{
		TagDictionary:         tag.StandardDictionary{},
		UIDDictionary:         uid.StandardDictionary{},
		InitialTransferSyntax: uid.ExplicitVRLittleEndian,
		InitialCodingSystem:   charset.DefaultCodingSystem(),
		Stop:                  StopCondition{Kind: StopNever},
	}
}

// WithDictionary overrides the tag dictionary used for Implicit VR lookup
// and for resolving VR when the file doesn't declare one explicitly.
func WithDictionary(d tag.Dictionary) ParseOption {
	return func(o *ParseOptions) { o.TagDictionary = d }
}

// WithUIDDictionary overrides the dictionary used to resolve the declared
// TransferSyntaxUID into a uid.TransferSyntax.
func WithUIDDictionary(d uid.Dictionary) ParseOption {
	return func(o *ParseOptions) { o.UIDDictionary = d }
}

// AllowPartialObject configures the parser to return the dataset parsed
// so far, plus the first error encountered, instead of discarding
// everything on failure.
func AllowPartialObject() ParseOption {
	return func(o *ParseOptions) { o.AllowPartialObject = true }
}

// AssumeNoPreamble skips the 128-byte preamble and DICM prefix entirely,
// starting directly at group-length parsing, for streams already
// positioned past the header (e.g. a DIMSE P-DATA command or dataset
// fragment).
func AssumeNoPreamble() ParseOption {
	return func(o *ParseOptions) { o.AssumeNoPreamble = true }
}

// WithStopCondition installs a non-default stop condition.
func WithStopCondition(s StopCondition) ParseOption {
	return func(o *ParseOptions) { o.Stop = s }
}

// WithUnknownExplicitVRHandler installs a handler invoked when an Explicit
// VR stream contains a 2-byte code not in the standard VR table. Absent a
// handler, an unrecognized code is a fatal UnknownExplicitVRError.
func WithUnknownExplicitVRHandler(f func(code string) (vr.VR, error)) ParseOption {
	return func(o *ParseOptions) { o.OnUnknownExplicitVR = f }
}

// WriteOptions holds the resolved configuration built by applying
// WriteOption functions over the defaults.
type WriteOptions struct {
	OmitPreamble bool
	Preamble     []byte
}

// WriteOption configures Write. See Write.
type WriteOption func(*WriteOptions)

func defaultWriteOptions() *WriteOptions {
	return &WriteOptions{Preamble: make([]byte, 128)}
}

// OmitPreamble skips writing the 128-byte preamble and DICM prefix,
// emitting the file-meta group directly. Mirrors AssumeNoPreamble on the
// read side.
func OmitPreamble() WriteOption {
	return func(o *WriteOptions) { o.OmitPreamble = true }
}

// WithPreamble overrides the 128-byte preamble content (the default is
// all zero bytes).
func WithPreamble(b []byte) WriteOption {
	return func(o *WriteOptions) {
		preamble := make([]byte, 128)
		copy(preamble, b)
		o.Preamble = preamble
	}
}
