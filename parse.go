package dicom

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/cortexmed/dicom/pkg/charset"
	"github.com/cortexmed/dicom/pkg/dicomio"
	"github.com/cortexmed/dicom/pkg/dicomlog"
	"github.com/cortexmed/dicom/pkg/tag"
	"github.com/cortexmed/dicom/pkg/tagpath"
	"github.com/cortexmed/dicom/pkg/uid"
	"github.com/cortexmed/dicom/pkg/vr"
)

var log = dicomlog.Logger("dicom")

// Parser reads successive top-level elements from a DICOM stream, tracking
// the preamble, file-meta group, and transfer syntax along the way. It
// recurses internally to parse sequences and items, but Next only ever
// yields elements at the dataset root: a nested stop condition is latched
// and acted on at the next root-level boundary.
type Parser struct {
	r    *dicomio.Reader
	opts *ParseOptions

	transferSyntax uid.TransferSyntax
	fileMeta       *Dataset

	pendingStop bool
	done        bool
	err         error
}

// NewParser constructs a Parser over in. It immediately consumes the
// preamble (unless AssumeNoPreamble) and the file-meta group, resolving the
// declared TransferSyntaxUID and activating deflate decompression if
// DeflatedExplicitVRLittleEndian was declared, so the returned Parser's
// first Next() call reads the first element of the main dataset.
func NewParser(in io.Reader, opts ...ParseOption) (*Parser, error) {
	o := defaultParseOptions()
	for _, opt := range opts {
		opt(o)
	}

	r := dicomio.NewReader(in, binary.LittleEndian, true)
	p := &Parser{r: r, opts: o, transferSyntax: o.InitialTransferSyntax}

	if !o.AssumeNoPreamble {
		if err := p.readPreambleAndPrefix(); err != nil {
			return nil, err
		}
	}

	if err := p.readFileMeta(); err != nil {
		if !o.AllowPartialObject {
			return nil, err
		}
		p.err = err
		p.done = true
		if p.fileMeta == nil {
			p.fileMeta = NewDataset()
		}
	}

	r.SetCodingSystem(o.InitialCodingSystem)
	return p, nil
}

func (p *Parser) readPreambleAndPrefix() error {
	preamble := p.r.ReadBytes(128)
	prefix := p.r.ReadString(4)
	if p.r.Error() != nil {
		return errors.Wrap(p.r.Error(), "dicom: reading preamble")
	}
	if prefix != "DICM" {
		// No automatic no-preamble detection is attempted: a stream that
		// starts directly at its file-meta group must be parsed with
		// AssumeNoPreamble.
		return ErrBadDICOMPrefix
	}
	_ = preamble
	return nil
}

// readFileMeta reads the (0002,0000) group length element, then every
// element in that byte range, all under Explicit VR Little Endian per
// PS3.10 Section 7.1 regardless of the main dataset's declared syntax.
func (p *Parser) readFileMeta() error {
	r := p.r
	r.PushTransferSyntax(binary.LittleEndian, true)

	groupLengthTag := readTag(r)
	if groupLengthTag != tag.FileMetaInformationGroupLength {
		return errors.Errorf("dicom: expected file-meta group length tag, found %s", groupLengthTag)
	}
	_, vl := readExplicit(r, p.opts.OnUnknownExplicitVR)
	if r.Error() != nil {
		return r.Error()
	}
	groupLength := r.ReadUInt32()
	if r.Error() != nil {
		return r.Error()
	}
	_ = vl

	meta := NewDataset()
	meta.Append(&Element{Tag: groupLengthTag, VR: vr.UL, Value: UInt32sValue{groupLength}})

	r.PushLimit(int64(groupLength))
	for !r.EOF() {
		e, err := p.readDataElement(r, tagpath.Path{})
		if err != nil {
			r.PopLimit()
			return err
		}
		meta.Append(e)
	}
	r.PopLimit()
	r.PopTransferSyntax() // leave the file-meta-only Explicit VR LE scope
	p.fileMeta = meta

	tsUID := meta.TransferSyntaxUID()
	ts, ok := p.opts.UIDDictionary.TransferSyntaxByUID(tsUID)
	if !ok {
		ts = uid.UnknownTransferSyntax(tsUID)
		log.Warnf("dicom: unrecognized transfer syntax %q, treating as pass-through", tsUID)
	}
	p.transferSyntax = ts

	byteorder := binary.ByteOrder(binary.LittleEndian)
	if ts.BigEndian {
		byteorder = binary.BigEndian
	}
	// Installed without a matching pop: this is the syntax governing the
	// rest of the dataset, for the remaining lifetime of the Parser.
	r.PushTransferSyntax(byteorder, ts.ExplicitVR)

	if ts.Deflated {
		r.SwapSource(func(src io.Reader) io.Reader { return flate.NewReader(src) })
	}
	return nil
}

// FileMeta returns the parsed group-0002 elements, including the group
// length element itself.
func (p *Parser) FileMeta() *Dataset { return p.fileMeta }

// AllowsPartialObject reports whether the Parser was configured with
// AllowPartialObject.
func (p *Parser) AllowsPartialObject() bool { return p.opts.AllowPartialObject }

// TransferSyntax returns the resolved transfer syntax governing the main
// dataset.
func (p *Parser) TransferSyntax() uid.TransferSyntax { return p.transferSyntax }

// Err returns the first error encountered, once Next has returned
// (nil, false).
func (p *Parser) Err() error { return p.err }

// Next reads and returns the next top-level element of the main dataset.
// It returns (nil, false) at end-of-dataset, on the first unrecoverable
// error, or once a stop condition has fired; callers distinguish the two
// via Err.
func (p *Parser) Next() (*Element, bool) {
	if p.done {
		return nil, false
	}
	if p.pendingStop {
		p.done = true
		return nil, false
	}
	if p.r.EOF() {
		p.done = true
		if err := p.r.Error(); err != nil {
			p.err = err
		}
		return nil, false
	}

	if p.opts.Stop.Kind == StopBeforeTag {
		if t, ok := p.peekTag(); ok && t == p.opts.Stop.Tag {
			p.done = true
			return nil, false
		}
	}

	e, err := p.readDataElement(p.r, tagpath.Path{})
	if err != nil {
		// The stream was not at EOF when this element began, so running
		// out of input now means it ended inside the element.
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = errors.Wrap(ErrExpectedEOF, err.Error())
		}
		p.err = err
		p.done = true
		return nil, false
	}

	if e.Tag == tag.SpecificCharacterSet {
		p.applyCharacterSet(e)
	}

	if p.opts.Stop.Kind == StopAfterTag && e.Tag == p.opts.Stop.Tag {
		p.done = true
		return e, true
	}

	return e, true
}

func (p *Parser) peekTag() (tag.Tag, bool) {
	b, err := p.r.Peek(4)
	if err != nil || len(b) < 4 {
		return tag.Tag{}, false
	}
	order := p.r.ByteOrder()
	group := order.Uint16(b[0:2])
	element := order.Uint16(b[2:4])
	return tag.Tag{Group: group, Element: element}, true
}

func (p *Parser) applyCharacterSet(e *Element) {
	sv, ok := e.Value.(StringsValue)
	if !ok {
		return
	}
	cs, err := charset.Resolve([]string(sv))
	if err != nil {
		p.r.SetError(errors.Wrap(err, "dicom: resolving SpecificCharacterSet"))
		return
	}
	p.r.SetCodingSystem(cs)
}

// matchesStop reports whether, while inside a sequence or item at the
// given path, reading tag t should set the pending-stop latch.
func (p *Parser) matchesStop(path tagpath.Path, t tag.Tag) bool {
	switch p.opts.Stop.Kind {
	case StopBeforeTag:
		return p.opts.Stop.AnyDepth && path.Depth() > 0 && t == p.opts.Stop.Tag
	case StopAfterTag:
		return p.opts.Stop.AnyDepth && path.Depth() > 0 && t == p.opts.Stop.Tag
	case StopAtSequencePath:
		return path.HasPrefix(p.opts.Stop.Path)
	default:
		return false
	}
}

// readDataElement reads one element (tag, VR, length, and value) at path,
// recursing into readSequence/readPixelData as needed. Grounded on the
// teacher's ReadElement: the non-standard-sequence override (any non-SQ
// element with an unknown-length UN/OB/OW/OF value is read as an Implicit
// VR Little Endian sequence) and the virtual tags under group 0xFFFE are
// handled the same way.
func (p *Parser) readDataElement(r *dicomio.Reader, path tagpath.Path) (*Element, error) {
	t := readTag(r)

	var v vr.VR
	var vl uint32
	if t.Group == 0xFFFE {
		v = vr.NA
		vl = readVirtualLength(r)
	} else if r.ExplicitVR() {
		v, vl = readExplicit(r, p.opts.OnUnknownExplicitVR)
	} else {
		v, vl = readImplicit(r, p.opts.TagDictionary, t)
	}
	if r.Error() != nil {
		return nil, r.Error()
	}

	undefinedLength := vl == UndefinedLength
	nonStandardSequence := undefinedLength && t != tag.Item && t != tag.PixelData &&
		(v == vr.UN || v == vr.OB || v == vr.OW || v == vr.OF)
	if nonStandardSequence {
		v = vr.SQ
	}

	elem := &Element{Tag: t, VR: v, SequencePath: path, LengthUndefined: undefinedLength}

	switch {
	case t == tag.PixelData:
		val, err := p.readPixelData(r, vl)
		if err != nil {
			return nil, err
		}
		elem.Value = val
	case v == vr.SQ:
		val, err := p.readSequence(r, t, vl, path, nonStandardSequence)
		if err != nil {
			return nil, err
		}
		elem.Value = val
	default:
		if undefinedLength {
			return nil, errors.Errorf("dicom: undefined length disallowed for VR %s, tag %s", v, t)
		}
		if budget, ok := p.clampByteCount(r); ok && budget <= vl {
			if budget < vl {
				elem.Truncated = true
			}
			vl = budget
			p.pendingStop = true
		}
		r.PushLimit(int64(vl))
		elem.Value = decodeScalarValue(r, v, vl)
		r.PopLimit()
		if r.Error() != nil {
			return nil, r.Error()
		}
	}
	return elem, nil
}

// clampByteCount reports the remaining byte budget under a StopAtByteCount
// condition; callers compare it against the element's own declared length
// to decide whether it actually needs truncating.
func (p *Parser) clampByteCount(r *dicomio.Reader) (uint32, bool) {
	if p.opts.Stop.Kind != StopAtByteCount {
		return 0, false
	}
	remaining := p.opts.Stop.ByteCount - r.BytesRead()
	if remaining < 0 {
		remaining = 0
	}
	return uint32(remaining), true
}

// readSequence reads an SQ element's items, either as a defined-length run
// of Item elements or, for undefined length, an Item* run terminated by a
// SequenceDelimitationItem. forceImplicit is set for the non-standard
// UN/OB/OW/OF-as-sequence override, which always decodes its contents
// under Implicit VR Little Endian regardless of the enclosing syntax.
func (p *Parser) readSequence(r *dicomio.Reader, seqTag tag.Tag, vl uint32, path tagpath.Path, forceImplicit bool) (SequenceValue, error) {
	if forceImplicit {
		r.PushTransferSyntax(binary.LittleEndian, false)
		defer r.PopTransferSyntax()
	}

	var items SequenceValue
	index := 0
	readOne := func() (*Dataset, bool, error) {
		itemTag := readTag(r)
		itemVL := readVirtualLength(r)
		if r.Error() != nil {
			return nil, false, r.Error()
		}
		if itemTag == tag.SequenceDelimitationItem {
			return nil, true, nil
		}
		if itemTag != tag.Item {
			return nil, false, errors.Errorf("dicom: expected Item in sequence %s, found %s", seqTag, itemTag)
		}
		itemPath := path.Append(tagpath.Node{Tag: seqTag, ItemIndex: index})
		ds, err := p.readItem(r, itemVL, itemPath)
		if err != nil {
			return nil, false, err
		}
		return ds, false, nil
	}

	if vl == UndefinedLength {
		for {
			ds, end, err := readOne()
			if err != nil {
				return nil, err
			}
			if end {
				break
			}
			items = append(items, ds)
			index++
		}
	} else {
		r.PushLimit(int64(vl))
		for !r.EOF() {
			ds, end, err := readOne()
			if err != nil {
				r.PopLimit()
				return nil, err
			}
			if end {
				break
			}
			items = append(items, ds)
			index++
		}
		r.PopLimit()
	}
	return items, nil
}

// readItem reads one sequence item's contents into a Dataset, either a
// defined-length byte run or an element run terminated by an
// ItemDelimitationItem.
func (p *Parser) readItem(r *dicomio.Reader, vl uint32, path tagpath.Path) (*Dataset, error) {
	ds := NewDataset()
	ds.ItemLengthUndefined = vl == UndefinedLength

	if vl == UndefinedLength {
		for {
			t, ok := p.peekItemTag(r)
			if ok && t == tag.ItemDelimitationItem {
				// consume the delimiter itself
				readTag(r)
				delimVL := readVirtualLength(r)
				if delimVL != 0 {
					return nil, errors.Errorf("dicom: ItemDelimitationItem VL != 0: %d", delimVL)
				}
				break
			}
			e, err := p.readDataElement(r, path)
			if err != nil {
				return nil, err
			}
			ds.Append(e)
			if p.matchesStop(path, e.Tag) {
				p.pendingStop = true
			}
		}
	} else {
		r.PushLimit(int64(vl))
		for !r.EOF() {
			e, err := p.readDataElement(r, path)
			if err != nil {
				r.PopLimit()
				return nil, err
			}
			ds.Append(e)
			if p.matchesStop(path, e.Tag) {
				p.pendingStop = true
			}
		}
		r.PopLimit()
	}
	return ds, nil
}

func (p *Parser) peekItemTag(r *dicomio.Reader) (tag.Tag, bool) {
	b, err := r.Peek(4)
	if err != nil || len(b) < 4 {
		return tag.Tag{}, false
	}
	order := r.ByteOrder()
	return tag.Tag{Group: order.Uint16(b[0:2]), Element: order.Uint16(b[2:4])}, true
}

// readPixelData reads the PixelData element, dispatching to the
// encapsulated (undefined-length) or native (defined-length) encoding per
// PS3.5 Annex A.4.
func (p *Parser) readPixelData(r *dicomio.Reader, vl uint32) (*PixelDataValue, error) {
	if vl != UndefinedLength {
		return &PixelDataValue{Native: r.ReadBytes(int(vl))}, nil
	}

	val := &PixelDataValue{Encapsulated: true}
	offsets, err := p.readBasicOffsetTable(r)
	if err != nil {
		return nil, err
	}
	val.Offsets = offsets

	for {
		data, end, err := p.readRawItem(r)
		if err != nil {
			return nil, err
		}
		if end {
			break
		}
		val.Frames = append(val.Frames, data)
	}
	return val, nil
}

// readBasicOffsetTable reads PixelData's first embedded item: a sequence
// of uint32 byte offsets, one per frame, in the dataset's byte order.
func (p *Parser) readBasicOffsetTable(r *dicomio.Reader) ([]uint32, error) {
	data, end, err := p.readRawItem(r)
	if err != nil {
		return nil, err
	}
	if end {
		return nil, errors.New("dicom: basic offset table not found")
	}
	if len(data) == 0 {
		return nil, nil
	}
	sub := dicomio.NewReader(bytes.NewReader(data), r.ByteOrder(), false)
	var offsets []uint32
	for !sub.EOF() {
		offsets = append(offsets, sub.ReadUInt32())
	}
	return offsets, sub.Error()
}

// readRawItem reads one Item element's raw payload without decoding it,
// or reports end==true on a SequenceDelimitationItem.
func (p *Parser) readRawItem(r *dicomio.Reader) (data []byte, end bool, err error) {
	t := readTag(r)
	vl := readVirtualLength(r)
	if r.Error() != nil {
		return nil, false, r.Error()
	}
	if t == tag.SequenceDelimitationItem {
		return nil, true, nil
	}
	if t != tag.Item {
		return nil, false, errors.Errorf("dicom: expected Item in PixelData, found %s", t)
	}
	if vl == UndefinedLength {
		return nil, false, errors.New("dicom: PixelData fragment item must have a defined length")
	}
	return r.ReadBytes(int(vl)), false, nil
}
