// Package dicomio provides the low-level, transfer-syntax-aware byte
// reader and writer the parser and writer build on: endian-aware integer
// decoding, a push/pop transfer-syntax stack for entering sequence items
// encoded under a different syntax, and a push/pop length-limit stack for
// enforcing declared element/item lengths.
package dicomio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/cortexmed/dicom/pkg/charset"
)

type transferSyntaxEntry struct {
	byteorder  binary.ByteOrder
	explicitVR bool
}

type limitEntry struct {
	limit int64
	err   error
}

// Reader decodes the low-level DICOM wire types: fixed-width integers,
// fixed-length byte/string runs, and the push/pop stacks the parser uses
// to move between transfer syntaxes and bounded regions (element and item
// value lengths).
type Reader struct {
	src        io.Reader
	in         *bufio.Reader
	err        error
	byteorder  binary.ByteOrder
	explicitVR bool

	// pos is the cumulative count of bytes consumed from in.
	pos int64
	// limit is the absolute position (in pos's frame) beyond which reads
	// must fail; it implements PushLimit/PopLimit.
	limit int64

	coding codingLookup

	tsStack     []transferSyntaxEntry
	limitStack  []limitEntry
	codingStack []codingLookup
}

// codingLookup lets the Reader resolve the current CodingSystem without
// pkg/dicomio importing pkg/charset's CodingSystem type name directly into
// a public field (kept unexported so callers configure it via SetCodingSystem).
type codingLookup struct {
	cs charset.CodingSystem
	ok bool
}

// NewReader builds a Reader over in using the given initial byte order and
// VR style. Use a bounded io.Reader (e.g. io.LimitReader) or PushLimit if
// the underlying stream outlives the region being parsed.
func NewReader(in io.Reader, byteorder binary.ByteOrder, explicitVR bool) *Reader {
	return &Reader{
		src:        in,
		in:         bufio.NewReader(in),
		byteorder:  byteorder,
		explicitVR: explicitVR,
		limit:      math.MaxInt64,
	}
}

// SwapSource rewires the Reader onto a new underlying stream derived from
// what remains unread of the current one, applying transform to wrap it
// (e.g. flate.NewReader, to activate deflate decompression right after
// the file-meta segment, before any dataset elements are read). Bytes
// already buffered internally but not yet consumed are preserved.
func (r *Reader) SwapSource(transform func(io.Reader) io.Reader) {
	buffered, _ := r.in.Peek(r.in.Buffered())
	leftover := make([]byte, len(buffered))
	copy(leftover, buffered)
	combined := io.MultiReader(bytes.NewReader(leftover), r.src)
	r.src = transform(combined)
	r.in = bufio.NewReader(r.src)
}

// ByteOrder returns the Reader's current byte order.
func (r *Reader) ByteOrder() binary.ByteOrder { return r.byteorder }

// ExplicitVR reports whether the Reader is currently decoding under an
// Explicit VR transfer syntax.
func (r *Reader) ExplicitVR() bool { return r.explicitVR }

// PushTransferSyntax temporarily switches byte order and VR style, for
// descending into a sequence item whose nested content uses a different
// transfer syntax than its enclosing dataset (the non-standard-sequence
// rule: a UN/OB/OW/OF element with undefined length is always read as
// Implicit VR Little Endian regardless of the outer syntax). PopTransferSyntax
// restores the prior setting.
func (r *Reader) PushTransferSyntax(byteorder binary.ByteOrder, explicitVR bool) {
	r.tsStack = append(r.tsStack, transferSyntaxEntry{r.byteorder, r.explicitVR})
	r.byteorder = byteorder
	r.explicitVR = explicitVR
}

// PopTransferSyntax restores the transfer syntax saved by the last
// unmatched PushTransferSyntax call.
func (r *Reader) PopTransferSyntax() {
	last := len(r.tsStack) - 1
	e := r.tsStack[last]
	r.byteorder = e.byteorder
	r.explicitVR = e.explicitVR
	r.tsStack = r.tsStack[:last]
}

// SetCodingSystem installs the decoder set resolved from the dataset's
// SpecificCharacterSet, used by ReadString to decode text-VR values.
func (r *Reader) SetCodingSystem(cs charset.CodingSystem) {
	r.coding = codingLookup{cs: cs, ok: true}
}

// PushCodingSystem saves the current coding system and installs cs,
// scoping a SpecificCharacterSet override to an item or nested dataset.
// PopCodingSystem restores the prior setting on leaving that scope.
func (r *Reader) PushCodingSystem(cs charset.CodingSystem) {
	r.codingStack = append(r.codingStack, r.coding)
	r.coding = codingLookup{cs: cs, ok: true}
}

// PopCodingSystem restores the coding system saved by the last unmatched
// PushCodingSystem call.
func (r *Reader) PopCodingSystem() {
	last := len(r.codingStack) - 1
	r.coding = r.codingStack[last]
	r.codingStack = r.codingStack[:last]
}

// Peek returns the next n bytes without consuming them, for lookahead
// needed by before-tag stop conditions.
func (r *Reader) Peek(n int) ([]byte, error) {
	return r.in.Peek(n)
}

// SetError records err as the sticky error to be surfaced by Error and
// Finish, unless one is already recorded. A no-op if err is nil.
func (r *Reader) SetError(err error) {
	if err != nil && r.err == nil {
		r.err = err
	}
}

// SetErrorf is SetError with fmt.Sprintf-style formatting.
func (r *Reader) SetErrorf(format string, args ...interface{}) {
	r.SetError(errors.Errorf(format, args...))
}

// Error returns the sticky error recorded so far, or nil.
func (r *Reader) Error() error { return r.err }

// Finish returns the sticky error if one was recorded, or an error if
// unconsumed bytes remain within the current limit.
func (r *Reader) Finish() error {
	if r.err != nil {
		return r.err
	}
	if !r.EOF() {
		return errors.New("dicomio: reader has unconsumed bytes at end of input")
	}
	return nil
}

// BytesRead returns the cumulative number of bytes consumed.
func (r *Reader) BytesRead() int64 { return r.pos }

func (r *Reader) remaining() int64 { return r.limit - r.pos }

// PushLimit bounds subsequent reads to n bytes from the current position,
// saving the prior limit (and sticky error, cleared for the new region) for
// PopLimit to restore. Used to enforce an element or item's declared
// length.
func (r *Reader) PushLimit(n int64) {
	remaining := r.remaining()
	newLimit := r.pos + n
	overflow := newLimit > r.limit
	if overflow {
		newLimit = r.pos
	}
	r.limitStack = append(r.limitStack, limitEntry{limit: r.limit, err: r.err})
	r.limit = newLimit
	r.err = nil
	if overflow {
		r.SetErrorf("dicomio: PushLimit(%d) exceeds remaining %d bytes", n, remaining)
	}
}

// PopLimit restores the limit saved by the last unmatched PushLimit call,
// skipping any bytes left unconsumed within the popped region so a partial
// parse of one element doesn't desynchronize the stream for the next.
func (r *Reader) PopLimit() {
	if r.pos < r.limit {
		r.Skip(int(r.limit - r.pos))
	}
	last := len(r.limitStack) - 1
	e := r.limitStack[last]
	r.limit = e.limit
	if e.err != nil {
		r.err = e.err
	}
	r.limitStack = r.limitStack[:last]
}

// EOF reports whether no more bytes can be read: a sticky error is set,
// the limit has been reached, or the underlying stream is exhausted.
func (r *Reader) EOF() bool {
	if r.err != nil {
		return true
	}
	if r.remaining() <= 0 {
		return true
	}
	b, _ := r.in.Peek(1)
	return len(b) == 0
}

// Read implements io.Reader, bounded by the current limit.
func (r *Reader) Read(p []byte) (int, error) {
	want := r.remaining()
	if want <= 0 {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	if want < int64(len(p)) {
		p = p[:want]
	}
	n, err := r.in.Read(p)
	r.pos += int64(n)
	return n, err
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() byte {
	var v uint8
	if err := binary.Read(r, r.byteorder, &v); err != nil {
		r.SetError(errors.Wrap(err, "dicomio: ReadByte"))
		return 0
	}
	return v
}

// ReadUInt16 reads a uint16 in the Reader's current byte order.
func (r *Reader) ReadUInt16() uint16 {
	var v uint16
	if err := binary.Read(r, r.byteorder, &v); err != nil {
		r.SetError(errors.Wrap(err, "dicomio: ReadUInt16"))
	}
	return v
}

// ReadUInt32 reads a uint32 in the Reader's current byte order.
func (r *Reader) ReadUInt32() uint32 {
	var v uint32
	if err := binary.Read(r, r.byteorder, &v); err != nil {
		r.SetError(errors.Wrap(err, "dicomio: ReadUInt32"))
	}
	return v
}

// ReadInt16 reads an int16 in the Reader's current byte order.
func (r *Reader) ReadInt16() int16 {
	var v int16
	if err := binary.Read(r, r.byteorder, &v); err != nil {
		r.SetError(errors.Wrap(err, "dicomio: ReadInt16"))
	}
	return v
}

// ReadInt32 reads an int32 in the Reader's current byte order.
func (r *Reader) ReadInt32() int32 {
	var v int32
	if err := binary.Read(r, r.byteorder, &v); err != nil {
		r.SetError(errors.Wrap(err, "dicomio: ReadInt32"))
	}
	return v
}

// ReadFloat32 reads an IEEE-754 single precision float.
func (r *Reader) ReadFloat32() float32 {
	var v float32
	if err := binary.Read(r, r.byteorder, &v); err != nil {
		r.SetError(errors.Wrap(err, "dicomio: ReadFloat32"))
	}
	return v
}

// ReadFloat64 reads an IEEE-754 double precision float.
func (r *Reader) ReadFloat64() float64 {
	var v float64
	if err := binary.Read(r, r.byteorder, &v); err != nil {
		r.SetError(errors.Wrap(err, "dicomio: ReadFloat64"))
	}
	return v
}

// ReadBytes reads exactly n raw bytes.
func (r *Reader) ReadBytes(n int) []byte {
	if r.remaining() < int64(n) {
		r.SetErrorf("dicomio: ReadBytes(%d) exceeds remaining %d bytes", n, r.remaining())
		return nil
	}
	v := make([]byte, n)
	remaining := v
	for len(remaining) > 0 {
		k, err := r.Read(remaining)
		if err != nil {
			r.SetError(errors.Wrap(err, "dicomio: ReadBytes"))
			break
		}
		remaining = remaining[k:]
	}
	return v
}

// Skip discards n bytes without retaining them.
func (r *Reader) Skip(n int) {
	if r.remaining() < int64(n) {
		r.SetErrorf("dicomio: Skip(%d) exceeds remaining %d bytes", n, r.remaining())
		return
	}
	junkSize := 1 << 16
	if n < junkSize {
		junkSize = n
	}
	junk := make([]byte, junkSize)
	remaining := n
	for remaining > 0 {
		size := len(junk)
		if remaining < size {
			size = remaining
		}
		k, err := r.Read(junk[:size])
		if err != nil {
			r.SetError(errors.Wrap(err, "dicomio: Skip"))
			break
		}
		remaining -= k
	}
}

// CharsetRole selects which of a CodingSystem's (up to three) decoders to
// use for a given string read, per PS3.5 6.2's Person Name component
// groups.
type CharsetRole int

const (
	// Ideographic is the default role for ordinary text VRs.
	Ideographic CharsetRole = iota
	Alphabetic
	Phonetic
)

// ReadString reads n bytes and decodes them as text using the Ideographic
// role of the current coding system (the default for all non-PN text VRs).
func (r *Reader) ReadString(n int) string {
	return r.ReadStringAs(Ideographic, n)
}

// ReadStringAs reads n bytes and decodes them using the named component
// role of the current coding system, for multi-component PN values.
func (r *Reader) ReadStringAs(role CharsetRole, n int) string {
	b := r.ReadBytes(n)
	if len(b) == 0 {
		return ""
	}
	var d *charset.Decoder
	if r.coding.ok {
		switch role {
		case Alphabetic:
			d = r.coding.cs.Alphabetic
		case Phonetic:
			d = r.coding.cs.Phonetic
		default:
			d = r.coding.cs.Ideographic
		}
	}
	s, err := d.Decode(b)
	if err != nil {
		r.SetError(errors.Wrap(err, "dicomio: ReadString"))
		return ""
	}
	return s
}
