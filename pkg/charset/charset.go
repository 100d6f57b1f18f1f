// Package charset resolves a DICOM SpecificCharacterSet label to a decoder
// capable of turning element value bytes into Go strings.
package charset

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// Decoder turns raw element bytes into a UTF-8 Go string. A nil *Decoder,
// or one with no encoding (as ResolveOne returns for an empty label and
// for the ASCII and UTF-8 labels), means "treat bytes as already being
// 7-bit-clean ASCII/UTF-8".
type Decoder struct {
	enc encoding.Encoding
}

// Decode converts b from this charset into a UTF-8 string.
func (d *Decoder) Decode(b []byte) (string, error) {
	if d == nil || d.enc == nil {
		return string(b), nil
	}
	out, err := d.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", errors.Wrap(err, "charset: decoding bytes")
	}
	return string(out), nil
}

// Encode converts a UTF-8 string into bytes in this charset, the inverse of
// Decode, used by the writer when re-emitting string values.
func (d *Decoder) Encode(s string) ([]byte, error) {
	if d == nil || d.enc == nil {
		return []byte(s), nil
	}
	out, err := d.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, errors.Wrap(err, "charset: encoding string")
	}
	return out, nil
}

// normalize canonicalizes a character set label for table lookup: strip
// whitespace, hyphens, underscores; lowercase.
func normalize(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch {
		case r == ' ', r == '\t', r == '-', r == '_':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

// table maps normalized SpecificCharacterSet labels to golang.org/x/text
// encodings. A nil encoding.Encoding means plain ASCII/UTF-8 passthrough.
var table = map[string]encoding.Encoding{
	"isoir6":     nil,
	"iso2022ir6": nil,

	"isoir100":      charmap.ISO8859_1,
	"iso2022ir100":  charmap.ISO8859_1,
	"isoir101":      charmap.ISO8859_2,
	"iso2022ir101":  charmap.ISO8859_2,
	"isoir109":      charmap.ISO8859_3,
	"iso2022ir109":  charmap.ISO8859_3,
	"isoir110":      charmap.ISO8859_4,
	"iso2022ir110":  charmap.ISO8859_4,
	"isoir126":      charmap.ISO8859_7,
	"iso2022ir126":  charmap.ISO8859_7,
	"isoir127":      charmap.ISO8859_6,
	"iso2022ir127":  charmap.ISO8859_6,
	"isoir138":      charmap.ISO8859_8,
	"iso2022ir138":  charmap.ISO8859_8,
	"isoir144":      charmap.ISO8859_5,
	"iso2022ir144":  charmap.ISO8859_5,
	"isoir148":      charmap.ISO8859_9,
	"iso2022ir148":  charmap.ISO8859_9,
	"isoir166":      charmap.Windows874,
	"iso2022ir166":  charmap.Windows874,

	"isoir13":      japanese.ShiftJIS,
	"iso2022ir13":  japanese.ShiftJIS,
	"shiftjis":     japanese.ShiftJIS,
	"iso2022ir87":  japanese.ISO2022JP,
	"iso2022ir159": japanese.ISO2022JP,
	"eucjp":        japanese.EUCJP,

	"iso2022ir149": korean.EUCKR,
	"euckr":        korean.EUCKR,

	"gb18030": simplifiedchinese.GB18030,
	"gbk":     simplifiedchinese.GBK,
	"gb2312":  simplifiedchinese.GBK,

	"big5": traditionalchinese.Big5,

	"isoir192": nil, // UTF-8
	"utf8":     nil,
}

// DefaultCodingSystem is the coding system assumed before any
// SpecificCharacterSet element has been seen: PS3.5 leaves the default
// undefined for streams lacking a declared character set, but the common
// convention (and this module's default) is Windows-1252.
func DefaultCodingSystem() CodingSystem {
	d := &Decoder{enc: charmap.Windows1252}
	return CodingSystem{Alphabetic: d, Ideographic: d, Phonetic: d}
}

// ResolveOne resolves a single SpecificCharacterSet label. An empty label
// resolves to the default (ASCII) decoder.
func ResolveOne(label string) (*Decoder, error) {
	if label == "" {
		return &Decoder{}, nil
	}
	norm := normalize(label)
	switch norm {
	case "utf16", "isoir196", "utf16le":
		return &Decoder{enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)}, nil
	case "utf16be":
		return &Decoder{enc: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)}, nil
	case "utf32", "utf32le":
		return &Decoder{enc: utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)}, nil
	case "utf32be":
		return &Decoder{enc: utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)}, nil
	}
	enc, ok := table[norm]
	if !ok {
		return nil, errors.Errorf("charset: unknown SpecificCharacterSet label %q", label)
	}
	return &Decoder{enc: enc}, nil
}

// CodingSystem groups the (up to) three decoders PS3.5 6.2 defines for
// Person Name-style multi-component values: alphabetic, ideographic, and
// phonetic representations. All other VRs use Ideographic.
type CodingSystem struct {
	Alphabetic  *Decoder
	Ideographic *Decoder
	Phonetic    *Decoder
}

// Resolve parses the (possibly multi-valued) SpecificCharacterSet element
// into a CodingSystem, per PS3.5 Section 6.1.2.3: one value means all three
// slots share a decoder; two values assign the second to both Ideographic
// and Phonetic; three assign one each.
func Resolve(labels []string) (CodingSystem, error) {
	if len(labels) == 0 {
		return CodingSystem{}, nil
	}
	decoders := make([]*Decoder, 0, len(labels))
	for _, label := range labels {
		if label == "" {
			decoders = append(decoders, &Decoder{})
			continue
		}
		d, err := ResolveOne(label)
		if err != nil {
			return CodingSystem{}, err
		}
		decoders = append(decoders, d)
	}
	switch len(decoders) {
	case 1:
		return CodingSystem{Alphabetic: decoders[0], Ideographic: decoders[0], Phonetic: decoders[0]}, nil
	case 2:
		return CodingSystem{Alphabetic: decoders[0], Ideographic: decoders[1], Phonetic: decoders[1]}, nil
	default:
		return CodingSystem{Alphabetic: decoders[0], Ideographic: decoders[1], Phonetic: decoders[2]}, nil
	}
}
