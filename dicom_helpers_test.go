package dicom_test

import (
	"bytes"
	"encoding/binary"
)

// rawElement hand-encodes one Explicit VR Little Endian element: tag, VR
// code, and length (4-byte length with 2 reserved bytes for the VRs that
// require it, a bare 2-byte length otherwise), followed by value.
func rawElement(group, elem uint16, v string, value []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, group)
	binary.Write(&buf, binary.LittleEndian, elem)
	buf.WriteString(v)
	switch v {
	case "OB", "OD", "OF", "OL", "OW", "SQ", "UC", "UN", "UR", "UT":
		buf.Write([]byte{0, 0})
		binary.Write(&buf, binary.LittleEndian, uint32(len(value)))
	default:
		binary.Write(&buf, binary.LittleEndian, uint16(len(value)))
	}
	buf.Write(value)
	return buf.Bytes()
}

// rawVirtualTag hand-encodes a group-0xFFFE tag: a bare 4-byte length, no VR.
func rawVirtualTag(group, elem uint16, length uint32) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, group)
	binary.Write(&buf, binary.LittleEndian, elem)
	binary.Write(&buf, binary.LittleEndian, length)
	return buf.Bytes()
}

func padEven(s string) []byte {
	b := []byte(s)
	if len(b)%2 != 0 {
		b = append(b, ' ')
	}
	return b
}

// buildFileMeta hand-encodes the group-0002 file-meta segment: group length
// element, then mediaStorageSOPClassUID, mediaStorageSOPInstanceUID, and
// the given transfer syntax UID, all Explicit VR Little Endian.
func buildFileMeta(transferSyntaxUID string) []byte {
	var body bytes.Buffer
	body.Write(rawElement(0x0002, 0x0002, "UI", padEven("1.2.840.10008.5.1.4.1.1.7")))
	body.Write(rawElement(0x0002, 0x0003, "UI", padEven("1.2.3.4.5")))
	body.Write(rawElement(0x0002, 0x0010, "UI", padEven(transferSyntaxUID)))

	var out bytes.Buffer
	out.Write(rawElement(0x0002, 0x0000, "UL", func() []byte {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(body.Len()))
		return b
	}()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func buildFile(transferSyntaxUID string, dataset []byte) []byte {
	var out bytes.Buffer
	out.Write(make([]byte, 128))
	out.WriteString("DICM")
	out.Write(buildFileMeta(transferSyntaxUID))
	out.Write(dataset)
	return out.Bytes()
}
