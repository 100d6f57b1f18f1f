package dicom

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/cortexmed/dicom/pkg/dicomio"
	"github.com/cortexmed/dicom/pkg/tag"
	"github.com/cortexmed/dicom/pkg/tagpath"
	"github.com/cortexmed/dicom/pkg/uid"
)

func byteOrder(ts uid.TransferSyntax) binary.ByteOrder {
	if ts.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ReadDataSet decodes a bare element stream under ts, with no preamble
// and no file-meta group of its own. This is the shape a DIMSE
// identifier or data set takes once its command set has been stripped
// off: the transfer syntax to decode it under comes from the
// presentation context it arrived on, not from a TransferSyntaxUID
// element inside the stream.
func ReadDataSet(r io.Reader, ts uid.TransferSyntax, dict tag.Dictionary) (*Dataset, error) {
	rd := dicomio.NewReader(r, byteOrder(ts), ts.ExplicitVR)
	p := &Parser{
		r:              rd,
		opts:           &ParseOptions{TagDictionary: dict, UIDDictionary: uid.StandardDictionary{}},
		transferSyntax: ts,
		fileMeta:       NewDataset(),
	}

	ds := NewDataset()
	for !rd.EOF() {
		e, err := p.readDataElement(rd, tagpath.Path{})
		if err != nil {
			if err == io.EOF {
				break
			}
			return ds, errors.Wrap(err, "dicom: reading data set")
		}
		ds.Append(e)
	}
	if rd.Error() != nil && rd.Error() != io.EOF {
		return ds, rd.Error()
	}
	return ds, nil
}

// WriteDataSet encodes ds under ts with no preamble or file-meta group,
// the write-side inverse of ReadDataSet.
func WriteDataSet(w io.Writer, ts uid.TransferSyntax, ds *Dataset) error {
	out := dicomio.NewWriter(w, byteOrder(ts), ts.ExplicitVR)
	for _, e := range ds.Elements() {
		writeElement(out, e)
	}
	return out.Error()
}
