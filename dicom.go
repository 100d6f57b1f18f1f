// Package dicom reads and writes DICOM Part 10 files: the 128-byte
// preamble, file-meta group, and a transfer-syntax-encoded data set of
// tagged elements, including nested sequences and encapsulated pixel data.
package dicom

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// Parse reads a full Part 10 stream from in: the preamble (unless
// AssumeNoPreamble), the file-meta group, and every element of the main
// data set. With AllowPartialObject, a read error yields the elements
// parsed so far alongside the error instead of discarding them.
func Parse(in io.Reader, opts ...ParseOption) (*Dataset, error) {
	p, err := NewParser(in, opts...)
	if err != nil {
		return nil, err
	}

	ds := NewDataset()
	for _, e := range p.FileMeta().Elements() {
		ds.Append(e)
	}
	for {
		e, ok := p.Next()
		if !ok {
			break
		}
		ds.Append(e)
	}
	if err := p.Err(); err != nil {
		if !p.AllowsPartialObject() {
			return nil, err
		}
		return ds, err
	}
	return ds, nil
}

// ParseFile opens path and parses it as a DICOM stream, closing the file
// before returning.
func ParseFile(path string, opts ...ParseOption) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "dicom: opening file")
	}
	defer f.Close()
	return Parse(f, opts...)
}
