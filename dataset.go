package dicom

import "github.com/cortexmed/dicom/pkg/tag"

// Dataset is an ordered tag-to-element mapping: a parsed file's data set,
// or the contents of a sequence item. Insertion order always matches
// stream encounter order, so re-serializing a Dataset reproduces the
// element ordering of the stream it came from.
type Dataset struct {
	elements []*Element
	index    map[tag.Tag]*Element

	// ItemLengthUndefined is meaningful only when this Dataset holds the
	// contents of a sequence item: it records whether that item was
	// originally encoded with the UndefinedLength sentinel (terminated
	// by an ItemDelimitationItem) rather than a computed length, so the
	// writer can reproduce the original encoding style.
	ItemLengthUndefined bool
}

// NewDataset returns an empty Dataset ready for Append.
func NewDataset() *Dataset {
	return &Dataset{index: make(map[tag.Tag]*Element)}
}

// Append adds e to the dataset, preserving encounter order. A later
// Append of a duplicate tag overwrites the indexed lookup but both
// elements remain in Elements(), matching how a malformed but
// AllowPartialObject-tolerated stream might repeat a tag.
func (d *Dataset) Append(e *Element) {
	d.elements = append(d.elements, e)
	d.index[e.Tag] = e
}

// Elements returns the dataset's elements in stream encounter order. The
// returned slice is owned by the Dataset and must not be modified.
func (d *Dataset) Elements() []*Element {
	return d.elements
}

// Len returns the number of elements in the dataset.
func (d *Dataset) Len() int {
	return len(d.elements)
}

// Find looks up the element with tag t.
func (d *Dataset) Find(t tag.Tag) (*Element, bool) {
	e, ok := d.index[t]
	return e, ok
}

// MustFind looks up the element with tag t, returning nil if absent.
func (d *Dataset) MustFind(t tag.Tag) *Element {
	return d.index[t]
}

// GetString returns the first string component of tag t's value, or ""
// if the tag is absent or not string-valued.
func (d *Dataset) GetString(t tag.Tag) string {
	e, ok := d.Find(t)
	if !ok {
		return ""
	}
	sv, ok := e.Value.(StringsValue)
	if !ok || len(sv) == 0 {
		return ""
	}
	return sv[0]
}

// TransferSyntaxUID returns the value of (0002,0010), or "" if absent.
// Meaningful only on the top-level dataset of a parsed file.
func (d *Dataset) TransferSyntaxUID() string {
	return d.GetString(tag.Tag{Group: 0x0002, Element: 0x0010})
}

// SpecificCharacterSet returns the raw component values of (0008,0005),
// or nil if the element is absent.
func (d *Dataset) SpecificCharacterSet() []string {
	e, ok := d.Find(tag.Tag{Group: 0x0008, Element: 0x0005})
	if !ok {
		return nil
	}
	sv, _ := e.Value.(StringsValue)
	return []string(sv)
}
