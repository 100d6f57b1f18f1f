// Package tagpath defines the sequence-path addressing used to locate an
// element nested inside zero or more sequence items.
package tagpath

import (
	"fmt"
	"strings"

	"github.com/cortexmed/dicom/pkg/tag"
)

// Node identifies one step into a sequence: the sequence's tag, and the
// zero-based index of the item within that sequence.
type Node struct {
	Tag       tag.Tag
	ItemIndex int
}

func (n Node) String() string {
	return fmt.Sprintf("%s[%d]", n.Tag, n.ItemIndex)
}

// Path is the list of Nodes from the dataset root to an element's
// containing item, outermost first. An empty Path means the element is a
// direct child of the dataset root.
type Path []Node

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = n.String()
	}
	return strings.Join(parts, "/")
}

// Append returns a new Path with n appended, leaving p unmodified.
func (p Path) Append(n Node) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = n
	return out
}

// HasPrefix reports whether p starts with every node in prefix, in order.
// Used by stop-condition evaluation "inside a sequence-path".
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i, n := range prefix {
		if p[i] != n {
			return false
		}
	}
	return true
}

// Depth is the nesting depth of the path (number of item boundaries
// crossed to reach it).
func (p Path) Depth() int {
	return len(p)
}
