package tagpath_test

import (
	"testing"

	"github.com/cortexmed/dicom/pkg/tag"
	"github.com/cortexmed/dicom/pkg/tagpath"
)

func TestPathString(t *testing.T) {
	p := tagpath.Path{
		{Tag: tag.Tag{Group: 0x0008, Element: 0x1140}, ItemIndex: 0},
		{Tag: tag.Tag{Group: 0x0008, Element: 0x1150}, ItemIndex: 2},
	}
	want := "(0008,1140)[0]/(0008,1150)[2]"
	if got := p.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestAppendLeavesOriginalUnmodified(t *testing.T) {
	base := tagpath.Path{{Tag: tag.Tag{Group: 0x0008, Element: 0x1140}, ItemIndex: 0}}
	extended := base.Append(tagpath.Node{Tag: tag.Tag{Group: 0x0008, Element: 0x1150}, ItemIndex: 1})

	if len(base) != 1 {
		t.Fatalf("Append mutated base path: %v", base)
	}
	if len(extended) != 2 {
		t.Fatalf("extended path has wrong length: %v", extended)
	}
}

func TestHasPrefix(t *testing.T) {
	seq := tag.Tag{Group: 0x0008, Element: 0x1140}
	root := tagpath.Path{}
	level1 := tagpath.Path{{Tag: seq, ItemIndex: 0}}
	level2 := level1.Append(tagpath.Node{Tag: seq, ItemIndex: 1})

	if !level2.HasPrefix(root) {
		t.Error("every path should have the empty root as a prefix")
	}
	if !level2.HasPrefix(level1) {
		t.Error("level2 should have level1 as a prefix")
	}
	if level1.HasPrefix(level2) {
		t.Error("a shorter path cannot have a longer one as a prefix")
	}

	other := tagpath.Path{{Tag: tag.Tag{Group: 0x0008, Element: 0x9999}, ItemIndex: 0}}
	if level2.HasPrefix(other) {
		t.Error("unrelated prefix should not match")
	}
}

func TestDepth(t *testing.T) {
	var p tagpath.Path
	if p.Depth() != 0 {
		t.Errorf("Depth() of root = %d, want 0", p.Depth())
	}
	p = p.Append(tagpath.Node{Tag: tag.Tag{Group: 0x0008, Element: 0x1140}})
	if p.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", p.Depth())
	}
}
