package netdicom

import (
	"github.com/gobwas/glob"

	"github.com/cortexmed/dicom"
	"github.com/cortexmed/dicom/pkg/tag"
)

// QueryFromDataset flattens ds's string-valued elements into a
// tag-to-value map, the shape MatchQuery and the Find/Get/Move handlers
// operate on. Sequences and binary-valued attributes are omitted: C-FIND
// identifier matching (PS3.4 C.2.2) is defined over the string-family
// VRs.
func QueryFromDataset(ds *dicom.Dataset) map[tag.Tag]string {
	elems := ds.Elements()
	out := make(map[tag.Tag]string, len(elems))
	for _, e := range elems {
		if sv, ok := e.Value.(dicom.StringsValue); ok && len(sv) > 0 {
			out[e.Tag] = sv[0]
		}
	}
	return out
}

// MatchQuery reports whether candidate satisfies query under PS3.4
// C.2.2.2's wildcard matching: "*" matches any sequence of characters,
// "?" matches any single character. A query value that is empty or "*"
// is a universal match (C.2.2.4, "universal matching"); a key query
// doesn't mention is unconstrained. Values that aren't valid glob
// patterns fall back to an exact string comparison, covering the
// single-value-matching case (C.2.2.1) where the query value carries no
// wildcard at all.
func MatchQuery(query, candidate map[tag.Tag]string) bool {
	for t, pattern := range query {
		if pattern == "" || pattern == "*" {
			continue
		}
		value, ok := candidate[t]
		if !ok {
			return false
		}
		g, err := glob.Compile(pattern)
		if err != nil {
			if value != pattern {
				return false
			}
			continue
		}
		if !g.Match(value) {
			return false
		}
	}
	return true
}
