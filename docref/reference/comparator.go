package reference

import "github.com/krew-solutions/docref-go/docref/document"

// CompareAgainstReferenceIndex orders two raw result documents by the first
// disjunction branch either of them satisfies: a document whose entries are
// a superset of a branch's entries precedes one whose entries are not.
//
// When no branch distinguishes the pair the branch count is returned as a
// weak positive tie-break. Branch predicates may overlap, so this is not a
// strict total order; callers must use a stable sort.
func CompareAgainstReferenceIndex(branches []document.Document, d1, d2 document.Document) int {
	for _, branch := range branches {
		if d1.ContainsAll(branch) {
			return -1
		}
		if d2.ContainsAll(branch) {
			return 1
		}
	}
	return len(branches)
}
