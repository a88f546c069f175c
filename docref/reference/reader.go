package reference

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/krew-solutions/docref-go/docref/document"
	"github.com/krew-solutions/docref-go/docref/expression"
	"github.com/krew-solutions/docref-go/docref/mapping"
)

const idKey = "_id"

// Reader orchestrates one resolution pass: compute filter and context,
// invoke the supplied lookup, re-associate results with their original
// reference order, convert.
type Reader struct {
	filters  *FilterBuilder
	contexts *ContextBuilder
}

func NewReader(evaluator expression.Evaluator) *Reader {
	return &Reader{
		filters:  NewFilterBuilder(evaluator),
		contexts: NewContextBuilder(evaluator),
	}
}

// ReadReference resolves the association value stored under p.
//
// Only collection-like associations yield an ordered []any; everything
// else, map properties included, yields the first converted document or nil
// when the lookup comes back empty. When the filter was built as a
// disjunction the results are reordered to replay branch order first. A
// lookup returning fewer documents than reference branches yields a
// correspondingly shorter sequence: partially deleted targets are not an
// error.
func (r *Reader) ReadReference(
	ctx context.Context,
	p mapping.Property,
	value any,
	lookup LookupFunc,
	convert ConvertFunc,
) (any, error) {
	kind := mapping.KindOf(p)

	filter, err := r.computeFilter(kind, p, value)
	if err != nil {
		return nil, err
	}

	target, err := r.contexts.ComputeContext(p, value)
	if err != nil {
		return nil, err
	}

	result, err := lookup(ctx, target, filter)
	if err != nil {
		return nil, errors.WithMessagef(err, "lookup %q", p.Name())
	}

	if !p.IsCollectionLike() {
		if len(result) == 0 {
			return nil, nil
		}
		return convert(p, result[0])
	}

	if branches, ok := OrBranches(filter); ok {
		// Stable: the comparator's tie-break is weak by contract.
		sort.SliceStable(result, func(i, j int) bool {
			return CompareAgainstReferenceIndex(branches, result[i], result[j]) < 0
		})
	}

	converted := make([]any, 0, len(result))
	for _, raw := range result {
		obj, err := convert(p, raw)
		if err != nil {
			return nil, err
		}
		converted = append(converted, obj)
	}
	return converted, nil
}

func (r *Reader) computeFilter(kind mapping.Kind, p mapping.Property, value any) (document.Document, error) {
	if kind.IsTemplated() {
		return r.filters.ComputeFilter(p, value)
	}
	return legacyFilter(kind, value), nil
}

// legacyFilter is plain identifier equality; the lookup capability owns the
// exact matching semantics for legacy references.
func legacyFilter(kind mapping.Kind, value any) document.Document {
	if kind.IsMulti() {
		if values, ok := sequenceOf(value); ok {
			return document.New().Set(idKey, document.New().Set("$in", values))
		}
	}
	if doc, ok := value.(document.Document); ok {
		if id, found := doc.Get(idKey); found {
			return document.New().Set(idKey, id)
		}
	}
	return document.New().Set(idKey, value)
}
