package reference

import (
	"reflect"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/krew-solutions/docref-go/docref/document"
	"github.com/krew-solutions/docref-go/docref/expression"
	"github.com/krew-solutions/docref-go/docref/mapping"
	"github.com/krew-solutions/docref-go/docref/template"
)

const orKey = "$or"

// FilterBuilder constructs the query filter for one or many reference
// values. Requires a filter template; legacy references use identifier
// equality instead and never reach this component.
type FilterBuilder struct {
	codec *template.Codec
}

func NewFilterBuilder(evaluator expression.Evaluator) *FilterBuilder {
	return &FilterBuilder{codec: template.NewCodec(evaluator)}
}

// ComputeFilter decodes the property's filter template against the
// reference value. A sequence of N values produces a $or disjunction with
// exactly N branches in input order; that order is the only record of which
// branch corresponds to which original reference, consumed later when
// results are reordered.
func (b *FilterBuilder) ComputeFilter(p mapping.Property, value any) (document.Document, error) {
	ref, ok := p.DocumentReference()
	if !ok {
		return document.Document{}, errors.WithMessagef(ErrNoLookup, "property %q", p.Name())
	}
	lookup := ref.LookupOrDefault()

	if mapping.KindOf(p).IsMulti() {
		if values, ok := sequenceOf(value); ok {
			return b.disjunction(p, lookup, values)
		}
	}

	return b.codec.Decode(lookup, expression.NewBinding(value, p.Name()))
}

func (b *FilterBuilder) disjunction(p mapping.Property, lookup string, values []any) (document.Document, error) {
	branches := make([]any, 0, len(values))
	var decodeErr *multierror.Error
	for i, value := range values {
		// Each branch gets its own binding addressing only that element.
		branch, err := b.codec.Decode(lookup, expression.NewBinding(value, p.Name()))
		if err != nil {
			decodeErr = multierror.Append(decodeErr, errors.WithMessagef(err, "branch %d", i))
			continue
		}
		branches = append(branches, branch)
	}
	if err := decodeErr.ErrorOrNil(); err != nil {
		return document.Document{}, err
	}
	return document.New().Set(orKey, branches), nil
}

// OrBranches recovers the disjunction branches of a computed filter, in
// original reference order.
func OrBranches(filter document.Document) ([]document.Document, bool) {
	v, ok := filter.Get(orKey)
	if !ok {
		return nil, false
	}
	branches := document.Documents(v)
	return branches, len(branches) > 0
}

// sequenceOf normalizes a multi-valued reference into a []any slice.
func sequenceOf(value any) ([]any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case []any:
		return v, true
	case []document.Document:
		items := make([]any, len(v))
		for i, doc := range v {
			items[i] = doc
		}
		return items, true
	case document.Document, string, []byte:
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
