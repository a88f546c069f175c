package reference

import (
	"github.com/pkg/errors"

	"github.com/krew-solutions/docref-go/docref/document"
	"github.com/krew-solutions/docref-go/docref/expression"
	"github.com/krew-solutions/docref-go/docref/mapping"
	"github.com/krew-solutions/docref-go/docref/option"
	"github.com/krew-solutions/docref-go/docref/template"
)

// Embedded reference structures may carry their own target hints.
const (
	databaseHint   = "db"
	collectionHint = "collection"
)

// ContextBuilder computes the effective lookup target for one association
// occurrence by combining descriptor metadata, hints embedded in the stored
// reference value, and evaluated expressions.
type ContextBuilder struct {
	codec     *template.Codec
	evaluator expression.Evaluator
}

func NewContextBuilder(evaluator expression.Evaluator) *ContextBuilder {
	return &ContextBuilder{
		codec:     template.NewCodec(evaluator),
		evaluator: evaluator,
	}
}

// ComputeContext resolves the (database, collection, sort) triple for the
// given reference value. A sequence value contributes only its first
// element: all branches of a multi-valued association share one context.
func (b *ContextBuilder) ComputeContext(p mapping.Property, value any) (Context, error) {
	if seq, ok := sequenceOf(value); ok {
		if len(seq) == 0 {
			value = nil
		} else {
			value = seq[0]
		}
	}

	ref, templated := p.DocumentReference()

	if doc, ok := value.(document.Document); ok {
		if templated {
			return b.templatedContext(p, ref, doc, func() option.Option[string] {
				return embeddedCollection(doc, p)
			}, func() option.Option[string] {
				if db, ok := doc.GetString(databaseHint); ok && db != "" {
					return option.Some(db)
				}
				return option.Nothing[string]()
			})
		}
		// Legacy reference token carrying its own hints.
		db := option.Nothing[string]()
		if hint, ok := doc.GetString(databaseHint); ok && hint != "" {
			db = option.Some(hint)
		}
		return NewContext(db, embeddedCollection(doc, p), document.Document{}), nil
	}

	if templated {
		return b.templatedContext(p, ref, value, func() option.Option[string] {
			return option.Some(p.TargetCollection())
		}, option.Nothing[string])
	}

	return NewContext(option.Nothing[string](), option.Some(p.TargetCollection()), document.Document{}), nil
}

func (b *ContextBuilder) templatedContext(
	p mapping.Property,
	ref mapping.DocumentReference,
	value any,
	collectionFallback func() option.Option[string],
	databaseFallback func() option.Option[string],
) (Context, error) {
	binding := expression.NewBinding(value, p.Name())

	database, err := b.stringValue(ref.Database, binding, databaseFallback)
	if err != nil {
		return Context{}, errors.WithMessage(err, "compute target database")
	}

	collection, err := b.stringValue(ref.Collection, binding, collectionFallback)
	if err != nil {
		return Context{}, errors.WithMessage(err, "compute target collection")
	}
	// An unresolvable collection would make the lookup impossible; the
	// target entity's default always applies last.
	if collection.IsNothing() {
		collection = option.Some(p.TargetCollection())
	}

	sort, err := b.sortValue(ref.Sort, binding)
	if err != nil {
		return Context{}, errors.WithMessage(err, "compute sort")
	}

	return NewContext(database, collection, sort), nil
}

// stringValue evaluates a configured template string, falling back when the
// template is empty or evaluates to nothing.
func (b *ContextBuilder) stringValue(
	tmpl string,
	binding expression.Binding,
	fallback func() option.Option[string],
) (option.Option[string], error) {
	if tmpl == "" {
		return fallback(), nil
	}
	value, err := b.evalTemplate(tmpl, binding)
	if err != nil {
		return option.Nothing[string](), err
	}
	if value == nil {
		return fallback(), nil
	}
	s, ok := value.(string)
	if !ok {
		return option.Nothing[string](), errors.Errorf("template %q evaluated to %T, want string", tmpl, value)
	}
	if s == "" {
		return fallback(), nil
	}
	return option.Some(s), nil
}

func (b *ContextBuilder) sortValue(tmpl string, binding expression.Binding) (document.Document, error) {
	if tmpl == "" {
		return document.Document{}, nil
	}
	value, err := b.evalTemplate(tmpl, binding)
	if err != nil {
		return document.Document{}, err
	}
	if value == nil {
		return document.Document{}, nil
	}
	doc, ok := value.(document.Document)
	if !ok {
		return document.Document{}, errors.Errorf("sort template %q evaluated to %T, want document", tmpl, value)
	}
	return doc, nil
}

// evalTemplate dispatches on template shape: whole documents decode through
// the codec, fragments with embedded expressions bind to a single value,
// and anything else is handed to the evaluator as one expression.
func (b *ContextBuilder) evalTemplate(tmpl string, binding expression.Binding) (any, error) {
	switch {
	case template.IsJSONDocument(tmpl):
		doc, err := b.codec.Decode(tmpl, binding)
		if err != nil {
			return nil, err
		}
		return doc, nil
	case template.HasExpression(tmpl):
		return b.codec.DecodeValue(tmpl, binding)
	default:
		return b.evaluator.Evaluate(tmpl, binding)
	}
}

func embeddedCollection(doc document.Document, p mapping.Property) option.Option[string] {
	if hint, ok := doc.GetString(collectionHint); ok && hint != "" {
		return option.Some(hint)
	}
	return option.Some(p.TargetCollection())
}
