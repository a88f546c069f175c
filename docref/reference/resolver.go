// Package reference implements the resolution engine for cross-document
// associations: filter and target computation, multi-reference ordering
// reconstruction, and deferred resolution for lazy associations.
package reference

import (
	"context"

	"github.com/pkg/errors"

	"github.com/krew-solutions/docref-go/docref/document"
	"github.com/krew-solutions/docref-go/docref/mapping"
)

// Resolver is the entry point invoked by the mapping layer, once per
// association property during object hydration. It decides eager versus
// lazy resolution; everything else is delegated to the Reader.
type Resolver struct {
	loader  ReferenceLoader
	reader  *Reader
	convert ConvertFunc
}

func NewResolver(loader ReferenceLoader, reader *Reader, convert ConvertFunc) (*Resolver, error) {
	if loader == nil {
		return nil, errors.New("reference loader must not be nil")
	}
	if reader == nil {
		return nil, errors.New("reader must not be nil")
	}
	if convert == nil {
		return nil, errors.New("convert func must not be nil")
	}
	return &Resolver{loader: loader, reader: reader, convert: convert}, nil
}

// Resolve resolves the association value stored under p. Lazy associations
// return an unresolved *Association instead of hitting the datastore; the
// first access resolves through the same pipeline.
func (r *Resolver) Resolve(ctx context.Context, p mapping.Property, value any) (any, error) {
	lookup := r.lookupFunctionFor(p)

	if mapping.IsLazy(p) {
		return DeferredAssociation(func(ctx context.Context) (any, error) {
			return r.reader.ReadReference(ctx, p, value, lookup, r.convert)
		}), nil
	}

	return r.reader.ReadReference(ctx, p, value, lookup, r.convert)
}

// lookupFunctionFor selects the lookup shape by multiplicity:
// collection-like and map properties fetch many, everything else fetches
// one and wraps it as an at-most-one-element sequence.
func (r *Resolver) lookupFunctionFor(p mapping.Property) LookupFunc {
	if p.IsCollectionLike() || p.IsMap() {
		return r.loader.FetchMany
	}
	return func(ctx context.Context, target Context, filter document.Document) ([]document.Document, error) {
		doc, found, err := r.loader.FetchOne(ctx, target, filter)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		return []document.Document{doc}, nil
	}
}
