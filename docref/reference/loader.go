package reference

import (
	"context"

	"github.com/pkg/errors"

	"github.com/krew-solutions/docref-go/docref/document"
	"github.com/krew-solutions/docref-go/docref/mapping"
)

// ErrNoLookup is the configuration error for a filter-template association
// whose descriptor carries no template.
var ErrNoLookup = errors.New("association has no filter template")

// ReferenceLoader executes a prepared lookup against the datastore. It is
// the only operation in this layer allowed to block or perform I/O. It must
// accept the already-built filter and context and must not re-derive either.
type ReferenceLoader interface {
	// FetchOne returns at most one matching document.
	FetchOne(ctx context.Context, target Context, filter document.Document) (document.Document, bool, error)

	// FetchMany returns all matching documents. Result order is the
	// datastore's natural (or sorted) order; reordering against reference
	// branches is the reader's job, not the loader's.
	FetchMany(ctx context.Context, target Context, filter document.Document) ([]document.Document, error)
}

// LookupFunc is the lookup capability handed to the Reader: both fetch
// shapes unified down to one sequence-based contract.
type LookupFunc func(ctx context.Context, target Context, filter document.Document) ([]document.Document, error)

// ConvertFunc turns a raw result document into a domain object. Conversion
// failures propagate unchanged through the reader.
type ConvertFunc func(p mapping.Property, raw document.Document) (any, error)
