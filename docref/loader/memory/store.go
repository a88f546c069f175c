// Package memory provides an in-process ReferenceLoader: databases of
// collections of ordered documents, with filter matching done by the query
// engine. Natural order is insertion order.
package memory

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/krew-solutions/docref-go/docref/document"
	"github.com/krew-solutions/docref-go/docref/query"
	"github.com/krew-solutions/docref-go/docref/reference"
)

// DefaultDatabase is used when a lookup context names none.
const DefaultDatabase = "default"

// Store implements reference.ReferenceLoader.
type Store struct {
	databases map[string]map[string][]document.Document
	matcher   query.Matcher
}

func NewStore() *Store {
	return &Store{databases: map[string]map[string][]document.Document{}}
}

// Insert appends documents to a collection, creating database and
// collection on first use.
func (s *Store) Insert(database, collection string, docs ...document.Document) *Store {
	collections, ok := s.databases[database]
	if !ok {
		collections = map[string][]document.Document{}
		s.databases[database] = collections
	}
	collections[collection] = append(collections[collection], docs...)
	return s
}

// Seed is Insert into the default database.
func (s *Store) Seed(collection string, docs ...document.Document) *Store {
	return s.Insert(DefaultDatabase, collection, docs...)
}

func (s *Store) FetchOne(ctx context.Context, target reference.Context, filter document.Document) (document.Document, bool, error) {
	docs, err := s.FetchMany(ctx, target, filter)
	if err != nil {
		return document.Document{}, false, err
	}
	if len(docs) == 0 {
		return document.Document{}, false, nil
	}
	return docs[0], true, nil
}

func (s *Store) FetchMany(ctx context.Context, target reference.Context, filter document.Document) ([]document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	collection, err := s.collectionFor(target)
	if err != nil {
		return nil, err
	}

	op, err := query.ParseFilter(filter)
	if err != nil {
		return nil, errors.WithMessage(err, "parse filter")
	}

	var matched []document.Document
	for _, doc := range collection {
		ok, err := s.matcher.Matches(op, doc)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, doc)
		}
	}

	if sortSpec, ok := target.Sort(); ok {
		sortDocuments(matched, sortSpec)
	}
	return matched, nil
}

func (s *Store) collectionFor(target reference.Context) ([]document.Document, error) {
	if target.Collection().IsNothing() {
		return nil, errors.New("lookup context names no collection")
	}
	database := target.Database().UnwrapOr(DefaultDatabase)
	return s.databases[database][target.Collection().Unwrap()], nil
}

func sortDocuments(docs []document.Document, spec document.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, entry := range spec.Entries() {
			direction := 1.0
			if d, ok := entry.Value.(float64); ok && d < 0 {
				direction = -1
			}
			a, _ := docs[i].Get(entry.Key)
			b, _ := docs[j].Get(entry.Key)
			cmp := compareValues(a, b)
			if cmp != 0 {
				return float64(cmp)*direction < 0
			}
		}
		return false
	})
}

func compareValues(a, b any) int {
	if an, ok := a.(float64); ok {
		if bn, ok := b.(float64); ok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			}
			return 0
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		}
	}
	return 0
}
