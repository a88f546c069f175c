package reference

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/docref-go/docref/document"
	"github.com/krew-solutions/docref-go/docref/expression"
	"github.com/krew-solutions/docref-go/docref/mapping"
)

// countingLoader serves canned documents and counts datastore hits.
type countingLoader struct {
	docs       []document.Document
	err        error
	fetchOnes  int
	fetchManys int
}

func (l *countingLoader) FetchOne(ctx context.Context, target Context, filter document.Document) (document.Document, bool, error) {
	l.fetchOnes++
	if l.err != nil {
		return document.Document{}, false, l.err
	}
	if len(l.docs) == 0 {
		return document.Document{}, false, nil
	}
	return l.docs[0], true, nil
}

func (l *countingLoader) FetchMany(ctx context.Context, target Context, filter document.Document) ([]document.Document, error) {
	l.fetchManys++
	if l.err != nil {
		return nil, l.err
	}
	return l.docs, nil
}

func newTestResolver(t *testing.T, loader ReferenceLoader) *Resolver {
	t.Helper()
	resolver, err := NewResolver(loader, NewReader(expression.NewPathEvaluator()), passthroughConvert)
	require.NoError(t, err)
	return resolver
}

func TestNewResolver(t *testing.T) {
	reader := NewReader(expression.NewPathEvaluator())

	t.Run("nil loader", func(t *testing.T) {
		_, err := NewResolver(nil, reader, passthroughConvert)
		assert.Error(t, err)
	})
	t.Run("nil reader", func(t *testing.T) {
		_, err := NewResolver(&countingLoader{}, nil, passthroughConvert)
		assert.Error(t, err)
	})
	t.Run("nil convert", func(t *testing.T) {
		_, err := NewResolver(&countingLoader{}, reader, nil)
		assert.Error(t, err)
	})
}

func TestResolveEager(t *testing.T) {
	t.Run("single property fetches one", func(t *testing.T) {
		loader := &countingLoader{docs: []document.Document{document.MustParse(`{"_id": "id-1"}`)}}
		resolver := newTestResolver(t, loader)

		result, err := resolver.Resolve(context.Background(), templatedProperty(mapping.DocumentReference{}, false), "id-1")
		require.NoError(t, err)
		assert.Equal(t, 1, loader.fetchOnes)
		assert.Equal(t, 0, loader.fetchManys)

		v, _ := result.(document.Document).GetString("_id")
		assert.Equal(t, "id-1", v)
	})
	t.Run("collection property fetches many", func(t *testing.T) {
		loader := &countingLoader{docs: []document.Document{
			document.MustParse(`{"_id": "a"}`),
			document.MustParse(`{"_id": "b"}`),
		}}
		resolver := newTestResolver(t, loader)

		result, err := resolver.Resolve(context.Background(), templatedProperty(mapping.DocumentReference{}, true), []any{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, 0, loader.fetchOnes)
		assert.Equal(t, 1, loader.fetchManys)
		assert.Len(t, result.([]any), 2)
	})
	t.Run("missing single target resolves to nil", func(t *testing.T) {
		resolver := newTestResolver(t, &countingLoader{})
		result, err := resolver.Resolve(context.Background(), templatedProperty(mapping.DocumentReference{}, false), "id-1")
		require.NoError(t, err)
		assert.Nil(t, result)
	})
}

func TestResolveLazy(t *testing.T) {
	lazyRef := mapping.DocumentReference{Lazy: true}

	t.Run("resolution is deferred until first access", func(t *testing.T) {
		loader := &countingLoader{docs: []document.Document{document.MustParse(`{"_id": "id-1"}`)}}
		resolver := newTestResolver(t, loader)

		result, err := resolver.Resolve(context.Background(), templatedProperty(lazyRef, false), "id-1")
		require.NoError(t, err)

		association, ok := result.(*Association)
		require.True(t, ok)
		assert.False(t, association.IsResolved())
		assert.Equal(t, 0, loader.fetchOnes)

		value, err := association.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, loader.fetchOnes)
		v, _ := value.(document.Document).GetString("_id")
		assert.Equal(t, "id-1", v)
	})
	t.Run("repeated access hits the datastore once", func(t *testing.T) {
		loader := &countingLoader{docs: []document.Document{document.MustParse(`{"_id": "id-1"}`)}}
		resolver := newTestResolver(t, loader)

		result, err := resolver.Resolve(context.Background(), templatedProperty(lazyRef, false), "id-1")
		require.NoError(t, err)
		association := result.(*Association)

		for i := 0; i < 1000; i++ {
			_, err := association.Get(context.Background())
			require.NoError(t, err)
		}
		assert.Equal(t, 1, loader.fetchOnes)
	})
	t.Run("lazy legacy reference", func(t *testing.T) {
		loader := &countingLoader{docs: []document.Document{document.MustParse(`{"_id": "id-1"}`)}}
		resolver := newTestResolver(t, loader)

		p := legacyProperty(false)
		p.Legacy = &mapping.DBRef{Lazy: true}
		result, err := resolver.Resolve(context.Background(), p, "id-1")
		require.NoError(t, err)
		_, ok := result.(*Association)
		assert.True(t, ok)
		assert.Equal(t, 0, loader.fetchOnes)
	})
	t.Run("resolution failure is cached", func(t *testing.T) {
		loader := &countingLoader{err: errors.New("datastore down")}
		resolver := newTestResolver(t, loader)

		result, err := resolver.Resolve(context.Background(), templatedProperty(lazyRef, false), "id-1")
		require.NoError(t, err)
		association := result.(*Association)

		_, firstErr := association.Get(context.Background())
		require.Error(t, firstErr)
		_, secondErr := association.Get(context.Background())
		assert.Equal(t, firstErr, secondErr)
		assert.Equal(t, 1, loader.fetchOnes)
		assert.True(t, association.IsResolved())
	})
}
