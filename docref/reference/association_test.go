package reference

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	json "github.com/goccy/go-json"
)

func TestResolvedAssociation(t *testing.T) {
	association := ResolvedAssociation("value")

	assert.True(t, association.IsResolved())
	v, err := association.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "value", v)
}

func TestDeferredAssociation(t *testing.T) {
	t.Run("thunk runs exactly once", func(t *testing.T) {
		calls := 0
		association := DeferredAssociation(func(ctx context.Context) (any, error) {
			calls++
			return "value", nil
		})

		assert.False(t, association.IsResolved())
		assert.Equal(t, 0, calls)

		for i := 0; i < 5; i++ {
			v, err := association.Get(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "value", v)
		}
		assert.Equal(t, 1, calls)
		assert.True(t, association.IsResolved())
	})
	t.Run("nil value is cached like any other", func(t *testing.T) {
		calls := 0
		association := DeferredAssociation(func(ctx context.Context) (any, error) {
			calls++
			return nil, nil
		})

		v, err := association.Get(context.Background())
		require.NoError(t, err)
		assert.Nil(t, v)
		assert.True(t, association.IsResolved())

		_, err = association.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})
	t.Run("error is cached", func(t *testing.T) {
		calls := 0
		wantErr := errors.New("resolution failed")
		association := DeferredAssociation(func(ctx context.Context) (any, error) {
			calls++
			return nil, wantErr
		})

		_, err := association.Get(context.Background())
		assert.Equal(t, wantErr, err)
		_, err = association.Get(context.Background())
		assert.Equal(t, wantErr, err)
		assert.Equal(t, 1, calls)
		assert.True(t, association.IsResolved())
	})
	t.Run("is-resolved does not trigger resolution", func(t *testing.T) {
		calls := 0
		association := DeferredAssociation(func(ctx context.Context) (any, error) {
			calls++
			return "value", nil
		})

		for i := 0; i < 3; i++ {
			assert.False(t, association.IsResolved())
		}
		assert.Equal(t, 0, calls)
	})
	t.Run("context reaches the thunk", func(t *testing.T) {
		type key struct{}
		association := DeferredAssociation(func(ctx context.Context) (any, error) {
			return ctx.Value(key{}), nil
		})

		v, err := association.Get(context.WithValue(context.Background(), key{}, "marker"))
		require.NoError(t, err)
		assert.Equal(t, "marker", v)
	})
}

func TestAssociationMarshalJSON(t *testing.T) {
	t.Run("marshaling forces resolution", func(t *testing.T) {
		calls := 0
		association := DeferredAssociation(func(ctx context.Context) (any, error) {
			calls++
			return map[string]any{"name": "DAW"}, nil
		})

		raw, err := json.Marshal(association)
		require.NoError(t, err)
		assert.JSONEq(t, `{"name": "DAW"}`, string(raw))
		assert.Equal(t, 1, calls)
	})
	t.Run("resolution failure fails marshaling", func(t *testing.T) {
		association := DeferredAssociation(func(ctx context.Context) (any, error) {
			return nil, errors.New("resolution failed")
		})
		_, err := json.Marshal(association)
		assert.Error(t, err)
	})
}
