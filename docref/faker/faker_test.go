package faker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextID(t *testing.T) {
	t.Run("strictly increasing", func(t *testing.T) {
		prev := NextID()
		for i := 0; i < 100; i++ {
			id := NextID()
			assert.Greater(t, id, prev)
			prev = id
		}
	})
}

func TestPublisher(t *testing.T) {
	doc := Publisher()

	id, ok := doc.GetString("_id")
	require.True(t, ok)
	assert.NotEmpty(t, id)

	name, ok := doc.GetString("name")
	require.True(t, ok)
	assert.NotEmpty(t, name)
}

func TestBook(t *testing.T) {
	doc := Book("pub-1")

	id, ok := doc.GetString("_id")
	require.True(t, ok)
	assert.NotEmpty(t, id)

	publisherID, ok := doc.GetString("publisherId")
	require.True(t, ok)
	assert.Equal(t, "pub-1", publisherID)
}
