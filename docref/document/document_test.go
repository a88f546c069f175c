package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("preserves key order", func(t *testing.T) {
		doc, err := Parse(`{"z": 1, "a": 2, "m": 3}`)
		require.NoError(t, err)
		assert.Equal(t, []string{"z", "a", "m"}, doc.Keys())
		assert.Equal(t, []any{1.0, 2.0, 3.0}, doc.Values())
	})
	t.Run("nested objects become documents", func(t *testing.T) {
		doc, err := Parse(`{"outer": {"inner": "value"}}`)
		require.NoError(t, err)
		nested, ok := doc.GetDocument("outer")
		require.True(t, ok)
		inner, ok := nested.GetString("inner")
		require.True(t, ok)
		assert.Equal(t, "value", inner)
	})
	t.Run("arrays keep element order", func(t *testing.T) {
		doc, err := Parse(`{"items": [3, 1, 2]}`)
		require.NoError(t, err)
		items, ok := doc.Get("items")
		require.True(t, ok)
		assert.Equal(t, []any{3.0, 1.0, 2.0}, items)
	})
	t.Run("array of objects", func(t *testing.T) {
		doc, err := Parse(`{"refs": [{"id": 1}, {"id": 2}]}`)
		require.NoError(t, err)
		refs, _ := doc.Get("refs")
		branches := Documents(refs)
		require.Len(t, branches, 2)
		id, _ := branches[1].Get("id")
		assert.Equal(t, 2.0, id)
	})
	t.Run("invalid json", func(t *testing.T) {
		_, err := Parse(`{"broken":`)
		assert.Error(t, err)
	})
	t.Run("not an object", func(t *testing.T) {
		_, err := Parse(`[1, 2, 3]`)
		assert.Error(t, err)
	})
}

func TestSet(t *testing.T) {
	t.Run("appends new keys in order", func(t *testing.T) {
		doc := New().Set("b", 1).Set("a", 2)
		assert.Equal(t, []string{"b", "a"}, doc.Keys())
	})
	t.Run("overwrite keeps original position", func(t *testing.T) {
		doc := New().Set("b", 1).Set("a", 2).Set("b", 3)
		assert.Equal(t, []string{"b", "a"}, doc.Keys())
		v, _ := doc.Get("b")
		assert.Equal(t, 3, v)
	})
	t.Run("zero document", func(t *testing.T) {
		var doc Document
		doc = doc.Set("key", "value")
		v, ok := doc.GetString("key")
		require.True(t, ok)
		assert.Equal(t, "value", v)
	})
}

func TestContainsAll(t *testing.T) {
	doc := MustParse(`{"firstname": "Luke", "lastname": "Skywalker", "side": "light"}`)

	t.Run("subset matches", func(t *testing.T) {
		assert.True(t, doc.ContainsAll(MustParse(`{"firstname": "Luke"}`)))
	})
	t.Run("full match", func(t *testing.T) {
		assert.True(t, doc.ContainsAll(doc))
	})
	t.Run("value mismatch", func(t *testing.T) {
		assert.False(t, doc.ContainsAll(MustParse(`{"firstname": "Leia"}`)))
	})
	t.Run("missing key", func(t *testing.T) {
		assert.False(t, doc.ContainsAll(MustParse(`{"age": 23}`)))
	})
	t.Run("nested documents compare deeply", func(t *testing.T) {
		outer := MustParse(`{"ref": {"id": 7, "kind": "x"}, "extra": true}`)
		assert.True(t, outer.ContainsAll(MustParse(`{"ref": {"kind": "x", "id": 7}}`)))
		assert.False(t, outer.ContainsAll(MustParse(`{"ref": {"id": 8}}`)))
	})
	t.Run("empty subset always matches", func(t *testing.T) {
		assert.True(t, doc.ContainsAll(New()))
	})
}

func TestEqual(t *testing.T) {
	t.Run("order independent", func(t *testing.T) {
		a := MustParse(`{"x": 1, "y": 2}`)
		b := MustParse(`{"y": 2, "x": 1}`)
		assert.True(t, a.Equal(b))
	})
	t.Run("extra field breaks equality", func(t *testing.T) {
		a := MustParse(`{"x": 1}`)
		b := MustParse(`{"x": 1, "y": 2}`)
		assert.False(t, a.Equal(b))
		assert.False(t, b.Equal(a))
	})
}

func TestMarshalJSON(t *testing.T) {
	t.Run("emits insertion order", func(t *testing.T) {
		doc := New().Set("z", 1).Set("a", "two").Set("m", New().Set("n", true))
		assert.Equal(t, `{"z":1,"a":"two","m":{"n":true}}`, doc.String())
	})
	t.Run("round trip", func(t *testing.T) {
		raw := `{"_id":"abc","nested":{"k":1},"list":[1,2]}`
		doc := MustParse(raw)
		assert.Equal(t, raw, doc.String())
	})
}

func TestMap(t *testing.T) {
	doc := MustParse(`{"a": {"b": 1}, "c": [{"d": 2}]}`)
	plain := doc.Map()

	inner, ok := plain["a"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1.0, inner["b"])

	list, ok := plain["c"].([]any)
	require.True(t, ok)
	item, ok := list[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2.0, item["d"])
}

func TestDocuments(t *testing.T) {
	t.Run("from any slice", func(t *testing.T) {
		branches := Documents([]any{MustParse(`{"a":1}`), MustParse(`{"b":2}`)})
		require.Len(t, branches, 2)
	})
	t.Run("from document slice", func(t *testing.T) {
		branches := Documents([]Document{MustParse(`{"a":1}`)})
		require.Len(t, branches, 1)
	})
	t.Run("non-sequence yields nil", func(t *testing.T) {
		assert.Nil(t, Documents("nope"))
	})
}
