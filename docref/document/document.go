package document

import (
	"reflect"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Document is a string-keyed JSON document that remembers insertion order.
// Key order matters twice in this library: positional placeholder values are
// addressed by field position, and $or branch order drives result reordering.
type Document struct {
	keys   []string
	fields map[string]any
}

// New creates an empty Document.
func New() Document {
	return Document{fields: map[string]any{}}
}

// Parse decodes a JSON object into a Document, preserving key order.
// Nested objects become nested Documents, arrays become []any and numbers
// decode to float64.
func Parse(raw string) (Document, error) {
	if !gjson.Valid(raw) {
		return Document{}, errors.Errorf("invalid json document: %s", raw)
	}
	result := gjson.Parse(raw)
	if !result.IsObject() {
		return Document{}, errors.Errorf("not a json object: %s", raw)
	}
	return fromResult(result), nil
}

// MustParse is Parse for statically known inputs, mostly tests.
func MustParse(raw string) Document {
	doc, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return doc
}

func fromResult(result gjson.Result) Document {
	doc := New()
	result.ForEach(func(key, value gjson.Result) bool {
		doc = doc.Set(key.String(), valueOf(value))
		return true
	})
	return doc
}

func valueOf(result gjson.Result) any {
	switch {
	case result.IsObject():
		return fromResult(result)
	case result.IsArray():
		items := result.Array()
		values := make([]any, len(items))
		for i, item := range items {
			values[i] = valueOf(item)
		}
		return values
	default:
		return result.Value()
	}
}

// Set stores a value under key, appending the key on first write.
// Returns the document for chaining; use the return value when the
// receiver may be the zero Document.
func (d Document) Set(key string, value any) Document {
	if d.fields == nil {
		d.fields = map[string]any{}
	}
	if _, exists := d.fields[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.fields[key] = value
	return Document{keys: d.keys, fields: d.fields}
}

// Get returns the value stored under key.
func (d Document) Get(key string) (any, bool) {
	v, ok := d.fields[key]
	return v, ok
}

// GetString returns the value under key if it is a string.
func (d Document) GetString(key string) (string, bool) {
	v, ok := d.fields[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetDocument returns the value under key if it is a nested Document.
func (d Document) GetDocument(key string) (Document, bool) {
	v, ok := d.fields[key]
	if !ok {
		return Document{}, false
	}
	nested, ok := v.(Document)
	return nested, ok
}

// Keys returns the keys in insertion order.
func (d Document) Keys() []string {
	keys := make([]string, len(d.keys))
	copy(keys, d.keys)
	return keys
}

// Values returns the values in key insertion order.
func (d Document) Values() []any {
	values := make([]any, 0, len(d.keys))
	for _, key := range d.keys {
		values = append(values, d.fields[key])
	}
	return values
}

func (d Document) Len() int {
	return len(d.keys)
}

// Entry is one key/value pair of a Document.
type Entry struct {
	Key   string
	Value any
}

// Entries returns the key/value pairs in insertion order.
func (d Document) Entries() []Entry {
	entries := make([]Entry, 0, len(d.keys))
	for _, key := range d.keys {
		entries = append(entries, Entry{Key: key, Value: d.fields[key]})
	}
	return entries
}

// ContainsAll reports whether every entry of sub is present in d with a
// deeply equal value. Extra fields in d are ignored.
func (d Document) ContainsAll(sub Document) bool {
	for _, entry := range sub.Entries() {
		v, ok := d.fields[entry.Key]
		if !ok || !equalValues(v, entry.Value) {
			return false
		}
	}
	return true
}

// Equal reports whether two documents hold the same entries, regardless of
// insertion order.
func (d Document) Equal(other Document) bool {
	return d.Len() == other.Len() && d.ContainsAll(other)
}

func equalValues(a, b any) bool {
	ad, aok := a.(Document)
	bd, bok := b.(Document)
	if aok && bok {
		return ad.Equal(bd)
	}
	if aok != bok {
		return false
	}
	as, aok := a.([]any)
	bs, bok := b.([]any)
	if aok && bok {
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !equalValues(as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// MarshalJSON emits the entries in insertion order.
func (d Document) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		v, err := json.Marshal(d.fields[key])
		if err != nil {
			return nil, errors.WithMessagef(err, "marshal field %q", key)
		}
		b.Write(v)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

func (d Document) String() string {
	raw, err := json.Marshal(d)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// Map returns a plain map[string]any view with nested Documents converted
// recursively. Key order is lost; meant for handing the document to tooling
// that walks standard JSON trees.
func (d Document) Map() map[string]any {
	m := make(map[string]any, len(d.keys))
	for _, key := range d.keys {
		m[key] = Plain(d.fields[key])
	}
	return m
}

// Plain converts a value that may hold Documents into plain JSON Go types.
func Plain(v any) any {
	switch vv := v.(type) {
	case Document:
		return vv.Map()
	case []any:
		items := make([]any, len(vv))
		for i, item := range vv {
			items[i] = Plain(item)
		}
		return items
	case []Document:
		items := make([]any, len(vv))
		for i, item := range vv {
			items[i] = item.Map()
		}
		return items
	default:
		return v
	}
}

// Documents coerces a value decoded from a document field into a branch
// list. Used to recover $or branches from a filter.
func Documents(v any) []Document {
	switch vs := v.(type) {
	case []Document:
		return vs
	case []any:
		docs := make([]Document, 0, len(vs))
		for _, item := range vs {
			if doc, ok := item.(Document); ok {
				docs = append(docs, doc)
			}
		}
		return docs
	default:
		return nil
	}
}
