package expression

import (
	"github.com/pkg/errors"

	"github.com/krew-solutions/docref-go/docref/document"
)

// TargetVariable is always bound to the referencing value, next to a second
// variable named after the property itself.
const TargetVariable = "target"

// Binding is the environment a template expression is evaluated against:
// positional access into the referencing value's fields plus the two named
// variables described above.
type Binding struct {
	source   any
	property string
}

func NewBinding(source any, property string) Binding {
	return Binding{source: source, property: property}
}

// Source returns the referencing value the binding was created for.
func (b Binding) Source() any {
	return b.source
}

// Property returns the name of the association property.
func (b Binding) Property() string {
	return b.property
}

// Positional returns the index-th field value of the source document. A
// non-document source is its own value at every index, mirroring scalar
// reference tokens.
func (b Binding) Positional(index int) (any, error) {
	doc, ok := b.source.(document.Document)
	if !ok {
		return b.source, nil
	}
	values := doc.Values()
	if index < 0 || index >= len(values) {
		return nil, errors.Errorf("positional parameter ?%d out of range, document has %d values", index, len(values))
	}
	return values[index], nil
}

// Variable resolves the named variables: "target" and the property name both
// yield the source value.
func (b Binding) Variable(name string) (any, bool) {
	if name == TargetVariable || (name != "" && name == b.property) {
		return b.source, true
	}
	return nil, false
}
