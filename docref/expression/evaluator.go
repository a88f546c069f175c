// Package expression is the capability boundary for template expression
// evaluation. The resolution engine never interprets expression text itself;
// it hands the raw expression and a Binding to an Evaluator and uses
// whatever comes back.
package expression

import (
	"github.com/pkg/errors"
	"github.com/theory/jsonpath"

	"github.com/krew-solutions/docref-go/docref/document"
)

// Evaluator evaluates one embedded expression against a binding.
// Evaluation failures must be returned, not swallowed: a silently empty
// result would produce a wrong filter instead of an error.
type Evaluator interface {
	Evaluate(expr string, b Binding) (any, error)
}

// PathEvaluator is the default Evaluator, speaking RFC 9535 JSONPath.
//
// The root object the path selects from is an environment document holding
// the source value's own fields (when the source is a document) plus
// "target" and the property name as members, so `$.target`, `$.<property>`
// and plain `$.<field>` all work.
type PathEvaluator struct {
	parser *jsonpath.Parser
}

func NewPathEvaluator() *PathEvaluator {
	return &PathEvaluator{parser: jsonpath.NewParser()}
}

func (e *PathEvaluator) Evaluate(expr string, b Binding) (any, error) {
	path, err := e.parser.Parse(expr)
	if err != nil {
		return nil, errors.WithMessagef(err, "parse expression %q", expr)
	}
	nodes := path.Select(e.environment(b))
	if len(nodes) == 0 {
		return nil, nil
	}
	return nodes[0], nil
}

func (e *PathEvaluator) environment(b Binding) any {
	env := map[string]any{}
	source := document.Plain(b.Source())
	if doc, ok := source.(map[string]any); ok {
		for k, v := range doc {
			env[k] = v
		}
	}
	env[TargetVariable] = source
	if b.Property() != "" {
		env[b.Property()] = source
	}
	return env
}
