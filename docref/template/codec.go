// Package template decodes parameter-binding query templates: JSON-ish
// documents with ?N positional placeholders and ?#{...} embedded
// expressions, bound against the values of the referencing document.
package template

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/krew-solutions/docref-go/docref/document"
	"github.com/krew-solutions/docref-go/docref/expression"
)

// Codec substitutes placeholders and expressions in a query template and
// parses the result into a Document. A template containing neither decodes
// to the literal parsed structure.
type Codec struct {
	evaluator expression.Evaluator
}

func NewCodec(evaluator expression.Evaluator) *Codec {
	return &Codec{evaluator: evaluator}
}

// Decode binds the template against b and parses it.
// Single-quoted strings are accepted and normalized to JSON. Placeholders
// inside quoted strings are literal text.
func (c *Codec) Decode(tmpl string, b expression.Binding) (document.Document, error) {
	bound, err := c.bind(tmpl, b)
	if err != nil {
		return document.Document{}, errors.WithMessagef(err, "bind template %q", tmpl)
	}
	doc, err := document.Parse(bound)
	if err != nil {
		return document.Document{}, errors.WithMessagef(err, "decode template %q", tmpl)
	}
	return doc, nil
}

func (c *Codec) bind(tmpl string, b expression.Binding) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(tmpl) {
		ch := tmpl[i]
		switch {
		case ch == '\'' || ch == '"':
			literal, next, err := readQuoted(tmpl, i)
			if err != nil {
				return "", err
			}
			out.WriteString(literal)
			i = next
		case ch == '?' && i+1 < len(tmpl) && isDigit(tmpl[i+1]):
			index, next := readIndex(tmpl, i+1)
			value, err := b.Positional(index)
			if err != nil {
				return "", err
			}
			if err := writeValue(&out, value); err != nil {
				return "", err
			}
			i = next
		case strings.HasPrefix(tmpl[i:], "?#{") || strings.HasPrefix(tmpl[i:], "#{"):
			expr, next, err := readExpression(tmpl, i)
			if err != nil {
				return "", err
			}
			value, err := c.evaluator.Evaluate(expr, b)
			if err != nil {
				return "", err
			}
			if err := writeValue(&out, value); err != nil {
				return "", err
			}
			i = next
		default:
			out.WriteByte(ch)
			i++
		}
	}
	return out.String(), nil
}

// readQuoted consumes a quoted string starting at tmpl[start] and returns
// it as a JSON double-quoted string.
func readQuoted(tmpl string, start int) (string, int, error) {
	quote := tmpl[start]
	var content strings.Builder
	i := start + 1
	for i < len(tmpl) {
		ch := tmpl[i]
		if ch == '\\' && i+1 < len(tmpl) {
			if tmpl[i+1] == quote {
				content.WriteByte(quote)
			} else {
				content.WriteByte(ch)
				content.WriteByte(tmpl[i+1])
			}
			i += 2
			continue
		}
		if ch == quote {
			encoded, err := json.Marshal(content.String())
			if err != nil {
				return "", 0, err
			}
			return string(encoded), i + 1, nil
		}
		content.WriteByte(ch)
		i++
	}
	return "", 0, errors.Errorf("unterminated string starting at offset %d", start)
}

func readIndex(tmpl string, start int) (int, int) {
	end := start
	for end < len(tmpl) && isDigit(tmpl[end]) {
		end++
	}
	index, _ := strconv.Atoi(tmpl[start:end])
	return index, end
}

// readExpression consumes ?#{...} or #{...} starting at tmpl[start],
// returning the inner expression text. Braces inside the expression nest.
func readExpression(tmpl string, start int) (string, int, error) {
	open := strings.IndexByte(tmpl[start:], '{') + start
	depth := 0
	for i := open; i < len(tmpl); i++ {
		switch tmpl[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return tmpl[open+1 : i], i + 1, nil
			}
		}
	}
	return "", 0, errors.Errorf("unterminated expression starting at offset %d", start)
}

func writeValue(out *strings.Builder, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return errors.WithMessage(err, "encode bound value")
	}
	out.Write(encoded)
	return nil
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// DecodeValue binds a template fragment that denotes a single value rather
// than a whole document, e.g. a database or collection override.
func (c *Codec) DecodeValue(tmpl string, b expression.Binding) (any, error) {
	bound, err := c.bind(tmpl, b)
	if err != nil {
		return nil, errors.WithMessagef(err, "bind template %q", tmpl)
	}
	if !gjson.Valid(bound) {
		return nil, errors.Errorf("template %q did not bind to a value: %s", tmpl, bound)
	}
	return valueFor(gjson.Parse(bound)), nil
}

func valueFor(result gjson.Result) any {
	if result.IsObject() {
		doc, err := document.Parse(result.Raw)
		if err == nil {
			return doc
		}
	}
	return result.Value()
}

// IsJSONDocument reports whether the template is itself a document, as
// opposed to a bare expression. Target overrides like `?#{$.target.db}` are
// expressions; overrides like `{ 'db' : ?#{...} }` are documents.
func IsJSONDocument(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "{")
}

// HasExpression reports whether the template embeds expression syntax.
func HasExpression(s string) bool {
	return strings.Contains(s, "?#{") || strings.Contains(s, "#{")
}
