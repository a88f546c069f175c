package pg

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/krew-solutions/docref-go/docref/document"
	"github.com/krew-solutions/docref-go/docref/query"
)

var sqlOps = map[string]string{
	"$gt":  ">",
	"$gte": ">=",
	"$lt":  "<",
	"$lte": "<=",
}

// compiler translates a filter operator tree into a jsonb WHERE clause
// against a single document column. Equality compiles to containment
// (doc @> ...), comparisons to casted path expressions, disjunctions to
// OR groups preserving branch order.
type compiler struct {
	column    string
	fieldPath []string
	eqValues  map[string]any
	sqlParts  []string
	params    []any
}

func newCompiler(column string) *compiler {
	return &compiler{column: column, eqValues: map[string]any{}}
}

// compileFilter returns the WHERE clause (without the keyword) and its
// positional parameters. An empty filter compiles to an empty clause.
func compileFilter(filter document.Document, column string) (string, []any, error) {
	if filter.Len() == 0 {
		return "", nil, nil
	}
	op, err := query.ParseFilter(filter)
	if err != nil {
		return "", nil, errors.WithMessage(err, "parse filter")
	}
	c := newCompiler(column)
	if _, err := op.Accept(c); err != nil {
		return "", nil, err
	}
	c.flushEq()
	return replaceParamMarkers(c.sql(), 1), c.params, nil
}

func (c *compiler) sql() string {
	return strings.Join(c.sqlParts, " AND ")
}

func (c *compiler) VisitEq(op query.EqOperator) (any, error) {
	if len(c.fieldPath) > 0 {
		c.collectEq(op.Value)
	} else {
		c.sqlParts = append(c.sqlParts, fmt.Sprintf("%s @> ?::jsonb", c.column))
		c.params = append(c.params, encode(op.Value))
	}
	return nil, nil
}

func (c *compiler) VisitComparison(op query.ComparisonOperator) (any, error) {
	if op.Op == "$ne" {
		nested := buildNestedDict(c.fieldPath, op.Value)
		c.sqlParts = append(c.sqlParts, fmt.Sprintf("NOT (%s @> ?::jsonb)", c.column))
		c.params = append(c.params, encode(nested))
		return nil, nil
	}
	sqlOp, ok := sqlOps[op.Op]
	if !ok {
		return nil, errors.Errorf("unknown comparison operator: %s", op.Op)
	}
	c.sqlParts = append(c.sqlParts, fmt.Sprintf("%s %s ?", c.textPathExpr(op.Value), sqlOp))
	c.params = append(c.params, op.Value)
	return nil, nil
}

func (c *compiler) VisitIn(op query.InOperator) (any, error) {
	var orParts []string
	for _, value := range op.Values {
		if len(c.fieldPath) > 0 {
			value = buildNestedDict(c.fieldPath, value)
		}
		orParts = append(orParts, fmt.Sprintf("%s @> ?::jsonb", c.column))
		c.params = append(c.params, encode(value))
	}
	if len(orParts) == 1 {
		c.sqlParts = append(c.sqlParts, orParts[0])
	} else {
		c.sqlParts = append(c.sqlParts, fmt.Sprintf("(%s)", strings.Join(orParts, " OR ")))
	}
	return nil, nil
}

func (c *compiler) VisitIsNull(op query.IsNullOperator) (any, error) {
	path := c.column
	if len(c.fieldPath) > 0 {
		path = c.jsonPathExpr()
	}
	if op.Value {
		c.sqlParts = append(c.sqlParts, fmt.Sprintf("%s IS NULL", path))
	} else {
		c.sqlParts = append(c.sqlParts, fmt.Sprintf("%s IS NOT NULL", path))
	}
	return nil, nil
}

func (c *compiler) VisitAnd(op query.AndOperator) (any, error) {
	for _, operand := range op.Operands {
		if _, err := operand.Accept(c); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (c *compiler) VisitOr(op query.OrOperator) (any, error) {
	var orParts []string
	for _, operand := range op.Operands {
		sub := newCompiler(c.column)
		sub.fieldPath = append(sub.fieldPath, c.fieldPath...)
		if _, err := operand.Accept(sub); err != nil {
			return nil, err
		}
		sub.flushEq()
		if subSQL := sub.sql(); subSQL != "" {
			orParts = append(orParts, subSQL)
			c.params = append(c.params, sub.params...)
		}
	}
	if len(orParts) > 0 {
		c.sqlParts = append(c.sqlParts, fmt.Sprintf("(%s)", strings.Join(orParts, " OR ")))
	}
	return nil, nil
}

func (c *compiler) VisitComposite(op query.CompositeQuery) (any, error) {
	for _, field := range op.Fields {
		c.fieldPath = append(c.fieldPath, field.Name)
		_, err := field.Op.Accept(c)
		c.fieldPath = c.fieldPath[:len(c.fieldPath)-1]
		if err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// collectEq gathers per-field equality into one containment document so a
// composite filter becomes a single doc @> param.
func (c *compiler) collectEq(value any) {
	target := c.eqValues
	for _, key := range c.fieldPath[:len(c.fieldPath)-1] {
		if _, ok := target[key]; !ok {
			target[key] = map[string]any{}
		}
		target = target[key].(map[string]any)
	}
	target[c.fieldPath[len(c.fieldPath)-1]] = document.Plain(value)
}

func (c *compiler) flushEq() {
	if len(c.eqValues) > 0 {
		c.sqlParts = append([]string{fmt.Sprintf("%s @> ?::jsonb", c.column)}, c.sqlParts...)
		c.params = append([]any{encode(c.eqValues)}, c.params...)
	}
}

func (c *compiler) jsonPathExpr() string {
	expr := c.column
	for _, key := range c.fieldPath {
		expr += fmt.Sprintf("->'%s'", key)
	}
	return expr
}

// textPathExpr extracts the last path segment as text, casting to numeric
// when the compared value is a number. An empty field path degrades to the
// bare column, for filters comparing the whole document.
func (c *compiler) textPathExpr(value any) string {
	expr := c.column
	if len(c.fieldPath) > 0 {
		for _, key := range c.fieldPath[:len(c.fieldPath)-1] {
			expr += fmt.Sprintf("->'%s'", key)
		}
		expr += fmt.Sprintf("->>'%s'", c.fieldPath[len(c.fieldPath)-1])
	}
	switch value.(type) {
	case float64, float32, int, int32, int64:
		return fmt.Sprintf("(%s)::numeric", expr)
	}
	return expr
}

func encode(value any) string {
	raw, err := json.Marshal(document.Plain(value))
	if err != nil {
		return "null"
	}
	return string(raw)
}

func buildNestedDict(fieldPath []string, value any) any {
	if len(fieldPath) == 0 {
		return document.Plain(value)
	}
	nested := map[string]any{}
	target := nested
	for _, key := range fieldPath[:len(fieldPath)-1] {
		next := map[string]any{}
		target[key] = next
		target = next
	}
	target[fieldPath[len(fieldPath)-1]] = document.Plain(value)
	return nested
}

func replaceParamMarkers(sql string, start int) string {
	var b strings.Builder
	idx := start
	for i := 0; i < len(sql); i++ {
		if sql[i] == '?' {
			fmt.Fprintf(&b, "$%d", idx)
			idx++
		} else {
			b.WriteByte(sql[i])
		}
	}
	return b.String()
}
