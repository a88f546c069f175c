package query

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/krew-solutions/docref-go/docref/document"
)

// Matcher evaluates whether a document matches an operator tree.
type Matcher struct{}

// Matches checks doc against the parsed filter.
func (m Matcher) Matches(op Operator, doc document.Document) (bool, error) {
	return m.evaluate(op, doc)
}

func (m Matcher) evaluate(op Operator, state any) (bool, error) {
	switch q := op.(type) {
	case EqOperator:
		return equal(state, q.Value), nil

	case ComparisonOperator:
		return compare(q.Op, state, q.Value)

	case InOperator:
		for _, v := range q.Values {
			if equal(state, v) {
				return true, nil
			}
		}
		return false, nil

	case IsNullOperator:
		return (state == nil) == q.Value, nil

	case AndOperator:
		for _, operand := range q.Operands {
			result, err := m.evaluate(operand, state)
			if err != nil {
				return false, err
			}
			if !result {
				return false, nil
			}
		}
		return true, nil

	case OrOperator:
		for _, operand := range q.Operands {
			result, err := m.evaluate(operand, state)
			if err != nil {
				return false, err
			}
			if result {
				return true, nil
			}
		}
		return false, nil

	case CompositeQuery:
		return m.evaluateComposite(q, state)
	}

	return false, errors.Errorf("unsupported operator: %T", op)
}

func (m Matcher) evaluateComposite(q CompositeQuery, state any) (bool, error) {
	for _, field := range q.Fields {
		fieldValue, _ := fieldValueOf(state, field.Name)
		result, err := m.evaluate(field.Op, fieldValue)
		if err != nil {
			return false, err
		}
		if !result {
			return false, nil
		}
	}
	return true, nil
}

func fieldValueOf(state any, field string) (any, bool) {
	switch v := state.(type) {
	case document.Document:
		return v.Get(field)
	case map[string]any:
		val, ok := v[field]
		return val, ok
	default:
		return nil, false
	}
}

func equal(a, b any) bool {
	ad, aok := a.(document.Document)
	bd, bok := b.(document.Document)
	if aok && bok {
		return ad.Equal(bd)
	}
	if aok != bok {
		return false
	}
	if an, aok := numeric(a); aok {
		if bn, bok := numeric(b); bok {
			return an == bn
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func compare(op string, actual, expected any) (bool, error) {
	if op == "$ne" {
		return !equal(actual, expected), nil
	}

	var cmp int
	switch {
	case isNumeric(actual) && isNumeric(expected):
		an, _ := numeric(actual)
		en, _ := numeric(expected)
		switch {
		case an < en:
			cmp = -1
		case an > en:
			cmp = 1
		}
	default:
		as, aok := actual.(string)
		es, eok := expected.(string)
		if !aok || !eok {
			return false, nil
		}
		switch {
		case as < es:
			cmp = -1
		case as > es:
			cmp = 1
		}
	}

	switch op {
	case "$gt":
		return cmp > 0, nil
	case "$gte":
		return cmp >= 0, nil
	case "$lt":
		return cmp < 0, nil
	case "$lte":
		return cmp <= 0, nil
	}
	return false, errors.Errorf("unknown comparison operator: %s", op)
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func isNumeric(v any) bool {
	_, ok := numeric(v)
	return ok
}
