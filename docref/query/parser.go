package query

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/krew-solutions/docref-go/docref/document"
)

const operatorPrefix = "$"

// Parser parses a filter document (or scalar) into an Operator tree.
type Parser struct{}

func (p Parser) Parse(filter any) (Operator, error) {
	entries, ok := entriesOf(filter)
	if !ok {
		return EqOperator{Value: filter}, nil
	}

	if len(entries) == 0 {
		return nil, errors.New("empty filter document")
	}

	var operators, fields []document.Entry
	for _, entry := range entries {
		if strings.HasPrefix(entry.Key, operatorPrefix) {
			operators = append(operators, entry)
		} else {
			fields = append(fields, entry)
		}
	}

	if len(operators) > 0 && len(fields) > 0 {
		return nil, errors.Errorf(
			"cannot mix operators and fields at same level: %v vs %v",
			keysOf(operators), keysOf(fields),
		)
	}

	if len(operators) > 0 {
		return p.parseOperators(operators)
	}
	return p.parseFields(fields)
}

func (p Parser) parseOperators(ops []document.Entry) (Operator, error) {
	if len(ops) == 1 {
		return p.parseSingleOperator(ops[0].Key, ops[0].Value)
	}

	parsed := make([]Operator, 0, len(ops))
	for _, entry := range ops {
		op, err := p.parseSingleOperator(entry.Key, entry.Value)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, op)
	}
	return AndOperator{Operands: parsed}, nil
}

func (p Parser) parseSingleOperator(opName string, opValue any) (Operator, error) {
	switch opName {
	case "$eq":
		return EqOperator{Value: opValue}, nil
	case "$ne", "$gt", "$gte", "$lt", "$lte":
		return ComparisonOperator{Op: opName, Value: opValue}, nil
	case "$in":
		return p.parseIn(opValue)
	case "$or":
		return p.parseOr(opValue)
	case "$is_null":
		return p.parseIsNull(opValue)
	default:
		return nil, errors.Errorf("unknown operator: %s", opName)
	}
}

func (p Parser) parseOr(operands any) (Operator, error) {
	var items []any
	switch vs := operands.(type) {
	case []any:
		items = vs
	case []document.Document:
		items = make([]any, len(vs))
		for i, doc := range vs {
			items[i] = doc
		}
	default:
		return nil, errors.Errorf("$or value must be a list, got: %T", operands)
	}
	if len(items) < 1 {
		return nil, errors.Errorf("$or requires at least 1 branch, got: %d", len(items))
	}
	parsed := make([]Operator, len(items))
	for i, item := range items {
		op, err := p.Parse(item)
		if err != nil {
			return nil, err
		}
		parsed[i] = op
	}
	return OrOperator{Operands: parsed}, nil
}

func (p Parser) parseIn(values any) (Operator, error) {
	list, ok := values.([]any)
	if !ok {
		return nil, errors.Errorf("$in value must be a list, got: %T", values)
	}
	if len(list) < 1 {
		return nil, errors.Errorf("$in requires at least 1 value, got: %d", len(list))
	}
	result := make([]any, len(list))
	copy(result, list)
	return InOperator{Values: result}, nil
}

func (p Parser) parseIsNull(value any) (Operator, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, errors.Errorf("$is_null value must be bool, got: %T", value)
	}
	return IsNullOperator{Value: b}, nil
}

func (p Parser) parseFields(fields []document.Entry) (Operator, error) {
	parsed := make([]Field, 0, len(fields))
	for _, entry := range fields {
		op, err := p.Parse(entry.Value)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, Field{Name: entry.Key, Op: op})
	}
	return CompositeQuery{Fields: parsed}, nil
}

func entriesOf(filter any) ([]document.Entry, bool) {
	switch v := filter.(type) {
	case document.Document:
		return v.Entries(), true
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]document.Entry, 0, len(keys))
		for _, k := range keys {
			entries = append(entries, document.Entry{Key: k, Value: v[k]})
		}
		return entries, true
	default:
		return nil, false
	}
}

func keysOf(entries []document.Entry) []string {
	keys := make([]string, len(entries))
	for i, entry := range entries {
		keys[i] = entry.Key
	}
	return keys
}

// ParseFilter parses a filter document into an operator tree.
func ParseFilter(filter any) (Operator, error) {
	return Parser{}.Parse(filter)
}
