// Package query models filter documents as an operator tree: implicit
// equality, comparison and membership operators, disjunctions and
// multi-field composites. The memory loader evaluates the tree in place;
// the pg loader compiles it to SQL.
package query

import "fmt"

type Visitor interface {
	VisitEq(op EqOperator) (any, error)
	VisitComparison(op ComparisonOperator) (any, error)
	VisitIn(op InOperator) (any, error)
	VisitIsNull(op IsNullOperator) (any, error)
	VisitAnd(op AndOperator) (any, error)
	VisitOr(op OrOperator) (any, error)
	VisitComposite(op CompositeQuery) (any, error)
}

type Operator interface {
	Accept(visitor Visitor) (any, error)
}

// EqOperator represents equality check: {'$eq': value} or a bare value.
type EqOperator struct {
	Value any
}

func (o EqOperator) Accept(visitor Visitor) (any, error) {
	return visitor.VisitEq(o)
}

func (o EqOperator) String() string {
	return fmt.Sprintf("EqOperator(%v)", o.Value)
}

// ComparisonOperator represents comparison: {'$ne': value}, {'$gt': value}, etc.
type ComparisonOperator struct {
	Op    string
	Value any
}

func (o ComparisonOperator) Accept(visitor Visitor) (any, error) {
	return visitor.VisitComparison(o)
}

func (o ComparisonOperator) String() string {
	return fmt.Sprintf("ComparisonOperator(%s, %v)", o.Op, o.Value)
}

// InOperator represents membership check: {'$in': [value1, value2, ...]}
type InOperator struct {
	Values []any
}

func (o InOperator) Accept(visitor Visitor) (any, error) {
	return visitor.VisitIn(o)
}

func (o InOperator) String() string {
	return fmt.Sprintf("InOperator(%v)", o.Values)
}

// IsNullOperator represents null check: {'$is_null': true/false}
type IsNullOperator struct {
	Value bool
}

func (o IsNullOperator) Accept(visitor Visitor) (any, error) {
	return visitor.VisitIsNull(o)
}

func (o IsNullOperator) String() string {
	return fmt.Sprintf("IsNullOperator(%v)", o.Value)
}

// AndOperator represents implicit AND of operators at the same level.
type AndOperator struct {
	Operands []Operator
}

func (o AndOperator) Accept(visitor Visitor) (any, error) {
	return visitor.VisitAnd(o)
}

func (o AndOperator) String() string {
	return fmt.Sprintf("AndOperator(%v)", o.Operands)
}

// OrOperator represents logical OR: {'$or': [branch1, branch2, ...]}.
// Operand order replays the branch order of the source filter.
type OrOperator struct {
	Operands []Operator
}

func (o OrOperator) Accept(visitor Visitor) (any, error) {
	return visitor.VisitOr(o)
}

func (o OrOperator) String() string {
	return fmt.Sprintf("OrOperator(%v)", o.Operands)
}

// Field is one named constraint of a CompositeQuery.
type Field struct {
	Name string
	Op   Operator
}

// CompositeQuery represents a multi-field query: {'field1': op1, 'field2': op2, ...}.
// Fields keep the source document's key order.
type CompositeQuery struct {
	Fields []Field
}

func (o CompositeQuery) Accept(visitor Visitor) (any, error) {
	return visitor.VisitComposite(o)
}

func (o CompositeQuery) String() string {
	return fmt.Sprintf("CompositeQuery(%v)", o.Fields)
}
