package ruleexpr

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Op identifies a comparison primitive.
type Op string

const (
	OpEq       Op = "eq"
	OpNe       Op = "ne"
	OpLt       Op = "lt"
	OpGt       Op = "gt"
	OpLte      Op = "lte"
	OpGte      Op = "gte"
	OpBefore   Op = "before"
	OpAfter    Op = "after"
	OpContains Op = "contains"
	OpIn       Op = "in"
	OpPresent  Op = "present"
)

// Kind declares how a literal operand must be coerced before comparison.
type Kind string

const (
	KindString   Kind = "string"
	KindDecimal  Kind = "decimal"
	KindDate     Kind = "date"
	KindCurrency Kind = "currency"
	KindList     Kind = "list"
)

// DateLayout is the single canonical calendar date format accepted by the
// evaluator. Document producers and rule authors share it.
const DateLayout = "2006-01-02"

// Node is one node of a logic expression tree. Exactly one of All, Any, Not
// or Field must be set. Leaves compare a document field against a literal
// Value or against a second document field (OtherField).
type Node struct {
	All []*Node `json:"all,omitempty"`
	Any []*Node `json:"any,omitempty"`
	Not *Node   `json:"not,omitempty"`

	Field      string      `json:"field,omitempty"`
	Op         Op          `json:"op,omitempty"`
	OtherField string      `json:"other_field,omitempty"`
	Value      interface{} `json:"value,omitempty"`
	Kind       Kind        `json:"kind,omitempty"`
}

// Parse decodes and validates a logic expression. Numeric literals are kept
// as json.Number so decimal amounts survive with their exact digits.
func Parse(logic string) (*Node, error) {
	if strings.TrimSpace(logic) == "" {
		return nil, fmt.Errorf("logic expression is empty")
	}

	dec := json.NewDecoder(strings.NewReader(logic))
	dec.UseNumber()

	var node Node
	if err := dec.Decode(&node); err != nil {
		return nil, fmt.Errorf("failed to decode logic expression: %w", err)
	}

	if err := node.validate(); err != nil {
		return nil, err
	}

	return &node, nil
}

func (n *Node) validate() error {
	branches := 0
	if len(n.All) > 0 {
		branches++
	}
	if len(n.Any) > 0 {
		branches++
	}
	if n.Not != nil {
		branches++
	}
	if n.Field != "" {
		branches++
	}

	if branches != 1 {
		return fmt.Errorf("expression node must set exactly one of all, any, not or field")
	}

	for _, child := range n.All {
		if err := child.validate(); err != nil {
			return err
		}
	}
	for _, child := range n.Any {
		if err := child.validate(); err != nil {
			return err
		}
	}
	if n.Not != nil {
		return n.Not.validate()
	}
	if n.Field != "" {
		return n.validateLeaf()
	}
	return nil
}

func (n *Node) validateLeaf() error {
	switch n.Op {
	case OpEq, OpNe, OpContains, OpIn:
	case OpLt, OpGt, OpLte, OpGte:
		if k := n.effectiveKind(); k != KindDecimal && k != KindDate {
			return fmt.Errorf("field %q: op %q requires kind decimal or date, got %q", n.Field, n.Op, k)
		}
	case OpBefore, OpAfter:
		if k := n.effectiveKind(); k != KindDate {
			return fmt.Errorf("field %q: op %q requires kind date, got %q", n.Field, n.Op, k)
		}
	case OpPresent:
		if n.Value != nil || n.OtherField != "" {
			return fmt.Errorf("field %q: op %q takes no operand", n.Field, n.Op)
		}
		return nil
	case "":
		return fmt.Errorf("field %q: missing op", n.Field)
	default:
		return fmt.Errorf("field %q: unknown op %q", n.Field, n.Op)
	}

	if n.Value == nil && n.OtherField == "" {
		return fmt.Errorf("field %q: op %q requires a value or other_field operand", n.Field, n.Op)
	}
	if n.Value != nil && n.OtherField != "" {
		return fmt.Errorf("field %q: value and other_field are mutually exclusive", n.Field)
	}
	if n.Op == OpIn {
		if _, ok := n.Value.([]interface{}); !ok {
			return fmt.Errorf("field %q: op %q requires a list value", n.Field, n.Op)
		}
	}
	return nil
}

// effectiveKind resolves the declared kind, defaulting from the operator
// where the rule author left it implicit.
func (n *Node) effectiveKind() Kind {
	if n.Kind != "" {
		return n.Kind
	}
	switch n.Op {
	case OpBefore, OpAfter:
		return KindDate
	case OpLt, OpGt, OpLte, OpGte:
		return KindDecimal
	default:
		return KindString
	}
}

// Fields returns every document field the expression references, in
// first-seen order.
func (n *Node) Fields() []string {
	seen := make(map[string]struct{})
	var out []string
	n.collectFields(seen, &out)
	return out
}

func (n *Node) collectFields(seen map[string]struct{}, out *[]string) {
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		*out = append(*out, name)
	}

	add(n.Field)
	add(n.OtherField)

	for _, child := range n.All {
		child.collectFields(seen, out)
	}
	for _, child := range n.Any {
		child.collectFields(seen, out)
	}
	if n.Not != nil {
		n.Not.collectFields(seen, out)
	}
}
