package ruleexpr

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FieldError reports a document value that could not be coerced to the kind
// the rule declared. It is a definite violation, not an unknown: a rule must
// never pass on malformed data.
type FieldError struct {
	Field string
	Kind  Kind
	Cause string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: cannot interpret value as %s: %s", e.Field, e.Kind, e.Cause)
}

// Evaluation is the outcome of checking one expression against one document.
// Missing lists every referenced field absent from the document, in
// first-seen order; when Truth is Unknown it explains why.
type Evaluation struct {
	Truth   Tri
	Missing []string
}

// Evaluate interprets the expression against a document field map. The same
// (expression, document) pair always yields the identical result: there is
// no hidden state and no clock read. The only error returned is *FieldError;
// missing fields flow through the three-valued logic instead.
func (n *Node) Evaluate(doc map[string]interface{}) (Evaluation, error) {
	ev := &evaluator{doc: doc, seen: make(map[string]struct{})}
	truth, _, err := ev.eval(n)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{Truth: truth, Missing: ev.missing}, nil
}

type evaluator struct {
	doc     map[string]interface{}
	seen    map[string]struct{}
	missing []string
}

// eval's second result marks a False that only holds because a referenced
// field is absent (a failed presence check). Such a falsity may not be
// negated into True: removing data must never flip a fail to a pass.
func (ev *evaluator) eval(n *Node) (Tri, bool, error) {
	switch {
	case len(n.All) > 0:
		// All children evaluate regardless of short-circuit potential so the
		// missing-field report stays complete and deterministic.
		acc := True
		absentFalse := false
		hardFalse := false
		for _, child := range n.All {
			t, absent, err := ev.eval(child)
			if err != nil {
				return False, false, err
			}
			if t == False {
				if absent {
					absentFalse = true
				} else {
					hardFalse = true
				}
			}
			acc = acc.And(t)
		}
		return acc, acc == False && absentFalse && !hardFalse, nil
	case len(n.Any) > 0:
		acc := False
		absentFalse := false
		for _, child := range n.Any {
			t, absent, err := ev.eval(child)
			if err != nil {
				return False, false, err
			}
			if t == False && absent {
				absentFalse = true
			}
			acc = acc.Or(t)
		}
		return acc, acc == False && absentFalse, nil
	case n.Not != nil:
		t, absent, err := ev.eval(n.Not)
		if err != nil {
			return False, false, err
		}
		if t == False && absent {
			return Unknown, false, nil
		}
		return t.Not(), false, nil
	default:
		return ev.evalLeaf(n)
	}
}

func (ev *evaluator) evalLeaf(n *Node) (Tri, bool, error) {
	left, ok := ev.lookup(n.Field)

	if n.Op == OpPresent {
		if ok && left != nil {
			return True, false, nil
		}
		ev.recordMissing(n.Field)
		return False, true, nil
	}

	if !ok || left == nil {
		ev.recordMissing(n.Field)
		// Still note a missing right-hand field for the report.
		if n.OtherField != "" {
			if rv, rok := ev.lookup(n.OtherField); !rok || rv == nil {
				ev.recordMissing(n.OtherField)
			}
		}
		return Unknown, false, nil
	}

	var right interface{}
	if n.OtherField != "" {
		rv, rok := ev.lookup(n.OtherField)
		if !rok || rv == nil {
			ev.recordMissing(n.OtherField)
			return Unknown, false, nil
		}
		right = rv
	} else {
		right = n.Value
	}

	t, err := compare(n, left, right)
	return t, false, err
}

func (ev *evaluator) lookup(field string) (interface{}, bool) {
	if field == "" {
		return nil, false
	}
	v, ok := ev.doc[field]
	return v, ok
}

func (ev *evaluator) recordMissing(field string) {
	if _, ok := ev.seen[field]; ok {
		return
	}
	ev.seen[field] = struct{}{}
	ev.missing = append(ev.missing, field)
}

func compare(n *Node, left, right interface{}) (Tri, error) {
	switch n.Op {
	case OpContains:
		return compareContains(n, left, right)
	case OpIn:
		return compareIn(n, left, right)
	}

	switch n.effectiveKind() {
	case KindDate:
		return compareDates(n, left, right)
	case Kind(""), KindString, KindCurrency:
		return compareStrings(n, left, right)
	case KindDecimal:
		return compareDecimals(n, left, right)
	case KindList:
		return False, &FieldError{Field: n.Field, Kind: KindList, Cause: fmt.Sprintf("op %q is not defined for lists", n.Op)}
	default:
		return False, &FieldError{Field: n.Field, Kind: n.Kind, Cause: "unknown value kind"}
	}
}

func compareDates(n *Node, left, right interface{}) (Tri, error) {
	lt, err := coerceDate(n.Field, left)
	if err != nil {
		return False, err
	}
	field := n.OtherField
	if field == "" {
		field = n.Field
	}
	rt, err := coerceDate(field, right)
	if err != nil {
		return False, err
	}

	switch n.Op {
	case OpEq:
		return fromBool(lt.Equal(rt)), nil
	case OpNe:
		return fromBool(!lt.Equal(rt)), nil
	case OpLt, OpBefore:
		return fromBool(lt.Before(rt)), nil
	case OpGt, OpAfter:
		return fromBool(lt.After(rt)), nil
	case OpLte:
		return fromBool(!lt.After(rt)), nil
	case OpGte:
		return fromBool(!lt.Before(rt)), nil
	}
	return False, &FieldError{Field: n.Field, Kind: KindDate, Cause: fmt.Sprintf("op %q is not defined for dates", n.Op)}
}

func compareDecimals(n *Node, left, right interface{}) (Tri, error) {
	ld, err := coerceDecimal(n.Field, left)
	if err != nil {
		return False, err
	}
	field := n.OtherField
	if field == "" {
		field = n.Field
	}
	rd, err := coerceDecimal(field, right)
	if err != nil {
		return False, err
	}

	cmp := ld.Cmp(rd)
	switch n.Op {
	case OpEq:
		return fromBool(cmp == 0), nil
	case OpNe:
		return fromBool(cmp != 0), nil
	case OpLt:
		return fromBool(cmp < 0), nil
	case OpGt:
		return fromBool(cmp > 0), nil
	case OpLte:
		return fromBool(cmp <= 0), nil
	case OpGte:
		return fromBool(cmp >= 0), nil
	}
	return False, &FieldError{Field: n.Field, Kind: KindDecimal, Cause: fmt.Sprintf("op %q is not defined for decimals", n.Op)}
}

func compareStrings(n *Node, left, right interface{}) (Tri, error) {
	ls := stringify(left)
	rs := stringify(right)

	if n.effectiveKind() == KindCurrency {
		ls = strings.ToUpper(strings.TrimSpace(ls))
		rs = strings.ToUpper(strings.TrimSpace(rs))
	}

	switch n.Op {
	case OpEq:
		return fromBool(ls == rs), nil
	case OpNe:
		return fromBool(ls != rs), nil
	}
	return False, &FieldError{Field: n.Field, Kind: n.effectiveKind(), Cause: fmt.Sprintf("op %q is not defined for strings", n.Op)}
}

func compareContains(n *Node, left, right interface{}) (Tri, error) {
	switch lv := left.(type) {
	case []interface{}:
		needle := stringify(right)
		for _, item := range lv {
			if stringify(item) == needle {
				return True, nil
			}
		}
		return False, nil
	case string:
		return fromBool(strings.Contains(lv, stringify(right))), nil
	default:
		return False, &FieldError{Field: n.Field, Kind: KindList, Cause: fmt.Sprintf("expected list or string, got %T", left)}
	}
}

func compareIn(n *Node, left, right interface{}) (Tri, error) {
	members, ok := right.([]interface{})
	if !ok {
		return False, &FieldError{Field: n.Field, Kind: KindList, Cause: fmt.Sprintf("op %q requires a list operand", n.Op)}
	}
	needle := stringify(left)
	if n.effectiveKind() == KindCurrency {
		needle = strings.ToUpper(strings.TrimSpace(needle))
	}
	for _, m := range members {
		candidate := stringify(m)
		if n.effectiveKind() == KindCurrency {
			candidate = strings.ToUpper(strings.TrimSpace(candidate))
		}
		if candidate == needle {
			return True, nil
		}
	}
	return False, nil
}

func coerceDate(field string, v interface{}) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, &FieldError{Field: field, Kind: KindDate, Cause: fmt.Sprintf("expected string in %s format, got %T", DateLayout, v)}
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &FieldError{Field: field, Kind: KindDate, Cause: fmt.Sprintf("%q does not match %s", s, DateLayout)}
	}
	return t, nil
}

// coerceDecimal parses exact decimal values. Floating-point inputs are
// accepted for callers that did not decode with json.Number, but string and
// json.Number operands keep their exact digits.
func coerceDecimal(field string, v interface{}) (decimal.Decimal, error) {
	switch d := v.(type) {
	case json.Number:
		dec, err := decimal.NewFromString(d.String())
		if err != nil {
			return decimal.Decimal{}, &FieldError{Field: field, Kind: KindDecimal, Cause: fmt.Sprintf("%q is not a decimal number", d.String())}
		}
		return dec, nil
	case string:
		dec, err := decimal.NewFromString(strings.TrimSpace(d))
		if err != nil {
			return decimal.Decimal{}, &FieldError{Field: field, Kind: KindDecimal, Cause: fmt.Sprintf("%q is not a decimal number", d)}
		}
		return dec, nil
	case float64:
		return decimal.NewFromFloat(d), nil
	case int:
		return decimal.NewFromInt(int64(d)), nil
	case int64:
		return decimal.NewFromInt(d), nil
	default:
		return decimal.Decimal{}, &FieldError{Field: field, Kind: KindDecimal, Cause: fmt.Sprintf("expected number or numeric string, got %T", v)}
	}
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func fromBool(b bool) Tri {
	if b {
		return True
	}
	return False
}

// MissingFieldsDetail renders a stable human-readable explanation for an
// indeterminate evaluation.
func MissingFieldsDetail(missing []string) string {
	sorted := make([]string, len(missing))
	copy(sorted, missing)
	sort.Strings(sorted)
	return fmt.Sprintf("cannot determine compliance: document is missing field(s) %s", strings.Join(sorted, ", "))
}
