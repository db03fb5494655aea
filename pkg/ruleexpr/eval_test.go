package ruleexpr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, logic string) *Node {
	t.Helper()
	node, err := Parse(logic)
	require.NoError(t, err)
	return node
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		logic     string
		wantError bool
	}{
		{
			name:  "leaf with literal",
			logic: `{"field": "amount", "op": "gt", "value": "0", "kind": "decimal"}`,
		},
		{
			name:  "leaf with other field",
			logic: `{"field": "presentation_date", "op": "lte", "other_field": "expiry_date", "kind": "date"}`,
		},
		{
			name:  "connectives",
			logic: `{"all": [{"field": "currency", "op": "in", "value": ["USD", "EUR"], "kind": "currency"}, {"not": {"field": "amount", "op": "lte", "value": 0, "kind": "decimal"}}]}`,
		},
		{
			name:      "empty",
			logic:     "   ",
			wantError: true,
		},
		{
			name:      "not json",
			logic:     `amount > 0`,
			wantError: true,
		},
		{
			name:      "leaf without op",
			logic:     `{"field": "amount"}`,
			wantError: true,
		},
		{
			name:      "unknown op",
			logic:     `{"field": "amount", "op": "matches", "value": "x"}`,
			wantError: true,
		},
		{
			name:      "ordering op on string kind",
			logic:     `{"field": "beneficiary", "op": "gte", "value": "x", "kind": "string"}`,
			wantError: true,
		},
		{
			name:      "both value and other_field",
			logic:     `{"field": "a", "op": "eq", "value": "x", "other_field": "b"}`,
			wantError: true,
		},
		{
			name:      "in without list",
			logic:     `{"field": "currency", "op": "in", "value": "USD"}`,
			wantError: true,
		},
		{
			name:      "multiple branches on one node",
			logic:     `{"all": [{"field": "a", "op": "present"}], "field": "b", "op": "present"}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.logic)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEvaluateDateComparison(t *testing.T) {
	node := mustParse(t, `{"field": "presentation_date", "op": "lte", "other_field": "expiry_date", "kind": "date"}`)

	tests := []struct {
		name string
		doc  map[string]interface{}
		want Tri
	}{
		{
			name: "presentation before expiry",
			doc:  map[string]interface{}{"presentation_date": "2024-12-20", "expiry_date": "2024-12-31"},
			want: True,
		},
		{
			name: "presentation equals expiry",
			doc:  map[string]interface{}{"presentation_date": "2024-12-31", "expiry_date": "2024-12-31"},
			want: True,
		},
		{
			name: "presentation after expiry",
			doc:  map[string]interface{}{"presentation_date": "2025-01-05", "expiry_date": "2024-12-31"},
			want: False,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := node.Evaluate(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Truth)
			assert.Empty(t, got.Missing)
		})
	}
}

func TestEvaluateMissingField(t *testing.T) {
	node := mustParse(t, `{"field": "presentation_date", "op": "lte", "other_field": "expiry_date", "kind": "date"}`)

	got, err := node.Evaluate(map[string]interface{}{"presentation_date": "2024-12-20"})
	require.NoError(t, err)
	assert.Equal(t, Unknown, got.Truth)
	assert.Equal(t, []string{"expiry_date"}, got.Missing)
	assert.Contains(t, MissingFieldsDetail(got.Missing), "expiry_date")
}

func TestEvaluateThreeValuedConnectives(t *testing.T) {
	doc := map[string]interface{}{"amount": json.Number("100.50"), "currency": "usd"}

	tests := []struct {
		name  string
		logic string
		want  Tri
	}{
		{
			name:  "and with unknown operand leans fail",
			logic: `{"all": [{"field": "amount", "op": "gt", "value": 0, "kind": "decimal"}, {"field": "shipment_date", "op": "before", "other_field": "expiry_date"}]}`,
			want:  Unknown,
		},
		{
			name:  "or absorbs unknown when a branch passes",
			logic: `{"any": [{"field": "shipment_date", "op": "before", "other_field": "expiry_date"}, {"field": "currency", "op": "eq", "value": "USD", "kind": "currency"}]}`,
			want:  True,
		},
		{
			name:  "or of unknown and false stays unknown",
			logic: `{"any": [{"field": "shipment_date", "op": "before", "other_field": "expiry_date"}, {"field": "currency", "op": "eq", "value": "GBP", "kind": "currency"}]}`,
			want:  Unknown,
		},
		{
			name:  "not of unknown stays unknown",
			logic: `{"not": {"field": "shipment_date", "op": "before", "other_field": "expiry_date"}}`,
			want:  Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := mustParse(t, tt.logic)
			got, err := node.Evaluate(doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Truth)
		})
	}
}

func TestEvaluateDecimalExactness(t *testing.T) {
	// 0.1 + 0.2 style drift must not leak into monetary comparisons.
	node := mustParse(t, `{"field": "amount", "op": "eq", "value": "0.3", "kind": "decimal"}`)

	got, err := node.Evaluate(map[string]interface{}{"amount": json.Number("0.30")})
	require.NoError(t, err)
	assert.Equal(t, True, got.Truth)

	node = mustParse(t, `{"field": "amount", "op": "lte", "value": "1000000.00", "kind": "decimal"}`)
	got, err = node.Evaluate(map[string]interface{}{"amount": json.Number("1000000.01")})
	require.NoError(t, err)
	assert.Equal(t, False, got.Truth)
}

func TestEvaluateCoercionFailure(t *testing.T) {
	tests := []struct {
		name      string
		logic     string
		doc       map[string]interface{}
		wantField string
	}{
		{
			name:      "bad date",
			logic:     `{"field": "expiry_date", "op": "after", "value": "2024-01-01", "kind": "date"}`,
			doc:       map[string]interface{}{"expiry_date": "31/12/2024"},
			wantField: "expiry_date",
		},
		{
			name:      "bad decimal",
			logic:     `{"field": "amount", "op": "gt", "value": 0, "kind": "decimal"}`,
			doc:       map[string]interface{}{"amount": "one hundred"},
			wantField: "amount",
		},
		{
			name:      "coercion failure cannot flip under not",
			logic:     `{"not": {"field": "amount", "op": "gt", "value": 0, "kind": "decimal"}}`,
			doc:       map[string]interface{}{"amount": "one hundred"},
			wantField: "amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := mustParse(t, tt.logic)
			_, err := node.Evaluate(tt.doc)
			require.Error(t, err)

			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.wantField, fieldErr.Field)
		})
	}
}

func TestEvaluatePresenceAndMembership(t *testing.T) {
	doc := map[string]interface{}{
		"currency":  "USD",
		"documents": []interface{}{"invoice", "bill_of_lading"},
		"remarks":   "clean on board",
	}

	tests := []struct {
		name  string
		logic string
		want  Tri
	}{
		{"present hit", `{"field": "currency", "op": "present"}`, True},
		{"present miss is definite false", `{"field": "insurance_certificate", "op": "present"}`, False},
		{"list contains", `{"field": "documents", "op": "contains", "value": "invoice", "kind": "list"}`, True},
		{"list contains miss", `{"field": "documents", "op": "contains", "value": "packing_list", "kind": "list"}`, False},
		{"string contains", `{"field": "remarks", "op": "contains", "value": "on board"}`, True},
		{"membership", `{"field": "currency", "op": "in", "value": ["usd", "eur"], "kind": "currency"}`, True},
		{"membership miss", `{"field": "currency", "op": "in", "value": ["GBP", "JPY"], "kind": "currency"}`, False},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := mustParse(t, tt.logic)
			got, err := node.Evaluate(doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Truth)
		})
	}
}

func TestEvaluateNegatedPresence(t *testing.T) {
	node := mustParse(t, `{"not": {"field": "house_bl", "op": "present"}}`)

	got, err := node.Evaluate(map[string]interface{}{"house_bl": "HBL-123"})
	require.NoError(t, err)
	assert.Equal(t, False, got.Truth)

	// An absent field makes the inner presence check false, but negating
	// that falsity would let missing data pass the rule. It degrades to
	// unknown instead, naming the field.
	got, err = node.Evaluate(map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, Unknown, got.Truth)
	assert.Equal(t, []string{"house_bl"}, got.Missing)
}

func TestEvaluateNegationKeepsIndependentFalsity(t *testing.T) {
	node := mustParse(t, `{"not": {"all": [{"field": "house_bl", "op": "present"}, {"field": "currency", "op": "eq", "value": "GBP"}]}}`)

	// The conjunction is false on its own terms (currency mismatch), so the
	// negation holds regardless of the absent field.
	got, err := node.Evaluate(map[string]interface{}{"currency": "USD"})
	require.NoError(t, err)
	assert.Equal(t, True, got.Truth)
}

func TestEvaluateRemovedFieldNeverFlipsFailToPass(t *testing.T) {
	exprs := []string{
		`{"field": "amount", "op": "lte", "value": "100.00", "kind": "decimal"}`,
		`{"not": {"field": "house_bl", "op": "present"}}`,
		`{"not": {"any": [{"field": "house_bl", "op": "present"}, {"field": "amount", "op": "gt", "value": "1000", "kind": "decimal"}]}}`,
		`{"all": [{"field": "currency", "op": "eq", "value": "USD"}, {"not": {"field": "house_bl", "op": "present"}}]}`,
	}
	full := map[string]interface{}{
		"amount":   json.Number("250.00"),
		"house_bl": "HBL-123",
		"currency": "USD",
	}

	for _, raw := range exprs {
		node := mustParse(t, raw)
		before, err := node.Evaluate(full)
		require.NoError(t, err)

		for removed := range full {
			reduced := make(map[string]interface{}, len(full)-1)
			for k, v := range full {
				if k != removed {
					reduced[k] = v
				}
			}
			after, err := node.Evaluate(reduced)
			require.NoError(t, err)

			if before.Truth == False {
				assert.NotEqual(t, True, after.Truth,
					"expr %s: removing %s flipped fail to pass", raw, removed)
			}
		}
	}
}

func TestEvaluateDeterminism(t *testing.T) {
	node := mustParse(t, `{"all": [{"field": "a", "op": "present"}, {"field": "b", "op": "eq", "other_field": "c"}, {"field": "d", "op": "gt", "value": 1, "kind": "decimal"}]}`)
	doc := map[string]interface{}{"a": "x"}

	first, err := node.Evaluate(doc)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := node.Evaluate(doc)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, []string{"b", "c", "d"}, first.Missing)
}

func TestFields(t *testing.T) {
	node := mustParse(t, `{"all": [{"field": "a", "op": "lte", "other_field": "b", "kind": "date"}, {"any": [{"field": "a", "op": "present"}, {"field": "c", "op": "present"}]}]}`)
	assert.Equal(t, []string{"a", "b", "c"}, node.Fields())
}
