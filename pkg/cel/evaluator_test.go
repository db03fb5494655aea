package cel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvaluator(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)
	assert.NotNil(t, eval)
}

func TestValidateFilterExpression(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		expr      string
		wantError bool
	}{
		{
			name:      "valid source match",
			expr:      `source == "UCP600"`,
			wantError: false,
		},
		{
			name:      "valid article prefix",
			expr:      `article.startsWith("14")`,
			wantError: false,
		},
		{
			name:      "valid compound",
			expr:      `kind == "codable" && source in ["UCP600", "ISBP"]`,
			wantError: false,
		},
		{
			name:      "non-bool expression",
			expr:      `source`,
			wantError: true,
		},
		{
			name:      "invalid syntax",
			expr:      `invalid syntax here!!!`,
			wantError: true,
		},
		{
			name:      "undefined variable",
			expr:      `payload.status == "active"`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eval.ValidateFilterExpression(tt.expr)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEvaluateFilter(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	attrs := map[string]interface{}{
		"rule_id": "UCP600-14b",
		"source":  "UCP600",
		"article": "14b",
		"domain":  "LC",
		"title":   "Examination Period",
		"kind":    "codable",
		"version": "1.0",
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"match on source", `source == "UCP600"`, true},
		{"match on kind and article", `kind == "codable" && article.startsWith("14")`, true},
		{"no match", `source == "ISBP"`, false},
		{"membership", `source in ["UCP600", "eUCP"]`, true},
		{"rule id contains", `rule_id.contains("14b")`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.EvaluateFilter(context.Background(), tt.expr, attrs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateFilterErrors(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	_, err = eval.EvaluateFilter(context.Background(), `source ==`, map[string]interface{}{"source": "UCP600"})
	assert.Error(t, err)
}
