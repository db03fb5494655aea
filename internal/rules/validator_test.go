package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "docucheck/pkg/errors"
)

func TestValidateRule(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name      string
		rule      Rule
		wantError bool
	}{
		{
			name: "codable with valid logic",
			rule: Rule{
				RuleID: "UCP600-6d",
				Kind:   KindCodable,
				Logic:  `{"field": "expiry_date", "op": "present"}`,
			},
			wantError: false,
		},
		{
			name: "codable without logic",
			rule: Rule{
				RuleID: "UCP600-6d",
				Kind:   KindCodable,
			},
			wantError: true,
		},
		{
			name: "codable with malformed logic",
			rule: Rule{
				RuleID: "UCP600-6d",
				Kind:   KindCodable,
				Logic:  `{"field": "amount", "op": "less_than", "value": "100"}`,
			},
			wantError: true,
		},
		{
			name: "judgment rule without logic",
			rule: Rule{
				RuleID: "ISBP-A19",
				Kind:   KindJudgment,
			},
			wantError: false,
		},
		{
			name: "judgment rule carrying logic",
			rule: Rule{
				RuleID: "ISBP-A19",
				Kind:   KindJudgment,
				Logic:  `{"field": "expiry_date", "op": "present"}`,
			},
			wantError: true,
		},
		{
			name: "unknown kind",
			rule: Rule{
				RuleID: "X-1",
				Kind:   Kind("heuristic"),
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateRule(&tt.rule)
			if tt.wantError {
				assert.Error(t, err)
				assert.True(t, pkgerrors.IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
