package rules

import (
	"fmt"

	pkgerrors "docucheck/pkg/errors"
	"docucheck/pkg/ruleexpr"
)

// Validator checks catalog entries before they are accepted. A codable rule
// must carry parseable logic; a judgment rule must not, since nothing would
// ever execute it.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) ValidateRule(rule *Rule) error {
	if !rule.Kind.Valid() {
		return pkgerrors.ErrValidation.WithDetail("message",
			fmt.Sprintf("unknown rule type '%s', must be '%s' or '%s'", rule.Kind, KindCodable, KindJudgment))
	}

	switch rule.Kind {
	case KindCodable:
		if rule.Logic == "" {
			return pkgerrors.ErrValidation.WithDetail("message",
				fmt.Sprintf("codable rule '%s' requires logic", rule.RuleID))
		}
		if _, err := ruleexpr.Parse(rule.Logic); err != nil {
			return pkgerrors.ErrValidation.WithCause(err).WithDetail("message",
				fmt.Sprintf("codable rule '%s' has malformed logic", rule.RuleID))
		}
	case KindJudgment:
		if rule.Logic != "" {
			return pkgerrors.ErrValidation.WithDetail("message",
				fmt.Sprintf("rule '%s' is %s and must not carry logic", rule.RuleID, KindJudgment))
		}
	}

	return nil
}
