package rules

import (
	"context"
	"fmt"

	"docucheck/internal/constants"
	pkgcel "docucheck/pkg/cel"
)

// Selector narrows a catalog to the rules a validation request asked for.
// Selection is pure: it never touches storage and preserves catalog order.
type Selector struct {
	cel *pkgcel.Evaluator
}

func NewSelector(celEval *pkgcel.Evaluator) *Selector {
	return &Selector{cel: celEval}
}

// Select applies the filter to the catalog. A zero filter selects everything.
// The domain shorthand "LC" expands to the letter-of-credit rulebooks, so a
// domain filter matches rules whose source belongs to the domain even when
// the rule row itself carries no domain column.
func (s *Selector) Select(ctx context.Context, catalog []Rule, filter Filter) ([]Rule, error) {
	if filter.IsZero() {
		return catalog, nil
	}

	selected := make([]Rule, 0, len(catalog))
	for _, rule := range catalog {
		if filter.Source != "" && rule.Source != filter.Source {
			continue
		}
		if filter.Kind != "" && rule.Kind != filter.Kind {
			continue
		}
		if filter.Domain != "" && !domainMatches(filter.Domain, rule) {
			continue
		}
		if filter.Expression != "" {
			match, err := s.cel.EvaluateFilter(ctx, filter.Expression, ruleAttributes(rule))
			if err != nil {
				return nil, fmt.Errorf("filter expression failed for rule %s: %w", rule.RuleID, err)
			}
			if !match {
				continue
			}
		}
		selected = append(selected, rule)
	}

	return selected, nil
}

func domainMatches(domain string, rule Rule) bool {
	if rule.Domain == domain {
		return true
	}
	if domain == constants.DomainLetterOfCredit {
		for _, source := range constants.LetterOfCreditSources {
			if rule.Source == source {
				return true
			}
		}
	}
	return false
}

func ruleAttributes(rule Rule) map[string]interface{} {
	return map[string]interface{}{
		"rule_id": rule.RuleID,
		"source":  rule.Source,
		"article": rule.Article,
		"domain":  rule.Domain,
		"title":   rule.Title,
		"kind":    string(rule.Kind),
		"version": rule.Version,
	}
}
