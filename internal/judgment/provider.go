package judgment

import "context"

// Assessment is the raw verdict the external provider returns for one rule
// against one document.
type Assessment struct {
	Status     string   `json:"status"`
	Details    string   `json:"details"`
	Confidence *float64 `json:"confidence_score,omitempty"`
}

// Provider obtains a semantic compliance assessment that cannot be expressed
// as deterministic logic. Implementations are expected to be slow and
// fallible; callers degrade to a warning when they fail.
type Provider interface {
	Assess(ctx context.Context, ruleText string, doc map[string]interface{}) (*Assessment, error)
}
