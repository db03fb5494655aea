package judgment

import (
	"context"
	"strings"

	"docucheck/internal/logger"
	"docucheck/pkg/circuitbreaker"
	"docucheck/pkg/metrics"
	"docucheck/pkg/retry"
)

const (
	StatusPass    = "pass"
	StatusFail    = "fail"
	StatusWarning = "warning"
)

// Result is the adapter's verdict for one judgment rule. Unlike the raw
// provider, the adapter never fails: every provider problem degrades into a
// warning result so one flaky dependency cannot sink a validation run.
type Result struct {
	Status     string
	Details    string
	Confidence *float64
	FromCache  bool
}

type Adapter struct {
	provider Provider
	cache    *Cache
	breaker  *circuitbreaker.Wrapper
	policy   retry.Policy
	logger   logger.Logger
}

// NewAdapter wires the provider with its resilience layers. cache and
// breaker may be nil; the adapter then calls the provider directly.
func NewAdapter(provider Provider, cache *Cache, breaker *circuitbreaker.Wrapper, policy retry.Policy, log logger.Logger) *Adapter {
	return &Adapter{
		provider: provider,
		cache:    cache,
		breaker:  breaker,
		policy:   policy,
		logger:   log,
	}
}

// Assess obtains a verdict for a rule against a document. The document is
// hashed for cache lookup; a cache hit skips the provider entirely.
func (a *Adapter) Assess(ctx context.Context, ruleID, ruleVersion, ruleText string, doc map[string]interface{}) Result {
	cacheKey := a.cacheLookupKey(ctx, ruleID, ruleVersion, doc)

	if cacheKey != "" {
		if cached, err := a.cache.Get(ctx, cacheKey); err != nil {
			a.logger.WarnwCtx(ctx, "judgment cache read failed", "rule_id", ruleID, "error", err)
		} else if cached != nil {
			metrics.JudgmentCacheHits.Inc()
			result := a.normalize(ctx, ruleID, cached)
			result.FromCache = true
			return result
		}
	}

	assessment, err := a.callProvider(ctx, ruleText, doc)
	if err != nil {
		a.logger.WarnwCtx(ctx, "judgment provider unavailable, degrading to warning",
			"rule_id", ruleID, "error", err)
		metrics.JudgmentAssessments.WithLabelValues(StatusWarning, "degraded").Inc()
		return Result{
			Status:  StatusWarning,
			Details: "compliance could not be assessed: judgment provider unavailable",
		}
	}

	result := a.normalize(ctx, ruleID, assessment)
	metrics.JudgmentAssessments.WithLabelValues(result.Status, "provider").Inc()

	if cacheKey != "" {
		if err := a.cache.Set(ctx, cacheKey, assessment); err != nil {
			a.logger.WarnwCtx(ctx, "judgment cache write failed", "rule_id", ruleID, "error", err)
		}
	}

	return result
}

func (a *Adapter) cacheLookupKey(ctx context.Context, ruleID, ruleVersion string, doc map[string]interface{}) string {
	if a.cache == nil {
		return ""
	}
	key, err := a.cache.Key(ruleID, ruleVersion, doc)
	if err != nil {
		a.logger.WarnwCtx(ctx, "failed to build judgment cache key", "rule_id", ruleID, "error", err)
		return ""
	}
	return key
}

func (a *Adapter) callProvider(ctx context.Context, ruleText string, doc map[string]interface{}) (*Assessment, error) {
	var assessment *Assessment

	call := func() error {
		var err error
		assessment, err = a.provider.Assess(ctx, ruleText, doc)
		return err
	}

	if a.breaker != nil {
		inner := call
		call = func() error {
			_, err := a.breaker.ExecuteWithContext(ctx, func() (interface{}, error) {
				return nil, inner()
			})
			a.breaker.RecordRequest(err == nil)
			return err
		}
	}

	if err := retry.Retry(ctx, a.policy, call); err != nil {
		return nil, err
	}

	return assessment, nil
}

// normalize maps the provider's verdict onto the closed status set. An
// unrecognized verdict counts as a warning, never a pass.
func (a *Adapter) normalize(ctx context.Context, ruleID string, assessment *Assessment) Result {
	status := strings.ToLower(strings.TrimSpace(assessment.Status))
	switch status {
	case StatusPass, StatusFail, StatusWarning:
		return Result{
			Status:     status,
			Details:    assessment.Details,
			Confidence: clampConfidence(assessment.Confidence),
		}
	default:
		a.logger.WarnwCtx(ctx, "unrecognized judgment verdict", "rule_id", ruleID, "status", assessment.Status)
		return Result{
			Status:  StatusWarning,
			Details: "compliance could not be assessed: provider returned an unrecognized verdict",
		}
	}
}

// clampConfidence keeps a provider-reported score inside [0, 1].
func clampConfidence(confidence *float64) *float64 {
	if confidence == nil {
		return nil
	}
	v := *confidence
	switch {
	case v < 0:
		v = 0
	case v > 1:
		v = 1
	}
	return &v
}
