package judgment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docucheck/internal/logger"
	"docucheck/pkg/retry"
)

type fakeProvider struct {
	assessment *Assessment
	err        error
	calls      int
}

func (p *fakeProvider) Assess(ctx context.Context, ruleText string, doc map[string]interface{}) (*Assessment, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.assessment, nil
}

func fastPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:     2,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		Multiplier:      1.0,
	}
}

func floatPtr(f float64) *float64 { return &f }

func TestAssessPassVerdict(t *testing.T) {
	confidence := floatPtr(0.92)
	provider := &fakeProvider{assessment: &Assessment{
		Status:     "pass",
		Details:    "documents are internally consistent",
		Confidence: confidence,
	}}
	adapter := NewAdapter(provider, nil, nil, fastPolicy(), logger.NopLogger())

	result := adapter.Assess(context.Background(), "ISBP-A19", "1.0", "data must not conflict", map[string]interface{}{"amount": "100.00"})

	assert.Equal(t, StatusPass, result.Status)
	assert.Equal(t, "documents are internally consistent", result.Details)
	assert.Equal(t, confidence, result.Confidence)
	assert.False(t, result.FromCache)
}

func TestAssessProviderFailureDegradesToWarning(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	adapter := NewAdapter(provider, nil, nil, fastPolicy(), logger.NopLogger())

	result := adapter.Assess(context.Background(), "ISBP-A19", "1.0", "rule text", map[string]interface{}{})

	assert.Equal(t, StatusWarning, result.Status)
	assert.Contains(t, result.Details, "judgment provider unavailable")
	assert.Nil(t, result.Confidence)
}

func TestAssessRetriesBeforeDegrading(t *testing.T) {
	provider := &fakeProvider{err: errors.New("transient failure")}
	adapter := NewAdapter(provider, nil, nil, fastPolicy(), logger.NopLogger())

	result := adapter.Assess(context.Background(), "ISBP-A19", "1.0", "rule text", map[string]interface{}{})

	assert.Equal(t, StatusWarning, result.Status)
	assert.Equal(t, 2, provider.calls)
}

func TestAssessUnrecognizedVerdictBecomesWarning(t *testing.T) {
	provider := &fakeProvider{assessment: &Assessment{Status: "maybe", Details: "shrug"}}
	adapter := NewAdapter(provider, nil, nil, fastPolicy(), logger.NopLogger())

	result := adapter.Assess(context.Background(), "ISBP-A19", "1.0", "rule text", map[string]interface{}{})

	assert.Equal(t, StatusWarning, result.Status)
	assert.Contains(t, result.Details, "unrecognized verdict")
}

func TestAssessNormalizesVerdictCase(t *testing.T) {
	provider := &fakeProvider{assessment: &Assessment{Status: " FAIL ", Details: "amount exceeds credit"}}
	adapter := NewAdapter(provider, nil, nil, fastPolicy(), logger.NopLogger())

	result := adapter.Assess(context.Background(), "ISBP-A19", "1.0", "rule text", map[string]interface{}{})

	assert.Equal(t, StatusFail, result.Status)
	assert.Equal(t, "amount exceeds credit", result.Details)
}

func TestAssessClampsConfidence(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{"above one", 1.7, 1},
		{"below zero", -0.3, 0},
		{"in range", 0.42, 0.42},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := &fakeProvider{assessment: &Assessment{Status: "pass", Confidence: floatPtr(tc.in)}}
			adapter := NewAdapter(provider, nil, nil, fastPolicy(), logger.NopLogger())

			result := adapter.Assess(context.Background(), "ISBP-A19", "1.0", "rule text", map[string]interface{}{})

			require.NotNil(t, result.Confidence)
			assert.Equal(t, tc.want, *result.Confidence)
		})
	}
}

func TestCacheKeyDeterministic(t *testing.T) {
	cache := NewCache(nil, time.Hour)

	doc := map[string]interface{}{"b": "2", "a": "1", "nested": map[string]interface{}{"y": 2, "x": 1}}
	same := map[string]interface{}{"nested": map[string]interface{}{"x": 1, "y": 2}, "a": "1", "b": "2"}

	k1, err := cache.Key("UCP600-14b", "1.0", doc)
	assert.NoError(t, err)
	k2, err := cache.Key("UCP600-14b", "1.0", same)
	assert.NoError(t, err)
	assert.Equal(t, k1, k2)

	k3, err := cache.Key("UCP600-14b", "2.0", doc)
	assert.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}
