package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docucheck/internal/judgment"
)

func TestJudgmentCacheRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	infra := SetupTestInfraWithOptions(t, false, false, true)
	ctx := context.Background()

	cache := judgment.NewCache(infra.RedisClient, time.Minute)

	doc := map[string]interface{}{"invoice_amount": "99000.00", "credit_amount": "100000.00"}

	key, err := cache.Key("ISBP-A21", "1.0", doc)
	require.NoError(t, err)

	t.Run("miss returns nil without error", func(t *testing.T) {
		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("set then get returns the assessment", func(t *testing.T) {
		confidence := 0.85
		assessment := &judgment.Assessment{
			Status:     "pass",
			Details:    "no data conflict found",
			Confidence: &confidence,
		}
		require.NoError(t, cache.Set(ctx, key, assessment))

		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "pass", got.Status)
		require.NotNil(t, got.Confidence)
		assert.Equal(t, confidence, *got.Confidence)
	})

	t.Run("different rule version misses", func(t *testing.T) {
		otherKey, err := cache.Key("ISBP-A21", "2.0", doc)
		require.NoError(t, err)

		got, err := cache.Get(ctx, otherKey)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
