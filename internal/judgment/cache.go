package judgment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docucheck/internal/constants"
)

// Cache stores assessments keyed by rule identity and document content, so a
// re-presentation of the same document skips the provider round-trip.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTLSeconds * time.Second
	}
	return &Cache{client: client, ttl: ttl}
}

// Key digests the rule identity and the document. json.Marshal sorts map
// keys, so the same document content always hashes the same.
func (c *Cache) Key(ruleID, ruleVersion string, doc map[string]interface{}) (string, error) {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to digest document: %w", err)
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|", ruleID, ruleVersion)
	h.Write(docJSON)

	return constants.CacheKeyPrefixJudgment + hex.EncodeToString(h.Sum(nil)), nil
}

func (c *Cache) Get(ctx context.Context, key string) (*Assessment, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var assessment Assessment
	if err := json.Unmarshal([]byte(val), &assessment); err != nil {
		return nil, fmt.Errorf("failed to decode cached assessment: %w", err)
	}

	return &assessment, nil
}

func (c *Cache) Set(ctx context.Context, key string, assessment *Assessment) error {
	val, err := json.Marshal(assessment)
	if err != nil {
		return fmt.Errorf("failed to encode assessment: %w", err)
	}

	if err := c.client.Set(ctx, key, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}
