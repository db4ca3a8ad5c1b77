package risk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"loan-application-engine/internal/models"
)

const cacheKeyPrefix = "risk:verdict:"

// VerdictCache stores verdicts for identical profiles.
type VerdictCache interface {
	Get(ctx context.Context, key string) (*models.RiskVerdict, bool, error)
	Set(ctx context.Context, key string, verdict models.RiskVerdict) error
}

// RedisCache is a VerdictCache backed by Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a cache on an existing client. A zero ttl keeps entries forever.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// NewRedisClient opens a client with the pool settings used across services.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// Get returns the cached verdict for key, if any.
func (c *RedisCache) Get(ctx context.Context, key string) (*models.RiskVerdict, bool, error) {
	val, err := c.client.Get(ctx, cacheKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var verdict models.RiskVerdict
	if err := json.Unmarshal([]byte(val), &verdict); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached verdict: %w", err)
	}
	return &verdict, true, nil
}

// Set stores a verdict under key.
func (c *RedisCache) Set(ctx context.Context, key string, verdict models.RiskVerdict) error {
	data, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("failed to encode verdict: %w", err)
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Ping tests the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Fingerprint derives a stable cache key from the profile contents.
func Fingerprint(profile *models.ApplicantProfile) string {
	data, _ := json.Marshal(profile)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
