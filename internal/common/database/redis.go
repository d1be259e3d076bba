// internal/common/database/redis.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"complaint-router/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient wraps the Redis client
type RedisClient struct {
	Client *redis.Client
}

// NewRedis creates a new Redis client. The connection is not checked; call
// Ping before relying on it.
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	return &RedisClient{Client: rdb}, nil
}

// Ping tests the Redis connection
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// Get retrieves a value by key
func (c *RedisClient) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

// Set sets a value with optional expiration
func (c *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.Client.Set(ctx, key, value, expiration).Err()
}

// Del deletes one or more keys
func (c *RedisClient) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

type storedToken struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// RedisTokenStore keeps a single access token under one key so that every
// replica reuses the same exchange result.
type RedisTokenStore struct {
	client *RedisClient
	key    string
}

func NewRedisTokenStore(client *RedisClient, key string) *RedisTokenStore {
	return &RedisTokenStore{client: client, key: key}
}

// Load returns an empty token and nil error when nothing is stored.
func (s *RedisTokenStore) Load(ctx context.Context) (string, time.Time, error) {
	raw, err := s.client.Get(ctx, s.key)
	if errors.Is(err, redis.Nil) {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("load token: %w", err)
	}

	var tok storedToken
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return "", time.Time{}, fmt.Errorf("decode stored token: %w", err)
	}
	return tok.AccessToken, tok.ExpiresAt, nil
}

// Save stores the token until expiresAt. Tokens already past their expiry
// are not written.
func (s *RedisTokenStore) Save(ctx context.Context, accessToken string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(storedToken{AccessToken: accessToken, ExpiresAt: expiresAt.UTC()})
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, ttl); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
