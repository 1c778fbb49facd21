package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a small JSON read-through cache over redis. A nil *Store (or a
// Store with no client) is valid and behaves as an always-miss cache, so
// callers never have to branch on whether caching is configured.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Store with the given TTL. client may be nil.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Get unmarshals the cached value for key into v. Returns ErrMiss when the
// key is absent or caching is disabled.
func (s *Store) Get(ctx context.Context, key string, v interface{}) error {
	if s == nil || s.client == nil {
		return ErrMiss
	}
	raw, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrMiss
		}
		return err
	}
	return json.Unmarshal([]byte(raw), v)
}

// Set stores v under key for the configured TTL. A no-op when caching is
// disabled.
func (s *Store) Set(ctx context.Context, key string, v interface{}) error {
	if s == nil || s.client == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, string(raw), s.ttl).Err()
}
