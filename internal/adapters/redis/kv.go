package redis

// Package redis provides Redis-based adapters for the sessiond system.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV implements the ports.KVStore interface over Redis. It backs the session
// lock record and the shared token cache in multi-process deployments.
type KV struct {
	client redis.UniversalClient
	prefix string
}

// NewKV creates a Redis-backed KV store.
func NewKV(client redis.UniversalClient) *KV {
	return &KV{client: client, prefix: "sessiond:"}
}

// NewKVWithPrefix creates a Redis KV store with a custom key prefix.
func NewKVWithPrefix(client redis.UniversalClient, prefix string) *KV {
	return &KV{client: client, prefix: prefix}
}

// Get returns the value for key, or nil when the key does not exist.
func (s *KV) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}

	result, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	return []byte(result), nil
}

// Set stores value under key with the given TTL (0 = no expiry).
func (s *KV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

// SetIfNotExists atomically sets a key only if it doesn't already exist.
func (s *KV) SetIfNotExists(
	ctx context.Context,
	key string,
	value []byte,
	ttl time.Duration,
) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}

	actualTTL := ttl
	if ttl <= 0 {
		actualTTL = time.Second // Minimum TTL of 1 second
	}

	// SETNX followed by EXPIRE is not atomic; SET with NX + TTL is, and the
	// lock protocol depends on that atomicity under concurrency.
	cmd := s.client.SetArgs(ctx, s.prefix+key, value, redis.SetArgs{Mode: "NX", TTL: actualTTL})
	status, err := cmd.Result()
	if err != nil {
		// When the NX condition is not met, Redis returns a nil reply which
		// go-redis surfaces as redis.Nil; treat as "was not set", not an error.
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis SET NX: %w", err)
	}

	return status == "OK", nil
}

// Delete removes a key and reports whether anything was deleted.
func (s *KV) Delete(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}

	result, err := s.client.Del(ctx, s.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}

	return result > 0, nil
}

// Health checks the health of the Redis connection.
func (s *KV) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
