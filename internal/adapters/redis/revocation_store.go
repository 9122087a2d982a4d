package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
)

// RevocationStore tracks the per-principal tokens-valid-from watermark in
// Redis. Session artifacts issued before the watermark are treated as
// revoked regardless of signature validity.
type RevocationStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRevocationStore creates a Redis-backed revocation store. Watermarks are
// kept slightly longer than the longest session lifetime so a revocation can
// never expire before the artifacts it invalidates.
func NewRevocationStore(client redis.UniversalClient, sessionTTL time.Duration) *RevocationStore {
	return &RevocationStore{
		client: client,
		prefix: "revoked:",
		ttl:    sessionTTL + 24*time.Hour,
	}
}

// Revoke moves the watermark for uid to the given instant.
func (s *RevocationStore) Revoke(ctx context.Context, uid string, at time.Time) error {
	if uid == "" {
		return errors.New("uid cannot be empty")
	}

	val := strconv.FormatInt(at.UTC().Unix(), 10)
	if err := s.client.Set(ctx, s.prefix+uid, val, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set revocation: %w", err)
	}
	return nil
}

// ValidFrom returns the watermark for uid; the zero Timestamp means no
// revocation has been recorded.
func (s *RevocationStore) ValidFrom(ctx context.Context, uid string) (domainauth.Timestamp, error) {
	if uid == "" {
		return domainauth.Timestamp{}, errors.New("uid cannot be empty")
	}

	val, err := s.client.Get(ctx, s.prefix+uid).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Timestamp{}, nil
		}
		return domainauth.Timestamp{}, fmt.Errorf("redis get revocation: %w", err)
	}

	sec, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return domainauth.Timestamp{}, fmt.Errorf("parse revocation watermark: %w", err)
	}
	return domainauth.FromUnix(sec), nil
}
