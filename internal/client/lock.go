package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/quizforge/sessiond/internal/ports"
)

// Session lock policy. The lock is cooperative: it serializes refresh
// attempts within a process but guarantees no hard mutual exclusion, so
// guarded operations must stay idempotent.
const (
	lockKey = "sessiond:client:refresh_lock"

	// DefaultLockTTL is the abandonment threshold; a record older than this
	// is stealable.
	DefaultLockTTL = 10 * time.Second
	// DefaultLockRetries bounds how many times acquisition backs off before
	// proceeding without the lock.
	DefaultLockRetries = 3

	lockBackoffMin = 300 * time.Millisecond
	lockBackoffMax = 500 * time.Millisecond
)

// lockRecord is the stored lock state.
type lockRecord struct {
	Timestamp int64  `json:"ts"` // unix milliseconds
	HolderID  string `json:"id"`
}

// Lock is a cooperative mutex over shared client storage. Storage
// unavailability falls through to direct execution; availability wins over
// strict mutual exclusion.
type Lock struct {
	kv      ports.KVStore
	ttl     time.Duration
	retries int
	logger  *slog.Logger

	// Clock and Sleep are overridable for tests.
	Clock func() time.Time
	Sleep func(ctx context.Context, d time.Duration)
}

// LockOptions configures a Lock. Zero values take the defaults.
type LockOptions struct {
	KV      ports.KVStore
	TTL     time.Duration
	Retries int
	Logger  *slog.Logger
}

// NewLock constructs a Lock.
func NewLock(opts LockOptions) *Lock {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	retries := opts.Retries
	if retries <= 0 {
		retries = DefaultLockRetries
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Lock{
		kv:      opts.KV,
		ttl:     ttl,
		retries: retries,
		logger:  logger,
		Clock:   time.Now,
		Sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// WithLock runs fn while holding the lock. Acquisition retries with a small
// randomized backoff; after the retry budget is exhausted fn runs anyway
// (forward progress beats deadlock). The lock is released only when this
// holder still owns it.
func (l *Lock) WithLock(ctx context.Context, fn func(ctx context.Context) error) error {
	holderID, acquired := l.acquire(ctx)
	if acquired {
		defer l.release(ctx, holderID)
	}
	return fn(ctx)
}

// acquire attempts to take the lock. It reports whether a record owned by
// holderID was written; false means we proceed without holding anything.
func (l *Lock) acquire(ctx context.Context) (holderID string, acquired bool) {
	holderID = uuid.NewString()

	for attempt := 0; ; attempt++ {
		if l.tryTake(ctx, holderID) {
			return holderID, true
		}
		if attempt >= l.retries {
			l.logger.Debug("session lock retries exhausted, proceeding unlocked")
			return holderID, false
		}
		if ctx.Err() != nil {
			return holderID, false
		}
		l.Sleep(ctx, l.backoff())
	}
}

// tryTake writes a lock record for holderID when the slot is free or the
// current record is abandoned.
func (l *Lock) tryTake(ctx context.Context, holderID string) bool {
	record, err := l.read(ctx)
	if err != nil {
		// Storage unavailable: pretend we won, without a record to release.
		return true
	}

	now := l.Clock()
	payload, marshalErr := json.Marshal(lockRecord{
		Timestamp: now.UnixMilli(),
		HolderID:  holderID,
	})
	if marshalErr != nil {
		return true
	}

	if record == nil {
		ok, setErr := l.kv.SetIfNotExists(ctx, lockKey, payload, l.ttl)
		if setErr != nil {
			return true
		}
		return ok
	}

	age := now.Sub(time.UnixMilli(record.Timestamp))
	if age > l.ttl {
		// Abandoned; steal it.
		if setErr := l.kv.Set(ctx, lockKey, payload, l.ttl); setErr != nil {
			return true
		}
		return true
	}

	return false
}

// release clears the record only if this holder still owns it
// (compare-and-delete), so a slow holder never clears a successor's lock.
func (l *Lock) release(ctx context.Context, holderID string) {
	record, err := l.read(ctx)
	if err != nil || record == nil {
		return
	}
	if record.HolderID != holderID {
		return
	}
	if _, err := l.kv.Delete(ctx, lockKey); err != nil {
		l.logger.Debug("session lock release failed", "error", err)
	}
}

func (l *Lock) read(ctx context.Context) (*lockRecord, error) {
	data, err := l.kv.Get(ctx, lockKey)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	var record lockRecord
	if err := json.Unmarshal(data, &record); err != nil {
		// Corrupt record counts as absent.
		return nil, nil
	}
	return &record, nil
}

func (l *Lock) backoff() time.Duration {
	spread := int64(lockBackoffMax - lockBackoffMin)
	return lockBackoffMin + time.Duration(rand.Int63n(spread))
}
