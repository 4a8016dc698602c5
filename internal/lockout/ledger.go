// Package lockout tracks consecutive failed PIN verifications per phone
// number and enforces a timed lockout once the threshold is reached.
package lockout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable indicates the lockout backend is unreachable. Verification
// must not proceed without a lockout answer.
var ErrUnavailable = errors.New("lockout backend unavailable")

// Config holds ledger tuning. Zero values fall back to the contract defaults:
// 4 consecutive failures lock the number for 15 minutes.
type Config struct {
	Threshold  int
	Window     time.Duration
	CounterTTL time.Duration // idle expiry of the failure counter, hygiene only
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = 4
	}
	if c.Window <= 0 {
		c.Window = 15 * time.Minute
	}
	if c.CounterTTL <= 0 {
		c.CounterTTL = 24 * time.Hour
	}
	return c
}

// Ledger is the per-phone failure counter and lockout record, backed by
// Redis. The counter increment is a single atomic INCR, so two concurrent
// failures against the same number are both counted.
type Ledger struct {
	client redis.UniversalClient
	cfg    Config
}

// NewLedger creates a ledger.
func NewLedger(client redis.UniversalClient, cfg Config) *Ledger {
	return &Ledger{client: client, cfg: cfg.withDefaults()}
}

func failKey(phone string) string {
	return "lockout:fails:" + phone
}

func lockKey(phone string) string {
	return "lockout:lock:" + phone
}

// RecordFailure upserts the failure record and increments the counter. Once
// the count reaches the threshold the lock key is set (or extended) with the
// full window TTL. Returns whether the number is now locked.
func (l *Ledger) RecordFailure(ctx context.Context, phone string) (bool, error) {
	count, err := l.client.Incr(ctx, failKey(phone)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := l.client.Expire(ctx, failKey(phone), l.cfg.CounterTTL).Err(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if count < int64(l.cfg.Threshold) {
		return false, nil
	}
	if err := l.client.Set(ctx, lockKey(phone), count, l.cfg.Window).Err(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return true, nil
}

// RecordSuccess clears the failure record, equivalent to resetting the
// counter to zero and removing any lockout.
func (l *Ledger) RecordSuccess(ctx context.Context, phone string) error {
	if err := l.client.Del(ctx, failKey(phone), lockKey(phone)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// IsLocked reports whether a still-future lockout exists for the phone.
func (l *Ledger) IsLocked(ctx context.Context, phone string) (bool, error) {
	remaining, err := l.Remaining(ctx, phone)
	if err != nil {
		return false, err
	}
	return remaining > 0, nil
}

// Remaining returns how long the current lockout still has to run, or zero
// when the phone is not locked.
func (l *Ledger) Remaining(ctx context.Context, phone string) (time.Duration, error) {
	ttl, err := l.client.PTTL(ctx, lockKey(phone)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

// FailureCount returns the current consecutive-failure count for the phone.
func (l *Ledger) FailureCount(ctx context.Context, phone string) (int, error) {
	count, err := l.client.Get(ctx, failKey(phone)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return int(count), nil
}
