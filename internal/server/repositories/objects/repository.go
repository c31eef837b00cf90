// Package objects is the TTL-aware key-value store behind the lifecycle
// manager, plus the scored set used to schedule blob deletions.
package objects

import (
	"context"
	"time"
)

// Repository is a durable associative store with optional per-key expiry
// and named scored sets. Expired keys behave exactly like absent ones.
//
// Get returns common.ErrorNotFound for absent or expired keys.
type Repository interface {
	// Set stores value under key. ttl <= 0 means the key never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	// SetIfAbsent stores value only when key is absent or expired, as one
	// atomic step, and reports whether it did. The key gets no expiry.
	SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error)
	// Expire sets a ttl on an existing key. Missing keys are ignored.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// AddScored inserts member into set, or updates its score.
	AddScored(ctx context.Context, set, member string, score int64) error
	// RangeByScore returns members with min <= score <= max, lowest score first.
	RangeByScore(ctx context.Context, set string, min, max int64) ([]string, error)
	RemoveScored(ctx context.Context, set string, members ...string) error
}

// Purger is implemented by stores that keep expired rows around until an
// explicit cleanup, such as Postgres.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}
