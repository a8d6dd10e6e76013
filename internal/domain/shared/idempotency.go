package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys that have already been claimed.
// It backs both event deduplication and in-flight request markers.
type IdempotencyStore interface {
	// MarkProcessed claims a key with a TTL.
	// Returns true if the key was newly claimed, false if it was already held.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key is currently held
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release drops a key so that the same work can be attempted again
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a processed key is remembered. Default: 24 hours
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled. Default: true
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
