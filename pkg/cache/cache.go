// Package cache stores replay records and other derived artifacts so that a
// pipeline run over the same sample can be reproduced without resampling.
//
// # Backends
//
//   - [NullCache]: stores nothing; caching disabled
//   - [FileCache]: one JSON file per key, for CLI usage
//   - [RedisCache]: shared cache for multi-instance servers
//   - [MongoCache]: durable store with TTL-indexed expiry
//
// # Keys
//
// Keys are built by a [Keyer], never by hand:
//
//	key := keyer.ReplayKey(sampleHash, pipelineHash, seed)
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"
)

// Default TTLs per key type.
const (
	// TTLReplay is how long a replay record is kept.
	TTLReplay = 30 * 24 * time.Hour

	// TTLPipeline is how long a parsed pipeline spec is kept.
	TTLPipeline = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A ttl of zero means no expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by backends that can drop all of their entries.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}
