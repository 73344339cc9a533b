// Package cache stores translated strings keyed by source hash and language
// pair so repeated runs do not pay for the same translation twice.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	// Get returns a cached translation. Misses and expired entries report false.
	Get(key string) (string, bool)

	// Set stores a translation.
	Set(key string, value string) error
}

// ExportableCache is a cache whose live entries can be listed for export.
type ExportableCache interface {
	TranslationCache
	Entries() (map[string]string, error)
}

// Options selects and configures a cache backend.
type Options struct {
	RedisURL  string        // use Redis when set, memory otherwise
	TTL       time.Duration // zero disables expiry
	KeyPrefix string        // Redis key prefix, default "locsync:"
	Logger    *slog.Logger
}

// Open returns a Redis cache when opts.RedisURL is set and an in-memory cache
// otherwise.
func Open(ctx context.Context, opts Options) (ExportableCache, error) {
	if opts.RedisURL == "" {
		return NewInMemoryCache(opts.TTL), nil
	}
	c, err := NewRedisCache(ctx, RedisConfig{
		URL:       opts.RedisURL,
		TTL:       opts.TTL,
		KeyPrefix: opts.KeyPrefix,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
