package store

import (
	"context"
	"fmt"
)

// Provider defines key-value persistence for serialized documents.
//
// Get returns ok=false with a nil error when the key has never been written.
type Provider interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error

	// Lifecycle
	Close() error
}

// Backend names a Provider implementation.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
	BackendMemory Backend = "memory"
)

// Options configures Open.
type Options struct {
	Backend Backend

	// SQLitePath is the database file for BackendSQLite.
	SQLitePath string

	// Redis settings for BackendRedis.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open creates the Provider selected by opts.Backend.
func Open(ctx context.Context, opts Options) (Provider, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		return NewSQLiteProvider(opts.SQLitePath)
	case BackendRedis:
		return NewRedisProvider(ctx, RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Prefix:   opts.RedisPrefix,
		})
	case BackendMemory:
		return NewMemoryProvider(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
