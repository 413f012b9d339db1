// Package storage holds the durable key-value stores that back the session.
//
// Every backend treats a missing key as (value "", found false, err nil);
// errors are reserved for the backend itself failing.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// KV is the small persistence surface the session store depends on.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Backend is a KV that owns resources.
type Backend interface {
	KV
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	Path        string // file and sqlite
	RedisAddr   string
	RedisDB     int
	RedisPrefix string
	Logger      *slog.Logger
}

// Open returns the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Backend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	switch opts.Backend {
	case BackendFile, "":
		return NewFile(opts.Path), nil
	case BackendSQLite:
		db, err := OpenSQLite(ctx, opts.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	case BackendRedis:
		r, err := OpenRedis(ctx, RedisOptions{Addr: opts.RedisAddr, DB: opts.RedisDB, Prefix: opts.RedisPrefix})
		if err != nil {
			return nil, err
		}
		return r, nil
	case BackendMemory:
		logger.Debug("using in-memory session storage; sessions will not survive restart")
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("storage.Open: unknown backend %q", opts.Backend)
	}
}

// ensureDir creates the parent directory of path with owner-only permissions.
func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	return nil
}
