// Package storage provides the scoped key-value byte stores the collection is persisted into.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrKeyNotFound is returned by Get when no value is stored under the key.
var ErrKeyNotFound = errors.New("storage: key not found")

// Adapter is a durable key-value byte store.
//
// Set overwrites the whole value. Implementations must be safe for concurrent use.
type Adapter interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Backend names a storage implementation.
type Backend string

// Supported backends.
const (
	BackendBadger Backend = "badger"
	BackendSQLite Backend = "sqlite"
	BackendFile   Backend = "file"
	BackendRedis  Backend = "redis"
	BackendMemory Backend = "memory"
)

// Backends returns every supported backend.
func Backends() []Backend {
	return []Backend{BackendBadger, BackendSQLite, BackendFile, BackendRedis, BackendMemory}
}

// Valid reports whether b names a supported backend.
func (b Backend) Valid() bool {
	switch b {
	case BackendBadger, BackendSQLite, BackendFile, BackendRedis, BackendMemory:
		return true
	}
	return false
}

// Options selects and configures a backend.
type Options struct {
	Backend   Backend
	Path      string // directory for badger and file, database file for sqlite
	RedisURL  string
	Namespace string // key prefix applied to every key, empty for none
}

// Open creates the adapter described by opts.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (Adapter, error) {
	var (
		a   Adapter
		err error
	)

	switch opts.Backend {
	case BackendBadger:
		a, err = OpenBadger(opts.Path, logger)
	case BackendSQLite:
		a, err = OpenSQLite(ctx, opts.Path, logger)
	case BackendFile:
		a, err = OpenFile(opts.Path)
	case BackendRedis:
		a, err = OpenRedis(ctx, opts.RedisURL)
	case BackendMemory:
		a = NewMemory()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("Storage opened", "backend", opts.Backend, "path", opts.Path, "namespace", opts.Namespace)
	}

	return Scope(a, opts.Namespace), nil
}

// scoped prefixes every key with a namespace.
type scoped struct {
	Adapter
	prefix string
}

// Scope returns an adapter that stores every key under namespace.
// An empty namespace returns a unchanged.
func Scope(a Adapter, namespace string) Adapter {
	if namespace == "" {
		return a
	}
	return &scoped{Adapter: a, prefix: namespace + ":"}
}

func (s *scoped) Get(ctx context.Context, key string) ([]byte, error) {
	return s.Adapter.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key string, value []byte) error {
	return s.Adapter.Set(ctx, s.prefix+key, value)
}

// Unwrap returns the adapter underneath the namespace.
func (s *scoped) Unwrap() Adapter {
	return s.Adapter
}

// ScopedKey returns the key a scoped adapter actually stores key under.
// Adapters without a namespace return key unchanged.
func ScopedKey(a Adapter, key string) string {
	if s, ok := a.(*scoped); ok {
		return s.prefix + key
	}
	return key
}

// Base strips any namespace wrapper and returns the backend adapter.
func Base(a Adapter) Adapter {
	for {
		s, ok := a.(*scoped)
		if !ok {
			return a
		}
		a = s.Adapter
	}
}
