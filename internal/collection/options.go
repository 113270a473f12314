package collection

import (
	"context"
	"log/slog"
	"time"

	"github.com/gameshelf/gameshelf-server/internal/domain"
	"github.com/gameshelf/gameshelf-server/internal/sse"
)

// DefaultKey is the storage key the collection snapshot lives under.
const DefaultKey = "gameCollection"

// EventEmitter broadcasts collection changes.
type EventEmitter interface {
	Emit(event sse.Event)
}

// NoopEmitter discards events.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(sse.Event) {}

// Indexer keeps a search index in step with the collection.
// Index failures are logged by the store and never fail a mutation.
type Indexer interface {
	IndexEntry(ctx context.Context, entry domain.Entry) error
	DeleteEntry(ctx context.Context, gameID int) error
	Rebuild(ctx context.Context, entries []domain.Entry) error
}

// NoopIndexer ignores index updates.
type NoopIndexer struct{}

// IndexEntry is a no-op.
func (NoopIndexer) IndexEntry(context.Context, domain.Entry) error { return nil }

// DeleteEntry is a no-op.
func (NoopIndexer) DeleteEntry(context.Context, int) error { return nil }

// Rebuild is a no-op.
func (NoopIndexer) Rebuild(context.Context, []domain.Entry) error { return nil }

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for addedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithKey overrides the storage key. Defaults to DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithEmitter sets the change event emitter.
func WithEmitter(emitter EventEmitter) Option {
	return func(s *Store) {
		if emitter != nil {
			s.emitter = emitter
		}
	}
}

// WithIndexer sets the search indexer.
func WithIndexer(indexer Indexer) Option {
	return func(s *Store) {
		if indexer != nil {
			s.indexer = indexer
		}
	}
}
