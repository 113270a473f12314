// Package collection owns the persisted list of tracked games.
//
// The Store keeps the collection in memory and writes the full snapshot to a
// storage adapter after every mutation. Mutations are serialized and hold the
// lock across the write, so readers never observe a change that was not saved.
package collection

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gameshelf/gameshelf-server/internal/domain"
	"github.com/gameshelf/gameshelf-server/internal/errors"
	"github.com/gameshelf/gameshelf-server/internal/sse"
	"github.com/gameshelf/gameshelf-server/internal/storage"
)

// Store is the collection of tracked games.
type Store struct {
	adapter storage.Adapter
	emitter EventEmitter
	indexer Indexer
	logger  *slog.Logger
	now     func() time.Time
	key     string

	mu       sync.RWMutex
	entries  []domain.Entry
	position map[int]int // game id -> index in entries
	// last snapshot bytes read or written, used to skip no-op reloads
	persisted []byte
}

// New creates a store and hydrates it from adapter.
//
// A missing or unparseable snapshot yields an empty collection. New only fails
// when the adapter itself cannot be read.
func New(ctx context.Context, adapter storage.Adapter, opts ...Option) (*Store, error) {
	s := &Store{
		adapter:  adapter,
		emitter:  NoopEmitter{},
		indexer:  NoopIndexer{},
		logger:   slog.Default(),
		now:      time.Now,
		key:      DefaultKey,
		entries:  []domain.Entry{},
		position: map[int]int{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.hydrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) hydrate(ctx context.Context) error {
	data, err := s.adapter.Get(ctx, s.key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		s.logger.Info("no stored collection, starting empty", "key", s.key)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read collection snapshot: %w", err)
	}

	entries, report, err := decodeSnapshot(data, s.now().UTC().Truncate(time.Millisecond))
	if err != nil {
		s.logger.Warn("stored collection is unreadable, starting empty",
			"key", s.key,
			"error", err)
		return nil
	}
	if report.Any() {
		s.logger.Warn("repaired stored collection",
			"key", s.key,
			"undecodable", report.Undecodable,
			"bad_id", report.BadID,
			"duplicates", report.Duplicate,
			"coerced", report.Coerced)
	}

	s.replace(entries)
	s.persisted = data

	if err := s.indexer.Rebuild(ctx, s.entries); err != nil {
		s.logger.Warn("failed to build collection search index", "error", err)
	}

	s.logger.Info("collection loaded", "key", s.key, "entries", len(entries))
	return nil
}

// replace swaps in a new entry slice and rebuilds the position map.
// Callers hold the write lock.
func (s *Store) replace(entries []domain.Entry) {
	position := make(map[int]int, len(entries))
	for i := range entries {
		position[entries[i].ID] = i
	}
	s.entries = entries
	s.position = position
}

// commit persists next and makes it the current collection.
// On a failed write the current collection is left untouched.
// Callers hold the write lock.
func (s *Store) commit(ctx context.Context, next []domain.Entry) error {
	data, err := encodeSnapshot(next)
	if err != nil {
		return errors.Persistence(err)
	}
	if err := s.adapter.Set(ctx, s.key, data); err != nil {
		s.logger.Error("failed to persist collection",
			"key", s.key,
			"entries", len(next),
			"error", err)
		return errors.Persistence(err)
	}
	s.replace(next)
	s.persisted = data
	return nil
}

// Add tracks a catalog game.
//
// The new entry starts as to_play with addedAt set to now. If the game is
// already tracked the existing entry is returned with added == false and
// nothing is written.
func (s *Store) Add(ctx context.Context, game domain.Game) (domain.Entry, bool, error) {
	if game.ID <= 0 {
		return domain.Entry{}, false, errors.Validationf("game id must be positive, got %d", game.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.position[game.ID]; ok {
		return s.entries[i].Clone(), false, nil
	}

	entry := domain.NewEntry(game, s.now().UTC().Truncate(time.Millisecond))

	next := append(slices.Clone(s.entries), entry)
	if err := s.commit(ctx, next); err != nil {
		return domain.Entry{}, false, err
	}

	s.logger.Debug("game added to collection", "game_id", entry.ID, "name", entry.Name)
	s.afterUpsert(ctx, entry, sse.NewEntryAddedEvent(entry.Clone()))
	return entry.Clone(), true, nil
}

// Remove stops tracking a game. Removing an untracked id returns false and writes nothing.
func (s *Store) Remove(ctx context.Context, gameID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.position[gameID]
	if !ok {
		return false, nil
	}

	next := slices.Delete(slices.Clone(s.entries), i, i+1)
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}

	s.logger.Debug("game removed from collection", "game_id", gameID)
	if err := s.indexer.DeleteEntry(ctx, gameID); err != nil {
		s.logger.Warn("failed to remove entry from search index", "game_id", gameID, "error", err)
	}
	s.emitter.Emit(sse.NewEntryRemovedEvent(gameID, s.now().UTC()))
	return true, nil
}

// UpdateStatus sets the status of a tracked game.
//
// An unknown status is a validation error and an untracked id is a not found
// error; neither touches the collection. Setting the current status again
// writes nothing.
func (s *Store) UpdateStatus(ctx context.Context, gameID int, status domain.Status) (domain.Entry, error) {
	if !status.Valid() {
		return domain.Entry{}, errors.ValidationWithDetails(
			fmt.Sprintf("unknown status %q", status),
			map[string]any{"allowed": domain.AllStatuses()},
		)
	}

	return s.update(ctx, gameID, "status", func(e *domain.Entry) bool {
		if e.Status == status {
			return false
		}
		e.Status = status
		return true
	})
}

// UpdatePlaytime sets the hours played on a tracked game. Negative hours are rejected.
func (s *Store) UpdatePlaytime(ctx context.Context, gameID int, hours int) (domain.Entry, error) {
	if hours < 0 {
		return domain.Entry{}, errors.Validationf("playtime must not be negative, got %d", hours)
	}

	return s.update(ctx, gameID, "playtime", func(e *domain.Entry) bool {
		if e.Playtime == hours {
			return false
		}
		e.Playtime = hours
		return true
	})
}

// update applies mutate to a copy of the entry and commits it when mutate reports a change.
func (s *Store) update(ctx context.Context, gameID int, field string, mutate func(*domain.Entry) bool) (domain.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.position[gameID]
	if !ok {
		return domain.Entry{}, errors.NotFoundf("game %d is not in the collection", gameID)
	}

	entry := s.entries[i].Clone()
	if !mutate(&entry) {
		return entry, nil
	}

	next := slices.Clone(s.entries)
	next[i] = entry
	if err := s.commit(ctx, next); err != nil {
		return domain.Entry{}, err
	}

	s.logger.Debug("collection entry updated", "game_id", gameID, "field", field)
	s.afterUpsert(ctx, entry, sse.NewEntryUpdatedEvent(entry.Clone(), field))
	return entry.Clone(), nil
}

func (s *Store) afterUpsert(ctx context.Context, entry domain.Entry, event sse.Event) {
	if err := s.indexer.IndexEntry(ctx, entry); err != nil {
		s.logger.Warn("failed to index collection entry", "game_id", entry.ID, "error", err)
	}
	s.emitter.Emit(event)
}

// Reload re-reads the stored snapshot, picking up edits made outside the server.
//
// It reports whether the collection changed. Identical bytes are a no-op. A
// missing key keeps the current collection, and an unparseable snapshot keeps
// it too and returns ErrCorruptSnapshot.
func (s *Store) Reload(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.adapter.Get(ctx, s.key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read collection snapshot: %w", err)
	}

	if bytes.Equal(data, s.persisted) {
		return false, nil
	}

	entries, report, err := decodeSnapshot(data, s.now().UTC().Truncate(time.Millisecond))
	if err != nil {
		return false, err
	}
	if report.Any() {
		s.logger.Warn("repaired reloaded collection",
			"undecodable", report.Undecodable,
			"bad_id", report.BadID,
			"duplicates", report.Duplicate,
			"coerced", report.Coerced)
	}

	s.replace(entries)
	s.persisted = data

	if err := s.indexer.Rebuild(ctx, s.entries); err != nil {
		s.logger.Warn("failed to rebuild collection search index", "error", err)
	}
	s.emitter.Emit(sse.NewCollectionReloadedEvent(len(entries), s.now().UTC()))

	s.logger.Info("collection reloaded from storage", "entries", len(entries))
	return true, nil
}

// Contains reports whether the game is tracked.
func (s *Store) Contains(gameID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.position[gameID]
	return ok
}

// Get returns a copy of the entry for gameID.
func (s *Store) Get(gameID int) (domain.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.position[gameID]
	if !ok {
		return domain.Entry{}, false
	}
	return s.entries[i].Clone(), true
}

// List returns copies of all entries in insertion order.
func (s *Store) List() []domain.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEntries(s.entries, nil)
}

// ListByStatus returns copies of the entries with the given status, in insertion order.
func (s *Store) ListByStatus(status domain.Status) []domain.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEntries(s.entries, func(e *domain.Entry) bool { return e.Status == status })
}

// Stats summarizes the collection.
func (s *Store) Stats() domain.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.ComputeStats(s.entries)
}

// Len returns the number of tracked games.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ping reads the snapshot key to check the adapter is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.adapter.Get(ctx, s.key); err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return fmt.Errorf("ping storage: %w", err)
	}
	return nil
}

// Key returns the storage key the snapshot is written to.
func (s *Store) Key() string {
	return s.key
}

func cloneEntries(entries []domain.Entry, keep func(*domain.Entry) bool) []domain.Entry {
	out := make([]domain.Entry, 0, len(entries))
	for i := range entries {
		if keep != nil && !keep(&entries[i]) {
			continue
		}
		out = append(out, entries[i].Clone())
	}
	return out
}
