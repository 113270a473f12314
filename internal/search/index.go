package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/gameshelf/gameshelf-server/internal/domain"
)

// Index is an in-memory Bleve index over the collection.
//
// The collection snapshot is the source of truth, so the index is rebuilt from
// it on startup and after reloads instead of being persisted.
// All methods are safe for concurrent use.
type Index struct {
	index  bleve.Index
	logger *slog.Logger
	mu     sync.RWMutex // write-locked while Rebuild swaps the index
}

// New creates an empty index.
func New(logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &Index{index: index, logger: logger}, nil
}

// Close releases the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexEntry adds or replaces one entry.
func (s *Index) IndexEntry(_ context.Context, e domain.Entry) error {
	doc := DocumentFromEntry(e)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.index.Index(doc.ID, doc.ToMap()); err != nil {
		return fmt.Errorf("index game %d: %w", e.ID, err)
	}
	return nil
}

// DeleteEntry removes one entry. Deleting an unknown id is not an error.
func (s *Index) DeleteEntry(_ context.Context, gameID int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.index.Delete(DocumentID(gameID)); err != nil {
		return fmt.Errorf("delete game %d: %w", gameID, err)
	}
	return nil
}

// Rebuild replaces the index contents with entries.
func (s *Index) Rebuild(ctx context.Context, entries []domain.Entry) error {
	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	const batchSize = 500
	for i := 0; i < len(entries); i += batchSize {
		if err := ctx.Err(); err != nil {
			fresh.Close()
			return err
		}

		end := min(i+batchSize, len(entries))
		batch := fresh.NewBatch()
		for _, e := range entries[i:end] {
			doc := DocumentFromEntry(e)
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				fresh.Close()
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := fresh.Batch(batch); err != nil {
			fresh.Close()
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	s.mu.Lock()
	old := s.index
	s.index = fresh
	s.mu.Unlock()

	if err := old.Close(); err != nil {
		s.logger.Warn("failed to close previous search index", "error", err)
	}

	s.logger.Debug("rebuilt collection search index", "entries", len(entries))
	return nil
}

// DocumentCount returns the number of indexed entries.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}
