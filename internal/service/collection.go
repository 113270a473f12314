package service

import (
	"context"
	"log/slog"

	"github.com/gameshelf/gameshelf-server/internal/collection"
	"github.com/gameshelf/gameshelf-server/internal/domain"
	"github.com/gameshelf/gameshelf-server/internal/errors"
	"github.com/gameshelf/gameshelf-server/internal/genre"
	"github.com/gameshelf/gameshelf-server/internal/normalize"
	"github.com/gameshelf/gameshelf-server/internal/search"
	"github.com/gameshelf/gameshelf-server/internal/validation"
)

// GameFetcher looks up a catalog game by id.
type GameFetcher interface {
	GetGame(ctx context.Context, id int) (*domain.Game, error)
}

// RefInput is a genre, platform or developer reference in an inline game.
type RefInput struct {
	Name string `json:"name" validate:"required,max=200"`
	Slug string `json:"slug,omitempty" validate:"omitempty,slug"`
	ID   int    `json:"id" validate:"gt=0"`
}

// GameInput is a catalog record supplied by the client instead of fetched.
type GameInput struct {
	Name            string     `json:"name" validate:"required,max=300"`
	Slug            string     `json:"slug,omitempty" validate:"omitempty,slug"`
	BackgroundImage string     `json:"background_image,omitempty" validate:"omitempty,http_url"`
	Released        string     `json:"released,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Genres          []RefInput `json:"genres,omitempty" validate:"omitempty,max=50,dive"`
	Platforms       []RefInput `json:"platforms,omitempty" validate:"omitempty,max=50,dive"`
	Developers      []RefInput `json:"developers,omitempty" validate:"omitempty,max=50,dive"`
	Rating          float64    `json:"rating,omitempty" validate:"gte=0,lte=5"`
	ID              int        `json:"id" validate:"gt=0"`
	Metacritic      int        `json:"metacritic,omitempty" validate:"gte=0,lte=100"`
	Playtime        int        `json:"playtime,omitempty" validate:"gte=0"`
}

// AddRequest adds a game by catalog id or from an inline record, never both.
type AddRequest struct {
	Game   *GameInput `json:"game,omitempty" validate:"required_without=GameID,excluded_with=GameID"`
	GameID int        `json:"game_id,omitempty" validate:"required_without=Game,omitempty,gt=0"`
}

// AddResult reports the tracked entry and whether it was newly added.
type AddResult struct {
	Entry domain.Entry `json:"entry"`
	Added bool         `json:"added"`
}

// CollectionService validates requests and forwards them to the collection store.
type CollectionService struct {
	store     *collection.Store
	catalog   GameFetcher
	index     *search.Index
	validator *validation.Validator
	logger    *slog.Logger
}

// NewCollectionService creates a new collection service.
func NewCollectionService(
	store *collection.Store,
	catalog GameFetcher,
	index *search.Index,
	validator *validation.Validator,
	logger *slog.Logger,
) *CollectionService {
	return &CollectionService{
		store:     store,
		catalog:   catalog,
		index:     index,
		validator: validator,
		logger:    logger,
	}
}

// Add tracks a game. With GameID set the record is fetched from the catalog;
// otherwise the inline record is used. Adding a tracked game returns the
// existing entry with Added false.
func (s *CollectionService) Add(ctx context.Context, req AddRequest) (*AddResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var game domain.Game
	if req.GameID > 0 {
		// A tracked game never needs the catalog.
		if entry, ok := s.store.Get(req.GameID); ok {
			return &AddResult{Entry: entry, Added: false}, nil
		}

		fetched, err := s.catalog.GetGame(ctx, req.GameID)
		if err != nil {
			return nil, err
		}
		game = *fetched
	} else {
		game = req.Game.toDomain()
	}

	entry, added, err := s.store.Add(ctx, game)
	if err != nil {
		return nil, err
	}

	if added {
		s.logger.Info("game added to collection", "game_id", entry.ID, "name", entry.Name)
	}
	return &AddResult{Entry: entry, Added: added}, nil
}

// Remove stops tracking a game and reports whether it was tracked.
func (s *CollectionService) Remove(ctx context.Context, gameID int) (bool, error) {
	removed, err := s.store.Remove(ctx, gameID)
	if err != nil {
		return false, err
	}
	if removed {
		s.logger.Info("game removed from collection", "game_id", gameID)
	}
	return removed, nil
}

// UpdateStatus sets a tracked game's status from its wire name.
func (s *CollectionService) UpdateStatus(ctx context.Context, gameID int, raw string) (domain.Entry, error) {
	if err := s.validator.Var("status", raw, "required,status"); err != nil {
		return domain.Entry{}, err
	}
	return s.store.UpdateStatus(ctx, gameID, domain.Status(raw))
}

// UpdatePlaytime sets the hours played on a tracked game.
func (s *CollectionService) UpdatePlaytime(ctx context.Context, gameID, hours int) (domain.Entry, error) {
	return s.store.UpdatePlaytime(ctx, gameID, hours)
}

// Get returns a tracked game.
func (s *CollectionService) Get(gameID int) (domain.Entry, error) {
	entry, ok := s.store.Get(gameID)
	if !ok {
		return domain.Entry{}, errors.NotFoundf("game %d is not in the collection", gameID)
	}
	return entry, nil
}

// List returns the collection in insertion order, optionally filtered by status.
func (s *CollectionService) List(status string) ([]domain.Entry, error) {
	if status == "" {
		return s.store.List(), nil
	}
	if err := s.validator.Var("status", status, "status"); err != nil {
		return nil, err
	}
	return s.store.ListByStatus(domain.Status(status)), nil
}

// Stats summarizes the collection.
func (s *CollectionService) Stats() domain.Stats {
	return s.store.Stats()
}

// Search runs a full-text query over the collection. The genre filter accepts
// common aliases such as "rpg" or "fps".
func (s *CollectionService) Search(ctx context.Context, params search.Params) (*search.Result, error) {
	if params.Status != "" && !params.Status.Valid() {
		return nil, errors.Validationf("unknown status %q", params.Status)
	}
	if params.Limit < 0 || params.Offset < 0 {
		return nil, errors.Validation("limit and offset must not be negative")
	}

	if params.GenreSlug != "" {
		params.GenreSlug = genre.Resolve(params.GenreSlug)
	}

	result, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "search failed")
	}
	return result, nil
}

// Ping checks that the backing storage answers.
func (s *CollectionService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Len returns the number of tracked games.
func (s *CollectionService) Len() int {
	return s.store.Len()
}

// IndexedCount returns the number of documents in the search index.
func (s *CollectionService) IndexedCount() (uint64, error) {
	return s.index.DocumentCount()
}

func (g *GameInput) toDomain() domain.Game {
	slug := g.Slug
	if slug == "" {
		slug = normalize.Slugify(g.Name)
	}
	return domain.Game{
		ID:              g.ID,
		Slug:            slug,
		Name:            normalize.Text(g.Name),
		Released:        g.Released,
		BackgroundImage: g.BackgroundImage,
		Rating:          g.Rating,
		Metacritic:      g.Metacritic,
		Playtime:        g.Playtime,
		Genres:          refsToDomain(g.Genres),
		Platforms:       refsToDomain(g.Platforms),
		Developers:      refsToDomain(g.Developers),
	}
}

func refsToDomain(in []RefInput) []domain.Ref {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Ref, len(in))
	for i, r := range in {
		slug := r.Slug
		if slug == "" {
			slug = normalize.Slugify(r.Name)
		}
		out[i] = domain.Ref{ID: r.ID, Name: normalize.Text(r.Name), Slug: slug}
	}
	return out
}
