package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gameshelf/gameshelf-server/internal/cache"
	"github.com/gameshelf/gameshelf-server/internal/catalog/rawg"
	"github.com/gameshelf/gameshelf-server/internal/color"
	"github.com/gameshelf/gameshelf-server/internal/domain"
	"github.com/gameshelf/gameshelf-server/internal/errors"
	"github.com/gameshelf/gameshelf-server/internal/media/placeholder"
)

// Catalog is the read-only games database the service fronts.
type Catalog interface {
	ListGames(ctx context.Context, q rawg.GameQuery) (*domain.GamePage, error)
	GetGame(ctx context.Context, id int) (*domain.Game, error)
	GetScreenshots(ctx context.Context, id int) ([]domain.Screenshot, error)
	GetDeveloper(ctx context.Context, id int) (*domain.Developer, error)
	ListGenres(ctx context.Context) ([]domain.Taxon, error)
	ListPlatforms(ctx context.Context) ([]domain.Taxon, error)
}

// Placeholders computes image placeholders.
type Placeholders interface {
	Compute(ctx context.Context, url string) (string, error)
}

// DeveloperDetail is a developer with the first page of their games.
type DeveloperDetail struct {
	Developer *domain.Developer `json:"developer"`
	Games     *domain.GamePage  `json:"games"`
}

// Placeholder is what a client paints while a game's background image loads.
// Color is always set; ImageURL and BlurHash are empty when the game has no image.
type Placeholder struct {
	ImageURL string `json:"image_url,omitempty"`
	BlurHash string `json:"blurhash,omitempty"`
	Color    string `json:"color"`
	GameID   int    `json:"game_id"`
}

// CatalogService fronts the catalog with a response cache and maps its
// failures to domain errors.
type CatalogService struct {
	client       Catalog
	cache        *cache.Cache[any]
	placeholders Placeholders
	logger       *slog.Logger
	configured   bool
}

// NewCatalogService creates a new catalog service. A nil cache disables caching.
// configured reports whether an API key is set; without one every call fails fast.
func NewCatalogService(client Catalog, c *cache.Cache[any], placeholders Placeholders, configured bool, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		client:       client,
		cache:        c,
		placeholders: placeholders,
		configured:   configured,
		logger:       logger,
	}
}

// Configured reports whether the catalog can be queried.
func (s *CatalogService) Configured() bool {
	return s.configured
}

// ListGames returns a page of catalog games.
func (s *CatalogService) ListGames(ctx context.Context, q rawg.GameQuery) (*domain.GamePage, error) {
	q = q.Normalize()
	key := fmt.Sprintf("games|%s|%s|%d|%d|%d|%d|%d", q.Search, q.Ordering, q.Genre, q.Platform, q.Developer, q.Page, q.PageSize)
	return cached(ctx, s, key, func(ctx context.Context) (*domain.GamePage, error) {
		return s.client.ListGames(ctx, q)
	})
}

// GetGame returns a game's detail record.
func (s *CatalogService) GetGame(ctx context.Context, id int) (*domain.Game, error) {
	return cached(ctx, s, "game|"+strconv.Itoa(id), func(ctx context.Context) (*domain.Game, error) {
		return s.client.GetGame(ctx, id)
	})
}

// GetScreenshots returns a game's screenshots.
func (s *CatalogService) GetScreenshots(ctx context.Context, id int) ([]domain.Screenshot, error) {
	return cached(ctx, s, "screenshots|"+strconv.Itoa(id), func(ctx context.Context) ([]domain.Screenshot, error) {
		return s.client.GetScreenshots(ctx, id)
	})
}

// GetDeveloper returns a developer and the first page of their games.
func (s *CatalogService) GetDeveloper(ctx context.Context, id int) (*DeveloperDetail, error) {
	dev, err := cached(ctx, s, "developer|"+strconv.Itoa(id), func(ctx context.Context) (*domain.Developer, error) {
		return s.client.GetDeveloper(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	games, err := s.ListGames(ctx, rawg.GameQuery{Developer: id})
	if err != nil {
		return nil, err
	}

	return &DeveloperDetail{Developer: dev, Games: games}, nil
}

// ListGenres returns every catalog genre.
func (s *CatalogService) ListGenres(ctx context.Context) ([]domain.Taxon, error) {
	return cached(ctx, s, "genres", s.client.ListGenres)
}

// ListPlatforms returns every catalog platform.
func (s *CatalogService) ListPlatforms(ctx context.Context) ([]domain.Taxon, error) {
	return cached(ctx, s, "platforms", s.client.ListPlatforms)
}

// Placeholder computes the BlurHash of a game's background image along with
// an accent color derived from its slug.
func (s *CatalogService) Placeholder(ctx context.Context, id int) (*Placeholder, error) {
	game, err := s.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}

	key := game.Slug
	if key == "" {
		key = strconv.Itoa(game.ID)
	}
	p := &Placeholder{GameID: id, Color: color.ForKey(key)}
	if game.BackgroundImage == "" {
		return p, nil
	}

	hash, err := s.placeholders.Compute(ctx, game.BackgroundImage)
	if err != nil {
		return nil, errors.Upstream("could not compute placeholder", err)
	}

	p.ImageURL = game.BackgroundImage
	p.BlurHash = hash
	return p, nil
}

// cached serves key from the cache or calls fetch and caches its result.
// Errors are never cached.
func cached[T any](ctx context.Context, s *CatalogService, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if !s.configured {
		return zero, errors.Upstream("catalog API key is not configured", nil)
	}

	if v, ok := s.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	start := time.Now()
	v, err := fetch(ctx)
	if err != nil {
		s.logger.Debug("catalog request failed", "key", key, "error", err)
		return zero, catalogError(err)
	}

	s.logger.Debug("catalog request", "key", key, "duration", time.Since(start))
	s.cache.Set(key, v)
	return v, nil
}

// catalogError maps RAWG client errors to domain errors.
func catalogError(err error) error {
	switch {
	case errors.Is(err, rawg.ErrNotFound):
		return errors.Wrap(err, errors.CodeNotFound, "not found in catalog")
	case errors.Is(err, rawg.ErrInvalidID), errors.Is(err, rawg.ErrBadRequest):
		return errors.Wrap(err, errors.CodeValidation, "invalid catalog request")
	case errors.Is(err, rawg.ErrRateLimited):
		return errors.Wrap(err, errors.CodeRateLimited, "catalog rate limit reached, retry shortly")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return errors.Upstream("catalog unavailable", err)
	}
}
