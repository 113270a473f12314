package rawg

import (
	"context"
	"net/url"
	"strconv"

	"github.com/gameshelf/gameshelf-server/internal/domain"
)

const (
	// DefaultPageSize matches the catalog browser's page size.
	DefaultPageSize = 20
	// MaxPageSize is the largest page RAWG serves.
	MaxPageSize = 40
	// DefaultOrdering lists recently added games first.
	DefaultOrdering = "-added"
)

// Orderings are the sort keys RAWG accepts; a leading "-" reverses them.
var Orderings = []string{
	"name", "released", "added", "created", "updated", "rating", "metacritic",
	"-name", "-released", "-added", "-created", "-updated", "-rating", "-metacritic",
}

// GameQuery selects a page of catalog games. Zero values mean "no filter".
type GameQuery struct {
	Search    string
	Ordering  string
	Genre     int
	Platform  int
	Developer int
	Page      int
	PageSize  int
}

// Normalize fills defaults and clamps the page size.
func (q GameQuery) Normalize() GameQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	q.PageSize = min(q.PageSize, MaxPageSize)
	if q.Ordering == "" {
		q.Ordering = DefaultOrdering
	}
	return q
}

func (q GameQuery) values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Genre > 0 {
		v.Set("genres", strconv.Itoa(q.Genre))
	}
	if q.Platform > 0 {
		v.Set("platforms", strconv.Itoa(q.Platform))
	}
	if q.Developer > 0 {
		v.Set("developers", strconv.Itoa(q.Developer))
	}
	v.Set("ordering", q.Ordering)
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("page_size", strconv.Itoa(q.PageSize))
	return v
}

// ListGames returns one page of games matching q.
func (c *Client) ListGames(ctx context.Context, q GameQuery) (*domain.GamePage, error) {
	q = q.Normalize()

	var resp rawPage[rawGame]
	if err := c.getJSON(ctx, "/games", q.values(), &resp); err != nil {
		return nil, wrapError("listGames", 0, err)
	}

	page := &domain.GamePage{
		Count:    resp.Count,
		Page:     q.Page,
		PageSize: q.PageSize,
		HasNext:  resp.Next != "",
		Results:  make([]domain.Game, 0, len(resp.Results)),
	}
	for i := range resp.Results {
		page.Results = append(page.Results, resp.Results[i].toDomain())
	}
	return page, nil
}

// GetGame returns the detail record of a game, with its description as Markdown.
func (c *Client) GetGame(ctx context.Context, id int) (*domain.Game, error) {
	if id <= 0 {
		return nil, wrapError("getGame", id, ErrInvalidID)
	}

	var resp rawGame
	if err := c.getJSON(ctx, "/games/"+strconv.Itoa(id), nil, &resp); err != nil {
		return nil, wrapError("getGame", id, err)
	}

	game := resp.toDomain()
	return &game, nil
}

// GetScreenshots returns the screenshots of a game.
func (c *Client) GetScreenshots(ctx context.Context, id int) ([]domain.Screenshot, error) {
	if id <= 0 {
		return nil, wrapError("getScreenshots", id, ErrInvalidID)
	}

	var resp rawPage[rawScreenshot]
	if err := c.getJSON(ctx, "/games/"+strconv.Itoa(id)+"/screenshots", nil, &resp); err != nil {
		return nil, wrapError("getScreenshots", id, err)
	}

	shots := make([]domain.Screenshot, 0, len(resp.Results))
	for _, s := range resp.Results {
		shots = append(shots, domain.Screenshot{ID: s.ID, Image: s.Image, Width: s.Width, Height: s.Height})
	}
	return shots, nil
}
