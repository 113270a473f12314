package rawg

import (
	"context"
	"strconv"

	"github.com/gameshelf/gameshelf-server/internal/domain"
)

// GetDeveloper returns a developer record with its description as plain text.
// Use ListGames with GameQuery.Developer for the developer's games.
func (c *Client) GetDeveloper(ctx context.Context, id int) (*domain.Developer, error) {
	if id <= 0 {
		return nil, wrapError("getDeveloper", id, ErrInvalidID)
	}

	var resp rawDeveloper
	if err := c.getJSON(ctx, "/developers/"+strconv.Itoa(id), nil, &resp); err != nil {
		return nil, wrapError("getDeveloper", id, err)
	}

	return &domain.Developer{
		ID:              resp.ID,
		Name:            resp.Name,
		Slug:            resp.Slug,
		GamesCount:      resp.GamesCount,
		ImageBackground: resp.ImageBackground,
		Description:     stripHTML(resp.Description),
	}, nil
}
