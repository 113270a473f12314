package rawg

import (
	"context"
	"net/url"
	"strconv"

	"github.com/gameshelf/gameshelf-server/internal/domain"
)

// maxTaxonomyPages bounds how many pages ListGenres and ListPlatforms follow.
const maxTaxonomyPages = 5

// ListGenres returns every genre.
func (c *Client) ListGenres(ctx context.Context) ([]domain.Taxon, error) {
	taxa, err := c.listTaxonomy(ctx, "/genres")
	if err != nil {
		return nil, wrapError("listGenres", 0, err)
	}
	return taxa, nil
}

// ListPlatforms returns every platform.
func (c *Client) ListPlatforms(ctx context.Context) ([]domain.Taxon, error) {
	taxa, err := c.listTaxonomy(ctx, "/platforms")
	if err != nil {
		return nil, wrapError("listPlatforms", 0, err)
	}
	return taxa, nil
}

// listTaxonomy follows pagination until the list is exhausted.
func (c *Client) listTaxonomy(ctx context.Context, path string) ([]domain.Taxon, error) {
	var taxa []domain.Taxon

	for page := 1; page <= maxTaxonomyPages; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("page_size", strconv.Itoa(MaxPageSize))

		var resp rawPage[rawTaxon]
		if err := c.getJSON(ctx, path, q, &resp); err != nil {
			return nil, err
		}
		for i := range resp.Results {
			taxa = append(taxa, resp.Results[i].toDomain())
		}
		if resp.Next == "" {
			break
		}
	}

	return taxa, nil
}
