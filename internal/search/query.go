package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/gameshelf/gameshelf-server/internal/domain"
	"github.com/gameshelf/gameshelf-server/internal/normalize"
)

// Params configures a collection search.
type Params struct {
	Query     string
	Status    domain.Status // empty for any
	GenreSlug string        // empty for any
	Limit     int
	Offset    int
}

// DefaultLimit is used when Params.Limit is not positive.
const DefaultLimit = 20

// Result is a page of matching games.
type Result struct {
	Query  string `json:"query"`
	Hits   []Hit  `json:"hits"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
}

// Hit is one matching game.
type Hit struct {
	Name   string        `json:"name"`
	Status domain.Status `json:"status"`
	Score  float64       `json:"score"`
	GameID int           `json:"game_id"`
}

// Search runs a query against the collection.
// An empty query matches every entry and orders by most recently added.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultLimit
	}
	params.Offset = max(params.Offset, 0)

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	req.Fields = []string{"title", "status"}
	if strings.TrimSpace(params.Query) == "" {
		req.SortBy([]string{"-added_at", "_id"})
	} else {
		req.SortBy([]string{"-_score", "_id"})
	}

	s.mu.RLock()
	res, err := s.index.SearchInContext(ctx, req)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		gameID, err := strconv.Atoi(h.ID)
		if err != nil {
			continue
		}
		hit := Hit{GameID: gameID, Score: h.Score}
		if v, ok := h.Fields["title"].(string); ok {
			hit.Name = v
		}
		if v, ok := h.Fields["status"].(string); ok {
			hit.Status = domain.Status(v)
		}
		result.Hits = append(result.Hits, hit)
	}

	return result, nil
}

// buildQuery combines the text query and filters with AND.
func buildQuery(params Params) query.Query {
	var queries []query.Query

	if text := normalize.Fold(params.Query); text != "" {
		nameMatch := bleve.NewMatchQuery(text)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)

		developerMatch := bleve.NewMatchQuery(text)
		developerMatch.SetField("developers")
		developerMatch.SetBoost(1.5)

		genreMatch := bleve.NewMatchQuery(text)
		genreMatch.SetField("genres")

		platformMatch := bleve.NewMatchQuery(text)
		platformMatch.SetField("platforms")
		platformMatch.SetBoost(0.5)

		// Typo tolerance on the name.
		fuzzy := bleve.NewMatchQuery(text)
		fuzzy.SetField("name")
		fuzzy.SetFuzziness(1)
		fuzzy.SetBoost(0.8)

		textQueries := []query.Query{nameMatch, developerMatch, genreMatch, platformMatch, fuzzy}

		// Prefix on the last word for search-as-you-type.
		words := strings.Fields(text)
		if last := words[len(words)-1]; len(last) >= 2 {
			prefix := bleve.NewPrefixQuery(last)
			prefix.SetField("name")
			prefix.SetBoost(0.5)
			textQueries = append(textQueries, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.Status != "" {
		tq := bleve.NewTermQuery(string(params.Status))
		tq.SetField("status")
		queries = append(queries, tq)
	}

	if params.GenreSlug != "" {
		tq := bleve.NewTermQuery(params.GenreSlug)
		tq.SetField("genre_slugs")
		queries = append(queries, tq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
