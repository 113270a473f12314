package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gameshelf/gameshelf-server/internal/domain"
)

func (s *Server) registerTaxonomyRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listGenres",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres",
		Summary:     "List genres",
		Description: "Returns every catalog genre for use as a browse filter",
		Tags:        []string{"Catalog"},
	}, s.handleListGenres)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPlatforms",
		Method:      http.MethodGet,
		Path:        "/api/v1/platforms",
		Summary:     "List platforms",
		Description: "Returns every catalog platform for use as a browse filter",
		Tags:        []string{"Catalog"},
	}, s.handleListPlatforms)
}

// TaxonomyResponse lists genres or platforms.
type TaxonomyResponse struct {
	Items []domain.Taxon `json:"items"`
	Total int            `json:"total"`
}

// TaxonomyOutput wraps a taxonomy list for Huma.
type TaxonomyOutput struct {
	Body TaxonomyResponse
}

func (s *Server) handleListGenres(ctx context.Context, _ *struct{}) (*TaxonomyOutput, error) {
	return taxonomyOutput(s.catalog.ListGenres(ctx))
}

func (s *Server) handleListPlatforms(ctx context.Context, _ *struct{}) (*TaxonomyOutput, error) {
	return taxonomyOutput(s.catalog.ListPlatforms(ctx))
}

func taxonomyOutput(items []domain.Taxon, err error) (*TaxonomyOutput, error) {
	if err != nil {
		return nil, mapError(err)
	}
	if items == nil {
		items = []domain.Taxon{}
	}
	return &TaxonomyOutput{Body: TaxonomyResponse{Items: items, Total: len(items)}}, nil
}
