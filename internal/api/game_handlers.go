package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gameshelf/gameshelf-server/internal/catalog/rawg"
	"github.com/gameshelf/gameshelf-server/internal/domain"
	"github.com/gameshelf/gameshelf-server/internal/service"
)

func (s *Server) registerGameRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listGames",
		Method:      http.MethodGet,
		Path:        "/api/v1/games",
		Summary:     "Browse catalog",
		Description: "Searches and filters the RAWG catalog, one page at a time",
		Tags:        []string{"Catalog"},
	}, s.handleListGames)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGame",
		Method:      http.MethodGet,
		Path:        "/api/v1/games/{id}",
		Summary:     "Get game",
		Description: "Returns a catalog game with its description as Markdown",
		Tags:        []string{"Catalog"},
	}, s.handleGetGame)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGameScreenshots",
		Method:      http.MethodGet,
		Path:        "/api/v1/games/{id}/screenshots",
		Summary:     "Get game screenshots",
		Tags:        []string{"Catalog"},
	}, s.handleGetScreenshots)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGamePlaceholder",
		Method:      http.MethodGet,
		Path:        "/api/v1/games/{id}/placeholder",
		Description: "Returns a BlurHash of the game's background image and an accent color. Games without art get the color only."
		Description: "Returns a BlurHash of the game's background image for progressive loading",
		Tags:        []string{"Catalog"},
	}, s.handleGetPlaceholder)

	huma.Register(s.api, huma.Operation{
		OperationID: "getDeveloper",
		Method:      http.MethodGet,
		Path:        "/api/v1/developers/{id}",
		Summary:     "Get developer",
		Description: "Returns a developer and the first page of their games",
		Tags:        []string{"Catalog"},
	}, s.handleGetDeveloper)
}

// === DTOs ===

// ListGamesInput contains catalog browse parameters.
type ListGamesInput struct {
	Search    string `query:"search" maxLength:"200" doc:"Free-text search"`
	Ordering  string `query:"ordering" enum:"name,released,added,created,updated,rating,metacritic,-name,-released,-added,-created,-updated,-rating,-metacritic" doc:"Sort key, prefix with - to reverse (default -added)"`
	Genre     int    `query:"genre" minimum:"0" doc:"Genre ID filter"`
	Platform  int    `query:"platform" minimum:"0" doc:"Platform ID filter"`
	Developer int    `query:"developer" minimum:"0" doc:"Developer ID filter"`
	Page      int    `query:"page" minimum:"0" doc:"Page number, starting at 1"`
	PageSize  int    `query:"page_size" minimum:"0" maximum:"40" doc:"Results per page (default 20)"`
}

// ListGamesOutput wraps a catalog page for Huma.
type ListGamesOutput struct {
	Body *domain.GamePage
}

// GameIDInput identifies a catalog game.
type GameIDInput struct {
	ID int `path:"id" minimum:"1" doc:"RAWG game ID"`
}

// GameOutput wraps a game for Huma.
type GameOutput struct {
	Body *domain.Game
}

// ScreenshotsResponse lists a game's screenshots.
type ScreenshotsResponse struct {
	Screenshots []domain.Screenshot `json:"screenshots"`
	GameID      int                 `json:"game_id"`
}

// ScreenshotsOutput wraps screenshots for Huma.
type ScreenshotsOutput struct {
	Body ScreenshotsResponse
}

// PlaceholderOutput wraps a placeholder for Huma.
type PlaceholderOutput struct {
	Body *service.Placeholder
}

// DeveloperIDInput identifies a catalog developer.
type DeveloperIDInput struct {
	ID int `path:"id" minimum:"1" doc:"RAWG developer ID"`
}

// DeveloperOutput wraps a developer for Huma.
type DeveloperOutput struct {
	Body *service.DeveloperDetail
}

// === Handlers ===

func (s *Server) handleListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error) {
	page, err := s.catalog.ListGames(ctx, rawg.GameQuery{
		Search:    input.Search,
		Ordering:  input.Ordering,
		Genre:     input.Genre,
		Platform:  input.Platform,
		Developer: input.Developer,
		Page:      input.Page,
		PageSize:  input.PageSize,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &ListGamesOutput{Body: page}, nil
}

func (s *Server) handleGetGame(ctx context.Context, input *GameIDInput) (*GameOutput, error) {
	game, err := s.catalog.GetGame(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return &GameOutput{Body: game}, nil
}

func (s *Server) handleGetScreenshots(ctx context.Context, input *GameIDInput) (*ScreenshotsOutput, error) {
	shots, err := s.catalog.GetScreenshots(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	if shots == nil {
		shots = []domain.Screenshot{}
	}
	return &ScreenshotsOutput{Body: ScreenshotsResponse{GameID: input.ID, Screenshots: shots}}, nil
}

func (s *Server) handleGetPlaceholder(ctx context.Context, input *GameIDInput) (*PlaceholderOutput, error) {
	p, err := s.catalog.Placeholder(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return &PlaceholderOutput{Body: p}, nil
}

func (s *Server) handleGetDeveloper(ctx context.Context, input *DeveloperIDInput) (*DeveloperOutput, error) {
	detail, err := s.catalog.GetDeveloper(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return &DeveloperOutput{Body: detail}, nil
}
