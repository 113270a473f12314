package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gameshelf/gameshelf-server/internal/domain"
	"github.com/gameshelf/gameshelf-server/internal/search"
	"github.com/gameshelf/gameshelf-server/internal/service"
)

func (s *Server) registerCollectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCollection",
		Method:      http.MethodGet,
		Path:        "/api/v1/collection",
		Summary:     "List collection",
		Description: "Returns tracked games in the order they were added, optionally filtered by status",
		Tags:        []string{"Collection"},
	}, s.handleListCollection)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addToCollection",
		Method:        http.MethodPost,
		Path:          "/api/v1/collection",
		Summary:       "Add game",
		Description:   "Tracks a game by catalog ID or from an inline record. Adding a tracked game returns the existing entry with 200.",
		Tags:          []string{"Collection"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddToCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCollectionStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/collection/stats",
		Summary:     "Collection stats",
		Description: "Returns game counts per status and total hours played",
		Tags:        []string{"Collection"},
	}, s.handleCollectionStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchCollection",
		Method:      http.MethodGet,
		Path:        "/api/v1/collection/search",
		Summary:     "Search collection",
		Description: "Full-text search over tracked games by name, genre and developer",
		Tags:        []string{"Collection"},
	}, s.handleSearchCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCollectionEntry",
		Method:      http.MethodGet,
		Path:        "/api/v1/collection/{id}",
		Summary:     "Get tracked game",
		Tags:        []string{"Collection"},
	}, s.handleGetCollectionEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFromCollection",
		Method:      http.MethodDelete,
		Path:        "/api/v1/collection/{id}",
		Summary:     "Remove game",
		Description: "Stops tracking a game. Removing an untracked game is not an error.",
		Tags:        []string{"Collection"},
	}, s.handleRemoveFromCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCollectionStatus",
		Method:      http.MethodPut,
		Path:        "/api/v1/collection/{id}/status",
		Summary:     "Update status",
		Tags:        []string{"Collection"},
	}, s.handleUpdateStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCollectionPlaytime",
		Method:      http.MethodPut,
		Path:        "/api/v1/collection/{id}/playtime",
		Summary:     "Update playtime",
		Tags:        []string{"Collection"},
	}, s.handleUpdatePlaytime)
}

// === DTOs ===

// ListCollectionInput filters the collection.
type ListCollectionInput struct {
	Status string `query:"status" doc:"Only games with this status (to_play, playing, completed, abandoned)"`
}

// CollectionResponse lists tracked games.
type CollectionResponse struct {
	Entries []domain.Entry `json:"entries"`
	Total   int            `json:"total"`
}

// CollectionOutput wraps the collection for Huma.
type CollectionOutput struct {
	Body CollectionResponse
}

// AddToCollectionInput contains the add request.
type AddToCollectionInput struct {
	Body service.AddRequest
}

// AddToCollectionOutput reports the added or existing entry.
type AddToCollectionOutput struct {
	Status int
	Body   *service.AddResult
}

// StatsOutput wraps collection stats for Huma.
type StatsOutput struct {
	Body domain.Stats
}

// SearchCollectionInput contains collection search parameters.
type SearchCollectionInput struct {
	Query  string `query:"q" maxLength:"200" doc:"Search text; empty matches every game"`
	Status string `query:"status" doc:"Only games with this status"`
	Genre  string `query:"genre" maxLength:"100" doc:"Only games with this genre slug"`
	Limit  int    `query:"limit" minimum:"0" maximum:"100" doc:"Max results (default 20)"`
	Offset int    `query:"offset" minimum:"0" doc:"Pagination offset"`
}

// SearchCollectionOutput wraps search results for Huma.
type SearchCollectionOutput struct {
	Body *search.Result
}

// EntryIDInput identifies a tracked game.
type EntryIDInput struct {
	ID int `path:"id" minimum:"1" doc:"Game ID"`
}

// EntryOutput wraps a collection entry for Huma.
type EntryOutput struct {
	Body domain.Entry
}

// RemoveResponse reports whether a game was tracked before removal.
type RemoveResponse struct {
	GameID  int  `json:"game_id"`
	Removed bool `json:"removed"`
}

// RemoveOutput wraps the removal result for Huma.
type RemoveOutput struct {
	Body RemoveResponse
}

// UpdateStatusInput sets a game's status.
type UpdateStatusInput struct {
	ID   int `path:"id" minimum:"1" doc:"Game ID"`
	Body struct {
		Status string `json:"status" doc:"New status: to_play, playing, completed, or abandoned"`
	}
}

// UpdatePlaytimeInput sets a game's playtime.
type UpdatePlaytimeInput struct {
	ID   int `path:"id" minimum:"1" doc:"Game ID"`
	Body struct {
		Playtime int `json:"playtime" doc:"Hours played, zero or more"`
	}
}

// === Handlers ===

func (s *Server) handleListCollection(_ context.Context, input *ListCollectionInput) (*CollectionOutput, error) {
	entries, err := s.collection.List(input.Status)
	if err != nil {
		return nil, mapError(err)
	}
	return &CollectionOutput{Body: CollectionResponse{Entries: entries, Total: len(entries)}}, nil
}

func (s *Server) handleAddToCollection(ctx context.Context, input *AddToCollectionInput) (*AddToCollectionOutput, error) {
	result, err := s.collection.Add(ctx, input.Body)
	if err != nil {
		return nil, mapError(err)
	}

	status := http.StatusCreated
	if !result.Added {
		status = http.StatusOK
	}
	return &AddToCollectionOutput{Status: status, Body: result}, nil
}

func (s *Server) handleCollectionStats(_ context.Context, _ *struct{}) (*StatsOutput, error) {
	return &StatsOutput{Body: s.collection.Stats()}, nil
}

func (s *Server) handleSearchCollection(ctx context.Context, input *SearchCollectionInput) (*SearchCollectionOutput, error) {
	result, err := s.collection.Search(ctx, search.Params{
		Query:     input.Query,
		Status:    domain.Status(input.Status),
		GenreSlug: input.Genre,
		Limit:     input.Limit,
		Offset:    input.Offset,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &SearchCollectionOutput{Body: result}, nil
}

func (s *Server) handleGetCollectionEntry(_ context.Context, input *EntryIDInput) (*EntryOutput, error) {
	entry, err := s.collection.Get(input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return &EntryOutput{Body: entry}, nil
}

func (s *Server) handleRemoveFromCollection(ctx context.Context, input *EntryIDInput) (*RemoveOutput, error) {
	removed, err := s.collection.Remove(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return &RemoveOutput{Body: RemoveResponse{GameID: input.ID, Removed: removed}}, nil
}

func (s *Server) handleUpdateStatus(ctx context.Context, input *UpdateStatusInput) (*EntryOutput, error) {
	entry, err := s.collection.UpdateStatus(ctx, input.ID, input.Body.Status)
	if err != nil {
		return nil, mapError(err)
	}
	return &EntryOutput{Body: entry}, nil
}

func (s *Server) handleUpdatePlaytime(ctx context.Context, input *UpdatePlaytimeInput) (*EntryOutput, error) {
	entry, err := s.collection.UpdatePlaytime(ctx, input.ID, input.Body.Playtime)
	if err != nil {
		return nil, mapError(err)
	}
	return &EntryOutput{Body: entry}, nil
}
