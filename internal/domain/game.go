// Package domain contains the core types shared by the catalog client, the collection store and the API.
package domain

// Ref is a named catalog reference such as a genre, platform, developer or publisher.
type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// Game is a catalog record as returned by the games database.
// List endpoints fill the summary fields only; detail endpoints also fill
// Description, Developers, Publishers and Website.
type Game struct {
	ID              int     `json:"id"`
	Slug            string  `json:"slug,omitempty"`
	Name            string  `json:"name"`
	Released        string  `json:"released,omitempty"` // YYYY-MM-DD as published by the catalog
	BackgroundImage string  `json:"background_image,omitempty"`
	Rating          float64 `json:"rating,omitzero"`
	RatingTop       int     `json:"rating_top,omitzero"`
	Metacritic      int     `json:"metacritic,omitzero"`
	Playtime        int     `json:"playtime,omitzero"` // average hours, as reported by the catalog
	Genres          []Ref   `json:"genres,omitempty"`
	Platforms       []Ref   `json:"platforms,omitempty"`
	Developers      []Ref   `json:"developers,omitempty"`
	Publishers      []Ref   `json:"publishers,omitempty"`
	Description     string  `json:"description,omitempty"` // Markdown
	Website         string  `json:"website,omitempty"`
}

// GamePage is one page of catalog results.
type GamePage struct {
	Count    int    `json:"count"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	HasNext  bool   `json:"has_next"`
	Results  []Game `json:"results"`
}

// TotalPages returns the number of pages for the current page size.
func (p *GamePage) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.Count + p.PageSize - 1) / p.PageSize
}

// Screenshot is a single screenshot of a game.
type Screenshot struct {
	ID     int    `json:"id"`
	Image  string `json:"image"`
	Width  int    `json:"width,omitzero"`
	Height int    `json:"height,omitzero"`
}

// Developer is a catalog developer record.
type Developer struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Slug            string `json:"slug,omitempty"`
	GamesCount      int    `json:"games_count,omitzero"`
	ImageBackground string `json:"image_background,omitempty"`
	Description     string `json:"description,omitempty"` // plain text
}

// Taxon is a genre or platform with its catalog-wide game count.
type Taxon struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	GamesCount      int    `json:"games_count,omitzero"`
	ImageBackground string `json:"image_background,omitempty"`
}
