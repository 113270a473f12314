package rawg

import "github.com/gameshelf/gameshelf-server/internal/domain"

// Raw API response types (internal)

type rawPage[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []T    `json:"results"`
}

type rawRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// rawPlatformWrapper is how RAWG nests platforms inside game records.
type rawPlatformWrapper struct {
	Platform rawRef `json:"platform"`
}

type rawGame struct {
	ID              int                  `json:"id"`
	Slug            string               `json:"slug"`
	Name            string               `json:"name"`
	Released        string               `json:"released"`
	BackgroundImage string               `json:"background_image"`
	Rating          float64              `json:"rating"`
	RatingTop       int                  `json:"rating_top"`
	Metacritic      int                  `json:"metacritic"`
	Playtime        int                  `json:"playtime"`
	Genres          []rawRef             `json:"genres"`
	Platforms       []rawPlatformWrapper `json:"platforms"`
	Developers      []rawRef             `json:"developers"`
	Publishers      []rawRef             `json:"publishers"`
	Description     string               `json:"description"`
	DescriptionRaw  string               `json:"description_raw"`
	Website         string               `json:"website"`
}

type rawScreenshot struct {
	ID     int    `json:"id"`
	Image  string `json:"image"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type rawDeveloper struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	GamesCount      int    `json:"games_count"`
	ImageBackground string `json:"image_background"`
	Description     string `json:"description"`
}

type rawTaxon struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	GamesCount      int    `json:"games_count"`
	ImageBackground string `json:"image_background"`
}

func toRefs(raw []rawRef) []domain.Ref {
	if len(raw) == 0 {
		return nil
	}
	refs := make([]domain.Ref, 0, len(raw))
	for _, r := range raw {
		refs = append(refs, domain.Ref{ID: r.ID, Name: r.Name, Slug: r.Slug})
	}
	return refs
}

func (g *rawGame) toDomain() domain.Game {
	game := domain.Game{
		ID:              g.ID,
		Slug:            g.Slug,
		Name:            g.Name,
		Released:        g.Released,
		BackgroundImage: g.BackgroundImage,
		Rating:          g.Rating,
		RatingTop:       g.RatingTop,
		Metacritic:      g.Metacritic,
		Playtime:        max(g.Playtime, 0),
		Genres:          toRefs(g.Genres),
		Developers:      toRefs(g.Developers),
		Publishers:      toRefs(g.Publishers),
		Website:         g.Website,
	}

	if len(g.Platforms) > 0 {
		game.Platforms = make([]domain.Ref, 0, len(g.Platforms))
		for _, p := range g.Platforms {
			game.Platforms = append(game.Platforms, domain.Ref{ID: p.Platform.ID, Name: p.Platform.Name, Slug: p.Platform.Slug})
		}
	}

	switch {
	case g.Description != "":
		game.Description = htmlToMarkdown(g.Description)
	case g.DescriptionRaw != "":
		game.Description = g.DescriptionRaw
	}

	return game
}

func (t *rawTaxon) toDomain() domain.Taxon {
	return domain.Taxon{
		ID:              t.ID,
		Name:            t.Name,
		Slug:            t.Slug,
		GamesCount:      t.GamesCount,
		ImageBackground: t.ImageBackground,
	}
}
