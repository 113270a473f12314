// Package search provides full-text search over the tracked collection using Bleve.
// Names, genres, developers and platforms are folded before indexing so
// "pokemon" finds "Pokémon".
package search

import (
	"strconv"
	"strings"

	"github.com/gameshelf/gameshelf-server/internal/domain"
	"github.com/gameshelf/gameshelf-server/internal/normalize"
)

// Document is the indexed form of a collection entry.
type Document struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"` // display name, stored only
	Name       string   `json:"name"`  // folded name
	Genres     string   `json:"genres,omitempty"`
	Developers string   `json:"developers,omitempty"`
	Platforms  string   `json:"platforms,omitempty"`
	GenreSlugs []string `json:"genre_slugs,omitempty"`
	Status     string   `json:"status"`
	Year       int      `json:"year,omitempty"`
	Playtime   int      `json:"playtime"`
	AddedAt    int64    `json:"added_at"` // unix millis
}

// DocumentID returns the index id of a game.
func DocumentID(gameID int) string {
	return strconv.Itoa(gameID)
}

// DocumentFromEntry builds the index document for an entry.
func DocumentFromEntry(e domain.Entry) *Document {
	doc := &Document{
		ID:         DocumentID(e.ID),
		Title:      e.Name,
		Name:       normalize.Fold(e.Name),
		Genres:     foldNames(e.Genres),
		Developers: foldNames(e.Developers),
		Platforms:  foldNames(e.Platforms),
		Status:     string(e.Status),
		Playtime:   e.Playtime,
		AddedAt:    e.AddedAt.UnixMilli(),
	}

	for _, g := range e.Genres {
		slug := g.Slug
		if slug == "" {
			slug = normalize.Slugify(g.Name)
		}
		doc.GenreSlugs = append(doc.GenreSlugs, slug)
	}

	if len(e.Released) >= 4 {
		if year, err := strconv.Atoi(e.Released[:4]); err == nil {
			doc.Year = year
		}
	}

	return doc
}

// ToMap converts the document to the field map Bleve indexes.
// Field names must match the mapping.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"id":       d.ID,
		"title":    d.Title,
		"name":     d.Name,
		"status":   d.Status,
		"playtime": float64(d.Playtime),
		"added_at": float64(d.AddedAt),
	}
	if d.Genres != "" {
		m["genres"] = d.Genres
	}
	if d.Developers != "" {
		m["developers"] = d.Developers
	}
	if d.Platforms != "" {
		m["platforms"] = d.Platforms
	}
	if len(d.GenreSlugs) > 0 {
		m["genre_slugs"] = d.GenreSlugs
	}
	if d.Year > 0 {
		m["year"] = float64(d.Year)
	}
	return m
}

func foldNames(refs []domain.Ref) string {
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		names = append(names, normalize.Fold(r.Name))
	}
	return strings.Join(names, " ")
}
