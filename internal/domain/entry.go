package domain

import (
	"slices"
	"time"
)

// Entry is one tracked game in the collection.
//
// The catalog fields are a snapshot taken when the game was added and are never
// refreshed. The JSON field names are the persisted snapshot layout; changing
// them orphans existing collections.
type Entry struct {
	AddedAt         time.Time `json:"addedAt"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug,omitempty"`
	BackgroundImage string    `json:"backgroundImage,omitempty"`
	Released        string    `json:"released,omitempty"`
	Status          Status    `json:"status"`
	Genres          []Ref     `json:"genres,omitempty"`
	Platforms       []Ref     `json:"platforms,omitempty"`
	Developers      []Ref     `json:"developers,omitempty"`
	Rating          float64   `json:"rating,omitzero"`
	ID              int       `json:"id"`
	Metacritic      int       `json:"metacritic,omitzero"`
	Playtime        int       `json:"playtime"` // hours
}

// NewEntry builds a collection entry from a catalog record.
// The entry starts as to_play with the catalog's playtime, or 0 when the
// catalog has none.
func NewEntry(g Game, addedAt time.Time) Entry {
	return Entry{
		ID:              g.ID,
		Name:            g.Name,
		Slug:            g.Slug,
		BackgroundImage: g.BackgroundImage,
		Rating:          g.Rating,
		Genres:          slices.Clone(g.Genres),
		Platforms:       slices.Clone(g.Platforms),
		Developers:      slices.Clone(g.Developers),
		Released:        g.Released,
		Metacritic:      g.Metacritic,
		Status:          StatusToPlay,
		AddedAt:         addedAt,
		Playtime:        max(g.Playtime, 0),
	}
}

// Clone returns a deep copy so callers cannot mutate store-owned slices.
func (e Entry) Clone() Entry {
	e.Genres = slices.Clone(e.Genres)
	e.Platforms = slices.Clone(e.Platforms)
	e.Developers = slices.Clone(e.Developers)
	return e
}

// Repair coerces a hydrated entry back into its invariants.
// It reports whether anything had to change.
func (e *Entry) Repair() bool {
	changed := false
	if !e.Status.Valid() {
		e.Status = StatusToPlay
		changed = true
	}
	if e.Playtime < 0 {
		e.Playtime = 0
		changed = true
	}
	return changed
}

// HasGenre reports whether the entry carries the given genre id.
func (e *Entry) HasGenre(genreID int) bool {
	return slices.ContainsFunc(e.Genres, func(r Ref) bool { return r.ID == genreID })
}

// Stats summarizes a collection.
type Stats struct {
	ByStatus      map[Status]int `json:"by_status"`
	Total         int            `json:"total"`
	TotalPlaytime int            `json:"total_playtime"` // hours
}

// ComputeStats summarizes the given entries. Every status is present in
// ByStatus, with zero counts included.
func ComputeStats(entries []Entry) Stats {
	stats := Stats{
		ByStatus: make(map[Status]int, len(AllStatuses())),
		Total:    len(entries),
	}
	for _, s := range AllStatuses() {
		stats.ByStatus[s] = 0
	}
	for i := range entries {
		stats.ByStatus[entries[i].Status]++
		stats.TotalPlaytime += entries[i].Playtime
	}
	return stats
}
