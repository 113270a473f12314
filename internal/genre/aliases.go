// Package genre maps the genre names players type to RAWG genre slugs.
package genre

import "github.com/gameshelf/gameshelf-server/internal/normalize"

// CanonicalAliases maps common variations to RAWG genre slugs.
var CanonicalAliases = map[string]string{
	// Role-playing
	"rpg":          "role-playing-games-rpg",
	"rpgs":         "role-playing-games-rpg",
	"jrpg":         "role-playing-games-rpg",
	"crpg":         "role-playing-games-rpg",
	"arpg":         "role-playing-games-rpg",
	"role-playing": "role-playing-games-rpg",
	"roleplaying":  "role-playing-games-rpg",

	// Shooters
	"fps":            "shooter",
	"tps":            "shooter",
	"shmup":          "shooter",
	"shoot-em-up":    "shooter",
	"shooters":       "shooter",
	"bullet-hell":    "shooter",
	"looter-shooter": "shooter",

	// Online
	"mmo":    "massively-multiplayer",
	"mmorpg": "massively-multiplayer",

	// Strategy
	"rts":                 "strategy",
	"tbs":                 "strategy",
	"4x":                  "strategy",
	"turn-based-strategy": "strategy",
	"grand-strategy":      "strategy",
	"tower-defense":       "strategy",

	// Platformers
	"platform":     "platformer",
	"platformers":  "platformer",
	"metroidvania": "platformer",

	// Everything else
	"sim":             "simulation",
	"sims":            "simulation",
	"puzzles":         "puzzle",
	"racer":           "racing",
	"driving":         "racing",
	"fighter":         "fighting",
	"beat-em-up":      "fighting",
	"board":           "board-games",
	"board-game":      "board-games",
	"tabletop":        "board-games",
	"cards":           "card",
	"card-game":       "card",
	"deckbuilder":     "card",
	"kids":            "family",
	"edutainment":     "educational",
	"sport":           "sports",
	"point-and-click": "adventure",
}

// Resolve slugifies raw and maps it through CanonicalAliases.
// Input without an alias is returned as its slug.
func Resolve(raw string) string {
	slug := normalize.Slugify(raw)
	if canonical, ok := CanonicalAliases[slug]; ok {
		return canonical
	}
	return slug
}
