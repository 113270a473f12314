package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Pokémon  Légendes", "pokemon legendes"},
		{"  HADES ", "hades"},
		{"Ōkami", "okami"},
		{"Baldur's Gate 3", "baldur's gate 3"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.input))
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"The Witcher 3: Wild Hunt", "the-witcher-3-wild-hunt"},
		{"Pokémon Red", "pokemon-red"},
		{"--Half-Life 2--", "half-life-2"},
		{"Role Playing / RPG", "role-playing-rpg"},
		{"日本語", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.input))
		})
	}
}

func TestText(t *testing.T) {
	assert.Equal(t, "Game of the Year", Text("  Game \n of\tthe  Year "))
}
