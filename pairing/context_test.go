package pairing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laurierboom/tournament-engine/models"
)

func TestColorPreference(t *testing.T) {
	cases := []struct {
		name     string
		colors   []Color
		diff     int
		want     Color
		strength int
	}{
		{"no games", nil, 0, NoColor, 0},
		{"one white", []Color{White}, 1, Black, 1},
		{"one black", []Color{Black}, -1, White, 1},
		{"two whites in a row", []Color{Black, White, White}, 1, Black, 2},
		{"two blacks in a row", []Color{White, Black, Black}, -1, White, 2},
		{"imbalance of two", []Color{White, Black, White, White}, 2, Black, 2},
		{"balanced alternation", []Color{White, Black}, 0, NoColor, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &playerContext{colors: tc.colors, colorDiff: tc.diff}
			color, strength := c.preference()
			assert.Equal(t, tc.want, color)
			assert.Equal(t, tc.strength, strength)
		})
	}
}

func TestDetermineColorsPriorities(t *testing.T) {
	ctx := func(id int, rating, score float64, colors ...Color) *playerContext {
		diff := 0
		for _, c := range colors {
			if c == White {
				diff++
			} else {
				diff--
			}
		}
		return &playerContext{id: id, rating: rating, score: score, colors: colors, colorDiff: diff}
	}

	t.Run("opposing strong preferences favor the higher rank", func(t *testing.T) {
		a := ctx(1, 1800, 2, White, White)
		b := ctx(2, 1700, 2, Black, Black)
		white, black := determineColors(a, b)
		assert.Equal(t, 2, white)
		assert.Equal(t, 1, black)
	})

	t.Run("opposing preferences satisfy both", func(t *testing.T) {
		a := ctx(1, 1700, 1, Black)
		b := ctx(2, 1800, 1, White)
		white, black := determineColors(a, b)
		assert.Equal(t, 1, white)
		assert.Equal(t, 2, black)
	})

	t.Run("lone preference is satisfied", func(t *testing.T) {
		a := ctx(1, 1800, 1, White, Black)
		b := ctx(2, 1700, 1, White)
		white, black := determineColors(a, b)
		assert.Equal(t, 1, white)
		assert.Equal(t, 2, black)
	})

	t.Run("matching preferences go to the bigger imbalance", func(t *testing.T) {
		a := ctx(1, 1800, 1, White)
		b := ctx(2, 1700, 1, White, White)
		white, black := determineColors(a, b)
		assert.Equal(t, 1, white)
		assert.Equal(t, 2, black)
	})

	t.Run("neutral players alternate away from the last color", func(t *testing.T) {
		a := ctx(1, 1800, 1, Black, White)
		b := ctx(2, 1700, 1, White, Black)
		white, black := determineColors(a, b)
		assert.Equal(t, 2, white)
		assert.Equal(t, 1, black)
	})

	t.Run("first-time players default to rating order", func(t *testing.T) {
		a := ctx(5, 1500, 0)
		b := ctx(6, 1600, 0)
		white, black := determineColors(a, b)
		assert.Equal(t, 6, white)
		assert.Equal(t, 5, black)
	})
}

func TestBuildContextsReadsHistory(t *testing.T) {
	params := GenerateParams{
		Entrants: []Entrant{
			{PlayerID: 1, Rating: 1800},
			{PlayerID: 2, Rating: 1700},
			{PlayerID: 3, Rating: 1600},
		},
		Standings: []models.Standing{
			standing(1, 1.5), standing(2, 1), standing(3, 0.5),
		},
		History: []models.Match{
			game(1, 1, 2, models.ResultWhiteWin),
			byeGame(2, 3),
			// A pending board still counts for opponents and colors.
			game(3, 2, 1, models.ResultPending),
		},
	}

	contexts := buildContexts(params)
	require.Len(t, contexts, 3)

	one := contexts[1]
	assert.Equal(t, 1.5, one.score)
	assert.True(t, one.played(2))
	assert.False(t, one.played(3))
	assert.Equal(t, []Color{White, Black}, one.colors)
	assert.Equal(t, 0, one.colorDiff)
	assert.False(t, one.hasBye)

	two := contexts[2]
	assert.True(t, two.played(1))
	assert.Equal(t, []Color{Black, White}, two.colors)

	three := contexts[3]
	assert.True(t, three.hasBye)
	assert.Empty(t, three.colors)
	assert.Equal(t, 0.5, three.score)
}
