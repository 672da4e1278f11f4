package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laurierboom/tournament-engine/models"
	"github.com/laurierboom/tournament-engine/repositories"
)

func TestPlayerCreateSeedsDefaultRatings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	player := &models.Player{FirstName: "  Hein ", LastName: " Donner "}
	require.NoError(t, f.players.Create(ctx, player))

	assert.Equal(t, "Hein", player.FirstName)
	assert.Equal(t, "Donner", player.LastName)
	assert.NotZero(t, player.ID)

	expected := models.DefaultRatingState()
	assert.Equal(t, expected, player.Bullet)
	assert.Equal(t, expected, player.Classical)
	assert.Equal(t, expected, player.Overall)
}

func TestPlayerCreateRequiresFirstName(t *testing.T) {
	f := newFixture()
	err := f.players.Create(context.Background(), &models.Player{FirstName: "   "})
	assert.ErrorIs(t, err, repositories.ErrPlayerNameRequired)
}

func TestRatingHistoryFiltersByTimeControl(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.newPlayer(1500)

	f.store.history = append(f.store.history,
		models.RatingHistory{PlayerID: id, MatchID: 1, TimeControl: models.TimeControlBlitz, Rating: 1510},
		models.RatingHistory{PlayerID: id, MatchID: 2, TimeControl: models.TimeControlRapid, Rating: 1490},
	)

	all, err := f.players.RatingHistory(ctx, id, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	blitz := models.TimeControlBlitz
	filtered, err := f.players.RatingHistory(ctx, id, &blitz)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, 1510.0, filtered[0].Rating)
}

func TestRatingHistoryValidatesInputs(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	bad := models.TimeControl("correspondence")
	_, err := f.players.RatingHistory(ctx, 1, &bad)
	assert.ErrorIs(t, err, ErrInvalidTimeControl)

	_, err = f.players.RatingHistory(ctx, 9999, nil)
	assert.ErrorIs(t, err, repositories.ErrPlayerNotFound)
}
