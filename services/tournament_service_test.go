package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laurierboom/tournament-engine/live"
	"github.com/laurierboom/tournament-engine/models"
	"github.com/laurierboom/tournament-engine/repositories"
)

func TestCreateValidatesConfiguration(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	err := f.tournaments.Create(ctx, &models.Tournament{
		Name: "", Format: models.FormatSwiss, TimeControl: models.TimeControlBlitz,
	})
	assert.ErrorIs(t, err, ErrTournamentNameRequired)

	err = f.tournaments.Create(ctx, &models.Tournament{
		Name: "X", Format: "knockout", TimeControl: models.TimeControlBlitz,
	})
	assert.ErrorIs(t, err, ErrInvalidFormat)

	err = f.tournaments.Create(ctx, &models.Tournament{
		Name: "X", Format: models.FormatSwiss, TimeControl: "correspondence",
	})
	assert.ErrorIs(t, err, ErrInvalidTimeControl)

	err = f.tournaments.Create(ctx, &models.Tournament{
		Name: "X", Format: models.FormatSwiss, TimeControl: models.TimeControlBlitz,
	})
	assert.ErrorIs(t, err, ErrSwissRoundsRequired)

	// Round robins ignore any provided round count.
	five := 5
	rr := &models.Tournament{
		Name: "RR", Date: time.Now(), Format: models.FormatRoundRobin,
		TimeControl: models.TimeControlRapid, NumRounds: &five,
	}
	require.NoError(t, f.tournaments.Create(ctx, rr))
	assert.Nil(t, rr.NumRounds)
}

func TestStartCreatesFirstRoundPairingsAndStandings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tid, players := f.seedSwiss(3, 1800, 1700, 1600, 1500)

	require.NoError(t, f.tournaments.Start(ctx, tid))

	tournament, err := f.tournaments.GetByID(ctx, tid)
	require.NoError(t, err)
	assert.True(t, tournament.HasStarted)
	assert.Len(t, tournament.Participants, 4)

	round := f.roundByNumber(tid, 1)
	require.NotNil(t, round)
	matches := f.matchesOfRound(round.ID)
	require.Len(t, matches, 2)

	// Seeds 1 and 2 take white against seeds 3 and 4.
	assert.Equal(t, players[0], matches[0].WhitePlayerID)
	assert.Equal(t, players[2], *matches[0].BlackPlayerID)
	assert.Equal(t, players[1], matches[1].WhitePlayerID)
	assert.Equal(t, players[3], *matches[1].BlackPlayerID)
	for _, m := range matches {
		assert.Equal(t, models.ResultPending, m.Result)
	}

	table := f.standingByPlayer(tid)
	require.Len(t, table, 4)
	for _, id := range players {
		assert.Equal(t, 0.0, table[id].Score)
		assert.Equal(t, 1, table[id].Rank)
	}

	assert.True(t, f.hub.sawEvent(live.EventPairingsPosted))
	assert.True(t, f.hub.sawEvent(live.EventStandingsUpdated))
}

func TestStartGivesByeToMiddleRatedPlayer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tid, players := f.seedSwiss(3, 1900, 1800, 1700, 1600, 1500)

	require.NoError(t, f.tournaments.Start(ctx, tid))

	round := f.roundByNumber(tid, 1)
	require.NotNil(t, round)
	matches := f.matchesOfRound(round.ID)
	require.Len(t, matches, 3)

	var bye *models.Match
	for i := range matches {
		if matches[i].IsBye() {
			bye = &matches[i]
		}
	}
	require.NotNil(t, bye)
	assert.Equal(t, players[2], bye.WhitePlayerID)
	assert.Equal(t, models.ResultBye, bye.Result)

	// A bye scores immediately.
	table := f.standingByPlayer(tid)
	assert.Equal(t, 1.0, table[players[2]].Score)
	assert.Equal(t, 1, table[players[2]].Rank)
}

func TestStartRejectsBadStates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	three := 3
	lonely := &models.Tournament{
		Name: "Lonely", Date: time.Now(), Format: models.FormatSwiss,
		TimeControl: models.TimeControlBlitz, NumRounds: &three,
	}
	require.NoError(t, f.tournaments.Create(ctx, lonely))
	require.NoError(t, f.tournaments.AddPlayer(ctx, lonely.ID, f.newPlayer(1500)))
	assert.ErrorIs(t, f.tournaments.Start(ctx, lonely.ID), ErrNotEnoughPlayers)

	tid, _ := f.seedSwiss(3, 1600, 1500)
	require.NoError(t, f.tournaments.Start(ctx, tid))
	assert.ErrorIs(t, f.tournaments.Start(ctx, tid), ErrTournamentAlreadyStarted)
}

func TestDeleteOnlyBeforeStart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tid, _ := f.seedSwiss(3, 1600, 1500)
	require.NoError(t, f.tournaments.Delete(ctx, tid))
	_, err := f.tournaments.GetByID(ctx, tid)
	assert.ErrorIs(t, err, repositories.ErrTournamentNotFound)

	tid, _ = f.seedSwiss(3, 1600, 1500)
	require.NoError(t, f.tournaments.Start(ctx, tid))
	assert.ErrorIs(t, f.tournaments.Delete(ctx, tid), ErrTournamentAlreadyStarted)
}

func TestRosterFreezesAfterStart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tid, players := f.seedSwiss(3, 1600, 1500)

	require.NoError(t, f.tournaments.Start(ctx, tid))

	latecomer := f.newPlayer(1700)
	assert.ErrorIs(t, f.tournaments.AddPlayer(ctx, tid, latecomer), ErrRosterFrozen)
	assert.ErrorIs(t, f.tournaments.RemovePlayer(ctx, tid, players[0]), ErrRosterFrozen)
}

func TestCompleteRoundRequiresAllResults(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tid, _ := f.seedSwiss(3, 1800, 1700, 1600, 1500)

	require.NoError(t, f.tournaments.Start(ctx, tid))
	assert.ErrorIs(t, f.tournaments.CompleteRound(ctx, tid), ErrRoundNotFinished)
}

func TestCompleteRoundAppliesRatingsAndOpensNextRound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tid, players := f.seedSwiss(3, 1800, 1700, 1600, 1500)

	require.NoError(t, f.tournaments.Start(ctx, tid))

	round := f.roundByNumber(tid, 1)
	for _, m := range f.matchesOfRound(round.ID) {
		require.NoError(t, f.matches.SubmitResult(ctx, m.ID, models.ResultWhiteWin))
	}

	require.NoError(t, f.tournaments.CompleteRound(ctx, tid))

	assert.True(t, f.roundByNumber(tid, 1).IsCompleted)

	// Winners gained on the tournament's time control, mirrored onto the
	// legacy aggregate; losers lost.
	winner := f.store.players[players[0]]
	loser := f.store.players[players[2]]
	assert.Greater(t, winner.Blitz.Rating, 1800.0)
	assert.Equal(t, winner.Blitz, winner.Overall)
	assert.Less(t, loser.Blitz.Rating, 1600.0)
	assert.Len(t, f.store.history, 4)

	// Unplayed tracks stay untouched.
	assert.Equal(t, 1800.0, winner.Classical.Rating)

	next := f.roundByNumber(tid, 2)
	require.NotNil(t, next)
	assert.False(t, next.IsCompleted)
	assert.Len(t, f.matchesOfRound(next.ID), 2)

	table := f.standingByPlayer(tid)
	assert.Equal(t, 1.0, table[players[0]].Score)
	assert.Equal(t, 1, table[players[0]].Rank)
	assert.Equal(t, 0.0, table[players[3]].Score)
	assert.Equal(t, 3, table[players[3]].Rank)

	assert.True(t, f.hub.sawEvent(live.EventRoundCompleted))

	// The new round has pending boards, so closing again must fail.
	assert.ErrorIs(t, f.tournaments.CompleteRound(ctx, tid), ErrRoundNotFinished)
}

// staleLatestRoundRepo reads the round as still open even after a competing
// closer has committed, reproducing a stale pre-check read.
type staleLatestRoundRepo struct {
	*fakeRoundRepo
}

func (r *staleLatestRoundRepo) Latest(ctx context.Context, tournamentID int) (*models.Round, error) {
	round, err := r.fakeRoundRepo.Latest(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	round.IsCompleted = false
	return round, nil
}

func TestCompleteRoundLosingConcurrentCloseAppliesNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tid, players := f.seedSwiss(1, 1600, 1500)
	require.NoError(t, f.tournaments.Start(ctx, tid))

	round := f.roundByNumber(tid, 1)
	matches := f.matchesOfRound(round.ID)
	require.NoError(t, f.matches.SubmitResult(ctx, matches[0].ID, models.ResultWhiteWin))

	stale := NewTournamentService(
		nil,
		&fakeTournamentRepo{f.store},
		&fakePlayerRepo{f.store},
		&staleLatestRoundRepo{&fakeRoundRepo{f.store}},
		&fakeMatchRepo{f.store},
		&fakeStandingRepo{f.store},
		&fakeHistoryRepo{f.store},
		f.hub,
		nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	// Another closer wins the race after our pre-checks read the round as
	// open.
	f.roundByNumber(tid, 1).IsCompleted = true

	assert.ErrorIs(t, stale.CompleteRound(ctx, tid), ErrRoundAlreadyClosed)

	// The losing closer's batch must not have landed: no rating history,
	// ratings untouched, tournament not completed twice over.
	assert.Empty(t, f.store.history)
	assert.Equal(t, 1600.0, f.store.players[players[0]].Blitz.Rating)
	assert.False(t, f.store.tournaments[tid].IsCompleted)
	assert.False(t, f.hub.sawEvent(live.EventRoundCompleted))
	assert.False(t, f.hub.sawEvent(live.EventTournamentCompleted))
}

func TestCompleteRoundRejectsAlreadyClosedRound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tid, _ := f.seedSwiss(3, 1600, 1500)

	require.NoError(t, f.tournaments.Start(ctx, tid))
	f.roundByNumber(tid, 1).IsCompleted = true

	assert.ErrorIs(t, f.tournaments.CompleteRound(ctx, tid), ErrRoundAlreadyClosed)
}

func TestFinalRoundCompletesTournament(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tid, players := f.seedSwiss(1, 1500, 1500)

	require.NoError(t, f.tournaments.Start(ctx, tid))

	round := f.roundByNumber(tid, 1)
	matches := f.matchesOfRound(round.ID)
	require.Len(t, matches, 1)
	require.NoError(t, f.matches.SubmitResult(ctx, matches[0].ID, models.ResultDraw))

	require.NoError(t, f.tournaments.CompleteRound(ctx, tid))

	tournament, err := f.tournaments.GetByID(ctx, tid)
	require.NoError(t, err)
	assert.True(t, tournament.IsCompleted)
	assert.Nil(t, f.roundByNumber(tid, 2))
	assert.True(t, f.hub.sawEvent(live.EventTournamentCompleted))

	// A draw between equals leaves ratings in place but shrinks deviation.
	for _, id := range players {
		p := f.store.players[id]
		assert.InDelta(t, 1500.0, p.Blitz.Rating, 1e-9)
		assert.Less(t, p.Blitz.Deviation, 350.0)
	}

	table := f.standingByPlayer(tid)
	assert.Equal(t, 1, table[players[0]].Rank)
	assert.Equal(t, 1, table[players[1]].Rank)

	assert.ErrorIs(t, f.tournaments.CompleteRound(ctx, tid), ErrTournamentCompleted)
}

func TestRoundRobinPlaysFullSchedule(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tournament := &models.Tournament{
		Name: "Club RR", Date: time.Now(), Format: models.FormatRoundRobin,
		TimeControl: models.TimeControlRapid,
	}
	require.NoError(t, f.tournaments.Create(ctx, tournament))
	players := []int{f.newPlayer(1700), f.newPlayer(1600), f.newPlayer(1500)}
	for _, id := range players {
		require.NoError(t, f.tournaments.AddPlayer(ctx, tournament.ID, id))
	}

	require.NoError(t, f.tournaments.Start(ctx, tournament.ID))

	byes := make(map[int]int)
	met := make(map[[2]int]int)
	for number := 1; number <= 3; number++ {
		round := f.roundByNumber(tournament.ID, number)
		require.NotNil(t, round, "round %d", number)

		for _, m := range f.matchesOfRound(round.ID) {
			if m.IsBye() {
				byes[m.WhitePlayerID]++
				continue
			}
			a, b := m.WhitePlayerID, *m.BlackPlayerID
			if a > b {
				a, b = b, a
			}
			met[[2]int{a, b}]++
			require.NoError(t, f.matches.SubmitResult(ctx, m.ID, models.ResultWhiteWin))
		}
		require.NoError(t, f.tournaments.CompleteRound(ctx, tournament.ID))
	}

	refreshed, err := f.tournaments.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.IsCompleted)

	// Everyone sat out once and met everyone else exactly once.
	require.Len(t, byes, 3)
	for id, count := range byes {
		assert.Equal(t, 1, count, "player %d byes", id)
	}
	require.Len(t, met, 3)
	for pair, count := range met {
		assert.Equal(t, 1, count, "pair %v games", pair)
	}

	// Score conservation: each decisive game and each bye puts exactly one
	// point into the table, so 3 games + 3 byes = 6.
	total := 0.0
	for _, s := range f.store.standings[tournament.ID] {
		total += s.Score
	}
	assert.Equal(t, 6.0, total)
}

func TestOverviewAggregatesTournamentState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tid, _ := f.seedSwiss(3, 1800, 1700, 1600, 1500)
	require.NoError(t, f.tournaments.Start(ctx, tid))

	overview, err := f.tournaments.Overview(ctx, tid)
	require.NoError(t, err)
	require.NotNil(t, overview.Tournament)
	assert.Len(t, overview.Tournament.Participants, 4)
	assert.Len(t, overview.Standings, 4)
	assert.Len(t, overview.Matches, 2)
}
