package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/laurierboom/tournament-engine/live"
	"github.com/laurierboom/tournament-engine/models"
	"github.com/laurierboom/tournament-engine/repositories"
)

// memStore is the shared backing state for the in-memory repository fakes.
// All SQLExecutor parameters are ignored: the fakes have no transactions.
type memStore struct {
	nextID       int
	tournaments  map[int]*models.Tournament
	participants map[int][]int
	players      map[int]*models.Player
	rounds       map[int]*models.Round
	matches      map[int]*models.Match
	standings    map[int][]models.Standing
	history      []models.RatingHistory
}

func newMemStore() *memStore {
	return &memStore{
		tournaments:  make(map[int]*models.Tournament),
		participants: make(map[int][]int),
		players:      make(map[int]*models.Player),
		rounds:       make(map[int]*models.Round),
		matches:      make(map[int]*models.Match),
		standings:    make(map[int][]models.Standing),
	}
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

type fakeTournamentRepo struct{ store *memStore }

func (r *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	t.ID = r.store.id()
	t.CreatedAt = time.Now()
	clone := *t
	r.store.tournaments[t.ID] = &clone
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	t, ok := r.store.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *fakeTournamentRepo) List(_ context.Context, completed *bool) ([]*models.Tournament, error) {
	out := make([]*models.Tournament, 0)
	for _, t := range r.store.tournaments {
		if completed != nil && t.IsCompleted != *completed {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) SetStarted(_ context.Context, _ repositories.SQLExecutor, id int) error {
	t, ok := r.store.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.HasStarted = true
	return nil
}

func (r *fakeTournamentRepo) SetCompleted(_ context.Context, _ repositories.SQLExecutor, id int) error {
	t, ok := r.store.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.IsCompleted = true
	return nil
}

func (r *fakeTournamentRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.store.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.store.tournaments, id)
	return nil
}

func (r *fakeTournamentRepo) AddParticipant(_ context.Context, tournamentID, playerID int) error {
	for _, id := range r.store.participants[tournamentID] {
		if id == playerID {
			return repositories.ErrParticipantAlreadyRegistered
		}
	}
	r.store.participants[tournamentID] = append(r.store.participants[tournamentID], playerID)
	return nil
}

func (r *fakeTournamentRepo) RemoveParticipant(_ context.Context, tournamentID, playerID int) error {
	ids := r.store.participants[tournamentID]
	for i, id := range ids {
		if id == playerID {
			r.store.participants[tournamentID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return repositories.ErrParticipantNotRegistered
}

func (r *fakeTournamentRepo) ListParticipantIDs(_ context.Context, tournamentID int) ([]int, error) {
	ids := append([]int{}, r.store.participants[tournamentID]...)
	sort.Ints(ids)
	return ids, nil
}

type fakePlayerRepo struct{ store *memStore }

func (r *fakePlayerRepo) Create(_ context.Context, p *models.Player) error {
	p.ID = r.store.id()
	p.CreatedAt = time.Now()
	clone := *p
	r.store.players[p.ID] = &clone
	return nil
}

func (r *fakePlayerRepo) GetByID(_ context.Context, id int) (*models.Player, error) {
	p, ok := r.store.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakePlayerRepo) GetByIDs(_ context.Context, ids []int) ([]*models.Player, error) {
	out := make([]*models.Player, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.store.players[id]; ok {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePlayerRepo) List(_ context.Context) ([]*models.Player, error) {
	ids := make([]int, 0, len(r.store.players))
	for id := range r.store.players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return r.GetByIDs(context.Background(), ids)
}

func (r *fakePlayerRepo) UpdateProfile(_ context.Context, p *models.Player) error {
	existing, ok := r.store.players[p.ID]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	existing.FirstName = p.FirstName
	existing.LastName = p.LastName
	existing.FideID = p.FideID
	existing.FideRating = p.FideRating
	return nil
}

func (r *fakePlayerRepo) UpdateRatings(_ context.Context, _ repositories.SQLExecutor, p *models.Player) error {
	if _, ok := r.store.players[p.ID]; !ok {
		return repositories.ErrPlayerNotFound
	}
	clone := *p
	r.store.players[p.ID] = &clone
	return nil
}

func (r *fakePlayerRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.store.players[id]; !ok {
		return repositories.ErrPlayerNotFound
	}
	delete(r.store.players, id)
	return nil
}

type fakeRoundRepo struct{ store *memStore }

func (r *fakeRoundRepo) Create(_ context.Context, _ repositories.SQLExecutor, round *models.Round) error {
	for _, existing := range r.store.rounds {
		if existing.TournamentID == round.TournamentID && existing.Number == round.Number {
			return repositories.ErrRoundAlreadyExists
		}
	}
	round.ID = r.store.id()
	round.CreatedAt = time.Now()
	clone := *round
	r.store.rounds[round.ID] = &clone
	return nil
}

func (r *fakeRoundRepo) GetByID(_ context.Context, id int) (*models.Round, error) {
	round, ok := r.store.rounds[id]
	if !ok {
		return nil, repositories.ErrRoundNotFound
	}
	clone := *round
	return &clone, nil
}

func (r *fakeRoundRepo) GetByNumber(_ context.Context, tournamentID, number int) (*models.Round, error) {
	for _, round := range r.store.rounds {
		if round.TournamentID == tournamentID && round.Number == number {
			clone := *round
			return &clone, nil
		}
	}
	return nil, repositories.ErrRoundNotFound
}

func (r *fakeRoundRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Round, error) {
	out := make([]*models.Round, 0)
	for _, round := range r.store.rounds {
		if round.TournamentID == tournamentID {
			clone := *round
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *fakeRoundRepo) Latest(_ context.Context, tournamentID int) (*models.Round, error) {
	rounds, _ := r.ListByTournament(context.Background(), tournamentID)
	if len(rounds) == 0 {
		return nil, repositories.ErrRoundNotFound
	}
	return rounds[len(rounds)-1], nil
}

func (r *fakeRoundRepo) SetCompleted(_ context.Context, _ repositories.SQLExecutor, id int) error {
	round, ok := r.store.rounds[id]
	if !ok {
		return repositories.ErrRoundNotFound
	}
	if round.IsCompleted {
		return repositories.ErrRoundAlreadyCompleted
	}
	round.IsCompleted = true
	return nil
}

type fakeMatchRepo struct{ store *memStore }

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	match.ID = r.store.id()
	match.CreatedAt = time.Now()
	clone := *match
	r.store.matches[match.ID] = &clone
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	match, ok := r.store.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	clone := *match
	return &clone, nil
}

func (r *fakeMatchRepo) ListByTournament(_ context.Context, tournamentID int) ([]models.Match, error) {
	out := make([]models.Match, 0)
	for _, match := range r.store.matches {
		if match.TournamentID == tournamentID {
			out = append(out, *match)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeMatchRepo) ListByRound(_ context.Context, roundID int) ([]models.Match, error) {
	out := make([]models.Match, 0)
	for _, match := range r.store.matches {
		if match.RoundID == roundID {
			out = append(out, *match)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchRepo) CountPendingByRound(_ context.Context, roundID int) (int, error) {
	count := 0
	for _, match := range r.store.matches {
		if match.RoundID == roundID && match.Result == models.ResultPending {
			count++
		}
	}
	return count, nil
}

func (r *fakeMatchRepo) UpdateResult(_ context.Context, _ repositories.SQLExecutor, id int, result models.MatchResult) error {
	match, ok := r.store.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.Result = result
	return nil
}

type fakeStandingRepo struct{ store *memStore }

func (r *fakeStandingRepo) ListByTournament(_ context.Context, tournamentID int) ([]models.Standing, error) {
	return append([]models.Standing{}, r.store.standings[tournamentID]...), nil
}

func (r *fakeStandingRepo) ReplaceForTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int, standings []models.Standing) error {
	r.store.standings[tournamentID] = append([]models.Standing{}, standings...)
	return nil
}

type fakeHistoryRepo struct{ store *memStore }

func (r *fakeHistoryRepo) Create(_ context.Context, _ repositories.SQLExecutor, entry *models.RatingHistory) error {
	entry.ID = r.store.id()
	entry.CreatedAt = time.Now()
	r.store.history = append(r.store.history, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByPlayer(_ context.Context, playerID int, timeControl *models.TimeControl) ([]models.RatingHistory, error) {
	out := make([]models.RatingHistory, 0)
	for _, entry := range r.store.history {
		if entry.PlayerID != playerID {
			continue
		}
		if timeControl != nil && entry.TimeControl != *timeControl {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// recordingHub captures broadcast events for assertions.
type recordingHub struct {
	mu     sync.Mutex
	events []live.Event
}

func (h *recordingHub) BroadcastToRoom(room string, event live.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	event.Room = room
	h.events = append(h.events, event)
}

func (h *recordingHub) sawEvent(eventType live.EventType) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.events {
		if e.Type == eventType {
			return true
		}
	}
	return false
}

type fixture struct {
	store       *memStore
	hub         *recordingHub
	tournaments TournamentService
	matches     MatchService
	players     PlayerService
}

func newFixture() *fixture {
	store := newMemStore()
	hub := &recordingHub{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tournamentRepo := &fakeTournamentRepo{store}
	playerRepo := &fakePlayerRepo{store}
	roundRepo := &fakeRoundRepo{store}
	matchRepo := &fakeMatchRepo{store}
	standingRepo := &fakeStandingRepo{store}
	historyRepo := &fakeHistoryRepo{store}

	return &fixture{
		store: store,
		hub:   hub,
		tournaments: NewTournamentService(
			nil, tournamentRepo, playerRepo, roundRepo, matchRepo, standingRepo, historyRepo, hub, nil, logger),
		matches: NewMatchService(nil, tournamentRepo, roundRepo, matchRepo, standingRepo, hub, logger),
		players: NewPlayerService(playerRepo, historyRepo),
	}
}

// newPlayer seeds a player with the same starting rating on every track.
func (f *fixture) newPlayer(rating float64) int {
	id := f.store.id()
	state := models.DefaultRatingState()
	state.Rating = rating
	f.store.players[id] = &models.Player{
		ID:        id,
		FirstName: fmt.Sprintf("Player%d", id),
		Bullet:    state,
		Blitz:     state,
		Rapid:     state,
		Classical: state,
		Overall:   state,
	}
	return id
}

// seedSwiss creates a blitz swiss tournament with one player per rating,
// returning the tournament id and player ids in rating order.
func (f *fixture) seedSwiss(numRounds int, ratings ...float64) (int, []int) {
	rounds := numRounds
	tournament := &models.Tournament{
		Name:        "Club Swiss",
		Date:        time.Now(),
		Format:      models.FormatSwiss,
		TimeControl: models.TimeControlBlitz,
		NumRounds:   &rounds,
	}
	if err := f.tournaments.Create(context.Background(), tournament); err != nil {
		panic(err)
	}

	playerIDs := make([]int, 0, len(ratings))
	for _, rating := range ratings {
		id := f.newPlayer(rating)
		if err := f.tournaments.AddPlayer(context.Background(), tournament.ID, id); err != nil {
			panic(err)
		}
		playerIDs = append(playerIDs, id)
	}
	return tournament.ID, playerIDs
}

func (f *fixture) roundByNumber(tournamentID, number int) *models.Round {
	for _, round := range f.store.rounds {
		if round.TournamentID == tournamentID && round.Number == number {
			return round
		}
	}
	return nil
}

func (f *fixture) matchesOfRound(roundID int) []models.Match {
	out, _ := (&fakeMatchRepo{f.store}).ListByRound(context.Background(), roundID)
	return out
}

func (f *fixture) standingByPlayer(tournamentID int) map[int]models.Standing {
	byPlayer := make(map[int]models.Standing)
	for _, s := range f.store.standings[tournamentID] {
		byPlayer[s.PlayerID] = s
	}
	return byPlayer
}
