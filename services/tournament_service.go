package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/laurierboom/tournament-engine/live"
	"github.com/laurierboom/tournament-engine/models"
	"github.com/laurierboom/tournament-engine/pairing"
	"github.com/laurierboom/tournament-engine/rating"
	"github.com/laurierboom/tournament-engine/repositories"
	"github.com/laurierboom/tournament-engine/standings"
)

// Broadcaster pushes live events to tournament rooms. The websocket hub
// satisfies it; tests use a recording fake.
type Broadcaster interface {
	BroadcastToRoom(room string, event live.Event)
}

// TournamentOverview is the aggregate read model for one tournament page.
type TournamentOverview struct {
	Tournament *models.Tournament `json:"tournament"`
	Standings  []models.Standing  `json:"standings"`
	Matches    []models.Match     `json:"matches"`
}

type TournamentService interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	Overview(ctx context.Context, id int) (*TournamentOverview, error)
	List(ctx context.Context, completed *bool) ([]*models.Tournament, error)
	Delete(ctx context.Context, id int) error
	AddPlayer(ctx context.Context, tournamentID, playerID int) error
	RemovePlayer(ctx context.Context, tournamentID, playerID int) error
	Start(ctx context.Context, id int) error
	CompleteRound(ctx context.Context, id int) error
	Standings(ctx context.Context, id int) ([]models.Standing, error)
}

type tournamentService struct {
	db          *sql.DB
	tournaments repositories.TournamentRepository
	players     repositories.PlayerRepository
	rounds      repositories.RoundRepository
	matches     repositories.MatchRepository
	standings   repositories.StandingRepository
	history     repositories.RatingHistoryRepository
	hub         Broadcaster
	publisher   *ReportPublisher
	logger      *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournaments repositories.TournamentRepository,
	players repositories.PlayerRepository,
	rounds repositories.RoundRepository,
	matches repositories.MatchRepository,
	standingRepo repositories.StandingRepository,
	history repositories.RatingHistoryRepository,
	hub Broadcaster,
	publisher *ReportPublisher,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:          db,
		tournaments: tournaments,
		players:     players,
		rounds:      rounds,
		matches:     matches,
		standings:   standingRepo,
		history:     history,
		hub:         hub,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, tournament *models.Tournament) error {
	tournament.Name = strings.TrimSpace(tournament.Name)
	if tournament.Name == "" {
		return ErrTournamentNameRequired
	}
	if !tournament.Format.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, tournament.Format)
	}
	if !tournament.TimeControl.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTimeControl, tournament.TimeControl)
	}
	if tournament.Format == models.FormatSwiss && (tournament.NumRounds == nil || *tournament.NumRounds < 1) {
		return ErrSwissRoundsRequired
	}
	// Round-robin schedules derive their length from the roster.
	if tournament.Format.IsRoundRobin() {
		tournament.NumRounds = nil
	}
	return s.tournaments.Create(ctx, tournament)
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournaments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	participants, err := s.loadParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	tournament.Participants = participants
	return tournament, nil
}

// Overview loads the tournament together with its standings and full match
// list, fanning the reads out concurrently.
func (s *tournamentService) Overview(ctx context.Context, id int) (*TournamentOverview, error) {
	overview := &TournamentOverview{}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tournament, err := s.GetByID(gCtx, id)
		if err != nil {
			return err
		}
		overview.Tournament = tournament
		return nil
	})
	g.Go(func() error {
		table, err := s.standings.ListByTournament(gCtx, id)
		if err != nil {
			return err
		}
		overview.Standings = table
		return nil
	})
	g.Go(func() error {
		matches, err := s.matches.ListByTournament(gCtx, id)
		if err != nil {
			return err
		}
		overview.Matches = matches
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}

func (s *tournamentService) List(ctx context.Context, completed *bool) ([]*models.Tournament, error) {
	return s.tournaments.List(ctx, completed)
}

// Delete removes a tournament that has not started. Once round one exists
// the tournament is part of the rating record and stays.
func (s *tournamentService) Delete(ctx context.Context, id int) error {
	tournament, err := s.tournaments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tournament.HasStarted {
		return ErrTournamentAlreadyStarted
	}
	return s.tournaments.Delete(ctx, id)
}

func (s *tournamentService) AddPlayer(ctx context.Context, tournamentID, playerID int) error {
	tournament, err := s.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.HasStarted {
		return ErrRosterFrozen
	}
	if _, err := s.players.GetByID(ctx, playerID); err != nil {
		return err
	}
	return s.tournaments.AddParticipant(ctx, tournamentID, playerID)
}

func (s *tournamentService) RemovePlayer(ctx context.Context, tournamentID, playerID int) error {
	tournament, err := s.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.HasStarted {
		return ErrRosterFrozen
	}
	return s.tournaments.RemoveParticipant(ctx, tournamentID, playerID)
}

// Start freezes the roster, creates round one with its pairings and seeds
// the standings table, all in one transaction.
func (s *tournamentService) Start(ctx context.Context, id int) error {
	tournament, err := s.tournaments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tournament.IsCompleted {
		return ErrTournamentCompleted
	}
	if tournament.HasStarted {
		return ErrTournamentAlreadyStarted
	}

	participantIDs, err := s.tournaments.ListParticipantIDs(ctx, id)
	if err != nil {
		return err
	}
	if len(participantIDs) < 2 {
		return ErrNotEnoughPlayers
	}
	if tournament.Format == models.FormatSwiss && (tournament.NumRounds == nil || *tournament.NumRounds < 1) {
		return ErrSwissRoundsRequired
	}

	playerByID, err := s.loadPlayerIndex(ctx, participantIDs)
	if err != nil {
		return err
	}

	var (
		round   *models.Round
		created []models.Match
		table   []models.Standing
	)
	err = inTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.tournaments.SetStarted(ctx, tx, id); err != nil {
			return err
		}
		var txErr error
		round, created, txErr = s.createRound(ctx, tx, tournament, 1, playerByID, nil, nil)
		if txErr != nil {
			return txErr
		}
		table, txErr = standings.Compute(id, participantIDs, created, nil)
		if txErr != nil {
			return txErr
		}
		return s.standings.ReplaceForTournament(ctx, tx, id, table)
	})
	if err != nil {
		return err
	}

	s.logger.Info("tournament started",
		"tournament_id", id, "format", tournament.Format, "participants", len(participantIDs))
	s.announcePairings(id, round, created)
	s.announceStandings(id, table)
	return nil
}

// CompleteRound closes the latest round once every board has a result: it
// applies the round's rating updates, recomputes standings and either opens
// the next round or completes the tournament. Everything that changes state
// happens in a single transaction, and the unique round-number constraint
// makes the next-round creation at-most-once under concurrent calls.
func (s *tournamentService) CompleteRound(ctx context.Context, id int) error {
	tournament, err := s.tournaments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !tournament.HasStarted {
		return ErrTournamentNotStarted
	}
	if tournament.IsCompleted {
		return ErrTournamentCompleted
	}

	round, err := s.rounds.Latest(ctx, id)
	if err != nil {
		return err
	}
	if round.IsCompleted {
		return ErrRoundAlreadyClosed
	}

	pending, err := s.matches.CountPendingByRound(ctx, round.ID)
	if err != nil {
		return err
	}
	if pending > 0 {
		return fmt.Errorf("%w: %d pending in round %d", ErrRoundNotFinished, pending, round.Number)
	}

	participantIDs, err := s.tournaments.ListParticipantIDs(ctx, id)
	if err != nil {
		return err
	}
	playerByID, err := s.loadPlayerIndex(ctx, participantIDs)
	if err != nil {
		return err
	}

	roundMatches, err := s.matches.ListByRound(ctx, round.ID)
	if err != nil {
		return err
	}
	touched, historyEntries, err := applyRatingUpdates(tournament.TimeControl, roundMatches, playerByID)
	if err != nil {
		return err
	}

	allMatches, err := s.matches.ListByTournament(ctx, id)
	if err != nil {
		return err
	}
	previous, err := s.standings.ListByTournament(ctx, id)
	if err != nil {
		return err
	}

	planned := tournament.PlannedRounds(len(participantIDs))

	var (
		completed   bool
		nextRound   *models.Round
		nextMatches []models.Match
		table       []models.Standing
	)
	err = inTx(ctx, s.db, func(tx *sql.Tx) error {
		// Closing the round doubles as the concurrency guard: a competing
		// closer that committed after our pre-checks makes this update a
		// no-op, and the whole batch rolls back instead of applying twice.
		if err := s.rounds.SetCompleted(ctx, tx, round.ID); err != nil {
			if errors.Is(err, repositories.ErrRoundAlreadyCompleted) {
				return ErrRoundAlreadyClosed
			}
			return err
		}

		for _, player := range touched {
			if err := s.players.UpdateRatings(ctx, tx, player); err != nil {
				return err
			}
		}
		for i := range historyEntries {
			if err := s.history.Create(ctx, tx, &historyEntries[i]); err != nil {
				return err
			}
		}

		var txErr error
		table, txErr = standings.Compute(id, participantIDs, allMatches, previous)
		if txErr != nil {
			return txErr
		}

		if round.Number >= planned {
			completed = true
			if err := s.tournaments.SetCompleted(ctx, tx, id); err != nil {
				return err
			}
			return s.standings.ReplaceForTournament(ctx, tx, id, table)
		}

		nextRound, nextMatches, txErr = s.createRound(ctx, tx, tournament, round.Number+1, playerByID, table, allMatches)
		if txErr != nil {
			return txErr
		}

		// A bye in the new round scores immediately, so recompute before
		// persisting the table.
		withNext := append(append([]models.Match{}, allMatches...), nextMatches...)
		table, txErr = standings.Compute(id, participantIDs, withNext, table)
		if txErr != nil {
			return txErr
		}
		return s.standings.ReplaceForTournament(ctx, tx, id, table)
	})
	if err != nil {
		return err
	}

	s.logger.Info("round completed",
		"tournament_id", id, "round", round.Number, "rated_updates", len(touched), "tournament_completed", completed)

	room := live.RoomForTournament(id)
	s.hub.BroadcastToRoom(room, live.Event{
		Type:    live.EventRoundCompleted,
		Payload: map[string]interface{}{"round_number": round.Number},
	})
	s.announceStandings(id, table)

	if completed {
		s.hub.BroadcastToRoom(room, live.Event{
			Type:    live.EventTournamentCompleted,
			Payload: map[string]interface{}{"tournament_id": id},
		})
		s.publishReport(ctx, tournament, table, playerByID)
		return nil
	}

	s.announcePairings(id, nextRound, nextMatches)
	return nil
}

func (s *tournamentService) Standings(ctx context.Context, id int) ([]models.Standing, error) {
	if _, err := s.tournaments.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.standings.ListByTournament(ctx, id)
}

// createRound generates pairings for the given round number and persists the
// round with its matches. A bye is stored as a match without a black player,
// already decided.
func (s *tournamentService) createRound(
	ctx context.Context,
	tx *sql.Tx,
	tournament *models.Tournament,
	number int,
	playerByID map[int]*models.Player,
	table []models.Standing,
	history []models.Match,
) (*models.Round, []models.Match, error) {
	generator, err := pairing.ForFormat(tournament.Format)
	if err != nil {
		return nil, nil, err
	}

	entrants := make([]pairing.Entrant, 0, len(playerByID))
	for id, player := range playerByID {
		entrants = append(entrants, pairing.Entrant{
			PlayerID: id,
			Rating:   player.RatingFor(tournament.TimeControl).Rating,
		})
	}
	sort.Slice(entrants, func(i, j int) bool { return entrants[i].PlayerID < entrants[j].PlayerID })

	out, err := generator.Generate(ctx, pairing.GenerateParams{
		Tournament:  tournament,
		RoundNumber: number,
		Entrants:    entrants,
		Standings:   table,
		History:     history,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate pairings for round %d: %w", number, err)
	}

	round := &models.Round{TournamentID: tournament.ID, Number: number}
	if err := s.rounds.Create(ctx, tx, round); err != nil {
		return nil, nil, err
	}

	created := make([]models.Match, 0, len(out.Pairings)+1)
	for _, p := range out.Pairings {
		blackID := p.BlackID
		match := models.Match{
			TournamentID:  tournament.ID,
			RoundID:       round.ID,
			Round:         number,
			WhitePlayerID: p.WhiteID,
			BlackPlayerID: &blackID,
			Result:        models.ResultPending,
		}
		if err := s.matches.Create(ctx, tx, &match); err != nil {
			return nil, nil, err
		}
		created = append(created, match)
	}
	if out.ByePlayerID != nil {
		match := models.Match{
			TournamentID:  tournament.ID,
			RoundID:       round.ID,
			Round:         number,
			WhitePlayerID: *out.ByePlayerID,
			Result:        models.ResultBye,
		}
		if err := s.matches.Create(ctx, tx, &match); err != nil {
			return nil, nil, err
		}
		created = append(created, match)
	}

	return round, created, nil
}

// applyRatingUpdates runs the round's rated games through the rating engine
// in board order, mutating the player index in place. It returns the touched
// players and one history entry per player per rated game.
func applyRatingUpdates(
	timeControl models.TimeControl,
	roundMatches []models.Match,
	playerByID map[int]*models.Player,
) (map[int]*models.Player, []models.RatingHistory, error) {
	touched := make(map[int]*models.Player)
	entries := make([]models.RatingHistory, 0, len(roundMatches)*2)

	for _, m := range roundMatches {
		if !m.Result.Rated() {
			continue
		}
		white, ok := playerByID[m.WhitePlayerID]
		if !ok {
			return nil, nil, fmt.Errorf("match %d: %w", m.ID, repositories.ErrPlayerNotFound)
		}
		black, ok := playerByID[*m.BlackPlayerID]
		if !ok {
			return nil, nil, fmt.Errorf("match %d: %w", m.ID, repositories.ErrPlayerNotFound)
		}

		newWhite, newBlack, err := rating.Update(white.RatingFor(timeControl), black.RatingFor(timeControl), m.Result)
		if err != nil {
			return nil, nil, fmt.Errorf("match %d: %w", m.ID, err)
		}

		white.ApplyRating(timeControl, newWhite)
		black.ApplyRating(timeControl, newBlack)
		touched[white.ID] = white
		touched[black.ID] = black

		entries = append(entries,
			models.RatingHistory{
				PlayerID:    white.ID,
				MatchID:     m.ID,
				TimeControl: timeControl,
				Rating:      newWhite.Rating,
				Deviation:   newWhite.Deviation,
				Volatility:  newWhite.Volatility,
			},
			models.RatingHistory{
				PlayerID:    black.ID,
				MatchID:     m.ID,
				TimeControl: timeControl,
				Rating:      newBlack.Rating,
				Deviation:   newBlack.Deviation,
				Volatility:  newBlack.Volatility,
			},
		)
	}
	return touched, entries, nil
}

func (s *tournamentService) loadParticipants(ctx context.Context, tournamentID int) ([]models.Player, error) {
	ids, err := s.tournaments.ListParticipantIDs(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	players, err := s.players.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	participants := make([]models.Player, 0, len(players))
	for _, p := range players {
		participants = append(participants, *p)
	}
	return participants, nil
}

func (s *tournamentService) loadPlayerIndex(ctx context.Context, ids []int) (map[int]*models.Player, error) {
	players, err := s.players.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(players) != len(ids) {
		return nil, repositories.ErrPlayerNotFound
	}

	index := make(map[int]*models.Player, len(players))
	for _, p := range players {
		index[p.ID] = p
	}
	return index, nil
}

func (s *tournamentService) announcePairings(tournamentID int, round *models.Round, matches []models.Match) {
	s.hub.BroadcastToRoom(live.RoomForTournament(tournamentID), live.Event{
		Type: live.EventPairingsPosted,
		Payload: map[string]interface{}{
			"round_number": round.Number,
			"matches":      matches,
		},
	})
}

func (s *tournamentService) announceStandings(tournamentID int, table []models.Standing) {
	s.hub.BroadcastToRoom(live.RoomForTournament(tournamentID), live.Event{
		Type:    live.EventStandingsUpdated,
		Payload: map[string]interface{}{"standings": table},
	})
}

// publishReport uploads the final standings report. Publication failures are
// logged, not surfaced: the tournament is already completed at this point.
func (s *tournamentService) publishReport(ctx context.Context, tournament *models.Tournament, table []models.Standing, playerByID map[int]*models.Player) {
	if s.publisher == nil {
		return
	}
	report := BuildStandingsReport(tournament, table, playerByID)
	location, err := s.publisher.Publish(ctx, tournament, report)
	if err != nil {
		s.logger.Error("failed to publish tournament report", "tournament_id", tournament.ID, "error", err)
		return
	}
	s.logger.Info("tournament report published", "tournament_id", tournament.ID, "location", location)
}
