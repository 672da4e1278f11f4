package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/laurierboom/tournament-engine/live"
	"github.com/laurierboom/tournament-engine/models"
	"github.com/laurierboom/tournament-engine/repositories"
	"github.com/laurierboom/tournament-engine/standings"
)

type MatchService interface {
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Match, error)
	SubmitResult(ctx context.Context, matchID int, result models.MatchResult) error
}

type matchService struct {
	db            *sql.DB
	tournaments   repositories.TournamentRepository
	rounds        repositories.RoundRepository
	matches       repositories.MatchRepository
	standingsRepo repositories.StandingRepository
	hub           Broadcaster
	logger        *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	tournaments repositories.TournamentRepository,
	rounds repositories.RoundRepository,
	matches repositories.MatchRepository,
	standingsRepo repositories.StandingRepository,
	hub Broadcaster,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:            db,
		tournaments:   tournaments,
		rounds:        rounds,
		matches:       matches,
		standingsRepo: standingsRepo,
		hub:           hub,
		logger:        logger,
	}
}

func (s *matchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	return s.matches.GetByID(ctx, id)
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int) ([]models.Match, error) {
	if _, err := s.tournaments.GetByID(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.matches.ListByTournament(ctx, tournamentID)
}

// SubmitResult records or corrects a match result and refreshes standings.
// Corrections are allowed until the round is completed; after that the
// result fed the rating engine and is final.
func (s *matchService) SubmitResult(ctx context.Context, matchID int, result models.MatchResult) error {
	if !result.Valid() || result == models.ResultPending {
		return fmt.Errorf("%w: %q", ErrInvalidResult, result)
	}

	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	if match.IsBye() {
		return ErrByeMatchImmutable
	}
	if result == models.ResultBye {
		return fmt.Errorf("%w: bye result on a played game", ErrInvalidResult)
	}

	round, err := s.rounds.GetByID(ctx, match.RoundID)
	if err != nil {
		return err
	}
	if round.IsCompleted {
		return ErrResultRoundCompleted
	}

	participantIDs, err := s.tournaments.ListParticipantIDs(ctx, match.TournamentID)
	if err != nil {
		return err
	}
	allMatches, err := s.matches.ListByTournament(ctx, match.TournamentID)
	if err != nil {
		return err
	}
	previous, err := s.standingsRepo.ListByTournament(ctx, match.TournamentID)
	if err != nil {
		return err
	}

	// Standings are recomputed from the patched history rather than read
	// back, so the update and the new table commit together.
	for i := range allMatches {
		if allMatches[i].ID == matchID {
			allMatches[i].Result = result
		}
	}
	table, err := standings.Compute(match.TournamentID, participantIDs, allMatches, previous)
	if err != nil {
		return err
	}

	err = inTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.matches.UpdateResult(ctx, tx, matchID, result); err != nil {
			return err
		}
		return s.standingsRepo.ReplaceForTournament(ctx, tx, match.TournamentID, table)
	})
	if err != nil {
		return err
	}

	s.logger.Info("match result recorded",
		"match_id", matchID, "tournament_id", match.TournamentID, "round", round.Number, "result", result)

	match.Result = result
	room := live.RoomForTournament(match.TournamentID)
	s.hub.BroadcastToRoom(room, live.Event{
		Type:    live.EventMatchUpdated,
		Payload: match,
	})
	s.hub.BroadcastToRoom(room, live.Event{
		Type:    live.EventStandingsUpdated,
		Payload: map[string]interface{}{"standings": table},
	})
	return nil
}
