package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/laurierboom/tournament-engine/models"
)

var ErrStandingsNotFound = errors.New("standings not found for tournament")

type StandingRepository interface {
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Standing, error)
	ReplaceForTournament(ctx context.Context, exec SQLExecutor, tournamentID int, standings []models.Standing) error
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Standing, error) {
	query := `
		SELECT id, tournament_id, player_id, score, rank, previous_rank, updated_at
		FROM standings
		WHERE tournament_id = $1
		ORDER BY rank ASC, player_id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	standings := make([]models.Standing, 0)
	for rows.Next() {
		var s models.Standing
		if err := rows.Scan(&s.ID, &s.TournamentID, &s.PlayerID, &s.Score, &s.Rank, &s.PreviousRank, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan standing row: %w", err)
		}
		standings = append(standings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during standing rows iteration: %w", err)
	}
	return standings, nil
}

// ReplaceForTournament swaps the whole table for the tournament in one shot.
// Standings are always recomputed from the match history, so a delete-and-
// insert inside the caller's transaction is simpler and safer than upserts.
func (r *postgresStandingRepository) ReplaceForTournament(ctx context.Context, exec SQLExecutor, tournamentID int, standings []models.Standing) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM standings WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to clear standings for tournament %d: %w", tournamentID, err)
	}

	query := `
		INSERT INTO standings (tournament_id, player_id, score, rank, previous_rank, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, s := range standings {
		if _, err := exec.ExecContext(ctx, query,
			tournamentID, s.PlayerID, s.Score, s.Rank, s.PreviousRank, s.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert standing for player %d: %w", s.PlayerID, err)
		}
	}
	return nil
}
