package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/laurierboom/tournament-engine/models"
)

var (
	ErrRoundNotFound          = errors.New("round not found")
	ErrRoundAlreadyExists     = errors.New("round already exists for this tournament")
	ErrRoundAlreadyCompleted  = errors.New("round is already completed")
	ErrRoundTournamentInvalid = errors.New("round references unknown tournament")
)

type RoundRepository interface {
	Create(ctx context.Context, exec SQLExecutor, round *models.Round) error
	GetByID(ctx context.Context, id int) (*models.Round, error)
	GetByNumber(ctx context.Context, tournamentID, number int) (*models.Round, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Round, error)
	Latest(ctx context.Context, tournamentID int) (*models.Round, error)
	SetCompleted(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

// Create relies on the unique (tournament_id, number) constraint to make
// round creation at-most-once: a second caller racing on the same round
// number gets ErrRoundAlreadyExists instead of a duplicate round.
func (r *postgresRoundRepository) Create(ctx context.Context, exec SQLExecutor, round *models.Round) error {
	query := `
		INSERT INTO rounds (tournament_id, number)
		VALUES ($1, $2)
		RETURNING id, is_completed, created_at`

	err := exec.QueryRowContext(ctx, query, round.TournamentID, round.Number).
		Scan(&round.ID, &round.IsCompleted, &round.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "rounds_tournament_id_number_key":
				return ErrRoundAlreadyExists
			case "rounds_tournament_id_fkey":
				return ErrRoundTournamentInvalid
			}
		}
		return fmt.Errorf("failed to create round %d for tournament %d: %w", round.Number, round.TournamentID, err)
	}
	return nil
}

func (r *postgresRoundRepository) GetByID(ctx context.Context, id int) (*models.Round, error) {
	query := `
		SELECT id, tournament_id, number, is_completed, created_at
		FROM rounds
		WHERE id = $1`

	round := &models.Round{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&round.ID, &round.TournamentID, &round.Number, &round.IsCompleted, &round.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to scan round by id %d: %w", id, err)
	}
	return round, nil
}

func (r *postgresRoundRepository) GetByNumber(ctx context.Context, tournamentID, number int) (*models.Round, error) {
	query := `
		SELECT id, tournament_id, number, is_completed, created_at
		FROM rounds
		WHERE tournament_id = $1 AND number = $2`

	round := &models.Round{}
	err := r.db.QueryRowContext(ctx, query, tournamentID, number).Scan(
		&round.ID, &round.TournamentID, &round.Number, &round.IsCompleted, &round.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to scan round %d of tournament %d: %w", number, tournamentID, err)
	}
	return round, nil
}

func (r *postgresRoundRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Round, error) {
	query := `
		SELECT id, tournament_id, number, is_completed, created_at
		FROM rounds
		WHERE tournament_id = $1
		ORDER BY number ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	rounds := make([]*models.Round, 0)
	for rows.Next() {
		var round models.Round
		if err := rows.Scan(&round.ID, &round.TournamentID, &round.Number, &round.IsCompleted, &round.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan round row: %w", err)
		}
		rounds = append(rounds, &round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during round rows iteration: %w", err)
	}
	return rounds, nil
}

// Latest returns the round with the highest number, or ErrRoundNotFound when
// the tournament has no rounds yet.
func (r *postgresRoundRepository) Latest(ctx context.Context, tournamentID int) (*models.Round, error) {
	query := `
		SELECT id, tournament_id, number, is_completed, created_at
		FROM rounds
		WHERE tournament_id = $1
		ORDER BY number DESC
		LIMIT 1`

	round := &models.Round{}
	err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(
		&round.ID, &round.TournamentID, &round.Number, &round.IsCompleted, &round.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to scan latest round of tournament %d: %w", tournamentID, err)
	}
	return round, nil
}

// SetCompleted closes an open round. The is_completed predicate makes the
// close itself the concurrency guard: a second closer that read the round
// before the first one committed updates zero rows and gets
// ErrRoundAlreadyCompleted instead of re-closing it.
func (r *postgresRoundRepository) SetCompleted(ctx context.Context, exec SQLExecutor, id int) error {
	query := `UPDATE rounds SET is_completed = TRUE WHERE id = $1 AND is_completed = FALSE`
	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark round %d completed: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundAlreadyCompleted)
}
