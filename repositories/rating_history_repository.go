package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/laurierboom/tournament-engine/models"
)

var ErrRatingHistoryPlayerInvalid = errors.New("rating history references unknown player")

type RatingHistoryRepository interface {
	Create(ctx context.Context, exec SQLExecutor, entry *models.RatingHistory) error
	ListByPlayer(ctx context.Context, playerID int, timeControl *models.TimeControl) ([]models.RatingHistory, error)
}

type postgresRatingHistoryRepository struct {
	db *sql.DB
}

func NewPostgresRatingHistoryRepository(db *sql.DB) RatingHistoryRepository {
	return &postgresRatingHistoryRepository{db: db}
}

func (r *postgresRatingHistoryRepository) Create(ctx context.Context, exec SQLExecutor, entry *models.RatingHistory) error {
	query := `
		INSERT INTO rating_history (player_id, match_id, time_control, rating, deviation, volatility)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		entry.PlayerID,
		entry.MatchID,
		entry.TimeControl,
		entry.Rating,
		entry.Deviation,
		entry.Volatility,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record rating history for player %d: %w", entry.PlayerID, err)
	}
	return nil
}

func (r *postgresRatingHistoryRepository) ListByPlayer(ctx context.Context, playerID int, timeControl *models.TimeControl) ([]models.RatingHistory, error) {
	query := `
		SELECT id, player_id, match_id, time_control, rating, deviation, volatility, created_at
		FROM rating_history
		WHERE player_id = $1`
	args := []interface{}{playerID}
	if timeControl != nil {
		query += ` AND time_control = $2`
		args = append(args, *timeControl)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating history for player %d: %w", playerID, err)
	}
	defer rows.Close()

	entries := make([]models.RatingHistory, 0)
	for rows.Next() {
		var e models.RatingHistory
		if err := rows.Scan(&e.ID, &e.PlayerID, &e.MatchID, &e.TimeControl, &e.Rating, &e.Deviation, &e.Volatility, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rating history rows iteration: %w", err)
	}
	return entries, nil
}
