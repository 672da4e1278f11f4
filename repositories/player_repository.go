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
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPlayerFideIDInUse  = errors.New("player fide id already in use")
	ErrPlayerNameRequired = errors.New("player first name is required")
	ErrPlayerHasMatches   = errors.New("player has recorded matches and cannot be deleted")
)

const playerColumns = `
	id, first_name, last_name, fide_id, fide_rating,
	bullet_rating, bullet_deviation, bullet_volatility,
	blitz_rating, blitz_deviation, blitz_volatility,
	rapid_rating, rapid_deviation, rapid_volatility,
	classical_rating, classical_deviation, classical_volatility,
	overall_rating, overall_deviation, overall_volatility,
	created_at`

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	GetByIDs(ctx context.Context, ids []int) ([]*models.Player, error)
	List(ctx context.Context) ([]*models.Player, error)
	UpdateProfile(ctx context.Context, player *models.Player) error
	UpdateRatings(ctx context.Context, exec SQLExecutor, player *models.Player) error
	Delete(ctx context.Context, id int) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players
			(first_name, last_name, fide_id, fide_rating,
			 bullet_rating, bullet_deviation, bullet_volatility,
			 blitz_rating, blitz_deviation, blitz_volatility,
			 rapid_rating, rapid_deviation, rapid_volatility,
			 classical_rating, classical_deviation, classical_volatility,
			 overall_rating, overall_deviation, overall_volatility)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		player.FirstName,
		player.LastName,
		player.FideID,
		player.FideRating,
		player.Bullet.Rating, player.Bullet.Deviation, player.Bullet.Volatility,
		player.Blitz.Rating, player.Blitz.Deviation, player.Blitz.Volatility,
		player.Rapid.Rating, player.Rapid.Deviation, player.Rapid.Volatility,
		player.Classical.Rating, player.Classical.Deviation, player.Classical.Volatility,
		player.Overall.Rating, player.Overall.Deviation, player.Overall.Volatility,
	).Scan(&player.ID, &player.CreatedAt)

	return r.handlePlayerError(err)
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT` + playerColumns + ` FROM players WHERE id = $1`

	player := &models.Player{}
	err := scanPlayer(r.db.QueryRowContext(ctx, query, id), player)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player by id %d: %w", id, err)
	}
	return player, nil
}

func (r *postgresPlayerRepository) GetByIDs(ctx context.Context, ids []int) ([]*models.Player, error) {
	if len(ids) == 0 {
		return []*models.Player{}, nil
	}

	query := `SELECT` + playerColumns + ` FROM players WHERE id = ANY($1) ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query players by ids: %w", err)
	}
	defer rows.Close()

	return collectPlayers(rows, len(ids))
}

func (r *postgresPlayerRepository) List(ctx context.Context) ([]*models.Player, error) {
	query := `SELECT` + playerColumns + ` FROM players ORDER BY last_name ASC, first_name ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	return collectPlayers(rows, 0)
}

func (r *postgresPlayerRepository) UpdateProfile(ctx context.Context, player *models.Player) error {
	query := `
		UPDATE players
		SET first_name = $1, last_name = $2, fide_id = $3, fide_rating = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query,
		player.FirstName, player.LastName, player.FideID, player.FideRating, player.ID)
	if err != nil {
		return r.handlePlayerError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

// UpdateRatings persists all five rating tracks at once. Callers batch the
// round's updates into one transaction, so exec is usually an *sql.Tx.
func (r *postgresPlayerRepository) UpdateRatings(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	query := `
		UPDATE players
		SET bullet_rating = $1, bullet_deviation = $2, bullet_volatility = $3,
		    blitz_rating = $4, blitz_deviation = $5, blitz_volatility = $6,
		    rapid_rating = $7, rapid_deviation = $8, rapid_volatility = $9,
		    classical_rating = $10, classical_deviation = $11, classical_volatility = $12,
		    overall_rating = $13, overall_deviation = $14, overall_volatility = $15
		WHERE id = $16`

	result, err := exec.ExecContext(ctx, query,
		player.Bullet.Rating, player.Bullet.Deviation, player.Bullet.Volatility,
		player.Blitz.Rating, player.Blitz.Deviation, player.Blitz.Volatility,
		player.Rapid.Rating, player.Rapid.Deviation, player.Rapid.Volatility,
		player.Classical.Rating, player.Classical.Deviation, player.Classical.Volatility,
		player.Overall.Rating, player.Overall.Deviation, player.Overall.Volatility,
		player.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update ratings for player %d: %w", player.ID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrPlayerHasMatches
		}
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) handlePlayerError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "players_fide_id_key":
			return ErrPlayerFideIDInUse
		case "players_first_name_check":
			return ErrPlayerNameRequired
		}
	}
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlayer(row rowScanner, player *models.Player) error {
	return row.Scan(
		&player.ID,
		&player.FirstName,
		&player.LastName,
		&player.FideID,
		&player.FideRating,
		&player.Bullet.Rating, &player.Bullet.Deviation, &player.Bullet.Volatility,
		&player.Blitz.Rating, &player.Blitz.Deviation, &player.Blitz.Volatility,
		&player.Rapid.Rating, &player.Rapid.Deviation, &player.Rapid.Volatility,
		&player.Classical.Rating, &player.Classical.Deviation, &player.Classical.Volatility,
		&player.Overall.Rating, &player.Overall.Deviation, &player.Overall.Volatility,
		&player.CreatedAt,
	)
}

func collectPlayers(rows *sql.Rows, sizeHint int) ([]*models.Player, error) {
	players := make([]*models.Player, 0, sizeHint)
	for rows.Next() {
		var player models.Player
		if err := scanPlayer(rows, &player); err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		players = append(players, &player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player rows iteration: %w", err)
	}
	return players, nil
}
