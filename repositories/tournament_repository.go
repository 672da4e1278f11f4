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
	ErrTournamentNotFound           = errors.New("tournament not found")
	ErrParticipantAlreadyRegistered = errors.New("player already registered in tournament")
	ErrParticipantNotRegistered     = errors.New("player not registered in tournament")
	ErrParticipantPlayerInvalid     = errors.New("participant references unknown player")
	ErrParticipantTournamentInvalid = errors.New("participant references unknown tournament")
	ErrTournamentHasRounds          = errors.New("tournament has rounds and cannot be deleted")
)

const tournamentColumns = `
	id, name, location, date, format, time_control, num_rounds,
	has_started, is_completed, created_at`

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, completed *bool) ([]*models.Tournament, error)
	SetStarted(ctx context.Context, exec SQLExecutor, id int) error
	SetCompleted(ctx context.Context, exec SQLExecutor, id int) error
	Delete(ctx context.Context, id int) error

	AddParticipant(ctx context.Context, tournamentID, playerID int) error
	RemoveParticipant(ctx context.Context, tournamentID, playerID int) error
	ListParticipantIDs(ctx context.Context, tournamentID int) ([]int, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments
			(name, location, date, format, time_control, num_rounds)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, has_started, is_completed, created_at`

	return r.db.QueryRowContext(ctx, query,
		tournament.Name,
		tournament.Location,
		tournament.Date,
		tournament.Format,
		tournament.TimeControl,
		tournament.NumRounds,
	).Scan(&tournament.ID, &tournament.HasStarted, &tournament.IsCompleted, &tournament.CreatedAt)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	tournament := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tournament.ID,
		&tournament.Name,
		&tournament.Location,
		&tournament.Date,
		&tournament.Format,
		&tournament.TimeControl,
		&tournament.NumRounds,
		&tournament.HasStarted,
		&tournament.IsCompleted,
		&tournament.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament by id %d: %w", id, err)
	}
	return tournament, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, completed *bool) ([]*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments`
	args := []interface{}{}
	if completed != nil {
		query += ` WHERE is_completed = $1`
		args = append(args, *completed)
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Location, &t.Date, &t.Format, &t.TimeControl,
			&t.NumRounds, &t.HasStarted, &t.IsCompleted, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		tournaments = append(tournaments, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) SetStarted(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := exec.ExecContext(ctx, `UPDATE tournaments SET has_started = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark tournament %d started: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetCompleted(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := exec.ExecContext(ctx, `UPDATE tournaments SET is_completed = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark tournament %d completed: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrTournamentHasRounds
		}
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) AddParticipant(ctx context.Context, tournamentID, playerID int) error {
	query := `INSERT INTO tournament_participants (tournament_id, player_id) VALUES ($1, $2)`
	_, err := r.db.ExecContext(ctx, query, tournamentID, playerID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "tournament_participants_pkey":
				return ErrParticipantAlreadyRegistered
			case "tournament_participants_tournament_id_fkey":
				return ErrParticipantTournamentInvalid
			case "tournament_participants_player_id_fkey":
				return ErrParticipantPlayerInvalid
			}
		}
		return fmt.Errorf("failed to add participant %d to tournament %d: %w", playerID, tournamentID, err)
	}
	return nil
}

func (r *postgresTournamentRepository) RemoveParticipant(ctx context.Context, tournamentID, playerID int) error {
	query := `DELETE FROM tournament_participants WHERE tournament_id = $1 AND player_id = $2`
	result, err := r.db.ExecContext(ctx, query, tournamentID, playerID)
	if err != nil {
		return fmt.Errorf("failed to remove participant %d from tournament %d: %w", playerID, tournamentID, err)
	}
	return checkAffectedRows(result, ErrParticipantNotRegistered)
}

func (r *postgresTournamentRepository) ListParticipantIDs(ctx context.Context, tournamentID int) ([]int, error) {
	query := `
		SELECT player_id FROM tournament_participants
		WHERE tournament_id = $1
		ORDER BY player_id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participant rows iteration: %w", err)
	}
	return ids, nil
}
