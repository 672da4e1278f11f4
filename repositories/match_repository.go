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
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchRoundInvalid  = errors.New("match references unknown round")
	ErrMatchPlayerInvalid = errors.New("match references unknown player")
)

const matchColumns = `
	m.id, m.tournament_id, m.round_id, r.number,
	m.white_player_id, m.black_player_id, m.result, m.created_at`

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Match, error)
	ListByRound(ctx context.Context, roundID int) ([]models.Match, error)
	CountPendingByRound(ctx context.Context, roundID int) (int, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, id int, result models.MatchResult) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches (tournament_id, round_id, white_player_id, black_player_id, result)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		match.TournamentID,
		match.RoundID,
		match.WhitePlayerID,
		match.BlackPlayerID,
		match.Result,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "matches_round_id_fkey":
				return ErrMatchRoundInvalid
			case "matches_white_player_id_fkey", "matches_black_player_id_fkey":
				return ErrMatchPlayerInvalid
			}
		}
		return fmt.Errorf("failed to create match in round %d: %w", match.RoundID, err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `
		SELECT` + matchColumns + `
		FROM matches m
		JOIN rounds r ON r.id = m.round_id
		WHERE m.id = $1`

	match := &models.Match{}
	err := scanMatch(r.db.QueryRowContext(ctx, query, id), match)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

// ListByTournament returns the tournament's full match history ordered by
// round number; pairing and standings both depend on that ordering.
func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Match, error) {
	query := `
		SELECT` + matchColumns + `
		FROM matches m
		JOIN rounds r ON r.id = m.round_id
		WHERE m.tournament_id = $1
		ORDER BY r.number ASC, m.id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	return collectMatches(rows)
}

func (r *postgresMatchRepository) ListByRound(ctx context.Context, roundID int) ([]models.Match, error) {
	query := `
		SELECT` + matchColumns + `
		FROM matches m
		JOIN rounds r ON r.id = m.round_id
		WHERE m.round_id = $1
		ORDER BY m.id ASC`

	rows, err := r.db.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for round %d: %w", roundID, err)
	}
	defer rows.Close()

	return collectMatches(rows)
}

func (r *postgresMatchRepository) CountPendingByRound(ctx context.Context, roundID int) (int, error) {
	query := `SELECT COUNT(*) FROM matches WHERE round_id = $1 AND result = $2`

	var count int
	if err := r.db.QueryRowContext(ctx, query, roundID, models.ResultPending).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending matches for round %d: %w", roundID, err)
	}
	return count, nil
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id int, result models.MatchResult) error {
	res, err := exec.ExecContext(ctx, `UPDATE matches SET result = $1 WHERE id = $2`, result, id)
	if err != nil {
		return fmt.Errorf("failed to update result of match %d: %w", id, err)
	}
	return checkAffectedRows(res, ErrMatchNotFound)
}

func scanMatch(row rowScanner, match *models.Match) error {
	return row.Scan(
		&match.ID,
		&match.TournamentID,
		&match.RoundID,
		&match.Round,
		&match.WhitePlayerID,
		&match.BlackPlayerID,
		&match.Result,
		&match.CreatedAt,
	)
}

func collectMatches(rows *sql.Rows) ([]models.Match, error) {
	matches := make([]models.Match, 0)
	for rows.Next() {
		var match models.Match
		if err := scanMatch(rows, &match); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}
