package models

import "time"

// Standing is a derived row, fully recomputed from match history on every
// standings pass. Score moves in half-point increments; Rank is a dense
// competition rank (ties share a rank, the next distinct score gets
// position+1).
type Standing struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	PlayerID     int       `json:"player_id" db:"player_id"`
	Score        float64   `json:"score" db:"score"`
	Rank         int       `json:"rank" db:"rank"`
	PreviousRank *int      `json:"previous_rank,omitempty" db:"previous_rank"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
