package models

import "time"

// Round is one pairing wave of a tournament. Numbers start at 1 and are
// unique per tournament.
type Round struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Number       int       `json:"number" db:"number"`
	IsCompleted  bool      `json:"is_completed" db:"is_completed"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
