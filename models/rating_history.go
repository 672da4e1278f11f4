package models

import "time"

// RatingHistory records one applied rating update, linked to the match that
// caused it. One row per player per rated game.
type RatingHistory struct {
	ID          int         `json:"id" db:"id"`
	PlayerID    int         `json:"player_id" db:"player_id"`
	MatchID     int         `json:"match_id" db:"match_id"`
	TimeControl TimeControl `json:"time_control" db:"time_control"`
	Rating      float64     `json:"rating" db:"rating"`
	Deviation   float64     `json:"deviation" db:"deviation"`
	Volatility  float64     `json:"volatility" db:"volatility"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}
