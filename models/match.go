package models

import "time"

type MatchResult string

const (
	ResultPending      MatchResult = "pending"
	ResultWhiteWin     MatchResult = "white_win"
	ResultBlackWin     MatchResult = "black_win"
	ResultDraw         MatchResult = "draw"
	ResultBye          MatchResult = "bye"
	ResultWhiteForfeit MatchResult = "white_forfeit"
	ResultBlackForfeit MatchResult = "black_forfeit"
)

func (r MatchResult) Valid() bool {
	switch r {
	case ResultPending, ResultWhiteWin, ResultBlackWin, ResultDraw,
		ResultBye, ResultWhiteForfeit, ResultBlackForfeit:
		return true
	}
	return false
}

// Decided reports whether the match has an outcome.
func (r MatchResult) Decided() bool {
	return r != ResultPending
}

// Rated reports whether the result feeds the rating engine. Byes and
// forfeits never change ratings.
func (r MatchResult) Rated() bool {
	return r == ResultWhiteWin || r == ResultBlackWin || r == ResultDraw
}

type Match struct {
	ID           int `json:"id" db:"id"`
	TournamentID int `json:"tournament_id" db:"tournament_id"`
	RoundID      int `json:"round_id" db:"round_id"`

	// Round is the round number, denormalized from the rounds table on read.
	Round int `json:"round" db:"-"`

	WhitePlayerID int `json:"white_player_id" db:"white_player_id"`

	// BlackPlayerID is nil exactly when the match is a bye.
	BlackPlayerID *int        `json:"black_player_id,omitempty" db:"black_player_id"`
	Result        MatchResult `json:"result" db:"result"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}

func (m *Match) IsBye() bool {
	return m.BlackPlayerID == nil
}
