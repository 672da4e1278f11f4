package models

import "time"

type TournamentFormat string

const (
	FormatSwiss            TournamentFormat = "swiss"
	FormatRoundRobin       TournamentFormat = "round_robin"
	FormatDoubleRoundRobin TournamentFormat = "double_round_robin"
)

func (f TournamentFormat) Valid() bool {
	switch f {
	case FormatSwiss, FormatRoundRobin, FormatDoubleRoundRobin:
		return true
	}
	return false
}

func (f TournamentFormat) IsRoundRobin() bool {
	return f == FormatRoundRobin || f == FormatDoubleRoundRobin
}

type Tournament struct {
	ID          int              `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Location    string           `json:"location" db:"location"`
	Date        time.Time        `json:"date" db:"date"`
	Format      TournamentFormat `json:"format" db:"format"`
	TimeControl TimeControl      `json:"time_control" db:"time_control"`

	// NumRounds is mandatory for swiss tournaments. For round-robin formats
	// the round count is derived from the participant count instead.
	NumRounds *int `json:"num_rounds,omitempty" db:"num_rounds"`

	HasStarted  bool      `json:"has_started" db:"has_started"`
	IsCompleted bool      `json:"is_completed" db:"is_completed"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// Participants is loaded separately; frozen once the first round exists.
	Participants []Player `json:"participants,omitempty" db:"-"`
}

// PlannedRounds returns the total number of rounds for the given participant
// count: an explicit count for swiss, n-1 (even n) or n (odd n) for a single
// round robin, doubled for a double round robin.
func (t *Tournament) PlannedRounds(participantCount int) int {
	switch t.Format {
	case FormatRoundRobin, FormatDoubleRoundRobin:
		rounds := participantCount - 1
		if participantCount%2 == 1 {
			rounds = participantCount
		}
		if t.Format == FormatDoubleRoundRobin {
			rounds *= 2
		}
		return rounds
	default:
		if t.NumRounds == nil {
			return 0
		}
		return *t.NumRounds
	}
}
