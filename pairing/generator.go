// Package pairing generates the opponent pairs and bye for one tournament
// round. Generators are pure: they read an immutable snapshot of entrants,
// standings and match history and return pairings without touching storage.
package pairing

import (
	"context"
	"errors"
	"sort"

	"github.com/laurierboom/tournament-engine/models"
)

var (
	// ErrNotEnoughParticipants is fatal to the pairing call; the caller
	// must not create a round.
	ErrNotEnoughParticipants = errors.New("pairing: at least two participants are required")

	// ErrRoundCountRequired means a swiss tournament has no planned round
	// count.
	ErrRoundCountRequired = errors.New("pairing: swiss tournaments require a planned round count")

	ErrUnsupportedFormat = errors.New("pairing: unsupported tournament format")
)

// Entrant is one player in the pairing pool, carrying the rating for the
// tournament's time control.
type Entrant struct {
	PlayerID int
	Rating   float64
}

// Pairing is one board: white against black.
type Pairing struct {
	WhiteID int
	BlackID int
}

// RoundPairings is a generator's output for a single round: the boards in
// play order (board 1 first) plus at most one bye.
type RoundPairings struct {
	Pairings    []Pairing
	ByePlayerID *int
}

type GenerateParams struct {
	Tournament  *models.Tournament
	RoundNumber int
	Entrants    []Entrant

	// Standings and History describe all previous rounds; both may be
	// empty for round one. History must be ordered by round number.
	Standings []models.Standing
	History   []models.Match
}

type Generator interface {
	Generate(ctx context.Context, params GenerateParams) (*RoundPairings, error)
	Name() string
}

// ForFormat selects the generator for a tournament format.
func ForFormat(format models.TournamentFormat) (Generator, error) {
	switch format {
	case models.FormatSwiss:
		return NewSwissGenerator(), nil
	case models.FormatRoundRobin, models.FormatDoubleRoundRobin:
		return NewRoundRobinGenerator(), nil
	}
	return nil, ErrUnsupportedFormat
}

// sortEntrantsByRating orders a copy of the entrants by rating descending,
// ties broken by player id for determinism.
func sortEntrantsByRating(entrants []Entrant) []Entrant {
	sorted := make([]Entrant, len(entrants))
	copy(sorted, entrants)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Rating != sorted[j].Rating {
			return sorted[i].Rating > sorted[j].Rating
		}
		return sorted[i].PlayerID < sorted[j].PlayerID
	})
	return sorted
}
