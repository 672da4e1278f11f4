package pairing

import (
	"context"

	"github.com/laurierboom/tournament-engine/models"
)

// byeSlot marks the placeholder seat added when the entrant count is odd;
// whoever meets it sits out the round.
const byeSlot = -1

// RoundRobinGenerator schedules rounds with the circle method: one seat is
// fixed and the rest rotate, so the full schedule is a pure function of the
// entrant list and the round number. A double round robin replays the cycle
// with colors reversed.
type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string {
	return "RoundRobin"
}

func (g *RoundRobinGenerator) Generate(_ context.Context, params GenerateParams) (*RoundPairings, error) {
	if len(params.Entrants) < 2 {
		return nil, ErrNotEnoughParticipants
	}
	if len(params.Entrants) == 2 {
		return twoPlayerRound(params), nil
	}

	seats := make([]int, 0, len(params.Entrants)+1)
	for _, e := range params.Entrants {
		seats = append(seats, e.PlayerID)
	}
	if len(seats)%2 == 1 {
		seats = append(seats, byeSlot)
	}
	n := len(seats)

	cycle := n - 1
	effectiveRound := params.RoundNumber
	secondCycle := params.Tournament != nil &&
		params.Tournament.Format == models.FormatDoubleRoundRobin &&
		params.RoundNumber > cycle
	if secondCycle {
		effectiveRound -= cycle
	}

	// Seat 0 never moves; seats 1..n-1 rotate one step per round through
	// positions 1..n-1.
	positions := make([]int, n)
	for i := 1; i < n; i++ {
		p := (i + effectiveRound - 1) % cycle
		if p == 0 {
			p = n - 1
		}
		positions[i] = p
	}

	seatAt := make([]int, n)
	for seat, pos := range positions {
		seatAt[pos] = seat
	}

	out := &RoundPairings{}
	for i := 0; i < n/2; i++ {
		white := seats[seatAt[i]]
		black := seats[seatAt[n-1-i]]
		if secondCycle {
			white, black = black, white
		}

		if white == byeSlot || black == byeSlot {
			id := white
			if id == byeSlot {
				id = black
			}
			out.ByePlayerID = &id
			continue
		}
		out.Pairings = append(out.Pairings, Pairing{WhiteID: white, BlackID: black})
	}
	return out, nil
}

// twoPlayerRound alternates colors every round, which also satisfies the
// double round robin's reversed second cycle.
func twoPlayerRound(params GenerateParams) *RoundPairings {
	white, black := params.Entrants[0].PlayerID, params.Entrants[1].PlayerID
	if params.RoundNumber%2 == 0 {
		white, black = black, white
	}
	return &RoundPairings{Pairings: []Pairing{{WhiteID: white, BlackID: black}}}
}
