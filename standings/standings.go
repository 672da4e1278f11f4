// Package standings derives scores and ranks from a tournament's match
// history. Standings are never maintained incrementally: every call
// recomputes from scratch so that out-of-order result corrections can never
// leave the table inconsistent.
package standings

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/laurierboom/tournament-engine/models"
)

var (
	// ErrUnknownPlayer means a match references a player outside the
	// tournament's participant set. Upstream data corruption; not repaired.
	ErrUnknownPlayer = errors.New("standings: match references a player outside the participant set")

	// ErrByeWithOpponent means a bye result was recorded on a match that
	// has a black player.
	ErrByeWithOpponent = errors.New("standings: bye result recorded with an opponent present")

	// ErrMissingOpponent means a non-bye result was recorded on a match
	// without a black player.
	ErrMissingOpponent = errors.New("standings: decided result recorded without an opponent")
)

// Compute scores every decided match and returns one standing per
// participant, ranked with dense competition ranking (tied scores share a
// rank, the next distinct score gets position+1). Participants without a
// decided game appear with score 0.
//
// previous carries the standings from the last pass so that a changed rank
// can be snapshotted into PreviousRank. Passing the result of one call as
// previous of the next with unchanged matches yields an identical table.
func Compute(tournamentID int, participantIDs []int, matches []models.Match, previous []models.Standing) ([]models.Standing, error) {
	scores := make(map[int]float64, len(participantIDs))
	for _, id := range participantIDs {
		scores[id] = 0
	}

	for _, m := range matches {
		if !m.Result.Decided() {
			continue
		}

		if m.Result == models.ResultBye {
			if m.BlackPlayerID != nil {
				return nil, fmt.Errorf("%w: match %d", ErrByeWithOpponent, m.ID)
			}
			if _, ok := scores[m.WhitePlayerID]; !ok {
				return nil, fmt.Errorf("%w: match %d player %d", ErrUnknownPlayer, m.ID, m.WhitePlayerID)
			}
			scores[m.WhitePlayerID]++
			continue
		}

		if m.BlackPlayerID == nil {
			return nil, fmt.Errorf("%w: match %d", ErrMissingOpponent, m.ID)
		}
		if _, ok := scores[m.WhitePlayerID]; !ok {
			return nil, fmt.Errorf("%w: match %d player %d", ErrUnknownPlayer, m.ID, m.WhitePlayerID)
		}
		if _, ok := scores[*m.BlackPlayerID]; !ok {
			return nil, fmt.Errorf("%w: match %d player %d", ErrUnknownPlayer, m.ID, *m.BlackPlayerID)
		}

		switch m.Result {
		case models.ResultWhiteWin, models.ResultBlackForfeit:
			scores[m.WhitePlayerID]++
		case models.ResultBlackWin, models.ResultWhiteForfeit:
			scores[*m.BlackPlayerID]++
		case models.ResultDraw:
			scores[m.WhitePlayerID] += 0.5
			scores[*m.BlackPlayerID] += 0.5
		}
	}

	prior := make(map[int]models.Standing, len(previous))
	for _, s := range previous {
		prior[s.PlayerID] = s
	}

	now := time.Now()
	result := make([]models.Standing, 0, len(participantIDs))
	for _, id := range participantIDs {
		result = append(result, models.Standing{
			TournamentID: tournamentID,
			PlayerID:     id,
			Score:        scores[id],
			UpdatedAt:    now,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].PlayerID < result[j].PlayerID
	})

	for i := range result {
		if i > 0 && result[i].Score == result[i-1].Score {
			result[i].Rank = result[i-1].Rank
		} else {
			result[i].Rank = i + 1
		}

		if old, ok := prior[result[i].PlayerID]; ok {
			result[i].PreviousRank = old.PreviousRank
			if old.Rank != 0 && old.Rank != result[i].Rank {
				rank := old.Rank
				result[i].PreviousRank = &rank
			}
		}
	}

	return result, nil
}
