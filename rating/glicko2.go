// Package rating implements the club's Glicko-2 single-game rating update.
//
// Each decided, non-forfeit game updates both players' rating and rating
// deviation on the track for the tournament's time control. Volatility is
// carried through unchanged: the canonical Glicko-2 volatility step needs an
// iterative root-find and the club's historical rating trajectories were all
// produced without it, so recomputing it now would fork the rating history.
//
// See https://www.glicko.net/glicko/glicko2.pdf for the full system.
package rating

import (
	"errors"
	"math"

	"github.com/laurierboom/tournament-engine/models"
)

const (
	// scale converts between the display scale (1500-centered) and the
	// internal Glicko-2 scale.
	scale = 173.7178

	// deviationFloor keeps the internal-scale deviation away from zero so
	// that v and the new deviation stay finite.
	deviationFloor = 1e-4

	// expectedEpsilon clamps the expected score away from 0 and 1, where
	// v would divide by zero.
	expectedEpsilon = 1e-9
)

// ErrUnratedResult is returned for results that must not reach the rating
// engine: pending games, byes and forfeits.
var ErrUnratedResult = errors.New("rating: result does not affect ratings")

// Update returns the post-game rating states for white and black. The input
// states are not modified. Only white_win, black_win and draw are accepted.
func Update(white, black models.RatingState, result models.MatchResult) (models.RatingState, models.RatingState, error) {
	var whiteScore, blackScore float64
	switch result {
	case models.ResultWhiteWin:
		whiteScore, blackScore = 1, 0
	case models.ResultBlackWin:
		whiteScore, blackScore = 0, 1
	case models.ResultDraw:
		whiteScore, blackScore = 0.5, 0.5
	default:
		return white, black, ErrUnratedResult
	}

	newWhite := updateOne(white, black, whiteScore)
	newBlack := updateOne(black, white, blackScore)
	return newWhite, newBlack, nil
}

// updateOne computes one side's new state from a single game against the
// given opponent.
func updateOne(player, opponent models.RatingState, score float64) models.RatingState {
	mu := toInternal(player.Rating)
	phi := clampPhi(player.Deviation / scale)
	oppMu := toInternal(opponent.Rating)
	oppPhi := clampPhi(opponent.Deviation / scale)

	gOpp := g(oppPhi)
	e := clampExpected(1 / (1 + math.Exp(-gOpp*(mu-oppMu))))
	v := 1 / (gOpp * gOpp * e * (1 - e))

	newPhi := math.Sqrt(1 / (1/(phi*phi) + 1/v))
	newMu := mu + newPhi*newPhi*gOpp*(score-e)

	return models.RatingState{
		Rating:     fromInternal(newMu),
		Deviation:  newPhi * scale,
		Volatility: player.Volatility,
	}
}

// g weights an opponent's influence down as their deviation grows.
func g(phi float64) float64 {
	return 1 / math.Sqrt(1+3*phi*phi/(math.Pi*math.Pi))
}

func toInternal(rating float64) float64 { return (rating - 1500) / scale }

func fromInternal(mu float64) float64 { return mu*scale + 1500 }

func clampPhi(phi float64) float64 {
	if phi < deviationFloor {
		return deviationFloor
	}
	return phi
}

func clampExpected(e float64) float64 {
	if e < expectedEpsilon {
		return expectedEpsilon
	}
	if e > 1-expectedEpsilon {
		return 1 - expectedEpsilon
	}
	return e
}
