package models

import "time"

// TimeControl identifies which of the club's rating tracks a game counts
// towards.
type TimeControl string

const (
	TimeControlBullet    TimeControl = "bullet"
	TimeControlBlitz     TimeControl = "blitz"
	TimeControlRapid     TimeControl = "rapid"
	TimeControlClassical TimeControl = "classical"
)

func (tc TimeControl) Valid() bool {
	switch tc {
	case TimeControlBullet, TimeControlBlitz, TimeControlRapid, TimeControlClassical:
		return true
	}
	return false
}

// RatingState is one Glicko-2 rating track: rating, rating deviation and
// volatility. Deviation and volatility are always positive.
type RatingState struct {
	Rating     float64 `json:"rating" db:"rating"`
	Deviation  float64 `json:"deviation" db:"deviation"`
	Volatility float64 `json:"volatility" db:"volatility"`
}

// DefaultRatingState is the starting point for an unrated player.
func DefaultRatingState() RatingState {
	return RatingState{Rating: 1500, Deviation: 350, Volatility: 0.06}
}

type Player struct {
	ID         int     `json:"id" db:"id"`
	FirstName  string  `json:"first_name" db:"first_name"`
	LastName   string  `json:"last_name" db:"last_name"`
	FideID     *string `json:"fide_id,omitempty" db:"fide_id"`
	FideRating *int    `json:"fide_rating,omitempty" db:"fide_rating"`

	Bullet    RatingState `json:"bullet"`
	Blitz     RatingState `json:"blitz"`
	Rapid     RatingState `json:"rapid"`
	Classical RatingState `json:"classical"`

	// Overall is the legacy aggregate track, updated alongside whichever
	// time-control track a game was played under.
	Overall RatingState `json:"overall"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (p *Player) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// RatingFor returns the rating track for the given time control, falling
// back to the legacy aggregate for anything unrecognized.
func (p *Player) RatingFor(tc TimeControl) RatingState {
	switch tc {
	case TimeControlBullet:
		return p.Bullet
	case TimeControlBlitz:
		return p.Blitz
	case TimeControlRapid:
		return p.Rapid
	case TimeControlClassical:
		return p.Classical
	}
	return p.Overall
}

// ApplyRating stores an updated rating state on the track for the given time
// control and mirrors it onto the legacy aggregate track.
func (p *Player) ApplyRating(tc TimeControl, state RatingState) {
	switch tc {
	case TimeControlBullet:
		p.Bullet = state
	case TimeControlBlitz:
		p.Blitz = state
	case TimeControlRapid:
		p.Rapid = state
	case TimeControlClassical:
		p.Classical = state
	}
	p.Overall = state
}
