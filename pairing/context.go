package pairing

// Color of the pieces a player held in one game.
type Color int

const (
	NoColor Color = iota
	White
	Black
)

// playerContext is the per-player state the swiss pairer works from,
// rebuilt from the full match history on every call: current score, prior
// opponents, ordered color history and bye status.
type playerContext struct {
	id     int
	rating float64
	score  float64

	opponents map[int]bool
	colors    []Color // one entry per non-bye game, ordered by round

	// colorDiff is #white - #black over all games played.
	colorDiff int
	hasBye    bool
}

func (c *playerContext) played(opponentID int) bool {
	return c.opponents[opponentID]
}

func (c *playerContext) lastColor() Color {
	if len(c.colors) == 0 {
		return NoColor
	}
	return c.colors[len(c.colors)-1]
}

// preference returns the color the player is due next and how strongly:
// 0 none, 1 mild, 2 strong. A color imbalance of two or more forces a strong
// preference, an imbalance of one a mild one, and two consecutive games with
// the same color override everything with a strong preference for the
// opposite color.
func (c *playerContext) preference() (Color, int) {
	if n := len(c.colors); n >= 2 && c.colors[n-1] == c.colors[n-2] {
		if c.colors[n-1] == White {
			return Black, 2
		}
		return White, 2
	}

	switch {
	case c.colorDiff >= 2:
		return Black, 2
	case c.colorDiff <= -2:
		return White, 2
	case c.colorDiff == 1:
		return Black, 1
	case c.colorDiff == -1:
		return White, 1
	}
	return NoColor, 0
}

// ranksAbove orders players for pairing priority: higher score first, then
// higher rating, then lower id for determinism.
func (c *playerContext) ranksAbove(other *playerContext) bool {
	if c.score != other.score {
		return c.score > other.score
	}
	if c.rating != other.rating {
		return c.rating > other.rating
	}
	return c.id < other.id
}

// buildContexts derives every entrant's pairing context from standings and
// match history. Pending matches still count for opponents and colors: the
// board was assigned even if the result is not in yet.
func buildContexts(params GenerateParams) map[int]*playerContext {
	contexts := make(map[int]*playerContext, len(params.Entrants))
	for _, e := range params.Entrants {
		contexts[e.PlayerID] = &playerContext{
			id:        e.PlayerID,
			rating:    e.Rating,
			opponents: make(map[int]bool),
		}
	}

	for _, s := range params.Standings {
		if c, ok := contexts[s.PlayerID]; ok {
			c.score = s.Score
		}
	}

	for _, m := range params.History {
		if m.IsBye() {
			if c, ok := contexts[m.WhitePlayerID]; ok {
				c.hasBye = true
			}
			continue
		}

		white, whiteOK := contexts[m.WhitePlayerID]
		black, blackOK := contexts[*m.BlackPlayerID]
		if whiteOK {
			white.opponents[*m.BlackPlayerID] = true
			white.colors = append(white.colors, White)
			white.colorDiff++
		}
		if blackOK {
			black.opponents[m.WhitePlayerID] = true
			black.colors = append(black.colors, Black)
			black.colorDiff--
		}
	}

	return contexts
}
