package pairing

import (
	"context"
	"sort"
)

// SwissGenerator pairs players with similar scores against each other while
// avoiding rematches and balancing colors. It approximates the Dutch system
// rather than implementing the certified FIDE procedure.
type SwissGenerator struct{}

func NewSwissGenerator() Generator {
	return &SwissGenerator{}
}

func (g *SwissGenerator) Name() string {
	return "Swiss"
}

func (g *SwissGenerator) Generate(_ context.Context, params GenerateParams) (*RoundPairings, error) {
	if len(params.Entrants) < 2 {
		return nil, ErrNotEnoughParticipants
	}
	if params.Tournament == nil || params.Tournament.NumRounds == nil {
		return nil, ErrRoundCountRequired
	}

	if params.RoundNumber <= 1 {
		return g.firstRound(params), nil
	}
	return g.laterRound(params), nil
}

// firstRound seeds by rating: sort descending, give the middle-rated player
// the bye on an odd count, then pair the top half against the bottom half
// index-wise with the higher seed taking white.
func (g *SwissGenerator) firstRound(params GenerateParams) *RoundPairings {
	pool := sortEntrantsByRating(params.Entrants)

	var byeID *int
	if len(pool)%2 == 1 {
		mid := len(pool) / 2
		id := pool[mid].PlayerID
		byeID = &id
		pool = append(pool[:mid], pool[mid+1:]...)
	}

	split := (len(pool) + 1) / 2
	top, bottom := pool[:split], pool[split:]

	pairings := make([]Pairing, 0, len(bottom))
	for i := range bottom {
		pairings = append(pairings, Pairing{WhiteID: top[i].PlayerID, BlackID: bottom[i].PlayerID})
	}

	// Board one is the highest-rated pairing; the index-wise split already
	// orders boards by the white seed's rating.
	return &RoundPairings{Pairings: pairings, ByePlayerID: byeID}
}

func (g *SwissGenerator) laterRound(params GenerateParams) *RoundPairings {
	contexts := buildContexts(params)

	pool := make([]*playerContext, 0, len(contexts))
	for _, c := range contexts {
		pool = append(pool, c)
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].ranksAbove(pool[j]) })

	var byeID *int
	if len(pool)%2 == 1 {
		idx := byeCandidate(pool)
		id := pool[idx].id
		byeID = &id
		pool = append(pool[:idx], pool[idx+1:]...)
	}

	groups := groupByScore(pool)

	var pairs [][2]*playerContext
	if len(groups) == 2 {
		// Exactly two score groups covering the field, typically winners
		// and losers after round one: pair inside each group index-wise.
		pairs = pairAdjacent(groups)
	} else {
		pairs = pairGroups(groups)
	}

	return &RoundPairings{Pairings: orderBoards(pairs), ByePlayerID: byeID}
}

// byeCandidate picks the lowest-scoring, then lowest-rated player among
// those who have not had a bye yet; if everyone has, the whole pool is
// eligible.
func byeCandidate(pool []*playerContext) int {
	anyWithoutBye := false
	for _, c := range pool {
		if !c.hasBye {
			anyWithoutBye = true
			break
		}
	}

	best := -1
	for i, c := range pool {
		if anyWithoutBye && c.hasBye {
			continue
		}
		if best == -1 || byeBefore(c, pool[best]) {
			best = i
		}
	}
	return best
}

func byeBefore(a, b *playerContext) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	if a.rating != b.rating {
		return a.rating < b.rating
	}
	return a.id < b.id
}

// groupByScore splits a pool already sorted by rank into score groups,
// highest score first.
func groupByScore(pool []*playerContext) [][]*playerContext {
	var groups [][]*playerContext
	for _, c := range pool {
		if n := len(groups); n > 0 && groups[n-1][0].score == c.score {
			groups[n-1] = append(groups[n-1], c)
			continue
		}
		groups = append(groups, []*playerContext{c})
	}
	return groups
}

// pairAdjacent pairs neighbours inside each group without a rematch scan.
// An odd group's leftover floats down to the front of the next group.
func pairAdjacent(groups [][]*playerContext) [][2]*playerContext {
	var pairs [][2]*playerContext
	var carry []*playerContext
	for _, group := range groups {
		pool := append(append([]*playerContext{}, carry...), group...)
		carry = nil
		for len(pool) >= 2 {
			pairs = append(pairs, [2]*playerContext{pool[0], pool[1]})
			pool = pool[2:]
		}
		carry = pool
	}
	return pairs
}

// pairGroups walks the score groups from the top. Within a group the
// highest-ranked remaining player takes the best-ranked opponent they have
// not played; players with only rematches left float down into the next
// group, and whoever survives the bottom group is paired off in order,
// accepting rematches as the last resort. Every active player ends up
// paired.
func pairGroups(groups [][]*playerContext) [][2]*playerContext {
	var pairs [][2]*playerContext
	var carry []*playerContext
	for _, group := range groups {
		pool := append(append([]*playerContext{}, carry...), group...)
		carry = nil
		sort.Slice(pool, func(i, j int) bool { return pool[i].ranksAbove(pool[j]) })

		var floaters []*playerContext
		for len(pool) >= 2 {
			player := pool[0]
			pool = pool[1:]

			opponent := -1
			for i, candidate := range pool {
				if !player.played(candidate.id) {
					opponent = i
					break
				}
			}
			if opponent == -1 {
				floaters = append(floaters, player)
				continue
			}

			pairs = append(pairs, [2]*playerContext{player, pool[opponent]})
			pool = append(pool[:opponent], pool[opponent+1:]...)
		}
		carry = append(floaters, pool...)
	}

	for len(carry) >= 2 {
		pairs = append(pairs, [2]*playerContext{carry[0], carry[1]})
		carry = carry[2:]
	}
	return pairs
}

// orderBoards assigns colors and sorts the boards by combined score, then by
// the strongest player, so board one carries the highest stakes.
func orderBoards(pairs [][2]*playerContext) []Pairing {
	sort.SliceStable(pairs, func(i, j int) bool {
		si := pairs[i][0].score + pairs[i][1].score
		sj := pairs[j][0].score + pairs[j][1].score
		if si != sj {
			return si > sj
		}
		return maxRating(pairs[i]) > maxRating(pairs[j])
	})

	out := make([]Pairing, 0, len(pairs))
	for _, pair := range pairs {
		white, black := determineColors(pair[0], pair[1])
		out = append(out, Pairing{WhiteID: white, BlackID: black})
	}
	return out
}

func maxRating(pair [2]*playerContext) float64 {
	if pair[0].rating > pair[1].rating {
		return pair[0].rating
	}
	return pair[1].rating
}

// determineColors resolves who plays white between two candidates, in
// priority order: opposing strong preferences go to the higher-ranked
// player, opposing preferences of any strength satisfy both, a lone
// preference is satisfied, matching preferences go to the bigger imbalance,
// and neutral players alternate away from their last color. First-time
// players default to rating order; the final fallback gives the
// higher-ranked player white.
func determineColors(a, b *playerContext) (whiteID, blackID int) {
	aColor, aStrength := a.preference()
	bColor, bStrength := b.preference()
	aHigher := a.ranksAbove(b)

	give := func(p *playerContext, color Color) (int, int) {
		other := b
		if p == b {
			other = a
		}
		if color == White {
			return p.id, other.id
		}
		return other.id, p.id
	}

	switch {
	case aStrength == 2 && bStrength == 2 && aColor != bColor:
		if aHigher {
			return give(a, aColor)
		}
		return give(b, bColor)

	case aColor != NoColor && bColor != NoColor && aColor != bColor:
		return give(a, aColor)

	case aColor != NoColor && bColor == NoColor:
		return give(a, aColor)

	case bColor != NoColor && aColor == NoColor:
		return give(b, bColor)

	case aColor != NoColor && aColor == bColor:
		if abs(a.colorDiff) > abs(b.colorDiff) {
			return give(a, aColor)
		}
		if abs(b.colorDiff) > abs(a.colorDiff) {
			return give(b, bColor)
		}
		if aHigher {
			return give(a, aColor)
		}
		return give(b, bColor)

	default:
		if a.lastColor() != NoColor {
			return give(a, opposite(a.lastColor()))
		}
		if b.lastColor() != NoColor {
			return give(b, opposite(b.lastColor()))
		}
		if a.rating != b.rating {
			if a.rating > b.rating {
				return a.id, b.id
			}
			return b.id, a.id
		}
	}

	if aHigher {
		return a.id, b.id
	}
	return b.id, a.id
}

func opposite(c Color) Color {
	if c == White {
		return Black
	}
	return White
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
