package engine

import "sort"

// RoundResult is one seat's outcome for a scored round.
type RoundResult struct {
	Seat       uint8
	Bet        int8
	TricksWon  uint8
	Correct    bool
	LifeChange int8
	LivesAfter int8
}

// Standing is one seat's position in the final (or current) ranking.
type Standing struct {
	Seat     uint8
	Lives    int8
	Departed bool
	Rank     uint8 // 1-based; seats with equal lives share a rank
}

// Standings ranks every seat that ever sat in the game, best lives first.
// Departed seats rank below all remaining seats regardless of lives. Ties
// share a rank.
func (g *GameState) Standings() []Standing {
	out := make([]Standing, 0, len(g.Seats))
	for i := range g.Seats {
		out = append(out, Standing{
			Seat:     uint8(i),
			Lives:    g.Seats[i].Lives,
			Departed: g.Seats[i].Departed,
		})
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Departed != out[b].Departed {
			return !out[a].Departed
		}
		return out[a].Lives > out[b].Lives
	})
	rank := uint8(0)
	for i := range out {
		if i == 0 || out[i].Lives != out[i-1].Lives || out[i].Departed != out[i-1].Departed {
			rank = uint8(i) + 1
		}
		out[i].Rank = rank
	}
	return out
}

// Winners returns the seats sharing the top standing. Empty only for a game
// with no seats.
func (g *GameState) Winners() []uint8 {
	standings := g.Standings()
	var out []uint8
	for _, s := range standings {
		if s.Rank != 1 {
			break
		}
		out = append(out, s.Seat)
	}
	return out
}

// MaxLives returns the highest life count among non-departed seats, or 0 if
// none remain.
func (g *GameState) MaxLives() int8 {
	var max int8
	for i := range g.Seats {
		if !g.Seats[i].Departed && g.Seats[i].Lives > max {
			max = g.Seats[i].Lives
		}
	}
	return max
}

// MinInPlayLives returns the lowest life count among in-play seats. Used to
// seat mid-game joiners without advantaging them. ok is false when no seat
// is in play.
func (g *GameState) MinInPlayLives() (int8, bool) {
	var min int8
	found := false
	for i := range g.Seats {
		if !g.Seats[i].InPlay() {
			continue
		}
		if !found || g.Seats[i].Lives < min {
			min = g.Seats[i].Lives
			found = true
		}
	}
	return min, found
}
