package engine

// Turn order resolution. These are pure functions over seat index slices so
// the rotation rules are testable without a full GameState.

// BettingOrderFor returns the betting rotation for the given round: the
// in-play seats rotated by one position per round, so the seat after the
// previous round's first better opens. Round 0 keeps insertion order.
func BettingOrderFor(round uint8, inPlay []uint8) []uint8 {
	if len(inPlay) == 0 {
		return nil
	}
	return rotated(inPlay, int(round)%len(inPlay))
}

// PlayOrderFrom returns the play rotation for a trick led by leader. If the
// leader is no longer in play (departed or eliminated between tricks), the
// lead passes to the next in-play seat after it in seat order.
func PlayOrderFrom(leader uint8, inPlay []uint8) []uint8 {
	if len(inPlay) == 0 {
		return nil
	}
	for i, seat := range inPlay {
		if seat == leader {
			return rotated(inPlay, i)
		}
	}
	// Leader gone: start from the first seat whose index follows the
	// leader's, wrapping around.
	for i, seat := range inPlay {
		if seat > leader {
			return rotated(inPlay, i)
		}
	}
	return rotated(inPlay, 0)
}

// TrickWinner returns the seat that played the strongest card. The strength
// order is strict once every jolly choice is fixed, so the winner is unique;
// ok is false only for an empty trick.
func TrickWinner(plays []PlayedCard) (winner uint8, ok bool) {
	if len(plays) == 0 {
		return 0, false
	}
	best := plays[0]
	for _, p := range plays[1:] {
		if p.Card.EffectiveStrength(p.Choice) > best.Card.EffectiveStrength(best.Choice) {
			best = p
		}
	}
	return best.Seat, true
}

// rotated returns a copy of seats starting at index start.
func rotated(seats []uint8, start int) []uint8 {
	out := make([]uint8, 0, len(seats))
	out = append(out, seats[start:]...)
	out = append(out, seats[:start]...)
	return out
}
