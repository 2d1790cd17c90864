package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for rejected actions. These are user-correctable: the
// action is refused and the state is left exactly as it was.
var (
	ErrWrongPhase    = errors.New("action not valid in current phase")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrUnknownSeat   = errors.New("unknown seat")
	ErrSeatDeparted  = errors.New("seat has left the game")
	ErrGameFull      = errors.New("game is full")
	ErrNotEnough     = errors.New("not enough players to start")
	ErrBetOutOfRange = errors.New("bet out of range")
	ErrForbiddenBet  = errors.New("bet equals the forbidden value")
	ErrCardNotInHand = errors.New("card not in hand")
	ErrJollyPending  = errors.New("a jolly declaration is pending")
	ErrNoJollyChoice = errors.New("jolly requires a prende or lascia declaration")
	ErrNoPendingJolly = errors.New("no jolly declaration is pending")
)

// ErrInvariant wraps conditions that should be impossible. The room layer
// treats these as fatal for the room.
var ErrInvariant = errors.New("engine invariant violated")

// AddSeat adds a seat and returns its index. Allowed while waiting for the
// game to start, and between rounds (turn results) for mid-game admissions.
// lives <= 0 means the configured starting lives.
func (g *GameState) AddSeat(lives int8) (uint8, error) {
	if g.Phase != PhaseWaiting && g.Phase != PhaseTurnResults {
		return 0, ErrWrongPhase
	}
	if len(g.Seats) >= int(g.Rules.maxPlayers()) {
		return 0, ErrGameFull
	}
	if lives <= 0 {
		lives = g.Rules.startingLives()
	}
	g.Seats = append(g.Seats, Seat{Lives: lives, Bet: BetNone})
	return uint8(len(g.Seats) - 1), nil
}

// RemoveSeat takes a seat out of the game. In the waiting phase the seat is
// dropped outright and later seats shift down. Mid-game the seat is marked
// departed, keeps its index for standings, and the
// current turn is re-derived without it: an unplaced bet or unplayed card is
// skipped, and a pending jolly from that seat is resolved as lascia so the
// trick can complete. If fewer than two seats remain in play the game ends.
func (g *GameState) RemoveSeat(seat uint8) error {
	if int(seat) >= len(g.Seats) {
		return ErrUnknownSeat
	}
	s := &g.Seats[seat]
	if s.Departed {
		return nil
	}

	if g.Phase == PhaseWaiting {
		// No game state to preserve yet: drop the seat entirely. Later
		// seats shift down one index.
		g.Seats = append(g.Seats[:seat], g.Seats[seat+1:]...)
		return nil
	}

	if g.Phase == PhaseWaitingJolly && g.PendingJolly == int8(seat) {
		// Their jolly is face-up on the table in spirit; resolve it the
		// same way an absent player's would be.
		if err := g.DeclareJolly(seat, JollyLascia); err != nil {
			return fmt.Errorf("%w: resolving jolly for departing seat %d: %v", ErrInvariant, seat, err)
		}
	}

	s.Departed = true
	s.Hand = nil

	switch g.Phase {
	case PhaseTrickComplete, PhaseTurnResults, PhaseGameOver:
		// Rotation is re-derived at the next transition.
	case PhaseBetting:
		g.dropFromBetting(seat)
		if int(g.BetsPlaced) >= len(g.BettingOrder) {
			g.startPlaying()
		}
	case PhasePlaying:
		g.dropFromPlaying(seat)
		if len(g.Table) > 0 && len(g.Table) >= len(g.PlayOrder) {
			return g.resolveTrick()
		}
	case PhaseWaitingJolly:
		// Another seat's declaration is pending; this seat just leaves the
		// rotation and the declaration completes the trick.
		g.dropFromPlaying(seat)
	}

	if g.Phase != PhaseWaiting && g.Phase != PhaseGameOver && len(g.InPlaySeats()) < 2 {
		g.finishGame()
	}
	return nil
}

// dropFromBetting removes an un-bet seat from the betting order. A seat that
// already bet keeps its slot; the placed bet stands for the forbidden-value
// computation.
func (g *GameState) dropFromBetting(seat uint8) {
	for i := int(g.BetsPlaced); i < len(g.BettingOrder); i++ {
		if g.BettingOrder[i] == seat {
			g.BettingOrder = append(g.BettingOrder[:i], g.BettingOrder[i+1:]...)
			return
		}
	}
}

// dropFromPlaying removes a seat that has not yet played this trick from the
// play order. A card already on the table stands.
func (g *GameState) dropFromPlaying(seat uint8) {
	for _, p := range g.Table {
		if p.Seat == seat {
			return
		}
	}
	for i, s := range g.PlayOrder {
		if s == seat {
			g.PlayOrder = append(g.PlayOrder[:i], g.PlayOrder[i+1:]...)
			return
		}
	}
}

// StartGame deals round 0 and opens betting. Requires at least the
// configured minimum of in-play seats.
func (g *GameState) StartGame() error {
	if g.Phase != PhaseWaiting {
		return ErrWrongPhase
	}
	if len(g.InPlaySeats()) < int(g.Rules.minPlayers()) {
		return ErrNotEnough
	}
	g.Round = 0
	return g.startRound()
}

// startRound deals fresh hands from a newly shuffled deck and opens betting.
func (g *GameState) startRound() error {
	inPlay := g.InPlaySeats()
	cards := g.CardsThisRound()
	if int(cards)*len(inPlay) > DeckSize {
		return fmt.Errorf("%w: cannot deal %d cards to %d seats", ErrInvariant, cards, len(inPlay))
	}

	deck := g.shuffledDeck()
	for i := range g.Seats {
		s := &g.Seats[i]
		s.Hand = nil
		s.Bet = BetNone
		s.TricksWon = 0
		if !s.InPlay() {
			continue
		}
		s.Hand = append(s.Hand, deck[:cards]...)
		deck = deck[cards:]
	}

	g.Trick = 0
	g.BetsPlaced = 0
	g.Table = nil
	g.LastTrick = nil
	g.PendingJolly = -1
	g.TrickWinner = -1
	g.Results = nil
	g.lastTrickOfRound = false
	g.BettingOrder = BettingOrderFor(g.Round, inPlay)
	g.PlayOrder = nil
	g.Phase = PhaseBetting
	return nil
}

// PlaceBet records seat's bet for the round. The bet must be in
// [0, cardsThisRound], placed in betting order, and — for the last better —
// must not equal the forbidden value.
func (g *GameState) PlaceBet(seat uint8, bet int8) error {
	if g.Phase != PhaseBetting {
		return ErrWrongPhase
	}
	if int(seat) >= len(g.Seats) {
		return ErrUnknownSeat
	}
	current, ok := g.CurrentBetter()
	if !ok || current != seat {
		return ErrNotYourTurn
	}
	if bet < 0 || bet > int8(g.CardsThisRound()) {
		return ErrBetOutOfRange
	}
	if forbidden, applies := g.ForbiddenBet(); applies && bet == forbidden {
		return ErrForbiddenBet
	}

	g.Seats[seat].Bet = bet
	g.BetsPlaced++
	if int(g.BetsPlaced) >= len(g.BettingOrder) {
		g.startPlaying()
	}
	return nil
}

// startPlaying transitions betting → playing. The round's first better leads
// the first trick.
func (g *GameState) startPlaying() {
	inPlay := g.InPlaySeats()
	leader := uint8(0)
	if len(g.BettingOrder) > 0 {
		leader = g.BettingOrder[0]
	}
	g.PlayOrder = PlayOrderFrom(leader, inPlay)
	g.Table = nil
	g.Phase = PhasePlaying
}

// PlayCard plays a card from seat's hand. There is no follow-suit rule: any
// card in hand is legal on your turn. Playing the jolly without a choice
// suspends the game in the waiting-jolly phase until DeclareJolly.
func (g *GameState) PlayCard(seat uint8, card Card, choice JollyChoice) error {
	if g.Phase == PhaseWaitingJolly {
		// Allow the pending player to complete their play in one shot.
		if g.PendingJolly == int8(seat) && card.IsJolly() && choice != JollyNone {
			return g.DeclareJolly(seat, choice)
		}
		return ErrJollyPending
	}
	if g.Phase != PhasePlaying {
		return ErrWrongPhase
	}
	if int(seat) >= len(g.Seats) {
		return ErrUnknownSeat
	}
	current, ok := g.CurrentPlayer()
	if !ok || current != seat {
		return ErrNotYourTurn
	}
	s := &g.Seats[seat]
	if !s.HasCard(card) {
		return ErrCardNotInHand
	}

	if card.IsJolly() && choice == JollyNone {
		// Card stays in hand until the declaration fixes its strength.
		g.PendingJolly = int8(seat)
		g.Phase = PhaseWaitingJolly
		return nil
	}
	if !card.IsJolly() {
		choice = JollyNone
	}

	s.removeCard(card)
	g.Table = append(g.Table, PlayedCard{Seat: seat, Card: card, Choice: choice})
	if len(g.Table) >= len(g.PlayOrder) {
		return g.resolveTrick()
	}
	return nil
}

// DeclareJolly resolves a pending jolly declaration: the jolly leaves the
// hand with its strength fixed and the trick continues.
func (g *GameState) DeclareJolly(seat uint8, choice JollyChoice) error {
	if g.Phase != PhaseWaitingJolly {
		return ErrNoPendingJolly
	}
	if g.PendingJolly != int8(seat) {
		return ErrNotYourTurn
	}
	if choice != JollyPrende && choice != JollyLascia {
		return ErrNoJollyChoice
	}
	s := &g.Seats[seat]
	if !s.removeCard(Jolly) {
		return fmt.Errorf("%w: pending jolly not in seat %d hand", ErrInvariant, seat)
	}

	g.Table = append(g.Table, PlayedCard{Seat: seat, Card: Jolly, Choice: choice})
	g.PendingJolly = -1
	g.Phase = PhasePlaying
	if len(g.Table) >= len(g.PlayOrder) {
		return g.resolveTrick()
	}
	return nil
}

// resolveTrick determines the trick winner and enters the trick-complete
// phase. The table stays visible until AdvanceTrick.
func (g *GameState) resolveTrick() error {
	winner, ok := TrickWinner(g.Table)
	if !ok {
		return fmt.Errorf("%w: resolving empty trick", ErrInvariant)
	}
	g.Seats[winner].TricksWon++
	g.TrickWinner = int8(winner)
	g.lastTrickOfRound = int(g.Trick)+1 >= int(g.CardsThisRound())
	g.LastTrick = append([]PlayedCard(nil), g.Table...)
	g.Phase = PhaseTrickComplete
	return nil
}

// AdvanceTrick moves past the trick-complete display: either the next trick
// starts (led by the winner) or, after the round's final trick, the round is
// scored.
func (g *GameState) AdvanceTrick() error {
	if g.Phase != PhaseTrickComplete {
		return ErrWrongPhase
	}
	g.Trick++
	if g.lastTrickOfRound {
		g.endRound()
		return nil
	}
	leader := uint8(0)
	if g.TrickWinner >= 0 {
		leader = uint8(g.TrickWinner)
	}
	g.PlayOrder = PlayOrderFrom(leader, g.InPlaySeats())
	g.Table = nil
	g.Phase = PhasePlaying
	return nil
}

// endRound scores every in-play seat and enters turn results. After the
// final round, or if fewer than two seats remain in play, the game finishes
// immediately (results stay available alongside the final standings).
func (g *GameState) endRound() {
	g.Results = nil
	for i := range g.Seats {
		s := &g.Seats[i]
		if !s.InPlay() {
			continue
		}
		correct := s.Bet == int8(s.TricksWon)
		var change int8
		if !correct {
			change = -1
		}
		s.Lives += change
		if s.Lives < 0 {
			s.Lives = 0
		}
		g.Results = append(g.Results, RoundResult{
			Seat:       uint8(i),
			Bet:        s.Bet,
			TricksWon:  s.TricksWon,
			Correct:    correct,
			LifeChange: change,
			LivesAfter: s.Lives,
		})
	}
	g.Phase = PhaseTurnResults

	if g.Round >= NumRounds-1 || len(g.InPlaySeats()) <= 1 {
		g.finishGame()
	}
}

// StartNextRound advances from turn results to the next round's betting
// phase. The room layer gates this behind the admin's acknowledgment.
func (g *GameState) StartNextRound() error {
	if g.Phase != PhaseTurnResults {
		return ErrWrongPhase
	}
	g.Round++
	if g.Round >= NumRounds {
		g.finishGame()
		return nil
	}
	return g.startRound()
}

// finishGame enters the terminal phase. Standings are derived on demand.
func (g *GameState) finishGame() {
	g.PendingJolly = -1
	g.Phase = PhaseGameOver
}
