// Package engine implements the Presina card game rules.
//
// The package is deliberately free of service concerns: no goroutines, no
// timers, no I/O. A GameState is mutated only through validated transitions
// (StartGame, PlaceBet, PlayCard, DeclareJolly, AdvanceTrick, StartNextRound)
// and every rejected action leaves the state untouched, which makes the
// engine trivially embeddable behind the room layer's per-room mutex.
package engine

const (
	// MaxSeats is the maximum number of seats in a game.
	MaxSeats = 8
	// NumRounds is the number of rounds in a game (hands of 5,4,3,2,1 cards).
	NumRounds = 5
	// MaxHandSize is the largest hand dealt (round 0).
	MaxHandSize = 5
)

// Phase identifies the state machine position of a game.
type Phase uint8

const (
	PhaseWaiting       Phase = iota // in lobby, accepting seats
	PhaseBetting                    // seats bet in order
	PhasePlaying                    // cards played in order
	PhaseWaitingJolly               // a played jolly awaits its prende/lascia declaration
	PhaseTrickComplete              // trick resolved, table shown before the next trick
	PhaseTurnResults                // round scored, awaiting advancement
	PhaseGameOver                   // terminal
)

var phaseNames = [...]string{
	"waiting", "betting", "playing", "waiting_jolly",
	"trick_complete", "turn_results", "game_over",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// BetNone marks a seat that has not bet this round.
const BetNone int8 = -1

// Seat holds one player's engine-side state. The seat index is stable for
// the lifetime of the game; departed seats keep their index so the room
// layer's player mapping never shifts.
type Seat struct {
	Hand      []Card
	Lives     int8
	Bet       int8
	TricksWon uint8
	Departed  bool // removed mid-game; out of rotation, keeps standings entry
}

// InPlay reports whether the seat takes part in the betting and play
// rotation: present and still holding lives.
func (s *Seat) InPlay() bool { return !s.Departed && s.Lives > 0 }

// HasCard reports whether the card is in the seat's hand.
func (s *Seat) HasCard(c Card) bool {
	for _, h := range s.Hand {
		if h == c {
			return true
		}
	}
	return false
}

// removeCard deletes one instance of c from the hand, preserving order.
func (s *Seat) removeCard(c Card) bool {
	for i, h := range s.Hand {
		if h == c {
			s.Hand = append(s.Hand[:i], s.Hand[i+1:]...)
			return true
		}
	}
	return false
}

// PlayedCard is a card on the table together with who played it and, for the
// jolly, the declared resolution.
type PlayedCard struct {
	Seat   uint8
	Card   Card
	Choice JollyChoice
}

// GameState holds the complete, self-contained state of a Presina game.
type GameState struct {
	Seats []Seat
	Phase Phase

	Round uint8 // 0..4
	Trick uint8 // trick index within the round

	// BettingOrder is the betting rotation for the current round;
	// BettingOrder[BetsPlaced] is the seat due to bet. PlayOrder is the
	// rotation for the current trick; PlayOrder[len(Table)] is due to play.
	BettingOrder []uint8
	PlayOrder    []uint8
	BetsPlaced   uint8

	Table        []PlayedCard // current trick
	LastTrick    []PlayedCard // previous trick, kept for display
	PendingJolly int8         // seat awaiting a jolly declaration, -1 if none
	TrickWinner  int8         // winner of the last resolved trick, -1 if none

	// Results holds the per-seat outcome of the most recently scored round.
	Results []RoundResult

	RNG   uint64
	Rules Config

	lastTrickOfRound bool
}

// NewGame initializes an empty GameState with the given seed and rules.
// Seats are added afterwards; the deck is built fresh at each deal.
func NewGame(seed uint64, rules Config) GameState {
	g := GameState{
		RNG:          seed,
		Rules:        rules,
		Phase:        PhaseWaiting,
		PendingJolly: -1,
		TrickWinner:  -1,
	}
	if g.RNG == 0 {
		g.RNG = 1 // xorshift can't start at 0
	}
	return g
}

// ---------------------------------------------------------------------------
// xorshift64 RNG — inline, no interface
// ---------------------------------------------------------------------------

func (g *GameState) nextRand() uint64 {
	x := g.RNG
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	g.RNG = x
	return x
}

// randN returns a random number in [0, n).
func (g *GameState) randN(n uint64) uint64 {
	return g.nextRand() % n
}

// shuffledDeck builds and shuffles a fresh 40-card Neapolitan deck.
func (g *GameState) shuffledDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for suit := uint8(0); suit < 4; suit++ {
		for rank := uint8(0); rank < 10; rank++ {
			deck = append(deck, NewCard(suit, rank))
		}
	}
	// Fisher-Yates shuffle.
	for i := len(deck) - 1; i > 0; i-- {
		j := int(g.randN(uint64(i + 1)))
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// ---------------------------------------------------------------------------
// Query methods
// ---------------------------------------------------------------------------

// IsTerminal returns true when the game is over.
func (g *GameState) IsTerminal() bool { return g.Phase == PhaseGameOver }

// CardsThisRound returns the hand size dealt for the current round.
func (g *GameState) CardsThisRound() uint8 {
	if g.Round >= NumRounds {
		return 0
	}
	return CardsPerRound[g.Round]
}

// IsSpecialRound reports whether the current round is the one-card round in
// which each player's own card is hidden from them.
func (g *GameState) IsSpecialRound() bool { return g.CardsThisRound() == 1 }

// InPlaySeats returns the indices of all seats in the current rotation, in
// seat (insertion) order.
func (g *GameState) InPlaySeats() []uint8 {
	out := make([]uint8, 0, len(g.Seats))
	for i := range g.Seats {
		if g.Seats[i].InPlay() {
			out = append(out, uint8(i))
		}
	}
	return out
}

// CurrentBetter returns the seat due to bet, if the game is in the betting
// phase and bets remain outstanding.
func (g *GameState) CurrentBetter() (uint8, bool) {
	if g.Phase != PhaseBetting || int(g.BetsPlaced) >= len(g.BettingOrder) {
		return 0, false
	}
	return g.BettingOrder[g.BetsPlaced], true
}

// CurrentPlayer returns the seat due to play a card. During a pending jolly
// declaration that seat is the pending one.
func (g *GameState) CurrentPlayer() (uint8, bool) {
	if g.Phase == PhaseWaitingJolly && g.PendingJolly >= 0 {
		return uint8(g.PendingJolly), true
	}
	if g.Phase != PhasePlaying || len(g.Table) >= len(g.PlayOrder) {
		return 0, false
	}
	return g.PlayOrder[len(g.Table)], true
}

// ForbiddenBet returns the single bet value the last better may not choose,
// and whether the constraint currently applies (it only binds the final
// outstanding better, and only when the value lands in [0, cardsThisRound]).
func (g *GameState) ForbiddenBet() (int8, bool) {
	if g.Phase != PhaseBetting || int(g.BetsPlaced) != len(g.BettingOrder)-1 {
		return 0, false
	}
	var sum int8
	for _, seat := range g.BettingOrder[:g.BetsPlaced] {
		sum += g.Seats[seat].Bet
	}
	forbidden := int8(g.CardsThisRound()) - sum
	if forbidden < 0 || forbidden > int8(g.CardsThisRound()) {
		return 0, false
	}
	return forbidden, true
}

// TotalBets returns the sum of bets placed so far this round.
func (g *GameState) TotalBets() int {
	total := 0
	for _, seat := range g.BettingOrder[:g.BetsPlaced] {
		total += int(g.Seats[seat].Bet)
	}
	return total
}
