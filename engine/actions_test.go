package engine

import (
	"errors"
	"reflect"
	"testing"
)

// newTestGame returns a started game with n seats and a fixed seed.
func newTestGame(t *testing.T, n int, seed uint64) *GameState {
	t.Helper()
	g := NewGame(seed, DefaultConfig())
	for i := 0; i < n; i++ {
		if _, err := g.AddSeat(0); err != nil {
			t.Fatalf("AddSeat: %v", err)
		}
	}
	if err := g.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	return &g
}

// betAll places the first legal bet for every outstanding better.
func betAll(t *testing.T, g *GameState) {
	t.Helper()
	for g.Phase == PhaseBetting {
		seat, ok := g.CurrentBetter()
		if !ok {
			t.Fatal("betting phase with no current better")
		}
		bet := int8(0)
		if forbidden, applies := g.ForbiddenBet(); applies && forbidden == 0 {
			bet = 1
		}
		if err := g.PlaceBet(seat, bet); err != nil {
			t.Fatalf("PlaceBet(%d, %d): %v", seat, bet, err)
		}
	}
}

// playRound drives a round from betting through to turn results (or game
// over), playing the first card in hand and declaring any jolly as lascia.
func playRound(t *testing.T, g *GameState) {
	t.Helper()
	betAll(t, g)
	for {
		switch g.Phase {
		case PhasePlaying:
			seat, ok := g.CurrentPlayer()
			if !ok {
				t.Fatal("playing phase with no current player")
			}
			card := g.Seats[seat].Hand[0]
			choice := JollyNone
			if card.IsJolly() {
				choice = JollyLascia
			}
			if err := g.PlayCard(seat, card, choice); err != nil {
				t.Fatalf("PlayCard(%d, %v): %v", seat, card, err)
			}
		case PhaseTrickComplete:
			if err := g.AdvanceTrick(); err != nil {
				t.Fatalf("AdvanceTrick: %v", err)
			}
		default:
			return
		}
	}
}

func cloneState(g *GameState) GameState {
	c := *g
	c.Seats = append([]Seat(nil), g.Seats...)
	for i := range c.Seats {
		c.Seats[i].Hand = append([]Card(nil), g.Seats[i].Hand...)
	}
	c.BettingOrder = append([]uint8(nil), g.BettingOrder...)
	c.PlayOrder = append([]uint8(nil), g.PlayOrder...)
	c.Table = append([]PlayedCard(nil), g.Table...)
	c.LastTrick = append([]PlayedCard(nil), g.LastTrick...)
	c.Results = append([]RoundResult(nil), g.Results...)
	return c
}

func TestStartGameRequiresMinPlayers(t *testing.T) {
	g := NewGame(1, DefaultConfig())
	if _, err := g.AddSeat(0); err != nil {
		t.Fatal(err)
	}
	if err := g.StartGame(); !errors.Is(err, ErrNotEnough) {
		t.Errorf("StartGame with 1 seat: got %v, want ErrNotEnough", err)
	}
}

func TestDealUniqueCards(t *testing.T) {
	g := newTestGame(t, 4, 42)
	seen := make(map[Card]uint8)
	for i := range g.Seats {
		if len(g.Seats[i].Hand) != 5 {
			t.Fatalf("seat %d dealt %d cards, want 5", i, len(g.Seats[i].Hand))
		}
		for _, c := range g.Seats[i].Hand {
			if prev, dup := seen[c]; dup {
				t.Fatalf("card %v dealt to both seat %d and seat %d", c, prev, i)
			}
			seen[c] = uint8(i)
		}
	}
}

func TestDealDeterministic(t *testing.T) {
	a := newTestGame(t, 3, 7)
	b := newTestGame(t, 3, 7)
	for i := range a.Seats {
		if !reflect.DeepEqual(a.Seats[i].Hand, b.Seats[i].Hand) {
			t.Fatalf("seat %d hands differ for identical seeds", i)
		}
	}
}

func TestBetValidation(t *testing.T) {
	g := newTestGame(t, 3, 1)
	seat, _ := g.CurrentBetter()

	if err := g.PlaceBet(seat, 6); !errors.Is(err, ErrBetOutOfRange) {
		t.Errorf("bet 6 on 5 cards: got %v, want ErrBetOutOfRange", err)
	}
	if err := g.PlaceBet(seat, -1); !errors.Is(err, ErrBetOutOfRange) {
		t.Errorf("bet -1: got %v, want ErrBetOutOfRange", err)
	}
	other := (seat + 1) % 3
	if err := g.PlaceBet(other, 0); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("out-of-turn bet: got %v, want ErrNotYourTurn", err)
	}
	if err := g.PlaceBet(seat, 2); err != nil {
		t.Fatalf("legal bet: %v", err)
	}
}

func TestForbiddenBet(t *testing.T) {
	g := newTestGame(t, 3, 9)
	order := append([]uint8(nil), g.BettingOrder...)

	// Round 0 has 5 cards. Bets 2 and 1 leave 2 as the forbidden value.
	if err := g.PlaceBet(order[0], 2); err != nil {
		t.Fatal(err)
	}
	if err := g.PlaceBet(order[1], 1); err != nil {
		t.Fatal(err)
	}
	forbidden, applies := g.ForbiddenBet()
	if !applies || forbidden != 2 {
		t.Fatalf("ForbiddenBet() = %d, %v; want 2, true", forbidden, applies)
	}
	if err := g.PlaceBet(order[2], 2); !errors.Is(err, ErrForbiddenBet) {
		t.Errorf("forbidden bet: got %v, want ErrForbiddenBet", err)
	}
	if err := g.PlaceBet(order[2], 3); err != nil {
		t.Fatalf("adjacent bet must be legal: %v", err)
	}
	if g.Phase != PhasePlaying {
		t.Errorf("phase after all bets = %v, want playing", g.Phase)
	}
}

func TestForbiddenBetOutOfRangeDoesNotApply(t *testing.T) {
	g := newTestGame(t, 3, 9)
	order := append([]uint8(nil), g.BettingOrder...)

	// Bets 5 and 3 put the would-be forbidden value at -3: no constraint.
	if err := g.PlaceBet(order[0], 5); err != nil {
		t.Fatal(err)
	}
	if err := g.PlaceBet(order[1], 3); err != nil {
		t.Fatal(err)
	}
	if _, applies := g.ForbiddenBet(); applies {
		t.Error("forbidden value below 0 must not bind the last better")
	}
	if err := g.PlaceBet(order[2], 0); err != nil {
		t.Fatalf("any in-range bet must be legal: %v", err)
	}
}

func TestOnlyLastBetterConstrained(t *testing.T) {
	g := newTestGame(t, 3, 9)
	if _, applies := g.ForbiddenBet(); applies {
		t.Error("constraint must not bind before the last better")
	}
}

func TestRejectedActionLeavesStateUntouched(t *testing.T) {
	g := newTestGame(t, 3, 5)
	before := cloneState(g)

	seat, _ := g.CurrentBetter()
	other := (seat + 1) % 3
	_ = g.PlaceBet(other, 0)                             // not their turn
	_ = g.PlaceBet(seat, 9)                              // out of range
	_ = g.PlayCard(seat, g.Seats[seat].Hand[0], JollyNone) // wrong phase
	_ = g.AdvanceTrick()                                 // wrong phase
	_ = g.StartNextRound()                               // wrong phase

	if !reflect.DeepEqual(before, cloneState(g)) {
		t.Error("rejected actions must not mutate the state")
	}
}

func TestTrickResolution(t *testing.T) {
	g := newTestGame(t, 3, 11)
	betAll(t, g)

	for len(g.Table) < len(g.PlayOrder) && g.Phase == PhasePlaying {
		seat, _ := g.CurrentPlayer()
		card := g.Seats[seat].Hand[0]
		choice := JollyNone
		if card.IsJolly() {
			choice = JollyLascia
		}
		if err := g.PlayCard(seat, card, choice); err != nil {
			t.Fatal(err)
		}
	}
	if g.Phase != PhaseTrickComplete {
		t.Fatalf("phase after full trick = %v, want trick_complete", g.Phase)
	}
	expected, _ := TrickWinner(g.LastTrick)
	if g.TrickWinner != int8(expected) {
		t.Errorf("TrickWinner = %d, want %d", g.TrickWinner, expected)
	}
	if g.Seats[expected].TricksWon != 1 {
		t.Errorf("winner TricksWon = %d, want 1", g.Seats[expected].TricksWon)
	}

	if err := g.AdvanceTrick(); err != nil {
		t.Fatal(err)
	}
	if g.PlayOrder[0] != expected {
		t.Errorf("next trick led by %d, want winner %d", g.PlayOrder[0], expected)
	}
}

func TestJollyDeclarationFlow(t *testing.T) {
	// Find a seed where a seat holds the jolly in round 0.
	var g *GameState
	var jollySeat uint8
	for seed := uint64(1); ; seed++ {
		g = newTestGame(t, 3, seed)
		found := false
		for i := range g.Seats {
			if g.Seats[i].HasCard(Jolly) {
				jollySeat, found = uint8(i), true
				break
			}
		}
		if found {
			break
		}
	}
	betAll(t, g)

	// Advance play until the jolly holder is due.
	for {
		seat, ok := g.CurrentPlayer()
		if !ok {
			t.Fatal("no current player before jolly holder's turn")
		}
		if seat == jollySeat {
			break
		}
		card := g.Seats[seat].Hand[0]
		if err := g.PlayCard(seat, card, JollyNone); err != nil {
			t.Fatal(err)
		}
	}

	if err := g.PlayCard(jollySeat, Jolly, JollyNone); err != nil {
		t.Fatal(err)
	}
	if g.Phase != PhaseWaitingJolly {
		t.Fatalf("phase = %v, want waiting_jolly", g.Phase)
	}
	if !g.Seats[jollySeat].HasCard(Jolly) {
		t.Error("jolly must stay in hand until declared")
	}

	// Nobody else may act while the declaration is pending.
	next := (jollySeat + 1) % 3
	if len(g.Seats[next].Hand) > 0 {
		if err := g.PlayCard(next, g.Seats[next].Hand[0], JollyNone); !errors.Is(err, ErrJollyPending) {
			t.Errorf("play during pending jolly: got %v, want ErrJollyPending", err)
		}
	}
	if err := g.DeclareJolly(next, JollyPrende); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("foreign declaration: got %v, want ErrNotYourTurn", err)
	}

	if err := g.DeclareJolly(jollySeat, JollyPrende); err != nil {
		t.Fatal(err)
	}
	if g.Seats[jollySeat].HasCard(Jolly) {
		t.Error("declared jolly must leave the hand")
	}
	if g.PendingJolly != -1 {
		t.Errorf("PendingJolly = %d after declaration, want -1", g.PendingJolly)
	}
	last := g.Table
	if g.Phase == PhaseTrickComplete {
		last = g.LastTrick
	}
	found := false
	for _, p := range last {
		if p.Card.IsJolly() && p.Choice == JollyPrende {
			found = true
		}
	}
	if !found {
		t.Error("table must record the jolly with its declared choice")
	}
}

func TestRoundScoring(t *testing.T) {
	g := newTestGame(t, 3, 13)
	playRound(t, g)
	if g.Phase != PhaseTurnResults {
		t.Fatalf("phase after round = %v, want turn_results", g.Phase)
	}
	for _, r := range g.Results {
		s := g.Seats[r.Seat]
		wantCorrect := r.Bet == int8(r.TricksWon)
		if r.Correct != wantCorrect {
			t.Errorf("seat %d: Correct = %v, bet %d tricks %d", r.Seat, r.Correct, r.Bet, r.TricksWon)
		}
		wantChange := int8(0)
		if !wantCorrect {
			wantChange = -1
		}
		if r.LifeChange != wantChange {
			t.Errorf("seat %d: LifeChange = %d, want %d", r.Seat, r.LifeChange, wantChange)
		}
		if s.Lives != r.LivesAfter {
			t.Errorf("seat %d: Lives = %d, result says %d", r.Seat, s.Lives, r.LivesAfter)
		}
	}
}

func TestLivesFloorAtZero(t *testing.T) {
	g := newTestGame(t, 2, 3)
	g.Seats[0].Lives = 1
	g.Seats[1].Lives = 1
	playRound(t, g)
	for i := range g.Seats {
		if g.Seats[i].Lives < 0 {
			t.Errorf("seat %d lives = %d, must not go below 0", i, g.Seats[i].Lives)
		}
	}
}

func TestFullGame(t *testing.T) {
	g := newTestGame(t, 3, 99)
	for round := 0; round < NumRounds; round++ {
		if g.Phase == PhaseGameOver {
			break
		}
		if want := CardsPerRound[round]; g.CardsThisRound() != want {
			t.Fatalf("round %d: CardsThisRound = %d, want %d", round, g.CardsThisRound(), want)
		}
		if round == NumRounds-1 && !g.IsSpecialRound() {
			t.Error("final round must be the special one-card round")
		}
		playRound(t, g)
		if g.Phase == PhaseTurnResults {
			if err := g.StartNextRound(); err != nil {
				t.Fatalf("StartNextRound after round %d: %v", round, err)
			}
		}
	}
	if g.Phase != PhaseGameOver {
		t.Fatalf("phase after %d rounds = %v, want game_over", NumRounds, g.Phase)
	}
	winners := g.Winners()
	if len(winners) == 0 {
		t.Fatal("finished game must have at least one winner")
	}
	best := g.Seats[winners[0]].Lives
	for i := range g.Seats {
		if g.Seats[i].Lives > best {
			t.Errorf("seat %d has %d lives, above declared winner's %d", i, g.Seats[i].Lives, best)
		}
	}
}

func TestGameEndsWhenOnePlayerRemains(t *testing.T) {
	g := newTestGame(t, 3, 21)
	g.Seats[0].Lives = 1
	g.Seats[1].Lives = 1
	g.Seats[2].Lives = 5

	// Force a round where at most one bet can be exactly right, so at
	// least one of the 1-life seats can die. Run rounds until fewer than
	// two remain or the schedule ends.
	for g.Phase != PhaseGameOver {
		playRound(t, g)
		if g.Phase == PhaseTurnResults {
			if err := g.StartNextRound(); err != nil {
				t.Fatal(err)
			}
		}
	}
	if len(g.InPlaySeats()) > 1 && g.Round < NumRounds-1 {
		t.Error("game ended early with more than one seat in play")
	}
}

func TestRemoveSeatDuringBetting(t *testing.T) {
	g := newTestGame(t, 3, 17)
	order := append([]uint8(nil), g.BettingOrder...)
	if err := g.PlaceBet(order[0], 1); err != nil {
		t.Fatal(err)
	}

	// The seat currently due to bet leaves: the turn passes on.
	if err := g.RemoveSeat(order[1]); err != nil {
		t.Fatal(err)
	}
	seat, ok := g.CurrentBetter()
	if !ok || seat != order[2] {
		t.Errorf("current better = %d ok=%v, want %d", seat, ok, order[2])
	}
	if !g.Seats[order[1]].Departed {
		t.Error("removed seat must be marked departed")
	}

	// order[2] is now the last better; order[0]'s bet of 1 still counts.
	forbidden, applies := g.ForbiddenBet()
	if !applies || forbidden != 4 {
		t.Errorf("ForbiddenBet() = %d, %v; want 4, true", forbidden, applies)
	}
}

func TestRemoveSeatResolvesPendingJolly(t *testing.T) {
	var g *GameState
	var jollySeat uint8
	for seed := uint64(1); ; seed++ {
		g = newTestGame(t, 3, seed)
		found := false
		for i := range g.Seats {
			if g.Seats[i].HasCard(Jolly) {
				jollySeat, found = uint8(i), true
				break
			}
		}
		if found {
			break
		}
	}
	betAll(t, g)
	for {
		seat, ok := g.CurrentPlayer()
		if !ok || seat == jollySeat {
			break
		}
		if err := g.PlayCard(seat, g.Seats[seat].Hand[0], JollyNone); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.PlayCard(jollySeat, Jolly, JollyNone); err != nil {
		t.Fatal(err)
	}
	if err := g.RemoveSeat(jollySeat); err != nil {
		t.Fatal(err)
	}
	if g.Phase == PhaseWaitingJolly {
		t.Error("departure must resolve the pending jolly")
	}
	var choice JollyChoice
	source := g.Table
	if g.Phase == PhaseTrickComplete || g.Phase == PhaseTurnResults || g.Phase == PhaseGameOver {
		source = g.LastTrick
	}
	for _, p := range source {
		if p.Card.IsJolly() {
			choice = p.Choice
		}
	}
	if choice != JollyLascia {
		t.Errorf("departing seat's jolly resolved as %d, want lascia", choice)
	}
}

func TestRemoveSeatDuringForeignPendingJolly(t *testing.T) {
	// Find a seed where a seat holds the jolly and at least one other seat
	// is still due to play after it in the first trick.
	var g *GameState
	var jollySeat uint8
	for seed := uint64(1); ; seed++ {
		cand := newTestGame(t, 3, seed)
		holder := -1
		for i := range cand.Seats {
			if cand.Seats[i].HasCard(Jolly) {
				holder = i
				break
			}
		}
		if holder < 0 {
			continue
		}
		betAll(t, cand)
		pos := -1
		for i, s := range cand.PlayOrder {
			if s == uint8(holder) {
				pos = i
			}
		}
		if pos >= 0 && pos < len(cand.PlayOrder)-1 {
			g, jollySeat = cand, uint8(holder)
			break
		}
	}

	for {
		seat, ok := g.CurrentPlayer()
		if !ok {
			t.Fatal("no current player before jolly holder's turn")
		}
		if seat == jollySeat {
			break
		}
		if err := g.PlayCard(seat, g.Seats[seat].Hand[0], JollyNone); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.PlayCard(jollySeat, Jolly, JollyNone); err != nil {
		t.Fatal(err)
	}
	if g.Phase != PhaseWaitingJolly {
		t.Fatalf("phase = %v, want waiting_jolly", g.Phase)
	}

	// A seat that has not played this trick leaves while someone else's
	// declaration is pending.
	bystander := g.PlayOrder[len(g.PlayOrder)-1]
	if err := g.RemoveSeat(bystander); err != nil {
		t.Fatal(err)
	}
	if g.Phase != PhaseWaitingJolly {
		t.Fatalf("phase = %v after bystander left, want waiting_jolly", g.Phase)
	}
	for _, s := range g.PlayOrder {
		if s == bystander {
			t.Fatal("departed seat must leave the play order")
		}
	}

	if err := g.DeclareJolly(jollySeat, JollyLascia); err != nil {
		t.Fatal(err)
	}
	for g.Phase == PhasePlaying {
		seat, ok := g.CurrentPlayer()
		if !ok {
			t.Fatal("playing phase with no current player")
		}
		if seat == bystander {
			t.Fatalf("turn landed on departed seat %d", bystander)
		}
		if err := g.PlayCard(seat, g.Seats[seat].Hand[0], JollyNone); err != nil {
			t.Fatal(err)
		}
	}
	if g.Phase != PhaseTrickComplete {
		t.Fatalf("phase = %v, want trick_complete", g.Phase)
	}
	for _, p := range g.LastTrick {
		if p.Seat == bystander {
			t.Error("departed seat must not have a card on the table")
		}
	}
}

func TestRemoveSeatEndsShortGame(t *testing.T) {
	g := newTestGame(t, 2, 31)
	if err := g.RemoveSeat(0); err != nil {
		t.Fatal(err)
	}
	if g.Phase != PhaseGameOver {
		t.Errorf("phase = %v after dropping to one seat, want game_over", g.Phase)
	}
}

func TestAddSeatBetweenRounds(t *testing.T) {
	g := newTestGame(t, 3, 23)
	playRound(t, g)
	if g.Phase != PhaseTurnResults {
		t.Fatalf("phase = %v, want turn_results", g.Phase)
	}
	min, _ := g.MinInPlayLives()
	seat, err := g.AddSeat(min)
	if err != nil {
		t.Fatalf("AddSeat between rounds: %v", err)
	}
	if g.Seats[seat].Lives != min {
		t.Errorf("joiner lives = %d, want %d", g.Seats[seat].Lives, min)
	}
	if err := g.StartNextRound(); err != nil {
		t.Fatal(err)
	}
	inOrder := false
	for _, s := range g.BettingOrder {
		if s == seat {
			inOrder = true
		}
	}
	if !inOrder {
		t.Error("joiner must enter the next round's rotation")
	}
}

func TestAddSeatRejectedMidRound(t *testing.T) {
	g := newTestGame(t, 3, 29)
	if _, err := g.AddSeat(0); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("AddSeat during betting: got %v, want ErrWrongPhase", err)
	}
}

func TestStandingsRankDepartedLast(t *testing.T) {
	g := NewGame(1, DefaultConfig())
	for i := 0; i < 3; i++ {
		if _, err := g.AddSeat(0); err != nil {
			t.Fatal(err)
		}
	}
	g.Seats[0].Lives = 3
	g.Seats[1].Lives = 5
	g.Seats[2].Lives = 5
	g.Seats[2].Departed = true

	standings := g.Standings()
	if standings[0].Seat != 1 || standings[0].Rank != 1 {
		t.Errorf("top standing = seat %d rank %d, want seat 1 rank 1", standings[0].Seat, standings[0].Rank)
	}
	if standings[2].Seat != 2 {
		t.Errorf("departed seat must rank last, got seat %d", standings[2].Seat)
	}
	winners := g.Winners()
	if len(winners) != 1 || winners[0] != 1 {
		t.Errorf("Winners() = %v, want [1]", winners)
	}
}
