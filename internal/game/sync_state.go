package game

import (
	"github.com/google/uuid"

	"github.com/presina-online/presina/engine"
	"github.com/presina-online/presina/internal/models"
)

// RoomCard is a card's state for client synchronization, potentially hiding
// details. Hidden cards carry no suit or rank.
type RoomCard struct {
	Hidden   bool   `json:"hidden,omitempty"`
	Suit     string `json:"suit,omitempty"`
	Rank     string `json:"rank,omitempty"`
	Strength int    `json:"strength,omitempty"`
	Jolly    bool   `json:"jolly,omitempty"`
	Choice   string `json:"choice,omitempty"`
}

// RoomSeat is one seated player's state, projected for a specific viewer.
type RoomSeat struct {
	Player      EventPlayer `json:"player"`
	Lives       int         `json:"lives"`
	Bet         *int        `json:"bet,omitempty"` // nil until placed this round
	TricksWon   int         `json:"tricksWon"`
	Connected   bool        `json:"connected"`
	IsAdmin     bool        `json:"isAdmin,omitempty"`
	IsTurn      bool        `json:"isTurn"`
	Departed    bool        `json:"departed,omitempty"`
	Eliminated  bool        `json:"eliminated,omitempty"`
	HandSize    int         `json:"handSize"`
	// Hand is populated per the visibility rule: the viewer's own cards in
	// normal rounds; in the one-card round everyone's card is shown except
	// the viewer's own, which appears with the hidden marker.
	Hand []RoomCard `json:"hand,omitempty"`
}

// RoomState is the full personalized snapshot sent on join, rejoin and
// explicit request.
type RoomState struct {
	RoomID       uuid.UUID        `json:"roomId"`
	Phase        string           `json:"phase"`
	Round        int              `json:"round"`
	CardsInRound int              `json:"cardsInRound"`
	SpecialRound bool             `json:"specialRound"`
	Trick        int              `json:"trick"`
	Seats        []RoomSeat       `json:"seats"`
	Table        []TablePlay      `json:"table,omitempty"`
	LastTrick    []TablePlay      `json:"lastTrick,omitempty"`
	CurrentTurn  *EventPlayer     `json:"currentTurn,omitempty"`
	ForbiddenBet *int             `json:"forbiddenBet,omitempty"` // only for the viewer when they are the last better
	Spectators   []EventPlayer    `json:"spectators,omitempty"`
	PendingJoins []EventPlayer    `json:"pendingJoins,omitempty"`
	Results      []SeatResult     `json:"results,omitempty"`
	Standings    []FinalStanding  `json:"standings,omitempty"`
	HouseRules   models.HouseRules `json:"houseRules"`
	Chat         []models.ChatMessage `json:"chat,omitempty"`
	You          EventPlayer      `json:"you"`
	YourRole     models.Role      `json:"yourRole"`
}

// TablePlay is a card on the table with its owner. Table cards are always
// public.
type TablePlay struct {
	Player EventPlayer `json:"player"`
	Card   RoomCard    `json:"card"`
}

func roomCard(c engine.Card, choice engine.JollyChoice) RoomCard {
	rc := RoomCard{
		Suit:     c.SuitName(),
		Rank:     c.RankName(),
		Strength: int(c.Strength()),
		Jolly:    c.IsJolly(),
	}
	switch choice {
	case engine.JollyPrende:
		rc.Choice = "prende"
		rc.Strength = int(engine.StrengthPrende)
	case engine.JollyLascia:
		rc.Choice = "lascia"
		rc.Strength = int(engine.StrengthLascia)
	}
	return rc
}

var hiddenCard = RoomCard{Hidden: true}

// Snapshot builds the state snapshot tailored to forPlayer's perspective.
// The caller must hold the room lock.
func (r *Room) Snapshot(forPlayer uuid.UUID) RoomState {
	st := RoomState{
		RoomID:       r.ID,
		Phase:        r.State.Phase.String(),
		Round:        int(r.State.Round),
		CardsInRound: int(r.State.CardsThisRound()),
		SpecialRound: r.State.IsSpecialRound(),
		Trick:        int(r.State.Trick),
		HouseRules:   r.HouseRules,
		Chat:         r.chatHistory(),
	}

	viewer := r.Players[forPlayer]
	if viewer != nil {
		st.You = EventPlayer{ID: viewer.ID, Name: viewer.Name}
		st.YourRole = viewer.Role
	}

	// Whose turn. During waiting_jolly the pending declarer is on turn.
	var turnSeat int = -1
	if seat, ok := r.State.CurrentBetter(); ok {
		turnSeat = int(seat)
	} else if seat, ok := r.State.CurrentPlayer(); ok {
		turnSeat = int(seat)
	}
	if turnSeat >= 0 {
		if p := r.seatPlayer(uint8(turnSeat)); p != nil {
			st.CurrentTurn = &EventPlayer{ID: p.ID, Name: p.Name}
		}
	}

	// Forbidden bet: revealed only to the viewer when it binds them.
	if viewer != nil && viewer.Seated() && turnSeat == viewer.Seat {
		if forbidden, applies := r.State.ForbiddenBet(); applies {
			f := int(forbidden)
			st.ForbiddenBet = &f
		}
	}

	special := r.State.IsSpecialRound() && r.inHandPhase()

	st.Seats = make([]RoomSeat, 0, len(r.State.Seats))
	for i := range r.State.Seats {
		seat := &r.State.Seats[i]
		p := r.seatPlayer(uint8(i))
		rs := RoomSeat{
			Lives:      int(seat.Lives),
			TricksWon:  int(seat.TricksWon),
			IsTurn:     turnSeat == i,
			Departed:   seat.Departed,
			Eliminated: !seat.Departed && seat.Lives == 0,
			HandSize:   len(seat.Hand),
		}
		rs.Player = r.seatIdentity(uint8(i))
		if p != nil {
			rs.Connected = p.Connected
			rs.IsAdmin = p.IsAdmin
		}
		if seat.Bet != engine.BetNone {
			b := int(seat.Bet)
			rs.Bet = &b
		}

		isSelf := viewer != nil && viewer.Seated() && viewer.Seat == i
		switch {
		case special:
			// One-card round: everyone sees every card except their own,
			// which is sent only as a hidden marker.
			rs.Hand = make([]RoomCard, 0, len(seat.Hand))
			for _, c := range seat.Hand {
				if isSelf {
					rs.Hand = append(rs.Hand, hiddenCard)
				} else {
					rs.Hand = append(rs.Hand, roomCard(c, engine.JollyNone))
				}
			}
		case isSelf:
			rs.Hand = make([]RoomCard, 0, len(seat.Hand))
			for _, c := range seat.Hand {
				rs.Hand = append(rs.Hand, roomCard(c, engine.JollyNone))
			}
		}
		st.Seats = append(st.Seats, rs)
	}

	st.Table = r.tablePlays(r.State.Table)
	st.LastTrick = r.tablePlays(r.State.LastTrick)

	if len(r.State.Results) > 0 {
		st.Results = r.seatResults()
	}
	if r.State.IsTerminal() {
		st.Standings = r.finalStandings()
	}

	for _, p := range r.sortedPlayers() {
		if p.Role == models.RoleSpectator && !p.PendingJoin {
			st.Spectators = append(st.Spectators, EventPlayer{ID: p.ID, Name: p.Name})
		}
		if p.PendingJoin {
			st.PendingJoins = append(st.PendingJoins, EventPlayer{ID: p.ID, Name: p.Name})
		}
	}
	return st
}

// inHandPhase reports whether hands are live (dealt and still being played).
func (r *Room) inHandPhase() bool {
	switch r.State.Phase {
	case engine.PhaseBetting, engine.PhasePlaying, engine.PhaseWaitingJolly, engine.PhaseTrickComplete:
		return true
	}
	return false
}

func (r *Room) tablePlays(plays []engine.PlayedCard) []TablePlay {
	if len(plays) == 0 {
		return nil
	}
	out := make([]TablePlay, 0, len(plays))
	for _, p := range plays {
		out = append(out, TablePlay{
			Player: r.seatIdentity(p.Seat),
			Card:   roomCard(p.Card, p.Choice),
		})
	}
	return out
}

func (r *Room) seatResults() []SeatResult {
	out := make([]SeatResult, 0, len(r.State.Results))
	for _, res := range r.State.Results {
		out = append(out, SeatResult{
			Player:     r.seatIdentity(res.Seat),
			Bet:        int(res.Bet),
			TricksWon:  int(res.TricksWon),
			Correct:    res.Correct,
			LifeChange: int(res.LifeChange),
			LivesAfter: int(res.LivesAfter),
		})
	}
	return out
}

func (r *Room) finalStandings() []FinalStanding {
	standings := r.State.Standings()
	out := make([]FinalStanding, 0, len(standings))
	for _, s := range standings {
		out = append(out, FinalStanding{
			Player:   r.seatIdentity(s.Seat),
			Lives:    int(s.Lives),
			Rank:     int(s.Rank),
			Departed: s.Departed,
		})
	}
	return out
}
