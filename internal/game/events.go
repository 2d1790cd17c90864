package game

import (
	"github.com/google/uuid"
)

// EventType identifies an outbound room event.
type EventType string

const (
	EventRoomState         EventType = "room_state"          // Private: personalized snapshot.
	EventRoundStarted      EventType = "round_started"       // Public: new round dealt.
	EventBettingRequested  EventType = "betting_requested"   // Public: whose bet is due, with constraints.
	EventBetPlaced         EventType = "bet_placed"          // Public: a bet was recorded.
	EventBettingComplete   EventType = "betting_complete"    // Public: all bets in, play begins.
	EventTrickStarted      EventType = "trick_started"       // Public: a trick opened.
	EventCardPlayed        EventType = "card_played"         // Public: a card hit the table.
	EventJollyRequired     EventType = "jolly_declaration_required" // Public: a played jolly awaits prende/lascia.
	EventTrickWon          EventType = "trick_won"           // Public: trick resolved.
	EventRoundResults      EventType = "round_results"       // Public: round scored.
	EventGameEnded         EventType = "game_ended"          // Public: terminal results.
	EventActionRejected    EventType = "action_rejected"     // Private: initiator only.
	EventChatMessage       EventType = "chat_message"        // Public: room chat.
	EventPresenceUpdate    EventType = "presence_update"     // Public: connect/disconnect/role changes.
	EventRoomClosed        EventType = "room_closed"         // Public: room torn down.
)

// EventPlayer identifies a player within an event payload.
type EventPlayer struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
}

// EventCard carries a revealed card within an event payload.
type EventCard struct {
	Suit     string `json:"suit"`
	Rank     string `json:"rank"`
	Strength int    `json:"strength"`
	Jolly    bool   `json:"jolly,omitempty"`
	Choice   string `json:"choice,omitempty"` // prende/lascia for a resolved jolly
}

// SeatResult is one seat's line in a round_results payload.
type SeatResult struct {
	Player     EventPlayer `json:"player"`
	Bet        int         `json:"bet"`
	TricksWon  int         `json:"tricksWon"`
	Correct    bool        `json:"correct"`
	LifeChange int         `json:"lifeChange"`
	LivesAfter int         `json:"livesAfter"`
}

// FinalStanding is one entry in a game_ended payload.
type FinalStanding struct {
	Player   EventPlayer `json:"player"`
	Lives    int         `json:"lives"`
	Rank     int         `json:"rank"`
	Departed bool        `json:"departed,omitempty"`
}

// Event is the standard outbound message shape.
type Event struct {
	Type   EventType    `json:"type"`
	Player *EventPlayer `json:"player,omitempty"` // subject of the event
	Card   *EventCard   `json:"card,omitempty"`

	Payload map[string]interface{} `json:"payload,omitempty"`

	Results   []SeatResult    `json:"results,omitempty"`
	Standings []FinalStanding `json:"standings,omitempty"`

	State *RoomState `json:"state,omitempty"` // room_state only
}
