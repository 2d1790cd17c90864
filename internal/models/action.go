package models

import (
	"time"

	"github.com/google/uuid"
)

// GameAction is one applied room action, recorded for the historian.
type GameAction struct {
	ID        uuid.UUID              `json:"id"`
	RoomID    uuid.UUID              `json:"roomId"`
	ActorID   uuid.UUID              `json:"actorId"`
	Type      string                 `json:"type"`
	Index     int                    `json:"index"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// ChatMessage is one entry in a room's bounded chat history.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	PlayerID  uuid.UUID `json:"playerId"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
