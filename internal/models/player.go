package models

import (
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Role distinguishes seated players from watchers.
type Role string

const (
	RolePlayer    Role = "player"
	RoleSpectator Role = "spectator"
)

// Player is one session attached to a room: a seated participant, a
// spectator, or a mid-game joiner waiting for the next round.
type Player struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Role      Role            `json:"role"`
	Connected bool            `json:"connected"`
	IsAdmin   bool            `json:"isAdmin"`
	Conn      *websocket.Conn `json:"-"`

	// Outbox carries serialized events to the connection's single writer
	// goroutine, which preserves emission order on the wire.
	Outbox chan []byte `json:"-"`

	// Seat is the engine seat index for seated players; -1 for spectators
	// and pending joiners.
	Seat int `json:"-"`

	// PendingJoin marks a mid-game joiner who spectates until promoted at
	// the next round boundary.
	PendingJoin bool `json:"-"`

	// Ready records a readyForNextRound acknowledgment during turn results.
	Ready bool `json:"-"`

	LastSeen time.Time `json:"-"`

	User *User `json:"-"`
}

// Seated reports whether the player occupies an engine seat.
func (p *Player) Seated() bool { return p.Role == RolePlayer && p.Seat >= 0 }
