package game

import (
	"errors"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/presina-online/presina/engine"
	"github.com/presina-online/presina/internal/models"
)

// Admission errors surfaced to joining clients.
var (
	ErrRoomClosed    = errors.New("room is closed")
	ErrRoomFull      = errors.New("room is full")
	ErrAlreadyJoined = errors.New("already in this room")
	ErrNotInRoom     = errors.New("not in this room")
	ErrGameOver      = errors.New("game is over")
	ErrBadAccessCode = errors.New("wrong access code")
)

// Join admits a new session. In the waiting phase the player takes a seat;
// during a running game they attach as a spectator, queued for promotion at
// the next round boundary when mid-game joining is allowed. asSpectator
// forces a pure spectator attach.
func (r *Room) Join(p *models.Player, asSpectator bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.failed {
		return ErrRoomClosed
	}
	if r.Players[p.ID] != nil {
		return ErrAlreadyJoined
	}
	r.LastActivity = time.Now()

	p.Connected = true
	p.LastSeen = time.Now()
	p.Seat = -1

	switch {
	case asSpectator || r.State.IsTerminal():
		p.Role = models.RoleSpectator
	case r.State.Phase == engine.PhaseWaiting:
		seat, err := r.State.AddSeat(0)
		if err != nil {
			if errors.Is(err, engine.ErrGameFull) {
				return ErrRoomFull
			}
			return err
		}
		p.Role = models.RolePlayer
		p.Seat = int(seat)
		r.seatToPlayer[seat] = p.ID
		r.seatNames[seat] = p.Name
		if !r.hasAdmin() {
			p.IsAdmin = true
		}
	default:
		// Mid-game: spectate now, play from the next round.
		p.Role = models.RoleSpectator
		if r.HouseRules.AllowMidGameJoin && !r.State.IsSpecialRound() && r.seatsFree() {
			p.PendingJoin = true
		}
	}

	r.Players[p.ID] = p
	r.log.WithFields(logrus.Fields{"player": p.ID, "role": p.Role, "pending": p.PendingJoin}).Info("player joined")
	r.logAction(p.ID, ActionJoinRoom, map[string]interface{}{"role": string(p.Role)})
	r.broadcastPresence(p, "joined")
	r.sendSnapshot(p.ID)
	return nil
}

// Rejoin reattaches a known player after a connection loss. The seat, hand
// and bet survive untouched; the player receives a fresh snapshot.
func (r *Room) Rejoin(playerID uuid.UUID, conn *websocket.Conn, outbox chan []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.failed {
		return ErrRoomClosed
	}
	p := r.Players[playerID]
	if p == nil {
		return ErrNotInRoom
	}
	if r.State.IsTerminal() {
		return ErrGameOver
	}
	p.Connected = true
	p.LastSeen = time.Now()
	if p.Outbox != nil {
		close(p.Outbox)
	}
	p.Conn = conn
	p.Outbox = outbox
	r.LastActivity = time.Now()
	r.log.WithField("player", playerID).Info("player rejoined")
	r.logAction(playerID, ActionRejoinGame, nil)
	r.broadcastPresence(p, "reconnected")
	r.sendSnapshot(playerID)
	return nil
}

// HandleDisconnect marks a session offline. The seat is kept for rejoin; an
// admin's role passes to a connected player so the room can still advance,
// and if the player was on turn and the policy auto-plays for the
// disconnected, their action is taken immediately.
func (r *Room) HandleDisconnect(playerID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.Players[playerID]
	if p == nil || !p.Connected {
		return
	}
	p.Connected = false
	p.Conn = nil
	if p.Outbox != nil {
		close(p.Outbox)
		p.Outbox = nil
	}
	p.LastSeen = time.Now()
	r.log.WithField("player", playerID).Info("player disconnected")
	r.broadcastPresence(p, "disconnected")

	if p.IsAdmin {
		for _, q := range r.sortedPlayers() {
			if q.ID != p.ID && q.Connected {
				p.IsAdmin = false
				r.reassignAdmin()
				break
			}
		}
	}

	if !p.Seated() || !r.HouseRules.AutoPlayDisconnected {
		return
	}
	if seat, ok := r.currentActor(); ok && int(seat) == p.Seat {
		r.turnEpoch++
		r.cancelTimers()
		r.armTurn()
	}
}

// leaveLocked removes the player's session for good. A seated player's seat
// departs mid-game (turn re-derived without them) or is dropped outright in
// the waiting phase.
func (r *Room) leaveLocked(playerID uuid.UUID) error {
	p := r.Players[playerID]
	if p == nil {
		return ErrNotInRoom
	}
	r.removePlayer(p, "left")
	r.logAction(playerID, ActionLeaveRoom, nil)
	return nil
}

// kickLocked removes the target at the admin's request.
func (r *Room) kickLocked(adminID, targetID uuid.UUID) error {
	admin := r.Players[adminID]
	if admin == nil {
		return ErrNotInRoom
	}
	if !admin.IsAdmin {
		return errors.New("only the room admin can kick")
	}
	target := r.Players[targetID]
	if target == nil {
		return errors.New("no such player in room")
	}
	if targetID == adminID {
		return errors.New("cannot kick yourself")
	}
	r.removePlayer(target, "kicked")
	r.logAction(adminID, ActionKickPlayer, map[string]interface{}{"target": targetID})
	return nil
}

// removePlayer detaches a session and its seat. Runs with the lock held.
func (r *Room) removePlayer(p *models.Player, reason string) {
	wasAdmin := p.IsAdmin
	wasSeated := p.Seated()
	phaseBefore := r.State.Phase

	if wasSeated {
		seat := uint8(p.Seat)
		inWaiting := phaseBefore == engine.PhaseWaiting
		if err := r.State.RemoveSeat(seat); err != nil {
			if errors.Is(err, engine.ErrInvariant) {
				r.fail(err)
				return
			}
		}
		if inWaiting {
			r.compactSeats(seat)
		}
	}
	delete(r.Players, p.ID)
	if p.Outbox != nil {
		close(p.Outbox)
		p.Outbox = nil
	}
	r.log.WithFields(logrus.Fields{"player": p.ID, "reason": reason}).Info("player removed")
	r.broadcastPresence(p, reason)
	if wasAdmin {
		r.reassignAdmin()
	}
	if !wasSeated {
		return
	}

	// Re-derive the turn if the removal changed the phase or the actor.
	switch {
	case r.State.Phase != phaseBefore:
		r.afterTransition()
	case r.State.Phase == engine.PhaseBetting,
		r.State.Phase == engine.PhasePlaying,
		r.State.Phase == engine.PhaseWaitingJolly:
		r.afterTransition()
	}
}

// compactSeats shifts seat mappings down after a waiting-phase removal.
func (r *Room) compactSeats(removed uint8) {
	for i := int(removed); i < len(r.seatToPlayer)-1; i++ {
		r.seatToPlayer[i] = r.seatToPlayer[i+1]
		r.seatNames[i] = r.seatNames[i+1]
	}
	r.seatToPlayer[len(r.seatToPlayer)-1] = uuid.Nil
	r.seatNames[len(r.seatNames)-1] = ""
	for _, pl := range r.Players {
		if pl.Seat > int(removed) {
			pl.Seat--
		}
	}
}

// reassignAdmin promotes the first seated connected player, falling back to
// any remaining session.
func (r *Room) reassignAdmin() {
	var fallback *models.Player
	for _, p := range r.sortedPlayers() {
		if p.Seated() && p.Connected {
			p.IsAdmin = true
			r.broadcastPresence(p, "admin")
			return
		}
		if fallback == nil {
			fallback = p
		}
	}
	if fallback != nil {
		fallback.IsAdmin = true
		r.broadcastPresence(fallback, "admin")
	}
}

func (r *Room) hasAdmin() bool {
	for _, p := range r.Players {
		if p.IsAdmin {
			return true
		}
	}
	return false
}

func (r *Room) seatsFree() bool {
	limit := r.HouseRules.MaxPlayers
	if limit <= 0 || limit > engine.MaxSeats {
		limit = engine.MaxSeats
	}
	return len(r.State.Seats) < limit
}

// promotePendingJoins seats queued mid-game joiners at the round boundary.
// Joiners start with the minimum life count among in-play seats so the
// admission never advantages them.
func (r *Room) promotePendingJoins() {
	lives := int8(0)
	if min, ok := r.State.MinInPlayLives(); ok {
		lives = min
	}
	for _, p := range r.sortedPlayers() {
		if !p.PendingJoin {
			continue
		}
		if !r.seatsFree() {
			break
		}
		seat, err := r.State.AddSeat(lives)
		if err != nil {
			break
		}
		p.PendingJoin = false
		p.Role = models.RolePlayer
		p.Seat = int(seat)
		r.seatToPlayer[seat] = p.ID
		r.seatNames[seat] = p.Name
		r.log.WithFields(logrus.Fields{"player": p.ID, "seat": seat, "lives": lives}).Info("pending joiner seated")
		r.broadcastPresence(p, "seated")
	}
}

// broadcastPresence announces a connectivity or membership change.
func (r *Room) broadcastPresence(p *models.Player, status string) {
	r.broadcast(Event{
		Type:   EventPresenceUpdate,
		Player: &EventPlayer{ID: p.ID, Name: p.Name},
		Payload: map[string]interface{}{
			"status":    status,
			"role":      string(p.Role),
			"connected": p.Connected,
			"isAdmin":   p.IsAdmin,
		},
	})
}

// Close tears the room down: room_closed goes out, timers stop, and no
// further actions are accepted.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.cancelTimers()
	r.broadcast(Event{Type: EventRoomClosed})
	r.log.Info("room closed")
}

// Empty reports whether no sessions remain attached.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Players) == 0
}

// Stale reports whether the room is eligible for cleanup: idle past
// idleAfter, finished past overAfter, or failed.
func (r *Room) Stale(now time.Time, idleAfter, overAfter time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed {
		return true
	}
	if !r.GameOverAt.IsZero() && now.Sub(r.GameOverAt) > overAfter {
		return true
	}
	return now.Sub(r.LastActivity) > idleAfter
}
