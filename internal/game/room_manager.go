package game

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/presina-online/presina/internal/models"
)

// Default cleanup thresholds: rooms idle for a day, or finished for half an
// hour, are reaped.
const (
	DefaultIdleAfter = 24 * time.Hour
	DefaultOverAfter = 30 * time.Minute
	cleanupInterval  = 5 * time.Minute
)

var ErrNoSuchRoom = errors.New("no such room")

// RoomSummary is a room's public listing entry.
type RoomSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Players   int       `json:"players"`
	MaxPlayers int      `json:"maxPlayers"`
	Phase     string    `json:"phase"`
	Private   bool      `json:"private"`
	CreatedAt time.Time `json:"createdAt"`
}

// Manager owns the room registry and the player-to-room index. Rooms are
// fully independent: the manager never holds a room's lock while holding its
// own.
type Manager struct {
	mu       sync.Mutex
	rooms    map[uuid.UUID]*Room
	byCode   map[string]uuid.UUID
	byPlayer map[uuid.UUID]uuid.UUID

	IdleAfter time.Duration
	OverAfter time.Duration

	// Configure is applied to each new room before it is published, so the
	// transport and persistence layers can wire their callbacks.
	Configure func(r *Room)

	OnRoomCreated func(r *Room)
	OnRoomClosed  func(r *Room)

	log *logrus.Entry
}

// NewManager creates an empty registry with default cleanup thresholds.
func NewManager() *Manager {
	return &Manager{
		rooms:     make(map[uuid.UUID]*Room),
		byCode:    make(map[string]uuid.UUID),
		byPlayer:  make(map[uuid.UUID]uuid.UUID),
		IdleAfter: DefaultIdleAfter,
		OverAfter: DefaultOverAfter,
		log:       logrus.WithField("component", "room_manager"),
	}
}

const accessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const accessCodeLen = 6

func newAccessCode() string {
	var b strings.Builder
	for i := 0; i < accessCodeLen; i++ {
		b.WriteByte(accessCodeAlphabet[rand.Intn(len(accessCodeAlphabet))])
	}
	return b.String()
}

// CreateRoom registers a new room. Private rooms get an access code that
// joiners must present.
func (m *Manager) CreateRoom(name string, rules models.HouseRules, private bool) *Room {
	code := ""
	if private {
		code = newAccessCode()
	}
	r := NewRoom(name, rules, code)
	if m.Configure != nil {
		m.Configure(r)
	}

	m.mu.Lock()
	m.rooms[r.ID] = r
	if code != "" {
		m.byCode[code] = r.ID
	}
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{"room": r.ID, "name": name, "private": private}).Info("room created")
	if m.OnRoomCreated != nil {
		m.OnRoomCreated(r)
	}
	return r
}

// GetRoom returns a registered room.
func (m *Manager) GetRoom(id uuid.UUID) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	return r, ok
}

// FindByAccessCode resolves a private room's code.
func (m *Manager) FindByAccessCode(code string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, false
	}
	r, ok := m.rooms[id]
	return r, ok
}

// ListPublic returns summaries of joinable public rooms.
func (m *Manager) ListPublic() []RoomSummary {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()

	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		if r.AccessCode != "" {
			continue
		}
		out = append(out, m.summarize(r))
	}
	return out
}

func (m *Manager) summarize(r *Room) RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomSummary{
		ID:         r.ID,
		Name:       r.Name,
		Players:    len(r.State.Seats),
		MaxPlayers: r.HouseRules.MaxPlayers,
		Phase:      r.State.Phase.String(),
		Private:    r.AccessCode != "",
		CreatedAt:  r.CreatedAt,
	}
}

// JoinRoom admits a player to a room, checking the access code for private
// rooms, and records the player-to-room binding for reconnect routing.
func (m *Manager) JoinRoom(roomID uuid.UUID, p *models.Player, asSpectator bool, accessCode string) error {
	r, ok := m.GetRoom(roomID)
	if !ok {
		return ErrNoSuchRoom
	}
	if r.AccessCode != "" && !strings.EqualFold(r.AccessCode, strings.TrimSpace(accessCode)) {
		return ErrBadAccessCode
	}
	if err := r.Join(p, asSpectator); err != nil {
		return err
	}
	m.mu.Lock()
	m.byPlayer[p.ID] = roomID
	m.mu.Unlock()
	return nil
}

// RoomForPlayer resolves the room a player last joined.
func (m *Manager) RoomForPlayer(playerID uuid.UUID) (*Room, bool) {
	m.mu.Lock()
	id, ok := m.byPlayer[playerID]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	return m.GetRoom(id)
}

// ForgetPlayer drops the player-to-room binding after a permanent leave.
func (m *Manager) ForgetPlayer(playerID uuid.UUID) {
	m.mu.Lock()
	delete(m.byPlayer, playerID)
	m.mu.Unlock()
}

// CloseRoom tears a room down and unregisters it.
func (m *Manager) CloseRoom(id uuid.UUID) {
	m.mu.Lock()
	r, ok := m.rooms[id]
	if ok {
		delete(m.rooms, id)
		if r.AccessCode != "" {
			delete(m.byCode, r.AccessCode)
		}
		for pid, rid := range m.byPlayer {
			if rid == id {
				delete(m.byPlayer, pid)
			}
		}
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	r.Close()
	m.log.WithField("room", id).Info("room removed")
	if m.OnRoomClosed != nil {
		m.OnRoomClosed(r)
	}
}

// CleanupLoop reaps stale rooms until the context is cancelled.
func (m *Manager) CleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.reapStale(now)
		}
	}
}

func (m *Manager) reapStale(now time.Time) {
	m.mu.Lock()
	candidates := make([]*Room, 0)
	for _, r := range m.rooms {
		candidates = append(candidates, r)
	}
	m.mu.Unlock()

	for _, r := range candidates {
		if r.Stale(now, m.IdleAfter, m.OverAfter) {
			m.log.WithField("room", r.ID).Info("reaping stale room")
			m.CloseRoom(r.ID)
		}
	}
}
