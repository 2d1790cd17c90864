// Package server exposes the websocket transport and the small HTTP API
// around it: auth, room listing and creation. It adapts authenticated socket
// messages into room actions and fans room events back out to connections.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/presina-online/presina/internal/auth"
	"github.com/presina-online/presina/internal/cache"
	"github.com/presina-online/presina/internal/config"
	"github.com/presina-online/presina/internal/database"
	"github.com/presina-online/presina/internal/game"
	"github.com/presina-online/presina/internal/models"
)

const (
	writeTimeout = 5 * time.Second
	outboxSize   = 256
	rateLimit    = 20
	rateWindow   = 10 * time.Second
)

// Server wires the transport to the room manager and the persistence hooks.
type Server struct {
	cfg       config.Config
	auth      *auth.Service
	store     *database.Store
	historian *cache.Historian
	Manager   *game.Manager
	limiter   *RateLimiter
	log       *logrus.Entry
}

// New builds a server and configures every new room with the broadcast,
// historian and end-of-game callbacks.
func New(cfg config.Config, authSvc *auth.Service, store *database.Store, historian *cache.Historian) *Server {
	s := &Server{
		cfg:       cfg,
		auth:      authSvc,
		store:     store,
		historian: historian,
		Manager:   game.NewManager(),
		limiter:   NewRateLimiter(rateLimit, rateWindow),
		log:       logrus.WithField("component", "server"),
	}
	s.Manager.IdleAfter = cfg.RoomIdleTimeout
	s.Manager.OverAfter = cfg.RoomOverTimeout
	s.Manager.Configure = s.configureRoom
	return s
}

// configureRoom attaches the transport and persistence callbacks to a room.
// The broadcast callbacks run with the room lock held, so they only queue the
// event on each connection's outbox; a single writer goroutine per connection
// drains its outbox, keeping events in emission order on the wire.
func (s *Server) configureRoom(r *game.Room) {
	r.BroadcastFn = func(ev game.Event) {
		outs := make([]chan []byte, 0, len(r.Players))
		for _, p := range r.Players {
			if p.Connected && p.Outbox != nil {
				outs = append(outs, p.Outbox)
			}
		}
		s.enqueue(outs, ev)
	}
	r.BroadcastToPlayerFn = func(playerID uuid.UUID, ev game.Event) {
		p := r.Players[playerID]
		if p == nil || !p.Connected || p.Outbox == nil {
			return
		}
		s.enqueue([]chan []byte{p.Outbox}, ev)
	}
	r.OnAction = s.historian.PublishGameAction
	r.OnGameEnd = func(roomID uuid.UUID, winners []uuid.UUID, standings []game.FinalStanding, stats map[uuid.UUID]models.UserStats) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.store.RecordGameEnd(ctx, roomID, winners, stats); err != nil {
			s.log.WithError(err).WithField("room", roomID).Error("failed to persist game result")
		}
	}
}

// enqueue serializes the event once and queues it on each target outbox.
// Queueing never blocks the room: a full outbox drops the event for that
// connection, which resynchronizes on its next snapshot.
func (s *Server) enqueue(outs []chan []byte, ev game.Event) {
	if len(outs) == 0 {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		s.log.WithError(err).Error("failed to marshal event")
		return
	}
	for _, out := range outs {
		select {
		case out <- data:
		default:
			s.log.Warn("outbox full, dropping event")
		}
	}
}

// writeLoop is a connection's only writer. It exits when the outbox closes;
// after a failed write it closes the socket and keeps draining so queued
// sends are never stranded.
func (s *Server) writeLoop(conn *websocket.Conn, out <-chan []byte) {
	for data := range out {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			conn.Close(websocket.StatusPolicyViolation, "write failed")
			for range out {
			}
			return
		}
	}
}

// Routes returns the HTTP mux: REST endpoints plus the websocket entry.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/guest", s.handleGuest)
	mux.HandleFunc("GET /rooms", s.handleListRooms)
	mux.HandleFunc("POST /rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /rooms/{id}/history", s.handleRoomHistory)
	mux.HandleFunc("GET /users/{id}/stats", s.handleUserStats)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// handleWS upgrades the connection, authenticates it and runs the read loop.
// Query params: token (session), room (id), spectate, accessCode, code.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	claims, err := s.auth.VerifyToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	roomID, err := uuid.Parse(r.URL.Query().Get("room"))
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{s.cfg.CORSOrigin},
	})
	if err != nil {
		s.log.WithError(err).Warn("websocket accept failed")
		return
	}

	room, attached := s.attachSession(claims, roomID, conn, r)
	if !attached {
		conn.Close(websocket.StatusPolicyViolation, "join refused")
		return
	}
	s.readLoop(r.Context(), room, claims.UserID, conn)
}

// attachSession joins or rejoins the authenticated player to the room and
// starts the connection's writer.
func (s *Server) attachSession(claims *auth.Claims, roomID uuid.UUID, conn *websocket.Conn, r *http.Request) (*game.Room, bool) {
	outbox := make(chan []byte, outboxSize)

	// Rejoin path: a known session in this room reattaches in place.
	if room, ok := s.Manager.RoomForPlayer(claims.UserID); ok && room.ID == roomID {
		if err := room.Rejoin(claims.UserID, conn, outbox); err == nil {
			go s.writeLoop(conn, outbox)
			return room, true
		}
	}

	q := r.URL.Query()
	p := &models.Player{
		ID:     claims.UserID,
		Name:   claims.Name,
		Conn:   conn,
		Outbox: outbox,
	}
	if name := q.Get("name"); name != "" {
		p.Name = name
	}
	spectate := q.Get("spectate") == "true"
	code := q.Get("accessCode")
	if code == "" {
		code = q.Get("code")
	}
	if err := s.Manager.JoinRoom(roomID, p, spectate, code); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"player": claims.UserID, "room": roomID}).Info("join refused")
		return nil, false
	}
	go s.writeLoop(conn, outbox)
	room, _ := s.Manager.GetRoom(roomID)
	return room, room != nil
}

// readLoop decodes inbound actions until the socket drops.
func (s *Server) readLoop(ctx context.Context, room *game.Room, playerID uuid.UUID, conn *websocket.Conn) {
	limiterPrefix := playerID.String() + ":"
	defer func() {
		s.limiter.Forget(limiterPrefix)
		room.HandleDisconnect(playerID)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var a game.Action
		if err := json.Unmarshal(data, &a); err != nil {
			continue
		}
		if !s.limiter.Allow(limiterPrefix + a.Type) {
			s.log.WithFields(logrus.Fields{"player": playerID, "action": a.Type}).Warn("rate limited")
			continue
		}
		room.HandleAction(playerID, a)
		if a.Type == game.ActionLeaveRoom {
			s.Manager.ForgetPlayer(playerID)
			return
		}
	}
}
