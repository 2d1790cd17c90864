package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/presina-online/presina/internal/auth"
	"github.com/presina-online/presina/internal/database"
	"github.com/presina-online/presina/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token  string    `json:"token"`
	UserID uuid.UUID `json:"userId"`
	Name   string    `json:"name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	c.Username = strings.TrimSpace(c.Username)
	if c.Username == "" || len(c.Password) < 8 {
		writeError(w, http.StatusBadRequest, "username and a password of at least 8 characters required")
		return
	}
	hash, err := auth.HashPassword(c.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "hashing failed")
		return
	}
	u := &models.User{
		ID:           uuid.New(),
		Username:     c.Username,
		Email:        c.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := s.store.CreateUser(r.Context(), u); err != nil {
		writeError(w, http.StatusConflict, "username unavailable")
		return
	}
	token, err := s.auth.IssueToken(u.ID, u.Username, false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, UserID: u.ID, Name: u.Username})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	u, err := s.store.GetUserByUsername(r.Context(), strings.TrimSpace(c.Username))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := auth.CheckPassword(u.PasswordHash, c.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := s.auth.IssueToken(u.ID, u.Username, false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, UserID: u.ID, Name: u.Username})
}

func (s *Server) handleGuest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	id, token, err := s.auth.IssueGuestToken(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, UserID: id, Name: name})
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Manager.ListPublic())
}

type createRoomRequest struct {
	Name       string           `json:"name"`
	Private    bool             `json:"private"`
	HouseRules *houseRulesPatch `json:"houseRules,omitempty"`
}

// houseRulesPatch overrides only the fields the client actually sent; absent
// fields keep the server defaults.
type houseRulesPatch struct {
	StartingLives        *int  `json:"startingLives"`
	MaxPlayers           *int  `json:"maxPlayers"`
	PlayTimeoutSec       *int  `json:"playTimeoutSec"`
	TrickDisplaySec      *int  `json:"trickDisplaySec"`
	AutoPlayDisconnected *bool `json:"autoPlayDisconnected"`
	AllowMidGameJoin     *bool `json:"allowMidGameJoin"`
}

func (p *houseRulesPatch) apply(rules *models.HouseRules) {
	if p.StartingLives != nil {
		rules.StartingLives = *p.StartingLives
	}
	if p.MaxPlayers != nil {
		rules.MaxPlayers = *p.MaxPlayers
	}
	if p.PlayTimeoutSec != nil {
		rules.PlayTimeoutSec = *p.PlayTimeoutSec
	}
	if p.TrickDisplaySec != nil {
		rules.TrickDisplaySec = *p.TrickDisplaySec
	}
	if p.AutoPlayDisconnected != nil {
		rules.AutoPlayDisconnected = *p.AutoPlayDisconnected
	}
	if p.AllowMidGameJoin != nil {
		rules.AllowMidGameJoin = *p.AllowMidGameJoin
	}
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if _, err := s.auth.VerifyToken(bearerToken(r)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "room name required")
		return
	}
	rules := models.DefaultHouseRules()
	rules.PlayTimeoutSec = s.cfg.PlayTimeoutSec
	rules.TrickDisplaySec = s.cfg.TrickDisplaySec
	if req.HouseRules != nil {
		req.HouseRules.apply(&rules)
	}
	room := s.Manager.CreateRoom(req.Name, rules, req.Private)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         room.ID,
		"name":       room.Name,
		"accessCode": room.AccessCode,
	})
}

func (s *Server) handleRoomHistory(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}
	actions, err := s.historian.Actions(r.Context(), roomID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, actions)
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	stats, err := s.store.GetUserStats(r.Context(), userID)
	if err != nil {
		if err == database.ErrUserNotFound {
			writeError(w, http.StatusNotFound, "unknown user")
			return
		}
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
