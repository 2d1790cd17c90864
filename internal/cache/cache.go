// Package cache publishes applied room actions to Redis for the historian.
// Publishing is fire-and-forget: a slow or absent Redis never blocks a room.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/presina-online/presina/internal/models"
)

const publishTimeout = 2 * time.Second

// actionLogTTL bounds how long a finished room's action log lingers.
const actionLogTTL = 48 * time.Hour

// Historian appends room actions to per-room Redis lists.
type Historian struct {
	rdb *redis.Client
	log *logrus.Entry
}

// NewHistorian connects a client. addr may be empty, yielding a disabled
// historian that drops every action.
func NewHistorian(addr string, db int) *Historian {
	h := &Historian{log: logrus.WithField("component", "historian")}
	if addr == "" {
		return h
	}
	h.rdb = redis.NewClient(&redis.Options{Addr: addr, DB: db})
	return h
}

// Ping verifies connectivity at startup.
func (h *Historian) Ping(ctx context.Context) error {
	if h.rdb == nil {
		return nil
	}
	return h.rdb.Ping(ctx).Err()
}

func actionKey(roomID uuid.UUID) string {
	return fmt.Sprintf("room:%s:actions", roomID)
}

// PublishGameAction appends one action to the room's log. Errors are logged
// and swallowed.
func (h *Historian) PublishGameAction(action models.GameAction) {
	if h.rdb == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		payload, err := json.Marshal(action)
		if err != nil {
			h.log.WithError(err).Warn("failed to marshal game action")
			return
		}
		key := actionKey(action.RoomID)
		pipe := h.rdb.Pipeline()
		pipe.RPush(ctx, key, payload)
		pipe.Expire(ctx, key, actionLogTTL)
		if _, err := pipe.Exec(ctx); err != nil {
			h.log.WithError(err).WithField("room", action.RoomID).Warn("failed to publish game action")
		}
	}()
}

// Actions returns a room's recorded action log, oldest first.
func (h *Historian) Actions(ctx context.Context, roomID uuid.UUID) ([]models.GameAction, error) {
	if h.rdb == nil {
		return nil, nil
	}
	raw, err := h.rdb.LRange(ctx, actionKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading action log: %w", err)
	}
	out := make([]models.GameAction, 0, len(raw))
	for _, item := range raw {
		var a models.GameAction
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Close releases the client.
func (h *Historian) Close() error {
	if h.rdb == nil {
		return nil
	}
	return h.rdb.Close()
}
