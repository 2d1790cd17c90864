package database

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	username      TEXT UNIQUE NOT NULL,
	email         TEXT,
	password_hash TEXT,
	is_guest      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS user_stats (
	user_id      UUID PRIMARY KEY,
	games_played INTEGER NOT NULL DEFAULT 0,
	games_won    INTEGER NOT NULL DEFAULT 0,
	bets_correct INTEGER NOT NULL DEFAULT 0,
	bets_wrong   INTEGER NOT NULL DEFAULT 0,
	tricks_won   INTEGER NOT NULL DEFAULT 0,
	lives_lost   INTEGER NOT NULL DEFAULT 0,
	win_streak   INTEGER NOT NULL DEFAULT 0,
	best_streak  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS game_history (
	id           UUID PRIMARY KEY,
	room_id      UUID NOT NULL,
	user_id      UUID NOT NULL,
	won          BOOLEAN NOT NULL,
	bets_correct INTEGER NOT NULL,
	bets_wrong   INTEGER NOT NULL,
	tricks_won   INTEGER NOT NULL,
	lives_lost   INTEGER NOT NULL,
	finished_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS game_history_user_idx ON game_history (user_id, finished_at DESC);
`

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
