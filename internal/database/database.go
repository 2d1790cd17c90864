// Package database persists users, per-user stats and game history with
// pgx. The pool may be nil (no DATABASE_URL), in which case every write is a
// no-op so the server can run memory-only.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/presina-online/presina/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// Store wraps the connection pool.
type Store struct {
	pool *pgxpool.Pool
	log  *logrus.Entry
}

// Connect opens the pool and verifies connectivity. An empty URL returns a
// disabled store.
func Connect(ctx context.Context, url string) (*Store, error) {
	s := &Store{log: logrus.WithField("component", "database")}
	if url == "" {
		return s, nil
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	s.pool = pool
	return s, nil
}

// Enabled reports whether a real database is attached.
func (s *Store) Enabled() bool { return s.pool != nil }

// Close releases the pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// CreateUser inserts a user row.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if s.pool == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, is_guest, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.IsGuest, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// GetUserByUsername fetches a registered user for login.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if s.pool == nil {
		return nil, ErrUserNotFound
	}
	u := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, email, password_hash, is_guest, created_at
		FROM users WHERE username = $1`, username).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsGuest, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// GetUserStats fetches a user's lifetime aggregates.
func (s *Store) GetUserStats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	if s.pool == nil {
		return &models.UserStats{UserID: userID}, nil
	}
	st := &models.UserStats{UserID: userID}
	err := s.pool.QueryRow(ctx, `
		SELECT games_played, games_won, bets_correct, bets_wrong,
		       tricks_won, lives_lost, win_streak, best_streak
		FROM user_stats WHERE user_id = $1`, userID).
		Scan(&st.GamesPlayed, &st.GamesWon, &st.BetsCorrect, &st.BetsWrong,
			&st.TricksWon, &st.LivesLost, &st.WinStreak, &st.BestStreak)
	if errors.Is(err, pgx.ErrNoRows) {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	return st, nil
}

// RecordGameEnd writes the game history row and folds each participant's
// per-game numbers into their aggregates. Invoked from the room's
// end-of-game hook.
func (s *Store) RecordGameEnd(ctx context.Context, roomID uuid.UUID, winners []uuid.UUID, stats map[uuid.UUID]models.UserStats) error {
	if s.pool == nil {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	winnerSet := make(map[uuid.UUID]bool, len(winners))
	for _, w := range winners {
		winnerSet[w] = true
	}

	for userID, st := range stats {
		won := winnerSet[userID]
		_, err := tx.Exec(ctx, `
			INSERT INTO game_history (id, room_id, user_id, won, bets_correct, bets_wrong,
			                          tricks_won, lives_lost, finished_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.New(), roomID, userID, won, st.BetsCorrect, st.BetsWrong,
			st.TricksWon, st.LivesLost, time.Now())
		if err != nil {
			return fmt.Errorf("inserting history row: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO user_stats (user_id, games_played, games_won, bets_correct, bets_wrong,
			                        tricks_won, lives_lost, win_streak, best_streak)
			VALUES ($1, 1, $2, $3, $4, $5, $6, $7, $7)
			ON CONFLICT (user_id) DO UPDATE SET
				games_played = user_stats.games_played + 1,
				games_won    = user_stats.games_won + EXCLUDED.games_won,
				bets_correct = user_stats.bets_correct + EXCLUDED.bets_correct,
				bets_wrong   = user_stats.bets_wrong + EXCLUDED.bets_wrong,
				tricks_won   = user_stats.tricks_won + EXCLUDED.tricks_won,
				lives_lost   = user_stats.lives_lost + EXCLUDED.lives_lost,
				win_streak   = CASE WHEN EXCLUDED.games_won > 0 THEN user_stats.win_streak + 1 ELSE 0 END,
				best_streak  = GREATEST(user_stats.best_streak,
					CASE WHEN EXCLUDED.games_won > 0 THEN user_stats.win_streak + 1 ELSE user_stats.best_streak END)`,
			userID, boolToInt(won), st.BetsCorrect, st.BetsWrong,
			st.TricksWon, st.LivesLost, boolToInt(won))
		if err != nil {
			return fmt.Errorf("updating stats: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	s.log.WithFields(logrus.Fields{"room": roomID, "players": len(stats)}).Info("game result persisted")
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
