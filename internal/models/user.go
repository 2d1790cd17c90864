package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a persisted identity. Guests get a throwaway row with IsGuest set;
// registered users carry a bcrypt password hash.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	IsGuest      bool      `json:"isGuest"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserStats aggregates a user's lifetime results.
type UserStats struct {
	UserID      uuid.UUID `json:"userId"`
	GamesPlayed int       `json:"gamesPlayed"`
	GamesWon    int       `json:"gamesWon"`
	BetsCorrect int       `json:"betsCorrect"`
	BetsWrong   int       `json:"betsWrong"`
	TricksWon   int       `json:"tricksWon"`
	LivesLost   int       `json:"livesLost"`
	WinStreak   int       `json:"winStreak"`
	BestStreak  int       `json:"bestStreak"`
}
