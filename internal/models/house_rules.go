package models

// HouseRules captures a room's game-time configuration: timeouts,
// disconnection policy and admission policy.
type HouseRules struct {
	// StartingLives each seat begins with (0 => default 5).
	StartingLives int `json:"startingLives"`

	// MaxPlayers caps seated players (0 => engine maximum).
	MaxPlayers int `json:"maxPlayers"`

	// PlayTimeoutSec is how many seconds a player on turn has before the
	// room auto-plays for them (0 => no limit).
	PlayTimeoutSec int `json:"playTimeoutSec"`

	// TrickDisplaySec is how long the completed trick stays on the table
	// before the next trick starts.
	TrickDisplaySec int `json:"trickDisplaySec"`

	// AutoPlayDisconnected advances a disconnected player's turn
	// immediately instead of waiting out the play timeout.
	AutoPlayDisconnected bool `json:"autoPlayDisconnected"`

	// AllowMidGameJoin admits joiners during a running game as pending
	// players, promoted at the next round boundary.
	AllowMidGameJoin bool `json:"allowMidGameJoin"`
}

// DefaultHouseRules returns the standard room configuration.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		StartingLives:        5,
		MaxPlayers:           8,
		PlayTimeoutSec:       20,
		TrickDisplaySec:      3,
		AutoPlayDisconnected: true,
		AllowMidGameJoin:     true,
	}
}
