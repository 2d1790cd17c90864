package engine

// CardsPerRound is the fixed hand size for each of the five rounds.
var CardsPerRound = [NumRounds]uint8{5, 4, 3, 2, 1}

// Config holds configurable game rule settings.
type Config struct {
	StartingLives int8  // lives each seat begins with; 0 treated as 5
	MinPlayers    uint8 // minimum seats to start; 0 treated as 2
	MaxPlayers    uint8 // maximum seats; 0 treated as 8
}

// DefaultConfig returns the standard Presina rules.
func DefaultConfig() Config {
	return Config{
		StartingLives: 5,
		MinPlayers:    2,
		MaxPlayers:    8,
	}
}

func (c *Config) startingLives() int8 {
	if c.StartingLives == 0 {
		return 5
	}
	return c.StartingLives
}

func (c *Config) minPlayers() uint8 {
	if c.MinPlayers == 0 {
		return 2
	}
	return c.MinPlayers
}

func (c *Config) maxPlayers() uint8 {
	if c.MaxPlayers == 0 || c.MaxPlayers > MaxSeats {
		return MaxSeats
	}
	return c.MaxPlayers
}
