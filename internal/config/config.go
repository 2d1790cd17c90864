// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds every tunable the server reads at startup.
type Config struct {
	ListenAddr  string
	DatabaseURL string
	RedisAddr   string
	RedisDB     int
	JWTSecret   string
	CORSOrigin  string

	RoomIdleTimeout time.Duration
	RoomOverTimeout time.Duration

	PlayTimeoutSec  int
	TrickDisplaySec int

	LogLevel string
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file loaded")
	}
	return Config{
		ListenAddr:      envStr("LISTEN_ADDR", ":8080"),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		RedisAddr:       envStr("REDIS_ADDR", ""),
		RedisDB:         envInt("REDIS_DB", 0),
		JWTSecret:       envStr("JWT_SECRET", ""),
		CORSOrigin:      envStr("CORS_ORIGIN", "*"),
		RoomIdleTimeout: envDuration("ROOM_IDLE_TIMEOUT", 24*time.Hour),
		RoomOverTimeout: envDuration("ROOM_OVER_TIMEOUT", 30*time.Minute),
		PlayTimeoutSec:  envInt("PLAY_TIMEOUT_SEC", 20),
		TrickDisplaySec: envInt("TRICK_DISPLAY_SEC", 3),
		LogLevel:        envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithField("key", key).Warn("invalid integer in environment, using default")
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.WithField("key", key).Warn("invalid duration in environment, using default")
		return def
	}
	return d
}
