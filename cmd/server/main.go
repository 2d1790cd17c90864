package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/presina-online/presina/internal/auth"
	"github.com/presina-online/presina/internal/cache"
	"github.com/presina-online/presina/internal/config"
	"github.com/presina-online/presina/internal/database"
	"github.com/presina-online/presina/internal/server"
)

func main() {
	cfg := config.Load()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		logrus.WithError(err).Fatal("schema setup failed")
	}
	if !store.Enabled() {
		logrus.Warn("no DATABASE_URL set, running without persistence")
	}

	historian := cache.NewHistorian(cfg.RedisAddr, cfg.RedisDB)
	defer historian.Close()
	if err := historian.Ping(ctx); err != nil {
		logrus.WithError(err).Fatal("redis connection failed")
	}

	srv := server.New(cfg, auth.NewService(cfg.JWTSecret), store, historian)
	go srv.Manager.CleanupLoop(ctx)

	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Routes(),
	}
	go func() {
		logrus.WithField("addr", cfg.ListenAddr).Info("listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("http server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("shutdown incomplete")
	}
}
