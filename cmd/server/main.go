package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/chillflicks/chillflicks/internal/adapters/http"
	signalws "github.com/chillflicks/chillflicks/internal/adapters/signal"
	"github.com/chillflicks/chillflicks/internal/auth"
	"github.com/chillflicks/chillflicks/internal/config"
	"github.com/chillflicks/chillflicks/internal/core"
	"github.com/chillflicks/chillflicks/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := storage.Connect(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	if err := storage.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	store := storage.NewStore(db)
	authService := auth.NewService(store, cfg.JWTSecret)
	sessions := core.NewRegistry(store)
	ws := signalws.NewController(sessions, store, cfg)
	handlers := router.NewHandlers(authService, store, sessions)

	r := router.SetupRouter(cfg, handlers, authService, ws)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("chillflicks server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
