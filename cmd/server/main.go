package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/nklyy/chats/internal/adapters/http"
	"github.com/nklyy/chats/internal/app"
	"github.com/nklyy/chats/internal/chat"
	"github.com/nklyy/chats/internal/config"
	"github.com/nklyy/chats/internal/health"
	"github.com/nklyy/chats/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Get(".")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Environment == "development" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Redis is deployment plumbing; the hub runs fine without it.
	redisClient, err := storage.NewRedisClient(ctx, cfg.RedisHost, cfg.RedisPortChat)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, readiness will report degraded")
	} else {
		log.Info().Msg("redis(chat) connected")
	}

	hub := app.NewHub()
	chatCtl := chat.NewController(hub, chat.Options{
		PingInterval:  cfg.PingInterval,
		ClientTimeout: cfg.ClientTimeout,
	})
	healthHandler := health.NewHandler(hub, redisClient)

	r := router.SetupRouter(cfg, chatCtl, healthHandler)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("chat server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited gracefully")
}
