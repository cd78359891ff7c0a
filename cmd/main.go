package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dictation-turn-service/internal/app"
	"dictation-turn-service/internal/config"
	httpapi "dictation-turn-service/internal/http"
	"dictation-turn-service/internal/observability"
	"dictation-turn-service/internal/observability/logging"
)

func main() {
	cfg := config.Load()

	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})
	log := logging.WithComponent("main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("building application")
	}

	// Live feed hub for websocket subscribers
	hub := httpapi.NewHub()
	go hub.Run(ctx)
	application.SetBroadcast(hub.Broadcast)

	// Metrics and health endpoints on a separate port
	obsServer := observability.NewServer(":"+cfg.Observability.MetricsPort, application.Ready)
	obsServer.Start()

	apiServer := &http.Server{
		Addr:         ":" + cfg.Service.HTTPPort,
		Handler:      httpapi.NewRouter(application, hub),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", apiServer.Addr).Msg("dictation turn service listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("api server failed")
		}
	}()

	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("starting application")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("api server shutdown")
	}
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("observability server shutdown")
	}
	application.Shutdown()
}
