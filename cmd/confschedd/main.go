package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"conference-schedule-backend/config"
	"conference-schedule-backend/internal/api"
	"conference-schedule-backend/internal/db"
	"conference-schedule-backend/internal/notification"
	"conference-schedule-backend/internal/roster"
	"conference-schedule-backend/internal/schedule"
	"conference-schedule-backend/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load configuration")
	}
	log.Info().Str("path", configPath).Msg("configuration loaded")

	if cfg.Admin.Token == "" {
		log.Fatal().Msg("admin.token must be configured; admin routes cannot be exposed unguarded")
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}

	appStore := store.NewGormStore(gormDB)
	log.Info().Msg("data store initialized")

	// Pick the email transport: SMTP when configured, log-only otherwise.
	var sender notification.Sender
	if cfg.Email.Host != "" {
		sender = &notification.SMTPSender{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		}
	} else {
		log.Warn().Msg("email.host not configured; using log-only sender")
		sender = &notification.LogSender{}
	}

	audit := store.NewNotificationAudit(appStore)
	fanout := notification.NewFanout(appStore, appStore, sender, audit, cfg.Notification.Workers)
	scheduleSvc := schedule.NewService(appStore, appStore, appStore)

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Mirror the upstream roster in the background when enabled.
	rosterSvc := roster.NewService(cfg.RosterSync, appStore)
	go rosterSvc.Run(ctx)

	gate := &api.StaticTokenGate{Token: cfg.Admin.Token}
	handler := api.NewHandler(scheduleSvc, fanout, gate)
	router := api.NewRouter(handler, cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server ListenAndServe")
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	log.Info().Msg("shutdown signal received, stopping services")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("server gracefully stopped")
}
