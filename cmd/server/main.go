// Command server runs the multi-tenant chat presence and broadcast service.
package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/modulys/pax-chat/internal/api"
	"github.com/modulys/pax-chat/internal/auth"
	"github.com/modulys/pax-chat/internal/config"
	"github.com/modulys/pax-chat/internal/presence"
	"github.com/modulys/pax-chat/internal/server"
	"github.com/modulys/pax-chat/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running server: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	displayAppName("pax-chat")
	logger.Info().Msg("Initializing chat service...")

	verifier := auth.NewVerifier(cfg.JWTSecret)
	registry := presence.NewRegistry()
	hub := server.NewHub(registry, logger)
	go hub.Run()

	var (
		channels  api.ChannelStore
		messages  api.MessageStore
		employees api.EmployeeStore
	)
	if cfg.DatabaseURL != "" {
		if err := store.Migrate(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("store migrate: %w", err)
		}
		db, err := store.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("store open: %w", err)
		}
		defer func() { _ = db.Close() }()
		channels = store.NewChannelStore(db)
		messages = store.NewMessageStore(db)
		employees = store.NewEmployeeStore(db)
	} else {
		logger.Warn().Msg("DATABASE_URL not set; running presence/broadcast only")
	}

	apiHandler := api.NewHandler(channels, messages, employees, registry, hub, logger)

	wsHandler := server.NewWebSocketHandler(hub, verifier, server.WebSocketOptions{
		AllowedOrigins: cfg.AllowedOriginList(),
		MaxMessageSize: cfg.MaxMessageSize,
		RateBurst:      cfg.RateLimitBurst,
		RateRefill:     cfg.RefillInterval(),
	}, logger)

	mux := server.SetupRoutes(wsHandler, apiHandler.Routes())
	httpServer := server.CreateServer(cfg.HTTPAddr, mux)

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("HTTP server stopped unexpectedly")
		}
	}()

	waitForStopSignal()

	grace := cfg.ShutdownGrace()
	if err := server.ShutdownServer(httpServer, grace, logger); err != nil {
		logger.Warn().Err(err).Msg("HTTP shutdown incomplete")
	}
	if err := hub.Shutdown(grace); err != nil {
		logger.Warn().Err(err).Msg("Hub shutdown incomplete")
	}

	logger.Info().Msg("Server stopped")
	return nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func displayAppName(name string) {
	figure.NewFigure(name, "cybermedium", true).Print()
	fmt.Println()
}
