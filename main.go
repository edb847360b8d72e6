package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/MushroomFleet/wingman-support/game"
	"github.com/MushroomFleet/wingman-support/server"
)

//go:embed static/*
var staticFiles embed.FS

func main() {
	port := flag.String("port", "8080", "Server port")
	configPath := flag.String("config", "wingman.yaml", "Ability tuning file")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := game.LoadConfig(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
		}
		log.Warn().Str("path", *configPath).Msg("config file not found, using defaults")
		cfg = game.DefaultConfig()
	}

	log.Info().Str("port", *port).Msg("starting wingman support server")

	gameServer := server.NewServer(cfg, log)
	go gameServer.Run()

	// Reload tuning on edits to the config file.
	go func() {
		if err := gameServer.WatchConfig(*configPath); err != nil {
			log.Warn().Err(err).Msg("config watcher unavailable")
		}
	}()

	// Serve the viewer from the embedded static subdirectory
	fsys, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatal().Err(err).Msg("embedded static files missing")
	}
	http.Handle("/", http.FileServer(http.FS(fsys)))

	// WebSocket endpoint
	http.HandleFunc("/ws", gameServer.HandleWebSocket)

	// Ability state endpoint
	http.HandleFunc("/api/status", gameServer.HandleStatus)

	// Health check endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:         ":" + *port,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Msgf("server running at http://localhost:%s", *port)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for shutdown signal from OS
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Stop the game loop before taking down the HTTP server
	gameServer.Shutdown()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
}
