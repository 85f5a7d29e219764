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

	"github.com/spf13/cobra"

	"github.com/meetpulse/backend/internal/artifact"
	"github.com/meetpulse/backend/internal/auth"
	"github.com/meetpulse/backend/internal/config"
	"github.com/meetpulse/backend/internal/logging"
	"github.com/meetpulse/backend/internal/metrics"
	"github.com/meetpulse/backend/internal/server"
	"github.com/meetpulse/backend/internal/signaling"
	"github.com/meetpulse/backend/internal/storage"
	"github.com/meetpulse/backend/internal/transcription"
	"github.com/meetpulse/backend/internal/version"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "meetpulse-server",
	Short:   "Signaling and transcription backend for MeetPulse video meetings",
	Long:    `meetpulse-server coordinates multi-party video-meeting sessions over a websocket signaling channel and turns recorded meeting audio into AI-generated transcripts and summaries.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceUsage = true
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel, cfg.LogJSON)
	m := metrics.New()

	artifacts, err := artifact.NewStore(cfg.UploadsDir)
	if err != nil {
		return err
	}

	var store storage.Store
	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		store = pg
		log.Info().Msg("using postgres store")
	} else {
		store = storage.NewMemoryStore()
		log.Warn().Msg("no database_url configured, records are held in memory only")
	}

	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required (set MEETPULSE_JWT_SECRET)")
	}
	if cfg.Speech.APIKey == "" {
		return fmt.Errorf("speech api key is required (set MEETPULSE_ASSEMBLYAI_API_KEY)")
	}

	pipeline := transcription.NewPipeline(
		transcription.NewAssemblyAI(cfg.Speech.APIKey, cfg.Speech.BaseURL),
		artifacts,
		store,
		cfg.Speech.MaxUploadBytes,
		cfg.Speech.PollInterval,
		transcription.Schedule{
			MaxAttempts: cfg.Speech.MaxAttempts,
			BaseDelay:   cfg.Speech.RetryBaseDelay,
		},
		log,
		m,
	)

	hub := signaling.NewHub(log, m)
	go hub.Run()

	authSvc := auth.NewService(store, cfg.JWTSecret, cfg.TokenTTL)
	srv := server.New(hub, pipeline, store, authSvc, m, cfg.UploadsDir, cfg.AllowedOrigins, log)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}
