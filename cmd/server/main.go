package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NizarSH98/OD-SaaS/internal/annotation"
	"github.com/NizarSH98/OD-SaaS/internal/api"
	"github.com/NizarSH98/OD-SaaS/internal/auth"
	"github.com/NizarSH98/OD-SaaS/internal/config"
	"github.com/NizarSH98/OD-SaaS/internal/db"
	"github.com/NizarSH98/OD-SaaS/internal/export"
	"github.com/NizarSH98/OD-SaaS/internal/logging"
	"github.com/NizarSH98/OD-SaaS/internal/project"
	"github.com/NizarSH98/OD-SaaS/internal/storage"
	"github.com/NizarSH98/OD-SaaS/internal/video"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for _, dir := range []string{cfg.DataDir, cfg.UploadsDir(), cfg.FramesDir(), cfg.DatasetsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	logger := logging.NewLogger(cfg.LogLevel)
	logger.Info("starting visionlabel server",
		"version", config.Version,
		"commit", config.GitCommit,
		"data_dir", cfg.DataDir,
	)

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	authSvc := auth.NewService(auth.NewRepository(database.Conn()), logger)
	if err := authSvc.EnsureDemoUser(context.Background()); err != nil {
		return fmt.Errorf("failed to ensure demo user: %w", err)
	}

	uploads, err := storage.NewLocalStorage(cfg.UploadsDir())
	if err != nil {
		return fmt.Errorf("failed to initialize upload storage: %w", err)
	}

	extractor, err := video.NewExtractor(cfg.FFmpegPath, cfg.FFprobePath, cfg.FramesDir(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize frame extractor: %w", err)
	}

	annotations := annotation.NewStore(cfg.DatasetsDir(), logger)
	projects := project.NewStore(cfg.DatasetsDir(), logger)
	exporter := export.NewEngine(annotations, cfg.DatasetsDir(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// expired sessions are swept hourly
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := authSvc.PurgeExpiredSessions(ctx); err != nil {
					logger.Warn("session purge failed", "error", err)
				}
			}
		}
	}()

	apiServer := api.NewServer(api.ServerConfig{
		Config:      cfg,
		Auth:        authSvc,
		Annotations: annotations,
		Projects:    projects,
		Exporter:    exporter,
		Extractor:   extractor,
		Uploads:     uploads,
		Logger:      logger,
		StartTime:   startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
