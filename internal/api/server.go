package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/NizarSH98/OD-SaaS/internal/annotation"
	"github.com/NizarSH98/OD-SaaS/internal/auth"
	"github.com/NizarSH98/OD-SaaS/internal/config"
	"github.com/NizarSH98/OD-SaaS/internal/export"
	"github.com/NizarSH98/OD-SaaS/internal/project"
	"github.com/NizarSH98/OD-SaaS/internal/storage"
	"github.com/NizarSH98/OD-SaaS/internal/video"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Config      *config.Config
	Auth        *auth.Service
	Annotations *annotation.Store
	Projects    *project.Store
	Exporter    *export.Engine
	Extractor   *video.Extractor
	Uploads     *storage.LocalStorage
	Logger      *slog.Logger
	StartTime   time.Time
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
