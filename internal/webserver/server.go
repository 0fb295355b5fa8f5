// Package webserver serves the run registry over HTTP.
package webserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/kaveh8866/SemantIQ/internal/registry"
	"github.com/kaveh8866/SemantIQ/internal/runstore"
	"github.com/kaveh8866/SemantIQ/internal/webapi"
)

const DefaultPort = 3000

// Config holds the HTTP server configuration.
type Config struct {
	Host           string
	Port           int
	RunsDir        string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server wraps the HTTP server with configuration.
type Server struct {
	cfg    Config
	srv    *http.Server
	store  *webapi.RegistryStore
	logger *slog.Logger
}

// New creates a new HTTP server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.RunsDir == "" {
		return nil, errors.New("runs directory is required")
	}

	reg := registry.New(runstore.New(cfg.RunsDir), registry.WithLogger(cfg.Logger))
	store := webapi.NewRegistryStore(reg)

	mux := http.NewServeMux()
	webapi.RegisterRoutes(mux, store)

	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: cfg.Logger,
		srv: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler:           webapi.CORSMiddleware(mux, cfg.AllowedOrigins...),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	return s, nil
}

// ListenAndServe rebuilds the run index and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.store.Reload(); err != nil {
		return fmt.Errorf("building run index: %w", err)
	}

	s.logger.Info("HTTP server starting", "address", s.srv.Addr, "runs", s.cfg.RunsDir)

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", "error", err)
		}
	}()

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Handler returns the underlying http.Handler (useful for testing).
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Reload rebuilds the run index from disk.
func (s *Server) Reload() error {
	return s.store.Reload()
}
