// Package server exposes the generator over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	cvgen "github.com/alnah/go-cvgen"
)

// Defaults applied when Config leaves a field zero.
const (
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxUploadBytes  = cvgen.MaxImageBytes
	readHeaderTimeout      = 10 * time.Second
)

// Config configures the HTTP surface.
type Config struct {
	// Addr is the listen address, e.g. ":4002".
	Addr string
	// Dirs locates person data, output and templates for every request.
	Dirs cvgen.Dirs
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
	// MaxUploadBytes caps /upload-picture file size.
	MaxUploadBytes int64
}

// Server serves generation, person scaffolding and picture uploads.
type Server struct {
	cfg      Config
	gen      *cvgen.Generator
	persons  *cvgen.PersonStore
	pool     *cvgen.JobPool
	gatherer prometheus.Gatherer
	log      *zap.Logger
}

// Deps are the collaborators a Server drives.
type Deps struct {
	Generator *cvgen.Generator
	Persons   *cvgen.PersonStore
	Pool      *cvgen.JobPool
	// Gatherer backs /metrics. Nil uses prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// New builds a Server. Generator and Persons are required.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Generator == nil || deps.Persons == nil {
		return nil, errors.New("server: generator and person store are required")
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if deps.Pool == nil {
		deps.Pool = cvgen.NewJobPool(cvgen.ResolvePoolSize(0))
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		gen:      deps.Generator,
		persons:  deps.Persons,
		pool:     deps.Pool,
		gatherer: deps.Gatherer,
		log:      deps.Logger,
	}, nil
}

// Run listens on cfg.Addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
// A clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.log.Info("server starting",
			zap.String("addr", ln.Addr().String()),
			zap.Int("workers", s.pool.Size()))
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.log.Info("starting graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("graceful shutdown failed, forcing close", zap.Error(err))
			if closeErr := srv.Close(); closeErr != nil {
				return fmt.Errorf("could not stop server: shutdown error: %v, close error: %v", err, closeErr)
			}
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}

		s.log.Info("server stopped cleanly")
		return nil
	}
}
