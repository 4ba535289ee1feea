// Package api serves the admin HTTP API used to inspect and kick sessions.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/sessiond/internal/logger"
	"github.com/marmos91/sessiond/pkg/api/auth"
	"github.com/marmos91/sessiond/pkg/api/handlers"
	"github.com/marmos91/sessiond/pkg/journal"
)

// Server is the admin HTTP server.
type Server struct {
	server       *http.Server
	listener     net.Listener
	config       APIConfig
	shutdownOnce sync.Once
}

// NewServer binds the configured address and returns a server ready for
// Start. history may be nil.
func NewServer(config APIConfig, backend handlers.Backend, history journal.Store) (*Server, error) {
	config.ApplyDefaults()

	ln, err := net.Listen("tcp", config.ListenAddress())
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", config.ListenAddress(), err)
	}

	s, err := newServer(config, ln, backend, history)
	if err != nil {
		_ = ln.Close()
		return nil, err
	}
	return s, nil
}

func newServer(config APIConfig, ln net.Listener, backend handlers.Backend, history journal.Store) (*Server, error) {
	var jwtService *auth.JWTService
	if secret := config.GetSecret(); secret != "" {
		svc, err := auth.NewJWTService(auth.JWTConfig{Secret: secret, TokenDuration: config.TokenDuration})
		if err != nil {
			return nil, fmt.Errorf("failed to create JWT service: %w", err)
		}
		jwtService = svc
	} else {
		logger.Warn("API authentication disabled; set api.secret or " + EnvAPISecret)
	}

	return &Server{
		server: &http.Server{
			Handler:      NewRouter(backend, history, jwtService),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		listener: ln,
		config:   config,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Start serves requests until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", logger.KeyAddress, s.Addr().String())
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop shuts the server down. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		logger.Debug("API server shutting down")
		if err = s.server.Shutdown(ctx); err != nil {
			logger.Error("API server shutdown error", logger.Err(err))
			return
		}
		logger.Info("API server stopped")
	})
	return err
}
