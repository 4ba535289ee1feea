// Package runtime assembles the TCP server, its session journal, metrics
// and admin API from configuration and runs them until shutdown.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/marmos91/sessiond/internal/logger"
	"github.com/marmos91/sessiond/pkg/api"
	"github.com/marmos91/sessiond/pkg/config"
	"github.com/marmos91/sessiond/pkg/journal"
	"github.com/marmos91/sessiond/pkg/metrics"
	"github.com/marmos91/sessiond/pkg/server"
	"github.com/marmos91/sessiond/pkg/session"
)

// Server is the concrete server type run by sessiond.
type Server = server.Server[*session.TCPSession]

// Runtime owns every long-lived component of a sessiond process.
type Runtime struct {
	cfg *config.Config

	server         *Server
	sessionMetrics *metrics.SessionMetrics
	metricsServer  *metrics.Server
	apiServer      *api.Server
	journal        journal.Store
	recorder       *journal.Recorder

	serveOnce sync.Once
}

// New builds a runtime from cfg. Listeners are bound here so address
// conflicts surface before Serve.
func New(cfg *config.Config) (*Runtime, error) {
	r := &Runtime{cfg: cfg}

	receiver, err := session.ReceiverFor(cfg.Session.Mode)
	if err != nil {
		return nil, err
	}

	var registry *prometheus.Registry
	if cfg.Metrics.Enabled {
		registry = metrics.NewRegistry()
		r.sessionMetrics = metrics.NewSessionMetrics(registry, cfg.Server.Name)
	}

	if cfg.Journal.Enabled {
		r.journal, err = journal.New(journal.Config{
			Type:     cfg.Journal.Type,
			Path:     cfg.Journal.Path,
			Capacity: cfg.Journal.Capacity,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open session journal: %w", err)
		}
		r.recorder = journal.NewRecorder(r.journal, cfg.Server.Name)
		if registry != nil {
			r.recorder.WithMetrics(metrics.NewJournalMetrics(registry, cfg.Server.Name))
		}
	}

	srvCfg := server.Config[*session.TCPSession]{
		Name: cfg.Server.Name,
		Factory: func(srv *Server, id uuid.UUID, conn net.Conn) *session.TCPSession {
			return session.New(srv, id, conn, session.Config{
				ReadBufferSize: cfg.Session.ReadBufferSize.Int(),
				IdleTimeout:    cfg.Session.IdleTimeout,
				WriteTimeout:   cfg.Session.WriteTimeout,
				OnReceived:     receiver,
			})
		},
		Hooks:        r.hooks(),
		ReuseAddress: cfg.Server.ReuseAddress,
		ReusePort:    cfg.Server.ReusePort,
		NoDelay:      cfg.Server.NoDelay,
	}
	if r.sessionMetrics != nil {
		srvCfg.Metrics = r.sessionMetrics
	}

	r.server, err = newServer(cfg.Server, srvCfg)
	if err != nil {
		r.closeJournal()
		return nil, err
	}

	if cfg.Metrics.Enabled {
		addr := net.JoinHostPort(cfg.Metrics.Address, strconv.Itoa(cfg.Metrics.Port))
		r.metricsServer, err = metrics.NewServer(addr, registry)
		if err != nil {
			r.closeAll()
			return nil, err
		}
	}

	if cfg.API.Enabled {
		r.apiServer, err = api.NewServer(cfg.API, api.NewServerBackend(r.server), r.journal)
		if err != nil {
			r.closeAll()
			return nil, fmt.Errorf("failed to create API server: %w", err)
		}
	}

	return r, nil
}

func newServer(cfg config.ServerConfig, srvCfg server.Config[*session.TCPSession]) (*Server, error) {
	if cfg.Address != "" {
		return server.NewWithAddress(cfg.Address, cfg.Port, srvCfg)
	}
	protocol, err := server.ParseInternetProtocol(cfg.Protocol)
	if err != nil {
		return nil, err
	}
	return server.New(protocol, cfg.Port, srvCfg)
}

func (r *Runtime) hooks() server.Hooks[*session.TCPSession] {
	return server.Hooks[*session.TCPSession]{
		OnConnected: func(s *session.TCPSession) {
			r.recorder.Record(journal.Event{
				Type:       journal.EventConnected,
				SessionID:  s.ID(),
				RemoteAddr: s.RemoteAddr().String(),
				Time:       s.ConnectedAt(),
			})
		},
		OnDisconnected: func(s *session.TCPSession) {
			r.sessionMetrics.ObserveSession(time.Since(s.ConnectedAt()), s.BytesReceived(), s.BytesSent())
			r.recorder.Record(journal.Event{
				Type:          journal.EventDisconnected,
				SessionID:     s.ID(),
				RemoteAddr:    s.RemoteAddr().String(),
				BytesReceived: s.BytesReceived(),
				BytesSent:     s.BytesSent(),
			})
		},
		OnError: func(code int, category, message string) {
			logger.Warn("Server error",
				logger.Server(r.cfg.Server.Name),
				logger.ErrorCode(code),
				logger.Category(category),
				logger.KeyError, message)
		},
	}
}

// Server returns the TCP server.
func (r *Runtime) Server() *Server { return r.server }

// Journal returns the session journal, or nil when disabled.
func (r *Runtime) Journal() journal.Store { return r.journal }

// MetricsAddr returns the metrics listener address, or nil when disabled.
func (r *Runtime) MetricsAddr() net.Addr {
	if r.metricsServer == nil {
		return nil
	}
	return r.metricsServer.Addr()
}

// APIAddr returns the admin API listener address, or nil when disabled.
func (r *Runtime) APIAddr() net.Addr {
	if r.apiServer == nil {
		return nil
	}
	return r.apiServer.Addr()
}

// Serve starts every component and blocks until ctx is cancelled or a side
// server fails, then shuts everything down. Only the first call runs.
func (r *Runtime) Serve(ctx context.Context) error {
	err := errors.New("runtime already served")
	r.serveOnce.Do(func() {
		err = r.serve(ctx)
	})
	return err
}

func (r *Runtime) serve(ctx context.Context) error {
	logger.Info("Starting sessiond runtime", logger.Server(r.cfg.Server.Name))

	apiCtx, cancelAPI := context.WithCancel(context.Background())
	defer cancelAPI()

	errChan := make(chan error, 2)
	var wg sync.WaitGroup

	if r.metricsServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.metricsServer.Serve(); err != nil {
				errChan <- err
			}
		}()
	}

	if r.apiServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.apiServer.Start(apiCtx); err != nil {
				errChan <- err
			}
		}()
	}

	r.server.Start()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received", "reason", ctx.Err())
	case serveErr = <-errChan:
		logger.Error("Side server failed, initiating shutdown", logger.Err(serveErr))
	}

	r.shutdown(cancelAPI)
	wg.Wait()

	logger.Info("sessiond runtime stopped")
	return serveErr
}

// shutdown stops the TCP server first so the journal records every
// disconnect, then the HTTP servers, then the journal.
func (r *Runtime) shutdown(cancelAPI context.CancelFunc) {
	logger.Info("Stopping server", logger.Active(r.server.SessionCount()))
	r.server.Stop()

	cancelAPI()

	if r.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.ShutdownTimeout)
		if err := r.metricsServer.Shutdown(ctx); err != nil {
			logger.Warn("Metrics server shutdown error", logger.Err(err))
		}
		cancel()
	}

	if err := r.server.Close(); err != nil {
		logger.Debug("Server close error", logger.Err(err))
	}
	r.closeJournal()
}

func (r *Runtime) closeAll() {
	if r.metricsServer != nil {
		_ = r.metricsServer.Close()
	}
	if r.server != nil {
		_ = r.server.Close()
	}
	r.closeJournal()
}

func (r *Runtime) closeJournal() {
	if r.journal == nil {
		return
	}
	if err := r.journal.Close(); err != nil {
		logger.Warn("Failed to close session journal", logger.Err(err))
	}
}
