package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kart-io/logger"
)

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 30 * time.Second

// Manager starts registered Runnables in order and stops them in reverse.
type Manager struct {
	shutdownTimeout time.Duration

	mu      sync.Mutex
	servers []Runnable
	started []Runnable
}

// NewManager creates a Manager. A non-positive timeout uses DefaultShutdownTimeout.
func NewManager(shutdownTimeout time.Duration) *Manager {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &Manager{shutdownTimeout: shutdownTimeout}
}

// AddServer registers a server. Servers start in registration order.
func (m *Manager) AddServer(servers ...Runnable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range servers {
		if s != nil {
			m.servers = append(m.servers, s)
		}
	}
}

// Start starts every registered server. If one fails, the already started
// servers are stopped before the error is returned.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if len(m.started) > 0 {
		m.mu.Unlock()
		return fmt.Errorf("server manager already started")
	}
	servers := append([]Runnable(nil), m.servers...)
	m.mu.Unlock()

	started := make([]Runnable, 0, len(servers))
	for _, s := range servers {
		if err := s.Start(ctx); err != nil {
			for i := len(started) - 1; i >= 0; i-- {
				_ = started[i].Stop(ctx)
			}
			return fmt.Errorf("failed to start server %s: %w", s.Name(), err)
		}
		logger.Infow("Server started", "name", s.Name())
		started = append(started, s)
	}

	m.mu.Lock()
	m.started = started
	m.mu.Unlock()
	return nil
}

// Stop stops the started servers in reverse order.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	started := m.started
	m.started = nil
	m.mu.Unlock()

	var errs []error
	for i := len(started) - 1; i >= 0; i-- {
		s := started[i]
		if err := s.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop server %s: %w", s.Name(), err))
			continue
		}
		logger.Infow("Server stopped", "name", s.Name())
	}
	return errors.Join(errs...)
}

// Run starts the servers and blocks until ctx is canceled or SIGINT/SIGTERM
// arrives, then shuts down within the configured timeout.
// A context canceled before startup completes is a normal shutdown.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			logger.Info("Server startup canceled")
			return nil
		}
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Infow("Server shutting down...", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Server shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), m.shutdownTimeout)
	defer cancel()
	return m.Stop(shutdownCtx)
}
