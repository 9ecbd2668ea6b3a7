package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// StopFunc releases one component. It must honour ctx cancellation.
type StopFunc func(ctx context.Context) error

type component struct {
	name string
	stop StopFunc
}

// Manager owns the teardown of every component opened by a process
// (server or CLI invocation). Components stop in reverse registration order.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu         sync.Mutex
	components []component
	stopped    bool
}

func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{timeout: timeout, logger: logger}
}

// Register adds a component to tear down. A component registered after
// Shutdown has already run is stopped right away.
func (m *Manager) Register(name string, stop StopFunc) {
	if stop == nil {
		return
	}
	m.mu.Lock()
	if !m.stopped {
		m.components = append(m.components, component{name: name, stop: stop})
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	_ = m.stopOne(ctx, component{name: name, stop: stop})
}

// Pending reports how many components are still registered.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.components)
}

// Shutdown stops all registered components once. Later calls return nil.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m.mu.Lock()
	components := m.components
	m.components = nil
	m.stopped = true
	m.mu.Unlock()

	if len(components) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var result error
	for i := len(components) - 1; i >= 0; i-- {
		result = errors.Join(result, m.stopOne(ctx, components[i]))
	}
	return result
}

func (m *Manager) stopOne(ctx context.Context, c component) error {
	started := time.Now()
	if err := c.stop(ctx); err != nil {
		m.logger.Error("component stop failed", zap.String("component", c.name), zap.Error(err))
		return err
	}
	m.logger.Debug("component stopped",
		zap.String("component", c.name),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// Listen cancels the process context on SIGINT or SIGTERM.
func (m *Manager) Listen(cancel context.CancelFunc) {
	if cancel == nil {
		return
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigCh)
		sig := <-sigCh
		m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()
}
