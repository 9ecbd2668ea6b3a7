package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pinger is satisfied by the task store and by the session backend adapters.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Sizer reports the number of entries held by a local cache.
type Sizer interface {
	Size() (int, error)
}

type Monitor struct {
	store    Pinger
	sessions Pinger
	local    Sizer

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

// New builds a monitor. A nil sessions pinger means sessions live in process and are always up;
// a nil local cache is reported as offline.
func New(store, sessions Pinger, local Sizer, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		store:    store,
		sessions: sessions,
		local:    local,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether the stores needed to serve requests answered the last probe.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Store && m.status.Sessions
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh()
	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh probes every dependency once and records the result.
func (m *Monitor) Refresh() {
	localOK, localSize := m.checkLocal()
	status := Status{
		Store:          m.ping("store", m.store, 3*time.Second),
		Sessions:       m.sessions == nil || m.ping("sessions", m.sessions, 2*time.Second),
		LocalCache:     localOK,
		LocalCacheSize: localSize,
		LastCheck:      time.Now(),
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

func (m *Monitor) ping(name string, p Pinger, timeout time.Duration) bool {
	if p == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		m.logger.Warn("dependency ping failed", zap.String("dependency", name), zap.Error(err))
		return false
	}
	return true
}

func (m *Monitor) checkLocal() (bool, int) {
	if m.local == nil {
		return false, 0
	}
	size, err := m.local.Size()
	if err != nil {
		m.logger.Warn("local cache size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
