// Package health watches the backend liveness endpoint on a coarse cadence.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/webpuppy/webhound-go/internal/models"
)

// Pinger is the health slice of the API client.
type Pinger interface {
	Health(ctx context.Context) (*models.HealthResponse, error)
}

type Status string

const (
	StatusUnknown     Status = "unknown"
	StatusOK          Status = "ok"
	StatusDegraded    Status = "degraded"
	StatusUnreachable Status = "unreachable"
)

const defaultInterval = 60 * time.Second

// Monitor polls the health endpoint and keeps the latest verdict. Failures
// are never fatal; they only flip the status value.
type Monitor struct {
	pinger   Pinger
	interval time.Duration
	logger   *zerolog.Logger

	mu     sync.Mutex
	status Status
}

func NewMonitor(pinger Pinger, interval time.Duration, logger *zerolog.Logger) *Monitor {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Monitor{
		pinger:   pinger,
		interval: interval,
		logger:   logger,
		status:   StatusUnknown,
	}
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Start checks immediately, then on every interval tick until ctx is done.
func (m *Monitor) Start(ctx context.Context) {
	m.check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	status := StatusOK
	resp, err := m.pinger.Health(ctx)
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return
		}
		status = StatusUnreachable
	case resp.Status != "ok":
		status = StatusDegraded
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if status != previous {
		event := m.logger.Info()
		if status != StatusOK {
			event = m.logger.Warn()
		}
		event.Str("from", string(previous)).Str("to", string(status)).Msg("backend health changed")
	}
}
