// Package system manages the lifecycle of long-running application
// components.
package system

import (
	"context"
	"fmt"

	"github.com/SLC-Network/token_layer/pkg/logger"
)

// Service represents a lifecycle-managed component. All long-running modules
// implement this interface so the manager can start and stop them
// deterministically.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Manager starts services in registration order and stops them in reverse.
type Manager struct {
	services []Service
	started  []Service
	log      *logger.Logger
}

// NewManager creates an empty manager.
func NewManager(log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewDefault("system")
	}
	return &Manager{log: log}
}

// Register adds services to the start order.
func (m *Manager) Register(services ...Service) {
	m.services = append(m.services, services...)
}

// StartAll starts every registered service. On failure the services already
// started are stopped in reverse order before the error is returned.
func (m *Manager) StartAll(ctx context.Context) error {
	for _, svc := range m.services {
		m.log.WithField("service", svc.Name()).Info("starting service")
		if err := svc.Start(ctx); err != nil {
			m.log.WithField("service", svc.Name()).WithError(err).Error("service failed to start")
			m.stopStarted(ctx)
			return fmt.Errorf("start %s: %w", svc.Name(), err)
		}
		m.started = append(m.started, svc)
	}
	return nil
}

// StopAll stops every started service in reverse order, collecting the first
// error but attempting every stop.
func (m *Manager) StopAll(ctx context.Context) error {
	var firstErr error
	for i := len(m.started) - 1; i >= 0; i-- {
		svc := m.started[i]
		m.log.WithField("service", svc.Name()).Info("stopping service")
		if err := svc.Stop(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stop %s: %w", svc.Name(), err)
		}
	}
	m.started = nil
	return firstErr
}

func (m *Manager) stopStarted(ctx context.Context) {
	for i := len(m.started) - 1; i >= 0; i-- {
		if err := m.started[i].Stop(ctx); err != nil {
			m.log.WithField("service", m.started[i].Name()).WithError(err).Warn("stop failed during rollback")
		}
	}
	m.started = nil
}
