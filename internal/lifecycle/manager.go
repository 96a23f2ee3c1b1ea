package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/moolen/agentdesk/internal/logging"
)

// Manager starts components after their dependencies and stops them in
// reverse start order. A failed start rolls back everything already started.
type Manager struct {
	mu              sync.RWMutex
	opMu            sync.Mutex // serializes Register, Start and Stop
	components      []Component
	dependencies    map[Component][]Component
	running         map[Component]bool
	started         []Component
	shutdownTimeout time.Duration
	logger          *logging.Logger
}

// NewManager creates a manager with a 30 second per-component shutdown timeout.
func NewManager() *Manager {
	return &Manager{
		dependencies:    make(map[Component][]Component),
		running:         make(map[Component]bool),
		shutdownTimeout: 30 * time.Second,
		logger:          logging.GetLogger("lifecycle"),
	}
}

// Register adds a component. Dependencies must already be registered, which
// also rules out cycles.
func (m *Manager) Register(component Component, dependsOn ...Component) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if component == nil {
		return fmt.Errorf("cannot register nil component")
	}
	if component.Name() == "" {
		return fmt.Errorf("component must have a non-empty name")
	}
	if slices.Contains(m.components, component) {
		return fmt.Errorf("component %s is already registered", component.Name())
	}
	for _, dep := range dependsOn {
		if dep == nil || !slices.Contains(m.components, dep) {
			return fmt.Errorf("dependency of %s is not registered", component.Name())
		}
	}

	m.mu.Lock()
	m.components = append(m.components, component)
	m.dependencies[component] = dependsOn
	m.running[component] = false
	m.mu.Unlock()

	m.logger.Debug("Registered component %s with %d dependencies", component.Name(), len(dependsOn))
	return nil
}

// Start starts every registered component in dependency order.
func (m *Manager) Start(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.started = nil
	for _, component := range m.startOrder() {
		m.logger.Info("Starting %s", component.Name())
		begin := time.Now()

		if err := component.Start(ctx); err != nil {
			m.logger.Error("Failed to start %s: %v", component.Name(), err)
			m.rollback()
			return fmt.Errorf("initialization failed for %s: %w", component.Name(), err)
		}

		m.mu.Lock()
		m.running[component] = true
		m.started = append(m.started, component)
		m.mu.Unlock()

		m.logger.Info("%s started (took %dms)", component.Name(), time.Since(begin).Milliseconds())
	}

	m.logger.Info("All components started")
	return nil
}

// startOrder is a depth-first topological sort in registration order.
func (m *Manager) startOrder() []Component {
	visited := make(map[Component]bool, len(m.components))
	order := make([]Component, 0, len(m.components))

	var visit func(c Component)
	visit = func(c Component) {
		if visited[c] {
			return
		}
		visited[c] = true
		for _, dep := range m.dependencies[c] {
			visit(dep)
		}
		order = append(order, c)
	}
	for _, c := range m.components {
		visit(c)
	}
	return order
}

func (m *Manager) rollback() {
	for i := len(m.started) - 1; i >= 0; i-- {
		component := m.started[i]
		m.logger.Debug("Rolling back: stopping %s", component.Name())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := component.Stop(ctx); err != nil {
			m.logger.Warn("Error stopping %s during rollback: %v", component.Name(), err)
		}
		cancel()

		m.setRunning(component, false)
	}
	m.started = nil
}

// Stop stops started components in reverse order, each with its own timeout.
// Errors are logged; Stop always returns nil.
func (m *Manager) Stop(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.logger.Info("Stopping all components")

	for i := len(m.started) - 1; i >= 0; i-- {
		component := m.started[i]
		if !m.IsRunning(component) {
			continue
		}

		m.logger.Info("Stopping %s", component.Name())
		begin := time.Now()

		m.mu.RLock()
		timeout := m.shutdownTimeout
		m.mu.RUnlock()

		componentCtx, cancel := context.WithTimeout(ctx, timeout)
		err := component.Stop(componentCtx)
		cancel()

		switch {
		case errors.Is(err, context.DeadlineExceeded):
			m.logger.Warn("%s exceeded its %dms shutdown timeout", component.Name(), timeout.Milliseconds())
		case err != nil:
			m.logger.Error("Error stopping %s: %v", component.Name(), err)
		default:
			m.logger.Info("%s stopped (took %dms)", component.Name(), time.Since(begin).Milliseconds())
		}

		m.setRunning(component, false)
	}
	m.started = nil

	m.logger.Info("All components stopped")
	return nil
}

func (m *Manager) setRunning(component Component, running bool) {
	m.mu.Lock()
	m.running[component] = running
	m.mu.Unlock()
}

// IsRunning reports whether component started and has not stopped.
func (m *Manager) IsRunning(component Component) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running[component]
}

// Ready reports whether every registered component is running.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.components {
		if !m.running[c] {
			return false
		}
	}
	return len(m.components) > 0
}

// SetShutdownTimeout sets the per-component grace period used by Stop.
func (m *Manager) SetShutdownTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownTimeout = timeout
}
