package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/moolen/agentdesk/internal/config"
	"github.com/moolen/agentdesk/internal/logging"
	"github.com/moolen/agentdesk/internal/metrics"
)

// ManagerConfig holds configuration for the catalog Manager.
type ManagerConfig struct {
	// AgentsFile is the optional agents YAML file
	AgentsFile string

	// Watch rebuilds the catalog when AgentsFile changes
	Watch bool

	// Debounce for file change events. Default: 500ms
	Debounce time.Duration

	// BuildTimeout bounds a rebuild triggered by the watcher. Default: 30s
	BuildTimeout time.Duration

	Options Options
	Metrics *metrics.Metrics
}

// Manager owns the active Catalog. Readers always see a complete catalog;
// a rebuild that fails leaves the previous one in place.
type Manager struct {
	config  ManagerConfig
	current atomic.Pointer[Catalog]
	logger  *logging.Logger

	// serializes rebuilds
	mu      sync.Mutex
	watcher *config.AgentsWatcher
}

// NewManager creates a catalog manager. The catalog is built by Start.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Options.Models == nil || cfg.Options.SessionService == nil {
		return nil, fmt.Errorf("catalog manager: model resolver and session service are required")
	}
	if cfg.Watch && cfg.AgentsFile == "" {
		return nil, fmt.Errorf("catalog manager: watching requires an agents file")
	}
	if cfg.BuildTimeout <= 0 {
		cfg.BuildTimeout = 30 * time.Second
	}

	return &Manager{
		config: cfg,
		logger: logging.GetLogger("agents.catalog"),
	}, nil
}

// Name implements lifecycle.Component.
func (m *Manager) Name() string {
	return "agent-catalog"
}

// Start builds the initial catalog and starts the file watcher if enabled.
// With watching enabled the watcher performs the initial load.
func (m *Manager) Start(ctx context.Context) error {
	if m.config.Watch {
		watcher, err := config.NewAgentsWatcher(config.AgentsWatcherConfig{
			FilePath: m.config.AgentsFile,
			Debounce: m.config.Debounce,
		}, m.Reload)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start agents watcher: %w", err)
		}
		m.watcher = watcher
		return nil
	}

	var file *config.AgentsFile
	if m.config.AgentsFile != "" {
		loaded, err := config.LoadAgentsFile(m.config.AgentsFile)
		if err != nil {
			return err
		}
		file = loaded
	}
	return m.rebuild(ctx, file)
}

// Stop stops the file watcher.
func (m *Manager) Stop(ctx context.Context) error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Stop(ctx)
}

// Current returns the active catalog, nil before Start.
func (m *Manager) Current() *Catalog {
	return m.current.Load()
}

// Reload rebuilds the catalog from file. It is the watcher callback.
func (m *Manager) Reload(file *config.AgentsFile) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.config.BuildTimeout)
	defer cancel()

	if err := m.rebuild(ctx, file); err != nil {
		if m.Current() != nil {
			m.logger.Error("Catalog reload failed, keeping previous agents: %v", err)
		}
		return err
	}
	return nil
}

func (m *Manager) rebuild(ctx context.Context, file *config.AgentsFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	c, err := Build(ctx, m.config.Options, file)
	m.config.Metrics.Reload(err)
	if err != nil {
		return err
	}

	m.current.Store(c)
	m.logger.InfoWithFields("Agent catalog ready",
		logging.Field("agents", len(c.names)),
		logging.Field("names", c.names),
		logging.Field("duration", time.Since(start).Round(time.Millisecond).String()))
	return nil
}
