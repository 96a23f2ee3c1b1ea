package commands

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/adk/session"

	"github.com/moolen/agentdesk/internal/agent/audit"
	"github.com/moolen/agentdesk/internal/agent/catalog"
	"github.com/moolen/agentdesk/internal/agent/model"
	"github.com/moolen/agentdesk/internal/agent/openapi"
	"github.com/moolen/agentdesk/internal/agent/runner"
	"github.com/moolen/agentdesk/internal/config"
	"github.com/moolen/agentdesk/internal/lifecycle"
	"github.com/moolen/agentdesk/internal/metrics"
)

const defaultSessionCapacity = 10000

// services is the object graph behind the server and ask commands.
type services struct {
	metrics *metrics.Metrics
	catalog *catalog.Manager
	redis   *runner.RedisIndex
	audit   *audit.Logger
	runner  *runner.Service
}

func buildServices(cfg *config.Config, serving bool) (*services, error) {
	svc := &services{}

	if serving {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		svc.metrics = metrics.New(reg)
	}

	if cfg.AuditLogPath != "" {
		auditLogger, err := audit.NewLogger(cfg.AuditLogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		svc.audit = auditLogger
	}

	sessions := session.InMemoryService()
	models := model.NewFactory(model.FactoryConfig{
		RequestsPerMinute: cfg.ModelRequestsPerMinute,
	})

	catalogManager, err := catalog.NewManager(catalog.ManagerConfig{
		AgentsFile: cfg.AgentsFile,
		Watch:      serving && cfg.WatchAgentsFile,
		Options: catalog.Options{
			Models:         models,
			SessionService: sessions,
			DefaultModel:   cfg.DefaultModel,
			DataSpecFile:   cfg.DataSpecFile,
			ToolOptions: openapi.Options{
				Timeout:          cfg.ToolHTTPTimeout,
				MaxResponseBytes: cfg.ToolMaxResponseBytes,
			},
		},
		Metrics: svc.metrics,
	})
	if err != nil {
		return nil, err
	}
	svc.catalog = catalogManager

	capacity := cfg.SessionCapacity
	if capacity < 1 {
		capacity = defaultSessionCapacity
	}
	local := runner.NewMemoryIndex(capacity, cfg.SessionTTL, runner.EvictSessions(sessions))
	index := runner.NewTieredIndex(local, nil)
	if cfg.SessionBackend == config.SessionBackendRedis {
		redisIndex, err := runner.NewRedisIndex(cfg.RedisURL, cfg.SessionTTL, runner.DefaultRedisKeyPrefix)
		if err != nil {
			return nil, err
		}
		svc.redis = redisIndex
		index = runner.NewTieredIndex(local, redisIndex)
	}

	svc.runner, err = runner.New(runner.Config{
		Agents:      catalogManager,
		Sessions:    sessions,
		Index:       index,
		TurnTimeout: cfg.TurnTimeout,
		Audit:       svc.audit,
		Metrics:     svc.metrics,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// register adds the services' components to manager. The catalog starts last.
func (s *services) register(manager *lifecycle.Manager) error {
	var deps []lifecycle.Component
	if s.audit != nil {
		if err := manager.Register(s.audit); err != nil {
			return err
		}
		deps = append(deps, s.audit)
	}
	if s.redis != nil {
		if err := manager.Register(s.redis); err != nil {
			return err
		}
		deps = append(deps, s.redis)
	}
	return manager.Register(s.catalog, deps...)
}
