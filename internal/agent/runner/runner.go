// Package runner executes agent turns: it resolves the agent, prepares the
// ADK session, drives the ADK runner and distills the event stream into a
// single reply.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/moolen/agentdesk/internal/agent/audit"
	"github.com/moolen/agentdesk/internal/agent/catalog"
	"github.com/moolen/agentdesk/internal/logging"
	"github.com/moolen/agentdesk/internal/metrics"
	"github.com/moolen/agentdesk/internal/tracing"
)

// DefaultUserID is used when a request carries no user id.
const DefaultUserID = "default"

var (
	// ErrAgentNotFound is returned for names missing from the catalog.
	ErrAgentNotFound = errors.New("agent not found")
	// ErrEmptyPrompt is returned for blank prompts.
	ErrEmptyPrompt = errors.New("prompt must not be empty")
	// ErrSessionConflict is returned when a session id belongs to another user.
	ErrSessionConflict = errors.New("session belongs to another user")
)

// AgentSource provides the active catalog.
type AgentSource interface {
	Current() *catalog.Catalog
}

// Config configures a Service.
type Config struct {
	Agents   AgentSource
	Sessions session.Service
	Index    SessionIndex

	// TurnTimeout bounds one turn, 0 disables
	TurnTimeout time.Duration

	Audit   *audit.Logger
	Metrics *metrics.Metrics
}

// Request is one user turn.
type Request struct {
	Agent     string
	SessionID string
	UserID    string
	Prompt    string
}

// Result is the outcome of a turn.
type Result struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`

	ToolCalls []string `json:"tool_calls,omitempty"`
	Usage     Usage    `json:"usage"`
}

// Usage sums the token counts reported during a turn.
type Usage struct {
	PromptTokens    int32 `json:"prompt_tokens"`
	CandidateTokens int32 `json:"candidate_tokens"`
}

// Service runs turns against the agents of the active catalog.
type Service struct {
	config Config
	locks  *keyedMutex
	tracer trace.Tracer
	logger *logging.Logger
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Agents == nil {
		return nil, fmt.Errorf("runner: agent source is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("runner: session service is required")
	}
	if cfg.Index == nil {
		return nil, fmt.Errorf("runner: session index is required")
	}
	return &Service{
		config: cfg,
		locks:  newKeyedMutex(),
		tracer: tracing.Tracer("agentdesk/runner"),
		logger: logging.GetLogger("agent.runner"),
	}, nil
}

// Session returns the metadata of a known session.
func (s *Service) Session(ctx context.Context, id string) (SessionInfo, error) {
	return s.config.Index.Get(ctx, id)
}

// Ask runs one turn. Turns on the same session are serialized.
func (s *Service) Ask(ctx context.Context, req Request) (*Result, error) {
	cat := s.config.Agents.Current()
	if cat == nil {
		return nil, fmt.Errorf("agent catalog is not loaded")
	}
	a, ok := cat.Get(req.Agent)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, req.Agent)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	if req.UserID == "" {
		req.UserID = DefaultUserID
	}

	unlock, err := s.locks.Lock(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if s.config.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.TurnTimeout)
		defer cancel()
	}

	ctx, span := s.tracer.Start(ctx, "agent.turn", trace.WithAttributes(
		attribute.String("agent.name", a.Name),
		attribute.String("agent.model", a.Model),
		attribute.String("session.id", req.SessionID),
	))
	defer span.End()

	logger := s.logger.WithContext(ctx).WithFields(
		logging.Field("agent", a.Name),
		logging.Field("session_id", req.SessionID),
	)

	start := time.Now()
	result, err := s.runTurn(ctx, a, req)
	s.config.Metrics.ObserveTurn(a.Name, time.Since(start).Seconds(), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		_ = s.config.Audit.LogError(req.SessionID, a.Name, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("agent.tool_calls", len(result.ToolCalls)),
		attribute.Int("llm.prompt_tokens", int(result.Usage.PromptTokens)),
		attribute.Int("llm.candidate_tokens", int(result.Usage.CandidateTokens)),
	)
	_ = s.config.Audit.LogTurnComplete(req.SessionID, a.Name, time.Since(start), len(result.ToolCalls))
	logger.DebugWithFields("Turn complete",
		logging.Field("tool_calls", result.ToolCalls),
		logging.Field("prompt_tokens", result.Usage.PromptTokens),
		logging.Field("candidate_tokens", result.Usage.CandidateTokens),
		logging.Field("duration", time.Since(start).Round(time.Millisecond).String()))
	return result, nil
}

func (s *Service) runTurn(ctx context.Context, a *catalog.Agent, req Request) (*Result, error) {
	info, indexed, err := s.ensureSession(ctx, a, req)
	if err != nil {
		return nil, err
	}
	_ = s.config.Audit.LogTurnStart(req.SessionID, a.Name, req.UserID, req.Prompt)

	content := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: req.Prompt}},
	}
	runConfig := agent.RunConfig{StreamingMode: agent.StreamingModeNone}

	result := &Result{SessionID: req.SessionID}
	toolStarts := make(map[string]time.Time)

	for event, err := range a.Runner.Run(ctx, req.UserID, req.SessionID, content, runConfig) {
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("agent %s: %w", a.Name, ctxErr)
			}
			return nil, fmt.Errorf("agent %s: %w", a.Name, err)
		}
		if event == nil {
			continue
		}

		if usage := event.UsageMetadata; usage != nil {
			result.Usage.PromptTokens += usage.PromptTokenCount
			result.Usage.CandidateTokens += usage.CandidatesTokenCount
			s.config.Metrics.Tokens(a.Name, usage.PromptTokenCount, usage.CandidatesTokenCount)
			_ = s.config.Audit.LogLLMUsage(req.SessionID, a.Name, usage.PromptTokenCount, usage.CandidatesTokenCount)
		}

		if event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			if part == nil {
				continue
			}
			if call := part.FunctionCall; call != nil {
				toolStarts[toolKey(call.ID, call.Name)] = time.Now()
				result.ToolCalls = append(result.ToolCalls, call.Name)
				_ = s.config.Audit.LogToolStart(req.SessionID, a.Name, call.Name, call.Args)
			}
			if resp := part.FunctionResponse; resp != nil {
				key := toolKey(resp.ID, resp.Name)
				var duration time.Duration
				if started, ok := toolStarts[key]; ok {
					duration = time.Since(started)
					delete(toolStarts, key)
				}
				success := toolSucceeded(resp.Response)
				outcome := metrics.OutcomeSuccess
				if !success {
					outcome = metrics.OutcomeError
				}
				s.config.Metrics.ToolCall(a.Name, resp.Name, outcome)
				_ = s.config.Audit.LogToolComplete(req.SessionID, a.Name, resp.Name, success, duration, resp.Response)
			}
		}

		text := eventText(event.Content)
		if text == "" {
			continue
		}
		final := event.IsFinalResponse()
		_ = s.config.Audit.LogAgentText(req.SessionID, a.Name, text, final)
		if final {
			result.Response = text
		}
	}

	if indexed {
		info.LastActivity = time.Now().UTC()
		info.Turns++
		if err := s.config.Index.Put(ctx, info); err != nil {
			s.logger.Warn("Failed to index session %s: %v", req.SessionID, err)
		}
	}
	s.updateActiveSessions()

	return result, nil
}

// ensureSession fetches the ADK session, creating it when absent, and
// returns its index entry. A session id reused with another agent drops the
// previous ADK session; reuse by another user is rejected. indexed is false
// when the index could not be read, so the stored entry must not be
// overwritten.
func (s *Service) ensureSession(ctx context.Context, a *catalog.Agent, req Request) (info SessionInfo, indexed bool, err error) {
	now := time.Now().UTC()
	fresh := SessionInfo{SessionID: req.SessionID, Agent: a.Name, UserID: req.UserID, CreatedAt: now}

	info, err = s.config.Index.Get(ctx, req.SessionID)
	switch {
	case err == nil && info.UserID != req.UserID:
		return SessionInfo{}, false, fmt.Errorf("session %s: %w", req.SessionID, ErrSessionConflict)
	case err == nil && info.Agent != a.Name:
		s.deleteSession(ctx, info)
		info, indexed = fresh, true
	case err == nil:
		indexed = true
	case errors.Is(err, ErrSessionNotFound):
		info, indexed = fresh, true
	default:
		s.logger.Warn("Session index lookup failed for %s: %v", req.SessionID, err)
		info, indexed = fresh, false
	}

	_, err = s.config.Sessions.Get(ctx, &session.GetRequest{
		AppName:   a.Name,
		UserID:    req.UserID,
		SessionID: req.SessionID,
	})
	if err == nil {
		return info, indexed, nil
	}

	if _, err := s.config.Sessions.Create(ctx, &session.CreateRequest{
		AppName:   a.Name,
		UserID:    req.UserID,
		SessionID: req.SessionID,
	}); err != nil {
		return SessionInfo{}, false, fmt.Errorf("failed to create session: %w", err)
	}
	s.logger.Debug("Created session %s for agent %s", req.SessionID, a.Name)
	return info, indexed, nil
}

func (s *Service) deleteSession(ctx context.Context, info SessionInfo) {
	err := s.config.Sessions.Delete(ctx, &session.DeleteRequest{
		AppName:   info.Agent,
		UserID:    info.UserID,
		SessionID: info.SessionID,
	})
	if err != nil {
		s.logger.Debug("Failed to delete session %s: %v", info.SessionID, err)
	}
}

func (s *Service) updateActiveSessions() {
	if counter, ok := s.config.Index.(interface{ Len() int }); ok {
		s.config.Metrics.SetActiveSessions(counter.Len())
	}
}

// EvictSessions returns a MemoryIndex eviction callback that deletes the
// evicted conversation from svc.
func EvictSessions(svc session.Service) func(SessionInfo) {
	logger := logging.GetLogger("agent.sessions")
	return func(info SessionInfo) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := svc.Delete(ctx, &session.DeleteRequest{
			AppName:   info.Agent,
			UserID:    info.UserID,
			SessionID: info.SessionID,
		})
		if err != nil {
			logger.Debug("Failed to delete evicted session %s: %v", info.SessionID, err)
			return
		}
		logger.Debug("Evicted session %s (%s)", info.SessionID, info.Agent)
	}
}

// eventText joins the non-thought text parts of content.
func eventText(content *genai.Content) string {
	var b strings.Builder
	for _, part := range content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

func toolKey(id, name string) string {
	if id != "" {
		return id
	}
	return name
}

// toolSucceeded treats an "error" key or status "error" as failure.
func toolSucceeded(resp map[string]any) bool {
	if v, ok := resp["error"]; ok && v != nil {
		return false
	}
	if status, ok := resp["status"].(string); ok && status == "error" {
		return false
	}
	return true
}
