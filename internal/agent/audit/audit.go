// Package audit records agent turns to a JSONL file: one JSON event per line,
// covering user prompts, tool calls, model text and errors across all
// sessions. A nil *Logger discards events.
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// EventType represents the type of audit event.
type EventType string

const (
	// EventTypeTurnStart marks a user prompt entering an agent.
	EventTypeTurnStart EventType = "turn_start"
	// EventTypeToolStart marks the start of a tool call.
	EventTypeToolStart EventType = "tool_start"
	// EventTypeToolComplete marks the completion of a tool call.
	EventTypeToolComplete EventType = "tool_complete"
	// EventTypeAgentText marks text output from an agent.
	EventTypeAgentText EventType = "agent_text"
	// EventTypeLLMUsage logs token usage reported with a model response.
	EventTypeLLMUsage EventType = "llm_usage"
	// EventTypeTurnComplete marks the end of a turn.
	EventTypeTurnComplete EventType = "turn_complete"
	// EventTypeError marks an error during processing.
	EventTypeError EventType = "error"
)

// Event represents a single audit log event.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	Agent     string         `json:"agent,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// maxTextLen bounds prompt and response text stored per event.
const maxTextLen = 4000

// Logger writes audit events as JSONL. It is safe for concurrent use and
// flushes after every event.
type Logger struct {
	mu     sync.Mutex
	closer io.Closer
	writer *bufio.Writer
	now    func() time.Time
}

// NewLogger opens filePath for appending, creating it if needed.
func NewLogger(filePath string) (*Logger, error) {
	// #nosec G304 -- audit log path is operator configuration
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}
	l := NewWriterLogger(file)
	l.closer = file
	return l, nil
}

// NewWriterLogger writes events to w.
func NewWriterLogger(w io.Writer) *Logger {
	return &Logger{
		writer: bufio.NewWriter(w),
		now:    time.Now,
	}
}

func (l *Logger) write(event Event) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	event.Timestamp = l.now().UTC()
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}
	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	if err := l.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	if err := l.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush audit log: %w", err)
	}
	return nil
}

// LogTurnStart logs the user prompt of a turn.
func (l *Logger) LogTurnStart(sessionID, agentName, userID, prompt string) error {
	return l.write(Event{
		Type:      EventTypeTurnStart,
		SessionID: sessionID,
		Agent:     agentName,
		Data: map[string]any{
			"user_id": userID,
			"prompt":  truncateString(prompt, maxTextLen),
		},
	})
}

// LogToolStart logs a tool call issued by the model.
func (l *Logger) LogToolStart(sessionID, agentName, toolName string, args map[string]any) error {
	return l.write(Event{
		Type:      EventTypeToolStart,
		SessionID: sessionID,
		Agent:     agentName,
		Data: map[string]any{
			"tool_name": toolName,
			"args":      args,
		},
	})
}

// LogToolComplete logs a tool result.
func (l *Logger) LogToolComplete(sessionID, agentName, toolName string, success bool, duration time.Duration, result map[string]any) error {
	return l.write(Event{
		Type:      EventTypeToolComplete,
		SessionID: sessionID,
		Agent:     agentName,
		Data: map[string]any{
			"tool_name":   toolName,
			"success":     success,
			"duration_ms": duration.Milliseconds(),
			"result":      result,
		},
	})
}

// LogAgentText logs text produced by an agent.
func (l *Logger) LogAgentText(sessionID, agentName, content string, isFinal bool) error {
	return l.write(Event{
		Type:      EventTypeAgentText,
		SessionID: sessionID,
		Agent:     agentName,
		Data: map[string]any{
			"content":  truncateString(content, maxTextLen),
			"is_final": isFinal,
		},
	})
}

// LogLLMUsage logs token counts reported with a model response.
func (l *Logger) LogLLMUsage(sessionID, agentName string, inputTokens, outputTokens int32) error {
	return l.write(Event{
		Type:      EventTypeLLMUsage,
		SessionID: sessionID,
		Agent:     agentName,
		Data: map[string]any{
			"input_tokens":  inputTokens,
			"output_tokens": outputTokens,
		},
	})
}

// LogTurnComplete logs the end of a turn.
func (l *Logger) LogTurnComplete(sessionID, agentName string, duration time.Duration, toolCalls int) error {
	return l.write(Event{
		Type:      EventTypeTurnComplete,
		SessionID: sessionID,
		Agent:     agentName,
		Data: map[string]any{
			"duration_ms": duration.Milliseconds(),
			"tool_calls":  toolCalls,
		},
	})
}

// LogError logs an error that ended a turn.
func (l *Logger) LogError(sessionID, agentName string, err error) error {
	return l.write(Event{
		Type:      EventTypeError,
		SessionID: sessionID,
		Agent:     agentName,
		Data: map[string]any{
			"error": err.Error(),
		},
	})
}

// Name implements lifecycle.Component.
func (l *Logger) Name() string {
	return "audit-log"
}

// Start implements lifecycle.Component.
func (l *Logger) Start(context.Context) error {
	return nil
}

// Stop flushes and closes the log.
func (l *Logger) Stop(context.Context) error {
	return l.Close()
}

// Close flushes and closes the underlying file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush audit log: %w", err)
	}
	if l.closer != nil {
		if err := l.closer.Close(); err != nil {
			return fmt.Errorf("failed to close audit log file: %w", err)
		}
		l.closer = nil
	}
	return nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
