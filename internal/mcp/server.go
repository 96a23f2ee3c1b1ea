// Package mcp exposes the agent catalog to Model Context Protocol clients.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/moolen/agentdesk/internal/agent/catalog"
	"github.com/moolen/agentdesk/internal/agent/runner"
	"github.com/moolen/agentdesk/internal/logging"
)

// DefaultEndpointPath is where the streamable HTTP transport is mounted.
const DefaultEndpointPath = "/mcp"

// Tool names.
const (
	ListAgentsToolName = "list_agents"
	AskAgentToolName   = "ask_agent"
)

// AgentSource provides the active agent catalog.
type AgentSource interface {
	Current() *catalog.Catalog
}

// Asker runs agent turns.
type Asker interface {
	Ask(ctx context.Context, req runner.Request) (*runner.Result, error)
}

// ServerOptions configures the MCP server
type ServerOptions struct {
	Version string
	Agents  AgentSource
	Runner  Asker
}

// Server wraps the mcp-go server with the agent tools.
type Server struct {
	mcpServer *server.MCPServer
	agents    AgentSource
	runner    Asker
	logger    *logging.Logger
}

type askAgentInput struct {
	Agent     string `json:"agent"`
	Prompt    string `json:"prompt"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

type askAgentOutput struct {
	Response  string   `json:"response"`
	SessionID string   `json:"session_id"`
	ToolCalls []string `json:"tool_calls,omitempty"`
}

// NewServer creates the MCP server and registers its tools and prompts.
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Agents == nil || opts.Runner == nil {
		return nil, fmt.Errorf("mcp: agents and runner are required")
	}

	mcpServer := server.NewMCPServer(
		"agentdesk",
		opts.Version,
		server.WithToolCapabilities(false),
		server.WithPromptCapabilities(false),
		server.WithLogging(),
	)

	s := &Server{
		mcpServer: mcpServer,
		agents:    opts.Agents,
		runner:    opts.Runner,
		logger:    logging.GetLogger("mcp"),
	}
	s.registerTools()
	s.registerPrompts()
	return s, nil
}

func (s *Server) registerTools() {
	s.registerTool(ListAgentsToolName,
		"List the available agents with their descriptions, models and tools",
		map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
		s.listAgents,
	)

	s.registerTool(AskAgentToolName,
		"Send a prompt to an agent and return its final answer. Pass session_id to continue a conversation.",
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"agent": map[string]interface{}{
					"type":        "string",
					"description": "Agent name as returned by list_agents (case-sensitive)",
				},
				"prompt": map[string]interface{}{
					"type":        "string",
					"description": "The message for the agent",
				},
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Optional: session to continue. A new session is created when empty.",
				},
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "Optional: user the session belongs to",
				},
			},
			"required": []string{"agent", "prompt"},
		},
		s.askAgent,
	)
}

type toolFunc func(ctx context.Context, args json.RawMessage) (interface{}, error)

func (s *Server) registerTool(name, description string, inputSchema map[string]interface{}, fn toolFunc) {
	schemaJSON, err := json.Marshal(inputSchema)
	if err != nil {
		panic(fmt.Sprintf("Failed to marshal schema for tool %s: %v", name, err))
	}
	s.mcpServer.AddTool(mcp.NewToolWithRawSchema(name, description, schemaJSON), s.createToolHandler(name, fn))
}

func (s *Server) createToolHandler(name string, fn toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(request.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		result, err := fn(ctx, args)
		if err != nil {
			s.logger.Debug("Tool %s failed: %v", name, err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		resultJSON, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(resultJSON)), nil
	}
}

func (s *Server) listAgents(_ context.Context, _ json.RawMessage) (interface{}, error) {
	cat := s.agents.Current()
	if cat == nil {
		return nil, errors.New("agents are not loaded")
	}
	return cat.List(), nil
}

func (s *Server) askAgent(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var in askAgentInput
	if len(args) > 0 && string(args) != "null" {
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
	}
	if in.Agent == "" {
		return nil, errors.New("agent is required")
	}

	result, err := s.runner.Ask(ctx, runner.Request{
		Agent:     in.Agent,
		SessionID: in.SessionID,
		UserID:    in.UserID,
		Prompt:    in.Prompt,
	})
	if err != nil {
		return nil, err
	}
	return askAgentOutput{
		Response:  result.Response,
		SessionID: result.SessionID,
		ToolCalls: result.ToolCalls,
	}, nil
}

func (s *Server) registerPrompts() {
	prompt := mcp.Prompt{
		Name:        "ask",
		Description: "Route a question to one of the agents",
		Arguments: []mcp.PromptArgument{
			{Name: "question", Description: "What to ask", Required: true},
			{Name: "agent", Description: "Optional agent name; list_agents shows the choices", Required: false},
		},
	}

	s.mcpServer.AddPrompt(prompt, func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		question := request.Params.Arguments["question"]
		agent := request.Params.Arguments["agent"]

		text := fmt.Sprintf("Use the ask_agent tool to answer: %s", question)
		if agent != "" {
			text += fmt.Sprintf(" Send it to the %s agent.", agent)
		} else {
			text += " Call list_agents first and pick the agent whose description fits best."
		}

		return &mcp.GetPromptResult{
			Description: "Ask an agent",
			Messages: []mcp.PromptMessage{
				{
					Role: mcp.RoleUser,
					Content: mcp.TextContent{
						Type: "text",
						Text: text,
					},
				},
			},
		}, nil
	})
}

// MCPServer returns the underlying mcp-go server for transport setup
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// HTTPHandler returns a stateless streamable HTTP transport mounted at path.
func (s *Server) HTTPHandler(path string) http.Handler {
	if path == "" {
		path = DefaultEndpointPath
	}
	return server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithEndpointPath(path),
		server.WithStateLess(true),
	)
}

// ServeStdio serves MCP over stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
