package commands

import (
	"github.com/spf13/pflag"

	"github.com/moolen/agentdesk/internal/config"
)

// bindConfigFlags registers the flags shared by server and ask onto cfg.
func bindConfigFlags(flags *pflag.FlagSet, cfg *config.Config) {
	flags.StringVar(&cfg.AgentsFile, "agents-file", cfg.AgentsFile,
		"YAML file that overrides built-in agents and adds new ones (optional)")
	flags.StringVar(&cfg.DataSpecFile, "data-spec", cfg.DataSpecFile,
		"OpenAPI document backing DataGeneratorAgent's data tools (optional)")
	flags.StringVar(&cfg.DefaultModel, "model", cfg.DefaultModel,
		"Model for agents that do not name one in the agents file (e.g. gemini-2.0-flash, claude-sonnet-4-5, gpt-4o, mock)")
	flags.IntVar(&cfg.ModelRequestsPerMinute, "model-rpm", cfg.ModelRequestsPerMinute,
		"Maximum model requests per minute per model, 0 disables the limit")
	flags.DurationVar(&cfg.TurnTimeout, "turn-timeout", cfg.TurnTimeout,
		"Maximum duration of a single agent turn")
	flags.DurationVar(&cfg.ToolHTTPTimeout, "tool-http-timeout", cfg.ToolHTTPTimeout,
		"Timeout for each OpenAPI tool request")
	flags.Int64Var(&cfg.ToolMaxResponseBytes, "tool-max-response-bytes", cfg.ToolMaxResponseBytes,
		"Truncate OpenAPI tool responses after this many bytes")
	flags.StringVar(&cfg.AuditLogPath, "audit-log", cfg.AuditLogPath,
		"Path to write the agent audit log (JSONL format). If empty, audit logging is disabled.")
}
