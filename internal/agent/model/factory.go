package model

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"

	"github.com/moolen/agentdesk/internal/agent/provider"
	"github.com/moolen/agentdesk/internal/logging"
)

// MockPrefix selects the scripted mock: "mock" uses DefaultScenario and
// "mock:<path>" loads a scenario file.
const MockPrefix = "mock"

// FactoryConfig configures a Factory.
type FactoryConfig struct {
	// RequestsPerMinute limits calls per model identifier, 0 disables.
	RequestsPerMinute int

	// GoogleAPIKey overrides GOOGLE_API_KEY / GEMINI_API_KEY
	GoogleAPIKey string
}

// Factory resolves model identifiers to shared model.LLM instances.
type Factory struct {
	config FactoryConfig
	logger *logging.Logger

	mu     sync.Mutex
	models map[string]model.LLM
}

// NewFactory creates a Factory.
func NewFactory(cfg FactoryConfig) *Factory {
	return &Factory{
		config: cfg,
		logger: logging.GetLogger("model"),
		models: make(map[string]model.LLM),
	}
}

// Register makes llm the instance returned for identifier.
func (f *Factory) Register(identifier string, llm model.LLM) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.models[identifier] = llm
}

// Get returns the model for identifier, creating it on first use. Identifiers:
//   - gemini-* and anything unrecognized: ADK's Gemini client
//   - claude-*: Anthropic
//   - gpt-*, o1*, o3*, o4*: OpenAI
//   - mock, mock:<scenario file>: MockLLM
func (f *Factory) Get(ctx context.Context, identifier string) (model.LLM, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("model identifier is empty")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if llm, ok := f.models[identifier]; ok {
		return llm, nil
	}

	llm, err := f.create(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", identifier, err)
	}
	llm = NewRateLimited(llm, f.config.RequestsPerMinute)
	f.models[identifier] = llm

	f.logger.Info("Initialized model %s (%s)", identifier, Kind(identifier))
	return llm, nil
}

// Kind names the backend an identifier resolves to.
func Kind(identifier string) string {
	switch {
	case identifier == MockPrefix || strings.HasPrefix(identifier, MockPrefix+":"):
		return "mock"
	case strings.HasPrefix(identifier, "claude-"):
		return "anthropic"
	case strings.HasPrefix(identifier, "gpt-"),
		strings.HasPrefix(identifier, "o1"),
		strings.HasPrefix(identifier, "o3"),
		strings.HasPrefix(identifier, "o4"):
		return "openai"
	default:
		return "gemini"
	}
}

func (f *Factory) create(ctx context.Context, identifier string) (model.LLM, error) {
	switch Kind(identifier) {
	case "mock":
		if path, ok := strings.CutPrefix(identifier, MockPrefix+":"); ok {
			return NewMockLLM(path)
		}
		return NewMockLLMFromScenario(DefaultScenario()), nil

	case "anthropic":
		p, err := provider.NewAnthropicProvider(provider.Config{Model: identifier})
		if err != nil {
			return nil, err
		}
		return NewProviderLLM(p), nil

	case "openai":
		p, err := provider.NewOpenAIProvider(provider.Config{Model: identifier})
		if err != nil {
			return nil, err
		}
		return NewProviderLLM(p), nil

	default:
		apiKey := f.config.GoogleAPIKey
		if apiKey == "" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		return gemini.NewModel(ctx, identifier, &genai.ClientConfig{APIKey: apiKey})
	}
}
