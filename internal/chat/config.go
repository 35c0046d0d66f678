package chat

import (
	"fmt"
	"time"
)

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config selects and tunes a completion provider.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// NewCompleter builds the configured provider. A missing API key is not an
// error: it returns a nil Completer so the service degrades to its
// not-configured reply.
func NewCompleter(cfg Config) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	switch cfg.Provider {
	case "", ProviderOpenAI:
		return NewOpenAIClient(cfg), nil
	case ProviderGemini:
		g, err := NewGeminiClient(cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown chat provider %q", cfg.Provider)
	}
}
