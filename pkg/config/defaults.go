package config

import (
	"github.com/papercomputeco/parley/pkg/llm/provider"
	"github.com/papercomputeco/parley/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/parley/pkg/llm/provider/palm"
)

const (
	defaultProvider    = provider.Anthropic
	defaultTemperature = 0.2
	defaultMaxTokens   = 512
	defaultHTTPTimeout = "60s"

	defaultServerListen = ":8501"
	defaultSessionTTL   = "1h"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values. An empty chat.model
// means the provider's default model. The gemini endpoint is left empty so
// the genai client uses its own base URL.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Chat: ChatConfig{
			Provider: defaultProvider,
		},
		Generation: GenerationConfig{
			Temperature: ptr(defaultTemperature),
			MaxTokens:   defaultMaxTokens,
		},
		HTTP: HTTPConfig{
			Timeout: defaultHTTPTimeout,
		},
		PaLM: EndpointConfig{
			Endpoint: palm.DefaultEndpoint,
		},
		Anthropic: AnthropicConfig{
			Endpoint: anthropic.DefaultEndpoint,
			Version:  anthropic.DefaultVersion,
		},
		Server: ServerConfig{
			Listen:     defaultServerListen,
			SessionTTL: defaultSessionTTL,
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
