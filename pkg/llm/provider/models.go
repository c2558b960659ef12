package provider

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownModel is returned when a model is not in a provider's catalog.
var ErrUnknownModel = errors.New("unknown model")

// catalog is the static model list offered for each provider. The first
// entry is the default.
var catalog = map[string][]string{
	PaLM: {
		"models/chat-bison-001",
	},
	Gemini: {
		"gemini-1.5-flash",
		"gemini-1.5-pro",
		"gemini-2.0-flash",
	},
	Anthropic: {
		"claude-3-5-sonnet-latest",
		"claude-3-5-haiku-latest",
		"claude-3-opus-latest",
	},
}

// Models returns the selectable models for a provider, or nil if the
// provider is unknown.
func Models(name string) []string {
	return slices.Clone(catalog[name])
}

// DefaultModel returns the preselected model for a provider.
func DefaultModel(name string) string {
	models := catalog[name]
	if len(models) == 0 {
		return ""
	}
	return models[0]
}

// ResolveModel validates model against the provider's catalog. An empty
// model resolves to the provider default.
func ResolveModel(name, model string) (string, error) {
	if !IsSupported(name) {
		return "", fmt.Errorf("%w: %q (supported: %v)", ErrUnknownProvider, name, SupportedProviders())
	}
	if model == "" {
		return DefaultModel(name), nil
	}
	if !slices.Contains(catalog[name], model) {
		return "", fmt.Errorf("%w: %q for %s (available: %v)", ErrUnknownModel, model, name, catalog[name])
	}
	return model, nil
}
