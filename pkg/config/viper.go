package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/papercomputeco/parley/pkg/dotdir"
	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/llm/provider"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the PARLEY_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (PARLEY_CHAT_PROVIDER, PARLEY_SERVER_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("PARLEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("chat.provider", d.Chat.Provider)
	v.SetDefault("chat.model", d.Chat.Model)

	v.SetDefault("generation.temperature", *d.Generation.Temperature)
	v.SetDefault("generation.max_tokens", d.Generation.MaxTokens)

	v.SetDefault("http.timeout", d.HTTP.Timeout)

	v.SetDefault("palm.endpoint", d.PaLM.Endpoint)
	v.SetDefault("gemini.endpoint", d.Gemini.Endpoint)
	v.SetDefault("anthropic.endpoint", d.Anthropic.Endpoint)
	v.SetDefault("anthropic.version", d.Anthropic.Version)

	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.session_ttl", d.Server.SessionTTL)
}

// Generation reads the generation parameters out of v.
func Generation(v *viper.Viper) llm.GenerationConfig {
	return llm.GenerationConfig{
		Temperature: v.GetFloat64("generation.temperature"),
		MaxTokens:   v.GetInt("generation.max_tokens"),
	}
}

// HTTPTimeout reads http.timeout out of v, falling back to the default when
// the configured value does not parse to a positive duration.
func HTTPTimeout(v *viper.Viper) time.Duration {
	return durationOr(v, "http.timeout", defaultHTTPTimeout)
}

// SessionTTL reads server.session_ttl out of v.
func SessionTTL(v *viper.Viper) time.Duration {
	return durationOr(v, "server.session_ttl", defaultSessionTTL)
}

func durationOr(v *viper.Viper, key, fallback string) time.Duration {
	d := v.GetDuration(key)
	if d > 0 {
		return d
	}
	d, _ = time.ParseDuration(fallback)
	return d
}

// ChatSelection resolves the provider and model to chat with. An explicit
// model must belong to the provider's catalog. A model inherited from config
// or env that belongs to a different provider is replaced by the provider's
// default, so "-p gemini" works regardless of a stored anthropic model.
func ChatSelection(v *viper.Viper, modelExplicit bool) (string, string, error) {
	name := v.GetString("chat.provider")
	model := v.GetString("chat.model")

	resolved, err := provider.ResolveModel(name, model)
	if err == nil {
		return name, resolved, nil
	}
	if modelExplicit || !errors.Is(err, provider.ErrUnknownModel) {
		return "", "", err
	}
	return name, provider.DefaultModel(name), nil
}

// ProviderOptions assembles the adapter options for the named provider from
// v. apiKey is passed through untouched; it never comes from viper.
func ProviderOptions(v *viper.Viper, name, apiKey string) provider.Options {
	opts := provider.Options{
		APIKey:     apiKey,
		Generation: Generation(v),
		Timeout:    HTTPTimeout(v),
	}

	switch name {
	case provider.PaLM:
		opts.Endpoint = v.GetString("palm.endpoint")
	case provider.Gemini:
		opts.Endpoint = v.GetString("gemini.endpoint")
	case provider.Anthropic:
		opts.Endpoint = v.GetString("anthropic.endpoint")
		opts.AnthropicVersion = v.GetString("anthropic.version")
	}

	return opts
}
