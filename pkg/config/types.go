package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent parley configuration stored as config.toml
// in the .parley/ directory. Secrets never live here; see pkg/credentials.
type Config struct {
	Version    int              `toml:"version"`
	Chat       ChatConfig       `toml:"chat"`
	Generation GenerationConfig `toml:"generation"`
	HTTP       HTTPConfig       `toml:"http"`
	PaLM       EndpointConfig   `toml:"palm"`
	Gemini     EndpointConfig   `toml:"gemini"`
	Anthropic  AnthropicConfig  `toml:"anthropic"`
	Server     ServerConfig     `toml:"server"`
}

// ChatConfig selects the vendor and model a new session starts with.
type ChatConfig struct {
	Provider string `toml:"provider,omitempty"`
	Model    string `toml:"model,omitempty"`
}

// GenerationConfig holds the fixed generation parameters sent on every call.
type GenerationConfig struct {
	// Temperature is a pointer so an explicit 0 survives a round trip.
	Temperature *float64 `toml:"temperature,omitempty"`
	MaxTokens   int     `toml:"max_tokens,omitempty"`
}

// HTTPConfig holds outbound client settings. Timeout is a Go duration string.
type HTTPConfig struct {
	Timeout string `toml:"timeout,omitempty"`
}

// EndpointConfig overrides a vendor base URL.
type EndpointConfig struct {
	Endpoint string `toml:"endpoint,omitempty"`
}

// AnthropicConfig holds the Messages endpoint and API version header.
type AnthropicConfig struct {
	Endpoint string `toml:"endpoint,omitempty"`
	Version  string `toml:"version,omitempty"`
}

// ServerConfig holds web server settings.
type ServerConfig struct {
	Listen     string `toml:"listen,omitempty"`
	SessionTTL string `toml:"session_ttl,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func validateDuration(key, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid value for %s: must be positive, got %s", key, v)
	}
	return nil
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"chat.provider": {
		get: func(c *Config) string { return c.Chat.Provider },
		set: func(c *Config, v string) error { c.Chat.Provider = v; return nil },
	},
	"chat.model": {
		get: func(c *Config) string { return c.Chat.Model },
		set: func(c *Config, v string) error { c.Chat.Model = v; return nil },
	},
	"generation.temperature": {
		get: func(c *Config) string {
			if c.Generation.Temperature == nil {
				return ""
			}
			return strconv.FormatFloat(*c.Generation.Temperature, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for generation.temperature: %w", err)
			}
			if f < 0 || f > 2 {
				return fmt.Errorf("invalid value for generation.temperature: %v out of range [0, 2]", f)
			}
			c.Generation.Temperature = &f
			return nil
		},
	},
	"generation.max_tokens": {
		get: func(c *Config) string {
			if c.Generation.MaxTokens == 0 {
				return ""
			}
			return strconv.Itoa(c.Generation.MaxTokens)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for generation.max_tokens: %w", err)
			}
			if n <= 0 {
				return fmt.Errorf("invalid value for generation.max_tokens: must be positive, got %d", n)
			}
			c.Generation.MaxTokens = n
			return nil
		},
	},
	"http.timeout": {
		get: func(c *Config) string { return c.HTTP.Timeout },
		set: func(c *Config, v string) error {
			if err := validateDuration("http.timeout", v); err != nil {
				return err
			}
			c.HTTP.Timeout = v
			return nil
		},
	},
	"palm.endpoint": {
		get: func(c *Config) string { return c.PaLM.Endpoint },
		set: func(c *Config, v string) error { c.PaLM.Endpoint = v; return nil },
	},
	"gemini.endpoint": {
		get: func(c *Config) string { return c.Gemini.Endpoint },
		set: func(c *Config, v string) error { c.Gemini.Endpoint = v; return nil },
	},
	"anthropic.endpoint": {
		get: func(c *Config) string { return c.Anthropic.Endpoint },
		set: func(c *Config, v string) error { c.Anthropic.Endpoint = v; return nil },
	},
	"anthropic.version": {
		get: func(c *Config) string { return c.Anthropic.Version },
		set: func(c *Config, v string) error { c.Anthropic.Version = v; return nil },
	},
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"server.session_ttl": {
		get: func(c *Config) string { return c.Server.SessionTTL },
		set: func(c *Config, v string) error {
			if err := validateDuration("server.session_ttl", v); err != nil {
				return err
			}
			c.Server.SessionTTL = v
			return nil
		},
	},
}
