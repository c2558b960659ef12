// Package api serves the browser chat page and its JSON endpoints.
package api

import (
	"time"

	"github.com/papercomputeco/parley/pkg/credentials"
	"github.com/papercomputeco/parley/pkg/llm/provider"
)

// Config is the web server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8501")
	ListenAddr string

	// SessionTTL is how long an idle browser session is kept in memory.
	SessionTTL time.Duration

	// DefaultProvider is preselected for new sessions.
	DefaultProvider string

	// ProviderOptions builds adapter options (endpoints, generation, timeout)
	// for a provider and API key.
	ProviderOptions func(name, apiKey string) provider.Options

	// Keys supplies server-side keys from the hosting secret store. When nil,
	// every session must bring its own key.
	Keys KeyResolver
}

// KeyResolver looks up a server-side API key for a provider.
type KeyResolver interface {
	Resolve(name string) (string, credentials.Source, error)
}
