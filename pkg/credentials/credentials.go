// Package credentials resolves vendor API keys from the environment and the
// hosting secret store. Keys are only ever read: parley has no code path that
// writes one to disk.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/parley/pkg/dotdir"
	"github.com/papercomputeco/parley/pkg/llm/provider"
)

const secretsFile = "secrets.toml"

// providerEnvVars maps provider names to the environment variables checked,
// in order.
var providerEnvVars = map[string][]string{
	provider.PaLM:      {"PALM_API_KEY"},
	provider.Gemini:    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	provider.Anthropic: {"ANTHROPIC_API_KEY"},
}

// Manager reads secrets.toml in the .parley/ directory.
type Manager struct {
	targetPath string
	lookupEnv  func(string) (string, bool)
}

// NewManager creates a Manager. If override is non-empty it is used as the
// .parley/ directory; otherwise the standard dotdir resolution applies.
func NewManager(override string) (*Manager, error) {
	target, err := dotdir.NewManager().Target(override)
	if err != nil {
		return nil, err
	}

	return &Manager{
		targetPath: filepath.Join(target, secretsFile),
		lookupEnv:  os.LookupEnv,
	}, nil
}

// Load reads secrets.toml. A missing file yields empty Secrets.
func (m *Manager) Load() (*Secrets, error) {
	data, err := os.ReadFile(m.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Secrets{Providers: make(map[string]ProviderCredential)}, nil
		}
		return nil, fmt.Errorf("reading secrets: %w", err)
	}

	secrets := &Secrets{}
	if err := toml.Unmarshal(data, secrets); err != nil {
		return nil, fmt.Errorf("parsing secrets: %w", err)
	}

	if secrets.Providers == nil {
		secrets.Providers = make(map[string]ProviderCredential)
	}

	return secrets, nil
}

// Resolve returns the API key for a provider and where it came from. The
// environment wins over secrets.toml. An empty key with SourceNone means the
// caller must ask the user or show the missing-key notice.
func (m *Manager) Resolve(name string) (string, Source, error) {
	for _, env := range providerEnvVars[name] {
		if v, ok := m.lookupEnv(env); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), SourceEnv, nil
		}
	}

	secrets, err := m.Load()
	if err != nil {
		return "", SourceNone, err
	}

	if key := strings.TrimSpace(secrets.Providers[name].APIKey); key != "" {
		return key, SourceSecrets, nil
	}

	return "", SourceNone, nil
}

// Configured returns the providers that have a key available, in catalog order.
func (m *Manager) Configured() ([]string, error) {
	var names []string
	for _, name := range provider.SupportedProviders() {
		key, _, err := m.Resolve(name)
		if err != nil {
			return nil, err
		}
		if key != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// GetTarget returns the resolved path to the secrets file.
func (m *Manager) GetTarget() string {
	return m.targetPath
}

// EnvVarsForProvider returns the environment variables checked for a provider.
func EnvVarsForProvider(name string) []string {
	return slices.Clone(providerEnvVars[name])
}
