package credentials

// Secrets is the layout of secrets.toml, provisioned by whoever hosts parley.
type Secrets struct {
	Version   int                           `toml:"version"`
	Providers map[string]ProviderCredential `toml:"providers"`
}

// ProviderCredential holds the API key for a single provider.
type ProviderCredential struct {
	APIKey string `toml:"api_key"`
}

// Source says where a resolved key came from.
type Source string

const (
	SourceNone    Source = ""
	SourceEnv     Source = "env"
	SourceSecrets Source = "secrets"
	SourcePrompt  Source = "prompt"
)
