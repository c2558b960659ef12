// Package configcmder provides the config command for managing persistent
// parley configuration stored in the .parley/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent parley configuration.

Configuration is stored as config.toml in the .parley/ directory and provides
default values for command flags. CLI flags and PARLEY_* environment
variables take precedence over config file values. API keys are never stored
here; see "parley chat --help" for where keys are read from.

Keys use dotted notation matching the TOML section structure:
  chat.provider, chat.model,
  generation.temperature, generation.max_tokens,
  http.timeout,
  palm.endpoint, gemini.endpoint, anthropic.endpoint, anthropic.version,
  server.listen, server.session_ttl

Use subcommands to get, set, or list configuration values:
  parley config set <key> <value>    Set a configuration value
  parley config get <key>            Get a configuration value
  parley config list                 List all configuration values

Examples:
  parley config set chat.provider gemini
  parley config set generation.temperature 0.5
  parley config get chat.model
  parley config list`

const configShortDesc string = "Manage persistent parley configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
