// Package modelscmder lists the static model catalog for each provider.
package modelscmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/credentials"
	"github.com/papercomputeco/parley/pkg/llm/provider"
)

const modelsLongDesc string = `List the models offered for each provider.

The first model listed for a provider is its default. Pass a provider name
to list only that provider's models.

Examples:
  parley models
  parley models gemini`

const modelsShortDesc string = "List available models"

func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "models [provider]",
		Short:     modelsShortDesc,
		Long:      modelsLongDesc,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: provider.SupportedProviders(),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := provider.SupportedProviders()
			if len(args) == 1 {
				if !provider.IsSupported(args[0]) {
					return fmt.Errorf("%w: %q (supported: %s)",
						provider.ErrUnknownProvider, args[0], strings.Join(names, ", "))
				}
				names = args[:1]
			}
			return list(cmd.OutOrStdout(), names)
		},
	}

	return cmd
}

func list(w io.Writer, names []string) error {
	for i, name := range names {
		if i > 0 {
			fmt.Fprintln(w)
		}

		fmt.Fprintf(w, "%s %s\n",
			cliui.HeaderStyle.Render(provider.DisplayName(name)),
			cliui.DimStyle.Render("("+strings.Join(credentials.EnvVarsForProvider(name), " or ")+")"),
		)

		def := provider.DefaultModel(name)
		for _, m := range provider.Models(name) {
			if m == def {
				fmt.Fprintf(w, "  %s %s\n", cliui.ValueStyle.Render(m), cliui.DimStyle.Render("(default)"))
			} else {
				fmt.Fprintf(w, "  %s\n", cliui.ValueStyle.Render(m))
			}
		}
	}
	return nil
}
