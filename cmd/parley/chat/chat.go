// Package chatcmder provides the chat command for an interactive terminal
// conversation with one of the supported vendors.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/papercomputeco/parley/pkg/chat"
	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/credentials"
	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/llm/provider"
	"github.com/papercomputeco/parley/pkg/logger"
)

const chatLongDesc string = `Start an interactive chat session with an LLM vendor.

Every message is sent together with the whole conversation so far. The
reply is printed once the vendor answers; failed calls are shown inline as
"API request failed: ..." and the conversation continues.

API keys are read from the environment first, then from secrets.toml in the
.parley/ directory:
  palm       PALM_API_KEY
  gemini     GEMINI_API_KEY or GOOGLE_API_KEY
  anthropic  ANTHROPIC_API_KEY

When no key is found and stdin is a terminal, you are asked for one. It is
kept in memory for this session only.

In-chat commands:
  /history   Show the whole conversation
  /reset     Start a fresh conversation
  /exit      Quit (Ctrl+D also works)

Examples:
  parley chat
  parley chat -p gemini -m gemini-1.5-pro
  parley chat -p anthropic --plain`

const chatShortDesc string = "Interactive chat with an LLM vendor"

type chatCommander struct {
	providerName string
	model        string
	temperature  float64
	maxTokens    int
	timeout      string
	plain        bool
	debug        bool

	modelExplicit bool

	v      *viper.Viper
	in     io.Reader
	out    io.Writer
	logger *slog.Logger
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagProvider,
				config.FlagModel,
				config.FlagTemperature,
				config.FlagMaxTokens,
				config.FlagTimeout,
			})
			cmder.v = v
			cmder.modelExplicit = cmd.Flags().Changed("model")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()

			configDir, _ := cmd.Flags().GetString("config-dir")
			return cmder.run(cmd.Context(), configDir)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagProvider, &cmder.providerName)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddFloatFlag(cmd, config.Flags, config.FlagTemperature, &cmder.temperature)
	config.AddIntFlag(cmd, config.Flags, config.FlagMaxTokens, &cmder.maxTokens)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print replies as plain text instead of rendered markdown")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, configDir string) error {
	c.logger = logger.New(
		logger.WithPretty(true),
		logger.WithDebug(c.debug),
		logger.WithWriter(os.Stderr),
	)

	name, model, err := config.ChatSelection(c.v, c.modelExplicit)
	if err != nil {
		return err
	}

	key, source, err := c.resolveKey(name, configDir)
	if err != nil {
		return err
	}

	p, err := provider.New(ctx, name, config.ProviderOptions(c.v, name, key))
	if errors.Is(err, llm.ErrMissingCredential) {
		fmt.Fprintf(c.out, "\n  %s\n\n", cliui.NoticeStyle.Render(provider.NoticeForMissingCredential(name)))
		return nil
	}
	if err != nil {
		// A vendor client that cannot be configured with the key stops here.
		return fmt.Errorf("configuring %s: %w", name, err)
	}

	c.logger.Debug("chat session ready",
		"provider", name,
		"model", model,
		"key_source", string(source),
	)

	return c.loop(ctx, p, model)
}

// resolveKey looks in the environment and secrets.toml, then asks on the
// terminal. An empty key with a nil error means the user has none to give.
func (c *chatCommander) resolveKey(name, configDir string) (string, credentials.Source, error) {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return "", credentials.SourceNone, fmt.Errorf("loading credentials: %w", err)
	}

	key, source, err := mgr.Resolve(name)
	if err != nil || key != "" {
		return key, source, err
	}

	f, ok := c.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "", credentials.SourceNone, nil
	}

	key, err = promptForKey(f, c.out, provider.DisplayName(name))
	if err != nil {
		return "", credentials.SourceNone, err
	}
	if key == "" {
		return "", credentials.SourceNone, nil
	}
	return key, credentials.SourcePrompt, nil
}

func promptForKey(f *os.File, w io.Writer, label string) (string, error) {
	fmt.Fprintf(w, "%s API key (input hidden, Enter to skip): ", label)
	raw, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("reading API key: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func (c *chatCommander) loop(ctx context.Context, p provider.Provider, model string) error {
	interactive := isTerminal(c.out)
	session := chat.NewSession(p, model, chat.WithLogger(c.logger))

	fmt.Fprintf(c.out, "\n  %s %s  %s %s\n",
		cliui.KeyStyle.Render("Provider:"),
		cliui.ValueStyle.Render(provider.DisplayName(session.Provider())),
		cliui.KeyStyle.Render("Model:"),
		cliui.ValueStyle.Render(session.Model()),
	)
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /history, /reset, /exit or Ctrl+D."))

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		fmt.Fprint(c.out, cliui.UserStyle.Render("you> "))
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit":
			fmt.Fprintln(c.out)
			return nil
		case "/history":
			c.renderHistory(session.Turns())
			continue
		case "/reset":
			session = chat.NewSession(p, model, chat.WithLogger(c.logger))
			fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Started a fresh conversation."))
			continue
		}

		var turn llm.Turn
		submit := func() error {
			var err error
			turn, err = session.Submit(ctx, input)
			return err
		}

		var err error
		if interactive {
			err = cliui.Spin(c.out, "Thinking...", submit)
		} else {
			err = submit()
		}
		if err != nil {
			return err
		}

		c.renderTurn(turn)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

func (c *chatCommander) renderHistory(turns []llm.Turn) {
	if len(turns) == 0 {
		fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("No messages yet."))
		return
	}

	fmt.Fprintln(c.out)
	for _, t := range turns {
		if t.Role == llm.RoleUser {
			fmt.Fprintf(c.out, "%s%s\n\n", cliui.UserStyle.Render("you> "), t.Text)
			continue
		}
		c.renderTurn(t)
	}
}

func (c *chatCommander) renderTurn(t llm.Turn) {
	fmt.Fprintln(c.out, cliui.AssistantStyle.Render("assistant>"))

	text := t.Text
	switch {
	case strings.HasPrefix(text, chat.ErrorPrefix):
		text = cliui.ErrorStyle.Render(text)
	case !c.plain:
		rendered, err := cliui.RenderMarkdown(text)
		if err != nil {
			c.logger.Debug("markdown rendering failed", "error", err)
		}
		text = strings.TrimRight(rendered, "\n")
	}

	fmt.Fprintf(c.out, "%s\n\n", text)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
