// Package servecmder provides the serve command that runs the browser chat
// server.
package servecmder

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/parley/api"
	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/credentials"
	"github.com/papercomputeco/parley/pkg/llm/provider"
	"github.com/papercomputeco/parley/pkg/logger"
)

type ServeCommander struct {
	listen       string
	sessionTTL   string
	providerName string
	logFile      string
	debug        bool
	configDir    string

	v      *viper.Viper
	logger *slog.Logger
}

const serveLongDesc string = `Run the browser chat server.

Each browser gets its own in-memory session identified by a cookie. A
session picks a provider and model, brings an API key (or uses one the host
provides through the environment or secrets.toml), and keeps its
conversation until it is idle for longer than --session-ttl or the server
stops. Nothing is written to disk.

Examples:
  parley serve
  parley serve --listen :9000 --session-ttl 30m
  parley serve --log-file parley.log`

const serveShortDesc string = "Run the browser chat server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagListen,
				config.FlagSessionTTL,
				config.FlagProvider,
			})
			cmder.v = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagSessionTTL, &cmder.sessionTTL)
	config.AddStringFlag(cmd, config.Flags, config.FlagProvider, &cmder.providerName)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

func (c *ServeCommander) run() error {
	var (
		closeLog func() error
		err      error
	)
	c.logger, closeLog, err = c.newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	defaultProvider := c.v.GetString("chat.provider")
	if !provider.IsSupported(defaultProvider) {
		return fmt.Errorf("%w: %q", provider.ErrUnknownProvider, defaultProvider)
	}

	keys, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	hosted, err := keys.Configured()
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	c.logger.Info("server-side keys", "providers", hosted)

	server := api.NewServer(api.Config{
		ListenAddr:      c.v.GetString("server.listen"),
		SessionTTL:      config.SessionTTL(c.v),
		DefaultProvider: defaultProvider,
		ProviderOptions: func(name, apiKey string) provider.Options {
			opts := config.ProviderOptions(c.v, name, apiKey)
			opts.Logger = c.logger.With("provider", name)
			return opts
		},
		Keys: keys,
	}, c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}

// newLogger writes pretty logs to stdout and, with --log-file, JSON to the
// file as well. The returned func closes the file.
func (c *ServeCommander) newLogger() (*slog.Logger, func() error, error) {
	pretty := logger.New(logger.WithPretty(true), logger.WithDebug(c.debug))
	if c.logFile == "" {
		return pretty, func() error { return nil }, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	return logger.Multi(pretty, logger.New(
		logger.WithJSON(true),
		logger.WithDebug(c.debug),
		logger.WithWriter(f),
	)), f.Close, nil
}
