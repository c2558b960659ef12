package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/papercomputeco/parley/pkg/llm/provider"
)

// providerFactory matches provider.New so tests can swap in fakes.
type providerFactory func(ctx context.Context, name string, opts provider.Options) (provider.Provider, error)

// Server is the web chat server.
type Server struct {
	config      Config
	logger      *slog.Logger
	app         *fiber.App
	sessions    *sessionStore
	newProvider providerFactory

	stopSweep chan struct{}
	stopOnce  sync.Once
}

// NewServer creates a new web chat server.
func NewServer(config Config, logger *slog.Logger) *Server {
	if config.DefaultProvider == "" || !provider.IsSupported(config.DefaultProvider) {
		config.DefaultProvider = provider.Anthropic
	}
	if config.ProviderOptions == nil {
		config.ProviderOptions = func(_, apiKey string) provider.Options {
			return provider.Options{APIKey: apiKey}
		}
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	s := &Server{
		config:      config,
		logger:      logger,
		app:         app,
		sessions:    newSessionStore(config.SessionTTL),
		newProvider: provider.New,
		stopSweep:   make(chan struct{}),
	}

	app.Get("/ping", s.handlePing)
	app.Get("/", s.handleIndex)
	app.Get("/api/providers", s.handleProviders)
	app.Get("/api/session", s.handleGetSession)
	app.Post("/api/session", s.handleConfigureSession)
	app.Delete("/api/session", s.handleResetSession)
	app.Post("/api/chat", s.handleChat)

	return s
}

// Run starts the server on the configured address and evicts idle sessions
// in the background until Shutdown.
func (s *Server) Run() error {
	s.logger.Info("starting web chat server",
		"listen", s.config.ListenAddr,
		"session_ttl", s.config.SessionTTL,
	)

	if s.config.SessionTTL > 0 {
		go s.sweepLoop(sweepInterval(s.config.SessionTTL))
	}

	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.stopOnce.Do(func() { close(s.stopSweep) })
	return s.app.Shutdown()
}

func (s *Server) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopSweep:
			return
		case <-ticker.C:
			if n := s.sessions.sweep(); n > 0 {
				s.logger.Debug("evicted idle sessions", "count", n, "remaining", s.sessions.count())
			}
		}
	}
}

func sweepInterval(ttl time.Duration) time.Duration {
	return min(max(ttl/4, time.Second), time.Minute)
}
