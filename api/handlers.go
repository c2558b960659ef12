package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/parley/pkg/chat"
	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/llm/provider"
	chatweb "github.com/papercomputeco/parley/web/chat"
)

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
	// Notice is set when the session cannot chat until a key is added.
	Notice string `json:"notice,omitempty"`
}

// ProviderInfo describes one selectable vendor.
type ProviderInfo struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"display_name"`
	Models       []string `json:"models"`
	DefaultModel string   `json:"default_model"`
	// ServerKey reports whether the host supplies a key for this vendor.
	ServerKey bool `json:"server_key"`
}

// SessionRequest selects a provider and model, optionally with a key.
type SessionRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	APIKey   string `json:"api_key"`
}

// SessionResponse is the state of the caller's session. The key itself is
// never echoed back.
type SessionResponse struct {
	Provider string     `json:"provider"`
	Model    string     `json:"model"`
	HasKey   bool       `json:"has_key"`
	State    string     `json:"state"`
	Notice   string     `json:"notice,omitempty"`
	Turns    []llm.Turn `json:"turns"`
}

// ChatRequest carries one user message.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the assistant turn produced for a message plus the
// whole conversation after it.
type ChatResponse struct {
	Reply llm.Turn   `json:"reply"`
	Turns []llm.Turn `json:"turns"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	data, err := chatweb.FS.ReadFile("index.html")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "chat page unavailable"})
	}
	c.Type("html", "utf-8")
	return c.Send(data)
}

func (s *Server) handleProviders(c *fiber.Ctx) error {
	names := provider.SupportedProviders()
	infos := make([]ProviderInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, ProviderInfo{
			Name:         name,
			DisplayName:  provider.DisplayName(name),
			Models:       provider.Models(name),
			DefaultModel: provider.DefaultModel(name),
			ServerKey:    s.serverKey(name) != "",
		})
	}
	return c.JSON(infos)
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	ws := s.sessionFor(c)

	ws.mu.Lock()
	defer ws.mu.Unlock()

	return c.JSON(s.describe(ws))
}

// handleConfigureSession selects provider and model and builds the vendor
// client. The conversation so far is carried over to the new selection.
func (s *Server) handleConfigureSession(c *fiber.Ctx) error {
	var req SessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if req.Provider == "" {
		req.Provider = s.config.DefaultProvider
	}
	model, err := provider.ResolveModel(req.Provider, req.Model)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	ws := s.sessionFor(c)

	ws.callMu.Lock()
	defer ws.callMu.Unlock()
	ws.mu.Lock()
	defer ws.mu.Unlock()

	key := strings.TrimSpace(req.APIKey)
	switch {
	case key != "":
	case ws.apiKey != "" && ws.provider == req.Provider:
		key = ws.apiKey
	default:
		key = s.serverKey(req.Provider)
	}

	var history []llm.Turn
	if ws.chat != nil {
		history = ws.chat.Turns()
	}

	ws.provider = req.Provider
	ws.model = model
	ws.apiKey = key
	ws.chat = nil

	p, err := s.newProvider(c.UserContext(), req.Provider, s.config.ProviderOptions(req.Provider, key))
	switch {
	case errors.Is(err, llm.ErrMissingCredential):
		// Stays unconfigured; the notice is part of the response.
	case err != nil:
		s.logger.Warn("configuring provider failed", "provider", req.Provider, "error", err)
		ws.apiKey = ""
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "configuring " + req.Provider + ": " + err.Error()})
	default:
		ws.chat = chat.NewSession(p, model,
			chat.WithLogger(s.logger.With("session", ws.id)),
			chat.WithConversation(llm.NewConversation(history...)),
		)
	}

	s.logger.Debug("session configured",
		"session", ws.id,
		"provider", ws.provider,
		"model", ws.model,
		"has_key", ws.chat != nil,
	)

	return c.JSON(s.describe(ws))
}

// handleResetSession starts a fresh conversation, keeping the selection.
func (s *Server) handleResetSession(c *fiber.Ctx) error {
	ws := s.sessionFor(c)

	ws.callMu.Lock()
	defer ws.callMu.Unlock()
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.chat != nil {
		p, err := s.newProvider(c.UserContext(), ws.provider, s.config.ProviderOptions(ws.provider, ws.apiKey))
		if err != nil {
			ws.chat = nil
		} else {
			ws.chat = chat.NewSession(p, ws.model, chat.WithLogger(s.logger.With("session", ws.id)))
		}
	}

	return c.JSON(s.describe(ws))
}

// handleChat runs one render-loop interaction. Without a key it answers 401
// with the notice and no vendor call is made.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	ws, ok := s.sessions.get(c.Cookies(sessionCookie))
	if !ok {
		notice := provider.NoticeForMissingCredential(s.config.DefaultProvider)
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: notice, Notice: notice})
	}

	// Configure and reset wait on callMu until the reply is appended.
	ws.callMu.Lock()
	defer ws.callMu.Unlock()

	ws.mu.Lock()
	cs := ws.chat
	name := ws.provider
	ws.mu.Unlock()

	if cs == nil {
		notice := provider.NoticeForMissingCredential(name)
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: notice, Notice: notice})
	}

	turn, err := cs.Submit(c.UserContext(), req.Message)
	if errors.Is(err, chat.ErrEmptyInput) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "message is empty"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(ChatResponse{Reply: turn, Turns: cs.Turns()})
}

// sessionFor returns the caller's session, creating one and setting the
// cookie when the browser has none or its session expired.
func (s *Server) sessionFor(c *fiber.Ctx) *webSession {
	if ws, ok := s.sessions.get(c.Cookies(sessionCookie)); ok {
		return ws
	}

	name := s.config.DefaultProvider
	ws := s.sessions.create(name, provider.DefaultModel(name))

	if key := s.serverKey(name); key != "" {
		if p, err := s.newProvider(c.UserContext(), name, s.config.ProviderOptions(name, key)); err == nil {
			ws.apiKey = key
			ws.chat = chat.NewSession(p, ws.model, chat.WithLogger(s.logger.With("session", ws.id)))
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    ws.id,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return ws
}

// describe must be called with ws.mu held.
func (s *Server) describe(ws *webSession) SessionResponse {
	resp := SessionResponse{
		Provider: ws.provider,
		Model:    ws.model,
		HasKey:   ws.chat != nil,
		State:    chat.StateIdle.String(),
		Turns:    []llm.Turn{},
	}
	if ws.chat == nil {
		resp.Notice = provider.NoticeForMissingCredential(ws.provider)
		return resp
	}
	resp.State = ws.chat.State().String()
	resp.Turns = ws.chat.Turns()
	return resp
}

func (s *Server) serverKey(name string) string {
	if s.config.Keys == nil {
		return ""
	}
	key, _, err := s.config.Keys.Resolve(name)
	if err != nil {
		s.logger.Warn("reading server-side key failed", "provider", name, "error", err)
		return ""
	}
	return key
}
