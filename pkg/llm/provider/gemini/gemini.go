// Package gemini adapts a conversation to a Gemini chat session.
//
// Each call seeds a fresh chat session with every prior turn and sends the
// newest user turn as the single new message. Gemini names the assistant
// role "model"; the user role is passed through unchanged.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/llm/provider/besteffort"
)

const (
	// Name is the provider name used in config and on the command line.
	Name = "gemini"

	DefaultTimeout = 60 * time.Second
)

// ErrNoUserTurn is returned when the conversation has nothing to send.
var ErrNoUserTurn = errors.New("conversation has no user turn to send")

// Config configures the Gemini adapter.
type Config struct {
	APIKey string

	// BaseURL overrides the Gemini API base URL. Empty uses the SDK default.
	BaseURL    string
	Generation llm.GenerationConfig
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// chatSession is the part of *genai.Chat the adapter uses.
type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// sessionFactory opens a chat session seeded with history.
type sessionFactory func(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)

// Provider sends conversations through genai chat sessions.
type Provider struct {
	generation llm.GenerationConfig
	newSession sessionFactory
	extractor  *besteffort.Chain
	logger     *slog.Logger
}

// New creates a Gemini adapter backed by a genai client. A blank API key is
// rejected with llm.ErrMissingCredential; any other error means the client
// could not be configured.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, llm.ErrMissingCredential
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("configuring gemini client: %w", err)
	}

	factory := func(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
		chat, err := client.Chats.Create(ctx, model, config, history)
		if err != nil {
			return nil, err
		}
		return chat, nil
	}

	return newProvider(cfg, factory), nil
}

func newProvider(cfg Config, factory sessionFactory) *Provider {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	// parts is the documented Gemini shape, so it goes first.
	strategies := []besteffort.Strategy{
		besteffort.CandidateParts(),
		besteffort.OutputText(),
		besteffort.CandidateContentBlocks(),
		besteffort.OutputField(),
		besteffort.Raw(),
	}

	return &Provider{
		generation: cfg.Generation,
		newSession: factory,
		extractor:  besteffort.NewChain(strategies, besteffort.WithLogger(cfg.Logger)),
		logger:     cfg.Logger,
	}
}

// Name
func (p *Provider) Name() string {
	return Name
}

// Reply opens a session seeded with every turn but the last, then sends the
// last turn's text.
func (p *Provider) Reply(ctx context.Context, turns []llm.Turn, model string) (string, error) {
	if len(turns) == 0 {
		return "", ErrNoUserTurn
	}

	history := buildHistory(turns[:len(turns)-1])
	message := turns[len(turns)-1].Text

	p.logger.Debug("starting gemini chat session",
		"model", model,
		"history_len", len(history),
	)

	session, err := p.newSession(ctx, model, p.generationConfig(), history)
	if err != nil {
		return "", fmt.Errorf("starting gemini chat: %w", err)
	}

	resp, err := session.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", fmt.Errorf("sending gemini message: %w", err)
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		p.logger.Debug("could not marshal gemini response", "error", err)
		payload = []byte(fmt.Sprintf("%+v", resp))
	}

	result := p.extractor.Extract(payload)
	p.logger.Debug("extracted gemini reply",
		"model", model,
		"strategy", result.Strategy,
	)

	return result.Text, nil
}

func (p *Provider) generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(p.generation.Temperature)),
		MaxOutputTokens: int32(p.generation.MaxTokens),
	}
}

// buildHistory converts turns into genai contents, renaming assistant to model.
func buildHistory(turns []llm.Turn) []*genai.Content {
	history := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		history = append(history, genai.NewContentFromText(t.Text, roleFor(t.Role)))
	}
	return history
}

func roleFor(r llm.Role) genai.Role {
	if r == llm.RoleAssistant {
		return genai.RoleModel
	}
	return genai.Role(r)
}
