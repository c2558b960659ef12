// Package anthropic adapts a conversation to Anthropic's HTTP Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/llm/provider/besteffort"
	"github.com/papercomputeco/parley/pkg/utils"
)

const (
	// Name is the provider name used in config and on the command line.
	Name = "anthropic"

	DefaultEndpoint = "https://api.anthropic.com/v1/messages"
	DefaultVersion  = "2023-06-01"
	DefaultTimeout  = 60 * time.Second

	// UnexpectedFormat is the reply used when the response carries neither
	// text content nor an error message.
	UnexpectedFormat = "Unexpected response format from Claude API."

	maxResponseBytes = 8 << 20
)

// ErrHTTPStatus wraps every non-2xx response.
var ErrHTTPStatus = errors.New("anthropic returned non-2xx status")

// Config configures the Anthropic adapter.
type Config struct {
	APIKey     string
	Endpoint   string
	Version    string
	Generation llm.GenerationConfig

	// Timeout bounds each call. Ignored when HTTPClient is set.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Provider sends conversations to the Messages endpoint.
type Provider struct {
	apiKey     string
	endpoint   string
	version    string
	generation llm.GenerationConfig
	httpClient *http.Client
	extractor  *besteffort.Chain
	logger     *slog.Logger
}

// New creates an Anthropic adapter. A blank API key is rejected with
// llm.ErrMissingCredential.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, llm.ErrMissingCredential
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Provider{
		apiKey:     cfg.APIKey,
		endpoint:   cfg.Endpoint,
		version:    cfg.Version,
		generation: cfg.Generation,
		httpClient: client,
		extractor:  newExtractor(cfg.Logger),
		logger:     cfg.Logger,
	}, nil
}

// Name
func (p *Provider) Name() string {
	return Name
}

// Reply posts the whole conversation and returns the assistant's text.
func (p *Provider) Reply(ctx context.Context, turns []llm.Turn, model string) (string, error) {
	body, err := json.Marshal(buildRequest(turns, model, p.generation))
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", p.version)

	p.logger.Debug("sending anthropic request",
		"model", model,
		"turn_count", len(turns),
	)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request to anthropic: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %d %s: %s",
			ErrHTTPStatus,
			resp.StatusCode,
			http.StatusText(resp.StatusCode),
			utils.Truncate(string(respBody), 512),
		)
	}

	result := p.extractor.Extract(respBody)
	p.logger.Debug("extracted anthropic reply",
		"model", model,
		"strategy", result.Strategy,
	)

	return result.Text, nil
}

func buildRequest(turns []llm.Turn, model string, gen llm.GenerationConfig) anthropicRequest {
	messages := make([]anthropicMessage, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, anthropicMessage{
			Role:    string(t.Role),
			Content: t.Text,
		})
	}

	return anthropicRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   gen.MaxTokens,
		Temperature: gen.Temperature,
	}
}

// newExtractor reads content[0].text when the first block is text, then an
// error.message, and otherwise settles on UnexpectedFormat.
func newExtractor(logger *slog.Logger) *besteffort.Chain {
	return besteffort.NewChain([]besteffort.Strategy{
		{
			Name: "content_text",
			Extract: func(payload []byte) (string, error) {
				first := gjson.GetBytes(payload, "content.0")
				if first.Get("type").String() != "text" {
					return "", besteffort.ErrNoText
				}
				return first.Get("text").String(), nil
			},
		},
		{
			Name: "error_message",
			Extract: func(payload []byte) (string, error) {
				msg := gjson.GetBytes(payload, "error.message").String()
				if msg == "" {
					return "", besteffort.ErrNoText
				}
				return "Claude API error: " + msg, nil
			},
		},
	},
		besteffort.WithPlaceholder(UnexpectedFormat),
		besteffort.WithLogger(logger),
	)
}
