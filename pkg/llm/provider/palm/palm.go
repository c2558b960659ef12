// Package palm adapts a conversation to the legacy PaLM-style chat endpoint.
package palm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/llm/provider/besteffort"
	"github.com/papercomputeco/parley/pkg/utils"
)

const (
	// Name is the provider name used in config and on the command line.
	Name = "palm"

	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta2"
	DefaultTimeout  = 60 * time.Second

	maxResponseBytes = 8 << 20
)

// ErrHTTPStatus wraps every non-2xx response.
var ErrHTTPStatus = errors.New("palm returned non-2xx status")

// Config configures the legacy chat adapter.
type Config struct {
	APIKey     string
	Endpoint   string
	Generation llm.GenerationConfig
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Provider sends conversations to {endpoint}/{model}:generateMessage.
type Provider struct {
	apiKey     string
	endpoint   string
	generation llm.GenerationConfig
	httpClient *http.Client
	extractor  *besteffort.Chain
	logger     *slog.Logger
}

// New creates a legacy chat adapter. A blank API key is rejected with
// llm.ErrMissingCredential.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, llm.ErrMissingCredential
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
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
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		generation: cfg.Generation,
		httpClient: client,
		extractor:  besteffort.New(besteffort.WithLogger(cfg.Logger)),
		logger:     cfg.Logger,
	}, nil
}

// Name
func (p *Provider) Name() string {
	return Name
}

// Reply sends the whole conversation and extracts the reply with the default
// best-effort strategy order.
func (p *Provider) Reply(ctx context.Context, turns []llm.Turn, model string) (string, error) {
	body, err := json.Marshal(buildRequest(turns, model, p.generation))
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := p.endpoint + "/" + strings.TrimLeft(model, "/") + ":generateMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	p.logger.Debug("sending palm request",
		"model", model,
		"turn_count", len(turns),
	)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request to palm: %w", err)
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
	p.logger.Debug("extracted palm reply",
		"model", model,
		"strategy", result.Strategy,
	)

	return result.Text, nil
}

func buildRequest(turns []llm.Turn, model string, gen llm.GenerationConfig) palmRequest {
	messages := make([]palmMessage, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, palmMessage{
			Author:  string(t.Role),
			Content: []palmContentBlock{{Type: "text", Text: t.Text}},
		})
	}

	return palmRequest{
		Model:           model,
		Messages:        messages,
		Temperature:     gen.Temperature,
		MaxOutputTokens: gen.MaxTokens,
	}
}
