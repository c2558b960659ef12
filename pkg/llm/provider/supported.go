package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/parley/pkg/llm/provider/gemini"
	"github.com/papercomputeco/parley/pkg/llm/provider/palm"
)

// Supported provider type constants
const (
	PaLM      = palm.Name
	Gemini    = gemini.Name
	Anthropic = anthropic.Name
)

// ErrUnknownProvider is returned for provider names outside SupportedProviders.
var ErrUnknownProvider = errors.New("unknown provider")

// Options carries everything a vendor adapter may need. Fields a vendor
// does not use are ignored.
type Options struct {
	APIKey string

	// Endpoint overrides the vendor URL (the Messages URL for anthropic, the
	// API base for palm and gemini).
	Endpoint         string
	AnthropicVersion string

	Generation llm.GenerationConfig
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{PaLM, Gemini, Anthropic}
}

// IsSupported reports whether name is a known provider.
func IsSupported(name string) bool {
	return slices.Contains(SupportedProviders(), name)
}

// New creates the adapter for the named provider. A blank API key yields
// llm.ErrMissingCredential and no client is built.
func New(ctx context.Context, name string, opts Options) (Provider, error) {
	if !IsSupported(name) {
		return nil, fmt.Errorf("%w: %q (supported: %v)", ErrUnknownProvider, name, SupportedProviders())
	}
	if opts.APIKey == "" {
		return nil, llm.ErrMissingCredential
	}

	var (
		p   Provider
		err error
	)

	switch name {
	case PaLM:
		p, err = palm.New(palm.Config{
			APIKey:     opts.APIKey,
			Endpoint:   opts.Endpoint,
			Generation: opts.Generation,
			Timeout:    opts.Timeout,
			HTTPClient: opts.HTTPClient,
			Logger:     opts.Logger,
		})
	case Gemini:
		p, err = gemini.New(ctx, gemini.Config{
			APIKey:     opts.APIKey,
			BaseURL:    opts.Endpoint,
			Generation: opts.Generation,
			Timeout:    opts.Timeout,
			HTTPClient: opts.HTTPClient,
			Logger:     opts.Logger,
		})
	default:
		p, err = anthropic.New(anthropic.Config{
			APIKey:     opts.APIKey,
			Endpoint:   opts.Endpoint,
			Version:    opts.AnthropicVersion,
			Generation: opts.Generation,
			Timeout:    opts.Timeout,
			HTTPClient: opts.HTTPClient,
			Logger:     opts.Logger,
		})
	}
	if err != nil {
		return nil, err
	}

	return p, nil
}

// DisplayName returns the human-facing vendor name.
func DisplayName(name string) string {
	switch name {
	case PaLM:
		return "PaLM"
	case Gemini:
		return "Gemini"
	case Anthropic:
		return "Anthropic"
	default:
		return name
	}
}

// NoticeForMissingCredential is the inline notice shown in place of the chat
// while no API key is available.
func NoticeForMissingCredential(name string) string {
	label := DisplayName(name)
	if name == Gemini {
		// Gemini keys are issued as Google API keys.
		label = "Gemini / Google"
	}
	return fmt.Sprintf("Please add your %s API key to continue.", label)
}
