// Package besteffort extracts reply text from vendor responses whose shape is
// only loosely known. Extraction is an ordered list of strategies; each one
// may fail on its own and the chain moves on to the next.
package besteffort

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"
)

// Placeholder is returned when no strategy produced any text.
const Placeholder = "<no text in response>"

// PlaceholderStrategy names the implicit final step in a Result.
const PlaceholderStrategy = "placeholder"

// ErrNoText signals that a strategy found nothing usable in the payload.
var ErrNoText = errors.New("no text found")

// Strategy is one way of pulling reply text out of a raw payload.
type Strategy struct {
	Name    string
	Extract func(payload []byte) (string, error)
}

// Result is the outcome of running a Chain.
type Result struct {
	Text     string
	Strategy string
}

// Chain tries its strategies in order and returns the first non-empty text.
type Chain struct {
	strategies  []Strategy
	placeholder string
	logger      *slog.Logger
}

// Option configures a Chain.
type Option func(*Chain)

// WithLogger sets the logger used to report strategy failures at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Chain) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPlaceholder overrides the text returned when every strategy fails.
func WithPlaceholder(p string) Option {
	return func(c *Chain) {
		c.placeholder = p
	}
}

// NewChain builds a chain from the given strategies, tried in order.
func NewChain(strategies []Strategy, opts ...Option) *Chain {
	c := &Chain{
		strategies:  strategies,
		placeholder: Placeholder,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// New returns a chain using DefaultStrategies.
func New(opts ...Option) *Chain {
	return NewChain(DefaultStrategies(), opts...)
}

// Strategies returns the names of the chain's strategies in the order they
// are tried.
func (c *Chain) Strategies() []string {
	names := make([]string, 0, len(c.strategies))
	for _, s := range c.strategies {
		names = append(names, s.Name)
	}
	return names
}

// Extract runs the strategies in order. It never fails: when nothing yields
// text the placeholder is returned.
func (c *Chain) Extract(payload []byte) Result {
	for _, s := range c.strategies {
		text, err := run(s, payload)
		if err != nil {
			c.logger.Debug("extraction strategy failed",
				"strategy", s.Name,
				"error", err,
			)
			continue
		}
		if text == "" {
			continue
		}
		return Result{Text: text, Strategy: s.Name}
	}
	return Result{Text: c.placeholder, Strategy: PlaceholderStrategy}
}

// run isolates a single strategy so a panic inside it degrades to an error.
func run(s Strategy, payload []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("strategy %s panicked: %v", s.Name, r)
		}
	}()
	return s.Extract(payload)
}

// DefaultStrategies is the fallback order for chat-style vendor responses:
// a direct output_text field, then the candidate structures, then output.text,
// and finally the whole payload as a string.
func DefaultStrategies() []Strategy {
	return []Strategy{
		OutputText(),
		CandidateContentBlocks(),
		CandidateContentString(),
		CandidateParts(),
		OutputField(),
		Raw(),
	}
}

// OutputText reads a top-level "output_text" string.
func OutputText() Strategy {
	return Strategy{
		Name:    "output_text",
		Extract: func(payload []byte) (string, error) { return stringAt(payload, "output_text") },
	}
}

// CandidateContentBlocks joins the text blocks of candidates[0].content when
// it is an array of {"type":"text","text":...} blocks.
func CandidateContentBlocks() Strategy {
	return Strategy{
		Name: "candidate_content_blocks",
		Extract: func(payload []byte) (string, error) {
			content, err := lookup(payload, "candidates.0.content")
			if err != nil {
				return "", err
			}
			if !content.IsArray() {
				return "", fmt.Errorf("candidates.0.content is %s, not an array", content.Type)
			}
			return joinTextBlocks(content, "\n")
		},
	}
}

// CandidateContentString reads candidates[0].content when it is a plain string,
// the shape the legacy chat endpoint returns.
func CandidateContentString() Strategy {
	return Strategy{
		Name:    "candidate_content_string",
		Extract: func(payload []byte) (string, error) { return stringAt(payload, "candidates.0.content") },
	}
}

// CandidateParts concatenates candidates[0].content.parts[].text, the Gemini
// response shape.
func CandidateParts() Strategy {
	return Strategy{
		Name: "candidate_parts",
		Extract: func(payload []byte) (string, error) {
			parts, err := lookup(payload, "candidates.0.content.parts")
			if err != nil {
				return "", err
			}
			if !parts.IsArray() {
				return "", fmt.Errorf("candidates.0.content.parts is %s, not an array", parts.Type)
			}

			var b strings.Builder
			for _, part := range parts.Array() {
				b.WriteString(part.Get("text").String())
			}
			if b.Len() == 0 {
				return "", ErrNoText
			}
			return b.String(), nil
		},
	}
}

// OutputField reads output.text.
func OutputField() Strategy {
	return Strategy{
		Name:    "output_field",
		Extract: func(payload []byte) (string, error) { return stringAt(payload, "output.text") },
	}
}

// Raw returns the whole payload as a string. It only fails on an empty body.
func Raw() Strategy {
	return Strategy{
		Name: "raw",
		Extract: func(payload []byte) (string, error) {
			text := strings.TrimSpace(string(payload))
			if text == "" {
				return "", ErrNoText
			}
			return text, nil
		},
	}
}

// lookup validates the payload and resolves a gjson path in it.
func lookup(payload []byte, path string) (gjson.Result, error) {
	if !gjson.ValidBytes(payload) {
		return gjson.Result{}, errors.New("payload is not valid JSON")
	}
	r := gjson.GetBytes(payload, path)
	if !r.Exists() {
		return gjson.Result{}, fmt.Errorf("%s: %w", path, ErrNoText)
	}
	return r, nil
}

// stringAt resolves path and requires the value to be a JSON string.
func stringAt(payload []byte, path string) (string, error) {
	r, err := lookup(payload, path)
	if err != nil {
		return "", err
	}
	if r.Type != gjson.String {
		return "", fmt.Errorf("%s is %s, not a string", path, r.Type)
	}
	return r.String(), nil
}

// joinTextBlocks joins the non-empty text of every {"type":"text"} block.
func joinTextBlocks(blocks gjson.Result, sep string) (string, error) {
	var texts []string
	for _, block := range blocks.Array() {
		if block.Get("type").String() != "text" {
			continue
		}
		if t := block.Get("text").String(); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return "", ErrNoText
	}
	return strings.Join(texts, sep), nil
}
