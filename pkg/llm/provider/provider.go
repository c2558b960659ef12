// Package provider exposes the vendor adapters behind the single call the
// chat render loop makes.
package provider

import (
	"context"

	"github.com/papercomputeco/parley/pkg/llm"
)

// Provider turns a conversation into one blocking vendor call.
type Provider interface {
	// Name returns the canonical provider name ("palm", "gemini", "anthropic").
	Name() string

	// Reply sends the full conversation, newest user turn last, and returns
	// the assistant's text. Shape mismatches in the response never surface
	// as errors; transport failures, non-2xx statuses and vendor-side
	// rejections do.
	Reply(ctx context.Context, turns []llm.Turn, model string) (string, error)
}
