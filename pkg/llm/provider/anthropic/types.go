package anthropic

// anthropicRequest is the Messages API request body.
type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
}

// anthropicMessage carries a flat string content, which the Messages API
// accepts in place of an array of content blocks.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
