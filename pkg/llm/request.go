package llm

// GenerationConfig holds the fixed generation parameters sent with every
// vendor call.
type GenerationConfig struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// DefaultGenerationConfig mirrors the parameters the chat pages have always
// used: a low temperature and a short reply budget.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature: 0.2,
		MaxTokens:   512,
	}
}
