package palm

// palmRequest is the legacy chat request body.
type palmRequest struct {
	Model           string        `json:"model"`
	Messages        []palmMessage `json:"messages"`
	Temperature     float64       `json:"temperature"`
	MaxOutputTokens int           `json:"max_output_tokens"`
}

// palmMessage wraps text in an array of typed content blocks and names the
// speaker "author" rather than "role".
type palmMessage struct {
	Author  string             `json:"author"`
	Content []palmContentBlock `json:"content"`
}

type palmContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
