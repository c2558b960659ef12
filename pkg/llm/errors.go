package llm

import "errors"

// ErrMissingCredential is returned when a vendor adapter is requested
// without an API key. It is raised before any outbound call.
var ErrMissingCredential = errors.New("missing API key")
