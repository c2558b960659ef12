// Package chatweb embeds the single-page browser chat served at "/".
package chatweb

import "embed"

//go:embed index.html
var FS embed.FS
