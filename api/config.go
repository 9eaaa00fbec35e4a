// Package api provides the local HTTP daemon that popup shells and editor
// plugins talk to for streaming answers.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., "127.0.0.1:8787")
	ListenAddr string
}
