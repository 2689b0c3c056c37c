package api

import "time"

// Config is the HTTP API configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// SubmitTimeout bounds how long POST /operations waits for the node to
	// acknowledge an operation. Zero waits as long as the client does.
	SubmitTimeout time.Duration
}
