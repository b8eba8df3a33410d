// Package providers defines the contract shared by the LLM backends used for
// metadata extraction.
package providers

import (
	"context"
	"errors"
)

// ErrMissingAPIKey is returned by hosted providers when no key is configured.
var ErrMissingAPIKey = errors.New("api key not set")

// Config represents the configuration for an LLM provider
type Config struct {
	Model        string
	Temperature  float64
	SystemPrompt string
	Prompt       string
	// JSON asks the backend to constrain output to a JSON object.
	JSON bool
}

// Provider defines the interface for an LLM provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}
