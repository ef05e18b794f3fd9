package llm

import (
	"context"

	"calmnest-api/internal/common"
)

// Provider defines the interface for chat completion backends
type Provider interface {
	// Complete returns the assistant reply for an ordered conversation.
	// The persona system prompt is prepended by the provider.
	Complete(ctx context.Context, history []common.Turn) (string, error)

	// ValidateConfig reports missing or invalid provider settings
	ValidateConfig() error

	// GetModelInfo returns metadata about the model being used
	GetModelInfo() ModelInfo
}

// ModelInfo contains metadata about the LLM model
type ModelInfo struct {
	Name        string  `json:"name"`
	Provider    string  `json:"provider"`
	BaseURL     string  `json:"base_url"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}
