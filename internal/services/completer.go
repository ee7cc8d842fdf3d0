package services

import (
	"context"
	"fmt"

	"charachat/internal/config"
)

// Completer sends a single user turn to a chat-completion API and returns the
// content of the first choice, which may be empty.
type Completer interface {
	Complete(ctx context.Context, message string) (string, error)
}

// NewCompleter builds the completer selected by cfg. Without a credential it
// returns ErrNotConfigured and a nil Completer; the relay then answers every
// call with the misconfiguration error instead of refusing to start.
func NewCompleter(ctx context.Context, cfg *config.Config) (Completer, error) {
	if !cfg.CredentialConfigured() {
		return nil, ErrNotConfigured
	}

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return NewOpenAICompleter(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, nil), nil
	case config.ProviderGemini:
		gc, err := NewGeminiCompleter(ctx, cfg.LLMAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		return gc, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.LLMProvider)
	}
}
