// Package embeddings provides text embedding generation with provider
// fallback, circuit breaking, and per-string memoization.
//
// Providers:
//   - OpenAI text-embedding-3-small / text-embedding-3-large
//   - A deterministic mock provider for tests and offline development
//
// The analyzer treats embeddings as an optional signal: when no provider is
// configured (or all fail), callers receive an error and degrade to lexical
// similarity only.
package embeddings

import (
	"context"

	"github.com/rs/zerolog"
)

// Client defines the interface for embedding operations.
type Client interface {
	// GetEmbedding generates an embedding for the given text.
	// Returns a vector with consistent dimensions (1536 by default).
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Ensure Registry implements Client interface.
var _ Client = (*Registry)(nil)

// Config holds configuration for creating an embedding client.
type Config struct {
	// OpenAI settings
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIDimensions int
	OpenAIRateLimit  int

	// UseMock registers the deterministic mock provider regardless of
	// other configuration. Intended for tests and local development.
	UseMock bool

	// Circuit breaker settings
	CircuitBreakerConfig CircuitBreakerConfig

	// Target dimensions for output vectors
	TargetDimensions int
}

// NewClient creates a new embedding client with configured providers, or nil
// when no provider is configured. A nil client is a valid state: the caller
// runs without the embedding signal.
func NewClient(cfg Config, logger *zerolog.Logger) Client {
	if cfg.TargetDimensions == 0 {
		cfg.TargetDimensions = DefaultDimensions
	}

	registry := NewRegistry(cfg.TargetDimensions, logger)

	if cfg.OpenAIAPIKey != "" {
		registry.Register(NewOpenAIProvider(OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			Dimensions: cfg.OpenAIDimensions,
			RateLimit:  cfg.OpenAIRateLimit,
		}), cfg.CircuitBreakerConfig)
	}

	if cfg.UseMock {
		registry.Register(NewMockProviderWithDimensions(cfg.TargetDimensions), cfg.CircuitBreakerConfig)
	}

	if registry.ProviderCount() == 0 {
		logger.Warn().Msg("no embedding providers configured, running without embedding signal")

		return nil
	}

	return NewMemoized(registry)
}
