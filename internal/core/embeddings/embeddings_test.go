package embeddings

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/campushub/society-recommender/internal/core/errors"
)

type failingProvider struct {
	calls int
}

func (p *failingProvider) Name() ProviderName { return ProviderOpenAI }
func (p *failingProvider) Priority() int      { return PriorityPrimary }
func (p *failingProvider) Dimensions() int    { return DefaultDimensions }
func (p *failingProvider) IsAvailable() bool  { return true }

func (p *failingProvider) GetEmbedding(_ context.Context, _ string) (EmbeddingResult, error) {
	p.calls++
	return EmbeddingResult{}, errors.New("upstream unavailable")
}

type countingClient struct {
	calls int
	err   error
}

func (c *countingClient) GetEmbedding(_ context.Context, text string) ([]float32, error) {
	c.calls++

	if c.err != nil {
		return nil, c.err
	}

	return []float32{float32(len(text)), 1}, nil
}

func TestMockProviderDeterministic(t *testing.T) {
	provider := NewMockProviderWithDimensions(64)
	ctx := context.Background()

	first, err := provider.GetEmbedding(ctx, "chess society")
	require.NoError(t, err)

	second, err := provider.GetEmbedding(ctx, "chess society")
	require.NoError(t, err)

	assert.Equal(t, first.Vector, second.Vector)
	assert.Len(t, first.Vector, 64)
	assert.Equal(t, ProviderMock, first.Provider)

	other, err := provider.GetEmbedding(ctx, "debate society")
	require.NoError(t, err)
	assert.NotEqual(t, first.Vector, other.Vector)
}

func TestMockProviderVectorsAreNormalized(t *testing.T) {
	provider := NewMockProviderWithDimensions(32)

	result, err := provider.GetEmbedding(context.Background(), "robotics workshop")
	require.NoError(t, err)

	var norm float64
	for _, v := range result.Vector {
		norm += float64(v) * float64(v)
	}

	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-4)
}

func TestPadToTargetDimensions(t *testing.T) {
	vec := []float32{1, 2, 3}

	padded := PadToTargetDimensions(vec, 5)
	assert.Equal(t, []float32{1, 2, 3, 0, 0}, padded)

	truncated := PadToTargetDimensions(vec, 2)
	assert.Equal(t, []float32{1, 2}, truncated)

	same := PadToTargetDimensions(vec, 3)
	assert.Equal(t, vec, same)
}

func TestRegistryPadsToTargetDimension(t *testing.T) {
	logger := zerolog.Nop()

	registry := NewRegistry(128, &logger)
	registry.Register(NewMockProviderWithDimensions(32), DefaultCircuitBreakerConfig())

	vec, err := registry.GetEmbedding(context.Background(), "film club")
	require.NoError(t, err)
	assert.Len(t, vec, 128)
}

func TestRegistryEmpty(t *testing.T) {
	logger := zerolog.Nop()

	registry := NewRegistry(DefaultDimensions, &logger)

	_, err := registry.GetEmbedding(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNoProvidersAvailable)
}

func TestRegistryFallsBackToLowerPriorityProvider(t *testing.T) {
	logger := zerolog.Nop()
	primary := &failingProvider{}

	registry := NewRegistry(64, &logger)
	registry.Register(NewMockProviderWithDimensions(64), DefaultCircuitBreakerConfig())
	registry.Register(primary, DefaultCircuitBreakerConfig())

	require.Equal(t, []ProviderName{ProviderOpenAI, ProviderMock}, registry.ProviderNames())

	vec, err := registry.GetEmbedding(context.Background(), "hiking society")
	require.NoError(t, err)

	assert.Len(t, vec, 64)
	assert.Equal(t, 1, primary.calls, "primary should be tried first")
}

func TestRegistryAllProvidersFailed(t *testing.T) {
	logger := zerolog.Nop()

	registry := NewRegistry(64, &logger)
	registry.Register(&failingProvider{}, DefaultCircuitBreakerConfig())

	_, err := registry.GetEmbedding(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	logger := zerolog.Nop()

	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 3, ResetAfter: time.Hour}, &logger)

	for range 2 {
		cb.RecordFailure(ProviderOpenAI)
	}

	assert.False(t, cb.IsOpen())
	assert.NoError(t, cb.CheckCircuit())

	cb.RecordFailure(ProviderOpenAI)

	assert.True(t, cb.IsOpen())
	assert.True(t, apperrors.Is(cb.CheckCircuit(), apperrors.ErrCircuitBreakerOpen))
}

func TestCircuitBreakerZeroValueConfigStillOpens(t *testing.T) {
	logger := zerolog.Nop()

	cb := NewCircuitBreaker(CircuitBreakerConfig{}, &logger)

	for range defaultCircuitThreshold {
		cb.RecordFailure(ProviderOpenAI)
	}

	assert.True(t, cb.IsOpen())
	assert.True(t, apperrors.Is(cb.CheckCircuit(), apperrors.ErrCircuitBreakerOpen))
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	logger := zerolog.Nop()

	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 2, ResetAfter: time.Hour}, &logger)

	cb.RecordFailure(ProviderOpenAI)
	cb.RecordSuccess()
	cb.RecordFailure(ProviderOpenAI)

	assert.False(t, cb.IsOpen())
}

func TestCircuitBreakerRecoversAfterResetWindow(t *testing.T) {
	logger := zerolog.Nop()

	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 1, ResetAfter: 10 * time.Millisecond}, &logger)

	cb.RecordFailure(ProviderOpenAI)
	require.True(t, cb.IsOpen())

	time.Sleep(20 * time.Millisecond)

	assert.False(t, cb.IsOpen())
	assert.NoError(t, cb.CheckCircuit())
}

func TestMemoizedClientCachesVectors(t *testing.T) {
	inner := &countingClient{}
	client := NewMemoized(inner)
	ctx := context.Background()

	first, err := client.GetEmbedding(ctx, "anime society")
	require.NoError(t, err)

	second, err := client.GetEmbedding(ctx, "anime society")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, client.Len())
}

func TestMemoizedClientCachesMisses(t *testing.T) {
	inner := &countingClient{err: errors.New("provider down")}
	client := NewMemoized(inner)
	ctx := context.Background()

	_, err := client.GetEmbedding(ctx, "anime society")
	require.Error(t, err)

	_, err = client.GetEmbedding(ctx, "anime society")
	require.ErrorIs(t, err, ErrAllProvidersFailed)

	assert.Equal(t, 1, inner.calls, "a failed input is not retried")
}

func TestMemoizedClientPrime(t *testing.T) {
	inner := &countingClient{err: errors.New("provider down")}
	client := NewMemoized(inner)

	client.Prime("board games", []float32{0.5, 0.5})

	vec, err := client.GetEmbedding(context.Background(), "board games")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.5, 0.5}, vec)
	assert.Zero(t, inner.calls)
	assert.Equal(t, 1, client.Len())
}
