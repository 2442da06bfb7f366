package embeddings

import (
	"context"
	"sync"
)

// MemoizedClient wraps a Client with a per-string in-memory cache. Failed
// lookups are cached as misses so a dead provider is not retried for every
// comparison text within a request.
type MemoizedClient struct {
	inner Client

	mu    sync.RWMutex
	cache map[string][]float32
	// misses records inputs that previously failed; values are never retried
	// within the lifetime of the client.
	misses map[string]struct{}
}

// NewMemoized wraps an embedding client with memoization.
func NewMemoized(inner Client) *MemoizedClient {
	return &MemoizedClient{
		inner:  inner,
		cache:  make(map[string][]float32),
		misses: make(map[string]struct{}),
	}
}

// GetEmbedding returns the cached vector when present, otherwise delegates
// to the wrapped client and caches the outcome.
func (m *MemoizedClient) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.mu.RLock()
	vec, ok := m.cache[text]

	_, missed := m.misses[text]
	m.mu.RUnlock()

	if ok {
		RecordCacheLookup(true)
		return vec, nil
	}

	if missed {
		RecordCacheLookup(true)
		return nil, ErrAllProvidersFailed
	}

	RecordCacheLookup(false)

	vec, err := m.inner.GetEmbedding(ctx, text)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.misses[text] = struct{}{}
		return nil, err
	}

	m.cache[text] = vec

	return vec, nil
}

// Prime stores a precomputed embedding, bypassing the provider. Used when
// refitting the corpus to warm the cache for every description.
func (m *MemoizedClient) Prime(text string, vec []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache[text] = vec
	delete(m.misses, text)
}

// Len returns the number of cached embeddings.
func (m *MemoizedClient) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.cache)
}
