// Package textsim computes composite text similarity scores for society
// descriptions: TF-IDF cosine, embedding cosine, keyword overlap, and
// Jaccard index blended with fixed weights, enhanced with a semantic domain
// boost and a non-linear score transform.
//
// Every sub-computation degrades instead of failing: a missing embedding
// backend, an unfitted corpus, or a provider error reduce fidelity but never
// surface an error from CalculateSimilarity.
package textsim

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/campushub/society-recommender/internal/core/embeddings"
	"github.com/campushub/society-recommender/internal/core/textprep"
	"github.com/campushub/society-recommender/internal/platform/observability"
)

// Component blend weights; they sum to 1.0. When the embedding signal is
// unavailable its weight is redistributed proportionally over the rest.
const (
	tfidfWeight     = 0.40
	embeddingWeight = 0.25
	keywordWeight   = 0.20
	jaccardWeight   = 0.15
)

// Score transform shape (see transformScore).
const (
	saturationThreshold = 0.9
	lowScoreThreshold   = 0.3
	lowScoreMultiplier  = 1.5
)

// MaxScore is the upper bound of the similarity scale.
const MaxScore = 5.0

const defaultKeywordLimit = 10

// Metric outcome labels.
const (
	outcomeOK        = "ok"
	outcomeEmpty     = "empty_input"
	outcomeIdentical = "identical"
	outcomeFallback  = "jaccard_fallback"
)

const componentTextsim = "textsim"

// Seed descriptions used when the corpus would otherwise be empty, so the
// vectorizer always has a fitted vocabulary.
var placeholderDescriptions = []string{
	"student society for academic and social activities",
	"a community of students sharing a common interest",
	"weekly meetings workshops and social events for members",
	"competitions trips and guest speaker events",
}

// Config holds analyzer tunables.
type Config struct {
	// StatePath is where the fitted corpus state is persisted. Empty
	// disables persistence.
	StatePath string

	// KeywordLimit is the number of top terms used for keyword overlap.
	KeywordLimit int

	// SemanticBoostCap scales the additive semantic boost contribution.
	SemanticBoostCap float64
}

// Booster supplies the semantic domain boost; satisfied by semantic.Enhancer.
type Booster interface {
	Boost(text1, text2 string) float64
}

// Analyzer computes composite similarity scores over a fitted corpus.
// UpdateCorpus must not run concurrently with scoring calls unless the host
// serializes them; the internal lock only protects the corpus swap itself.
type Analyzer struct {
	cfg      Config
	embedder embeddings.Client // nil when no backend is configured
	booster  Booster
	logger   *zerolog.Logger

	mu     sync.RWMutex
	corpus *Corpus
}

// NewAnalyzer creates an analyzer. embedder may be nil; booster may be nil
// to disable the semantic boost term.
func NewAnalyzer(cfg Config, embedder embeddings.Client, booster Booster, logger *zerolog.Logger) *Analyzer {
	if cfg.KeywordLimit <= 0 {
		cfg.KeywordLimit = defaultKeywordLimit
	}

	return &Analyzer{
		cfg:      cfg,
		embedder: embedder,
		booster:  booster,
		logger:   logger,
	}
}

// CalculateSimilarity returns the best composite similarity in [0, MaxScore]
// between text and the comparison texts. Empty input on either side yields 0;
// an exact match after preprocessing yields exactly MaxScore.
func (a *Analyzer) CalculateSimilarity(ctx context.Context, text string, comparisons []string) float64 {
	if text == "" || len(comparisons) == 0 {
		observability.SimilarityComputations.WithLabelValues(outcomeEmpty).Inc()
		return 0
	}

	targetTokens := textprep.Tokenize(text)
	if len(targetTokens) == 0 {
		observability.SimilarityComputations.WithLabelValues(outcomeEmpty).Inc()
		return 0
	}

	targetKey := joinTokens(targetTokens)

	var best float64

	for _, comparison := range comparisons {
		if comparison == "" {
			continue
		}

		compTokens := textprep.Tokenize(comparison)
		if len(compTokens) == 0 {
			continue
		}

		if joinTokens(compTokens) == targetKey {
			observability.SimilarityComputations.WithLabelValues(outcomeIdentical).Inc()
			return MaxScore
		}

		score := a.scorePair(ctx, text, targetTokens, comparison, compTokens)
		if score > best {
			best = score
		}
	}

	observability.SimilarityComputations.WithLabelValues(outcomeOK).Inc()

	return best
}

// scorePair computes the blended score for one comparison text, scaled to
// [0, MaxScore]. A failed TF-IDF path falls back to pure Jaccard.
func (a *Analyzer) scorePair(ctx context.Context, text string, targetTokens []string, comparison string, compTokens []string) float64 {
	jaccard := textprep.Jaccard(toSet(targetTokens), toSet(compTokens))

	corpus := a.snapshot()
	if corpus == nil {
		// No fitted vectorizer: Jaccard is the only trustworthy lexical signal.
		observability.Degradations.WithLabelValues(componentTextsim, "corpus_unfitted").Inc()
		observability.SimilarityComputations.WithLabelValues(outcomeFallback).Inc()

		return clamp01(jaccard) * MaxScore
	}

	tfidf := CosineSimilarity(corpus.Vectorize(targetTokens), corpus.Vectorize(compTokens))

	keyword := textprep.OverlapRatio(
		corpus.TopTerms(targetTokens, a.cfg.KeywordLimit),
		corpus.TopTerms(compTokens, a.cfg.KeywordLimit),
	)

	embedding, haveEmbedding := a.embeddingSimilarity(ctx, text, comparison)

	blended := tfidfWeight*tfidf + keywordWeight*keyword + jaccardWeight*jaccard
	if haveEmbedding {
		blended += embeddingWeight * embedding
	} else {
		// Redistribute the embedding weight proportionally.
		blended /= 1.0 - embeddingWeight
	}

	if a.booster != nil && a.cfg.SemanticBoostCap > 0 {
		blended += a.cfg.SemanticBoostCap * a.booster.Boost(text, comparison)
	}

	return transformScore(clamp01(blended)) * MaxScore
}

// embeddingSimilarity returns the cosine similarity of the two texts'
// embeddings, or false when the backend is absent or failing.
func (a *Analyzer) embeddingSimilarity(ctx context.Context, text1, text2 string) (float64, bool) {
	if a.embedder == nil {
		return 0, false
	}

	vec1, err := a.embedder.GetEmbedding(ctx, text1)
	if err != nil {
		observability.Degradations.WithLabelValues(componentTextsim, "embedding_unavailable").Inc()
		a.logger.Debug().Err(err).Msg("embedding lookup failed, dropping embedding term")

		return 0, false
	}

	vec2, err := a.embedder.GetEmbedding(ctx, text2)
	if err != nil {
		observability.Degradations.WithLabelValues(componentTextsim, "embedding_unavailable").Inc()

		return 0, false
	}

	return clamp01(CosineSimilarityVec(vec1, vec2)), true
}

// ExtractKeywords returns the top-weighted vocabulary terms for the text
// under the fitted vectorizer. Empty input or an unfitted corpus yields nil.
func (a *Analyzer) ExtractKeywords(text string) []string {
	if text == "" {
		return nil
	}

	corpus := a.snapshot()
	if corpus == nil {
		observability.Degradations.WithLabelValues(componentTextsim, "corpus_unfitted").Inc()
		return nil
	}

	return corpus.TopTerms(textprep.Tokenize(text), a.cfg.KeywordLimit)
}

// UpdateCorpus refits the vectorizer over the supplied descriptions
// (deduplicated after preprocessing). An empty list seeds the corpus with
// placeholder descriptions so the vectorizer stays fitted. When an embedding
// backend is present, embeddings for every description are precomputed so
// later scoring calls hit the memoization cache. The fitted state is
// persisted best-effort as a side effect.
func (a *Analyzer) UpdateCorpus(ctx context.Context, descriptions []string) {
	docs := preprocessCorpus(descriptions)
	if len(docs) == 0 {
		docs = preprocessCorpus(placeholderDescriptions)
	}

	a.mu.RLock()
	fitted := a.corpus
	a.mu.RUnlock()

	if corpusUnchanged(fitted, docs) {
		a.logger.Debug().Int("documents", len(docs)).Msg("corpus unchanged, skipping refit")
		return
	}

	corpus := NewCorpus(docs)

	a.mu.Lock()
	a.corpus = corpus
	a.mu.Unlock()

	observability.CorpusSize.Set(float64(corpus.Size()))

	if a.embedder != nil {
		for _, description := range descriptions {
			if description == "" {
				continue
			}

			if _, err := a.embedder.GetEmbedding(ctx, description); err != nil {
				observability.Degradations.WithLabelValues(componentTextsim, "embedding_precompute").Inc()
				a.logger.Debug().Err(err).Msg("embedding precompute failed")

				break
			}
		}
	}

	if err := a.SaveState(); err != nil {
		observability.Degradations.WithLabelValues(componentTextsim, "state_save_failed").Inc()
		a.logger.Warn().Err(err).Msg("failed to persist vectorizer state")
	}

	a.logger.Info().
		Int("documents", corpus.Size()).
		Int("vocabulary", corpus.VocabularySize()).
		Msg("similarity corpus refitted")
}

// Fitted reports whether the analyzer has a usable corpus.
func (a *Analyzer) Fitted() bool {
	return a.snapshot() != nil
}

func (a *Analyzer) snapshot() *Corpus {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.corpus
}

// transformScore applies the non-linear transform on [0, 1]: scores above
// the saturation threshold snap to 1.0, low scores are inflated by a fixed
// multiplier, and the mid range is interpolated between the two so the curve
// stays continuous. Strong matches are rewarded disproportionately and
// near-zero matches are not fully suppressed.
func transformScore(x float64) float64 {
	switch {
	case x >= saturationThreshold:
		return 1.0
	case x < lowScoreThreshold:
		return clamp01(x * lowScoreMultiplier)
	default:
		lowCeil := lowScoreThreshold * lowScoreMultiplier
		span := saturationThreshold - lowScoreThreshold

		return clamp01(lowCeil + (x-lowScoreThreshold)*(1.0-lowCeil)/span)
	}
}

// corpusUnchanged reports whether docs is exactly the document set the
// corpus was fitted on.
func corpusUnchanged(c *Corpus, docs [][]string) bool {
	if c == nil || c.Size() != len(docs) {
		return false
	}

	for _, doc := range docs {
		if !c.Contains(doc) {
			return false
		}
	}

	return true
}

func preprocessCorpus(descriptions []string) [][]string {
	seen := make(map[string]struct{}, len(descriptions))
	docs := make([][]string, 0, len(descriptions))

	for _, description := range descriptions {
		tokens := textprep.Tokenize(description)
		if len(tokens) == 0 {
			continue
		}

		key := joinTokens(tokens)
		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}

		docs = append(docs, tokens)
	}

	return docs
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}

	return set
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}

	if x > 1 {
		return 1
	}

	return x
}
