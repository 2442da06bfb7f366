package textsim

import (
	"math"
	"sort"
	"strings"
)

// Corpus is a fitted TF-IDF model over a set of tokenized documents.
// Fitting happens once in NewCorpus; afterwards the model is read-only.
type Corpus struct {
	docs [][]string

	df  map[string]int
	idf map[string]float64

	// Cached TF-IDF vectors per document, in docs order.
	vectors []map[string]float64

	// Joined token strings for exact-match lookups.
	joined map[string]struct{}
}

// NewCorpus fits document frequencies, IDF weights, and per-document vectors
// over the supplied tokenized documents.
func NewCorpus(docs [][]string) *Corpus {
	c := &Corpus{
		docs:   docs,
		df:     make(map[string]int),
		idf:    make(map[string]float64),
		joined: make(map[string]struct{}, len(docs)),
	}

	for _, doc := range docs {
		seen := make(map[string]bool, len(doc))

		for _, w := range doc {
			if !seen[w] {
				c.df[w]++
				seen[w] = true
			}
		}

		c.joined[strings.Join(doc, " ")] = struct{}{}
	}

	// Smoothed IDF keeps terms present in every document from zeroing out,
	// which matters on the short descriptions this corpus holds.
	n := float64(len(docs))
	for w, df := range c.df {
		c.idf[w] = math.Log(n/float64(df)) + 1.0
	}

	c.vectors = make([]map[string]float64, len(docs))
	for i, doc := range docs {
		c.vectors[i] = c.Vectorize(doc)
	}

	return c
}

// Size returns the number of documents the corpus was fitted on.
func (c *Corpus) Size() int {
	return len(c.docs)
}

// VocabularySize returns the number of distinct terms.
func (c *Corpus) VocabularySize() int {
	return len(c.df)
}

// Contains reports whether a preprocessed document was part of the corpus.
func (c *Corpus) Contains(tokens []string) bool {
	_, ok := c.joined[strings.Join(tokens, " ")]
	return ok
}

// Vectorize converts tokens into a sparse TF-IDF vector. Terms outside the
// fitted vocabulary contribute nothing.
func (c *Corpus) Vectorize(tokens []string) map[string]float64 {
	if len(tokens) == 0 {
		return nil
	}

	tf := make(map[string]int, len(tokens))
	for _, w := range tokens {
		tf[w]++
	}

	vec := make(map[string]float64, len(tf))

	for w, cnt := range tf {
		if idf, ok := c.idf[w]; ok {
			vec[w] = float64(cnt) / float64(len(tokens)) * idf
		}
	}

	return vec
}

// TopTerms returns the limit highest-weighted vocabulary terms of a token
// sequence under the fitted model, by term frequency weighted with IDF.
// Ties break alphabetically for determinism.
func (c *Corpus) TopTerms(tokens []string, limit int) []string {
	vec := c.Vectorize(tokens)
	if len(vec) == 0 || limit <= 0 {
		return nil
	}

	terms := make([]string, 0, len(vec))
	for w := range vec {
		terms = append(terms, w)
	}

	sort.Slice(terms, func(i, j int) bool {
		if vec[terms[i]] != vec[terms[j]] {
			return vec[terms[i]] > vec[terms[j]]
		}

		return terms[i] < terms[j]
	})

	if len(terms) > limit {
		terms = terms[:limit]
	}

	return terms
}

// CosineSimilarity computes cosine similarity of two sparse vectors.
func CosineSimilarity(v1, v2 map[string]float64) float64 {
	if len(v1) == 0 || len(v2) == 0 {
		return 0
	}

	var dot, norm1, norm2 float64

	for w, x := range v1 {
		if y, ok := v2[w]; ok {
			dot += x * y
		}

		norm1 += x * x
	}

	for _, y := range v2 {
		norm2 += y * y
	}

	if norm1 == 0 || norm2 == 0 {
		return 0
	}

	return dot / (math.Sqrt(norm1) * math.Sqrt(norm2))
}

// CosineSimilarityVec computes cosine similarity of two dense float32
// vectors, as produced by the embedding providers.
func CosineSimilarityVec(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
