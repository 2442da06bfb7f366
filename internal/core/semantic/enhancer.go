// Package semantic provides a domain-knowledge similarity signal independent
// of corpus statistics, backed by a curated ontology of society vocabulary.
//
// The ontology (categories, activity types, and hand-authored category
// relationship scores) is embedded at build time and parsed once at
// construction. All scoring methods are pure lookups afterwards.
package semantic

import (
	"sort"
	"strings"

	"github.com/campushub/society-recommender/internal/core/textprep"
)

const (
	// Weights of the two boost components.
	categoryWeight = 0.7
	activityWeight = 0.3

	// Relationship score when no curated value exists.
	defaultRelatedScore = 0.2

	// How many extracted categories per side feed the relationship average.
	topCategories = 3
)

type termMatch struct {
	term  string
	label string
}

// Enhancer scores text pairs against the embedded ontology.
type Enhancer struct {
	termToCategory map[string]string
	termToActivity map[string]string

	// Multi-word terms are matched as substrings of the folded text.
	multiWordCategories []termMatch
	multiWordActivities []termMatch

	relations map[[2]string]float64
}

// NewEnhancer parses the embedded ontology and builds the reverse indices.
func NewEnhancer() (*Enhancer, error) {
	ont, rels, err := loadOntology()
	if err != nil {
		return nil, err
	}

	e := &Enhancer{
		termToCategory: make(map[string]string),
		termToActivity: make(map[string]string),
		relations:      make(map[[2]string]float64, len(rels)),
	}

	e.multiWordCategories = indexTerms(ont.Categories, e.termToCategory)
	e.multiWordActivities = indexTerms(ont.Activities, e.termToActivity)

	for _, rel := range rels {
		e.relations[[2]string{rel.a, rel.b}] = rel.score
	}

	return e, nil
}

// indexTerms splits vocabulary into single-token entries (stemmed, looked up
// against token sets) and multi-word entries (substring-matched).
func indexTerms(vocab map[string][]string, single map[string]string) []termMatch {
	var multi []termMatch

	for label, terms := range vocab {
		for _, term := range terms {
			folded := textprep.Fold(term)
			if strings.ContainsRune(folded, ' ') {
				multi = append(multi, termMatch{term: folded, label: label})
				continue
			}

			single[textprep.Stem(folded)] = label
		}
	}

	// Deterministic match order regardless of map iteration.
	sort.Slice(multi, func(i, j int) bool { return multi[i].term < multi[j].term })

	return multi
}

// ExtractCategories returns the categories whose vocabulary appears in the
// text, ordered by number of matching terms descending. Returns nil for
// empty input or when nothing matches.
func (e *Enhancer) ExtractCategories(text string) []string {
	return extract(text, e.termToCategory, e.multiWordCategories)
}

// ExtractActivities returns the activity types whose vocabulary appears in
// the text, ordered by number of matching terms descending.
func (e *Enhancer) ExtractActivities(text string) []string {
	return extract(text, e.termToActivity, e.multiWordActivities)
}

func extract(text string, single map[string]string, multi []termMatch) []string {
	if text == "" {
		return nil
	}

	counts := make(map[string]int)
	order := make(map[string]int)

	for _, tok := range textprep.Tokenize(text) {
		if label, ok := single[tok]; ok {
			if _, seen := counts[label]; !seen {
				order[label] = len(order)
			}

			counts[label]++
		}
	}

	folded := textprep.Fold(text)

	for _, m := range multi {
		if strings.Contains(folded, m.term) {
			if _, seen := counts[m.label]; !seen {
				order[m.label] = len(order)
			}

			counts[m.label]++
		}
	}

	if len(counts) == 0 {
		return nil
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}

	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}

		return order[labels[i]] < order[labels[j]]
	})

	return labels
}

// RelatedScore returns the curated closeness of two categories: 1.0 for
// identical categories, the curated value when present in either orientation,
// and a low default otherwise. Unknown categories never raise.
func (e *Enhancer) RelatedScore(cat1, cat2 string) float64 {
	c1 := strings.ToLower(cat1)
	c2 := strings.ToLower(cat2)

	if c1 == c2 {
		return 1.0
	}

	if score, ok := e.relations[[2]string{c1, c2}]; ok {
		return score
	}

	if score, ok := e.relations[[2]string{c2, c1}]; ok {
		return score
	}

	return defaultRelatedScore
}

// Boost computes the semantic similarity boost between two texts in [0, 1].
// Without recognizable category vocabulary on both sides there is no signal
// and the boost is 0.
func (e *Enhancer) Boost(text1, text2 string) float64 {
	if text1 == "" || text2 == "" {
		return 0
	}

	cats1 := topN(e.ExtractCategories(text1), topCategories)
	cats2 := topN(e.ExtractCategories(text2), topCategories)

	if len(cats1) == 0 || len(cats2) == 0 {
		return 0
	}

	var total float64

	for _, c1 := range cats1 {
		for _, c2 := range cats2 {
			total += e.RelatedScore(c1, c2)
		}
	}

	categoryScore := total / float64(len(cats1)*len(cats2))

	activityScore := activityJaccard(e.ExtractActivities(text1), e.ExtractActivities(text2))

	return categoryWeight*categoryScore + activityWeight*activityScore
}

func topN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}

	return items
}

func activityJaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, x := range a {
		setA[x] = struct{}{}
	}

	intersection := 0

	for _, x := range b {
		if _, ok := setA[x]; ok {
			intersection++
		}
	}

	union := len(setA) + len(b) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}
