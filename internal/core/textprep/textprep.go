// Package textprep provides the shared text preprocessing pipeline used by
// the similarity analyzer and the semantic enhancer: lowercasing, diacritics
// folding, tokenization, stopword removal, and light suffix stemming.
package textprep

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	minTokenLength = 2
	minStemLength  = 5
	minRootLength  = 3
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases text and strips combining diacritical marks, so "Café"
// and "cafe" tokenize identically.
func Fold(text string) string {
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		folded = text
	}

	return strings.ToLower(folded)
}

// Tokenize splits text into normalized, stopword-free, stemmed tokens.
// Empty input yields nil.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	words := strings.FieldsFunc(Fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(words))

	for _, word := range words {
		if len(word) < minTokenLength || isStopWord(word) {
			continue
		}

		tokens = append(tokens, Stem(word))
	}

	return tokens
}

// TokenSet returns the distinct tokens of a text as a set.
func TokenSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}

	return set
}

// Stem applies light English suffix stripping (an S-stemmer with -ing/-ed
// handling). Short words pass through unchanged; a stripped root keeps at
// least three characters. "games" and "game" stem identically.
func Stem(word string) string {
	if len(word) < minStemLength {
		return word
	}

	switch {
	case strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "ss"), strings.HasSuffix(word, "us"), strings.HasSuffix(word, "is"):
		return word
	case strings.HasSuffix(word, "ing") && len(word)-3 >= minRootLength:
		return word[:len(word)-3]
	case strings.HasSuffix(word, "ed") && len(word)-2 >= minRootLength:
		return word[:len(word)-2]
	case strings.HasSuffix(word, "s"):
		return word[:len(word)-1]
	}

	return word
}

// Jaccard computes the Jaccard index of two token sets.
func Jaccard(set1, set2 map[string]struct{}) float64 {
	if len(set1) == 0 || len(set2) == 0 {
		return 0
	}

	intersection := 0

	for token := range set1 {
		if _, ok := set2[token]; ok {
			intersection++
		}
	}

	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

// OverlapRatio computes |a ∩ b| / min(|a|, |b|) for two keyword slices.
func OverlapRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(a))
	for _, k := range a {
		set[k] = struct{}{}
	}

	matches := 0

	for _, k := range b {
		if _, ok := set[k]; ok {
			matches++
		}
	}

	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}

	return float64(matches) / float64(smaller)
}

func isStopWord(word string) bool {
	return stopWords[word]
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "from": true,
	"up": true, "about": true, "into": true, "through": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "being": true, "have": true, "has": true, "had": true,
	"do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "must": true,
	"that": true, "which": true, "who": true, "whom": true, "this": true,
	"these": true, "those": true, "it": true, "its": true, "as": true,
	"we": true, "our": true, "you": true, "your": true, "they": true,
	"their": true, "all": true, "any": true, "more": true, "most": true,
	"other": true, "some": true, "such": true, "no": true, "not": true,
	"only": true, "own": true, "so": true, "than": true, "too": true,
	"very": true, "can": true, "just": true, "also": true,
}
