package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnhancer(t *testing.T) *Enhancer {
	t.Helper()

	enhancer, err := NewEnhancer()
	require.NoError(t, err)

	return enhancer
}

func TestExtractCategories(t *testing.T) {
	enhancer := newTestEnhancer(t)

	cases := []struct {
		name string
		text string
		want []string
	}{
		{"single token terms", "coding and robotics club", []string{"technology"}},
		{"stemmed plural", "board games and chess tournaments", []string{"gaming"}},
		{"multi word term", "intro to machine learning and data science", []string{"data", "technology"}},
		{"no vocabulary", "weekly pottery glazing sessions", nil},
		{"empty", "", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, enhancer.ExtractCategories(tc.text))
		})
	}
}

func TestExtractCategoriesOrderedByMatchCount(t *testing.T) {
	enhancer := newTestEnhancer(t)

	// Two gaming terms against one music term.
	got := enhancer.ExtractCategories("chess and strategy night with live music")

	require.Len(t, got, 2)
	assert.Equal(t, "gaming", got[0])
	assert.Equal(t, "music", got[1])
}

func TestExtractActivities(t *testing.T) {
	enhancer := newTestEnhancer(t)

	got := enhancer.ExtractActivities("weekly workshop and an end of term tournament")

	assert.ElementsMatch(t, []string{"workshop", "competition"}, got)
}

func TestRelatedScoreSymmetry(t *testing.T) {
	enhancer := newTestEnhancer(t)

	pairs := [][2]string{
		{"technology", "data"},
		{"music", "performance"},
		{"sports", "gaming"},
		{"gaming", "culture"}, // uncurated pair, default score
	}

	for _, pair := range pairs {
		assert.Equal(t,
			enhancer.RelatedScore(pair[0], pair[1]),
			enhancer.RelatedScore(pair[1], pair[0]),
			"RelatedScore(%s, %s)", pair[0], pair[1])
	}
}

func TestRelatedScoreValues(t *testing.T) {
	enhancer := newTestEnhancer(t)

	assert.InDelta(t, 1.0, enhancer.RelatedScore("gaming", "gaming"), 1e-9)
	assert.InDelta(t, 1.0, enhancer.RelatedScore("Gaming", "gaming"), 1e-9)
	assert.InDelta(t, 0.9, enhancer.RelatedScore("technology", "data"), 1e-9)
	assert.InDelta(t, defaultRelatedScore, enhancer.RelatedScore("music", "unknown"), 1e-9)
}

func TestBoostBounds(t *testing.T) {
	enhancer := newTestEnhancer(t)

	pairs := [][2]string{
		{"chess tournament", "chess tournament"},
		{"coding workshop", "data science analytics"},
		{"live music concert", "football training"},
		{"robotics hackathon", "charity fundraising"},
	}

	for _, pair := range pairs {
		boost := enhancer.Boost(pair[0], pair[1])
		assert.GreaterOrEqual(t, boost, 0.0)
		assert.LessOrEqual(t, boost, 1.0)
	}
}

func TestBoostNeutrality(t *testing.T) {
	enhancer := newTestEnhancer(t)

	assert.Zero(t, enhancer.Boost("", "chess club"))
	assert.Zero(t, enhancer.Boost("chess club", ""))
	assert.Zero(t, enhancer.Boost("pottery glazing", "quiet reading circle"))
}

func TestBoostIdenticalDomain(t *testing.T) {
	enhancer := newTestEnhancer(t)

	// Same category and same activity vocabulary on both sides.
	boost := enhancer.Boost("chess tournament", "strategy board games tournament")
	assert.InDelta(t, 1.0, boost, 1e-9)

	// Related but distinct categories score in between.
	partial := enhancer.Boost("coding club", "data science analytics")
	assert.Greater(t, partial, 0.0)
	assert.Less(t, partial, 1.0)
}
