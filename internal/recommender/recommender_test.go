package recommender

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/society-recommender/internal/coldstart"
	"github.com/campushub/society-recommender/internal/core/domain"
	apperrors "github.com/campushub/society-recommender/internal/core/errors"
	"github.com/campushub/society-recommender/internal/core/feedback"
	"github.com/campushub/society-recommender/internal/core/semantic"
	"github.com/campushub/society-recommender/internal/core/textsim"
)

type fakeRepo struct {
	students  map[int64]domain.Student
	societies []domain.Society
}

func (r *fakeRepo) GetStudent(_ context.Context, id int64) (domain.Student, error) {
	student, ok := r.students[id]
	if !ok {
		return domain.Student{}, apperrors.ErrStudentNotFound
	}

	return student, nil
}

func (r *fakeRepo) ListSocieties(_ context.Context, approvedOnly bool) ([]domain.Society, error) {
	if !approvedOnly {
		return r.societies, nil
	}

	var approved []domain.Society

	for _, society := range r.societies {
		if society.Approved {
			approved = append(approved, society)
		}
	}

	return approved, nil
}

func (r *fakeRepo) SocietiesByIDs(_ context.Context, ids []int64) (map[int64]domain.Society, error) {
	out := make(map[int64]domain.Society, len(ids))

	for _, society := range r.societies {
		for _, id := range ids {
			if society.ID == id {
				out[id] = society
			}
		}
	}

	return out, nil
}

func (r *fakeRepo) MembershipOverlap(_ context.Context, _ []int64) (map[int64]int, error) {
	return map[int64]int{}, nil
}

func newTestEngine(t *testing.T, repo *fakeRepo) *Engine {
	t.Helper()

	logger := zerolog.Nop()

	enhancer, err := semantic.NewEnhancer()
	require.NoError(t, err)

	analyzer := textsim.NewAnalyzer(textsim.Config{SemanticBoostCap: 0.2}, nil, enhancer, &logger)

	store := feedback.NewStore(filepath.Join(t.TempDir(), "feedback.json"), &logger)
	processor := feedback.NewProcessor(store, repo, feedback.ProcessorConfig{}, &logger)

	cold := coldstart.NewHandler(repo, 0, &logger)

	engine := New(repo, analyzer, processor, cold, 0, &logger)
	require.NoError(t, engine.RefreshCorpus(context.Background()))

	return engine
}

func scenarioRepo() *fakeRepo {
	return &fakeRepo{
		students: map[int64]domain.Student{
			1: {ID: 1, SocietyIDs: []int64{100, 101}},
			2: {ID: 2, SocietyIDs: []int64{100}},
		},
		societies: []domain.Society{
			{ID: 100, Name: "Tech Society", Category: "Technology", Description: "coding and robotics", Tags: []string{"Coding"}, MemberCount: 90, Approved: true},
			{ID: 101, Name: "Games Guild", Category: "Games", Description: "chess and strategy", Tags: []string{"Chess"}, MemberCount: 60, Approved: true},
			{ID: 1, Name: "Data Science Society", Category: "Data Science", Description: "data analytics and machine learning projects", Tags: []string{"Data", "Analytics", "ML"}, MemberCount: 45, Approved: true},
			{ID: 2, Name: "Board Games Society", Category: "Board Games", Description: "board games and chess evenings", Tags: []string{"Games", "Strategy"}, MemberCount: 30, Approved: true},
			{ID: 3, Name: "Choir", Category: "Music", Description: "singing and choir rehearsals", Tags: []string{"Singing"}, MemberCount: 70, Approved: true},
		},
	}
}

func TestRecommendUnknownStudent(t *testing.T) {
	engine := newTestEngine(t, scenarioRepo())

	assert.Empty(t, engine.Recommend(context.Background(), 999, 5))
}

func TestRecommendNeverReturnsJoinedSocieties(t *testing.T) {
	engine := newTestEngine(t, scenarioRepo())

	got := engine.Recommend(context.Background(), 1, 5)

	require.NotEmpty(t, got)

	for _, society := range got {
		assert.NotEqual(t, int64(100), society.ID)
		assert.NotEqual(t, int64(101), society.ID)
	}
}

func TestRecommendMultiSignalRanking(t *testing.T) {
	engine := newTestEngine(t, scenarioRepo())

	got := engine.Recommend(context.Background(), 1, 4)

	ids := make([]int64, 0, len(got))
	categories := make(map[string]struct{})

	for _, society := range got {
		ids = append(ids, society.ID)
		categories[society.Category] = struct{}{}
	}

	assert.Contains(t, ids, int64(1), "data society should match the tech membership")
	assert.Contains(t, ids, int64(2), "board games society should match the games membership")
	assert.GreaterOrEqual(t, len(categories), 2)
}

func TestRecommendSparseHistoryDelegatesToColdStart(t *testing.T) {
	engine := newTestEngine(t, scenarioRepo())

	// One membership only: the cold-start path produces the list and the
	// joined society stays excluded.
	got := engine.Recommend(context.Background(), 2, 3)

	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 3)

	for _, society := range got {
		assert.NotEqual(t, int64(100), society.ID)
	}
}

func TestRecommendTieBreakIsStable(t *testing.T) {
	repo := &fakeRepo{
		students: map[int64]domain.Student{
			1: {ID: 1, SocietyIDs: []int64{100, 101}},
		},
		societies: []domain.Society{
			{ID: 100, Name: "Tech Society", Category: "Technology", Description: "coding and robotics", Approved: true},
			{ID: 101, Name: "Games Guild", Category: "Games", Description: "chess and strategy", Approved: true},
			// Identical text except identity: scores tie exactly.
			{ID: 10, Name: "Chess West", Category: "Gaming", Description: "chess evenings", Approved: true},
			{ID: 11, Name: "Chess West", Category: "Gaming", Description: "chess evenings", Approved: true},
		},
	}

	engine := newTestEngine(t, repo)

	got := engine.Recommend(context.Background(), 1, 5)

	require.Len(t, got, 2)
	assert.Equal(t, int64(10), got[0].ID)
	assert.Equal(t, int64(11), got[1].ID)
}

func TestRecommendIdenticalDescriptionDifferentCategoryEligible(t *testing.T) {
	repo := scenarioRepo()
	repo.societies = append(repo.societies, domain.Society{
		ID: 4, Name: "Strategy Hall", Category: "Tabletop",
		Description: "chess and strategy", Tags: []string{"Chess"}, Approved: true,
	})

	engine := newTestEngine(t, repo)

	got := engine.Recommend(context.Background(), 1, 5)

	ids := make([]int64, 0, len(got))
	for _, society := range got {
		ids = append(ids, society.ID)
	}

	assert.Contains(t, ids, int64(4))
}

func TestExplanationUnknownStudent(t *testing.T) {
	engine := newTestEngine(t, scenarioRepo())

	explanation := engine.Explanation(context.Background(), 999, 1)
	assert.Equal(t, domain.ExplanationGeneral, explanation.Type)
}

func TestExplanationColdStart(t *testing.T) {
	engine := newTestEngine(t, scenarioRepo())

	explanation := engine.Explanation(context.Background(), 2, 3)
	assert.Equal(t, domain.ExplanationPopular, explanation.Type)
}

func TestExplanationSimilarity(t *testing.T) {
	engine := newTestEngine(t, scenarioRepo())

	explanation := engine.Explanation(context.Background(), 1, 2)

	assert.Equal(t, domain.ExplanationSimilarity, explanation.Type)
	assert.Contains(t, explanation.Message, "Games Guild")
	assert.Positive(t, explanation.SimilarityScore)
}

func TestRecordFeedbackInfluencesRanking(t *testing.T) {
	engine := newTestEngine(t, scenarioRepo())
	ctx := context.Background()

	baseline := engine.Recommend(ctx, 1, 4)
	require.NotEmpty(t, baseline)

	// Strong negative feedback on the data society pushes it down or out.
	require.True(t, engine.RecordFeedback(1, 1, feedback.EventRating, 1, nil))
	require.False(t, engine.RecordFeedback(1, 1, feedback.EventType("bogus"), 0, nil))

	adjusted := engine.Recommend(ctx, 1, 4)
	require.NotEmpty(t, adjusted)

	rank := func(list []domain.Society, id int64) int {
		for i, society := range list {
			if society.ID == id {
				return i
			}
		}

		return len(list)
	}

	assert.GreaterOrEqual(t, rank(adjusted, 1), rank(baseline, 1))
}
