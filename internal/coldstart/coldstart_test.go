package coldstart

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/society-recommender/internal/core/domain"
	apperrors "github.com/campushub/society-recommender/internal/core/errors"
)

type stubRepo struct {
	students  map[int64]domain.Student
	societies []domain.Society
	overlap   map[int64]int
}

func (r *stubRepo) GetStudent(_ context.Context, id int64) (domain.Student, error) {
	student, ok := r.students[id]
	if !ok {
		return domain.Student{}, apperrors.ErrStudentNotFound
	}

	return student, nil
}

func (r *stubRepo) ListSocieties(_ context.Context, approvedOnly bool) ([]domain.Society, error) {
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

func (r *stubRepo) MembershipOverlap(_ context.Context, _ []int64) (map[int64]int, error) {
	if r.overlap == nil {
		return map[int64]int{}, nil
	}

	return r.overlap, nil
}

func newTestHandler(repo *stubRepo) *Handler {
	logger := zerolog.Nop()

	return NewHandler(repo, 0, &logger)
}

func campusSocieties() []domain.Society {
	return []domain.Society{
		{ID: 1, Name: "Robotics Society", Category: "Technology", Description: "coding and robotics projects", Tags: []string{"Coding", "Computers"}, MemberCount: 120, Approved: true},
		{ID: 2, Name: "Jazz Band", Category: "Music", Description: "live jazz sessions", MemberCount: 80, Approved: true},
		{ID: 3, Name: "Football Club", Category: "Sports", Description: "weekend football matches", MemberCount: 200, Approved: true},
		{ID: 4, Name: "Chess Circle", Category: "Gaming", Description: "chess and strategy", MemberCount: 40, Approved: true},
		{ID: 5, Name: "Hidden Society", Category: "Secret", Description: "not yet approved", MemberCount: 500, Approved: false},
	}
}

func TestInitialRecommendationsUnknownStudent(t *testing.T) {
	handler := newTestHandler(&stubRepo{students: map[int64]domain.Student{}})

	assert.Empty(t, handler.InitialRecommendations(context.Background(), 99, 5))
}

func TestInitialRecommendationsExcludesJoinedAndUnapproved(t *testing.T) {
	repo := &stubRepo{
		students: map[int64]domain.Student{
			1: {ID: 1, SocietyIDs: []int64{3}},
		},
		societies: campusSocieties(),
	}

	got := newTestHandler(repo).InitialRecommendations(context.Background(), 1, 5)

	require.NotEmpty(t, got)

	for _, society := range got {
		assert.NotEqual(t, int64(3), society.ID, "joined society must not be recommended")
		assert.NotEqual(t, int64(5), society.ID, "unapproved society must not be recommended")
	}
}

func TestInitialRecommendationsMajorPool(t *testing.T) {
	repo := &stubRepo{
		students: map[int64]domain.Student{
			1: {ID: 1, Major: "Computer Science"},
		},
		societies: campusSocieties(),
	}

	got := newTestHandler(repo).InitialRecommendations(context.Background(), 1, 3)

	require.NotEmpty(t, got)
	// The coding-related society must rank first via the major pool.
	assert.Equal(t, int64(1), got[0].ID)
}

func TestInitialRecommendationsSocialPool(t *testing.T) {
	repo := &stubRepo{
		students: map[int64]domain.Student{
			1: {ID: 1, Following: []int64{2, 3}},
		},
		societies: campusSocieties(),
		overlap:   map[int64]int{2: 2, 4: 1},
	}

	got := newTestHandler(repo).InitialRecommendations(context.Background(), 1, 5)

	ids := make([]int64, 0, len(got))
	for _, society := range got {
		ids = append(ids, society.ID)
	}

	assert.Contains(t, ids, int64(2))
	assert.Contains(t, ids, int64(4))
}

func TestInitialRecommendationsPopularFallback(t *testing.T) {
	// No major, no follows, one membership: diverse-popular carries the list.
	shared := "student society with weekly meetings"
	repo := &stubRepo{
		students: map[int64]domain.Student{
			1: {ID: 1, SocietyIDs: []int64{1}},
		},
		societies: []domain.Society{
			{ID: 1, Name: "Sports One", Category: "Sports", Description: shared, MemberCount: 50, Approved: true},
			{ID: 2, Name: "Music One", Category: "Music", Description: shared, MemberCount: 30, Approved: true},
		},
	}

	got := newTestHandler(repo).InitialRecommendations(context.Background(), 1, 5)

	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID, "the identically described society in another category must surface")
}

func TestEnsureCategoryDiversity(t *testing.T) {
	candidates := []domain.ScoredSociety{
		{Society: domain.Society{ID: 1, Category: "Technology"}, Score: 0.9},
		{Society: domain.Society{ID: 2, Category: "Technology"}, Score: 0.8},
		{Society: domain.Society{ID: 3, Category: "Music"}, Score: 0.7},
		{Society: domain.Society{ID: 4, Category: "Sports"}, Score: 0.6},
		{Society: domain.Society{ID: 5, Category: "Technology"}, Score: 0.5},
	}

	selected := EnsureCategoryDiversity(candidates, 3)

	require.Len(t, selected, 3)
	assert.Equal(t, int64(1), selected[0].Society.ID)
	assert.Equal(t, int64(3), selected[1].Society.ID)
	assert.Equal(t, int64(4), selected[2].Society.ID)
}

func TestEnsureCategoryDiversityFillsByScore(t *testing.T) {
	candidates := []domain.ScoredSociety{
		{Society: domain.Society{ID: 1, Category: "Technology"}, Score: 0.9},
		{Society: domain.Society{ID: 2, Category: "Technology"}, Score: 0.8},
		{Society: domain.Society{ID: 3, Category: "Technology"}, Score: 0.7},
		{Society: domain.Society{ID: 4, Category: "Music"}, Score: 0.1},
	}

	selected := EnsureCategoryDiversity(candidates, 3)

	require.Len(t, selected, 3)
	// One per category first, then the next best regardless of category.
	assert.Equal(t, int64(1), selected[0].Society.ID)
	assert.Equal(t, int64(4), selected[1].Society.ID)
	assert.Equal(t, int64(2), selected[2].Society.ID)
}

func TestEnsureCategoryDiversityPassthrough(t *testing.T) {
	candidates := []domain.ScoredSociety{
		{Society: domain.Society{ID: 2, Category: "Music"}, Score: 0.1},
		{Society: domain.Society{ID: 1, Category: "Technology"}, Score: 0.9},
	}

	selected := EnsureCategoryDiversity(candidates, 5)

	// At or under the limit the input comes back unchanged, order preserved.
	require.Len(t, selected, 2)
	assert.Equal(t, int64(2), selected[0].Society.ID)
	assert.Equal(t, int64(1), selected[1].Society.ID)

	assert.Nil(t, EnsureCategoryDiversity(nil, 5))
}

func TestEnsureCategoryDiversityNeverDuplicates(t *testing.T) {
	candidates := []domain.ScoredSociety{
		{Society: domain.Society{ID: 1, Category: "A"}, Score: 0.9},
		{Society: domain.Society{ID: 2, Category: "B"}, Score: 0.8},
		{Society: domain.Society{ID: 3, Category: "C"}, Score: 0.7},
		{Society: domain.Society{ID: 4, Category: "D"}, Score: 0.6},
	}

	selected := EnsureCategoryDiversity(candidates, 3)
	require.Len(t, selected, 3)

	seen := make(map[int64]struct{})

	for _, candidate := range selected {
		_, dup := seen[candidate.Society.ID]
		require.False(t, dup, "duplicate society %d", candidate.Society.ID)

		seen[candidate.Society.ID] = struct{}{}
	}
}

func TestExplanationBranchOrder(t *testing.T) {
	cases := []struct {
		name     string
		society  domain.Society
		wantType string
	}{
		{"popular wins over events", domain.Society{Category: "Sports", MemberCount: 120, EventCount: 8}, domain.ExplanationPopular},
		{"events without members", domain.Society{Category: "Music", EventCount: 4}, domain.ExplanationEvents},
		{"category fallback", domain.Society{Category: "Arts"}, domain.ExplanationCategory},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			explanation := Explanation(tc.society)

			assert.Equal(t, tc.wantType, explanation.Type)
			assert.NotEmpty(t, explanation.Message)
		})
	}
}
