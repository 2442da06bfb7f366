// Package coldstart produces recommendations for students whose membership
// history is too sparse for similarity-based scoring.
//
// Three candidate pools are blended: societies matching the student's
// declared major, societies popular among followed students, and the most
// popular society of each populous category. The merged list is capped with
// category diversity enforced.
package coldstart

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/campushub/society-recommender/internal/core/domain"
	apperrors "github.com/campushub/society-recommender/internal/core/errors"
	"github.com/campushub/society-recommender/internal/core/textprep"
	"github.com/campushub/society-recommender/internal/platform/observability"
)

// Base scores per candidate pool. Within a pool, rank position adds a small
// decreasing increment so diversity selection stays deterministic.
const (
	majorBase   = 1.0
	socialBase  = 0.9
	popularBase = 0.7

	rankSpread = 0.1
)

// DefaultLimit bounds a cold-start recommendation list when the caller does
// not say otherwise. The diverse-popular pool uses the same cap.
const DefaultLimit = 5

// Repository is the narrow read interface the handler needs.
type Repository interface {
	// GetStudent returns apperrors.ErrStudentNotFound for unknown ids.
	GetStudent(ctx context.Context, id int64) (domain.Student, error)

	// ListSocieties returns all societies, optionally approved only.
	ListSocieties(ctx context.Context, approvedOnly bool) ([]domain.Society, error)

	// MembershipOverlap returns, per society, how many of the given
	// students are members.
	MembershipOverlap(ctx context.Context, studentIDs []int64) (map[int64]int, error)
}

// Handler produces cold-start recommendations.
type Handler struct {
	repo   Repository
	limit  int
	logger *zerolog.Logger
}

// NewHandler creates a cold-start handler. popularLimit caps the
// diverse-popular pool; zero falls back to DefaultLimit.
func NewHandler(repo Repository, popularLimit int, logger *zerolog.Logger) *Handler {
	if popularLimit <= 0 {
		popularLimit = DefaultLimit
	}

	return &Handler{
		repo:   repo,
		limit:  popularLimit,
		logger: logger,
	}
}

// InitialRecommendations returns up to limit societies for a student with
// sparse history. A nonexistent student yields an empty list, not an error.
func (h *Handler) InitialRecommendations(ctx context.Context, studentID int64, limit int) []domain.Society {
	if limit <= 0 {
		limit = DefaultLimit
	}

	student, err := h.repo.GetStudent(ctx, studentID)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrStudentNotFound) {
			h.logger.Warn().Err(err).Int64("student_id", studentID).Msg("cold start student lookup failed")
		}

		return nil
	}

	member := make(map[int64]struct{}, len(student.SocietyIDs))
	for _, id := range student.SocietyIDs {
		member[id] = struct{}{}
	}

	var candidates []domain.ScoredSociety

	seen := make(map[int64]struct{})

	add := func(pool []domain.Society, base float64, source domain.CandidateSource) {
		if len(pool) > 0 {
			observability.ColdStartRequests.WithLabelValues(string(source)).Inc()
		}

		for i, society := range pool {
			if _, taken := seen[society.ID]; taken {
				continue
			}

			if _, joined := member[society.ID]; joined {
				continue
			}

			seen[society.ID] = struct{}{}

			rankBonus := 0.0
			if len(pool) > 1 {
				rankBonus = rankSpread * float64(len(pool)-1-i) / float64(len(pool)-1)
			}

			candidates = append(candidates, domain.ScoredSociety{
				Society: society,
				Score:   base + rankBonus,
				Source:  source,
			})
		}
	}

	add(h.majorBased(ctx, student.Major), majorBase, domain.SourceMajor)
	add(h.socialBased(ctx, student.Following), socialBase, domain.SourceSocial)
	add(h.diversePopular(ctx), popularBase, domain.SourcePopular)

	selected := EnsureCategoryDiversity(candidates, limit)

	societies := make([]domain.Society, 0, len(selected))
	for _, candidate := range selected {
		societies = append(societies, candidate.Society)
	}

	return societies
}

// majorBased returns societies textually related to the student's major,
// most popular first. An empty major yields nothing.
func (h *Handler) majorBased(ctx context.Context, major string) []domain.Society {
	if strings.TrimSpace(major) == "" {
		return nil
	}

	societies, err := h.repo.ListSocieties(ctx, true)
	if err != nil {
		h.logger.Warn().Err(err).Msg("society listing failed for major pool")
		return nil
	}

	majorTokens := textprep.TokenSet(major)
	folded := textprep.Fold(major)

	var matched []domain.Society

	for _, society := range societies {
		if matchesMajor(society, folded, majorTokens) {
			matched = append(matched, society)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].MemberCount > matched[j].MemberCount
	})

	return matched
}

func matchesMajor(society domain.Society, foldedMajor string, majorTokens map[string]struct{}) bool {
	haystack := textprep.Fold(society.Description + " " + society.Category + " " + strings.Join(society.Tags, " "))
	if strings.Contains(haystack, foldedMajor) {
		return true
	}

	// Multi-word majors ("Computer Science") also match on token overlap.
	societyTokens := textprep.TokenSet(haystack)
	for token := range majorTokens {
		if _, ok := societyTokens[token]; ok {
			return true
		}
	}

	return false
}

// socialBased returns societies that followed students belong to, ranked by
// how many followed students are members. An empty follow list yields nothing.
func (h *Handler) socialBased(ctx context.Context, following []int64) []domain.Society {
	if len(following) == 0 {
		return nil
	}

	overlap, err := h.repo.MembershipOverlap(ctx, following)
	if err != nil {
		h.logger.Warn().Err(err).Msg("membership overlap query failed for social pool")
		return nil
	}

	if len(overlap) == 0 {
		return nil
	}

	societies, err := h.repo.ListSocieties(ctx, true)
	if err != nil {
		h.logger.Warn().Err(err).Msg("society listing failed for social pool")
		return nil
	}

	var matched []domain.Society

	for _, society := range societies {
		if overlap[society.ID] > 0 {
			matched = append(matched, society)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return overlap[matched[i].ID] > overlap[matched[j].ID]
	})

	return matched
}

// diversePopular returns the single most popular society from each of the
// most populous categories, most populous category first, capped at the
// configured pool limit.
func (h *Handler) diversePopular(ctx context.Context) []domain.Society {
	societies, err := h.repo.ListSocieties(ctx, true)
	if err != nil {
		h.logger.Warn().Err(err).Msg("society listing failed for popular pool")
		return nil
	}

	categoryMembers := make(map[string]int)
	topOfCategory := make(map[string]domain.Society)

	for _, society := range societies {
		categoryMembers[society.Category] += society.MemberCount

		top, ok := topOfCategory[society.Category]
		if !ok || society.MemberCount > top.MemberCount {
			topOfCategory[society.Category] = society
		}
	}

	categories := make([]string, 0, len(categoryMembers))
	for category := range categoryMembers {
		categories = append(categories, category)
	}

	sort.SliceStable(categories, func(i, j int) bool {
		if categoryMembers[categories[i]] != categoryMembers[categories[j]] {
			return categoryMembers[categories[i]] > categoryMembers[categories[j]]
		}

		return categories[i] < categories[j]
	})

	var picks []domain.Society

	for _, category := range categories {
		if len(picks) >= h.limit {
			break
		}

		picks = append(picks, topOfCategory[category])
	}

	return picks
}

// EnsureCategoryDiversity caps candidates at limit while preferring
// not-yet-represented categories: first the highest-scoring candidate of
// each distinct category, then remaining slots filled purely by score.
// Lists at or under the limit pass through unchanged, order preserved.
func EnsureCategoryDiversity(candidates []domain.ScoredSociety, limit int) []domain.ScoredSociety {
	if len(candidates) == 0 {
		return nil
	}

	if len(candidates) <= limit {
		return candidates
	}

	ordered := make([]domain.ScoredSociety, len(candidates))
	copy(ordered, candidates)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	selected := make([]domain.ScoredSociety, 0, limit)
	taken := make(map[int64]struct{}, limit)
	usedCategories := make(map[string]struct{})

	for _, candidate := range ordered {
		if len(selected) >= limit {
			break
		}

		if _, used := usedCategories[candidate.Society.Category]; used {
			continue
		}

		usedCategories[candidate.Society.Category] = struct{}{}
		taken[candidate.Society.ID] = struct{}{}

		selected = append(selected, candidate)
	}

	for _, candidate := range ordered {
		if len(selected) >= limit {
			break
		}

		if _, dup := taken[candidate.Society.ID]; dup {
			continue
		}

		taken[candidate.Society.ID] = struct{}{}

		selected = append(selected, candidate)
	}

	return selected
}

// Explanation returns the cold-start justification for a society. Branch
// order matters: the popularity signal wins over event activity, which wins
// over the bare category.
func Explanation(society domain.Society) domain.Explanation {
	switch {
	case society.MemberCount > 0:
		return domain.Explanation{
			Type:    domain.ExplanationPopular,
			Message: fmt.Sprintf("Popular %s society with %d members", society.Category, society.MemberCount),
		}
	case society.EventCount > 0:
		return domain.Explanation{
			Type:    domain.ExplanationEvents,
			Message: fmt.Sprintf("Active society hosting %d events", society.EventCount),
		}
	default:
		return domain.Explanation{
			Type:    domain.ExplanationCategory,
			Message: fmt.Sprintf("Recommended from the %s category", society.Category),
		}
	}
}
