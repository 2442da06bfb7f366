// Package recommender is the entry point the rest of the platform consumes.
// It routes each request between the cold-start path and the
// similarity-scoring path, folds in feedback adjustments, and enforces
// category diversity on the final list.
package recommender

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/campushub/society-recommender/internal/coldstart"
	"github.com/campushub/society-recommender/internal/core/domain"
	apperrors "github.com/campushub/society-recommender/internal/core/errors"
	"github.com/campushub/society-recommender/internal/core/feedback"
	"github.com/campushub/society-recommender/internal/core/textprep"
	"github.com/campushub/society-recommender/internal/core/textsim"
	"github.com/campushub/society-recommender/internal/platform/observability"
)

const (
	// DefaultLimit bounds a recommendation list when the caller passes zero.
	DefaultLimit = 5

	// tagOverlapWeight scales the category/tag overlap bonus added on top
	// of the text similarity score.
	tagOverlapWeight = 0.5

	strategyColdStart  = "cold_start"
	strategySimilarity = "similarity"
)

// Repository is the read interface the orchestrator needs from storage.
type Repository interface {
	GetStudent(ctx context.Context, id int64) (domain.Student, error)
	ListSocieties(ctx context.Context, approvedOnly bool) ([]domain.Society, error)
	SocietiesByIDs(ctx context.Context, ids []int64) (map[int64]domain.Society, error)
}

// Engine orchestrates the recommendation pipeline.
type Engine struct {
	repo     Repository
	analyzer *textsim.Analyzer
	feedback *feedback.Processor
	cold     *coldstart.Handler
	limit    int
	logger   *zerolog.Logger
}

// New creates an Engine. limit caps result lists; zero falls back to
// DefaultLimit.
func New(repo Repository, analyzer *textsim.Analyzer, processor *feedback.Processor, cold *coldstart.Handler, limit int, logger *zerolog.Logger) *Engine {
	if limit <= 0 {
		limit = DefaultLimit
	}

	return &Engine{
		repo:     repo,
		analyzer: analyzer,
		feedback: processor,
		cold:     cold,
		limit:    limit,
		logger:   logger,
	}
}

// Recommend returns up to limit societies for the student, best first.
// Unknown students and empty candidate pools yield an empty list.
func (e *Engine) Recommend(ctx context.Context, studentID int64, limit int) []domain.Society {
	start := time.Now()
	strategy := strategySimilarity

	defer func() {
		observability.RecommendationRequestDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
	}()

	if limit <= 0 {
		limit = e.limit
	}

	student, err := e.repo.GetStudent(ctx, studentID)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrStudentNotFound) {
			e.logger.Warn().Err(err).Int64("student_id", studentID).Msg("student lookup failed")
		}

		return nil
	}

	if student.HasSparseHistory() {
		strategy = strategyColdStart
		observability.RecommendationsServed.WithLabelValues(strategy).Inc()

		return e.cold.InitialRecommendations(ctx, studentID, limit)
	}

	observability.RecommendationsServed.WithLabelValues(strategy).Inc()

	scored := e.scoreCandidates(ctx, student)
	if len(scored) == 0 {
		return nil
	}

	scored = e.feedback.ApplyAdjustments(ctx, studentID, scored)

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	selected := coldstart.EnsureCategoryDiversity(scored, limit)

	societies := make([]domain.Society, 0, len(selected))
	for _, candidate := range selected {
		societies = append(societies, candidate.Society)
	}

	return societies
}

// scoreCandidates computes a base score for every approved society the
// student does not already belong to. Candidates with no signal at all are
// dropped.
func (e *Engine) scoreCandidates(ctx context.Context, student domain.Student) []domain.ScoredSociety {
	joined, err := e.repo.SocietiesByIDs(ctx, student.SocietyIDs)
	if err != nil {
		e.logger.Warn().Err(err).Int64("student_id", student.ID).Msg("joined society lookup failed")
		return nil
	}

	joinedTexts := make([]string, 0, len(joined))

	var joinedTags []string

	seenTag := make(map[string]struct{})

	for _, id := range student.SocietyIDs {
		society, ok := joined[id]
		if !ok {
			continue
		}

		joinedTexts = append(joinedTexts, societyText(society))

		for _, token := range textprep.Tokenize(society.Category + " " + strings.Join(society.Tags, " ")) {
			if _, dup := seenTag[token]; dup {
				continue
			}

			seenTag[token] = struct{}{}

			joinedTags = append(joinedTags, token)
		}
	}

	if len(joinedTexts) == 0 {
		return nil
	}

	candidates, err := e.repo.ListSocieties(ctx, true)
	if err != nil {
		e.logger.Warn().Err(err).Msg("society listing failed")
		return nil
	}

	var scored []domain.ScoredSociety

	for _, candidate := range candidates {
		if _, member := joined[candidate.ID]; member {
			continue
		}

		score := e.analyzer.CalculateSimilarity(ctx, societyText(candidate), joinedTexts)
		score += tagOverlapBonus(candidate, joinedTags)

		if score <= 0 {
			continue
		}

		if score > textsim.MaxScore {
			score = textsim.MaxScore
		}

		scored = append(scored, domain.ScoredSociety{
			Society: candidate,
			Score:   score,
			Source:  domain.SourceSimilarity,
		})
	}

	return scored
}

// tagOverlapBonus rewards candidates whose category and tags overlap the
// vocabulary of the societies the student already joined.
func tagOverlapBonus(candidate domain.Society, joinedTags []string) float64 {
	if len(joinedTags) == 0 {
		return 0
	}

	candidateTokens := textprep.Tokenize(candidate.Category + " " + strings.Join(candidate.Tags, " "))

	return tagOverlapWeight * textprep.OverlapRatio(candidateTokens, joinedTags)
}

// Explanation justifies why a society was, or would be, recommended to a
// student. Sparse-history students get the cold-start explanation; others
// get the most similar already-joined society and its score.
func (e *Engine) Explanation(ctx context.Context, studentID, societyID int64) domain.Explanation {
	general := domain.Explanation{
		Type:    domain.ExplanationGeneral,
		Message: "Recommended based on your interests",
	}

	student, err := e.repo.GetStudent(ctx, studentID)
	if err != nil {
		return general
	}

	societies, err := e.repo.SocietiesByIDs(ctx, []int64{societyID})
	if err != nil {
		return general
	}

	society, ok := societies[societyID]
	if !ok {
		return general
	}

	if student.HasSparseHistory() {
		return coldstart.Explanation(society)
	}

	joined, err := e.repo.SocietiesByIDs(ctx, student.SocietyIDs)
	if err != nil {
		return general
	}

	var (
		bestScore float64
		bestName  string
	)

	for _, id := range student.SocietyIDs {
		member, ok := joined[id]
		if !ok || member.ID == societyID {
			continue
		}

		score := e.analyzer.CalculateSimilarity(ctx, societyText(society), []string{societyText(member)})
		if score > bestScore {
			bestScore = score
			bestName = member.Name
		}
	}

	if bestScore <= 0 {
		return general
	}

	return domain.Explanation{
		Type:            domain.ExplanationSimilarity,
		Message:         fmt.Sprintf("Similar to %s, which you joined", bestName),
		SimilarityScore: bestScore,
	}
}

// RecordFeedback forwards an interaction event to the feedback processor.
// It reports whether the event type was recognized and recorded.
func (e *Engine) RecordFeedback(studentID, societyID int64, eventType feedback.EventType, value float64, metadata map[string]string) bool {
	return e.feedback.Record(studentID, societyID, eventType, value, metadata)
}

// PreferenceAdjustments exposes the student's aggregated feedback profile.
func (e *Engine) PreferenceAdjustments(ctx context.Context, studentID int64) feedback.Adjustments {
	return e.feedback.PreferenceAdjustments(ctx, studentID)
}

// RefreshCorpus refits the similarity corpus from the current approved
// society descriptions.
func (e *Engine) RefreshCorpus(ctx context.Context) error {
	societies, err := e.repo.ListSocieties(ctx, true)
	if err != nil {
		observability.CorpusRefreshes.WithLabelValues("error").Inc()
		return fmt.Errorf("list societies: %w", err)
	}

	descriptions := make([]string, 0, len(societies))
	for _, society := range societies {
		descriptions = append(descriptions, societyText(society))
	}

	e.analyzer.UpdateCorpus(ctx, descriptions)
	observability.CorpusRefreshes.WithLabelValues("ok").Inc()

	return nil
}

func societyText(society domain.Society) string {
	parts := []string{society.Name, society.Description, society.Category}
	parts = append(parts, society.Tags...)

	return strings.Join(parts, " ")
}
