package feedback

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/campushub/society-recommender/internal/core/domain"
)

// Event weight constants. Each event contributes a base delta; deltas roll
// up into the society, its category, and its tags at decreasing proportions.
const (
	neutralRating = 3.0

	defaultRatingWeight = 0.1
	defaultJoinWeight   = 0.3
	viewWeight          = 0.02
	dismissWeight       = -0.15
	bookmarkWeight      = 0.2

	categoryShare = 0.5
	tagShare      = 0.25

	// Applied multiplicative nudges stay within this band so feedback
	// adjusts rankings without dominating base scores.
	maxAdjustment = 0.5
)

// Adjustments is a per-student preference adjustment profile.
type Adjustments struct {
	Categories map[string]float64 `json:"categories"`
	Tags       map[string]float64 `json:"tags"`
	Societies  map[int64]float64  `json:"societies"`
}

// Empty reports whether the profile carries no signal.
func (a Adjustments) Empty() bool {
	return len(a.Categories) == 0 && len(a.Tags) == 0 && len(a.Societies) == 0
}

// SocietyLookup resolves society attributes for rolling event deltas up into
// category and tag weights.
type SocietyLookup interface {
	SocietiesByIDs(ctx context.Context, ids []int64) (map[int64]domain.Society, error)
}

// ProcessorConfig holds processor tunables.
type ProcessorConfig struct {
	RatingWeight float64
	JoinWeight   float64
}

// Processor aggregates the event log into adjustment profiles and applies
// them to candidate score lists. Profiles are cached per student and
// invalidated when the store's change marker moves.
type Processor struct {
	store     *Store
	societies SocietyLookup
	cfg       ProcessorConfig
	logger    *zerolog.Logger

	mu          sync.Mutex
	cache       map[int64]Adjustments
	cacheMarker string
}

// NewProcessor creates a feedback processor over the given store.
func NewProcessor(store *Store, societies SocietyLookup, cfg ProcessorConfig, logger *zerolog.Logger) *Processor {
	if cfg.RatingWeight == 0 {
		cfg.RatingWeight = defaultRatingWeight
	}

	if cfg.JoinWeight == 0 {
		cfg.JoinWeight = defaultJoinWeight
	}

	return &Processor{
		store:     store,
		societies: societies,
		cfg:       cfg,
		logger:    logger,
		cache:     make(map[int64]Adjustments),
	}
}

// Record appends a feedback event to the log. See Store.Record.
func (p *Processor) Record(studentID, societyID int64, eventType EventType, value float64, metadata map[string]string) bool {
	return p.store.Record(studentID, societyID, eventType, value, metadata)
}

// PreferenceAdjustments aggregates every event for the student into weighted
// category, tag, and society deltas. A student with no events gets an empty
// profile. Results are cached until the store changes.
func (p *Processor) PreferenceAdjustments(ctx context.Context, studentID int64) Adjustments {
	marker := p.store.LastUpdated()

	p.mu.Lock()
	if marker != p.cacheMarker {
		p.cache = make(map[int64]Adjustments)
		p.cacheMarker = marker
	} else if cached, ok := p.cache[studentID]; ok {
		p.mu.Unlock()
		return cached
	}
	p.mu.Unlock()

	adjustments := p.compute(ctx, studentID)

	p.mu.Lock()
	// A concurrent Record may have moved the marker; only cache when the
	// profile still reflects the current store.
	if p.cacheMarker == marker {
		p.cache[studentID] = adjustments
	}
	p.mu.Unlock()

	return adjustments
}

func (p *Processor) compute(ctx context.Context, studentID int64) Adjustments {
	adjustments := Adjustments{
		Categories: map[string]float64{},
		Tags:       map[string]float64{},
		Societies:  map[int64]float64{},
	}

	events := p.store.EventsFor(studentID)
	if len(events) == 0 {
		return adjustments
	}

	societyIDs := make([]int64, 0, len(events))
	for _, event := range events {
		societyIDs = append(societyIDs, event.SocietyID)
	}

	societies, err := p.societies.SocietiesByIDs(ctx, societyIDs)
	if err != nil {
		// Without society attributes only the direct society deltas apply.
		p.logger.Warn().Err(err).Msg("society lookup failed, computing society-only adjustments")

		societies = map[int64]domain.Society{}
	}

	for _, event := range events {
		delta := p.eventDelta(event)
		if delta == 0 {
			continue
		}

		adjustments.Societies[event.SocietyID] += delta

		society, ok := societies[event.SocietyID]
		if !ok {
			continue
		}

		if society.Category != "" {
			adjustments.Categories[society.Category] += delta * categoryShare
		}

		for _, tag := range society.Tags {
			adjustments.Tags[tag] += delta * tagShare
		}
	}

	return adjustments
}

func (p *Processor) eventDelta(event Event) float64 {
	switch event.Type {
	case EventRating:
		return (event.Value - neutralRating) * p.cfg.RatingWeight
	case EventJoin:
		return p.cfg.JoinWeight
	case EventView:
		return viewWeight
	case EventDismiss:
		return dismissWeight
	case EventBookmark:
		return bookmarkWeight
	default:
		return 0
	}
}

// ApplyAdjustments nudges each candidate score by the student's adjustment
// profile, recording the applied delta. A student with no feedback receives
// back numerically identical scores in the same order.
func (p *Processor) ApplyAdjustments(ctx context.Context, studentID int64, scored []domain.ScoredSociety) []domain.ScoredSociety {
	adjustments := p.PreferenceAdjustments(ctx, studentID)
	if adjustments.Empty() {
		return scored
	}

	result := make([]domain.ScoredSociety, len(scored))

	for i, candidate := range scored {
		delta := adjustments.Societies[candidate.Society.ID]
		delta += adjustments.Categories[candidate.Society.Category]

		for _, tag := range candidate.Society.Tags {
			delta += adjustments.Tags[tag]
		}

		if delta > maxAdjustment {
			delta = maxAdjustment
		} else if delta < -maxAdjustment {
			delta = -maxAdjustment
		}

		candidate.FeedbackAdjustment = delta
		candidate.Score *= 1.0 + delta
		result[i] = candidate
	}

	return result
}
