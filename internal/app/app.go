// Package app provides the application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes methods to run
// different operational modes:
//
//   - Serve mode: HTTP API plus the periodic corpus refresh loop
//   - Refresh mode: one-shot corpus refit and embedding sync, then exit
//
// Each mode can be run independently based on deployment needs.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/campushub/society-recommender/internal/coldstart"
	"github.com/campushub/society-recommender/internal/core/domain"
	"github.com/campushub/society-recommender/internal/core/embeddings"
	"github.com/campushub/society-recommender/internal/core/feedback"
	"github.com/campushub/society-recommender/internal/core/semantic"
	"github.com/campushub/society-recommender/internal/core/textsim"
	"github.com/campushub/society-recommender/internal/platform/config"
	"github.com/campushub/society-recommender/internal/platform/observability"
	"github.com/campushub/society-recommender/internal/platform/worker"
	"github.com/campushub/society-recommender/internal/recommender"
	"github.com/campushub/society-recommender/internal/storage"
)

// Database is the storage surface the application consumes. *storage.DB
// satisfies it; tests supply fakes.
type Database interface {
	GetStudent(ctx context.Context, id int64) (domain.Student, error)
	ListSocieties(ctx context.Context, approvedOnly bool) ([]domain.Society, error)
	SocietiesByIDs(ctx context.Context, ids []int64) (map[int64]domain.Society, error)
	MembershipOverlap(ctx context.Context, studentIDs []int64) (map[int64]int, error)

	UpsertFeedbackRow(ctx context.Context, row domain.FeedbackRow) error
	SetFeedbackRating(ctx context.Context, studentID, societyID int64, rating int) error
	SetFeedbackJoined(ctx context.Context, studentID, societyID int64) error
	GetFeedbackRows(ctx context.Context, studentID int64) ([]domain.FeedbackRow, error)

	UpsertSocietyEmbedding(ctx context.Context, societyID int64, embedding []float32) error
	GetSocietyEmbeddings(ctx context.Context, ids []int64) (map[int64][]float32, error)
	FindSimilarSocieties(ctx context.Context, embedding []float32, threshold float32, limit int) ([]storage.SimilarSociety, error)

	Ping(ctx context.Context) error
}

// App holds the application dependencies and provides methods to run
// different modes.
type App struct {
	cfg      *config.Config
	database Database
	logger   *zerolog.Logger

	engine   *recommender.Engine
	embedder embeddings.Client
	analyzer *textsim.Analyzer
}

// New creates an App instance and wires the recommendation pipeline.
func New(cfg *config.Config, database Database, logger *zerolog.Logger) (*App, error) {
	enhancer, err := semantic.NewEnhancer()
	if err != nil {
		return nil, fmt.Errorf("load ontology: %w", err)
	}

	embedder := embeddings.NewClient(embeddings.Config{
		OpenAIAPIKey:     cfg.Embeddings.OpenAIAPIKey,
		OpenAIModel:      cfg.Embeddings.OpenAIModel,
		OpenAIDimensions: cfg.Embeddings.OpenAIDimensions,
		OpenAIRateLimit:  cfg.Embeddings.OpenAIRateLimit,
		UseMock:          cfg.Embeddings.UseMock,
		TargetDimensions: cfg.Embeddings.TargetDimensions,
		CircuitBreakerConfig: embeddings.CircuitBreakerConfig{
			Threshold:  cfg.Embeddings.CircuitThreshold,
			ResetAfter: cfg.Embeddings.CircuitTimeout,
		},
	}, logger)

	analyzer := textsim.NewAnalyzer(textsim.Config{
		StatePath:        cfg.Similarity.StatePath,
		KeywordLimit:     cfg.Similarity.KeywordLimit,
		SemanticBoostCap: cfg.Similarity.SemanticBoostCap,
	}, embedder, enhancer, logger)

	analyzer.LoadState()

	store := feedback.NewStore(cfg.Feedback.StorePath, logger)
	processor := feedback.NewProcessor(store, database, feedback.ProcessorConfig{
		RatingWeight: cfg.Feedback.RatingWeight,
		JoinWeight:   cfg.Feedback.JoinWeight,
	}, logger)

	cold := coldstart.NewHandler(database, cfg.DiversePopularLimit, logger)

	engine := recommender.New(database, analyzer, processor, cold, cfg.RecommendationLimit, logger)

	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
		engine:   engine,
		embedder: embedder,
		analyzer: analyzer,
	}, nil
}

// StartHealthServer starts the health check, metrics and API server.
func (a *App) StartHealthServer(ctx context.Context) error {
	server := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)
	server.Mount("/api/", newAPIHandler(a))

	return server.Start(ctx)
}

// RunServe runs the periodic corpus refresh loop until the context is
// canceled. With refreshing disabled it just blocks.
func (a *App) RunServe(ctx context.Context) error {
	if !a.cfg.CorpusRefreshEnabled {
		<-ctx.Done()

		return ctx.Err()
	}

	interval := a.cfg.CorpusRefreshEvery
	if interval <= 0 {
		a.logger.Warn().Dur("interval", interval).Msg("non-positive refresh interval, using 1h")
		interval = time.Hour
	}

	return worker.TickerLoop(ctx, worker.TickerConfig{
		Name:       "corpus-refresh",
		Interval:   interval,
		RunOnStart: true,
		Logger:     a.logger,
		OnTick: func(ctx context.Context) {
			// A tick must finish before the next one fires.
			if err := worker.RunWithTimeout(ctx, interval, a.RunRefresh); err != nil {
				a.logger.Error().Err(err).Msg("corpus refresh failed")
			}
		},
	})
}

// RunRefresh refits the similarity corpus from the current societies and
// syncs society embeddings into the database.
func (a *App) RunRefresh(ctx context.Context) error {
	if err := a.engine.RefreshCorpus(ctx); err != nil {
		return fmt.Errorf("refresh corpus: %w", err)
	}

	a.syncEmbeddings(ctx)

	return nil
}

// syncEmbeddings stores an embedding per approved society for the
// vector-search endpoint. Without a configured provider this is a no-op.
func (a *App) syncEmbeddings(ctx context.Context) {
	if a.embedder == nil {
		return
	}

	societies, err := a.database.ListSocieties(ctx, true)
	if err != nil {
		a.logger.Warn().Err(err).Msg("society listing failed for embedding sync")
		return
	}

	a.warmEmbeddingCache(ctx, societies)

	for _, society := range societies {
		vector, err := a.embedder.GetEmbedding(ctx, societyEmbeddingText(society))
		if err != nil {
			a.logger.Warn().Err(err).Int64("society_id", society.ID).Msg("embedding failed, skipping society")
			continue
		}

		if err := a.database.UpsertSocietyEmbedding(ctx, society.ID, vector); err != nil {
			a.logger.Warn().Err(err).Int64("society_id", society.ID).Msg("embedding upsert failed")
		}
	}
}

// warmEmbeddingCache primes the memoized client with embeddings already
// stored in the database, so unchanged societies are not re-embedded
// through the provider on every refresh.
func (a *App) warmEmbeddingCache(ctx context.Context, societies []domain.Society) {
	memo, ok := a.embedder.(*embeddings.MemoizedClient)
	if !ok {
		return
	}

	ids := make([]int64, 0, len(societies))
	for _, society := range societies {
		ids = append(ids, society.ID)
	}

	stored, err := a.database.GetSocietyEmbeddings(ctx, ids)
	if err != nil {
		a.logger.Warn().Err(err).Msg("stored embedding lookup failed, cache stays cold")
		return
	}

	for _, society := range societies {
		if vector, found := stored[society.ID]; found {
			memo.Prime(societyEmbeddingText(society), vector)
		}
	}

	a.logger.Debug().Int("cached", memo.Len()).Msg("embedding cache warmed")
}
