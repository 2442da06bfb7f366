// Package config loads application configuration from environment variables.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application settings.
type Config struct {
	AppEnv     string `env:"APP_ENV" envDefault:"local"`
	HealthPort int    `env:"HEALTH_PORT" envDefault:"8080"`

	Database   DatabaseConfig
	Embeddings EmbeddingsConfig
	Similarity SimilarityConfig
	Feedback   FeedbackConfig

	// Recommendation tunables
	RecommendationLimit  int           `env:"RECOMMENDATION_LIMIT" envDefault:"5"`
	DiversePopularLimit  int           `env:"DIVERSE_POPULAR_LIMIT" envDefault:"5"`
	CorpusRefreshEnabled bool          `env:"CORPUS_REFRESH_ENABLED" envDefault:"true"`
	CorpusRefreshEvery   time.Duration `env:"CORPUS_REFRESH_EVERY" envDefault:"1h"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	PostgresDSN       string        `env:"POSTGRES_DSN,required"`
	MaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"25"`
	MinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"5"`
	MaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	MaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	HealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

// EmbeddingsConfig holds embedding provider settings. An empty API key
// disables the provider and the analyzer degrades to lexical signals only.
type EmbeddingsConfig struct {
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenAIModel      string `env:"OPENAI_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	OpenAIDimensions int    `env:"OPENAI_EMBEDDING_DIMENSIONS" envDefault:"1536"`
	OpenAIRateLimit  int    `env:"OPENAI_EMBEDDING_RATE_LIMIT" envDefault:"5"`
	TargetDimensions int    `env:"EMBEDDING_TARGET_DIMENSIONS" envDefault:"1536"`
	UseMock          bool   `env:"EMBEDDING_USE_MOCK" envDefault:"false"`

	CircuitThreshold int           `env:"EMBEDDING_CIRCUIT_THRESHOLD" envDefault:"5"`
	CircuitTimeout   time.Duration `env:"EMBEDDING_CIRCUIT_TIMEOUT" envDefault:"1m"`
}

// SimilarityConfig holds text similarity analyzer settings.
type SimilarityConfig struct {
	StatePath        string  `env:"SIMILARITY_STATE_PATH" envDefault:"./data/vectorizer_state.json"`
	KeywordLimit     int     `env:"SIMILARITY_KEYWORD_LIMIT" envDefault:"10"`
	SemanticBoostCap float64 `env:"SIMILARITY_SEMANTIC_BOOST_CAP" envDefault:"0.2"`
}

// FeedbackConfig holds feedback event log settings.
type FeedbackConfig struct {
	StorePath    string  `env:"FEEDBACK_STORE_PATH" envDefault:"./data/feedback_store.json"`
	RatingWeight float64 `env:"FEEDBACK_RATING_WEIGHT" envDefault:"0.1"`
	JoinWeight   float64 `env:"FEEDBACK_JOIN_WEIGHT" envDefault:"0.3"`
}

// Load reads configuration from the environment, consulting a .env file
// if one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
