package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_TypesenseConfig(t *testing.T) {
	t.Setenv("TYPESENSE_URL", "http://test-typesense:8108")
	t.Setenv("TYPESENSE_API_KEY", "test-key")
	t.Setenv("TYPESENSE_COLLECTION", "crafts")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://test-typesense:8108", cfg.Typesense.URL)
	assert.Equal(t, "test-key", cfg.Typesense.APIKey)
	assert.Equal(t, "crafts", cfg.Typesense.Collection)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8108", cfg.Typesense.URL)
	assert.Equal(t, "catalog_items", cfg.Typesense.Collection)
	assert.Equal(t, 768, cfg.OpenAI.EmbeddingDimensions)
	assert.Equal(t, 30*time.Minute, cfg.Recommendation.ResponseCacheTTL)
	assert.Equal(t, time.Hour, cfg.Recommendation.ContextCacheTTL)
	assert.Equal(t, 5, cfg.Recommendation.AnalysisBatchSize)
	assert.Equal(t, 3, cfg.Recommendation.MinInteractionsProfile)
	assert.Equal(t, 5, cfg.Recommendation.MinInteractionsCF)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoad_AllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " https://shop.example , ,https://admin.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://shop.example", "https://admin.example"}, cfg.Server.AllowedOrigins)
}

func TestLoad_RecommendationOverrides(t *testing.T) {
	t.Setenv("RECO_CACHE_TTL", "45m")
	t.Setenv("RECO_VECTOR_SCORE_THRESHOLD", "0.55")
	t.Setenv("RECO_BATCH_CONCURRENCY", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 45*time.Minute, cfg.Recommendation.ResponseCacheTTL)
	assert.InDelta(t, 0.55, cfg.Recommendation.VectorScoreThreshold, 1e-9)
	// malformed values keep the default
	assert.Equal(t, 4, cfg.Recommendation.BatchConcurrency)
}

func TestLoad_RejectsNonPositiveDimensions(t *testing.T) {
	t.Setenv("OPENAI_EMBEDDING_DIMENSIONS", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=d sslmode=disable", c.DatabaseDSN())
}
