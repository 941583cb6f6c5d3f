package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment    string
	LogLevel       string
	Server         ServerConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Typesense      TypesenseConfig
	OpenAI         OpenAIConfig
	OTEL           OTELConfig
	Recommendation RecommendationConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL        string
	APIKey     string
	Collection string
}

// OpenAIConfig holds configuration for the cultural classifier and embedding provider.
type OpenAIConfig struct {
	APIKey              string
	BaseURL             string
	Model               string
	EmbeddingModel      string
	EmbeddingDimensions int
	RateLimitRPM        int
	RateLimitBurst      int
	Timeout             time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// RecommendationConfig holds tunables for the recommendation core.
// Zero values fall back to the service defaults.
type RecommendationConfig struct {
	ResponseCacheTTL       time.Duration
	ContextCacheTTL        time.Duration
	CacheSize              int
	AnalysisBatchSize      int
	AnalysisBatchDelay     time.Duration
	BatchConcurrency       int
	MinInteractionsProfile int
	MinInteractionsCF      int
	CandidatePoolSize      int
	VectorScoreThreshold   float64
	TermExpansionPath      string
	CacheWarmingInterval   time.Duration
	MaxSameRegionItems     int
	AIConfidenceCap        float64
	KeywordConfidenceCap   float64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "artisan_discovery"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:        getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:     getEnv("TYPESENSE_API_KEY", "xyz"),
			Collection: getEnv("TYPESENSE_COLLECTION", "catalog_items"),
		},
		OpenAI: OpenAIConfig{
			APIKey:              getEnv("OPENAI_API_KEY", ""),
			BaseURL:             getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:               getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			EmbeddingModel:      getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimensions: getEnvAsInt("OPENAI_EMBEDDING_DIMENSIONS", 768),
			RateLimitRPM:        getEnvAsInt("OPENAI_RATE_LIMIT_RPM", 60),
			RateLimitBurst:      getEnvAsInt("OPENAI_RATE_LIMIT_BURST", 5),
			Timeout:             getEnvAsDuration("OPENAI_TIMEOUT", 20*time.Second),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "artisan-discovery"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Recommendation: RecommendationConfig{
			ResponseCacheTTL:       getEnvAsDuration("RECO_CACHE_TTL", 30*time.Minute),
			ContextCacheTTL:        getEnvAsDuration("RECO_CONTEXT_CACHE_TTL", time.Hour),
			CacheSize:              getEnvAsInt("RECO_CACHE_SIZE", 10000),
			AnalysisBatchSize:      getEnvAsInt("RECO_ANALYSIS_BATCH_SIZE", 5),
			AnalysisBatchDelay:     getEnvAsDuration("RECO_ANALYSIS_BATCH_DELAY", 200*time.Millisecond),
			BatchConcurrency:       getEnvAsInt("RECO_BATCH_CONCURRENCY", 4),
			MinInteractionsProfile: getEnvAsInt("RECO_MIN_INTERACTIONS_PROFILE", 3),
			MinInteractionsCF:      getEnvAsInt("RECO_MIN_INTERACTIONS_CF", 5),
			CandidatePoolSize:      getEnvAsInt("RECO_CANDIDATE_POOL_SIZE", 100),
			VectorScoreThreshold:   getEnvAsFloat("RECO_VECTOR_SCORE_THRESHOLD", 0.3),
			TermExpansionPath:      getEnv("RECO_TERM_EXPANSION_PATH", ""),
			CacheWarmingInterval:   getEnvAsDuration("RECO_CACHE_WARMING_INTERVAL", 15*time.Minute),
			MaxSameRegionItems:     getEnvAsInt("RECO_MAX_SAME_REGION_ITEMS", 2),
			AIConfidenceCap:        getEnvAsFloat("RECO_AI_CONFIDENCE_CAP", 0.8),
			KeywordConfidenceCap:   getEnvAsFloat("RECO_KEYWORD_CONFIDENCE_CAP", 0.7),
		},
	}

	if cfg.OpenAI.EmbeddingDimensions <= 0 {
		return nil, fmt.Errorf("OPENAI_EMBEDDING_DIMENSIONS must be positive, got %d", cfg.OpenAI.EmbeddingDimensions)
	}

	return cfg, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
