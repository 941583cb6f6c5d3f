package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zatekoja/artisan-discovery/backend/internal/adapters/cache"
	"github.com/zatekoja/artisan-discovery/backend/internal/adapters/database"
	"github.com/zatekoja/artisan-discovery/backend/internal/adapters/events"
	"github.com/zatekoja/artisan-discovery/backend/internal/adapters/search"
	"github.com/zatekoja/artisan-discovery/backend/internal/api/handlers"
	"github.com/zatekoja/artisan-discovery/backend/internal/api/middleware"
	"github.com/zatekoja/artisan-discovery/backend/internal/api/routes"
	"github.com/zatekoja/artisan-discovery/backend/internal/application/services"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/providers"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/repositories"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/clients/openai"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/observability"
	"github.com/zatekoja/artisan-discovery/backend/pkg/config"
	"github.com/zatekoja/artisan-discovery/backend/pkg/secrets"
)

func main() {
	// Secrets from Vault land in the environment before configuration is read
	vaultCtx, vaultCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if res, err := secrets.ApplyVaultSecrets(vaultCtx, secrets.LoadVaultConfigFromEnv(), observability.GetLogger()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load Vault secrets: %v\n", err)
		vaultCancel()
		os.Exit(1)
	} else if res.Enabled {
		fmt.Fprintf(os.Stderr, "Loaded %d secrets from Vault path %s (%d skipped)\n", res.Loaded, res.Path, res.Skipped)
	}
	vaultCancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment, cfg.LogLevel)
	logger := observability.GetLogger()

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	checks := map[string]handlers.HealthCheck{}

	// Typesense holds the catalog and is required
	typesenseClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize Typesense client")
	}
	catalogIndex := search.NewTypesenseAdapter(typesenseClient, cfg.OpenAI.EmbeddingDimensions)
	if err := catalogIndex.InitSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to init Typesense schema")
	}
	checks["typesense"] = typesenseClient.Ping

	// Postgres persists the interaction log; without it profiles live in memory only
	var interactions repositories.InteractionRepository
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("PostgreSQL unavailable, interactions will not be persisted")
	} else {
		defer pgClient.Close()
		adapter := database.NewInteractionAdapter(pgClient)
		if err := adapter.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to create interaction schema")
		}
		interactions = adapter
		checks["postgres"] = pgClient.Ping
	}

	// Redis backs the shared response cache and cross-instance events
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, using in-process cache without cross-instance invalidation")
		cacheProvider = cache.NewMemoryAdapter(cfg.Recommendation.CacheSize, cfg.Recommendation.ResponseCacheTTL)
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		checks["redis"] = redisClient.Ping
	}

	// OpenAI is optional; analysis falls back to keywords and search to text
	var classifier providers.TextClassifier
	var embedder providers.EmbeddingProvider
	if cfg.OpenAI.APIKey != "" {
		aiClient, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize OpenAI client")
		} else {
			classifier = aiClient
			embedder = aiClient
		}
	} else {
		logger.Warn().Msg("OPENAI_API_KEY not set, cultural analysis uses keyword matching only")
	}

	// Services
	rc := cfg.Recommendation
	scoring := services.ScoringConfigFrom(rc)

	analyzer := services.NewCulturalAnalyzerService(classifier, scoring, services.CulturalAnalyzerOptions{
		CacheSize:         rc.CacheSize,
		CacheTTL:          rc.ContextCacheTTL,
		BatchSize:         rc.AnalysisBatchSize,
		BatchDelay:        rc.AnalysisBatchDelay,
		ClassifierTimeout: cfg.OpenAI.Timeout,
	})
	analyzer.SetMetrics(metrics)

	searchService, err := services.NewCatalogSearchService(catalogIndex, embedder, analyzer, services.CatalogSearchOptions{
		ScoreThreshold:    rc.VectorScoreThreshold,
		TermExpansionPath: rc.TermExpansionPath,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize catalog search")
	}

	itemLoader := services.NewCatalogItemLoader(catalogIndex, 2*time.Millisecond)
	contexts := services.NewCulturalContextResolver(itemLoader, analyzer, rc.CacheSize, rc.ContextCacheTTL)
	collaborative := services.NewCollaborativeFilterService(interactions, contexts, scoring)

	warmStart := time.Now()
	if n, err := collaborative.Warm(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to replay interaction log")
	} else {
		logger.Info().Int("interactions", n).Dur("took", time.Since(warmStart)).Msg("Rebuilt user profiles")
	}

	recommendations := services.NewRecommendationService(
		analyzer,
		services.NewContentSimilarityService(scoring),
		collaborative,
		searchService,
		itemLoader,
		contexts,
		cacheProvider,
		eventBus,
		scoring,
		services.RecommendationOptions{
			ResponseCacheTTL:  rc.ResponseCacheTTL,
			CandidatePoolSize: rc.CandidatePoolSize,
			BatchConcurrency:  rc.BatchConcurrency,
		},
	)
	recommendations.SetMetrics(metrics)

	var cacheInvalidationService *services.CacheInvalidationService
	if eventBus != nil {
		cacheInvalidationService = services.NewCacheInvalidationService(recommendations, eventBus)
		if err := cacheInvalidationService.Start(); err != nil {
			logger.Warn().Err(err).Msg("Failed to start cache invalidation service")
		}
	}

	if rc.CacheWarmingInterval > 0 {
		warming := services.NewCacheWarmingService(recommendations, entities.AllRegions())
		go warming.StartPeriodicWarming(ctx, rc.CacheWarmingInterval)
	}

	// Handlers
	cacheMiddleware := middleware.NewCacheMiddleware(cacheProvider)
	router := routes.NewRouter(
		handlers.NewRecommendationHandler(recommendations),
		handlers.NewCatalogHandler(searchService, analyzer, recommendations),
		handlers.NewAdminHandler(recommendations, cacheMiddleware),
		handlers.NewHealthHandler(checks),
		cacheMiddleware,
		metrics,
		cfg.Server.AllowedOrigins,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Str("instance", recommendations.InstanceID()).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Server shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during server shutdown")
	}

	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing event bus")
		}
	}

	logger.Info().Msg("Server stopped")
}
