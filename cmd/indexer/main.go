package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/artisan-discovery/backend/internal/adapters/events"
	"github.com/zatekoja/artisan-discovery/backend/internal/adapters/search"
	"github.com/zatekoja/artisan-discovery/backend/internal/application/services"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/providers"
	"github.com/zatekoja/artisan-discovery/backend/internal/evaluation"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/clients/openai"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/observability"
	"github.com/zatekoja/artisan-discovery/backend/pkg/config"
	"github.com/zatekoja/artisan-discovery/backend/pkg/secrets"
)

func main() {
	var reset bool
	var intervalFlag string
	var seedFile string
	var concurrency int
	var goldenFile string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.StringVar(&seedFile, "file", envOr("CATALOG_SEED_FILE", "scripts/seed_catalog.json"), "catalog seed JSON file")
	flag.IntVar(&concurrency, "concurrency", 4, "items analysed and embedded in parallel")
	flag.StringVar(&goldenFile, "golden", os.Getenv("GOLDEN_QUERIES_FILE"), "golden query set evaluated after indexing")
	flag.Parse()

	vaultCtx, vaultCancel := context.WithTimeout(context.Background(), 10*time.Second)
	_, err := secrets.ApplyVaultSecrets(vaultCtx, secrets.LoadVaultConfigFromEnv(), observability.GetLogger())
	vaultCancel()
	if err != nil {
		observability.GetLogger().Fatal().Err(err).Msg("Failed to load Vault secrets")
	}

	cfg, err := config.Load()
	if err != nil {
		observability.GetLogger().Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-indexer", cfg.Environment, cfg.LogLevel)
	logger := observability.GetLogger()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			logger.Fatal().Err(err).Str("interval", intervalValue).Msg("Invalid interval")
		}
		if interval <= 0 {
			logger.Fatal().Msg("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, seedFile, goldenFile, reset, concurrency); err != nil {
			logger.Error().Err(err).Msg("Reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		logger.Info().Dur("next_run_in", interval).Msg("Reindex complete")

		select {
		case <-ctx.Done():
			logger.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, seedFile, goldenFile string, reset bool, concurrency int) error {
	logger := observability.LoggerFromContext(ctx)

	f, err := os.Open(seedFile)
	if err != nil {
		return err
	}
	items, err := loadCatalogSeed(f, time.Now())
	f.Close()
	if err != nil {
		return err
	}

	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		return err
	}
	index := search.NewTypesenseAdapter(tsClient, cfg.OpenAI.EmbeddingDimensions)

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		logger.Warn().Str("collection", tsClient.Collection()).Msg("Deleting catalog collection")
		if err := index.DropSchema(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to delete collection")
		}
	}
	if err := index.InitSchema(ctx); err != nil {
		return err
	}

	var classifier providers.TextClassifier
	var embedder providers.EmbeddingProvider
	if cfg.OpenAI.APIKey != "" {
		aiClient, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			return err
		}
		classifier = aiClient
		embedder = aiClient
	}

	scoring := services.ScoringConfigFrom(cfg.Recommendation)
	analyzer := services.NewCulturalAnalyzerService(classifier, scoring, services.CulturalAnalyzerOptions{
		ClassifierTimeout: cfg.OpenAI.Timeout,
	})
	searchService, err := services.NewCatalogSearchService(index, embedder, analyzer, services.CatalogSearchOptions{})
	if err != nil {
		return err
	}

	// Running API instances drop their cached context for each re-indexed item
	var eventBus providers.EventBus
	if redisClient, err := redis.NewClient(ctx, &cfg.Redis); err == nil {
		defer redisClient.Close()
		bus := events.NewRedisEventBus(redisClient)
		defer bus.Close()
		eventBus = bus
	}

	logger.Info().Int("items", len(items)).Msg("Indexing catalog")

	var indexed, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for _, item := range items {
		g.Go(func() error {
			if err := searchService.IndexItem(gctx, item); err != nil {
				failed.Add(1)
				logger.Warn().Err(err).Str("item_id", item.ID).Msg("Failed to index item")
				return nil
			}
			indexed.Add(1)
			if eventBus != nil {
				event := entities.NewRecommendationEvent(entities.EventItemIndexed, "", item.ID)
				if err := eventBus.Publish(gctx, providers.EventChannelRecommendations, event); err != nil {
					logger.Debug().Err(err).Str("item_id", item.ID).Msg("Failed to publish item indexed event")
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info().
		Int64("indexed", indexed.Load()).
		Int64("failed", failed.Load()).
		Interface("analyzer", analyzer.Stats()).
		Msg("Catalog indexing finished")

	if goldenFile == "" {
		return nil
	}
	return evaluateSearch(ctx, searchService, goldenFile)
}

// evaluateSearch replays the golden query set against the freshly built index
// and reports any quality gate violations.
func evaluateSearch(ctx context.Context, searchService evaluation.SearchResultProvider, goldenFile string) error {
	logger := observability.LoggerFromContext(ctx)

	queries, err := evaluation.LoadGoldenQueries(goldenFile)
	if err != nil {
		return err
	}
	if err := evaluation.ValidateGoldenQueries(queries); err != nil {
		return err
	}

	summary, results := evaluation.NewRunner(searchService).Run(ctx, queries)
	for _, r := range results {
		logger.Debug().
			Str("query_id", r.QueryID).
			Str("facet", string(r.Facet)).
			Float64("recall_at_10", r.RecallAt10).
			Float64("mrr_at_10", r.MRRAt10).
			Strs("labels", r.RetrievedLabels).
			Dur("latency", r.Latency).
			Msg("Golden query evaluated")
	}

	event := logger.Info()
	if violations := evaluation.DefaultQualityGate().Check(summary); len(violations) > 0 {
		event = logger.Warn().Strs("violations", violations)
	}
	event.
		Int("queries", summary.TotalQueries).
		Int("failed", summary.FailedQueries).
		Int("with_hits", summary.QueriesWithHits).
		Float64("recall_at_10", summary.AvgRecallAt10).
		Float64("mrr_at_10", summary.AvgMRRAt10).
		Float64("precision_at_10", summary.AvgPrecision).
		Dur("avg_latency", summary.AvgLatency).
		Msg("Search evaluation finished")
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
