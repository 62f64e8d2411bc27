package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ideaforge-inc/ideaforge-engine/pkg/config"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/database"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/dedup"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/enrichment"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/fetcher"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/llm"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/logging"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/models"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/pipeline"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/repositories"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/retry"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/search"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	inputPath := flag.String("input", "", "candidate records file (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath, Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *inputPath != "" {
		cfg.Input = *inputPath
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting ideaforge-engine",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("input", cfg.Input),
		zap.Int("batch_workers", cfg.Pipeline.BatchWorkers))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := run(ctx, cfg, logger)
	if err != nil {
		// Connect errors can echo the DSN or endpoint credentials.
		logger.Fatal("run failed", zap.String("error", logging.SanitizeError(err)))
	}
	if report.Failed > 0 {
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*models.BatchReport, error) {
	logger.Info("connecting to database",
		zap.String("dsn", logging.SanitizeConnectionString(cfg.Database.DSN())))

	// golang-migrate wants database/sql; the pool itself is pgx.
	migrationDB, err := sql.Open("pgx", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		_ = migrationDB.Close()
		return nil, err
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	llmClient, err := llm.NewClient(&cfg.LLM, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("llm client ready",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", llmClient.Model()))

	concepts := repositories.NewConceptRepository(db)
	opportunities := repositories.NewOpportunityRepository(db)

	enrichers := []enrichment.Enricher{
		enrichment.NewProfiler(llmClient, cfg.Pipeline.MinDescriptionLen, logger),
		enrichment.NewOpportunityScorer(),
		enrichment.NewMonetizationAnalyzer(llmClient, cfg.Pipeline.MinEngagement, logger),
		enrichment.NewTrustValidator(),
	}

	// The market stage is always present; without an endpoint it records a
	// SKIPPED status per record rather than vanishing from the status map.
	var searchClient search.Client
	var breaker *search.CircuitBreaker
	if cfg.Search.Endpoint != "" {
		searchClient, err = buildSearchClient(cfg, logger)
		if err != nil {
			return nil, err
		}
		breaker = search.NewCircuitBreaker(search.DefaultCircuitBreakerConfig())
	} else {
		logger.Warn("search endpoint not configured, market validation will be skipped")
	}
	enrichers = append(enrichers,
		enrichment.NewMarketValidator(searchClient, breaker, retry.DefaultConfig(), logger))

	p := pipeline.New(
		dedup.NewCoordinator(concepts, logger),
		enrichers,
		opportunities,
		retry.DefaultConfig(),
		pipeline.Config{
			RecordTimeout: cfg.Pipeline.RecordTimeout,
			StageTimeout:  cfg.Pipeline.StageTimeout,
			BatchWorkers:  cfg.Pipeline.BatchWorkers,
		},
		logger,
	)

	candidates, err := fetcher.NewFileFetcher(cfg.Input, logger).Fetch(ctx)
	if err != nil {
		return nil, err
	}

	report := p.ProcessBatch(ctx, candidates)

	logger.Info("batch report",
		zap.Int("processed", report.Processed),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("unique", report.Unique),
		zap.Int("duplicates", report.Duplicates),
		zap.Float64("total_cost_usd", report.TotalCostUSD),
		zap.Int64("duration_ms", report.DurationMs))
	for id, msg := range report.Errors {
		logger.Warn("record failed", zap.String("record_id", id), zap.String("error", msg))
	}

	logTopOpportunities(ctx, opportunities, logger)

	return report, nil
}

// logTopOpportunities prints the highest-scoring stored records after a run.
func logTopOpportunities(ctx context.Context, repo repositories.OpportunityRepository, logger *zap.Logger) {
	top, err := repo.TopByScore(ctx, 5)
	if err != nil {
		logger.Warn("failed to list top opportunities", zap.Error(err))
		return
	}
	for i, opp := range top {
		score := 0.0
		if result := opp.Enrichment(models.ServiceScorer); result != nil && len(result.Payload) > 0 {
			var parsed struct {
				OverallScore float64 `json:"overall_score"`
			}
			if err := json.Unmarshal(result.Payload, &parsed); err == nil {
				score = parsed.OverallScore
			}
		}
		logger.Info("top opportunity",
			zap.Int("rank", i+1),
			zap.String("record_id", opp.ID),
			zap.String("title", opp.Title),
			zap.Float64("overall_score", score))
	}
}

// buildSearchClient wires the HTTP search client behind a cache: Redis when
// configured, in-process otherwise.
func buildSearchClient(cfg *config.Config, logger *zap.Logger) (search.Client, error) {
	base, err := search.NewHTTPClient(&cfg.Search.ClientConfig, logger)
	if err != nil {
		return nil, err
	}

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, err
	}

	var cache search.Cache
	if redisClient != nil {
		logger.Info("using redis search cache",
			zap.String("host", cfg.Redis.Host),
			zap.Duration("ttl", cfg.Search.CacheTTL))
		cache = search.NewRedisCache(redisClient, cfg.Search.CacheTTL, logger)
	} else {
		cache = search.NewMemoryCache(cfg.Search.CacheTTL)
	}

	return search.NewCachedClient(base, cache), nil
}
