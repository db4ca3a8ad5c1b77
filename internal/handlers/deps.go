// Package handlers exposes the application pipeline over HTTP and API Gateway.
package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"loan-application-engine/internal/catalog"
	"loan-application-engine/internal/config"
	"loan-application-engine/internal/services/database"
	"loan-application-engine/internal/services/decision"
	"loan-application-engine/internal/services/intent"
	"loan-application-engine/internal/services/matcher"
	"loan-application-engine/internal/services/pipeline"
	"loan-application-engine/internal/services/profile"
	"loan-application-engine/internal/services/risk"
	s3service "loan-application-engine/internal/services/s3"
	"loan-application-engine/internal/services/ses"
)

// Dependencies is the wired set of services shared by the server and the Lambdas.
// Optional collaborators are nil when their backing service is not configured.
type Dependencies struct {
	Config       *config.Config
	Catalog      *catalog.Catalog
	Pipeline     *pipeline.Pipeline
	Extractor    *intent.Extractor
	DB           *database.DB
	Applications *database.ApplicationRepository
	Cache        *risk.RedisCache
	Documents    *s3service.Service
}

// NewDependencies builds every service from cfg. A bad catalog or policy is fatal;
// an unreachable database, cache or AWS service only disables that feature.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	policy, err := decision.ParsePolicy(cfg.EligibilityPolicy)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{Config: cfg, Catalog: cat}

	var generator risk.Generator
	gemini := risk.NewGeminiClient(risk.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	})
	if gemini.Enabled() {
		generator = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, risk assessment will use the fallback verdict")
	}

	if cfg.RedisAddr != "" {
		cache := risk.NewRedisCache(risk.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), cfg.RiskCacheTTL)
		if err := cache.Ping(ctx); err != nil {
			logger.Warn("Verdict cache unavailable", zap.Error(err))
			_ = cache.Close()
		} else {
			deps.Cache = cache
		}
	}

	var store pipeline.Store
	if cfg.DatabaseConfigured() {
		db, err := database.New(ctx, cfg.DatabaseURL(), database.DefaultPoolConfig())
		if err != nil {
			logger.Warn("Database unavailable, submissions will not be stored", zap.Error(err))
		} else {
			deps.DB = db
			deps.Applications = database.NewApplicationRepository(db)
			store = deps.Applications

			if n, err := database.NewProductRepository(db).SyncCatalog(ctx, cat); err != nil {
				logger.Warn("Failed to mirror catalog into database", zap.Error(err))
			} else {
				logger.Info("Catalog mirrored into database", zap.Int("products", n), zap.Int("version", cat.Version()))
			}
		}
	}

	var notifier pipeline.Notifier
	if cfg.SESSenderEmail != "" {
		svc, err := ses.NewService(ctx, cfg.AWSRegion, cfg.SESSenderEmail, logger)
		if err != nil {
			logger.Warn("SES unavailable, decision emails disabled", zap.Error(err))
		} else {
			notifier = svc
		}
	}

	if cfg.S3Bucket != "" {
		docs, err := s3service.NewService(ctx, cfg.AWSRegion, cfg.S3Bucket, logger)
		if err != nil {
			logger.Warn("S3 unavailable, document uploads disabled", zap.Error(err))
		} else {
			deps.Documents = docs
		}
	}

	var cache risk.VerdictCache
	if deps.Cache != nil {
		cache = deps.Cache
	}

	deps.Pipeline = pipeline.New(pipeline.Config{
		Builder: profile.NewBuilder(),
		Assessor: risk.NewAssessor(generator, risk.Options{
			Timeout:     cfg.RiskTimeout,
			MaxAttempts: cfg.RiskMaxAttempts,
			Cache:       cache,
		}, logger),
		Matcher:    matcher.NewMatcher(cat, logger),
		Aggregator: decision.NewAggregator(policy),
		Store:      store,
		Notifier:   notifier,
		Logger:     logger,
	})
	deps.Extractor = intent.NewExtractor(generator, logger)

	logger.Info("Services initialized",
		zap.Int("products", cat.Len()),
		zap.String("policy", string(policy)),
		zap.Bool("database", deps.DB != nil),
		zap.Bool("cache", deps.Cache != nil),
		zap.Bool("email", notifier != nil),
		zap.Bool("documents", deps.Documents != nil),
	)

	return deps, nil
}

// Close releases pooled connections.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
	if d.Cache != nil {
		_ = d.Cache.Close()
	}
}

// ServerOptions converts the dependencies into server options. Unconfigured
// collaborators stay as nil interfaces rather than typed nil pointers.
func (d *Dependencies) ServerOptions(logger *zap.Logger) ServerOptions {
	opts := ServerOptions{
		Pipeline:  d.Pipeline,
		Catalog:   d.Catalog,
		Extractor: d.Extractor,
		Checks:    d.HealthChecks(),
		PublicDir: d.Config.PublicDir,
		Logger:    logger,
	}
	if d.Applications != nil {
		opts.Applications = d.Applications
	}
	if d.Documents != nil {
		opts.Documents = d.Documents
	}
	return opts
}
