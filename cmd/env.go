package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gavelworks/appraise/internal/category"
	"github.com/gavelworks/appraise/internal/engine"
	"github.com/gavelworks/appraise/internal/providers"
	"github.com/gavelworks/appraise/internal/registry"
	"github.com/gavelworks/appraise/internal/resilience"
	"github.com/gavelworks/appraise/internal/store"
	"github.com/gavelworks/appraise/pkg/catalog"
)

// appEnv holds all initialized clients, the provider registry, and the
// engine needed by the valuate/serve/results commands.
type appEnv struct {
	Registry *registry.Registry
	Breakers *resilience.ProviderBreakers
	Sink     store.Sink
	Engine   *engine.Engine
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Sink != nil {
		_ = e.Sink.Close()
	}
}

// initEnv sets up the sink, provider registry, classifier, and engine.
// Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	sink, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := sink.Migrate(ctx); err != nil {
		_ = sink.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	reg, err := providers.BuildRegistry(ctx, cfg.Providers)
	if err != nil {
		_ = sink.Close()
		return nil, err
	}

	tables, err := category.LoadTables(cfg.Category.TablePath)
	if err != nil {
		_ = sink.Close()
		return nil, err
	}
	classifier := category.NewClassifier(tables)

	// Authority enrichment is optional; without a catalog endpoint the
	// consensus stands on the votes alone.
	var blender *engine.Blender
	if cfg.Authority.BaseURL != "" {
		catalogClient := catalog.NewClient(cfg.Authority.BaseURL, cfg.Authority.Key,
			catalog.WithTimeout(time.Duration(cfg.Authority.TimeoutSecs)*time.Second),
			catalog.WithMaxDistance(cfg.Authority.MaxNameDistance),
		)
		blender = engine.NewBlender(
			providers.NewCatalogFetcher(catalogClient),
			cfg.Authority.Categories,
			time.Duration(cfg.Authority.TimeoutSecs)*time.Second,
		)
		zap.L().Info("authority catalog enabled",
			zap.Strings("categories", cfg.Authority.Categories),
		)
	} else {
		zap.L().Debug("APPRAISE_AUTHORITY_BASE_URL not set, authority enrichment disabled")
	}

	tuning := engine.TuningFromConfig(cfg.Engine)
	breakers := resilience.NewProviderBreakers(resilience.DefaultBreakerConfig())
	orch := engine.NewOrchestrator(reg, breakers,
		time.Duration(cfg.Providers.CallTimeoutSecs)*time.Second,
		time.Duration(cfg.Engine.RunCeilingSecs)*time.Second,
		tuning.MarketLookupBonus,
	)

	eng := engine.New(reg, classifier, orch, blender, sink, tuning)

	zap.L().Info("engine initialized",
		zap.Int("providers", reg.Len()),
	)

	return &appEnv{
		Registry: reg,
		Breakers: breakers,
		Sink:     sink,
		Engine:   eng,
	}, nil
}
