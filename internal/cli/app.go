package cli

import (
	"context"
	"time"

	"placement/internal/ai"
	"placement/internal/cache"
	"placement/internal/config"
	"placement/internal/errors"
	"placement/internal/observability"
	"placement/internal/service"
	"placement/internal/store"
)

const shutdownTimeout = 10 * time.Second

// app holds the dependencies a command runs against.
type app struct {
	cfg    *config.Config
	logger *errors.Logger
	store  *store.Store
	cache  *cache.Cache
	om     *observability.Manager
	ai     *ai.Service
	svc    *service.Service
}

// newApp opens the store and builds the service. Without an AI key the
// service answers analysis questions with the fallback responder.
func newApp(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*app, error) {
	om, err := observability.NewManager(cfg.Observability, Version, logger)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		_ = om.Shutdown(ctx)
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, store: st, om: om}

	if cfg.Cache.Enabled {
		a.cache = cache.New(cfg.Cache, logger)
	}

	analysisCfg := cfg.GetAnalysisConfig()
	if cfg.AIEnabled() {
		aiService, err := ai.NewService(&analysisCfg, "analysis", logger)
		if err != nil {
			logger.LogError(err, "AI service unavailable, using fallback responder")
		} else {
			a.ai = aiService
		}
	}

	opts := service.Options{
		Store:              st,
		Cache:              a.cache,
		Model:              analysisCfg.Model,
		Metrics:            om.Metrics(),
		Logger:             logger,
		EnforceEligibility: cfg.App.EnforceEligibility,
		AnalysisTimeout:    cfg.App.AnalysisTimeout,
	}
	// A typed nil would defeat the service's nil check.
	if a.ai != nil {
		opts.Analyzer = a.ai
	}
	a.svc = service.New(opts)
	return a, nil
}

// Close releases everything newApp opened.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.ai != nil {
		if err := a.ai.Close(); err != nil {
			a.logger.LogError(err, "Failed to close AI service")
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.LogError(err, "Failed to close cache")
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.LogError(err, "Failed to close store")
	}
	if err := a.om.Shutdown(ctx); err != nil {
		a.logger.LogError(err, "Failed to shut down observability")
	}
}

// withApp builds the app from the command context, runs fn and closes it.
func withApp(ctx context.Context, fn func(a *app) error) error {
	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(ctx)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
