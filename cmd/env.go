package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/zeropenalty/riskzone/internal/engine"
	"github.com/zeropenalty/riskzone/internal/observ"
	"github.com/zeropenalty/riskzone/internal/overpass"
	"github.com/zeropenalty/riskzone/internal/zonestore"
)

// appEnv bundles the wired evaluation engine and its lifecycle hooks.
type appEnv struct {
	Engine  *engine.Engine
	Store   *zonestore.Store
	Metrics *observ.Metrics

	closers []func() error
}

// Close releases backing resources in reverse acquisition order.
func (e *appEnv) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			zap.L().Warn("close resource", zap.Error(err))
		}
	}
}

// newZoneSource builds the configured static zone source.
func newZoneSource(ctx context.Context, env *appEnv) (zonestore.Source, error) {
	switch cfg.Zones.Driver {
	case "", "file":
		return zonestore.NewFileSource(cfg.Zones.Path), nil

	case "sqlite":
		src, err := zonestore.NewSQLite(cfg.Zones.Path)
		if err != nil {
			return nil, err
		}
		if err := src.Migrate(ctx); err != nil {
			src.Close() //nolint:errcheck
			return nil, err
		}
		env.closers = append(env.closers, src.Close)
		return src, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Zones.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "connect postgres")
		}
		env.closers = append(env.closers, func() error {
			pool.Close()
			return nil
		})
		return zonestore.NewPostgres(pool), nil

	default:
		return nil, eris.Errorf("unknown zones driver %q", cfg.Zones.Driver)
	}
}

// initEngine wires the zone store, Overpass client and engine from config.
// reg receives the Prometheus metrics; one-shot CLI commands pass nil to skip
// instrumentation.
func initEngine(ctx context.Context, reg prometheus.Registerer) (*appEnv, error) {
	env := &appEnv{}

	source, err := newZoneSource(ctx, env)
	if err != nil {
		return nil, err
	}
	env.Store = zonestore.New(source)

	// A missing or broken zone database is not fatal; the engine serves the
	// dynamic path and returns 503 for static-only requests until a reload
	// succeeds.
	if _, err := env.Store.Load(ctx); err != nil {
		zap.L().Warn("initial zone load failed, starting without snapshot",
			zap.String("source", source.Name()),
			zap.Error(err),
		)
	}

	client := overpass.NewClient(overpass.Options{
		BaseURL:        cfg.Overpass.BaseURL,
		Timeout:        time.Duration(cfg.Overpass.TimeoutSecs) * time.Second,
		RoadRadiusM:    cfg.Overpass.RoadRadiusM,
		AmenityRadiusM: cfg.Overpass.AmenityRadiusM,
		RateLimit:      rate.Limit(cfg.Overpass.RateLimit),
		RateBurst:      cfg.Overpass.RateBurst,
	})

	if reg != nil {
		env.Metrics = observ.NewMetrics(reg)
	}

	env.Engine = engine.New(env.Store, client, client, engine.Options{
		BasePenalty:    cfg.Penalty.Base,
		DynamicEnabled: cfg.Engine.DynamicEnabled,
		HazardRadiusM:  cfg.Overpass.HazardRadiusM,
	}, env.Metrics)

	return env, nil
}
