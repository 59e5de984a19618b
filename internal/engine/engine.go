// Package engine orchestrates one risk-zone evaluation: dynamic risk fusion
// first when requested, static zone matching as fallback, and the penalty
// rules last over whichever zone won.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zeropenalty/riskzone/internal/model"
	"github.com/zeropenalty/riskzone/internal/observ"
	"github.com/zeropenalty/riskzone/internal/overpass"
	"github.com/zeropenalty/riskzone/internal/risk"
	"github.com/zeropenalty/riskzone/internal/timerisk"
	"github.com/zeropenalty/riskzone/internal/zonestore"
)

// Caller-supplied parameter bounds.
const (
	maxSpeedKmh = 500
)

// Classifier resolves the road category and nearby amenities for a
// coordinate. Implementations degrade to an offline-tagged result instead of
// returning errors.
type Classifier interface {
	Classify(ctx context.Context, lat, lng float64) model.Classification
}

// HazardLookup finds accident hotspots near a coordinate, with the same
// degrade contract as Classifier.
type HazardLookup interface {
	NearbyHazards(ctx context.Context, lat, lng float64, radiusM int) model.HazardReport
}

// Options configures an Engine.
type Options struct {
	BasePenalty    float64
	DynamicEnabled bool
	HazardRadiusM  int
}

// Engine evaluates driver positions against static and dynamic risk zones.
type Engine struct {
	store      *zonestore.Store
	classifier Classifier
	hazards    HazardLookup
	metrics    *observ.Metrics

	basePenalty    float64
	dynamicEnabled bool
	hazardRadiusM  int
}

// New creates an Engine. metrics may be nil to disable instrumentation.
func New(store *zonestore.Store, classifier Classifier, hazards HazardLookup, opts Options, metrics *observ.Metrics) *Engine {
	if opts.BasePenalty <= 0 {
		opts.BasePenalty = 500
	}
	if opts.HazardRadiusM <= 0 {
		opts.HazardRadiusM = overpass.DefaultHazardRadiusM
	}
	return &Engine{
		store:          store,
		classifier:     classifier,
		hazards:        hazards,
		metrics:        metrics,
		basePenalty:    opts.BasePenalty,
		dynamicEnabled: opts.DynamicEnabled,
		hazardRadiusM:  opts.HazardRadiusM,
	}
}

// Request is one evaluation query.
type Request struct {
	Latitude  float64
	Longitude float64
	SpeedKmh  float64
	Dynamic   bool
}

// validate rejects out-of-range parameters before any lookup.
func (r Request) validate() error {
	if r.Latitude < -90 || r.Latitude > 90 {
		return validationErrorf("lat", "must be between -90 and 90, got %.4f", r.Latitude)
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return validationErrorf("lng", "must be between -180 and 180, got %.4f", r.Longitude)
	}
	if r.SpeedKmh < 0 || r.SpeedKmh > maxSpeedKmh {
		return validationErrorf("speed", "must be between 0 and %d, got %.1f", maxSpeedKmh, r.SpeedKmh)
	}
	return nil
}

// Evaluate runs the full pipeline for one request. For any in-range request
// it returns a best-effort evaluation as long as either a snapshot has
// loaded or the dynamic path can run; upstream degradation is absorbed into
// provenance fields, never surfaced as an error.
func (e *Engine) Evaluate(ctx context.Context, req Request) (*model.Evaluation, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
		}
	}()

	dynamicActive := e.dynamicEnabled && req.Dynamic
	snap := e.store.Current()
	if snap == nil && !dynamicActive {
		return nil, ErrServiceUnavailable
	}

	mode := "static"
	var zone model.Zone
	var matched bool

	if dynamicActive {
		mode = "dynamic"
		if dynamicZone, ok := e.tryDynamic(ctx, req); ok {
			zone = dynamicZone
			matched = true

			// A degraded dynamic guess is generic; a known static zone at the
			// same point is more specific, so prefer it when one matches.
			if model.OfflineSource(zone.DataSource) {
				static := zonestore.Match(req.Latitude, req.Longitude, snap)
				if !static.IsDefault {
					zap.L().Info("engine: dynamic source offline, using matched static zone",
						zap.String("zone", static.Name),
					)
					zone = static
				} else {
					zap.L().Info("engine: dynamic source offline, keeping dynamic fallback data")
				}
			}
		}
	}

	if !matched {
		if snap == nil {
			return nil, ErrServiceUnavailable
		}
		zone = zonestore.Match(req.Latitude, req.Longitude, snap)
	}

	result := e.applyRules(zone, req.SpeedKmh)
	if e.metrics != nil {
		e.metrics.Evaluations.WithLabelValues(mode, zoneKind(zone)).Inc()
	}
	return result, nil
}

// tryDynamic runs the dynamic fusion pipeline. The classifier and hazard
// lookups are contracted never to fail, so a panic here is a contract
// violation; it is recovered, logged and reported as not-ok so the caller
// falls back to static matching.
func (e *Engine) tryDynamic(ctx context.Context, req Request) (zone model.Zone, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("engine: dynamic evaluation failed, falling back to static",
				zap.Any("panic", r),
			)
			ok = false
		}
	}()

	tc := timerisk.Now()

	// The two external lookups are independent; run them concurrently, each
	// with its own timeout inside the client.
	var cls model.Classification
	var hz model.HazardReport
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cls = e.classifier.Classify(gCtx, req.Latitude, req.Longitude)
		return nil
	})
	g.Go(func() error {
		hz = e.hazards.NearbyHazards(gCtx, req.Latitude, req.Longitude, e.hazardRadiusM)
		return nil
	})
	_ = g.Wait()

	if e.metrics != nil {
		e.metrics.UpstreamRequests.WithLabelValues("classify", cls.Source).Inc()
		e.metrics.UpstreamRequests.WithLabelValues("hazards", hz.Source).Inc()
	}

	return risk.Fuse(cls, hz, tc), true
}

// CurrentTimeRisk exposes the time-risk context standalone, for dashboards
// that want it without running a full evaluation.
func (e *Engine) CurrentTimeRisk() model.TimeContext {
	return timerisk.Now()
}

// ReloadZones replaces the zone snapshot from the configured source. The
// previous snapshot stays active on failure.
func (e *Engine) ReloadZones(ctx context.Context) (int, error) {
	count, err := e.store.Reload(ctx)
	if e.metrics != nil {
		if err != nil {
			e.metrics.ZoneReloads.WithLabelValues("error").Inc()
		} else {
			e.metrics.ZoneReloads.WithLabelValues("success").Inc()
			e.metrics.ZonesLoaded.Set(float64(count))
		}
	}
	return count, err
}

// ZonesLoaded reports the size of the live snapshot, or 0 when none loaded.
func (e *Engine) ZonesLoaded() int {
	snap := e.store.Current()
	if snap == nil {
		return 0
	}
	return len(snap.Zones)
}

// zoneKind labels a zone for metrics.
func zoneKind(z model.Zone) string {
	switch {
	case z.IsDynamic:
		return "dynamic"
	case z.IsDefault:
		return "default"
	default:
		return "static"
	}
}
