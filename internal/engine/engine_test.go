package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeropenalty/riskzone/internal/model"
	"github.com/zeropenalty/riskzone/internal/timerisk"
	"github.com/zeropenalty/riskzone/internal/zonestore"
)

type fakeClassifier struct {
	cls model.Classification
}

func (f *fakeClassifier) Classify(context.Context, float64, float64) model.Classification {
	return f.cls
}

type fakeHazards struct {
	hz model.HazardReport
}

func (f *fakeHazards) NearbyHazards(context.Context, float64, float64, int) model.HazardReport {
	return f.hz
}

type fakeZoneSource struct {
	zones []model.Zone
	err   error
}

func (f *fakeZoneSource) Name() string { return "fake" }

func (f *fakeZoneSource) Load(context.Context) ([]model.Zone, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.zones, nil
}

func schoolZone() model.Zone {
	return model.Zone{
		ID:                "zone_school_001",
		Name:              "Greenwood High School Zone",
		RiskLevel:         model.RiskHigh,
		SpeedLimitKmh:     20,
		PenaltyMultiplier: 3.0,
		AlertStrength:     model.AlertStrong,
		Latitude:          12.9141,
		Longitude:         77.6411,
		RadiusM:           200,
	}
}

func loadedStore(t *testing.T, zones ...model.Zone) *zonestore.Store {
	t.Helper()
	store := zonestore.New(&fakeZoneSource{zones: zones})
	_, err := store.Load(context.Background())
	require.NoError(t, err)
	return store
}

func onlineClassifier(roadType string, amenities ...string) *fakeClassifier {
	if amenities == nil {
		amenities = []string{}
	}
	return &fakeClassifier{cls: model.Classification{
		RoadType: roadType, Amenities: amenities, Source: model.SourceOnline,
	}}
}

func noHazards() *fakeHazards {
	return &fakeHazards{hz: model.HazardReport{Source: model.SourceOnline}}
}

func TestEvaluateStaticOverspeed(t *testing.T) {
	store := loadedStore(t, schoolZone())
	eng := New(store, onlineClassifier("residential"), noHazards(), Options{BasePenalty: 500}, nil)

	result, err := eng.Evaluate(context.Background(), Request{
		Latitude: 12.9141, Longitude: 77.6411, SpeedKmh: 35, Dynamic: false,
	})
	require.NoError(t, err)

	assert.Equal(t, "zone_school_001", result.ZoneID)
	assert.True(t, result.Overspeed)
	assert.InDelta(t, 15.0, result.OverspeedByKmh, 0.001)
	// 500 * 3.0 = 1500
	assert.InDelta(t, 1500.0, result.PenaltyAmount, 0.001)
	assert.InDelta(t, 500.0, result.BasePenalty, 0.001)
	assert.Equal(t, model.AlertStrong, result.AlertStrength)
	assert.False(t, result.IsDynamic)
	assert.Equal(t, model.SourceStatic, result.DataSource)
}

func TestEvaluateStaticWithinLimit(t *testing.T) {
	store := loadedStore(t, schoolZone())
	eng := New(store, onlineClassifier("residential"), noHazards(), Options{BasePenalty: 500}, nil)

	result, err := eng.Evaluate(context.Background(), Request{
		Latitude: 12.9141, Longitude: 77.6411, SpeedKmh: 18, Dynamic: false,
	})
	require.NoError(t, err)

	assert.False(t, result.Overspeed)
	assert.InDelta(t, 0.0, result.OverspeedByKmh, 0.001)
	assert.InDelta(t, 0.0, result.PenaltyAmount, 0.001)
}

func TestEvaluateStaticDefaultZone(t *testing.T) {
	store := loadedStore(t, schoolZone())
	eng := New(store, onlineClassifier("residential"), noHazards(), Options{BasePenalty: 500}, nil)

	// Far away from the only static zone.
	result, err := eng.Evaluate(context.Background(), Request{
		Latitude: 28.6139, Longitude: 77.2090, SpeedKmh: 50, Dynamic: false,
	})
	require.NoError(t, err)

	assert.True(t, result.IsDefaultZone)
	assert.Equal(t, 60, result.SpeedLimitKmh)
	assert.False(t, result.Overspeed)
}

func TestEvaluateValidation(t *testing.T) {
	store := loadedStore(t, schoolZone())
	eng := New(store, onlineClassifier("residential"), noHazards(), Options{BasePenalty: 500}, nil)

	tests := []struct {
		name  string
		req   Request
		field string
	}{
		{"latitude too high", Request{Latitude: 91, Longitude: 0, SpeedKmh: 10}, "lat"},
		{"latitude too low", Request{Latitude: -91, Longitude: 0, SpeedKmh: 10}, "lat"},
		{"longitude too high", Request{Latitude: 0, Longitude: 181, SpeedKmh: 10}, "lng"},
		{"negative speed", Request{Latitude: 0, Longitude: 0, SpeedKmh: -1}, "speed"},
		{"absurd speed", Request{Latitude: 0, Longitude: 0, SpeedKmh: 501}, "speed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Evaluate(context.Background(), tt.req)
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestEvaluateNoSnapshotNoDynamic(t *testing.T) {
	store := zonestore.New(&fakeZoneSource{err: zonestore.ErrNotFound})
	eng := New(store, onlineClassifier("residential"), noHazards(), Options{BasePenalty: 500}, nil)

	_, err := eng.Evaluate(context.Background(), Request{
		Latitude: 12.9141, Longitude: 77.6411, SpeedKmh: 35, Dynamic: false,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrServiceUnavailable))
}

func TestEvaluateDynamicDisabledIgnoresFlag(t *testing.T) {
	store := loadedStore(t, schoolZone())
	eng := New(store, onlineClassifier("motorway"), noHazards(), Options{BasePenalty: 500, DynamicEnabled: false}, nil)

	result, err := eng.Evaluate(context.Background(), Request{
		Latitude: 12.9141, Longitude: 77.6411, SpeedKmh: 35, Dynamic: true,
	})
	require.NoError(t, err)

	// Dynamic is globally off; the static zone wins despite the request flag.
	assert.Equal(t, "zone_school_001", result.ZoneID)
	assert.False(t, result.IsDynamic)
}

func TestEvaluateDynamicOnline(t *testing.T) {
	store := loadedStore(t)
	eng := New(store, onlineClassifier("residential", "school"), noHazards(), Options{BasePenalty: 500, DynamicEnabled: true}, nil)

	result, err := eng.Evaluate(context.Background(), Request{
		Latitude: 12.9141, Longitude: 77.6411, SpeedKmh: 35, Dynamic: true,
	})
	require.NoError(t, err)

	assert.True(t, result.IsDynamic)
	assert.Equal(t, "dynamic_residential", result.ZoneID)
	assert.Equal(t, "residential", result.RoadType)
	assert.Equal(t, []string{"school"}, result.AmenitiesNearby)
	assert.Equal(t, model.SourceOnline, result.DataSource)
	assert.Equal(t, model.RiskHigh, result.RiskLevel)
}

func TestEvaluateDynamicOfflinePrefersStatic(t *testing.T) {
	offline := &fakeClassifier{cls: model.Classification{
		RoadType: "unclassified", Amenities: []string{}, Source: model.SourceOfflineTimeout,
	}}
	store := loadedStore(t, schoolZone())
	eng := New(store, offline, noHazards(), Options{BasePenalty: 500, DynamicEnabled: true}, nil)

	result, err := eng.Evaluate(context.Background(), Request{
		Latitude: 12.9141, Longitude: 77.6411, SpeedKmh: 35, Dynamic: true,
	})
	require.NoError(t, err)

	// Upstream is offline and a static zone covers the point: static wins.
	assert.Equal(t, "zone_school_001", result.ZoneID)
	assert.False(t, result.IsDynamic)
	assert.Equal(t, model.SourceStatic, result.DataSource)
}

func TestEvaluateDynamicOfflineKeepsFallback(t *testing.T) {
	offline := &fakeClassifier{cls: model.Classification{
		RoadType: "unclassified", Amenities: []string{}, Source: model.SourceOfflineError,
	}}
	store := loadedStore(t, schoolZone())
	eng := New(store, offline, noHazards(), Options{BasePenalty: 500, DynamicEnabled: true}, nil)

	// No static zone covers this point; the degraded dynamic result stands.
	result, err := eng.Evaluate(context.Background(), Request{
		Latitude: 28.6139, Longitude: 77.2090, SpeedKmh: 35, Dynamic: true,
	})
	require.NoError(t, err)

	assert.True(t, result.IsDynamic)
	assert.Equal(t, model.SourceOfflineError, result.DataSource)
	assert.Equal(t, "unclassified", result.RoadType)
}

func TestEvaluateDynamicWithoutSnapshot(t *testing.T) {
	store := zonestore.New(&fakeZoneSource{err: zonestore.ErrNotFound})
	eng := New(store, onlineClassifier("primary"), noHazards(), Options{BasePenalty: 500, DynamicEnabled: true}, nil)

	// Dynamic evaluation works even when the static database never loaded.
	result, err := eng.Evaluate(context.Background(), Request{
		Latitude: 12.9141, Longitude: 77.6411, SpeedKmh: 70, Dynamic: true,
	})
	require.NoError(t, err)
	assert.True(t, result.IsDynamic)
	assert.Equal(t, "dynamic_primary", result.ZoneID)
}

func TestEvaluateDynamicHazards(t *testing.T) {
	hazards := &fakeHazards{hz: model.HazardReport{Present: true, Count: 2, Source: model.SourceOnline}}
	store := loadedStore(t)
	eng := New(store, onlineClassifier("primary"), hazards, Options{BasePenalty: 500, DynamicEnabled: true}, nil)

	result, err := eng.Evaluate(context.Background(), Request{
		Latitude: 12.9141, Longitude: 77.6411, SpeedKmh: 30, Dynamic: true,
	})
	require.NoError(t, err)

	assert.True(t, result.AccidentHotspot)
	assert.Equal(t, model.RiskHigh, result.RiskLevel)
	assert.Contains(t, result.Description, "Accident Hotspot Nearby (2 markers)")
}

func TestEvaluateDynamicUsesFrozenTime(t *testing.T) {
	// Monday 23:00: night rules apply to the fused zone.
	timerisk.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { timerisk.SetClock(nil) })

	store := loadedStore(t)
	eng := New(store, onlineClassifier("motorway"), noHazards(), Options{BasePenalty: 500, DynamicEnabled: true}, nil)

	result, err := eng.Evaluate(context.Background(), Request{
		Latitude: 12.9141, Longitude: 77.6411, SpeedKmh: 80, Dynamic: true,
	})
	require.NoError(t, err)

	// 100 km/h * 0.7 = 70 at night; 80 km/h is overspeed.
	assert.Equal(t, 70, result.SpeedLimitKmh)
	assert.True(t, result.Overspeed)
	assert.True(t, result.TimeFactors.IsNight)
	assert.Equal(t, 2, result.TimeFactors.RiskBump)
}

func TestCurrentTimeRisk(t *testing.T) {
	timerisk.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 3, 2, 8, 15, 0, 0, time.UTC)))
	t.Cleanup(func() { timerisk.SetClock(nil) })

	store := loadedStore(t)
	eng := New(store, onlineClassifier("primary"), noHazards(), Options{BasePenalty: 500}, nil)

	tc := eng.CurrentTimeRisk()
	assert.True(t, tc.IsRushHour)
	assert.True(t, tc.IsSchoolHour)
	assert.Equal(t, 2, tc.RiskBump)
}

func TestReloadZones(t *testing.T) {
	src := &fakeZoneSource{zones: []model.Zone{schoolZone()}}
	store := zonestore.New(src)
	eng := New(store, onlineClassifier("primary"), noHazards(), Options{BasePenalty: 500}, nil)

	count, err := eng.ReloadZones(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, eng.ZonesLoaded())

	src.err = zonestore.ErrInvalidFormat
	_, err = eng.ReloadZones(context.Background())
	require.Error(t, err)
	// Previous snapshot survives the failed reload.
	assert.Equal(t, 1, eng.ZonesLoaded())
}

func TestZonesLoadedEmpty(t *testing.T) {
	store := zonestore.New(&fakeZoneSource{err: zonestore.ErrNotFound})
	eng := New(store, onlineClassifier("primary"), noHazards(), Options{BasePenalty: 500}, nil)
	assert.Equal(t, 0, eng.ZonesLoaded())
}
