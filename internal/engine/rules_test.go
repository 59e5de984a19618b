package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zeropenalty/riskzone/internal/model"
)

func testEngine() *Engine {
	return &Engine{basePenalty: 500}
}

func TestApplyRulesDefaults(t *testing.T) {
	// A bare zone gets documented defaults for every optional field.
	result := testEngine().applyRules(model.Zone{ID: "zone_bare", Name: "Bare"}, 50)

	assert.Equal(t, 60, result.SpeedLimitKmh)
	assert.InDelta(t, 1.0, result.PenaltyMultiplier, 0.001)
	assert.Equal(t, model.RiskLow, result.RiskLevel)
	assert.Equal(t, model.AlertNormal, result.AlertStrength)
	assert.Equal(t, model.SourceStatic, result.DataSource)
	assert.NotNil(t, result.AmenitiesNearby)
	assert.Empty(t, result.AmenitiesNearby)
	assert.False(t, result.Overspeed)
}

func TestApplyRulesOverspeed(t *testing.T) {
	zone := model.Zone{
		ID: "zone_a", Name: "A",
		SpeedLimitKmh: 30, PenaltyMultiplier: 2.0,
		RiskLevel: model.RiskMedium, AlertStrength: model.AlertStrong,
	}
	result := testEngine().applyRules(zone, 45)

	assert.True(t, result.Overspeed)
	assert.InDelta(t, 15.0, result.OverspeedByKmh, 0.001)
	assert.InDelta(t, 1000.0, result.PenaltyAmount, 0.001) // 500 * 2.0
	assert.InDelta(t, 45.0, result.CurrentSpeedKmh, 0.001)
}

func TestApplyRulesExactLimitIsNotOverspeed(t *testing.T) {
	zone := model.Zone{ID: "zone_a", Name: "A", SpeedLimitKmh: 30, PenaltyMultiplier: 2.0}
	result := testEngine().applyRules(zone, 30)

	assert.False(t, result.Overspeed)
	assert.InDelta(t, 0.0, result.PenaltyAmount, 0.001)
}

func TestApplyRulesPenaltyRounding(t *testing.T) {
	eng := &Engine{basePenalty: 333.33}
	zone := model.Zone{ID: "zone_a", Name: "A", SpeedLimitKmh: 30, PenaltyMultiplier: 1.3}
	result := eng.applyRules(zone, 40)

	// 333.33 * 1.3 = 433.329 -> 433.33
	assert.InDelta(t, 433.33, result.PenaltyAmount, 0.0001)
}

func TestApplyRulesFractionalOverspeed(t *testing.T) {
	zone := model.Zone{ID: "zone_a", Name: "A", SpeedLimitKmh: 30, PenaltyMultiplier: 1.0}
	result := testEngine().applyRules(zone, 30.456)

	assert.True(t, result.Overspeed)
	assert.InDelta(t, 0.46, result.OverspeedByKmh, 0.0001)
}

func TestApplyRulesCarriesDynamicTimeFactors(t *testing.T) {
	tc := model.TimeContext{Hour: 23, IsNight: true, RiskBump: 2, Labels: []string{"Night Hours"}}
	zone := model.Zone{
		ID: "dynamic_residential", Name: "Residential Area (Night)",
		SpeedLimitKmh: 21, PenaltyMultiplier: 2.1,
		IsDynamic: true, TimeFactors: &tc,
	}
	result := testEngine().applyRules(zone, 10)

	assert.True(t, result.IsDynamic)
	assert.Equal(t, tc, result.TimeFactors)
}

func TestRound2(t *testing.T) {
	assert.InDelta(t, 1.23, round2(1.2345), 0.0001)
	assert.InDelta(t, 1.24, round2(1.236), 0.0001)
	assert.InDelta(t, 0.0, round2(0), 0.0001)
}
