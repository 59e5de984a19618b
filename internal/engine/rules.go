package engine

import (
	"math"

	"github.com/zeropenalty/riskzone/internal/model"
	"github.com/zeropenalty/riskzone/internal/timerisk"
)

// Documented defaults for optional zone fields. Matching and fusion both
// guarantee populated zones, so these only matter for hand-built inputs.
const (
	defaultSpeedLimitKmh = 60
	defaultMultiplier    = 1.0
)

// applyRules evaluates the driver's speed against the zone's rules. It is a
// total function: missing optional fields fall back to documented defaults
// and it never fails.
func (e *Engine) applyRules(zone model.Zone, speedKmh float64) *model.Evaluation {
	speedLimit := zone.SpeedLimitKmh
	if speedLimit <= 0 {
		speedLimit = defaultSpeedLimitKmh
	}
	multiplier := zone.PenaltyMultiplier
	if multiplier <= 0 {
		multiplier = defaultMultiplier
	}
	riskLevel := zone.RiskLevel
	if riskLevel == "" {
		riskLevel = model.RiskLow
	}
	alert := zone.AlertStrength
	if alert == "" {
		alert = model.AlertNormal
	}
	dataSource := zone.DataSource
	if dataSource == "" {
		dataSource = model.SourceStatic
	}
	amenities := zone.AmenitiesNearby
	if amenities == nil {
		amenities = []string{}
	}

	overspeed := speedKmh > float64(speedLimit)
	var penalty float64
	if overspeed {
		penalty = round2(e.basePenalty * multiplier)
	}

	// The dynamic path carries the time context it fused with; static zones
	// have no time data, so compute it fresh at evaluation time.
	var tc model.TimeContext
	if zone.TimeFactors != nil {
		tc = *zone.TimeFactors
	} else {
		tc = timerisk.Now()
	}

	return &model.Evaluation{
		ZoneID:            zone.ID,
		ZoneName:          zone.Name,
		RiskLevel:         riskLevel,
		Description:       zone.Description,
		SpeedLimitKmh:     speedLimit,
		AlertStrength:     alert,
		PenaltyMultiplier: multiplier,
		CurrentSpeedKmh:   speedKmh,
		Overspeed:         overspeed,
		OverspeedByKmh:    round2(math.Max(0, speedKmh-float64(speedLimit))),
		BasePenalty:       e.basePenalty,
		PenaltyAmount:     penalty,
		IsDefaultZone:     zone.IsDefault,
		IsDynamic:         zone.IsDynamic,
		RoadType:          zone.RoadType,
		AmenitiesNearby:   amenities,
		DataSource:        dataSource,
		AccidentHotspot:   zone.AccidentHotspot,
		TimeFactors:       tc,
	}
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
