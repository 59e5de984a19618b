package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/zeropenalty/riskzone/internal/model"
)

// Speed limit and multiplier adjustments applied during fusion.
const (
	maxMultiplier = 4.0

	sensitiveAmenityLimit = 20 // bump >= 2
	minorAmenityLimit     = 30 // bump == 1

	nightSpeedFactor = 0.7
	rushSpeedFactor  = 0.85
	minAdjustedLimit = 20

	schoolZoneLimit = 15

	labelHotspot    = "Accident Hotspot Nearby"
	labelActiveZone = "Active School Zone"
)

// Fuse combines the four independent risk signals into one synthesized
// dynamic zone. It is deterministic given its inputs; all external I/O
// happens before this point.
func Fuse(cls model.Classification, hazards model.HazardReport, tc model.TimeContext) model.Zone {
	rule := RuleFor(cls.RoadType)

	riskScore := rule.Risk.Ordinal()
	speedLimit := rule.SpeedLimitKmh
	multiplier := rule.Multiplier

	factors := []string{"Road Type: " + cls.RoadType}

	// Amenity bumps. Sensitive amenities also clamp the speed limit.
	for _, amenity := range cls.Amenities {
		boost, ok := BoostFor(amenity)
		if !ok {
			continue
		}
		riskScore += boost.Bump
		factors = append(factors, boost.Label)
		switch {
		case boost.Bump >= 2:
			speedLimit = min(speedLimit, sensitiveAmenityLimit)
			multiplier += 0.5
		case boost.Bump == 1:
			speedLimit = min(speedLimit, minorAmenityLimit)
			multiplier += 0.3
		}
	}

	if hazards.Present {
		riskScore += 2
		multiplier += 0.5
		factors = append(factors, fmt.Sprintf("%s (%d markers)", labelHotspot, hazards.Count))
	}

	riskScore += tc.RiskBump
	factors = append(factors, tc.Labels...)

	// Night tightens limits harder than rush hour; the two never stack.
	if tc.IsNight {
		speedLimit = max(int(float64(speedLimit)*nightSpeedFactor), minAdjustedLimit)
		multiplier += 0.5
	} else if tc.IsRushHour {
		speedLimit = max(int(float64(speedLimit)*rushSpeedFactor), minAdjustedLimit)
		multiplier += 0.2
	}

	if tc.IsSchoolHour && hasSchoolAmenity(cls.Amenities) {
		speedLimit = min(speedLimit, schoolZoneLimit)
		multiplier += 0.8
		factors = append(factors, labelActiveZone)
	}

	if riskScore > model.RiskHigh.Ordinal() {
		riskScore = model.RiskHigh.Ordinal()
	}
	multiplier = math.Round(min(multiplier, maxMultiplier)*10) / 10

	alert := model.AlertNormal
	if riskScore >= 1 {
		alert = model.AlertStrong
	}

	return model.Zone{
		ID:                "dynamic_" + cls.RoadType,
		Name:              zoneName(cls.RoadType, cls.Amenities, tc),
		RiskLevel:         model.RiskFromOrdinal(riskScore),
		SpeedLimitKmh:     speedLimit,
		PenaltyMultiplier: multiplier,
		AlertStrength:     alert,
		Description:       strings.Join(factors, " | "),
		IsDynamic:         true,
		RoadType:          cls.RoadType,
		AmenitiesNearby:   cls.Amenities,
		AccidentHotspot:   hazards.Present,
		DataSource:        cls.Source,
		TimeFactors:       &tc,
	}
}

// hasSchoolAmenity reports whether a school or college is among the matched
// amenities. Only these trigger the active-school-zone rule.
func hasSchoolAmenity(amenities []string) bool {
	for _, a := range amenities {
		if a == "school" || a == "college" {
			return true
		}
	}
	return false
}

// zoneName builds a human-readable name from the primary amenity label, or a
// road-type label when no amenity matched, plus a time suffix. The suffix
// priority is Night, then School Hours, then Rush Hour.
func zoneName(roadType string, amenities []string, tc model.TimeContext) string {
	var base string
	if len(amenities) > 0 {
		if boost, ok := BoostFor(amenities[0]); ok {
			base = boost.Label
		} else {
			base = amenities[0]
		}
	} else if label, ok := roadLabels[roadType]; ok {
		base = label
	} else {
		base = "Urban Road"
	}

	switch {
	case tc.IsNight:
		return base + " (Night)"
	case tc.IsSchoolHour:
		return base + " (School Hours)"
	case tc.IsRushHour:
		return base + " (Rush Hour)"
	}
	return base
}
