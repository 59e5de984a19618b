package zonestore

import (
	"math"

	"go.uber.org/zap"

	"github.com/zeropenalty/riskzone/internal/model"
)

// earthRadiusM is the mean Earth radius used for great-circle distances.
const earthRadiusM = 6371000.0

// DefaultZone is returned when no static zone contains the query point.
// It represents a standard open road with relaxed rules.
func DefaultZone() model.Zone {
	return model.Zone{
		ID:                "zone_default",
		Name:              "Open Road (Default Zone)",
		RiskLevel:         model.RiskLow,
		SpeedLimitKmh:     60,
		PenaltyMultiplier: 1.0,
		AlertStrength:     model.AlertNormal,
		Description:       "No special risk zone detected. Standard road rules apply.",
		IsDefault:         true,
	}
}

// Match finds the static zone containing the query point. A zone is a
// candidate when the great-circle distance to its anchor is within its
// radius; among candidates the strictly nearest wins, and on an exact
// distance tie the first-listed zone wins. Returns DefaultZone when no
// candidate matches or the snapshot is nil.
func Match(lat, lng float64, snap *model.Snapshot) model.Zone {
	if snap == nil {
		return DefaultZone()
	}

	var matched *model.Zone
	closest := math.Inf(1)
	for i := range snap.Zones {
		z := &snap.Zones[i]
		d := haversineMeters(lat, lng, z.Latitude, z.Longitude)
		if d <= z.RadiusM && d < closest {
			closest = d
			matched = z
		}
	}

	if matched == nil {
		zap.L().Debug("zonestore: no static zone matched, using default")
		return DefaultZone()
	}

	zap.L().Info("zonestore: static zone matched",
		zap.String("zone", matched.Name),
		zap.Float64("distance_m", closest),
	)
	return *matched
}

// haversineMeters computes the great-circle distance between two points.
func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180

	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lng2 - lng1) * degToRad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
