// Package risk fuses road classification, nearby amenities, accident
// hotspots and time-of-day context into a single synthesized zone.
package risk

import "github.com/zeropenalty/riskzone/internal/model"

// RoadUnclassified is the fallback road category when the classifier has no
// better answer. It is always present in the rule table.
const RoadUnclassified = "unclassified"

// RoadRule holds the base driving rules for one road category.
type RoadRule struct {
	SpeedLimitKmh int
	Risk          model.RiskLevel
	Multiplier    float64
}

// roadRules maps OSM highway categories to base rules. The table is
// initialized once and never mutated at runtime.
var roadRules = map[string]RoadRule{
	// Highway / fast roads.
	"motorway":      {SpeedLimitKmh: 100, Risk: model.RiskLow, Multiplier: 1.0},
	"motorway_link": {SpeedLimitKmh: 80, Risk: model.RiskLow, Multiplier: 1.0},
	"trunk":         {SpeedLimitKmh: 80, Risk: model.RiskLow, Multiplier: 1.1},
	"trunk_link":    {SpeedLimitKmh: 60, Risk: model.RiskLow, Multiplier: 1.1},
	// Primary roads.
	"primary":      {SpeedLimitKmh: 60, Risk: model.RiskLow, Multiplier: 1.2},
	"primary_link": {SpeedLimitKmh: 50, Risk: model.RiskMedium, Multiplier: 1.3},
	// Secondary roads.
	"secondary":      {SpeedLimitKmh: 50, Risk: model.RiskMedium, Multiplier: 1.4},
	"secondary_link": {SpeedLimitKmh: 40, Risk: model.RiskMedium, Multiplier: 1.4},
	// Tertiary roads.
	"tertiary":      {SpeedLimitKmh: 40, Risk: model.RiskMedium, Multiplier: 1.5},
	"tertiary_link": {SpeedLimitKmh: 30, Risk: model.RiskMedium, Multiplier: 1.5},
	// Urban / residential.
	"residential":    {SpeedLimitKmh: 30, Risk: model.RiskMedium, Multiplier: 1.6},
	"living_street":  {SpeedLimitKmh: 20, Risk: model.RiskHigh, Multiplier: 2.0},
	RoadUnclassified: {SpeedLimitKmh: 30, Risk: model.RiskMedium, Multiplier: 1.5},
	// Special zones.
	"pedestrian": {SpeedLimitKmh: 10, Risk: model.RiskHigh, Multiplier: 3.0},
	"footway":    {SpeedLimitKmh: 10, Risk: model.RiskHigh, Multiplier: 3.0},
	"service":    {SpeedLimitKmh: 20, Risk: model.RiskHigh, Multiplier: 2.0},
	"track":      {SpeedLimitKmh: 20, Risk: model.RiskHigh, Multiplier: 2.0},
	"path":       {SpeedLimitKmh: 10, Risk: model.RiskHigh, Multiplier: 3.0},
}

// RuleFor returns the base rule for a road category, falling back to the
// unclassified rule for unknown categories.
func RuleFor(roadType string) RoadRule {
	if r, ok := roadRules[roadType]; ok {
		return r
	}
	return roadRules[RoadUnclassified]
}

// AmenityBoost describes the risk contribution of one amenity category.
type AmenityBoost struct {
	Bump  int
	Label string
}

// amenityBoosts maps OSM amenity tags to risk boosts. A bump of 2 clamps the
// speed limit to 20 km/h; a bump of 1 clamps it to 30 km/h.
var amenityBoosts = map[string]AmenityBoost{
	"school":           {Bump: 2, Label: "School Zone"},
	"college":          {Bump: 1, Label: "College Zone"},
	"university":       {Bump: 1, Label: "University Zone"},
	"hospital":         {Bump: 2, Label: "Hospital Zone"},
	"clinic":           {Bump: 1, Label: "Clinic Zone"},
	"marketplace":      {Bump: 2, Label: "Market Zone"},
	"place_of_worship": {Bump: 1, Label: "Religious Area"},
	"bus_station":      {Bump: 1, Label: "Bus Station"},
	"railway_station":  {Bump: 2, Label: "Railway Station"},
}

// BoostFor returns the boost for an amenity tag, if the tag is tracked.
func BoostFor(amenity string) (AmenityBoost, bool) {
	b, ok := amenityBoosts[amenity]
	return b, ok
}

// KnownAmenity reports whether the amenity tag carries a risk boost.
func KnownAmenity(amenity string) bool {
	_, ok := amenityBoosts[amenity]
	return ok
}

// roadLabels provides human-readable names for common road categories when no
// amenity dominates the zone name.
var roadLabels = map[string]string{
	"motorway":      "Highway",
	"trunk":         "Trunk Road",
	"primary":       "Primary Road",
	"secondary":     "Secondary Road",
	"residential":   "Residential Area",
	"living_street": "Living Street",
	"pedestrian":    "Pedestrian Zone",
	"service":       "Service Road",
}
