package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// RiskLevel grades how dangerous a zone is for driving.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Ordinal returns the numeric rank of the risk level (LOW=0, MEDIUM=1, HIGH=2).
// Fusion arithmetic adds risk bumps to this rank before clamping.
func (r RiskLevel) Ordinal() int {
	switch r {
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 0
	}
}

// Valid reports whether r is one of the known risk levels.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// RiskFromOrdinal maps a clamped fusion score back to a risk level.
// Scores above 2 are treated as HIGH, below 0 as LOW.
func RiskFromOrdinal(n int) RiskLevel {
	switch {
	case n >= 2:
		return RiskHigh
	case n == 1:
		return RiskMedium
	default:
		return RiskLow
	}
}

// AlertStrength controls how aggressively the client should alert the driver.
type AlertStrength string

const (
	AlertNormal AlertStrength = "NORMAL"
	AlertStrong AlertStrength = "STRONG"
)

// Valid reports whether a is one of the known alert strengths.
func (a AlertStrength) Valid() bool {
	return a == AlertNormal || a == AlertStrong
}

// Zone is the canonical representation of a place with driving rules.
// Static zones carry a geographic anchor (Latitude/Longitude/RadiusM);
// dynamic zones are synthesized per request and carry classification
// metadata instead. Exactly one of the two shapes applies.
type Zone struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	RiskLevel         RiskLevel     `json:"risk_level"`
	SpeedLimitKmh     int           `json:"speed_limit"`
	PenaltyMultiplier float64       `json:"penalty_multiplier"`
	AlertStrength     AlertStrength `json:"alert_strength"`
	Description       string        `json:"description,omitempty"`
	IsDefault         bool          `json:"is_default,omitempty"`
	IsDynamic         bool          `json:"is_dynamic,omitempty"`

	// Static anchor. Only meaningful when IsDynamic is false.
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	RadiusM   float64 `json:"radius,omitempty"`

	// Dynamic metadata. Only populated when IsDynamic is true.
	RoadType        string       `json:"road_type,omitempty"`
	AmenitiesNearby []string     `json:"amenities_nearby,omitempty"`
	AccidentHotspot bool         `json:"accident_hotspot,omitempty"`
	DataSource      string       `json:"data_source,omitempty"`
	TimeFactors     *TimeContext `json:"time_factors,omitempty"`
}

// Validate checks a static zone record loaded from a snapshot source.
func (z *Zone) Validate() error {
	if z.ID == "" {
		return eris.New("zone: id is required")
	}
	if z.Name == "" {
		return eris.Errorf("zone %s: name is required", z.ID)
	}
	if z.SpeedLimitKmh <= 0 {
		return eris.Errorf("zone %s: speed_limit must be positive", z.ID)
	}
	if z.RadiusM <= 0 {
		return eris.Errorf("zone %s: radius must be positive", z.ID)
	}
	if z.Latitude < -90 || z.Latitude > 90 {
		return eris.Errorf("zone %s: latitude %.4f out of range", z.ID, z.Latitude)
	}
	if z.Longitude < -180 || z.Longitude > 180 {
		return eris.Errorf("zone %s: longitude %.4f out of range", z.ID, z.Longitude)
	}
	if z.PenaltyMultiplier < 0 {
		return eris.Errorf("zone %s: penalty_multiplier must be >= 0", z.ID)
	}
	if z.RiskLevel != "" && !z.RiskLevel.Valid() {
		return eris.Errorf("zone %s: unknown risk_level %q", z.ID, z.RiskLevel)
	}
	if z.AlertStrength != "" && !z.AlertStrength.Valid() {
		return eris.Errorf("zone %s: unknown alert_strength %q", z.ID, z.AlertStrength)
	}
	return nil
}

// Snapshot is an immutable, fully-loaded copy of the zone database.
// Readers hold one snapshot reference for the duration of an evaluation;
// reloads swap the whole snapshot, never mutate it.
type Snapshot struct {
	Zones    []Zone
	Source   string
	LoadedAt time.Time
}
