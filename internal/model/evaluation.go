package model

// Evaluation is the final outcome of one risk-zone evaluation. It is
// constructed once by the rule evaluator and not modified afterwards.
type Evaluation struct {
	ZoneID            string        `json:"zone_id"`
	ZoneName          string        `json:"zone_name"`
	RiskLevel         RiskLevel     `json:"risk_level"`
	Description       string        `json:"description"`
	SpeedLimitKmh     int           `json:"speed_limit_kmh"`
	AlertStrength     AlertStrength `json:"alert_strength"`
	PenaltyMultiplier float64       `json:"penalty_multiplier"`

	CurrentSpeedKmh float64 `json:"current_speed_kmh"`
	Overspeed       bool    `json:"overspeed"`
	OverspeedByKmh  float64 `json:"overspeed_by_kmh"`
	BasePenalty     float64 `json:"base_penalty"`
	PenaltyAmount   float64 `json:"penalty_amount"`

	// Provenance.
	IsDefaultZone   bool     `json:"is_default_zone"`
	IsDynamic       bool     `json:"is_dynamic"`
	RoadType        string   `json:"road_type,omitempty"`
	AmenitiesNearby []string `json:"amenities_nearby"`
	DataSource      string   `json:"data_source"`
	AccidentHotspot bool     `json:"accident_hotspot"`

	TimeFactors TimeContext `json:"time_factors"`
}
