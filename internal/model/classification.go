package model

// Provenance tags for externally sourced data. Downstream code branches on
// these values only; external failures never propagate as errors.
const (
	SourceOnline         = "online"
	SourceOfflineTimeout = "offline_timeout"
	SourceOfflineError   = "offline_error"
	SourceStatic         = "static"
)

// OfflineSource reports whether a provenance tag marks degraded data.
func OfflineSource(source string) bool {
	return source == SourceOfflineTimeout || source == SourceOfflineError
}

// Classification is the result of a road/amenity lookup near a coordinate.
// On provider failure RoadType is "unclassified", Amenities is empty and
// Source carries the offline variant.
type Classification struct {
	RoadType  string   `json:"road_type"`
	Amenities []string `json:"amenities"`
	Source    string   `json:"source"`
}

// HazardReport is the result of an accident-hotspot lookup near a coordinate.
// On provider failure it degrades to no hazards with an offline source tag.
type HazardReport struct {
	Present bool   `json:"present"`
	Count   int    `json:"count"`
	Source  string `json:"source"`
}
