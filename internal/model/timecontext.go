package model

// TimeContext describes the risk contribution of the current wall-clock time.
// It is derived per evaluation and never persisted.
type TimeContext struct {
	Hour          int      `json:"hour"`
	IsNight       bool     `json:"is_night"`
	IsLateEvening bool     `json:"is_late_evening"`
	IsRushHour    bool     `json:"is_rush_hour"`
	IsSchoolHour  bool     `json:"is_school_hour"`
	RiskBump      int      `json:"risk_bump"`
	Labels        []string `json:"labels"`
}
