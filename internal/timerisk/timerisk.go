// Package timerisk derives a risk contribution from the wall-clock time.
// The calculation is a pure function of an instant so evaluations stay
// deterministic and testable.
package timerisk

import (
	"time"

	"github.com/zeropenalty/riskzone/internal/model"
)

// Contextual label values surfaced to clients.
const (
	LabelNight       = "Night Hours"
	LabelLateEvening = "Late Evening"
	LabelRushHour    = "Rush Hour"
	LabelSchoolHours = "School Hours"
)

// Time windows in minutes-of-day. All boundaries are inclusive except the
// late-evening upper bound, which hands over to the night window at 22:00.
const (
	nightStart       = 22 * 60
	nightEnd         = 5 * 60
	lateEveningStart = 20 * 60
	rushMorningStart = 8 * 60
	rushMorningEnd   = 10 * 60
	rushEveningStart = 17 * 60
	rushEveningEnd   = 19*60 + 30
	schoolAMStart    = 7*60 + 30
	schoolAMEnd      = 9 * 60
	schoolPMStart    = 13 * 60
	schoolPMEnd      = 14*60 + 30
)

// maxRiskBump caps the additive time-risk contribution.
const maxRiskBump = 3

// Now computes the time-risk context for the current instant.
func Now() model.TimeContext {
	return At(clock.Now())
}

// At computes the time-risk context for the given instant. The rules are
// evaluated independently and their bumps are additive, capped at 3:
//
//   - night (>=22:00 or <=05:00): +2
//   - late evening (20:00 to 21:59): +1
//   - rush hour (weekdays 08:00-10:00, 17:00-19:30): +1
//   - school hours (weekdays 07:30-09:00, 13:00-14:30): +1
func At(t time.Time) model.TimeContext {
	minuteOfDay := t.Hour()*60 + t.Minute()
	weekday := t.Weekday()
	isWeekday := weekday >= time.Monday && weekday <= time.Friday

	tc := model.TimeContext{
		Hour:   t.Hour(),
		Labels: []string{},
	}

	tc.IsNight = minuteOfDay >= nightStart || minuteOfDay <= nightEnd
	tc.IsLateEvening = minuteOfDay >= lateEveningStart && minuteOfDay < nightStart
	tc.IsRushHour = isWeekday &&
		((minuteOfDay >= rushMorningStart && minuteOfDay <= rushMorningEnd) ||
			(minuteOfDay >= rushEveningStart && minuteOfDay <= rushEveningEnd))
	tc.IsSchoolHour = isWeekday &&
		((minuteOfDay >= schoolAMStart && minuteOfDay <= schoolAMEnd) ||
			(minuteOfDay >= schoolPMStart && minuteOfDay <= schoolPMEnd))

	if tc.IsNight {
		tc.RiskBump += 2
		tc.Labels = append(tc.Labels, LabelNight)
	}
	if tc.IsLateEvening {
		tc.RiskBump++
		tc.Labels = append(tc.Labels, LabelLateEvening)
	}
	if tc.IsRushHour {
		tc.RiskBump++
		tc.Labels = append(tc.Labels, LabelRushHour)
	}
	if tc.IsSchoolHour {
		tc.RiskBump++
		tc.Labels = append(tc.Labels, LabelSchoolHours)
	}

	if tc.RiskBump > maxRiskBump {
		tc.RiskBump = maxRiskBump
	}
	return tc
}
