package scoring

import "time"

// DayFormat is the layout of stored activity dates.
const DayFormat = "2006-01-02"

// maxBonusStreak caps the worksheet bonus at +40%.
const maxBonusStreak = 4

// MissedLastWeek reports whether more than seven whole days separate today
// from the given stored date. Exactly seven days elapsed is still inside the
// window. An unparsable date counts as missed, so a damaged record starts a
// fresh window instead of wedging the streak.
func MissedLastWeek(today time.Time, isoDate string) bool {
	recorded, err := time.Parse(DayFormat, isoDate)
	if err != nil {
		return true
	}
	day, err := time.Parse(DayFormat, today.Format(DayFormat))
	if err != nil {
		return true
	}
	return int(day.Sub(recorded).Hours()/24) > 7
}

// BonusMultiplier returns the worksheet point multiplier for a streak:
// 1 + min(streak, 4) * 0.10.
func BonusMultiplier(streak int) float64 {
	if streak < 0 {
		streak = 0
	}
	if streak > maxBonusStreak {
		streak = maxBonusStreak
	}
	return 1 + float64(streak)*0.10
}

// WorksheetPoints returns the points for a qualifying worksheet submission,
// floored to an integer.
func WorksheetPoints(streak int) int {
	return int(float64(WorksheetBasePoints) * BonusMultiplier(streak))
}
