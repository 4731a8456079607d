package application

import "time"

// AdvanceStreak applies the consecutive-day streak rule to the stored state
// and returns the new streak plus whether anything changed.
//
//   - no previous activity: streak becomes 1
//   - last activity today: no change (idempotent re-entry)
//   - last activity yesterday: streak + 1
//   - gap of two days or more: reset to 1
//
// Days are calendar days in now's location.
func AdvanceStreak(streak int, last *time.Time, now time.Time) (int, bool) {
	if last == nil {
		return 1, true
	}
	prev := last.In(now.Location())
	switch {
	case sameDay(prev, now):
		return streak, false
	case sameDay(prev, now.AddDate(0, 0, -1)):
		return streak + 1, true
	default:
		return 1, true
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
