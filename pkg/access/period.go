package access

import (
	"time"

	"github.com/tendant/gym-access/pkg/domain"
)

// ResolveWindow returns the lower bound of the current quota period ending at
// now. ok is false when the whole history counts.
//
// MONTH periods subtract calendar months, so "1 month" back from March 31 is
// the last day of February rather than a fixed 30 days. The zero Period has
// no bound.
func ResolveWindow(period domain.Period, now time.Time) (since time.Time, ok bool) {
	switch period.Unit() {
	case domain.PeriodUnitWeek:
		return now.AddDate(0, 0, -7*period.Length()), true
	case domain.PeriodUnitMonth:
		return subtractMonths(now, period.Length()), true
	default:
		return time.Time{}, false
	}
}

// subtractMonths clamps to the end of the target month instead of letting
// time.AddDate overflow (March 31 - 1 month = Feb 28/29, not March 3).
func subtractMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m-time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return first.AddDate(0, 0, d-1)
}
