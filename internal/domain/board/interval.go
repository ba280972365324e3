package board

import (
	"fmt"
	"time"
)

// AllTimeInterval is the identifier of the all-time bucket. The empty string
// keeps lexicographic ordering consistent: the all-time bucket sorts before
// every dated identifier.
const AllTimeInterval = ""

// CurrentIntervalIdentifier derives the interval identifier for ts under the
// definition's interval type. Pure and monotonic: timestamps in the same
// calendar period map to the same identifier, and identifiers across periods
// sort lexicographically in time order. All times are resolved in UTC so
// producers in different zones agree on bucket boundaries.
func CurrentIntervalIdentifier(def Definition, ts time.Time) string {
	ts = ts.UTC()
	switch def.Interval {
	case IntervalWeekly:
		year, week := ts.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case IntervalMonthly:
		return fmt.Sprintf("%04d-%02d", ts.Year(), int(ts.Month()))
	case IntervalCustom:
		// Event boards keep a single bucket for their whole window, labeled
		// by the window start so boards of the same slug family still sort
		// by date.
		return def.Starts.UTC().Format("2006-01-02")
	default:
		return AllTimeInterval
	}
}

// IntervalEnd returns the instant the periodic bucket containing ts closes.
// Custom boards close at their window end; all-time boards and unbounded
// windows return the zero time.
func IntervalEnd(def Definition, ts time.Time) time.Time {
	ts = ts.UTC()
	switch def.Interval {
	case IntervalWeekly:
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		sinceMonday := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, 7-sinceMonday)
	case IntervalMonthly:
		return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	case IntervalCustom:
		return def.Ends.UTC()
	default:
		return time.Time{}
	}
}

// Intervals returns the interval identifiers a score observed at ts applies
// to. The all-time bucket always applies; the periodic bucket applies only
// while ts falls inside the board's validity window.
func Intervals(def Definition, ts time.Time) []string {
	if def.Interval == IntervalAllTime {
		return []string{AllTimeInterval}
	}
	if !def.ActiveAt(ts) {
		// Outside the window only the all-time bucket accumulates.
		return []string{AllTimeInterval}
	}
	return []string{AllTimeInterval, CurrentIntervalIdentifier(def, ts)}
}
