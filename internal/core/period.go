package core

import "time"

const (
	PeriodWeek    PeriodKey = "week"
	PeriodMonth   PeriodKey = "month"
	PeriodQuarter PeriodKey = "quarter"
)

type (
	// PeriodKey selects a caller-visible aggregation window.
	PeriodKey string

	// Interval is an inclusive calendar-date range.
	Interval struct {
		Start Date
		End   Date
	}
)

// Resolve computes the inclusive date interval for the period anchored at
// now. Month uses true calendar boundaries; week and quarter are rolling
// windows of 7 and 90 days ending at now.
func (p PeriodKey) Resolve(now time.Time) Interval {
	anchor := DateOf(now)
	switch p {
	case PeriodWeek:
		return Interval{Start: DateOf(anchor.AddDate(0, 0, -6)), End: anchor}
	case PeriodQuarter:
		return Interval{Start: DateOf(anchor.AddDate(0, 0, -89)), End: anchor}
	default:
		// Month, and the fallback for unknown keys.
		return MonthInterval(anchor.Year(), anchor.Month())
	}
}

// MonthInterval returns the full calendar-month interval for year and month.
func MonthInterval(year, month int) Interval {
	start := NewDate(year, month, 1)
	end := DateOf(start.AddDate(0, 1, -1))
	return Interval{Start: start, End: end}
}

// Contains reports whether the date falls inside the interval, boundaries
// included.
func (iv Interval) Contains(d Date) bool {
	return !d.Before(iv.Start.Time) && !d.After(iv.End.Time)
}
