package core

import (
	"testing"
	"time"
)

func TestPeriodResolve(t *testing.T) {
	now := time.Date(2025, 3, 15, 13, 45, 0, 0, time.UTC)

	cases := []struct {
		period PeriodKey
		start  Date
		end    Date
	}{
		{PeriodWeek, NewDate(2025, 3, 9), NewDate(2025, 3, 15)},
		{PeriodMonth, NewDate(2025, 3, 1), NewDate(2025, 3, 31)},
		{PeriodQuarter, NewDate(2024, 12, 16), NewDate(2025, 3, 15)},
		{PeriodKey("bogus"), NewDate(2025, 3, 1), NewDate(2025, 3, 31)}, // falls back to month
	}
	for _, tc := range cases {
		iv := tc.period.Resolve(now)
		if !iv.Start.Equal(tc.start.Time) || !iv.End.Equal(tc.end.Time) {
			t.Fatalf("%s: expected [%v, %v], got [%v, %v]",
				tc.period, tc.start, tc.end, iv.Start, iv.End)
		}
	}
}

func TestMonthIntervalBoundaries(t *testing.T) {
	cases := []struct {
		year, month int
		lastDay     int
	}{
		{2025, 2, 28},
		{2024, 2, 29}, // leap year
		{2025, 4, 30},
		{2025, 12, 31},
	}
	for _, tc := range cases {
		iv := MonthInterval(tc.year, tc.month)
		if iv.Start.Day() != 1 || iv.End.Day() != tc.lastDay {
			t.Fatalf("%d-%02d: got [%v, %v]", tc.year, tc.month, iv.Start, iv.End)
		}
	}
}

func TestIntervalContainsInclusive(t *testing.T) {
	iv := MonthInterval(2025, 3)
	if !iv.Contains(NewDate(2025, 3, 1)) || !iv.Contains(NewDate(2025, 3, 31)) {
		t.Fatalf("boundaries should be inclusive")
	}
	if iv.Contains(NewDate(2025, 2, 28)) || iv.Contains(NewDate(2025, 4, 1)) {
		t.Fatalf("dates outside the month should be excluded")
	}
}
