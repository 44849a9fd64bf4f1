// Package align maps calendar dates between years while preserving the
// day of week.
package align

import "time"

// DateFormat is the wire format for calendar dates throughout the API.
const DateFormat = "2006-01-02"

// AlignToYear returns the date in targetYear that falls on the same day of
// week as source, at most three days away from the same month/day candidate.
//
// The candidate is built with time.Date, so a month/day that does not exist
// in the target year (Feb 29 into a non-leap year) normalizes forward
// (Feb 29 -> Mar 1) before the offset is applied. The day-of-week guarantee
// holds either way.
func AlignToYear(source time.Time, targetYear int) time.Time {
	sourceDOW := int(source.Weekday())

	candidate := time.Date(targetYear, source.Month(), source.Day(), 0, 0, 0, 0, time.UTC)
	targetDOW := int(candidate.Weekday())

	diff := sourceDOW - targetDOW

	// Pick the nearest matching weekday rather than always rolling forward.
	if diff > 3 {
		diff -= 7
	} else if diff < -3 {
		diff += 7
	}

	return candidate.AddDate(0, 0, diff)
}

// ParseDate parses a YYYY-MM-DD date string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

// FormatDate renders a time as a YYYY-MM-DD date string.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// DateRange returns every date from start to end inclusive.
// Returns nil when end is before start.
func DateRange(start, end time.Time) []time.Time {
	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// IsWeekend reports whether the date falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
