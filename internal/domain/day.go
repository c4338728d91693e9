package domain

import "time"

// ReferenceZone is the single timezone used for every day-boundary
// comparison. The app's audience is in Brazil, so days roll over at UTC-3.
var ReferenceZone = time.FixedZone("UTC-3", -3*60*60)

// DayOf collapses a timestamp to midnight of its calendar day in the
// reference zone.
func DayOf(t time.Time) time.Time {
	t = t.In(ReferenceZone)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, ReferenceZone)
}

// DaysBetween returns the signed calendar-day difference a minus b.
// Only date boundaries count; elapsed hours are irrelevant.
func DaysBetween(a, b time.Time) int {
	return int(DayOf(a).Sub(DayOf(b)) / (24 * time.Hour))
}

// IsSameCalendarDay reports whether both timestamps fall on the same
// calendar day in the reference zone.
func IsSameCalendarDay(a, b time.Time) bool {
	return DayOf(a).Equal(DayOf(b))
}
