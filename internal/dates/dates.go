// Package dates normalizes the engine's calendar-day arithmetic. Charge
// ledgers are keyed by activity day, so every boundary the engine touches
// is a UTC midnight and every range is inclusive on both ends.
package dates

import "time"

// Layout is the wire format for calendar dates on the API and CLI.
const Layout = "2006-01-02"

// Day truncates an instant to its UTC calendar day.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two instants fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// Parse reads a calendar date in Layout form.
func Parse(value string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, value, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// Format renders a calendar date in Layout form.
func Format(t time.Time) string {
	return Day(t).Format(Layout)
}

// Range is an inclusive span of UTC calendar days.
type Range struct {
	Start time.Time
	End   time.Time
}

// Normalize truncates both bounds to their calendar days. It reports false
// when either bound is zero or the end precedes the start.
func Normalize(start, end time.Time) (Range, bool) {
	if start.IsZero() || end.IsZero() {
		return Range{}, false
	}
	r := Range{Start: Day(start), End: Day(end)}
	if r.End.Before(r.Start) {
		return Range{}, false
	}
	return r, true
}

// Days returns the inclusive number of calendar days in the range.
func (r Range) Days() int {
	return int(r.End.Sub(r.Start)/(24*time.Hour)) + 1
}

// Contains reports whether the instant's calendar day lies in the range.
func (r Range) Contains(t time.Time) bool {
	day := Day(t)
	return !day.Before(r.Start) && !day.After(r.End)
}

// EachDay visits every day of the range in ascending order.
func (r Range) EachDay(fn func(day time.Time)) {
	for day := r.Start; !day.After(r.End); day = day.AddDate(0, 0, 1) {
		fn(day)
	}
}

// ClampEnd caps the range's end at the given instant's day. It reports
// false when the cap precedes the start, i.e. the clamped range is empty.
func (r Range) ClampEnd(at time.Time) (Range, bool) {
	capDay := Day(at)
	if capDay.Before(r.Start) {
		return Range{}, false
	}
	if capDay.After(r.End) {
		return r, true
	}
	return Range{Start: r.Start, End: capDay}, true
}
