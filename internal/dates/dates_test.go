package dates

import (
	"testing"
	"time"
)

func TestDayTruncatesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	in := time.Date(2024, 3, 15, 2, 30, 0, 0, loc) // 2024-03-14 19:30 UTC

	got := Day(in)
	want := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestNormalizeRejectsInvertedRange(t *testing.T) {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	if _, ok := Normalize(start, end); ok {
		t.Fatalf("expected inverted range to be rejected")
	}
}

func TestNormalizeAcceptsSingleDay(t *testing.T) {
	day := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

	r, ok := Normalize(day, day)
	if !ok {
		t.Fatalf("expected single-day range to be valid")
	}
	if r.Days() != 1 {
		t.Fatalf("expected 1 day, got %d", r.Days())
	}
}

func TestDaysIsInclusive(t *testing.T) {
	r, ok := Normalize(
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	)
	if !ok {
		t.Fatalf("normalize: invalid range")
	}
	if r.Days() != 31 {
		t.Fatalf("expected 31 days in March, got %d", r.Days())
	}
}

func TestEachDayVisitsEveryDayOnce(t *testing.T) {
	r, _ := Normalize(
		time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
	)

	var days []string
	r.EachDay(func(day time.Time) {
		days = append(days, Format(day))
	})

	want := []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"}
	if len(days) != len(want) {
		t.Fatalf("expected %d days, got %d (%v)", len(want), len(days), days)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Fatalf("day %d: expected %s, got %s", i, want[i], days[i])
		}
	}
}

func TestClampEnd(t *testing.T) {
	r, _ := Normalize(
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	)

	clamped, ok := r.ClampEnd(time.Date(2024, 3, 15, 18, 45, 0, 0, time.UTC))
	if !ok {
		t.Fatalf("expected clamp within range to succeed")
	}
	if !clamped.End.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected end clamped to 2024-03-15, got %v", clamped.End)
	}

	if _, ok := r.ClampEnd(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)); ok {
		t.Fatalf("expected clamp before start to report empty range")
	}

	unchanged, ok := r.ClampEnd(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if !ok || !unchanged.End.Equal(r.End) {
		t.Fatalf("expected clamp after end to leave range unchanged")
	}
}

func TestParseRoundTrip(t *testing.T) {
	day, err := Parse("2024-07-04")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if Format(day) != "2024-07-04" {
		t.Fatalf("expected round trip, got %s", Format(day))
	}
	if _, err := Parse("07/04/2024"); err == nil {
		t.Fatalf("expected non-ISO date to fail")
	}
}
