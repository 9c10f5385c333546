package main

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// resolveWindow fills the report window from flags: an omitted start means
// the first of the current month, an omitted end means today. Ordering is
// left to the server so its verdict matches the API's.
func resolveWindow(start, end string) (time.Time, time.Time, error) {
	startDay := beginningOfMonth()
	endDay := today()

	if start != "" {
		parsed, err := time.Parse(dayLayout, start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start date (use YYYY-MM-DD): %w", err)
		}
		startDay = parsed
	}
	if end != "" {
		parsed, err := time.Parse(dayLayout, end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end date (use YYYY-MM-DD): %w", err)
		}
		endDay = parsed
	}
	return startDay, endDay, nil
}

func beginningOfMonth() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
