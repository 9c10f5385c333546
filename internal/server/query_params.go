package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/summitgrid/corebank/internal/dates"
)

func parseOptionalBool(value string, def bool) (bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return def, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return def, err
	}
	return parsed, nil
}

// parseDateRange reads the inclusive start_date/end_date pair every usage
// query carries. Both are required; ordering is the service's call so the
// engine owns the invalid_date_range verdict.
func parseDateRange(startValue, endValue string) (time.Time, time.Time, error) {
	start, err := parseRequiredDate("start_date", startValue)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseRequiredDate("end_date", endValue)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func parseRequiredDate(field, value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, newValidationError(field, "required", field+" is required")
	}
	parsed, err := dates.Parse(trimmed)
	if err != nil {
		return time.Time{}, newValidationError(field, "invalid_"+field, field+" must be YYYY-MM-DD")
	}
	return parsed, nil
}

// parseOptionalDate accepts YYYY-MM-DD or RFC3339; a date-only value lands
// on UTC midnight. Empty means absent.
func parseOptionalDate(field, value string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := dates.Parse(trimmed); err == nil {
		return &parsed, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return &parsed, nil
	}
	return nil, newValidationError(field, "invalid_"+field, field+" must be YYYY-MM-DD or RFC3339")
}

// parseAsOf reads the as_of balance parameter. Absent means zero, which
// the balance service reads as "now".
func parseAsOf(value string) (time.Time, error) {
	parsed, err := parseOptionalDate("as_of", value)
	if err != nil {
		return time.Time{}, err
	}
	if parsed == nil {
		return time.Time{}, nil
	}
	return *parsed, nil
}
