package service

import (
	"fmt"
	"time"
)

// DateLayout is the ISO day format used for cache keys and API dates
const DateLayout = "2006-01-02"

// TodayUTC returns the current UTC day
func TodayUTC(now time.Time) string {
	return now.UTC().Format(DateLayout)
}

// YesterdayUTC returns the previous UTC day. Upstream SST has one to two days
// of latency, so this is the freshest day that is usually published.
func YesterdayUTC(now time.Time) string {
	return now.UTC().AddDate(0, 0, -1).Format(DateLayout)
}

// DaysAgoUTC returns the UTC day n days before now
func DaysAgoUTC(now time.Time, n int) string {
	return now.UTC().AddDate(0, 0, -n).Format(DateLayout)
}

// ParseDate validates an ISO day and rejects days after today (UTC)
func ParseDate(value string, now time.Time) (string, error) {
	day, err := time.Parse(DateLayout, value)
	if err != nil {
		return "", fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrInvalidInput, value)
	}
	if day.After(now.UTC()) {
		return "", fmt.Errorf("%w: date %s is in the future", ErrInvalidInput, value)
	}
	return day.Format(DateLayout), nil
}
