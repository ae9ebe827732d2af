package service

import "time"

// Clock returns the current time. main injects one that reports in the
// configured location so calendar buckets line up with the user's day.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now()
}
