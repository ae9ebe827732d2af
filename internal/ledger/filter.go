// Package ledger holds the pure computations over a workspace's jobs,
// customers and notes. Nothing here keeps state between calls; the caller
// passes the current records and the current time.
package ledger

import (
	"fmt"
	"time"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/util"
)

// TimeBucket is a named date range applied to jobs by creation date
type TimeBucket string

const (
	BucketDaily   TimeBucket = "daily"
	BucketWeekly  TimeBucket = "weekly"
	BucketMonthly TimeBucket = "monthly"
	BucketAll     TimeBucket = "all"
)

// ParseTimeBucket accepts the bucket names used by clients. Empty means all.
func ParseTimeBucket(s string) (TimeBucket, error) {
	switch TimeBucket(s) {
	case BucketDaily, BucketWeekly, BucketMonthly, BucketAll:
		return TimeBucket(s), nil
	case "":
		return BucketAll, nil
	}
	return "", fmt.Errorf("%w: unknown time filter %q", domain.ErrInvalidInput, s)
}

// FilterByTime keeps the jobs whose creation day falls in bucket relative to now.
// Dates are compared as calendar days in now's location.
func FilterByTime(jobs []*domain.Job, bucket TimeBucket, now time.Time) []*domain.Job {
	if bucket == BucketAll || bucket == "" {
		return jobs
	}

	loc := now.Location()
	today := util.StartOfDay(now)
	weekStart := util.StartOfWeek(now)

	result := make([]*domain.Job, 0, len(jobs))
	for _, job := range jobs {
		created := job.CreatedAt.In(loc)
		var keep bool
		switch bucket {
		case BucketDaily:
			keep = util.SameDay(created, now, loc)
		case BucketWeekly:
			day := util.StartOfDay(created)
			keep = !day.Before(weekStart) && !day.After(today)
		case BucketMonthly:
			keep = util.SameMonth(created, now, loc)
		default:
			keep = true
		}
		if keep {
			result = append(result, job)
		}
	}
	return result
}
