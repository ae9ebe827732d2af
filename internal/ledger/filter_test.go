package ledger

import (
	"testing"
	"time"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jobIDs(jobs []*domain.Job) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.ID)
	}
	return out
}

var trt = time.FixedZone("TRT", 3*60*60)

// Friday afternoon
var filterNow = time.Date(2024, 3, 15, 14, 0, 0, 0, trt)

func filterFixture() []*domain.Job {
	return []*domain.Job{
		jobAt("today", time.Date(2024, 3, 15, 8, 0, 0, 0, trt)),
		jobAt("today-utc", time.Date(2024, 3, 14, 22, 30, 0, 0, time.UTC)),
		jobAt("sunday", time.Date(2024, 3, 10, 0, 30, 0, 0, trt)),
		jobAt("saturday", time.Date(2024, 3, 9, 23, 59, 0, 0, trt)),
		jobAt("month-start", time.Date(2024, 3, 1, 9, 0, 0, 0, trt)),
		jobAt("tomorrow", time.Date(2024, 3, 16, 9, 0, 0, 0, trt)),
		jobAt("prev-month", time.Date(2024, 2, 1, 9, 0, 0, 0, trt)),
		jobAt("last-year", time.Date(2023, 3, 15, 9, 0, 0, 0, trt)),
	}
}

func TestFilterByTime(t *testing.T) {
	tests := []struct {
		bucket TimeBucket
		want   []string
	}{
		{BucketDaily, []string{"today", "today-utc"}},
		{BucketWeekly, []string{"today", "today-utc", "sunday"}},
		{BucketMonthly, []string{"today", "today-utc", "sunday", "saturday", "month-start", "tomorrow"}},
		{BucketAll, []string{"today", "today-utc", "sunday", "saturday", "month-start", "tomorrow", "prev-month", "last-year"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.bucket), func(t *testing.T) {
			got := FilterByTime(filterFixture(), tt.bucket, filterNow)
			assert.Equal(t, tt.want, jobIDs(got))
		})
	}
}

func TestFilterByTime_MonthlyDropsPreviousMonth(t *testing.T) {
	jobs := []*domain.Job{
		jobAt("current", time.Date(2024, 3, 1, 0, 0, 0, 0, trt)),
		jobAt("previous", time.Date(2024, 2, 1, 0, 0, 0, 0, trt)),
	}

	got := FilterByTime(jobs, BucketMonthly, filterNow)
	assert.Equal(t, []string{"current"}, jobIDs(got))
}

func TestFilterByTime_WeeklyOnSunday(t *testing.T) {
	sunday := time.Date(2024, 3, 10, 10, 0, 0, 0, trt)
	jobs := []*domain.Job{
		jobAt("sunday", time.Date(2024, 3, 10, 7, 0, 0, 0, trt)),
		jobAt("saturday", time.Date(2024, 3, 9, 7, 0, 0, 0, trt)),
	}

	got := FilterByTime(jobs, BucketWeekly, sunday)
	assert.Equal(t, []string{"sunday"}, jobIDs(got))
}

func TestFilterByTime_DoesNotModifyInput(t *testing.T) {
	jobs := filterFixture()
	_ = FilterByTime(jobs, BucketDaily, filterNow)
	assert.Len(t, jobs, 8)
}

func TestParseTimeBucket(t *testing.T) {
	b, err := ParseTimeBucket("")
	require.NoError(t, err)
	assert.Equal(t, BucketAll, b)

	b, err = ParseTimeBucket("weekly")
	require.NoError(t, err)
	assert.Equal(t, BucketWeekly, b)

	_, err = ParseTimeBucket("yearly")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
