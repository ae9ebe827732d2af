package ledger

import (
	"sort"
	"time"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/util"
)

// DueSoonDays is how many days ahead an estimated payment date counts as due soon
const DueSoonDays = 3

func hasOpenDueDate(job *domain.Job) bool {
	return job.EstimatedPaymentDate != nil && !job.IsFullyPaid()
}

// IsPaymentOverdue reports whether the estimated payment day is before today
func IsPaymentOverdue(job *domain.Job, now time.Time) bool {
	if !hasOpenDueDate(job) {
		return false
	}
	return util.DaysBetween(now, *job.EstimatedPaymentDate, now.Location()) < 0
}

// IsPaymentDueSoon reports whether the estimated payment day is today or within DueSoonDays
func IsPaymentDueSoon(job *domain.Job, now time.Time) bool {
	if !hasOpenDueDate(job) {
		return false
	}
	days := util.DaysBetween(now, *job.EstimatedPaymentDate, now.Location())
	return days >= 0 && days <= DueSoonDays
}

// PendingPaymentJobs returns the jobs that are not fully paid, ordered by
// estimated payment date. Jobs without a date go last; ties keep input order.
func PendingPaymentJobs(jobs []*domain.Job) []*domain.Job {
	pending := make([]*domain.Job, 0)
	for _, job := range jobs {
		if !job.IsFullyPaid() {
			pending = append(pending, job)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		a, b := pending[i].EstimatedPaymentDate, pending[j].EstimatedPaymentDate
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.Before(*b)
	})
	return pending
}

// ClassifyPending returns the pending jobs in display order with their flags
func ClassifyPending(jobs []*domain.Job, now time.Time) []domain.PendingJob {
	pending := PendingPaymentJobs(jobs)
	result := make([]domain.PendingJob, 0, len(pending))
	for _, job := range pending {
		result = append(result, domain.PendingJob{
			Job:              job,
			RemainingBalance: job.RemainingBalance(),
			Overdue:          IsPaymentOverdue(job, now),
			DueSoon:          IsPaymentDueSoon(job, now),
		})
	}
	return result
}
