package ledger

import (
	"testing"
	"time"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customerJob(id, customerID string, price, paid int64, created time.Time) *domain.Job {
	job := jobAt(id, created)
	job.Price = dec(price)
	if customerID != "" {
		job.CustomerID = strPtr(customerID)
	}
	if paid > 0 {
		job.Payments = []domain.Payment{payment(paid, domain.PaymentMethodCash)}
	}
	return job
}

func TestCustomerStats(t *testing.T) {
	customer := &domain.Customer{ID: "c1", Name: "Ahmet"}
	latest := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	jobs := []*domain.Job{
		customerJob("j1", "c1", 1000, 1000, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)),
		customerJob("j2", "c1", 800, 300, latest),
		customerJob("j3", "c2", 500, 500, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)),
		customerJob("j4", "", 200, 0, time.Date(2024, 3, 21, 0, 0, 0, 0, time.UTC)),
	}

	stats := CustomerStats(customer, jobs)

	assert.Equal(t, "c1", stats.ID)
	assert.Equal(t, 2, stats.TotalJobs)
	assert.Equal(t, "1300", stats.TotalRevenue.String())
	assert.Equal(t, 1, stats.PendingPayments)
	require.NotNil(t, stats.LastJobDate)
	assert.True(t, stats.LastJobDate.Equal(latest))
}

func TestCustomerStats_NoJobs(t *testing.T) {
	stats := CustomerStats(&domain.Customer{ID: "lonely"}, nil)

	assert.Zero(t, stats.TotalJobs)
	assert.True(t, stats.TotalRevenue.IsZero())
	assert.Nil(t, stats.LastJobDate)
}

func TestTopCustomers(t *testing.T) {
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	customers := []*domain.Customer{
		{ID: "low"}, {ID: "high"}, {ID: "mid"}, {ID: "none"},
	}
	jobs := []*domain.Job{
		customerJob("j1", "low", 100, 100, created),
		customerJob("j2", "high", 900, 900, created),
		customerJob("j3", "mid", 500, 400, created),
	}

	top := TopCustomers(customers, jobs, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "high", top[0].ID)
	assert.Equal(t, "mid", top[1].ID)

	all := TopCustomers(customers, jobs, 0)
	assert.Len(t, all, 4)
	assert.Equal(t, "none", all[3].ID)
}

func TestJobsForCustomer_NewestFirst(t *testing.T) {
	jobs := []*domain.Job{
		customerJob("old", "c1", 100, 0, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		customerJob("other", "c2", 100, 0, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
		customerJob("new", "c1", 100, 0, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
	}

	assert.Equal(t, []string{"new", "old"}, jobIDs(JobsForCustomer(jobs, "c1")))
	assert.Empty(t, JobsForCustomer(jobs, "missing"))
}
