package ledger

import (
	"sort"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultTopCustomers is the size of the top customers list
const DefaultTopCustomers = 5

// CustomerStats aggregates the jobs referencing customer.
// A job counts as pending while less than its price has been paid.
func CustomerStats(customer *domain.Customer, jobs []*domain.Job) domain.CustomerWithStats {
	stats := domain.CustomerWithStats{
		Customer:     *customer,
		TotalRevenue: decimal.Zero,
	}

	for _, job := range jobs {
		if job.CustomerID == nil || *job.CustomerID != customer.ID {
			continue
		}
		stats.TotalJobs++
		paid := job.TotalPaid()
		stats.TotalRevenue = stats.TotalRevenue.Add(paid)
		if paid.LessThan(job.Price) {
			stats.PendingPayments++
		}
		if stats.LastJobDate == nil || job.CreatedAt.After(*stats.LastJobDate) {
			created := job.CreatedAt
			stats.LastJobDate = &created
		}
	}
	return stats
}

// CustomersWithStats computes CustomerStats for every customer, keeping input order
func CustomersWithStats(customers []*domain.Customer, jobs []*domain.Job) []domain.CustomerWithStats {
	result := make([]domain.CustomerWithStats, 0, len(customers))
	for _, c := range customers {
		result = append(result, CustomerStats(c, jobs))
	}
	return result
}

// TopCustomers ranks customers by collected revenue, highest first
func TopCustomers(customers []*domain.Customer, jobs []*domain.Job, limit int) []domain.CustomerWithStats {
	ranked := CustomersWithStats(customers, jobs)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalRevenue.GreaterThan(ranked[j].TotalRevenue)
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// JobsForCustomer returns the jobs referencing customerID, newest first
func JobsForCustomer(jobs []*domain.Job, customerID string) []*domain.Job {
	result := make([]*domain.Job, 0)
	for _, job := range jobs {
		if job.CustomerID != nil && *job.CustomerID == customerID {
			result = append(result, job)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}
