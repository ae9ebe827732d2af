package ledger

import (
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// CalculateStats rolls up a job set. Revenue is what was actually collected;
// cost counts every job regardless of payment status.
func CalculateStats(jobs []*domain.Job) domain.JobStats {
	stats := domain.JobStats{
		TotalRevenue:          decimal.Zero,
		TotalCost:             decimal.Zero,
		RevenueWithFather:     decimal.Zero,
		RevenueWithoutFather:  decimal.Zero,
		PaymentMethods:        zeroTotals(),
		WithFatherPayments:    zeroTotals(),
		WithoutFatherPayments: zeroTotals(),
	}

	for _, job := range jobs {
		paid := job.TotalPaid()

		stats.TotalRevenue = stats.TotalRevenue.Add(paid)
		stats.TotalCost = stats.TotalCost.Add(job.Cost)
		if job.IsFullyPaid() {
			stats.CompletedJobs++
		} else {
			stats.PendingPayments++
		}

		split := &stats.WithoutFatherPayments
		if job.WithFather {
			stats.RevenueWithFather = stats.RevenueWithFather.Add(paid)
			split = &stats.WithFatherPayments
		} else {
			stats.RevenueWithoutFather = stats.RevenueWithoutFather.Add(paid)
		}

		for _, p := range job.Payments {
			stats.PaymentMethods.Add(p.PaymentMethod, p.Amount)
			split.Add(p.PaymentMethod, p.Amount)
		}
	}
	return stats
}

func zeroTotals() domain.PaymentMethodTotals {
	return domain.PaymentMethodTotals{Elden: decimal.Zero, IBAN: decimal.Zero}
}
