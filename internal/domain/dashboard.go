package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethodTotals groups collected amounts by payment method
type PaymentMethodTotals struct {
	Elden decimal.Decimal `json:"elden"`
	IBAN  decimal.Decimal `json:"iban"`
}

// Add credits amount to the bucket of method. Unknown methods are ignored.
func (t *PaymentMethodTotals) Add(method PaymentMethod, amount decimal.Decimal) {
	switch method {
	case PaymentMethodCash:
		t.Elden = t.Elden.Add(amount)
	case PaymentMethodIBAN:
		t.IBAN = t.IBAN.Add(amount)
	}
}

// JobStats is the dashboard rollup over a set of jobs.
// Revenue counts collected payments, not invoiced prices.
type JobStats struct {
	TotalRevenue          decimal.Decimal     `json:"totalRevenue"`
	TotalCost             decimal.Decimal     `json:"totalCost"`
	CompletedJobs         int                 `json:"completedJobs"`
	PendingPayments       int                 `json:"pendingPayments"`
	RevenueWithFather     decimal.Decimal     `json:"revenueWithFather"`
	RevenueWithoutFather  decimal.Decimal     `json:"revenueWithoutFather"`
	PaymentMethods        PaymentMethodTotals `json:"paymentMethods"`
	WithFatherPayments    PaymentMethodTotals `json:"withFatherPayments"`
	WithoutFatherPayments PaymentMethodTotals `json:"withoutFatherPayments"`
}

// PendingJob is a not-fully-paid job with its display classification
type PendingJob struct {
	Job              *Job            `json:"job"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
	Overdue          bool            `json:"overdue"`
	DueSoon          bool            `json:"dueSoon"`
}

// Snapshot is the full migrated state of a workspace, pushed to subscribers
// after every change
type Snapshot struct {
	Jobs        []*Job      `json:"jobs"`
	Customers   []*Customer `json:"customers"`
	Notes       []*Note     `json:"notes"`
	GeneratedAt time.Time   `json:"generatedAt"`
}
