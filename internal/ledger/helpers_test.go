package ledger

import (
	"time"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func payment(amount int64, method domain.PaymentMethod) domain.Payment {
	return domain.Payment{
		ID:            "p-" + string(method),
		Amount:        dec(amount),
		PaymentMethod: method,
		PaymentDate:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func jobAt(id string, createdAt time.Time) *domain.Job {
	return &domain.Job{
		ID:        id,
		Name:      "Job " + id,
		Price:     dec(100),
		Payments:  []domain.Payment{},
		CreatedAt: createdAt,
	}
}
