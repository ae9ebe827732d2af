package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrJobNotFound           = errors.New("job not found")
	ErrJobCostInvalid        = errors.New("job cost must not be negative")
	ErrJobPriceInvalid       = errors.New("job price must not be negative")
	ErrPaymentAmountInvalid  = errors.New("payment amount must be positive")
	ErrPaymentMethodInvalid  = errors.New("payment method must be Elden or IBAN")
	ErrPaymentExceedsBalance = errors.New("payment amount exceeds remaining balance")
)

// PaymentMethod is how a payment was collected
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "Elden"
	PaymentMethodIBAN PaymentMethod = "IBAN"
)

// IsValid reports whether m is a known payment method
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCash || m == PaymentMethodIBAN
}

// JobStatus is the payment status derived from a job's ledger. It is never stored.
type JobStatus string

const (
	JobStatusUnpaid        JobStatus = "unpaid"
	JobStatusPartiallyPaid JobStatus = "partially_paid"
	JobStatusFullyPaid     JobStatus = "fully_paid"
)

// Payment is a single recorded payment against a job. Payments are append-only.
type Payment struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	PaymentDate   time.Time       `json:"paymentDate"`
}

// NewPayment creates a payment with a fresh ID
func NewPayment(amount decimal.Decimal, method PaymentMethod, paidAt time.Time) Payment {
	return Payment{
		ID:            uuid.New().String(),
		Amount:        amount,
		PaymentMethod: method,
		PaymentDate:   paidAt,
	}
}

func (p *Payment) Validate() error {
	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrPaymentAmountInvalid
	}
	if !p.PaymentMethod.IsValid() {
		return ErrPaymentMethodInvalid
	}
	return nil
}

// Job is a unit of billable work for a customer.
// Payments are kept in the order they were recorded.
type Job struct {
	ID                   string          `json:"id"`
	WorkspaceID          int32           `json:"-"`
	Name                 string          `json:"name"`
	Description          string          `json:"description"`
	Cost                 decimal.Decimal `json:"cost"`
	Price                decimal.Decimal `json:"price"`
	Payments             []Payment       `json:"payments"`
	EstimatedPaymentDate *time.Time      `json:"estimatedPaymentDate,omitempty"`
	WithFather           bool            `json:"withFather"`
	CustomerID           *string         `json:"customerId,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt,omitzero"`

	// Legacy single-payment fields. Only present on old records; MigrateJob clears them.
	IsPaid        *bool          `json:"isPaid,omitempty"`
	PaymentMethod *PaymentMethod `json:"paymentMethod,omitempty"`
}

func (j *Job) Validate() error {
	if j.Name == "" {
		return ErrNameRequired
	}
	if len(j.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if j.Cost.LessThan(decimal.Zero) {
		return ErrJobCostInvalid
	}
	if j.Price.LessThan(decimal.Zero) {
		return ErrJobPriceInvalid
	}
	return nil
}

// TotalPaid sums the recorded payments in stored order
func (j *Job) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range j.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// RemainingBalance is price minus total paid. It goes negative when over-paid.
func (j *Job) RemainingBalance() decimal.Decimal {
	return j.Price.Sub(j.TotalPaid())
}

// IsFullyPaid reports whether nothing remains to be collected
func (j *Job) IsFullyPaid() bool {
	return j.RemainingBalance().LessThanOrEqual(decimal.Zero)
}

// LastPaymentMethod returns the method of the most recently recorded payment
func (j *Job) LastPaymentMethod() (PaymentMethod, bool) {
	if len(j.Payments) == 0 {
		return "", false
	}
	return j.Payments[len(j.Payments)-1].PaymentMethod, true
}

// Status derives the payment status from the ledger
func (j *Job) Status() JobStatus {
	if j.IsFullyPaid() {
		return JobStatusFullyPaid
	}
	if j.TotalPaid().GreaterThan(decimal.Zero) {
		return JobStatusPartiallyPaid
	}
	return JobStatusUnpaid
}

// ApplyPayment appends p to the ledger. It fails without touching the job when
// p is invalid or exceeds the remaining balance. A given estimatedPaymentDate
// replaces the due date, and the due date is cleared once nothing remains.
func (j *Job) ApplyPayment(p Payment, estimatedPaymentDate *time.Time) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Amount.GreaterThan(j.RemainingBalance()) {
		return ErrPaymentExceedsBalance
	}
	j.Payments = append(j.Payments, p)
	if estimatedPaymentDate != nil {
		j.EstimatedPaymentDate = estimatedPaymentDate
	}
	if j.IsFullyPaid() {
		j.EstimatedPaymentDate = nil
	}
	return nil
}

// MigrateJob normalizes a job into the payments-list shape.
// A job that already has payments keeps them as they are. Otherwise a legacy
// paid job with a known method gets one payment for the full price dated at
// creation. A legacy paid job without a method cannot produce a payment and
// ends up with none. The legacy fields are cleared in every case.
// The input is never modified.
func MigrateJob(job *Job) *Job {
	if job == nil {
		return nil
	}
	migrated := *job
	if len(job.Payments) > 0 {
		migrated.Payments = append([]Payment(nil), job.Payments...)
		migrated.IsPaid = nil
		migrated.PaymentMethod = nil
		return &migrated
	}

	migrated.Payments = []Payment{}
	if job.IsPaid != nil && *job.IsPaid && job.PaymentMethod != nil && job.PaymentMethod.IsValid() {
		migrated.Payments = append(migrated.Payments, Payment{
			ID:            legacyPaymentID(job.ID),
			Amount:        job.Price,
			PaymentMethod: *job.PaymentMethod,
			PaymentDate:   job.CreatedAt,
		})
	}
	migrated.IsPaid = nil
	migrated.PaymentMethod = nil
	return &migrated
}

// legacyPaymentID is stable so re-reading an unmigrated row yields the same payment
func legacyPaymentID(jobID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("legacy-payment:"+jobID)).String()
}

// JobRepository defines persistence for jobs. Implementations return migrated jobs.
// AppendPayment applies the payment with Job.ApplyPayment against the stored
// job while holding it, so concurrent payments cannot over-pay.
type JobRepository interface {
	Create(job *Job) (*Job, error)
	GetByID(workspaceID int32, id string) (*Job, error)
	GetAllByWorkspace(workspaceID int32) ([]*Job, error)
	GetByCustomer(workspaceID int32, customerID string) ([]*Job, error)
	Update(job *Job) (*Job, error)
	AppendPayment(workspaceID int32, jobID string, payment Payment, estimatedPaymentDate *time.Time) (*Job, error)
	Upsert(job *Job) (*Job, error)
	Delete(workspaceID int32, id string) error
	DeleteByCustomer(workspaceID int32, customerID string) (int64, error)
}
