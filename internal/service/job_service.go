package service

import (
	"errors"
	"strings"
	"time"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/ledger"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/metrics"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// JobService handles jobs and the payments recorded against them
type JobService struct {
	jobRepo        domain.JobRepository
	eventPublisher websocket.EventPublisher
	metrics        *metrics.Metrics
	now            Clock
}

// NewJobService creates a new JobService
func NewJobService(jobRepo domain.JobRepository) *JobService {
	return &JobService{
		jobRepo: jobRepo,
		now:     systemClock,
	}
}

// SetEventPublisher sets the WebSocket event publisher
func (s *JobService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the collector payments are counted in
func (s *JobService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// SetClock replaces the time source
func (s *JobService) SetClock(clock Clock) {
	s.now = clock
}

func (s *JobService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// InitialPaymentInput is a payment collected when the job is entered
type InitialPaymentInput struct {
	Amount decimal.Decimal
	Method domain.PaymentMethod
}

// CreateJobInput holds the input for creating a job
type CreateJobInput struct {
	Name                 string
	Description          string
	Cost                 decimal.Decimal
	Price                decimal.Decimal
	WithFather           bool
	CustomerID           *string
	EstimatedPaymentDate *time.Time
	InitialPayment       *InitialPaymentInput
}

// UpdateJobInput holds the editable fields of a job. Payments are not editable.
type UpdateJobInput struct {
	Name                 string
	Description          string
	Cost                 decimal.Decimal
	Price                decimal.Decimal
	WithFather           bool
	CustomerID           *string
	EstimatedPaymentDate *time.Time
}

// AddPaymentInput holds a payment to append to a job.
// EstimatedPaymentDate replaces the job's due date when a balance remains.
type AddPaymentInput struct {
	Amount               decimal.Decimal
	Method               domain.PaymentMethod
	EstimatedPaymentDate *time.Time
}

// ListJobsInput narrows the job list
type ListJobsInput struct {
	Period ledger.TimeBucket
	Query  string
	Mode   ledger.SearchMode
}

// CreateJob creates a job, optionally with a first payment
func (s *JobService) CreateJob(workspaceID int32, input CreateJobInput) (*domain.Job, error) {
	now := s.now()
	job := &domain.Job{
		ID:                   uuid.New().String(),
		WorkspaceID:          workspaceID,
		Name:                 strings.TrimSpace(input.Name),
		Description:          strings.TrimSpace(input.Description),
		Cost:                 input.Cost,
		Price:                input.Price,
		Payments:             []domain.Payment{},
		EstimatedPaymentDate: input.EstimatedPaymentDate,
		WithFather:           input.WithFather,
		CustomerID:           normalizeRef(input.CustomerID),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}

	if input.InitialPayment != nil {
		payment := domain.NewPayment(input.InitialPayment.Amount, input.InitialPayment.Method, now)
		if err := payment.Validate(); err != nil {
			return nil, err
		}
		if payment.Amount.GreaterThan(job.Price) {
			return nil, domain.ErrPaymentExceedsBalance
		}
		job.Payments = append(job.Payments, payment)
	}
	if job.IsFullyPaid() {
		job.EstimatedPaymentDate = nil
	}

	created, err := s.jobRepo.Create(job)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to create job")
		return nil, err
	}
	for _, p := range created.Payments {
		s.metrics.PaymentRecorded(string(p.PaymentMethod), p.Amount.InexactFloat64())
	}

	s.publishEvent(workspaceID, websocket.JobCreated(created))
	return created, nil
}

// GetJob retrieves a job by ID within a workspace
func (s *JobService) GetJob(workspaceID int32, id string) (*domain.Job, error) {
	return s.jobRepo.GetByID(workspaceID, id)
}

// ListJobs returns the workspace's jobs, newest first, narrowed by period and search
func (s *JobService) ListJobs(workspaceID int32, input ListJobsInput) ([]*domain.Job, error) {
	jobs, err := s.jobRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	jobs = ledger.FilterByTime(jobs, input.Period, s.now())
	return ledger.SearchJobs(jobs, input.Query, input.Mode), nil
}

// UpdateJob replaces a job's editable fields. Lowering the price below what
// was already collected is allowed and leaves a negative balance.
func (s *JobService) UpdateJob(workspaceID int32, id string, input UpdateJobInput) (*domain.Job, error) {
	existing, err := s.jobRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}

	job := *existing
	job.Name = strings.TrimSpace(input.Name)
	job.Description = strings.TrimSpace(input.Description)
	job.Cost = input.Cost
	job.Price = input.Price
	job.WithFather = input.WithFather
	job.CustomerID = normalizeRef(input.CustomerID)
	job.EstimatedPaymentDate = input.EstimatedPaymentDate
	job.UpdatedAt = s.now()
	if err := job.Validate(); err != nil {
		return nil, err
	}
	if job.IsFullyPaid() {
		job.EstimatedPaymentDate = nil
	}

	updated, err := s.jobRepo.Update(&job)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Str("job_id", id).Msg("Failed to update job")
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.JobUpdated(updated))
	return updated, nil
}

// AddPayment appends a payment to a job's ledger. The amount must be
// positive and must not exceed the remaining balance at the time it is stored.
func (s *JobService) AddPayment(workspaceID int32, jobID string, input AddPaymentInput) (*domain.Job, error) {
	payment := domain.NewPayment(input.Amount, input.Method, s.now())
	if err := payment.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.jobRepo.AppendPayment(workspaceID, jobID, payment, input.EstimatedPaymentDate)
	if err != nil {
		if !errors.Is(err, domain.ErrJobNotFound) && !errors.Is(err, domain.ErrPaymentExceedsBalance) {
			log.Error().Err(err).Int32("workspace_id", workspaceID).Str("job_id", jobID).Msg("Failed to append payment")
		}
		return nil, err
	}
	s.metrics.PaymentRecorded(string(payment.PaymentMethod), payment.Amount.InexactFloat64())

	log.Info().
		Int32("workspace_id", workspaceID).
		Str("job_id", jobID).
		Str("amount", payment.Amount.String()).
		Str("method", string(payment.PaymentMethod)).
		Msg("Payment recorded")

	s.publishEvent(workspaceID, websocket.JobPaymentAdded(updated))
	return updated, nil
}

// DeleteJob removes a job. Notes pointing at it are left dangling.
func (s *JobService) DeleteJob(workspaceID int32, id string) error {
	if err := s.jobRepo.Delete(workspaceID, id); err != nil {
		return err
	}
	s.publishEvent(workspaceID, websocket.JobDeleted(id))
	return nil
}

// GetPendingPayments lists the jobs with a balance left, earliest due first
func (s *JobService) GetPendingPayments(workspaceID int32) ([]domain.PendingJob, error) {
	jobs, err := s.jobRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	return ledger.ClassifyPending(jobs, s.now()), nil
}

// GetStats aggregates the jobs created in period
func (s *JobService) GetStats(workspaceID int32, period ledger.TimeBucket) (domain.JobStats, error) {
	jobs, err := s.jobRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return domain.JobStats{}, err
	}
	return ledger.CalculateStats(ledger.FilterByTime(jobs, period, s.now())), nil
}

// normalizeRef turns a blank reference into no reference
func normalizeRef(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
