package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/ledger"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/middleware"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// JobHandler handles job, payment and stats HTTP requests
type JobHandler struct {
	jobService  *service.JobService
	noteService *service.NoteService
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(jobService *service.JobService, noteService *service.NoteService) *JobHandler {
	return &JobHandler{jobService: jobService, noteService: noteService}
}

// InitialPaymentRequest is a payment collected when the job is entered
type InitialPaymentRequest struct {
	Amount        decimal.Decimal      `json:"amount"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
}

// JobRequest represents the create and update job request body.
// InitialPayment is only read on create.
type JobRequest struct {
	Name                 string                 `json:"name" validate:"required,max=255"`
	Description          string                 `json:"description"`
	Cost                 decimal.Decimal        `json:"cost"`
	Price                decimal.Decimal        `json:"price"`
	WithFather           bool                   `json:"withFather"`
	CustomerID           *string                `json:"customerId"`
	EstimatedPaymentDate *time.Time             `json:"estimatedPaymentDate"`
	InitialPayment       *InitialPaymentRequest `json:"initialPayment"`
}

// AddPaymentRequest represents the add payment request body
type AddPaymentRequest struct {
	Amount               decimal.Decimal      `json:"amount"`
	PaymentMethod        domain.PaymentMethod `json:"paymentMethod" validate:"required"`
	EstimatedPaymentDate *time.Time           `json:"estimatedPaymentDate"`
}

// JobResponse is a job with its derived balance and status
type JobResponse struct {
	*domain.Job
	TotalPaid        decimal.Decimal  `json:"totalPaid"`
	RemainingBalance decimal.Decimal  `json:"remainingBalance"`
	Status           domain.JobStatus `json:"status"`
}

func toJobResponse(job *domain.Job) JobResponse {
	return JobResponse{
		Job:              job,
		TotalPaid:        job.TotalPaid(),
		RemainingBalance: job.RemainingBalance(),
		Status:           job.Status(),
	}
}

func toJobResponses(jobs []*domain.Job) []JobResponse {
	result := make([]JobResponse, len(jobs))
	for i, job := range jobs {
		result[i] = toJobResponse(job)
	}
	return result
}

// CreateJob handles POST /api/v1/jobs
// @Summary Create a job
// @Tags jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body JobRequest true "Job"
// @Success 201 {object} JobResponse
// @Failure 400 {object} ProblemDetails
// @Router /jobs [post]
func (h *JobHandler) CreateJob(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req JobRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	input := service.CreateJobInput{
		Name:                 req.Name,
		Description:          req.Description,
		Cost:                 req.Cost,
		Price:                req.Price,
		WithFather:           req.WithFather,
		CustomerID:           req.CustomerID,
		EstimatedPaymentDate: req.EstimatedPaymentDate,
	}
	if req.InitialPayment != nil {
		input.InitialPayment = &service.InitialPaymentInput{
			Amount: req.InitialPayment.Amount,
			Method: req.InitialPayment.PaymentMethod,
		}
	}

	job, err := h.jobService.CreateJob(workspaceID, input)
	if err != nil {
		return respondError(c, err, "Failed to create job")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("job_id", job.ID).Msg("Job created")

	return c.JSON(http.StatusCreated, toJobResponse(job))
}

// ListJobs handles GET /api/v1/jobs
// @Summary List jobs
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Param period query string false "daily, weekly, monthly or all"
// @Param q query string false "Search text"
// @Param mode query string false "all, name or description"
// @Success 200 {array} JobResponse
// @Failure 400 {object} ProblemDetails
// @Router /jobs [get]
func (h *JobHandler) ListJobs(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	period, err := ledger.ParseTimeBucket(c.QueryParam("period"))
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "period", Message: "Period must be daily, weekly, monthly or all"},
		})
	}
	mode, err := ledger.ParseSearchMode(c.QueryParam("mode"))
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "mode", Message: "Mode must be all, name or description"},
		})
	}

	jobs, err := h.jobService.ListJobs(workspaceID, service.ListJobsInput{
		Period: period,
		Query:  c.QueryParam("q"),
		Mode:   mode,
	})
	if err != nil {
		return respondError(c, err, "Failed to list jobs")
	}

	return c.JSON(http.StatusOK, toJobResponses(jobs))
}

// GetJob handles GET /api/v1/jobs/:id
// @Summary Get a job
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} JobResponse
// @Failure 404 {object} ProblemDetails
// @Router /jobs/{id} [get]
func (h *JobHandler) GetJob(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	job, err := h.jobService.GetJob(workspaceID, c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to get job")
	}

	return c.JSON(http.StatusOK, toJobResponse(job))
}

// UpdateJob handles PUT /api/v1/jobs/:id
// @Summary Update a job
// @Description Replaces the editable fields. Payments are kept.
// @Tags jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Param request body JobRequest true "Job"
// @Success 200 {object} JobResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /jobs/{id} [put]
func (h *JobHandler) UpdateJob(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req JobRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	id := c.Param("id")
	job, err := h.jobService.UpdateJob(workspaceID, id, service.UpdateJobInput{
		Name:                 req.Name,
		Description:          req.Description,
		Cost:                 req.Cost,
		Price:                req.Price,
		WithFather:           req.WithFather,
		CustomerID:           req.CustomerID,
		EstimatedPaymentDate: req.EstimatedPaymentDate,
	})
	if err != nil {
		return respondError(c, err, "Failed to update job")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("job_id", id).Msg("Job updated")

	return c.JSON(http.StatusOK, toJobResponse(job))
}

// DeleteJob handles DELETE /api/v1/jobs/:id
// @Summary Delete a job
// @Tags jobs
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /jobs/{id} [delete]
func (h *JobHandler) DeleteJob(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id := c.Param("id")
	if err := h.jobService.DeleteJob(workspaceID, id); err != nil {
		return respondError(c, err, "Failed to delete job")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("job_id", id).Msg("Job deleted")

	return c.NoContent(http.StatusNoContent)
}

// AddPayment handles POST /api/v1/jobs/:id/payments
// @Summary Record a payment
// @Tags jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Param request body AddPaymentRequest true "Payment"
// @Success 201 {object} JobResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /jobs/{id}/payments [post]
func (h *JobHandler) AddPayment(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req AddPaymentRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	job, err := h.jobService.AddPayment(workspaceID, c.Param("id"), service.AddPaymentInput{
		Amount:               req.Amount,
		Method:               req.PaymentMethod,
		EstimatedPaymentDate: req.EstimatedPaymentDate,
	})
	if err != nil {
		return respondError(c, err, "Failed to record payment")
	}

	return c.JSON(http.StatusCreated, toJobResponse(job))
}

// GetPendingPayments handles GET /api/v1/jobs/pending
// @Summary Jobs with an open balance
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.PendingJob
// @Router /jobs/pending [get]
func (h *JobHandler) GetPendingPayments(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	pending, err := h.jobService.GetPendingPayments(workspaceID)
	if err != nil {
		return respondError(c, err, "Failed to get pending payments")
	}

	return c.JSON(http.StatusOK, pending)
}

// GetJobNotes handles GET /api/v1/jobs/:id/notes
// @Summary Notes attached to a job
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {array} domain.Note
// @Router /jobs/{id}/notes [get]
func (h *JobHandler) GetJobNotes(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	notes, err := h.noteService.GetJobNotes(workspaceID, c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to get job notes")
	}

	return c.JSON(http.StatusOK, notes)
}

// GetStats handles GET /api/v1/stats
// @Summary Dashboard stats
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Param period query string false "daily, weekly, monthly or all"
// @Success 200 {object} domain.JobStats
// @Failure 400 {object} ProblemDetails
// @Router /stats [get]
func (h *JobHandler) GetStats(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	period, err := ledger.ParseTimeBucket(c.QueryParam("period"))
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "period", Message: "Period must be daily, weekly, monthly or all"},
		})
	}

	stats, err := h.jobService.GetStats(workspaceID, period)
	if err != nil {
		return respondError(c, err, "Failed to get stats")
	}

	return c.JSON(http.StatusOK, stats)
}
