package handler

import (
	"net/http"
	"strconv"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/ledger"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/middleware"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CustomerHandler handles customer HTTP requests
type CustomerHandler struct {
	customerService  *service.CustomerService
	statementService *service.StatementService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *service.CustomerService, statementService *service.StatementService) *CustomerHandler {
	return &CustomerHandler{
		customerService:  customerService,
		statementService: statementService,
	}
}

// CustomerRequest represents the create and update customer request body
type CustomerRequest struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Phone   string  `json:"phone" validate:"required"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
}

func (r CustomerRequest) toInput() service.CustomerInput {
	return service.CustomerInput{
		Name:    r.Name,
		Phone:   r.Phone,
		Address: r.Address,
		Notes:   r.Notes,
	}
}

// CreateCustomer handles POST /api/v1/customers
// @Summary Create a customer
// @Tags customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CustomerRequest true "Customer"
// @Success 201 {object} domain.Customer
// @Failure 400 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /customers [post]
func (h *CustomerHandler) CreateCustomer(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req CustomerRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	customer, err := h.customerService.CreateCustomer(workspaceID, req.toInput())
	if err != nil {
		return respondError(c, err, "Failed to create customer")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("customer_id", customer.ID).Msg("Customer created")

	return c.JSON(http.StatusCreated, customer)
}

// ListCustomers handles GET /api/v1/customers
// @Summary List customers with stats
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search by name or phone"
// @Success 200 {array} domain.CustomerWithStats
// @Router /customers [get]
func (h *CustomerHandler) ListCustomers(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	customers, err := h.customerService.ListCustomers(workspaceID, c.QueryParam("q"))
	if err != nil {
		return respondError(c, err, "Failed to list customers")
	}

	return c.JSON(http.StatusOK, customers)
}

// TopCustomers handles GET /api/v1/customers/top
// @Summary Customers ranked by collected revenue
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of customers, default 5"
// @Success 200 {array} domain.CustomerWithStats
// @Failure 400 {object} ProblemDetails
// @Router /customers/top [get]
func (h *CustomerHandler) TopCustomers(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	limit := ledger.DefaultTopCustomers
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "limit", Message: "Limit must be a positive number"},
			})
		}
		limit = n
	}

	customers, err := h.customerService.TopCustomers(workspaceID, limit)
	if err != nil {
		return respondError(c, err, "Failed to get top customers")
	}

	return c.JSON(http.StatusOK, customers)
}

// CustomerDetailResponse is a customer with stats, jobs and attached notes.
// The customer's own free-text notes stay under "notes".
type CustomerDetailResponse struct {
	*domain.CustomerWithStats
	Jobs          []JobResponse  `json:"jobs"`
	CustomerNotes []*domain.Note `json:"customerNotes"`
}

// GetCustomer handles GET /api/v1/customers/:id
// @Summary Customer detail
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer ID"
// @Success 200 {object} CustomerDetailResponse
// @Failure 404 {object} ProblemDetails
// @Router /customers/{id} [get]
func (h *CustomerHandler) GetCustomer(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id := c.Param("id")
	customer, err := h.customerService.GetCustomer(workspaceID, id)
	if err != nil {
		return respondError(c, err, "Failed to get customer")
	}
	jobs, err := h.customerService.GetCustomerJobs(workspaceID, id)
	if err != nil {
		return respondError(c, err, "Failed to get customer jobs")
	}
	notes, err := h.customerService.GetCustomerNotes(workspaceID, id)
	if err != nil {
		return respondError(c, err, "Failed to get customer notes")
	}

	return c.JSON(http.StatusOK, CustomerDetailResponse{
		CustomerWithStats: customer,
		Jobs:              toJobResponses(jobs),
		CustomerNotes:     notes,
	})
}

// UpdateCustomer handles PUT /api/v1/customers/:id
// @Summary Update a customer
// @Tags customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer ID"
// @Param request body CustomerRequest true "Customer"
// @Success 200 {object} domain.Customer
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /customers/{id} [put]
func (h *CustomerHandler) UpdateCustomer(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req CustomerRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	id := c.Param("id")
	customer, err := h.customerService.UpdateCustomer(workspaceID, id, req.toInput())
	if err != nil {
		return respondError(c, err, "Failed to update customer")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("customer_id", id).Msg("Customer updated")

	return c.JSON(http.StatusOK, customer)
}

// DeleteCustomer handles DELETE /api/v1/customers/:id
// @Summary Delete a customer
// @Description With cascade=true the customer's jobs and notes are deleted too.
// @Tags customers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Customer ID"
// @Param cascade query bool false "Also delete jobs and notes"
// @Success 200 {object} service.DeleteCustomerResult
// @Failure 404 {object} ProblemDetails
// @Router /customers/{id} [delete]
func (h *CustomerHandler) DeleteCustomer(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	cascade := false
	if raw := c.QueryParam("cascade"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "cascade", Message: "Cascade must be true or false"},
			})
		}
		cascade = v
	}

	id := c.Param("id")
	result, err := h.customerService.DeleteCustomer(workspaceID, id, cascade)
	if err != nil {
		return respondError(c, err, "Failed to delete customer")
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Str("customer_id", id).
		Bool("cascade", cascade).
		Int64("jobs_deleted", result.JobsDeleted).
		Int64("notes_deleted", result.NotesDeleted).
		Msg("Customer deleted")

	return c.JSON(http.StatusOK, result)
}

// GetStatementPDF handles GET /api/v1/customers/:id/statement.pdf
// @Summary Customer statement as PDF
// @Tags customers
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Customer ID"
// @Success 200 {file} binary
// @Failure 404 {object} ProblemDetails
// @Router /customers/{id}/statement.pdf [get]
func (h *CustomerHandler) GetStatementPDF(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id := c.Param("id")
	pdf, err := h.statementService.CustomerStatementPDF(workspaceID, id)
	if err != nil {
		return respondError(c, err, "Failed to render statement")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="ekstre_`+id+`.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
