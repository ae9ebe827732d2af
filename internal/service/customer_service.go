package service

import (
	"strings"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/ledger"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CustomerService handles customer records and their per-customer views
type CustomerService struct {
	customerRepo   domain.CustomerRepository
	jobRepo        domain.JobRepository
	noteRepo       domain.NoteRepository
	eventPublisher websocket.EventPublisher
	now            Clock
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customerRepo domain.CustomerRepository,
	jobRepo domain.JobRepository,
	noteRepo domain.NoteRepository,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		jobRepo:      jobRepo,
		noteRepo:     noteRepo,
		now:          systemClock,
	}
}

// SetEventPublisher sets the WebSocket event publisher
func (s *CustomerService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock replaces the time source
func (s *CustomerService) SetClock(clock Clock) {
	s.now = clock
}

func (s *CustomerService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// CustomerInput holds the editable fields of a customer
type CustomerInput struct {
	Name    string
	Phone   string
	Address *string
	Notes   *string
}

// DeleteCustomerResult reports what a delete removed
type DeleteCustomerResult struct {
	JobsDeleted  int64 `json:"jobsDeleted"`
	NotesDeleted int64 `json:"notesDeleted"`
}

// CreateCustomer validates and stores a new customer.
// Name and phone must not collide with another customer of the workspace.
func (s *CustomerService) CreateCustomer(workspaceID int32, input CustomerInput) (*domain.Customer, error) {
	now := s.now()
	customer := &domain.Customer{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	applyCustomerInput(customer, input)
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkDuplicate(workspaceID, customer, ""); err != nil {
		return nil, err
	}

	created, err := s.customerRepo.Create(customer)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to create customer")
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.CustomerCreated(created))
	return created, nil
}

// UpdateCustomer replaces a customer's editable fields
func (s *CustomerService) UpdateCustomer(workspaceID int32, id string, input CustomerInput) (*domain.Customer, error) {
	existing, err := s.customerRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}

	customer := *existing
	applyCustomerInput(&customer, input)
	customer.UpdatedAt = s.now()
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkDuplicate(workspaceID, &customer, id); err != nil {
		return nil, err
	}

	updated, err := s.customerRepo.Update(&customer)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Str("customer_id", id).Msg("Failed to update customer")
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.CustomerUpdated(updated))
	return updated, nil
}

func applyCustomerInput(customer *domain.Customer, input CustomerInput) {
	customer.Name = strings.TrimSpace(input.Name)
	customer.Phone = domain.FormatPhone(strings.TrimSpace(input.Phone))
	customer.Address = trimmedOrNil(input.Address)
	customer.Notes = trimmedOrNil(input.Notes)
}

func (s *CustomerService) checkDuplicate(workspaceID int32, customer *domain.Customer, excludeID string) error {
	customers, err := s.customerRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return err
	}
	if domain.IsDuplicateCustomer(customers, customer.Name, customer.Phone, excludeID) {
		return domain.ErrCustomerDuplicate
	}
	return nil
}

// GetCustomer returns a customer with the aggregates over their jobs
func (s *CustomerService) GetCustomer(workspaceID int32, id string) (*domain.CustomerWithStats, error) {
	customer, err := s.customerRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	jobs, err := s.jobRepo.GetByCustomer(workspaceID, id)
	if err != nil {
		return nil, err
	}
	stats := ledger.CustomerStats(customer, jobs)
	return &stats, nil
}

// ListCustomers returns the workspace's customers with stats, narrowed by query
func (s *CustomerService) ListCustomers(workspaceID int32, query string) ([]domain.CustomerWithStats, error) {
	customers, err := s.customerRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	jobs, err := s.jobRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	return ledger.CustomersWithStats(ledger.SearchCustomers(customers, query), jobs), nil
}

// TopCustomers ranks customers by collected revenue. A non-positive limit
// falls back to the default list size.
func (s *CustomerService) TopCustomers(workspaceID int32, limit int) ([]domain.CustomerWithStats, error) {
	if limit <= 0 {
		limit = ledger.DefaultTopCustomers
	}
	customers, err := s.customerRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	jobs, err := s.jobRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	return ledger.TopCustomers(customers, jobs, limit), nil
}

// GetCustomerJobs returns the customer's jobs, newest first
func (s *CustomerService) GetCustomerJobs(workspaceID int32, id string) ([]*domain.Job, error) {
	if _, err := s.customerRepo.GetByID(workspaceID, id); err != nil {
		return nil, err
	}
	jobs, err := s.jobRepo.GetByCustomer(workspaceID, id)
	if err != nil {
		return nil, err
	}
	return ledger.JobsForCustomer(jobs, id), nil
}

// GetCustomerNotes returns the notes attached to the customer, newest first
func (s *CustomerService) GetCustomerNotes(workspaceID int32, id string) ([]*domain.Note, error) {
	if _, err := s.customerRepo.GetByID(workspaceID, id); err != nil {
		return nil, err
	}
	notes, err := s.noteRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	return ledger.NotesForCustomer(notes, id), nil
}

// DeleteCustomer removes a customer. With cascade the customer's jobs and
// notes go too; without it they stay and keep a dangling reference.
func (s *CustomerService) DeleteCustomer(workspaceID int32, id string, cascade bool) (*DeleteCustomerResult, error) {
	if _, err := s.customerRepo.GetByID(workspaceID, id); err != nil {
		return nil, err
	}

	result := &DeleteCustomerResult{}
	if cascade {
		jobs, err := s.jobRepo.GetByCustomer(workspaceID, id)
		if err != nil {
			return nil, err
		}
		notes, err := s.noteRepo.GetAllByWorkspace(workspaceID)
		if err != nil {
			return nil, err
		}
		notes = ledger.NotesForCustomer(notes, id)

		if result.JobsDeleted, err = s.jobRepo.DeleteByCustomer(workspaceID, id); err != nil {
			return nil, err
		}
		if result.NotesDeleted, err = s.noteRepo.DeleteByCustomer(workspaceID, id); err != nil {
			return nil, err
		}
		for _, job := range jobs {
			s.publishEvent(workspaceID, websocket.JobDeleted(job.ID))
		}
		for _, note := range notes {
			s.publishEvent(workspaceID, websocket.NoteDeleted(note.ID))
		}
	}

	if err := s.customerRepo.Delete(workspaceID, id); err != nil {
		return nil, err
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Str("customer_id", id).
		Bool("cascade", cascade).
		Int64("jobs_deleted", result.JobsDeleted).
		Int64("notes_deleted", result.NotesDeleted).
		Msg("Customer deleted")

	s.publishEvent(workspaceID, websocket.CustomerDeleted(id))
	return result, nil
}

// trimmedOrNil drops blank optional text
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
