package testutil

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/websocket"
	"github.com/google/uuid"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users    map[string]*domain.User
	ByID     map[uuid.UUID]*domain.User
	CreateFn func(user *domain.User) (*domain.User, error)
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
		ByID:  make(map[uuid.UUID]*domain.User),
	}
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByAuth0ID retrieves a user by Auth0 ID
func (m *MockUserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// UpdateName updates only the user's name by Auth0 ID
func (m *MockUserRepository) UpdateName(auth0ID string, name string) (*domain.User, error) {
	user, ok := m.Users[auth0ID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user.Name = &name
	return user, nil
}

// CreateOrGetByAuth0ID creates or retrieves a user by Auth0 ID.
// Contact details of an existing user are refreshed.
func (m *MockUserRepository) CreateOrGetByAuth0ID(user *domain.User) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(user)
	}
	if existing, ok := m.Users[user.Auth0ID]; ok {
		if user.Email != nil {
			existing.Email = user.Email
		}
		if user.PhoneNumber != nil {
			existing.PhoneNumber = user.PhoneNumber
		}
		return existing, nil
	}
	created := *user
	created.ID = uuid.New()
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	m.Users[created.Auth0ID] = &created
	m.ByID[created.ID] = &created
	return &created, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
}

// MockWorkspaceRepository is a mock implementation of domain.WorkspaceRepository
type MockWorkspaceRepository struct {
	Workspaces    map[int32]*domain.Workspace
	ByUserID      map[uuid.UUID]*domain.Workspace
	ByUserAuth0ID map[string]*domain.Workspace
	NextID        int32
	GetByUserIDFn func(userID uuid.UUID) (*domain.Workspace, error)
}

// NewMockWorkspaceRepository creates a new MockWorkspaceRepository
func NewMockWorkspaceRepository() *MockWorkspaceRepository {
	return &MockWorkspaceRepository{
		Workspaces:    make(map[int32]*domain.Workspace),
		ByUserID:      make(map[uuid.UUID]*domain.Workspace),
		ByUserAuth0ID: make(map[string]*domain.Workspace),
		NextID:        1,
	}
}

// GetByID retrieves a workspace by ID
func (m *MockWorkspaceRepository) GetByID(id int32) (*domain.Workspace, error) {
	if ws, ok := m.Workspaces[id]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

// GetByUserID retrieves a workspace by user ID
func (m *MockWorkspaceRepository) GetByUserID(userID uuid.UUID) (*domain.Workspace, error) {
	if m.GetByUserIDFn != nil {
		return m.GetByUserIDFn(userID)
	}
	if ws, ok := m.ByUserID[userID]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

// GetByUserAuth0ID retrieves a workspace by user's Auth0 ID
func (m *MockWorkspaceRepository) GetByUserAuth0ID(auth0ID string) (*domain.Workspace, error) {
	if ws, ok := m.ByUserAuth0ID[auth0ID]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

// Create creates a new workspace
func (m *MockWorkspaceRepository) Create(workspace *domain.Workspace) (*domain.Workspace, error) {
	workspace.ID = m.NextID
	m.NextID++
	m.Workspaces[workspace.ID] = workspace
	m.ByUserID[workspace.UserID] = workspace
	return workspace, nil
}

// AddWorkspace adds a workspace reachable by its owner's Auth0 ID (helper for tests)
func (m *MockWorkspaceRepository) AddWorkspace(workspace *domain.Workspace, auth0ID string) {
	m.Workspaces[workspace.ID] = workspace
	m.ByUserID[workspace.UserID] = workspace
	if auth0ID != "" {
		m.ByUserAuth0ID[auth0ID] = workspace
	}
	if workspace.ID >= m.NextID {
		m.NextID = workspace.ID + 1
	}
}

// MockJobRepository is a mock implementation of domain.JobRepository.
// Jobs are stored as given and migrated on the way out. AppendPayment holds a
// lock like the row lock of the real repository.
type MockJobRepository struct {
	mu       sync.Mutex
	Jobs     map[string]*domain.Job
	CreateFn func(job *domain.Job) (*domain.Job, error)
	UpdateFn func(job *domain.Job) (*domain.Job, error)
}

// NewMockJobRepository creates a new MockJobRepository
func NewMockJobRepository() *MockJobRepository {
	return &MockJobRepository{
		Jobs: make(map[string]*domain.Job),
	}
}

// AddJob adds a job to the mock repository (helper for tests)
func (m *MockJobRepository) AddJob(job *domain.Job) {
	m.Jobs[job.ID] = job
}

// Create stores a new job
func (m *MockJobRepository) Create(job *domain.Job) (*domain.Job, error) {
	if m.CreateFn != nil {
		return m.CreateFn(job)
	}
	if _, ok := m.Jobs[job.ID]; ok {
		return nil, domain.ErrAlreadyExists
	}
	stored := *job
	m.Jobs[job.ID] = &stored
	return domain.MigrateJob(&stored), nil
}

// GetByID retrieves a job in a workspace
func (m *MockJobRepository) GetByID(workspaceID int32, id string) (*domain.Job, error) {
	job, ok := m.Jobs[id]
	if !ok || job.WorkspaceID != workspaceID {
		return nil, domain.ErrJobNotFound
	}
	return domain.MigrateJob(job), nil
}

// GetAllByWorkspace returns a workspace's jobs, newest first
func (m *MockJobRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.Job, error) {
	return m.collect(func(j *domain.Job) bool { return j.WorkspaceID == workspaceID }), nil
}

// GetByCustomer returns the jobs referencing a customer, newest first
func (m *MockJobRepository) GetByCustomer(workspaceID int32, customerID string) ([]*domain.Job, error) {
	return m.collect(func(j *domain.Job) bool {
		return j.WorkspaceID == workspaceID && j.CustomerID != nil && *j.CustomerID == customerID
	}), nil
}

func (m *MockJobRepository) collect(match func(*domain.Job) bool) []*domain.Job {
	jobs := make([]*domain.Job, 0)
	for _, job := range m.Jobs {
		if match(job) {
			jobs = append(jobs, domain.MigrateJob(job))
		}
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs
}

// Update replaces an existing job
func (m *MockJobRepository) Update(job *domain.Job) (*domain.Job, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(job)
	}
	existing, ok := m.Jobs[job.ID]
	if !ok || existing.WorkspaceID != job.WorkspaceID {
		return nil, domain.ErrJobNotFound
	}
	stored := *job
	m.Jobs[job.ID] = &stored
	return domain.MigrateJob(&stored), nil
}

// AppendPayment adds a payment to the end of a job's ledger
func (m *MockJobRepository) AppendPayment(workspaceID int32, jobID string, payment domain.Payment, estimatedPaymentDate *time.Time) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.Jobs[jobID]
	if !ok || existing.WorkspaceID != workspaceID {
		return nil, domain.ErrJobNotFound
	}
	stored := domain.MigrateJob(existing)
	if err := stored.ApplyPayment(payment, estimatedPaymentDate); err != nil {
		return nil, err
	}
	stored.UpdatedAt = time.Now()
	m.Jobs[jobID] = stored
	return domain.MigrateJob(stored), nil
}

// Upsert inserts or replaces a job by ID
func (m *MockJobRepository) Upsert(job *domain.Job) (*domain.Job, error) {
	stored := *job
	m.Jobs[job.ID] = &stored
	return domain.MigrateJob(&stored), nil
}

// Delete removes a job
func (m *MockJobRepository) Delete(workspaceID int32, id string) error {
	job, ok := m.Jobs[id]
	if !ok || job.WorkspaceID != workspaceID {
		return domain.ErrJobNotFound
	}
	delete(m.Jobs, id)
	return nil
}

// DeleteByCustomer removes every job referencing a customer
func (m *MockJobRepository) DeleteByCustomer(workspaceID int32, customerID string) (int64, error) {
	var n int64
	for id, job := range m.Jobs {
		if job.WorkspaceID == workspaceID && job.CustomerID != nil && *job.CustomerID == customerID {
			delete(m.Jobs, id)
			n++
		}
	}
	return n, nil
}

// MockCustomerRepository is a mock implementation of domain.CustomerRepository
type MockCustomerRepository struct {
	Customers map[string]*domain.Customer
}

// NewMockCustomerRepository creates a new MockCustomerRepository
func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{
		Customers: make(map[string]*domain.Customer),
	}
}

// AddCustomer adds a customer to the mock repository (helper for tests)
func (m *MockCustomerRepository) AddCustomer(customer *domain.Customer) {
	m.Customers[customer.ID] = customer
}

func (m *MockCustomerRepository) Create(customer *domain.Customer) (*domain.Customer, error) {
	if _, ok := m.Customers[customer.ID]; ok {
		return nil, domain.ErrAlreadyExists
	}
	stored := *customer
	m.Customers[customer.ID] = &stored
	return &stored, nil
}

func (m *MockCustomerRepository) GetByID(workspaceID int32, id string) (*domain.Customer, error) {
	customer, ok := m.Customers[id]
	if !ok || customer.WorkspaceID != workspaceID {
		return nil, domain.ErrCustomerNotFound
	}
	return customer, nil
}

// GetAllByWorkspace returns customers sorted by name
func (m *MockCustomerRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.Customer, error) {
	customers := make([]*domain.Customer, 0)
	for _, c := range m.Customers {
		if c.WorkspaceID == workspaceID {
			customers = append(customers, c)
		}
	}
	sort.Slice(customers, func(i, j int) bool {
		return strings.ToLower(customers[i].Name) < strings.ToLower(customers[j].Name)
	})
	return customers, nil
}

func (m *MockCustomerRepository) Update(customer *domain.Customer) (*domain.Customer, error) {
	existing, ok := m.Customers[customer.ID]
	if !ok || existing.WorkspaceID != customer.WorkspaceID {
		return nil, domain.ErrCustomerNotFound
	}
	stored := *customer
	m.Customers[customer.ID] = &stored
	return &stored, nil
}

func (m *MockCustomerRepository) Upsert(customer *domain.Customer) (*domain.Customer, error) {
	stored := *customer
	m.Customers[customer.ID] = &stored
	return &stored, nil
}

func (m *MockCustomerRepository) Delete(workspaceID int32, id string) error {
	customer, ok := m.Customers[id]
	if !ok || customer.WorkspaceID != workspaceID {
		return domain.ErrCustomerNotFound
	}
	delete(m.Customers, id)
	return nil
}

// MockNoteRepository is a mock implementation of domain.NoteRepository
type MockNoteRepository struct {
	Notes map[string]*domain.Note
}

// NewMockNoteRepository creates a new MockNoteRepository
func NewMockNoteRepository() *MockNoteRepository {
	return &MockNoteRepository{
		Notes: make(map[string]*domain.Note),
	}
}

// AddNote adds a note to the mock repository (helper for tests)
func (m *MockNoteRepository) AddNote(note *domain.Note) {
	m.Notes[note.ID] = note
}

func (m *MockNoteRepository) Create(note *domain.Note) (*domain.Note, error) {
	if _, ok := m.Notes[note.ID]; ok {
		return nil, domain.ErrAlreadyExists
	}
	stored := *note
	m.Notes[note.ID] = &stored
	return &stored, nil
}

func (m *MockNoteRepository) GetByID(workspaceID int32, id string) (*domain.Note, error) {
	note, ok := m.Notes[id]
	if !ok || note.WorkspaceID != workspaceID {
		return nil, domain.ErrNoteNotFound
	}
	copied := *note
	return &copied, nil
}

// GetAllByWorkspace returns notes newest first
func (m *MockNoteRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.Note, error) {
	notes := make([]*domain.Note, 0)
	for _, n := range m.Notes {
		if n.WorkspaceID == workspaceID {
			notes = append(notes, n)
		}
	}
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].ID < notes[j].ID
		}
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	return notes, nil
}

func (m *MockNoteRepository) Update(note *domain.Note) (*domain.Note, error) {
	existing, ok := m.Notes[note.ID]
	if !ok || existing.WorkspaceID != note.WorkspaceID {
		return nil, domain.ErrNoteNotFound
	}
	stored := *note
	m.Notes[note.ID] = &stored
	return &stored, nil
}

func (m *MockNoteRepository) Upsert(note *domain.Note) (*domain.Note, error) {
	stored := *note
	m.Notes[note.ID] = &stored
	return &stored, nil
}

func (m *MockNoteRepository) Delete(workspaceID int32, id string) error {
	note, ok := m.Notes[id]
	if !ok || note.WorkspaceID != workspaceID {
		return domain.ErrNoteNotFound
	}
	delete(m.Notes, id)
	return nil
}

func (m *MockNoteRepository) DeleteByCustomer(workspaceID int32, customerID string) (int64, error) {
	var n int64
	for id, note := range m.Notes {
		if note.WorkspaceID == workspaceID && note.CustomerID != nil && *note.CustomerID == customerID {
			delete(m.Notes, id)
			n++
		}
	}
	return n, nil
}

// PublishedEvent records one call to MockEventPublisher.Publish
type PublishedEvent struct {
	WorkspaceID int32
	Event       websocket.Event
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish records the event
func (m *MockEventPublisher) Publish(workspaceID int32, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{WorkspaceID: workspaceID, Event: event})
}

// PublishBuilt records the event returned by build
func (m *MockEventPublisher) PublishBuilt(workspaceID int32, build func() (websocket.Event, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, err := build()
	if err != nil {
		return err
	}
	m.Events = append(m.Events, PublishedEvent{WorkspaceID: workspaceID, Event: event})
	return nil
}

// Types returns the type of every recorded event in order, e.g. "job.created"
func (m *MockEventPublisher) Types() []string {
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Event.Type
	}
	return out
}
