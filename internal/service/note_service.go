package service

import (
	"strings"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/ledger"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// NoteService handles notes and their customer/job references
type NoteService struct {
	noteRepo       domain.NoteRepository
	customerRepo   domain.CustomerRepository
	jobRepo        domain.JobRepository
	eventPublisher websocket.EventPublisher
	now            Clock
}

// NewNoteService creates a new NoteService
func NewNoteService(
	noteRepo domain.NoteRepository,
	customerRepo domain.CustomerRepository,
	jobRepo domain.JobRepository,
) *NoteService {
	return &NoteService{
		noteRepo:     noteRepo,
		customerRepo: customerRepo,
		jobRepo:      jobRepo,
		now:          systemClock,
	}
}

// SetEventPublisher sets the WebSocket event publisher
func (s *NoteService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock replaces the time source
func (s *NoteService) SetClock(clock Clock) {
	s.now = clock
}

func (s *NoteService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// NoteInput holds the editable fields of a note.
// Empty category and status fall back to genel and aktif on create.
type NoteInput struct {
	Content    string
	CustomerID *string
	JobID      *string
	Category   domain.NoteCategory
	Status     domain.NoteStatus
}

// ListNotesInput narrows and orders the note list
type ListNotesInput struct {
	Query  string
	Filter ledger.NoteFilter
	Sort   ledger.NoteSort
}

// CreateNote validates and stores a new note
func (s *NoteService) CreateNote(workspaceID int32, input NoteInput) (*domain.Note, error) {
	now := s.now()
	note := &domain.Note{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		Category:    domain.NoteCategoryGeneral,
		Status:      domain.NoteStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	applyNoteInput(note, input)
	if err := note.Validate(); err != nil {
		return nil, err
	}

	created, err := s.noteRepo.Create(note)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to create note")
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.NoteCreated(created))
	return created, nil
}

// UpdateNote replaces a note's content, references and category.
// An empty status keeps the current one.
func (s *NoteService) UpdateNote(workspaceID int32, id string, input NoteInput) (*domain.Note, error) {
	existing, err := s.noteRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}

	note := *existing
	applyNoteInput(&note, input)
	note.UpdatedAt = s.now()
	if err := note.Validate(); err != nil {
		return nil, err
	}

	return s.save(&note)
}

func applyNoteInput(note *domain.Note, input NoteInput) {
	note.Content = strings.TrimSpace(input.Content)
	note.CustomerID = normalizeRef(input.CustomerID)
	note.JobID = normalizeRef(input.JobID)
	if input.Category != "" {
		note.Category = input.Category
	}
	if input.Status != "" {
		note.Status = input.Status
	}
}

// ToggleStatus flips a note between aktif and tamamlandı
func (s *NoteService) ToggleStatus(workspaceID int32, id string) (*domain.Note, error) {
	note, err := s.noteRepo.GetByID(workspaceID, id)
	if err != nil {
		return nil, err
	}
	note.Status = note.Status.Toggled()
	note.UpdatedAt = s.now()
	return s.save(note)
}

func (s *NoteService) save(note *domain.Note) (*domain.Note, error) {
	updated, err := s.noteRepo.Update(note)
	if err != nil {
		log.Error().Err(err).Int32("workspace_id", note.WorkspaceID).Str("note_id", note.ID).Msg("Failed to update note")
		return nil, err
	}
	s.publishEvent(note.WorkspaceID, websocket.NoteUpdated(updated))
	return updated, nil
}

// DeleteNote removes a note
func (s *NoteService) DeleteNote(workspaceID int32, id string) error {
	if err := s.noteRepo.Delete(workspaceID, id); err != nil {
		return err
	}
	s.publishEvent(workspaceID, websocket.NoteDeleted(id))
	return nil
}

// GetNote retrieves a note by ID within a workspace
func (s *NoteService) GetNote(workspaceID int32, id string) (*domain.Note, error) {
	return s.noteRepo.GetByID(workspaceID, id)
}

// ListNotes returns notes with their customer and job names resolved
func (s *NoteService) ListNotes(workspaceID int32, input ListNotesInput) ([]domain.NoteWithRelations, error) {
	notes, err := s.noteRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	customers, err := s.customerRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	jobs, err := s.jobRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}

	notes = ledger.SearchNotes(notes, input.Query)
	notes = ledger.FilterNotes(notes, input.Filter)
	notes = ledger.SortNotes(notes, input.Sort)
	return ledger.NotesWithRelations(notes, customers, jobs), nil
}

// GetJobNotes returns the notes attached to a job, newest first
func (s *NoteService) GetJobNotes(workspaceID int32, jobID string) ([]*domain.Note, error) {
	if _, err := s.jobRepo.GetByID(workspaceID, jobID); err != nil {
		return nil, err
	}
	notes, err := s.noteRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	return ledger.NotesForJob(notes, jobID), nil
}
