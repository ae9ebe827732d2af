package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrNoteNotFound          = errors.New("note not found")
	ErrNoteContentEmpty      = errors.New("note content is required")
	ErrNoteContentTooShort   = errors.New("note content must be at least 3 characters")
	ErrNoteMultipleRelations = errors.New("note can belong to a customer or a job, not both")
	ErrNoteCategoryInvalid   = errors.New("invalid note category")
	ErrNoteStatusInvalid     = errors.New("invalid note status")
)

// MinNoteContentLength is counted in characters after trimming
const MinNoteContentLength = 3

type NoteCategory string

const (
	NoteCategoryMaterial NoteCategory = "malzeme"
	NoteCategoryPayment  NoteCategory = "ödeme"
	NoteCategoryReminder NoteCategory = "hatırlatma"
	NoteCategoryGeneral  NoteCategory = "genel"
)

func (c NoteCategory) IsValid() bool {
	switch c {
	case NoteCategoryMaterial, NoteCategoryPayment, NoteCategoryReminder, NoteCategoryGeneral:
		return true
	}
	return false
}

type NoteStatus string

const (
	NoteStatusActive    NoteStatus = "aktif"
	NoteStatusCompleted NoteStatus = "tamamlandı"
)

func (s NoteStatus) IsValid() bool {
	return s == NoteStatusActive || s == NoteStatusCompleted
}

// Toggled flips between active and completed
func (s NoteStatus) Toggled() NoteStatus {
	if s == NoteStatusCompleted {
		return NoteStatusActive
	}
	return NoteStatusCompleted
}

// Note is free text optionally attached to a customer or a job.
// The references are weak: the target may have been deleted.
type Note struct {
	ID          string       `json:"id"`
	WorkspaceID int32        `json:"-"`
	Content     string       `json:"content"`
	CustomerID  *string      `json:"customerId,omitempty"`
	JobID       *string      `json:"jobId,omitempty"`
	Category    NoteCategory `json:"category"`
	Status      NoteStatus   `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func (n *Note) Validate() error {
	content := strings.TrimSpace(n.Content)
	if content == "" {
		return ErrNoteContentEmpty
	}
	if utf8.RuneCountInString(content) < MinNoteContentLength {
		return ErrNoteContentTooShort
	}
	if n.CustomerID != nil && n.JobID != nil {
		return ErrNoteMultipleRelations
	}
	if !n.Category.IsValid() {
		return ErrNoteCategoryInvalid
	}
	if !n.Status.IsValid() {
		return ErrNoteStatusInvalid
	}
	return nil
}

// NoteWithRelations carries the names of the referenced customer and job.
// A dangling reference leaves the name empty.
type NoteWithRelations struct {
	Note
	CustomerName *string `json:"customerName,omitempty"`
	JobName      *string `json:"jobName,omitempty"`
}

type NoteRepository interface {
	Create(note *Note) (*Note, error)
	GetByID(workspaceID int32, id string) (*Note, error)
	GetAllByWorkspace(workspaceID int32) ([]*Note, error)
	Update(note *Note) (*Note, error)
	Upsert(note *Note) (*Note, error)
	Delete(workspaceID int32, id string) error
	DeleteByCustomer(workspaceID int32, customerID string) (int64, error)
}
