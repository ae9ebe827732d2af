package ledger

import (
	"fmt"
	"sort"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
)

// NoteFilter restricts notes by status and category. Empty fields match everything.
type NoteFilter struct {
	Status   domain.NoteStatus
	Category domain.NoteCategory
}

// FilterNotes applies filter. The client value "all" is treated as empty.
func FilterNotes(notes []*domain.Note, filter NoteFilter) []*domain.Note {
	status := filter.Status
	if status == "all" {
		status = ""
	}
	category := filter.Category
	if category == "all" {
		category = ""
	}
	if status == "" && category == "" {
		return notes
	}

	result := make([]*domain.Note, 0)
	for _, n := range notes {
		if status != "" && n.Status != status {
			continue
		}
		if category != "" && n.Category != category {
			continue
		}
		result = append(result, n)
	}
	return result
}

// NoteSort selects the order notes are listed in
type NoteSort string

const (
	NoteSortDate     NoteSort = "date"
	NoteSortStatus   NoteSort = "status"
	NoteSortCategory NoteSort = "category"
)

// ParseNoteSort accepts the sort names used by clients. Empty means date.
func ParseNoteSort(s string) (NoteSort, error) {
	switch NoteSort(s) {
	case NoteSortDate, NoteSortStatus, NoteSortCategory:
		return NoteSort(s), nil
	case "":
		return NoteSortDate, nil
	}
	return "", fmt.Errorf("%w: unknown note sort %q", domain.ErrInvalidInput, s)
}

var categoryRank = map[domain.NoteCategory]int{
	domain.NoteCategoryReminder: 0,
	domain.NoteCategoryPayment:  1,
	domain.NoteCategoryMaterial: 2,
	domain.NoteCategoryGeneral:  3,
}

// rankCategory treats a missing category as general
func rankCategory(c domain.NoteCategory) int {
	if r, ok := categoryRank[c]; ok {
		return r
	}
	return categoryRank[domain.NoteCategoryGeneral]
}

// SortNotes returns a sorted copy. Every order falls back to newest first.
func SortNotes(notes []*domain.Note, by NoteSort) []*domain.Note {
	sorted := append([]*domain.Note(nil), notes...)
	newer := func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		switch by {
		case NoteSortStatus:
			if sorted[i].Status != sorted[j].Status {
				return sorted[i].Status == domain.NoteStatusActive
			}
		case NoteSortCategory:
			ri, rj := rankCategory(sorted[i].Category), rankCategory(sorted[j].Category)
			if ri != rj {
				return ri < rj
			}
		}
		return newer(i, j)
	})
	return sorted
}

// NotesWithRelations resolves each note's customer and job names.
// References to records that no longer exist resolve to no name.
func NotesWithRelations(notes []*domain.Note, customers []*domain.Customer, jobs []*domain.Job) []domain.NoteWithRelations {
	customerNames := make(map[string]string, len(customers))
	for _, c := range customers {
		customerNames[c.ID] = c.Name
	}
	jobNames := make(map[string]string, len(jobs))
	for _, j := range jobs {
		jobNames[j.ID] = j.Name
	}

	result := make([]domain.NoteWithRelations, 0, len(notes))
	for _, n := range notes {
		rel := domain.NoteWithRelations{Note: *n}
		if n.CustomerID != nil {
			if name, ok := customerNames[*n.CustomerID]; ok {
				rel.CustomerName = &name
			}
		}
		if n.JobID != nil {
			if name, ok := jobNames[*n.JobID]; ok {
				rel.JobName = &name
			}
		}
		result = append(result, rel)
	}
	return result
}

// NotesForCustomer returns the notes attached to customerID, newest first
func NotesForCustomer(notes []*domain.Note, customerID string) []*domain.Note {
	result := make([]*domain.Note, 0)
	for _, n := range notes {
		if n.CustomerID != nil && *n.CustomerID == customerID {
			result = append(result, n)
		}
	}
	return SortNotes(result, NoteSortDate)
}

// NotesForJob returns the notes attached to jobID, newest first
func NotesForJob(notes []*domain.Note, jobID string) []*domain.Note {
	result := make([]*domain.Note, 0)
	for _, n := range notes {
		if n.JobID != nil && *n.JobID == jobID {
			result = append(result, n)
		}
	}
	return SortNotes(result, NoteSortDate)
}
