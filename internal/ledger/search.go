package ledger

import (
	"fmt"
	"strings"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
)

// SearchMode selects which job fields a search looks at
type SearchMode string

const (
	SearchAll         SearchMode = "all"
	SearchName        SearchMode = "name"
	SearchDescription SearchMode = "description"
)

// ParseSearchMode accepts the mode names used by clients. Empty means all.
func ParseSearchMode(s string) (SearchMode, error) {
	switch SearchMode(s) {
	case SearchAll, SearchName, SearchDescription:
		return SearchMode(s), nil
	case "":
		return SearchAll, nil
	}
	return "", fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidInput, s)
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func containsFold(field, query string) bool {
	return strings.Contains(strings.ToLower(field), query)
}

// SearchJobs does a case-insensitive substring match on the fields chosen by mode.
// A blank query returns jobs unchanged.
func SearchJobs(jobs []*domain.Job, query string, mode SearchMode) []*domain.Job {
	q := normalizeQuery(query)
	if q == "" {
		return jobs
	}

	result := make([]*domain.Job, 0)
	for _, job := range jobs {
		var match bool
		switch mode {
		case SearchName:
			match = containsFold(job.Name, q)
		case SearchDescription:
			match = containsFold(job.Description, q)
		default:
			match = containsFold(job.Name, q) || containsFold(job.Description, q)
		}
		if match {
			result = append(result, job)
		}
	}
	return result
}

// SearchCustomers matches name, address and notes case-insensitively.
// The phone is matched as stored, without normalizing digits.
func SearchCustomers(customers []*domain.Customer, query string) []*domain.Customer {
	q := normalizeQuery(query)
	if q == "" {
		return customers
	}

	result := make([]*domain.Customer, 0)
	for _, c := range customers {
		if containsFold(c.Name, q) ||
			strings.Contains(c.Phone, q) ||
			(c.Address != nil && containsFold(*c.Address, q)) ||
			(c.Notes != nil && containsFold(*c.Notes, q)) {
			result = append(result, c)
		}
	}
	return result
}

// SearchNotes matches note content only
func SearchNotes(notes []*domain.Note, query string) []*domain.Note {
	q := normalizeQuery(query)
	if q == "" {
		return notes
	}

	result := make([]*domain.Note, 0)
	for _, n := range notes {
		if containsFold(n.Content, q) {
			result = append(result, n)
		}
	}
	return result
}
