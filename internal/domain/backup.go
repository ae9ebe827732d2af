package domain

import "time"

// ExportVersion is the version written into JSON exports
const ExportVersion = "1.0"

// ExportDocument is the JSON backup interchange format. Payments are nested in each job.
type ExportDocument struct {
	Version    string      `json:"version"`
	ExportDate time.Time   `json:"exportDate"`
	Jobs       []*Job      `json:"jobs"`
	TotalJobs  int         `json:"totalJobs"`
	Customers  []*Customer `json:"customers,omitempty"`
	Notes      []*Note     `json:"notes,omitempty"`
}
