package domain

import "errors"

// Errors shared by several entities. Entity specific sentinels live next to
// the entity they describe.
var (
	// ErrAlreadyExists is returned by stores on a unique key violation
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrInvalidInput wraps malformed records, e.g. in an import document
	ErrInvalidInput      = errors.New("invalid input")
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrNameRequired      = errors.New("name is required")
	ErrNameTooLong       = errors.New("name exceeds maximum length")
)

// MaxNameLength bounds job, customer and profile names
const MaxNameLength = 255
