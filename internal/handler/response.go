package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://elektrikci.app/errors/validation"
	ErrorTypeNotFound     = "https://elektrikci.app/errors/not-found"
	ErrorTypeUnauthorized = "https://elektrikci.app/errors/unauthorized"
	ErrorTypeForbidden    = "https://elektrikci.app/errors/forbidden"
	ErrorTypeConflict     = "https://elektrikci.app/errors/conflict"
	ErrorTypeInternal     = "https://elektrikci.app/errors/internal"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, ProblemDetails{
		Type:     ErrorTypeUnauthorized,
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewForbiddenError creates a forbidden error response
func NewForbiddenError(c echo.Context, detail string) error {
	return c.JSON(http.StatusForbidden, ProblemDetails{
		Type:     ErrorTypeForbidden,
		Title:    "Forbidden",
		Status:   http.StatusForbidden,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return c.JSON(http.StatusConflict, ProblemDetails{
		Type:     ErrorTypeConflict,
		Title:    "Conflict",
		Status:   http.StatusConflict,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// fieldErrors maps domain validation sentinels to the request field they concern
var fieldErrors = []struct {
	err     error
	field   string
	message string
}{
	{domain.ErrNameRequired, "name", "Name is required"},
	{domain.ErrNameTooLong, "name", "Name must be 255 characters or less"},
	{domain.ErrJobCostInvalid, "cost", "Cost must not be negative"},
	{domain.ErrJobPriceInvalid, "price", "Price must not be negative"},
	{domain.ErrPaymentAmountInvalid, "amount", "Amount must be positive"},
	{domain.ErrPaymentMethodInvalid, "paymentMethod", "Payment method must be Elden or IBAN"},
	{domain.ErrPaymentExceedsBalance, "amount", "Amount exceeds the remaining balance"},
	{domain.ErrCustomerNameRequired, "name", "Customer name is required"},
	{domain.ErrCustomerPhoneRequired, "phone", "Phone is required"},
	{domain.ErrCustomerPhoneInvalid, "phone", "Phone must have 10 or 11 digits"},
	{domain.ErrNoteContentEmpty, "content", "Content is required"},
	{domain.ErrNoteContentTooShort, "content", "Content must be at least 3 characters"},
	{domain.ErrNoteMultipleRelations, "customerId", "A note can belong to a customer or a job, not both"},
	{domain.ErrNoteCategoryInvalid, "category", "Invalid category"},
	{domain.ErrNoteStatusInvalid, "status", "Invalid status"},
	{domain.ErrUserContactRequired, "email", "Email or phone number claim is missing from token"},
}

// notFoundErrors maps lookup failures to their response detail
var notFoundErrors = []struct {
	err    error
	detail string
}{
	{domain.ErrJobNotFound, "Job not found"},
	{domain.ErrCustomerNotFound, "Customer not found"},
	{domain.ErrNoteNotFound, "Note not found"},
	{domain.ErrUserNotFound, "User not found"},
	{domain.ErrWorkspaceNotFound, "Workspace not found"},
	{service.ErrBackupNotFound, "Backup not found"},
}

// respondError maps a service error to a problem response.
// Unknown errors are logged and reported as internal with fallback as detail.
func respondError(c echo.Context, err error, fallback string) error {
	for _, fe := range fieldErrors {
		if errors.Is(err, fe.err) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: fe.field, Message: fe.message},
			})
		}
	}
	for _, nf := range notFoundErrors {
		if errors.Is(err, nf.err) {
			return NewNotFoundError(c, nf.detail)
		}
	}
	switch {
	case errors.Is(err, domain.ErrCustomerDuplicate):
		return NewConflictError(c, "A customer with this name or phone already exists")
	case errors.Is(err, domain.ErrAlreadyExists):
		return NewConflictError(c, "Resource already exists")
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, err.Error(), nil)
	}

	log.Error().Err(err).Str("path", c.Request().URL.Path).Msg(fallback)
	return NewInternalError(c, fallback)
}
