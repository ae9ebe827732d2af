package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrCustomerNameRequired  = errors.New("customer name is required")
	ErrCustomerPhoneRequired = errors.New("customer phone is required")
	ErrCustomerPhoneInvalid  = errors.New("customer phone must have 10 or 11 digits")
	ErrCustomerDuplicate     = errors.New("a customer with this name or phone already exists")
)

type Customer struct {
	ID          string    `json:"id"`
	WorkspaceID int32     `json:"-"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Address     *string   `json:"address,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrCustomerNameRequired
	}
	if len(c.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(c.Phone) == "" {
		return ErrCustomerPhoneRequired
	}
	if !ValidatePhone(c.Phone) {
		return ErrCustomerPhoneInvalid
	}
	return nil
}

// PhoneDigits strips everything but digits from a phone number
func PhoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidatePhone accepts numbers with 10 or 11 digits, ignoring formatting
func ValidatePhone(phone string) bool {
	n := len(PhoneDigits(phone))
	return n >= 10 && n <= 11
}

// FormatPhone renders 11-digit numbers with a leading 0 as "0XXX XXX XX XX".
// Anything else is returned as given.
func FormatPhone(phone string) string {
	d := PhoneDigits(phone)
	if len(d) == 11 && d[0] == '0' {
		return d[0:4] + " " + d[4:7] + " " + d[7:9] + " " + d[9:11]
	}
	return phone
}

// NormalizeName is the identity form of a customer name
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsDuplicateCustomer reports whether another customer already has the same
// normalized name or phone digits. excludeID skips the customer being updated.
func IsDuplicateCustomer(customers []*Customer, name, phone, excludeID string) bool {
	normalizedName := NormalizeName(name)
	normalizedPhone := PhoneDigits(phone)

	for _, c := range customers {
		if excludeID != "" && c.ID == excludeID {
			continue
		}
		if NormalizeName(c.Name) == normalizedName {
			return true
		}
		if normalizedPhone != "" && PhoneDigits(c.Phone) == normalizedPhone {
			return true
		}
	}
	return false
}

// CustomerWithStats is a customer joined with aggregates over their jobs
type CustomerWithStats struct {
	Customer
	TotalJobs       int             `json:"totalJobs"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	PendingPayments int             `json:"pendingPayments"`
	LastJobDate     *time.Time      `json:"lastJobDate,omitempty"`
}

type CustomerRepository interface {
	Create(customer *Customer) (*Customer, error)
	GetByID(workspaceID int32, id string) (*Customer, error)
	GetAllByWorkspace(workspaceID int32) ([]*Customer, error)
	Update(customer *Customer) (*Customer, error)
	Upsert(customer *Customer) (*Customer, error)
	Delete(workspaceID int32, id string) error
}
