package customers

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Customer is a workshop customer. Phone is the WhatsApp-capable number and
// is unique across customers.
type Customer struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Phone          string    `json:"phone"`
	Email          *string   `json:"email,omitempty"`
	Address        *string   `json:"address,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	WhatsAppOptOut bool      `json:"whatsapp_opt_out"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FullName joins first and last name.
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// CreateCustomerRequest creates a customer.
type CreateCustomerRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"max=100"`
	Phone     string  `json:"phone" validate:"required,max=20"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Address   *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Notes     *string `json:"notes,omitempty"`
}

// UpdateCustomerRequest patches customer fields.
type UpdateCustomerRequest struct {
	FirstName      *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName       *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email"`
	Address        *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Notes          *string `json:"notes,omitempty"`
	WhatsAppOptOut *bool   `json:"whatsapp_opt_out,omitempty"`
}

// ListCustomersRequest filters the customer list. Search matches name, phone
// and email.
type ListCustomersRequest struct {
	Search string `json:"search" validate:"max=100"`
	Limit  int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset int    `json:"offset" validate:"gte=0"`
}
