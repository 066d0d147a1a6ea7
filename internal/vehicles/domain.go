package vehicles

import (
	"time"

	"github.com/google/uuid"
)

// Motorcycle is a customer-owned bike serviced by the workshop. The
// registration plate is stored uppercase without surrounding whitespace.
type Motorcycle struct {
	ID              uuid.UUID  `json:"id"`
	CustomerID      uuid.UUID  `json:"customer_id"`
	Brand           string     `json:"brand"`
	Model           string     `json:"model"`
	Year            *int       `json:"year,omitempty"`
	LicensePlate    string     `json:"license_plate"`
	VIN             *string    `json:"vin,omitempty"`
	Color           *string    `json:"color,omitempty"`
	Mileage         *int       `json:"mileage,omitempty"`
	MOTExpiry       *time.Time `json:"mot_expiry,omitempty"`
	LastServiceDate *time.Time `json:"last_service_date,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Brand is a catalog entry used to pre-fill bike forms.
type Brand struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Models []string  `json:"models"`
}

// CreateMotorcycleRequest registers a motorcycle.
type CreateMotorcycleRequest struct {
	CustomerID   uuid.UUID  `json:"customer_id" validate:"required"`
	Brand        string     `json:"brand" validate:"required,max=100"`
	Model        string     `json:"model" validate:"required,max=100"`
	Year         *int       `json:"year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	LicensePlate string     `json:"license_plate" validate:"required,max=15"`
	VIN          *string    `json:"vin,omitempty" validate:"omitempty,max=30"`
	Color        *string    `json:"color,omitempty" validate:"omitempty,max=50"`
	Mileage      *int       `json:"mileage,omitempty" validate:"omitempty,gte=0"`
	MOTExpiry    *time.Time `json:"mot_expiry,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
}

// UpdateMotorcycleRequest patches motorcycle fields.
type UpdateMotorcycleRequest struct {
	Brand           *string    `json:"brand,omitempty" validate:"omitempty,max=100"`
	Model           *string    `json:"model,omitempty" validate:"omitempty,max=100"`
	Year            *int       `json:"year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	LicensePlate    *string    `json:"license_plate,omitempty" validate:"omitempty,max=15"`
	VIN             *string    `json:"vin,omitempty" validate:"omitempty,max=30"`
	Color           *string    `json:"color,omitempty" validate:"omitempty,max=50"`
	Mileage         *int       `json:"mileage,omitempty" validate:"omitempty,gte=0"`
	MOTExpiry       *time.Time `json:"mot_expiry,omitempty"`
	LastServiceDate *time.Time `json:"last_service_date,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
}

// ListMotorcyclesRequest filters the bike list. Search matches plate, brand
// and model.
type ListMotorcyclesRequest struct {
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	Search     string     `json:"search" validate:"max=100"`
	Limit      int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int        `json:"offset" validate:"gte=0"`
}
