package sales

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod enumerates accepted POS payment methods.
type PaymentMethod string

const (
	PayCash     PaymentMethod = "cash"
	PayCard     PaymentMethod = "card"
	PayTransfer PaymentMethod = "transfer"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PayCash, PayCard, PayTransfer:
		return true
	}
	return false
}

// Sale is a completed counter sale. Lines snapshot name and unit price at
// sale time; stock is decremented in the same transaction that records
// the sale.
type Sale struct {
	ID            uuid.UUID     `json:"id"`
	SaleNumber    string        `json:"sale_number"`
	CustomerID    *uuid.UUID    `json:"customer_id,omitempty"`
	Total         float64       `json:"total"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Notes         *string       `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// SaleLine is one item on a sale.
type SaleLine struct {
	ID          uuid.UUID `json:"id"`
	SaleID      uuid.UUID `json:"sale_id"`
	StockItemID uuid.UUID `json:"stock_item_id"`
	Name        string    `json:"name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
}

// SaleWithLines bundles a sale with its lines.
type SaleWithLines struct {
	Sale  Sale       `json:"sale"`
	Lines []SaleLine `json:"lines"`
}

// UnitStatus enumerates states of a motorcycle held for sale.
type UnitStatus string

const (
	UnitAvailable UnitStatus = "available"
	UnitReserved  UnitStatus = "reserved"
	UnitSold      UnitStatus = "sold"
)

// Valid reports whether s is a known unit status.
func (s UnitStatus) Valid() bool {
	switch s {
	case UnitAvailable, UnitReserved, UnitSold:
		return true
	}
	return false
}

// InventoryUnit is a motorcycle the workshop holds for sale.
type InventoryUnit struct {
	ID           uuid.UUID  `json:"id"`
	Brand        string     `json:"brand"`
	Model        string     `json:"model"`
	Year         *int       `json:"year,omitempty"`
	LicensePlate *string    `json:"license_plate,omitempty"`
	Mileage      *int       `json:"mileage,omitempty"`
	AskingPrice  float64    `json:"asking_price"`
	Status       UnitStatus `json:"status"`
	SoldTo       *uuid.UUID `json:"sold_to,omitempty"`
	SoldPrice    *float64   `json:"sold_price,omitempty"`
	SoldAt       *time.Time `json:"sold_at,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CreateSaleLineReq is one requested line on a new sale.
type CreateSaleLineReq struct {
	StockItemID uuid.UUID `json:"stock_item_id" validate:"required"`
	Quantity    int       `json:"quantity" validate:"required,gte=1"`
	UnitPrice   *float64  `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
}

// CreateSaleRequest records a counter sale.
type CreateSaleRequest struct {
	CustomerID    *uuid.UUID          `json:"customer_id,omitempty"`
	Lines         []CreateSaleLineReq `json:"lines" validate:"required,min=1,dive"`
	PaymentMethod PaymentMethod       `json:"payment_method" validate:"required"`
	Notes         *string             `json:"notes,omitempty"`
}

// CreateUnitRequest adds a motorcycle to the sales inventory.
type CreateUnitRequest struct {
	Brand        string  `json:"brand" validate:"required,max=100"`
	Model        string  `json:"model" validate:"required,max=100"`
	Year         *int    `json:"year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	LicensePlate *string `json:"license_plate,omitempty" validate:"omitempty,max=15"`
	Mileage      *int    `json:"mileage,omitempty" validate:"omitempty,gte=0"`
	AskingPrice  float64 `json:"asking_price" validate:"gte=0"`
	Notes        *string `json:"notes,omitempty"`
}

// UpdateUnitRequest patches a sales inventory unit.
type UpdateUnitRequest struct {
	Brand       *string     `json:"brand,omitempty" validate:"omitempty,max=100"`
	Model       *string     `json:"model,omitempty" validate:"omitempty,max=100"`
	Year        *int        `json:"year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	Mileage     *int        `json:"mileage,omitempty" validate:"omitempty,gte=0"`
	AskingPrice *float64    `json:"asking_price,omitempty" validate:"omitempty,gte=0"`
	Status      *UnitStatus `json:"status,omitempty"`
	Notes       *string     `json:"notes,omitempty"`
}

// SellUnitRequest marks a unit as sold.
type SellUnitRequest struct {
	CustomerID uuid.UUID `json:"customer_id" validate:"required"`
	SoldPrice  float64   `json:"sold_price" validate:"gte=0"`
}

// ListSalesRequest filters the sale list.
type ListSalesRequest struct {
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
	Limit  int        `json:"limit" validate:"gte=0,lte=1000"`
	Offset int        `json:"offset" validate:"gte=0"`
}
