package stock

import (
	"time"

	"github.com/google/uuid"
)

// Item is a stocked part or accessory. Quantity only changes through
// movements so the movement log stays a complete history.
type Item struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	PartNumber  *string   `json:"part_number,omitempty"`
	Category    string    `json:"category"`
	Quantity    int       `json:"quantity"`
	MinQuantity int       `json:"min_quantity"`
	CostPrice   float64   `json:"cost_price"`
	SellPrice   float64   `json:"sell_price"`
	Supplier    *string   `json:"supplier,omitempty"`
	Location    *string   `json:"location,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LowStock reports whether the item is at or below its minimum level.
func (i Item) LowStock() bool {
	return i.Quantity <= i.MinQuantity
}

// MovementType enumerates stock movement directions.
type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment:
		return true
	}
	return false
}

// Movement is one stock change. Quantity is always positive; the type
// carries the direction. Adjustments set the absolute level instead.
type Movement struct {
	ID          uuid.UUID    `json:"id"`
	StockItemID uuid.UUID    `json:"stock_item_id"`
	Type        MovementType `json:"type"`
	Quantity    int          `json:"quantity"`
	Reference   string       `json:"reference,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// CreateItemRequest adds a stock item.
type CreateItemRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	PartNumber  *string `json:"part_number,omitempty" validate:"omitempty,max=100"`
	Category    string  `json:"category" validate:"required,max=100"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
	MinQuantity int     `json:"min_quantity" validate:"gte=0"`
	CostPrice   float64 `json:"cost_price" validate:"gte=0"`
	SellPrice   float64 `json:"sell_price" validate:"gte=0"`
	Supplier    *string `json:"supplier,omitempty" validate:"omitempty,max=200"`
	Location    *string `json:"location,omitempty" validate:"omitempty,max=100"`
}

// UpdateItemRequest patches item fields. Quantity is not patchable here;
// use a movement.
type UpdateItemRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	PartNumber  *string  `json:"part_number,omitempty" validate:"omitempty,max=100"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	MinQuantity *int     `json:"min_quantity,omitempty" validate:"omitempty,gte=0"`
	CostPrice   *float64 `json:"cost_price,omitempty" validate:"omitempty,gte=0"`
	SellPrice   *float64 `json:"sell_price,omitempty" validate:"omitempty,gte=0"`
	Supplier    *string  `json:"supplier,omitempty" validate:"omitempty,max=200"`
	Location    *string  `json:"location,omitempty" validate:"omitempty,max=100"`
}

// RecordMovementRequest records a stock change. In and out movements need a
// positive quantity; an adjustment carries the new absolute level and may
// be zero.
type RecordMovementRequest struct {
	Type      MovementType `json:"type" validate:"required"`
	Quantity  int          `json:"quantity" validate:"gte=0"`
	Reference string       `json:"reference" validate:"max=200"`
	Notes     string       `json:"notes" validate:"max=500"`
}

// ListItemsRequest filters the item list.
type ListItemsRequest struct {
	Category string `json:"category" validate:"max=100"`
	Search   string `json:"search" validate:"max=100"`
	LowOnly  bool   `json:"low_only"`
	Limit    int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int    `json:"offset" validate:"gte=0"`
}
