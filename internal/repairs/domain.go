package repairs

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus enumerates repair job lifecycle states. Transitions are free;
// the workshop moves jobs back and forth as work actually progresses.
type JobStatus string

const (
	StatusReceived     JobStatus = "received"
	StatusDiagnosing   JobStatus = "diagnosing"
	StatusWaitingParts JobStatus = "waiting_parts"
	StatusInRepair     JobStatus = "in_repair"
	StatusReady        JobStatus = "ready"
	StatusDelivered    JobStatus = "delivered"
	StatusCancelled    JobStatus = "cancelled"
)

// Valid reports whether s is a known job status.
func (s JobStatus) Valid() bool {
	switch s {
	case StatusReceived, StatusDiagnosing, StatusWaitingParts, StatusInRepair, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// PaymentStatus enumerates payment states of a job.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// Job models a repair job from intake to delivery.
type Job struct {
	ID            uuid.UUID     `json:"id"`
	JobNumber     string        `json:"job_number"`
	CustomerID    uuid.UUID     `json:"customer_id"`
	MotorcycleID  uuid.UUID     `json:"motorcycle_id"`
	Description   string        `json:"description"`
	Diagnosis     *string       `json:"diagnosis,omitempty"`
	Status        JobStatus     `json:"status"`
	EstimatedCost *float64      `json:"estimated_cost,omitempty"`
	FinalCost     *float64      `json:"final_cost,omitempty"`
	LaborCost     *float64      `json:"labor_cost,omitempty"`
	InvoiceNumber *string       `json:"invoice_number,omitempty"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentDate   *time.Time    `json:"payment_date,omitempty"`
	Notes         *string       `json:"notes,omitempty"`
	ReceivedAt    time.Time     `json:"received_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	DeliveredAt   *time.Time    `json:"delivered_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Part is a line item consumed by a job. StockItemID is nil for ad-hoc parts
// that were never stocked; Name holds the description snapshot either way.
// UnitPrice is snapshotted when the part is added and does not follow later
// stock price changes.
type Part struct {
	ID           uuid.UUID  `json:"id"`
	RepairJobID  uuid.UUID  `json:"repair_job_id"`
	StockItemID  *uuid.UUID `json:"stock_item_id,omitempty"`
	Name         string     `json:"name"`
	Quantity     int        `json:"quantity"`
	UnitPrice    float64    `json:"unit_price"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Service is a labour/work line item on a job.
type Service struct {
	ID          uuid.UUID `json:"id"`
	RepairJobID uuid.UUID `json:"repair_job_id"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

// JobWithLines bundles a job with its line items.
type JobWithLines struct {
	Job      Job       `json:"job"`
	Parts    []Part    `json:"parts"`
	Services []Service `json:"services"`
}

// ============================================================================
// REQUESTS
// ============================================================================

// CreateJobServiceReq is one planned service on a new job.
type CreateJobServiceReq struct {
	Description string `json:"description" validate:"required,max=200"`
}

// CreateJobRequest creates a repair job. The estimated cost, when given, is
// carried by the first service line; additional services start at zero.
type CreateJobRequest struct {
	CustomerID    uuid.UUID             `json:"customer_id" validate:"required"`
	MotorcycleID  uuid.UUID             `json:"motorcycle_id" validate:"required"`
	Services      []CreateJobServiceReq `json:"services" validate:"required,min=1,dive"`
	EstimatedCost *float64              `json:"estimated_cost,omitempty" validate:"omitempty,gte=0"`
	Notes         *string               `json:"notes,omitempty"`
}

// UpdateJobRequest patches editable job fields.
type UpdateJobRequest struct {
	Description   *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	Diagnosis     *string  `json:"diagnosis,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
	EstimatedCost *float64 `json:"estimated_cost,omitempty" validate:"omitempty,gte=0"`
	InvoiceNumber *string  `json:"invoice_number,omitempty" validate:"omitempty,max=50"`
}

// UpdateStatusRequest moves a job to a new status.
type UpdateStatusRequest struct {
	Status JobStatus `json:"status" validate:"required"`
}

// SetFinalCostRequest sets the manual total override.
type SetFinalCostRequest struct {
	FinalCost float64 `json:"final_cost" validate:"gte=0"`
}

// AddPartRequest attaches a part to a job. Either StockItemID (stocked part,
// price defaults to the current sell price) or Name (ad-hoc part, price
// required) must be present.
type AddPartRequest struct {
	StockItemID *uuid.UUID `json:"stock_item_id,omitempty"`
	Name        string     `json:"name,omitempty" validate:"omitempty,max=200"`
	Quantity    int        `json:"quantity" validate:"required,gte=1"`
	UnitPrice   *float64   `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
}

// AddServiceRequest attaches a service line to a job.
type AddServiceRequest struct {
	Description string  `json:"description" validate:"required,max=200"`
	Price       float64 `json:"price" validate:"gte=0"`
}

// MarkPaidRequest settles a job. LaborCost is the labour figure as edited in
// the invoice view; IncludeVAT mirrors the invoice VAT toggle so the stored
// final cost matches what was shown.
type MarkPaidRequest struct {
	LaborCost  float64 `json:"labor_cost" validate:"gte=0"`
	IncludeVAT bool    `json:"include_vat"`
}

// ListJobsRequest filters the job list.
type ListJobsRequest struct {
	Status     *JobStatus     `json:"status,omitempty"`
	Payment    *PaymentStatus `json:"payment_status,omitempty"`
	CustomerID *uuid.UUID     `json:"customer_id,omitempty"`
	Limit      int            `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int            `json:"offset" validate:"gte=0"`
}
