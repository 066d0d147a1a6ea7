package whatsapp

import (
	"time"

	"github.com/google/uuid"
)

// Template categories. The service triggers use the reminder categories;
// the promo classes count against the weekly promotional cap.
const (
	CategoryMOTReminder = "mot_reminder"
	CategoryOilChange   = "oil_change"
	CategoryInactive    = "inactive"
	CategoryPromotion   = "promotion"
	CategoryCampaign    = "campaign"
	CategoryHighValue   = "high_value"
	CategoryPassBy      = "pass_by"
)

// PromoCategories are the categories counted against the weekly
// promotional frequency cap.
var PromoCategories = []string{CategoryPromotion, CategoryCampaign, CategoryHighValue, CategoryPassBy}

// IsPromoCategory reports whether category counts as promotional.
func IsPromoCategory(category string) bool {
	for _, c := range PromoCategories {
		if c == category {
			return true
		}
	}
	return false
}

// TriggerType identifies which automation rule produced a message.
type TriggerType string

const (
	TriggerMOT30      TriggerType = "mot_reminder_30"
	TriggerMOT7       TriggerType = "mot_reminder_7"
	TriggerOilChange  TriggerType = "oil_change"
	TriggerInactive6  TriggerType = "inactive_6m"
	TriggerInactive12 TriggerType = "inactive_12m"
	TriggerPromotion  TriggerType = "weekly_promotion"
)

// Template is a reusable message body. Bodies may carry the placeholders
// {{FirstName}}, {{FullName}}, {{VehicleModel}} and {{LicensePlate}}.
type Template struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Body      string    `json:"body"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageStatus tracks a message through the send pipeline. Queued means
// sending is possible later but credentials were absent at send time.
type MessageStatus string

const (
	StatusPending MessageStatus = "pending"
	StatusQueued  MessageStatus = "queued"
	StatusSent    MessageStatus = "sent"
	StatusFailed  MessageStatus = "failed"
)

// Message is one outbound WhatsApp message with its delivery outcome.
type Message struct {
	ID           uuid.UUID     `json:"id"`
	CustomerID   uuid.UUID     `json:"customer_id"`
	Phone        string        `json:"phone"`
	TemplateID   *uuid.UUID    `json:"template_id,omitempty"`
	TemplateName string        `json:"template_name"`
	Category     string        `json:"category"`
	Trigger      TriggerType   `json:"trigger"`
	Body         string        `json:"body"`
	Urgent       bool          `json:"urgent"`
	Status       MessageStatus `json:"status"`
	Error        *string       `json:"error,omitempty"`
	ProviderID   *string       `json:"provider_id,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	SentAt       *time.Time    `json:"sent_at,omitempty"`
}

// Campaign statuses and types.
const (
	CampaignStatusDraft = "draft"
	CampaignStatusSent  = "sent"

	CampaignWeeklyPromotion = "weekly_promotion"
)

// Campaign records one promotional run with its outcome counters.
type Campaign struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Type       string     `json:"campaign_type"`
	TemplateID *uuid.UUID `json:"template_id,omitempty"`
	Status     string     `json:"status"`
	Recipients int        `json:"total_recipients"`
	Sent       int        `json:"total_sent"`
	Delivered  int        `json:"total_delivered"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Candidate is one customer/vehicle pair the trigger engine evaluates.
// Customers appear once per bike (once total when they have none), so every
// MOT expiry is looked at. LastRepairDate is the most recent repair job
// across all of the customer's bikes.
type Candidate struct {
	CustomerID      uuid.UUID
	FirstName       string
	LastName        string
	Phone           string
	OptOut          bool
	VehicleModel    string
	LicensePlate    string
	MOTExpiry       *time.Time
	LastServiceDate *time.Time
	LastRepairDate  *time.Time
}

// FullName joins first and last name.
func (c Candidate) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// CreateTemplateRequest adds a message template.
type CreateTemplateRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Category string `json:"category" validate:"required,max=50"`
	Body     string `json:"body" validate:"required,max=2000"`
	Active   bool   `json:"active"`
}

// UpdateTemplateRequest patches a template.
type UpdateTemplateRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Category *string `json:"category,omitempty" validate:"omitempty,max=50"`
	Body     *string `json:"body,omitempty" validate:"omitempty,max=2000"`
	Active   *bool   `json:"active,omitempty"`
}

// RunReport summarizes one automation run.
type RunReport struct {
	Evaluated int `json:"evaluated"`
	Sent      int `json:"sent"`
	Queued    int `json:"queued"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Stats aggregates message outcomes over a period.
type Stats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByCategory map[string]int `json:"by_category"`
}
