package settings

import "time"

// Setting is one configuration entry. Values are stored as text and parsed
// by the typed accessors; unparsable values fall back to defaults instead
// of failing requests.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Well-known setting keys.
const (
	KeyWorkshopName  = "workshop_name"
	KeyCurrency      = "currency"
	KeyVATRate       = "vat_rate"
	KeyMaxPromoWeek  = "wa_max_promo_per_week"
	KeyMaxMsgsMonth  = "wa_max_messages_per_month"
	KeyHighValue     = "wa_high_value_threshold"
	KeyWASendEnabled = "wa_sending_enabled"
)

// Defaults applied when a key is missing or unparsable.
const (
	DefaultCurrency     = "£"
	DefaultVATRate      = 20.0
	DefaultMaxPromoWeek = 1
	DefaultMaxMsgsMonth = 2
	DefaultHighValue    = 500.0
)

// UpsertRequest sets one or more settings.
type UpsertRequest struct {
	Settings map[string]string `json:"settings" validate:"required,min=1"`
}
