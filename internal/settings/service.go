package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidInput = errors.New("settings: invalid input")

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Get(ctx context.Context, key string) (Setting, error)
	All(ctx context.Context) ([]Setting, error)
	Upsert(ctx context.Context, key, value string) error
}

// Service reads and writes workshop settings. The typed accessors never
// fail on missing or malformed values; invoices must keep working even
// when settings rows are absent.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

func (s *Service) All(ctx context.Context) ([]Setting, error) {
	return s.repo.All(ctx)
}

func (s *Service) Upsert(ctx context.Context, req UpsertRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if v, ok := req.Settings[KeyVATRate]; ok {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil || rate < 0 || rate > 100 {
			return fmt.Errorf("%w: vat_rate must be a percentage between 0 and 100", ErrInvalidInput)
		}
	}
	for key, value := range req.Settings {
		if err := s.repo.Upsert(ctx, key, value); err != nil {
			return fmt.Errorf("upsert %s: %w", key, err)
		}
	}
	return nil
}

func (s *Service) stringOr(ctx context.Context, key, fallback string) string {
	setting, err := s.repo.Get(ctx, key)
	if err != nil || setting.Value == "" {
		return fallback
	}
	return setting.Value
}

func (s *Service) floatOr(ctx context.Context, key string, fallback float64) float64 {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		return fallback
	}
	v, err := strconv.ParseFloat(setting.Value, 64)
	if err != nil {
		return fallback
	}
	return v
}

func (s *Service) intOr(ctx context.Context, key string, fallback int) int {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		return fallback
	}
	v, err := strconv.Atoi(setting.Value)
	if err != nil {
		return fallback
	}
	return v
}

// VATRate returns the configured VAT percentage.
func (s *Service) VATRate(ctx context.Context) float64 {
	rate := s.floatOr(ctx, KeyVATRate, DefaultVATRate)
	if rate < 0 || rate > 100 {
		return DefaultVATRate
	}
	return rate
}

// Currency returns the configured currency symbol.
func (s *Service) Currency(ctx context.Context) string {
	return s.stringOr(ctx, KeyCurrency, DefaultCurrency)
}

// MaxPromoPerWeek caps promotional sends per customer per rolling week.
func (s *Service) MaxPromoPerWeek(ctx context.Context) int {
	return s.intOr(ctx, KeyMaxPromoWeek, DefaultMaxPromoWeek)
}

// MaxMessagesPerMonth caps all sends per customer per rolling month.
func (s *Service) MaxMessagesPerMonth(ctx context.Context) int {
	return s.intOr(ctx, KeyMaxMsgsMonth, DefaultMaxMsgsMonth)
}

// HighValueThreshold is the lifetime spend above which a customer counts as
// high value for targeted promotions.
func (s *Service) HighValueThreshold(ctx context.Context) float64 {
	return s.floatOr(ctx, KeyHighValue, DefaultHighValue)
}

// SendingEnabled reports whether WhatsApp sending is switched on.
func (s *Service) SendingEnabled(ctx context.Context) bool {
	return s.stringOr(ctx, KeyWASendEnabled, "true") == "true"
}
