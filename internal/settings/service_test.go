package settings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	values map[string]string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{values: make(map[string]string)}
}

func (r *memoryRepo) Get(ctx context.Context, key string) (Setting, error) {
	v, ok := r.values[key]
	if !ok {
		return Setting{}, ErrNotFound
	}
	return Setting{Key: key, Value: v, UpdatedAt: time.Now()}, nil
}

func (r *memoryRepo) All(ctx context.Context) ([]Setting, error) {
	var out []Setting
	for k, v := range r.values {
		out = append(out, Setting{Key: k, Value: v})
	}
	return out, nil
}

func (r *memoryRepo) Upsert(ctx context.Context, key, value string) error {
	r.values[key] = value
	return nil
}

func TestTypedAccessorsFallBack(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	require.InDelta(t, DefaultVATRate, svc.VATRate(ctx), 1e-9)
	require.Equal(t, DefaultCurrency, svc.Currency(ctx))
	require.Equal(t, DefaultMaxPromoWeek, svc.MaxPromoPerWeek(ctx))
	require.Equal(t, DefaultMaxMsgsMonth, svc.MaxMessagesPerMonth(ctx))
	require.InDelta(t, DefaultHighValue, svc.HighValueThreshold(ctx), 1e-9)
	require.True(t, svc.SendingEnabled(ctx))
}

func TestTypedAccessorsReadStoredValues(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Upsert(ctx, UpsertRequest{Settings: map[string]string{
		KeyVATRate:       "23",
		KeyCurrency:      "€",
		KeyHighValue:     "750",
		KeyWASendEnabled: "false",
	}}))

	require.InDelta(t, 23, svc.VATRate(ctx), 1e-9)
	require.Equal(t, "€", svc.Currency(ctx))
	require.InDelta(t, 750, svc.HighValueThreshold(ctx), 1e-9)
	require.False(t, svc.SendingEnabled(ctx))
}

func TestStoredKeyNames(t *testing.T) {
	// Key names are part of the stored contract; clients read them back
	// verbatim from GET /settings.
	require.Equal(t, "currency", KeyCurrency)
	require.Equal(t, "vat_rate", KeyVATRate)
	require.Equal(t, "wa_high_value_threshold", KeyHighValue)
}

func TestMalformedValueFallsBack(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	repo.values[KeyVATRate] = "twenty"
	require.InDelta(t, DefaultVATRate, svc.VATRate(ctx), 1e-9)

	repo.values[KeyVATRate] = "250"
	require.InDelta(t, DefaultVATRate, svc.VATRate(ctx), 1e-9)
}

func TestUpsertRejectsBadVATRate(t *testing.T) {
	svc := NewService(newMemoryRepo())

	err := svc.Upsert(context.Background(), UpsertRequest{Settings: map[string]string{KeyVATRate: "abc"}})
	require.ErrorIs(t, err, ErrInvalidInput)

	err = svc.Upsert(context.Background(), UpsertRequest{Settings: map[string]string{KeyVATRate: "120"}})
	require.ErrorIs(t, err, ErrInvalidInput)
}
