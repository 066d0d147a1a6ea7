package vehicles

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	bikes   map[uuid.UUID]Motorcycle
	byPlate map[string]uuid.UUID
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{bikes: make(map[uuid.UUID]Motorcycle), byPlate: make(map[string]uuid.UUID)}
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (Motorcycle, error) {
	m, ok := r.bikes[id]
	if !ok {
		return Motorcycle{}, ErrNotFound
	}
	return m, nil
}

func (r *memoryRepo) List(ctx context.Context, req ListMotorcyclesRequest) ([]Motorcycle, error) {
	var out []Motorcycle
	for _, m := range r.bikes {
		if req.CustomerID != nil && m.CustomerID != *req.CustomerID {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *memoryRepo) Create(ctx context.Context, m Motorcycle) (uuid.UUID, error) {
	if _, taken := r.byPlate[m.LicensePlate]; taken {
		return uuid.Nil, ErrPlateTaken
	}
	m.ID = uuid.New()
	r.bikes[m.ID] = m
	r.byPlate[m.LicensePlate] = m.ID
	return m.ID, nil
}

func (r *memoryRepo) Update(ctx context.Context, id uuid.UUID, req UpdateMotorcycleRequest) error {
	m, ok := r.bikes[id]
	if !ok {
		return ErrNotFound
	}
	if req.LicensePlate != nil {
		if owner, taken := r.byPlate[*req.LicensePlate]; taken && owner != id {
			return ErrPlateTaken
		}
		delete(r.byPlate, m.LicensePlate)
		m.LicensePlate = *req.LicensePlate
		r.byPlate[m.LicensePlate] = id
	}
	if req.Mileage != nil {
		m.Mileage = req.Mileage
	}
	r.bikes[id] = m
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m, ok := r.bikes[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byPlate, m.LicensePlate)
	delete(r.bikes, id)
	return nil
}

func (r *memoryRepo) ListBrands(ctx context.Context) ([]Brand, error) {
	return []Brand{{Name: "Honda", Models: []string{"CB500F", "PCX125"}}}, nil
}

func TestCreateNormalizesPlate(t *testing.T) {
	svc := NewService(newMemoryRepo())

	m, err := svc.Create(context.Background(), CreateMotorcycleRequest{
		CustomerID:   uuid.New(),
		Brand:        "Honda",
		Model:        "CB500F",
		LicensePlate: "  ab12 cde ",
	})
	require.NoError(t, err)
	require.Equal(t, "AB12 CDE", m.LicensePlate)
}

func TestCreateRejectsDuplicatePlate(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateMotorcycleRequest{CustomerID: uuid.New(), Brand: "Honda", Model: "PCX125", LicensePlate: "AB12 CDE"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateMotorcycleRequest{CustomerID: uuid.New(), Brand: "Yamaha", Model: "MT-07", LicensePlate: "ab12 cde"})
	require.ErrorIs(t, err, ErrPlateTaken)
}

func TestUpdatePlateIsNormalized(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	m, err := svc.Create(ctx, CreateMotorcycleRequest{CustomerID: uuid.New(), Brand: "Honda", Model: "PCX125", LicensePlate: "AB12 CDE"})
	require.NoError(t, err)

	plate := "xy99 zzz"
	updated, err := svc.Update(ctx, m.ID, UpdateMotorcycleRequest{LicensePlate: &plate})
	require.NoError(t, err)
	require.Equal(t, "XY99 ZZZ", updated.LicensePlate)
}

func TestCreateValidatesYear(t *testing.T) {
	svc := NewService(newMemoryRepo())

	year := 1850
	_, err := svc.Create(context.Background(), CreateMotorcycleRequest{
		CustomerID:   uuid.New(),
		Brand:        "Honda",
		Model:        "CB500F",
		LicensePlate: "AB12 CDE",
		Year:         &year,
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}
