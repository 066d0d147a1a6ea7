package vehicles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("vehicles: invalid input")

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Get(ctx context.Context, id uuid.UUID) (Motorcycle, error)
	List(ctx context.Context, req ListMotorcyclesRequest) ([]Motorcycle, error)
	Create(ctx context.Context, m Motorcycle) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateMotorcycleRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListBrands(ctx context.Context) ([]Brand, error)
}

// Service coordinates motorcycle operations.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// NormalizePlate uppercases a registration and strips surrounding whitespace.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

func (s *Service) Create(ctx context.Context, req CreateMotorcycleRequest) (Motorcycle, error) {
	if err := s.validate.Struct(req); err != nil {
		return Motorcycle{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	id, err := s.repo.Create(ctx, Motorcycle{
		CustomerID:   req.CustomerID,
		Brand:        req.Brand,
		Model:        req.Model,
		Year:         req.Year,
		LicensePlate: NormalizePlate(req.LicensePlate),
		VIN:          req.VIN,
		Color:        req.Color,
		Mileage:      req.Mileage,
		MOTExpiry:    req.MOTExpiry,
		Notes:        req.Notes,
	})
	if err != nil {
		return Motorcycle{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Motorcycle, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListMotorcyclesRequest) ([]Motorcycle, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.repo.List(ctx, req)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateMotorcycleRequest) (Motorcycle, error) {
	if err := s.validate.Struct(req); err != nil {
		return Motorcycle{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if req.LicensePlate != nil {
		plate := NormalizePlate(*req.LicensePlate)
		req.LicensePlate = &plate
	}
	if err := s.repo.Update(ctx, id, req); err != nil {
		return Motorcycle{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Brands(ctx context.Context) ([]Brand, error) {
	return s.repo.ListBrands(ctx)
}
