package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("customers: invalid input")

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Get(ctx context.Context, id uuid.UUID) (Customer, error)
	List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error)
	Create(ctx context.Context, c Customer) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service coordinates customer operations.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

func (s *Service) Create(ctx context.Context, req CreateCustomerRequest) (Customer, error) {
	if err := s.validate.Struct(req); err != nil {
		return Customer{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	id, err := s.repo.Create(ctx, Customer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
		Notes:     req.Notes,
	})
	if err != nil {
		return Customer{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Customer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.repo.List(ctx, req)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (Customer, error) {
	if err := s.validate.Struct(req); err != nil {
		return Customer{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.repo.Update(ctx, id, req); err != nil {
		return Customer{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
