package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("stock: invalid input")

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id uuid.UUID) (Item, error)
	List(ctx context.Context, req ListItemsRequest) ([]Item, error)
	Create(ctx context.Context, i Item) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateItemRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListMovements(ctx context.Context, itemID uuid.UUID, limit int) ([]Movement, error)
}

// Service coordinates stock operations.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

func (s *Service) Create(ctx context.Context, req CreateItemRequest) (Item, error) {
	if err := s.validate.Struct(req); err != nil {
		return Item{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	id, err := s.repo.Create(ctx, Item{
		Name:        req.Name,
		PartNumber:  req.PartNumber,
		Category:    req.Category,
		Quantity:    req.Quantity,
		MinQuantity: req.MinQuantity,
		CostPrice:   req.CostPrice,
		SellPrice:   req.SellPrice,
		Supplier:    req.Supplier,
		Location:    req.Location,
	})
	if err != nil {
		return Item{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListItemsRequest) ([]Item, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.repo.List(ctx, req)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateItemRequest) (Item, error) {
	if err := s.validate.Struct(req); err != nil {
		return Item{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.repo.Update(ctx, id, req); err != nil {
		return Item{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// RecordMovement applies a stock change and logs it in one transaction.
// Out movements must not push quantity below zero.
func (s *Service) RecordMovement(ctx context.Context, itemID uuid.UUID, req RecordMovementRequest) (Item, error) {
	if err := s.validate.Struct(req); err != nil {
		return Item{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !req.Type.Valid() {
		return Item{}, fmt.Errorf("%w: unknown movement type %q", ErrInvalidInput, req.Type)
	}
	if req.Type != MovementAdjustment && req.Quantity < 1 {
		return Item{}, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}

	var updated Item
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		next := item.Quantity
		switch req.Type {
		case MovementIn:
			next += req.Quantity
		case MovementOut:
			next -= req.Quantity
			if next < 0 {
				return fmt.Errorf("%w: have %d, tried to remove %d", ErrInsufficientStock, item.Quantity, req.Quantity)
			}
		case MovementAdjustment:
			next = req.Quantity
		}

		if _, err := tx.InsertMovement(ctx, Movement{
			StockItemID: itemID,
			Type:        req.Type,
			Quantity:    req.Quantity,
			Reference:   req.Reference,
			Notes:       req.Notes,
		}); err != nil {
			return err
		}
		if err := tx.SetQuantity(ctx, itemID, next); err != nil {
			return err
		}
		item.Quantity = next
		updated = item
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	return updated, nil
}

// Movements returns the movement history of an item, newest first.
func (s *Service) Movements(ctx context.Context, itemID uuid.UUID, limit int) ([]Movement, error) {
	if _, err := s.repo.Get(ctx, itemID); err != nil {
		return nil, err
	}
	return s.repo.ListMovements(ctx, itemID, limit)
}
