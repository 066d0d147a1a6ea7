package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("sales: invalid input")

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GenerateSaleNumber(ctx context.Context) (string, error)
	GetSale(ctx context.Context, id uuid.UUID) (Sale, error)
	ListSales(ctx context.Context, req ListSalesRequest) ([]Sale, error)
	ListLines(ctx context.Context, saleID uuid.UUID) ([]SaleLine, error)
	GetUnit(ctx context.Context, id uuid.UUID) (InventoryUnit, error)
	ListUnits(ctx context.Context, status *UnitStatus) ([]InventoryUnit, error)
	CreateUnit(ctx context.Context, u InventoryUnit) (uuid.UUID, error)
	UpdateUnit(ctx context.Context, id uuid.UUID, req UpdateUnitRequest) error
}

// Service coordinates counter sales and the motorcycle sales inventory.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New(), now: time.Now}
}

// CreateSale records a counter sale. Each line locks its stock item, checks
// availability, snapshots name and price, and decrements stock. The whole
// sale commits or rolls back as one unit.
func (s *Service) CreateSale(ctx context.Context, req CreateSaleRequest) (SaleWithLines, error) {
	if err := s.validate.Struct(req); err != nil {
		return SaleWithLines{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !req.PaymentMethod.Valid() {
		return SaleWithLines{}, fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, req.PaymentMethod)
	}

	number, err := s.repo.GenerateSaleNumber(ctx)
	if err != nil {
		return SaleWithLines{}, fmt.Errorf("generate sale number: %w", err)
	}

	var result SaleWithLines
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		lines := make([]SaleLine, 0, len(req.Lines))
		var total float64
		for _, lr := range req.Lines {
			name, sellPrice, available, err := tx.GetStockItemForUpdate(ctx, lr.StockItemID)
			if err != nil {
				return err
			}
			if available < lr.Quantity {
				return fmt.Errorf("%w: %s has %d, sale needs %d", ErrInsufficientStock, name, available, lr.Quantity)
			}
			price := sellPrice
			if lr.UnitPrice != nil {
				price = *lr.UnitPrice
			}
			lines = append(lines, SaleLine{StockItemID: lr.StockItemID, Name: name, Quantity: lr.Quantity, UnitPrice: price})
			total += float64(lr.Quantity) * price
		}

		sale := Sale{SaleNumber: number, CustomerID: req.CustomerID, Total: total, PaymentMethod: req.PaymentMethod, Notes: req.Notes}
		saleID, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}
		sale.ID = saleID

		for i := range lines {
			lines[i].SaleID = saleID
			lineID, err := tx.InsertLine(ctx, lines[i])
			if err != nil {
				return err
			}
			lines[i].ID = lineID
			if err := tx.DecrementStock(ctx, lines[i].StockItemID, lines[i].Quantity, number); err != nil {
				return err
			}
		}
		result = SaleWithLines{Sale: sale, Lines: lines}
		return nil
	})
	if err != nil {
		return SaleWithLines{}, err
	}
	return result, nil
}

func (s *Service) GetSale(ctx context.Context, id uuid.UUID) (SaleWithLines, error) {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return SaleWithLines{}, err
	}
	lines, err := s.repo.ListLines(ctx, id)
	if err != nil {
		return SaleWithLines{}, err
	}
	return SaleWithLines{Sale: sale, Lines: lines}, nil
}

func (s *Service) ListSales(ctx context.Context, req ListSalesRequest) ([]Sale, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.repo.ListSales(ctx, req)
}

func (s *Service) CreateUnit(ctx context.Context, req CreateUnitRequest) (InventoryUnit, error) {
	if err := s.validate.Struct(req); err != nil {
		return InventoryUnit{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	id, err := s.repo.CreateUnit(ctx, InventoryUnit{
		Brand:        req.Brand,
		Model:        req.Model,
		Year:         req.Year,
		LicensePlate: req.LicensePlate,
		Mileage:      req.Mileage,
		AskingPrice:  req.AskingPrice,
		Notes:        req.Notes,
	})
	if err != nil {
		return InventoryUnit{}, err
	}
	return s.repo.GetUnit(ctx, id)
}

func (s *Service) GetUnit(ctx context.Context, id uuid.UUID) (InventoryUnit, error) {
	return s.repo.GetUnit(ctx, id)
}

func (s *Service) ListUnits(ctx context.Context, status *UnitStatus) ([]InventoryUnit, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown unit status %q", ErrInvalidInput, *status)
	}
	return s.repo.ListUnits(ctx, status)
}

func (s *Service) UpdateUnit(ctx context.Context, id uuid.UUID, req UpdateUnitRequest) (InventoryUnit, error) {
	if err := s.validate.Struct(req); err != nil {
		return InventoryUnit{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if req.Status != nil && !req.Status.Valid() {
		return InventoryUnit{}, fmt.Errorf("%w: unknown unit status %q", ErrInvalidInput, *req.Status)
	}
	if err := s.repo.UpdateUnit(ctx, id, req); err != nil {
		return InventoryUnit{}, err
	}
	return s.repo.GetUnit(ctx, id)
}

// SellUnit marks a unit sold to a customer. Only available or reserved
// units can be sold, checked under a row lock.
func (s *Service) SellUnit(ctx context.Context, id uuid.UUID, req SellUnitRequest) (InventoryUnit, error) {
	if err := s.validate.Struct(req); err != nil {
		return InventoryUnit{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		unit, err := tx.GetUnitForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if unit.Status == UnitSold {
			return ErrUnitNotAvailable
		}
		return tx.MarkUnitSold(ctx, id, req.CustomerID, req.SoldPrice, s.now().UTC())
	})
	if err != nil {
		return InventoryUnit{}, err
	}
	return s.repo.GetUnit(ctx, id)
}
