package sales

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memoryStockItem struct {
	name      string
	sellPrice float64
	quantity  int
}

type memoryRepo struct {
	sales    map[uuid.UUID]Sale
	lines    map[uuid.UUID][]SaleLine
	units    map[uuid.UUID]InventoryUnit
	stock    map[uuid.UUID]*memoryStockItem
	nextSale int
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		sales: make(map[uuid.UUID]Sale),
		lines: make(map[uuid.UUID][]SaleLine),
		units: make(map[uuid.UUID]InventoryUnit),
		stock: make(map[uuid.UUID]*memoryStockItem),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GenerateSaleNumber(ctx context.Context) (string, error) {
	r.nextSale++
	return fmt.Sprintf("SALE-%04d", r.nextSale), nil
}

func (r *memoryRepo) GetSale(ctx context.Context, id uuid.UUID) (Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return Sale{}, ErrNotFound
	}
	return s, nil
}

func (r *memoryRepo) ListSales(ctx context.Context, req ListSalesRequest) ([]Sale, error) {
	var out []Sale
	for _, s := range r.sales {
		out = append(out, s)
	}
	return out, nil
}

func (r *memoryRepo) ListLines(ctx context.Context, saleID uuid.UUID) ([]SaleLine, error) {
	return r.lines[saleID], nil
}

func (r *memoryRepo) GetUnit(ctx context.Context, id uuid.UUID) (InventoryUnit, error) {
	u, ok := r.units[id]
	if !ok {
		return InventoryUnit{}, ErrNotFound
	}
	return u, nil
}

func (r *memoryRepo) ListUnits(ctx context.Context, status *UnitStatus) ([]InventoryUnit, error) {
	var out []InventoryUnit
	for _, u := range r.units {
		if status != nil && u.Status != *status {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *memoryRepo) CreateUnit(ctx context.Context, u InventoryUnit) (uuid.UUID, error) {
	u.ID = uuid.New()
	u.Status = UnitAvailable
	r.units[u.ID] = u
	return u.ID, nil
}

func (r *memoryRepo) UpdateUnit(ctx context.Context, id uuid.UUID, req UpdateUnitRequest) error {
	u, ok := r.units[id]
	if !ok {
		return ErrNotFound
	}
	if req.AskingPrice != nil {
		u.AskingPrice = *req.AskingPrice
	}
	if req.Status != nil {
		u.Status = *req.Status
	}
	r.units[id] = u
	return nil
}

func (tx *memoryTx) InsertSale(ctx context.Context, sale Sale) (uuid.UUID, error) {
	sale.ID = uuid.New()
	tx.repo.sales[sale.ID] = sale
	return sale.ID, nil
}

func (tx *memoryTx) InsertLine(ctx context.Context, line SaleLine) (uuid.UUID, error) {
	line.ID = uuid.New()
	tx.repo.lines[line.SaleID] = append(tx.repo.lines[line.SaleID], line)
	return line.ID, nil
}

func (tx *memoryTx) GetStockItemForUpdate(ctx context.Context, id uuid.UUID) (string, float64, int, error) {
	item, ok := tx.repo.stock[id]
	if !ok {
		return "", 0, 0, ErrStockItemNotFound
	}
	return item.name, item.sellPrice, item.quantity, nil
}

func (tx *memoryTx) DecrementStock(ctx context.Context, id uuid.UUID, qty int, reference string) error {
	tx.repo.stock[id].quantity -= qty
	return nil
}

func (tx *memoryTx) GetUnitForUpdate(ctx context.Context, id uuid.UUID) (InventoryUnit, error) {
	return tx.repo.GetUnit(ctx, id)
}

func (tx *memoryTx) MarkUnitSold(ctx context.Context, id uuid.UUID, customerID uuid.UUID, price float64, soldAt time.Time) error {
	u := tx.repo.units[id]
	u.Status = UnitSold
	u.SoldTo = &customerID
	u.SoldPrice = &price
	u.SoldAt = &soldAt
	tx.repo.units[id] = u
	return nil
}

func TestCreateSaleDecrementsStockAndTotals(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	helmetID := uuid.New()
	glovesID := uuid.New()
	repo.stock[helmetID] = &memoryStockItem{name: "Helmet", sellPrice: 80, quantity: 3}
	repo.stock[glovesID] = &memoryStockItem{name: "Gloves", sellPrice: 25, quantity: 10}

	sale, err := svc.CreateSale(ctx, CreateSaleRequest{
		Lines: []CreateSaleLineReq{
			{StockItemID: helmetID, Quantity: 1},
			{StockItemID: glovesID, Quantity: 2},
		},
		PaymentMethod: PayCard,
	})
	require.NoError(t, err)
	require.InDelta(t, 130, sale.Sale.Total, 1e-9)
	require.Len(t, sale.Lines, 2)
	require.Equal(t, "Helmet", sale.Lines[0].Name)
	require.Equal(t, 2, repo.stock[helmetID].quantity)
	require.Equal(t, 8, repo.stock[glovesID].quantity)
}

func TestCreateSaleHonoursPriceOverride(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	itemID := uuid.New()
	repo.stock[itemID] = &memoryStockItem{name: "Helmet", sellPrice: 80, quantity: 3}

	discount := 70.0
	sale, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		Lines:         []CreateSaleLineReq{{StockItemID: itemID, Quantity: 1, UnitPrice: &discount}},
		PaymentMethod: PayCash,
	})
	require.NoError(t, err)
	require.InDelta(t, 70, sale.Sale.Total, 1e-9)
}

func TestCreateSaleRejectsInsufficientStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	itemID := uuid.New()
	repo.stock[itemID] = &memoryStockItem{name: "Helmet", sellPrice: 80, quantity: 1}

	_, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		Lines:         []CreateSaleLineReq{{StockItemID: itemID, Quantity: 2}},
		PaymentMethod: PayCash,
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, 1, repo.stock[itemID].quantity)
	require.Empty(t, repo.sales)
}

func TestCreateSaleRejectsUnknownPaymentMethod(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		Lines:         []CreateSaleLineReq{{StockItemID: uuid.New(), Quantity: 1}},
		PaymentMethod: "crypto",
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSellUnit(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	unit, err := svc.CreateUnit(ctx, CreateUnitRequest{Brand: "Yamaha", Model: "MT-07", AskingPrice: 6500})
	require.NoError(t, err)
	require.Equal(t, UnitAvailable, unit.Status)

	buyer := uuid.New()
	sold, err := svc.SellUnit(ctx, unit.ID, SellUnitRequest{CustomerID: buyer, SoldPrice: 6200})
	require.NoError(t, err)
	require.Equal(t, UnitSold, sold.Status)
	require.Equal(t, buyer, *sold.SoldTo)
	require.InDelta(t, 6200, *sold.SoldPrice, 1e-9)

	_, err = svc.SellUnit(ctx, unit.ID, SellUnitRequest{CustomerID: uuid.New(), SoldPrice: 6000})
	require.ErrorIs(t, err, ErrUnitNotAvailable)
}
