package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	items     map[uuid.UUID]Item
	movements []Movement
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[uuid.UUID]Item)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	item, ok := r.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return item, nil
}

func (r *memoryRepo) List(ctx context.Context, req ListItemsRequest) ([]Item, error) {
	var out []Item
	for _, i := range r.items {
		if req.LowOnly && !i.LowStock() {
			continue
		}
		out = append(out, i)
	}
	return out, nil
}

func (r *memoryRepo) Create(ctx context.Context, i Item) (uuid.UUID, error) {
	i.ID = uuid.New()
	r.items[i.ID] = i
	return i.ID, nil
}

func (r *memoryRepo) Update(ctx context.Context, id uuid.UUID, req UpdateItemRequest) error {
	item, ok := r.items[id]
	if !ok {
		return ErrNotFound
	}
	if req.MinQuantity != nil {
		item.MinQuantity = *req.MinQuantity
	}
	if req.SellPrice != nil {
		item.SellPrice = *req.SellPrice
	}
	r.items[id] = item
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memoryRepo) ListMovements(ctx context.Context, itemID uuid.UUID, limit int) ([]Movement, error) {
	var out []Movement
	for _, m := range r.movements {
		if m.StockItemID == itemID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (tx *memoryTx) GetItemForUpdate(ctx context.Context, id uuid.UUID) (Item, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *memoryTx) SetQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	item, ok := tx.repo.items[id]
	if !ok {
		return ErrNotFound
	}
	item.Quantity = quantity
	tx.repo.items[id] = item
	return nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, m Movement) (uuid.UUID, error) {
	m.ID = uuid.New()
	tx.repo.movements = append(tx.repo.movements, m)
	return m.ID, nil
}

func seedItem(t *testing.T, svc *Service, qty, minQty int) Item {
	t.Helper()
	item, err := svc.Create(context.Background(), CreateItemRequest{
		Name:        "Chain 520",
		Category:    "transmission",
		Quantity:    qty,
		MinQuantity: minQty,
		CostPrice:   18,
		SellPrice:   35,
	})
	require.NoError(t, err)
	return item
}

func TestMovementInAndOut(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	item := seedItem(t, svc, 5, 2)

	updated, err := svc.RecordMovement(ctx, item.ID, RecordMovementRequest{Type: MovementIn, Quantity: 3, Reference: "PO-17"})
	require.NoError(t, err)
	require.Equal(t, 8, updated.Quantity)

	updated, err = svc.RecordMovement(ctx, item.ID, RecordMovementRequest{Type: MovementOut, Quantity: 6})
	require.NoError(t, err)
	require.Equal(t, 2, updated.Quantity)

	require.Len(t, repo.movements, 2)
}

func TestMovementOutGuardsNegativeStock(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()
	item := seedItem(t, svc, 2, 0)

	_, err := svc.RecordMovement(ctx, item.ID, RecordMovementRequest{Type: MovementOut, Quantity: 3})
	require.ErrorIs(t, err, ErrInsufficientStock)

	got, err := svc.Get(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Quantity)
}

func TestAdjustmentSetsAbsoluteLevel(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()
	item := seedItem(t, svc, 9, 2)

	updated, err := svc.RecordMovement(ctx, item.ID, RecordMovementRequest{Type: MovementAdjustment, Quantity: 0, Notes: "stocktake"})
	require.NoError(t, err)
	require.Equal(t, 0, updated.Quantity)
}

func TestMovementRejectsUnknownType(t *testing.T) {
	svc := NewService(newMemoryRepo())
	item := seedItem(t, svc, 1, 0)

	_, err := svc.RecordMovement(context.Background(), item.ID, RecordMovementRequest{Type: "sideways", Quantity: 1})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestLowStockFlag(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()
	seedItem(t, svc, 1, 2)
	seedItem(t, svc, 9, 2)

	low, err := svc.List(ctx, ListItemsRequest{LowOnly: true})
	require.NoError(t, err)
	require.Len(t, low, 1)
	require.True(t, low[0].LowStock())
}
