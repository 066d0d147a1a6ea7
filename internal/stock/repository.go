package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/platform/db"
)

var (
	ErrNotFound          = errors.New("stock: item not found")
	ErrInsufficientStock = errors.New("stock: insufficient quantity")
)

// Repository persists stock items and movements in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository is the transactional surface used while recording movements.
type TxRepository interface {
	GetItemForUpdate(ctx context.Context, id uuid.UUID) (Item, error)
	SetQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	InsertMovement(ctx context.Context, m Movement) (uuid.UUID, error)
}

type txRepo struct {
	tx pgx.Tx
}

func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const itemColumns = `id, name, part_number, category, quantity, min_quantity, cost_price, sell_price,
supplier, location, created_at, updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var i Item
	err := row.Scan(&i.ID, &i.Name, &i.PartNumber, &i.Category, &i.Quantity, &i.MinQuantity,
		&i.CostPrice, &i.SellPrice, &i.Supplier, &i.Location, &i.CreatedAt, &i.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return i, err
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	return scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM stock_items WHERE id=$1`, id))
}

func (r *Repository) List(ctx context.Context, req ListItemsRequest) ([]Item, error) {
	where := "WHERE ($1 = '' OR category = $1)"
	args := []any{req.Category}
	if req.Search != "" {
		where += ` AND (name ILIKE $2 OR part_number ILIKE $2)`
		args = append(args, "%"+req.Search+"%")
	}
	if req.LowOnly {
		where += ` AND quantity <= min_quantity`
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM stock_items %s ORDER BY name LIMIT $%d OFFSET $%d`,
		itemColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *Repository) Create(ctx context.Context, i Item) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `INSERT INTO stock_items
(id, name, part_number, category, quantity, min_quantity, cost_price, sell_price, supplier, location, created_at, updated_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
RETURNING id`,
		i.Name, i.PartNumber, i.Category, i.Quantity, i.MinQuantity, i.CostPrice, i.SellPrice, i.Supplier, i.Location).Scan(&id)
	return id, err
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, req UpdateItemRequest) error {
	tag, err := r.pool.Exec(ctx, `UPDATE stock_items SET
name         = COALESCE($2, name),
part_number  = COALESCE($3, part_number),
category     = COALESCE($4, category),
min_quantity = COALESCE($5, min_quantity),
cost_price   = COALESCE($6, cost_price),
sell_price   = COALESCE($7, sell_price),
supplier     = COALESCE($8, supplier),
location     = COALESCE($9, location),
updated_at   = NOW()
WHERE id=$1`,
		id, req.Name, req.PartNumber, req.Category, req.MinQuantity, req.CostPrice, req.SellPrice, req.Supplier, req.Location)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM stock_items WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ListMovements(ctx context.Context, itemID uuid.UUID, limit int) ([]Movement, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT id, stock_item_id, type, quantity, reference, notes, created_at
FROM stock_movements WHERE stock_item_id=$1 ORDER BY created_at DESC LIMIT $2`, itemID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.StockItemID, &m.Type, &m.Quantity, &m.Reference, &m.Notes, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (t *txRepo) GetItemForUpdate(ctx context.Context, id uuid.UUID) (Item, error) {
	return scanItem(t.tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM stock_items WHERE id=$1 FOR UPDATE`, id))
}

func (t *txRepo) SetQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	_, err := t.tx.Exec(ctx, `UPDATE stock_items SET quantity=$2, updated_at=NOW() WHERE id=$1`, id, quantity)
	return err
}

func (t *txRepo) InsertMovement(ctx context.Context, m Movement) (uuid.UUID, error) {
	var id uuid.UUID
	err := t.tx.QueryRow(ctx, `INSERT INTO stock_movements (id, stock_item_id, type, quantity, reference, notes, created_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, NOW()) RETURNING id`,
		m.StockItemID, m.Type, m.Quantity, m.Reference, m.Notes).Scan(&id)
	return id, err
}
