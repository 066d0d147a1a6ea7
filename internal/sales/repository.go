package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/platform/db"
)

var (
	ErrNotFound          = errors.New("sales: not found")
	ErrStockItemNotFound = errors.New("sales: stock item not found")
	ErrInsufficientStock = errors.New("sales: insufficient stock")
	ErrUnitNotAvailable  = errors.New("sales: unit not available")
)

// Repository persists sales and the motorcycle sales inventory in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository is the transactional surface used while completing a sale.
type TxRepository interface {
	InsertSale(ctx context.Context, sale Sale) (uuid.UUID, error)
	InsertLine(ctx context.Context, line SaleLine) (uuid.UUID, error)
	GetStockItemForUpdate(ctx context.Context, id uuid.UUID) (name string, sellPrice float64, quantity int, err error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int, reference string) error
	GetUnitForUpdate(ctx context.Context, id uuid.UUID) (InventoryUnit, error)
	MarkUnitSold(ctx context.Context, id uuid.UUID, customerID uuid.UUID, price float64, soldAt time.Time) error
}

type txRepo struct {
	tx pgx.Tx
}

func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// GenerateSaleNumber returns the next sequential sale number.
func (r *Repository) GenerateSaleNumber(ctx context.Context) (string, error) {
	var number string
	err := r.pool.QueryRow(ctx, `SELECT 'SALE-' || LPAD(nextval('sale_number_seq')::text, 4, '0')`).Scan(&number)
	if err != nil {
		return "", fmt.Errorf("next sale number: %w", err)
	}
	return number, nil
}

const saleColumns = `id, sale_number, customer_id, total, payment_method, notes, created_at`

func scanSale(row pgx.Row) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.SaleNumber, &s.CustomerID, &s.Total, &s.PaymentMethod, &s.Notes, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, ErrNotFound
	}
	return s, err
}

func (r *Repository) GetSale(ctx context.Context, id uuid.UUID) (Sale, error) {
	return scanSale(r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id=$1`, id))
}

func (r *Repository) ListSales(ctx context.Context, req ListSalesRequest) ([]Sale, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT `+saleColumns+` FROM sales
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at < $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`, req.From, req.To, limit, req.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) ListLines(ctx context.Context, saleID uuid.UUID) ([]SaleLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, sale_id, stock_item_id, name, quantity, unit_price
FROM sale_lines WHERE sale_id=$1 ORDER BY id`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SaleLine
	for rows.Next() {
		var l SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.StockItemID, &l.Name, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

const unitColumns = `id, brand, model, year, license_plate, mileage, asking_price, status,
sold_to, sold_price, sold_at, notes, created_at, updated_at`

func scanUnit(row pgx.Row) (InventoryUnit, error) {
	var u InventoryUnit
	err := row.Scan(&u.ID, &u.Brand, &u.Model, &u.Year, &u.LicensePlate, &u.Mileage, &u.AskingPrice,
		&u.Status, &u.SoldTo, &u.SoldPrice, &u.SoldAt, &u.Notes, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return InventoryUnit{}, ErrNotFound
	}
	return u, err
}

func (r *Repository) GetUnit(ctx context.Context, id uuid.UUID) (InventoryUnit, error) {
	return scanUnit(r.pool.QueryRow(ctx, `SELECT `+unitColumns+` FROM inventory_units WHERE id=$1`, id))
}

func (r *Repository) ListUnits(ctx context.Context, status *UnitStatus) ([]InventoryUnit, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+unitColumns+` FROM inventory_units
WHERE ($1::text IS NULL OR status=$1) ORDER BY created_at DESC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InventoryUnit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repository) CreateUnit(ctx context.Context, u InventoryUnit) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `INSERT INTO inventory_units
(id, brand, model, year, license_plate, mileage, asking_price, status, notes, created_at, updated_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, 'available', $7, NOW(), NOW())
RETURNING id`,
		u.Brand, u.Model, u.Year, u.LicensePlate, u.Mileage, u.AskingPrice, u.Notes).Scan(&id)
	return id, err
}

func (r *Repository) UpdateUnit(ctx context.Context, id uuid.UUID, req UpdateUnitRequest) error {
	tag, err := r.pool.Exec(ctx, `UPDATE inventory_units SET
brand        = COALESCE($2, brand),
model        = COALESCE($3, model),
year         = COALESCE($4, year),
mileage      = COALESCE($5, mileage),
asking_price = COALESCE($6, asking_price),
status       = COALESCE($7, status),
notes        = COALESCE($8, notes),
updated_at   = NOW()
WHERE id=$1`,
		id, req.Brand, req.Model, req.Year, req.Mileage, req.AskingPrice, nullableStatus(req.Status), req.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableStatus(s *UnitStatus) any {
	if s == nil {
		return nil
	}
	return string(*s)
}

func (t *txRepo) InsertSale(ctx context.Context, sale Sale) (uuid.UUID, error) {
	var id uuid.UUID
	err := t.tx.QueryRow(ctx, `INSERT INTO sales (id, sale_number, customer_id, total, payment_method, notes, created_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, NOW()) RETURNING id`,
		sale.SaleNumber, sale.CustomerID, sale.Total, sale.PaymentMethod, sale.Notes).Scan(&id)
	return id, err
}

func (t *txRepo) InsertLine(ctx context.Context, line SaleLine) (uuid.UUID, error) {
	var id uuid.UUID
	err := t.tx.QueryRow(ctx, `INSERT INTO sale_lines (id, sale_id, stock_item_id, name, quantity, unit_price)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5) RETURNING id`,
		line.SaleID, line.StockItemID, line.Name, line.Quantity, line.UnitPrice).Scan(&id)
	return id, err
}

func (t *txRepo) GetStockItemForUpdate(ctx context.Context, id uuid.UUID) (string, float64, int, error) {
	var name string
	var sellPrice float64
	var quantity int
	err := t.tx.QueryRow(ctx, `SELECT name, sell_price, quantity FROM stock_items WHERE id=$1 FOR UPDATE`, id).
		Scan(&name, &sellPrice, &quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", 0, 0, ErrStockItemNotFound
	}
	return name, sellPrice, quantity, err
}

func (t *txRepo) DecrementStock(ctx context.Context, id uuid.UUID, qty int, reference string) error {
	if _, err := t.tx.Exec(ctx, `INSERT INTO stock_movements (id, stock_item_id, type, quantity, reference, notes, created_at)
VALUES (gen_random_uuid(), $1, 'out', $2, $3, 'Counter sale', NOW())`, id, qty, reference); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `UPDATE stock_items SET quantity = quantity - $2, updated_at = NOW() WHERE id=$1`, id, qty)
	return err
}

func (t *txRepo) GetUnitForUpdate(ctx context.Context, id uuid.UUID) (InventoryUnit, error) {
	return scanUnit(t.tx.QueryRow(ctx, `SELECT `+unitColumns+` FROM inventory_units WHERE id=$1 FOR UPDATE`, id))
}

func (t *txRepo) MarkUnitSold(ctx context.Context, id uuid.UUID, customerID uuid.UUID, price float64, soldAt time.Time) error {
	_, err := t.tx.Exec(ctx, `UPDATE inventory_units SET
status='sold', sold_to=$2, sold_price=$3, sold_at=$4, updated_at=NOW() WHERE id=$1`,
		id, customerID, price, soldAt)
	return err
}
