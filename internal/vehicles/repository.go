package vehicles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound   = errors.New("vehicles: not found")
	ErrPlateTaken = errors.New("vehicles: license plate already registered")
)

// Repository persists motorcycles and the brand catalog in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const motorcycleColumns = `id, customer_id, brand, model, year, license_plate, vin, color, mileage,
mot_expiry, last_service_date, notes, created_at, updated_at`

func scanMotorcycle(row pgx.Row) (Motorcycle, error) {
	var m Motorcycle
	err := row.Scan(&m.ID, &m.CustomerID, &m.Brand, &m.Model, &m.Year, &m.LicensePlate, &m.VIN,
		&m.Color, &m.Mileage, &m.MOTExpiry, &m.LastServiceDate, &m.Notes, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Motorcycle{}, ErrNotFound
	}
	return m, err
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Motorcycle, error) {
	return scanMotorcycle(r.pool.QueryRow(ctx, `SELECT `+motorcycleColumns+` FROM motorcycles WHERE id=$1`, id))
}

func (r *Repository) List(ctx context.Context, req ListMotorcyclesRequest) ([]Motorcycle, error) {
	where := "WHERE ($1::uuid IS NULL OR customer_id=$1)"
	args := []any{req.CustomerID}
	if req.Search != "" {
		where += ` AND (license_plate ILIKE $2 OR brand ILIKE $2 OR model ILIKE $2)`
		args = append(args, "%"+req.Search+"%")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM motorcycles %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		motorcycleColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Motorcycle
	for rows.Next() {
		m, err := scanMotorcycle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) Create(ctx context.Context, m Motorcycle) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `INSERT INTO motorcycles
(id, customer_id, brand, model, year, license_plate, vin, color, mileage, mot_expiry, notes, created_at, updated_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
RETURNING id`,
		m.CustomerID, m.Brand, m.Model, m.Year, m.LicensePlate, m.VIN, m.Color, m.Mileage, m.MOTExpiry, m.Notes).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, ErrPlateTaken
		}
		return uuid.Nil, err
	}
	return id, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, req UpdateMotorcycleRequest) error {
	tag, err := r.pool.Exec(ctx, `UPDATE motorcycles SET
brand             = COALESCE($2, brand),
model             = COALESCE($3, model),
year              = COALESCE($4, year),
license_plate     = COALESCE($5, license_plate),
vin               = COALESCE($6, vin),
color             = COALESCE($7, color),
mileage           = COALESCE($8, mileage),
mot_expiry        = COALESCE($9, mot_expiry),
last_service_date = COALESCE($10, last_service_date),
notes             = COALESCE($11, notes),
updated_at        = NOW()
WHERE id=$1`,
		id, req.Brand, req.Model, req.Year, req.LicensePlate, req.VIN, req.Color, req.Mileage,
		req.MOTExpiry, req.LastServiceDate, req.Notes)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrPlateTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM motorcycles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastService stamps the last service date when a repair is delivered.
func (r *Repository) TouchLastService(ctx context.Context, id uuid.UUID, servicedAt string) error {
	_, err := r.pool.Exec(ctx, `UPDATE motorcycles SET last_service_date=$2::date, updated_at=NOW() WHERE id=$1`, id, servicedAt)
	return err
}

// ListBrands returns the brand catalog with model names.
func (r *Repository) ListBrands(ctx context.Context) ([]Brand, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, models FROM motorcycle_brands ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Brand
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.Models); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
