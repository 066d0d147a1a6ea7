package customers

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
	ErrNotFound      = errors.New("customers: not found")
	ErrAlreadyExists = errors.New("customers: phone already registered")
)

// Repository persists customers in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const customerColumns = `id, first_name, last_name, phone, email, address, notes, whatsapp_opt_out, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Phone, &c.Email, &c.Address, &c.Notes,
		&c.WhatsAppOptOut, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return c, err
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id=$1`, id))
}

// List returns matching customers together with the unfiltered total.
func (r *Repository) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	where := ""
	args := []any{}
	if req.Search != "" {
		where = `WHERE (first_name || ' ' || last_name) ILIKE $1 OR phone ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+req.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM customers %s ORDER BY first_name, last_name LIMIT $%d OFFSET $%d`,
		customerColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *Repository) Create(ctx context.Context, c Customer) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `INSERT INTO customers
(id, first_name, last_name, phone, email, address, notes, whatsapp_opt_out, created_at, updated_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
RETURNING id`,
		c.FirstName, c.LastName, c.Phone, c.Email, c.Address, c.Notes, c.WhatsAppOptOut).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, ErrAlreadyExists
		}
		return uuid.Nil, err
	}
	return id, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) error {
	tag, err := r.pool.Exec(ctx, `UPDATE customers SET
first_name       = COALESCE($2, first_name),
last_name        = COALESCE($3, last_name),
phone            = COALESCE($4, phone),
email            = COALESCE($5, email),
address          = COALESCE($6, address),
notes            = COALESCE($7, notes),
whatsapp_opt_out = COALESCE($8, whatsapp_opt_out),
updated_at       = NOW()
WHERE id=$1`,
		id, req.FirstName, req.LastName, req.Phone, req.Email, req.Address, req.Notes, req.WhatsAppOptOut)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
