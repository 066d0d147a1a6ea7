package repairs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/platform/db"
)

var (
	// ErrNotFound indicates a missing job or line item.
	ErrNotFound = errors.New("repairs: not found")
	// ErrStockItemNotFound indicates the referenced stock item does not exist.
	ErrStockItemNotFound = errors.New("repairs: stock item not found")
)

// Repository provides PostgreSQL backed persistence for repair jobs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service. Part
// consumption touches the stock tables in the same transaction so a job never
// gains a part without the matching stock movement.
type TxRepository interface {
	InsertJob(ctx context.Context, job Job) (uuid.UUID, error)
	InsertService(ctx context.Context, svc Service) (uuid.UUID, error)
	InsertPart(ctx context.Context, part Part) (uuid.UUID, error)
	DeletePart(ctx context.Context, partID uuid.UUID) (Part, error)
	GetStockItemForUpdate(ctx context.Context, stockItemID uuid.UUID) (name string, sellPrice float64, err error)
	InsertStockMovement(ctx context.Context, stockItemID uuid.UUID, movementType string, quantity int, reference, notes string) error
	AdjustStockQuantity(ctx context.Context, stockItemID uuid.UUID, delta int) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// GenerateJobNumber returns the next JOB-NNNN number.
func (r *Repository) GenerateJobNumber(ctx context.Context) (string, error) {
	var number string
	err := r.pool.QueryRow(ctx, `SELECT 'JOB-' || LPAD(nextval('repair_job_number_seq')::text, 4, '0')`).Scan(&number)
	return number, err
}

const jobColumns = `id, job_number, customer_id, motorcycle_id, description, diagnosis, status,
estimated_cost, final_cost, labor_cost, invoice_number, payment_status, payment_date,
notes, received_at, completed_at, delivered_at, created_at, updated_at`

func scanJob(row pgx.Row) (Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.JobNumber, &j.CustomerID, &j.MotorcycleID, &j.Description, &j.Diagnosis,
		&j.Status, &j.EstimatedCost, &j.FinalCost, &j.LaborCost, &j.InvoiceNumber, &j.PaymentStatus,
		&j.PaymentDate, &j.Notes, &j.ReceivedAt, &j.CompletedAt, &j.DeliveredAt, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	return j, nil
}

// GetJob fetches a job by id.
func (r *Repository) GetJob(ctx context.Context, id uuid.UUID) (Job, error) {
	return scanJob(r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM repair_jobs WHERE id=$1`, id))
}

// ListJobs returns jobs matching the filter, newest first.
func (r *Repository) ListJobs(ctx context.Context, req ListJobsRequest) ([]Job, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT `+jobColumns+` FROM repair_jobs
WHERE ($1::text IS NULL OR status=$1)
  AND ($2::text IS NULL OR payment_status=$2)
  AND ($3::uuid IS NULL OR customer_id=$3)
ORDER BY received_at DESC, id
LIMIT $4 OFFSET $5`, nullableStatus(req.Status), nullablePayment(req.Payment), req.CustomerID, limit, req.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// ListParts returns the parts attached to a job.
func (r *Repository) ListParts(ctx context.Context, jobID uuid.UUID) ([]Part, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, repair_job_id, stock_item_id, name, quantity, unit_price, created_at
FROM repair_parts WHERE repair_job_id=$1 ORDER BY created_at, id`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parts := []Part{}
	for rows.Next() {
		var p Part
		if err := rows.Scan(&p.ID, &p.RepairJobID, &p.StockItemID, &p.Name, &p.Quantity, &p.UnitPrice, &p.CreatedAt); err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

// ListServices returns the service lines attached to a job.
func (r *Repository) ListServices(ctx context.Context, jobID uuid.UUID) ([]Service, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, repair_job_id, description, price, created_at
FROM repair_services WHERE repair_job_id=$1 ORDER BY created_at, id`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := []Service{}
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.RepairJobID, &s.Description, &s.Price, &s.CreatedAt); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// ListPartsForJobs loads parts for many jobs at once (reporting).
func (r *Repository) ListPartsForJobs(ctx context.Context, jobIDs []uuid.UUID) (map[uuid.UUID][]Part, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, repair_job_id, stock_item_id, name, quantity, unit_price, created_at
FROM repair_parts WHERE repair_job_id = ANY($1)`, jobIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]Part)
	for rows.Next() {
		var p Part
		if err := rows.Scan(&p.ID, &p.RepairJobID, &p.StockItemID, &p.Name, &p.Quantity, &p.UnitPrice, &p.CreatedAt); err != nil {
			return nil, err
		}
		out[p.RepairJobID] = append(out[p.RepairJobID], p)
	}
	return out, rows.Err()
}

// ListServicesForJobs loads service lines for many jobs at once (reporting).
func (r *Repository) ListServicesForJobs(ctx context.Context, jobIDs []uuid.UUID) (map[uuid.UUID][]Service, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, repair_job_id, description, price, created_at
FROM repair_services WHERE repair_job_id = ANY($1)`, jobIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]Service)
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.RepairJobID, &s.Description, &s.Price, &s.CreatedAt); err != nil {
			return nil, err
		}
		out[s.RepairJobID] = append(out[s.RepairJobID], s)
	}
	return out, rows.Err()
}

// UpdateJob patches editable fields on a job.
func (r *Repository) UpdateJob(ctx context.Context, id uuid.UUID, req UpdateJobRequest) error {
	tag, err := r.pool.Exec(ctx, `UPDATE repair_jobs SET
description    = COALESCE($2, description),
diagnosis      = COALESCE($3, diagnosis),
notes          = COALESCE($4, notes),
estimated_cost = COALESCE($5, estimated_cost),
invoice_number = COALESCE($6, invoice_number),
updated_at     = NOW()
WHERE id=$1`, id, req.Description, req.Diagnosis, req.Notes, req.EstimatedCost, req.InvoiceNumber)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus moves a job to a new status, stamping completed_at/delivered_at
// the first time the job reaches ready or delivered.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status JobStatus, now time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE repair_jobs SET
status       = $2,
completed_at = CASE WHEN $2 = 'ready' THEN $3 ELSE completed_at END,
delivered_at = CASE WHEN $2 = 'delivered' THEN $3 ELSE delivered_at END,
updated_at   = NOW()
WHERE id=$1`, id, string(status), now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetFinalCost stores the manual total override.
func (r *Repository) SetFinalCost(ctx context.Context, id uuid.UUID, finalCost float64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE repair_jobs SET final_cost=$2, updated_at=NOW() WHERE id=$1`, id, finalCost)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPaid settles a job in a single atomic update: payment status, payment
// date and the snapshot of final and labour cost. Last write wins when two
// clients settle the same job concurrently.
func (r *Repository) MarkPaid(ctx context.Context, id uuid.UUID, finalCost, laborCost float64, paidAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE repair_jobs SET
payment_status = 'paid',
payment_date   = $2,
final_cost     = $3,
labor_cost     = $4,
updated_at     = NOW()
WHERE id=$1`, id, paidAt, finalCost, laborCost)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteService removes a service line.
func (r *Repository) DeleteService(ctx context.Context, serviceID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM repair_services WHERE id=$1`, serviceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertServiceLine attaches a single service line outside a transaction.
func (r *Repository) InsertServiceLine(ctx context.Context, svc Service) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `INSERT INTO repair_services (id, repair_job_id, description, price, created_at)
VALUES (gen_random_uuid(), $1, $2, $3, NOW()) RETURNING id`, svc.RepairJobID, svc.Description, svc.Price).Scan(&id)
	return id, err
}

// --- transactional operations ---

func (t *txRepo) InsertJob(ctx context.Context, job Job) (uuid.UUID, error) {
	var id uuid.UUID
	err := t.tx.QueryRow(ctx, `INSERT INTO repair_jobs
(id, job_number, customer_id, motorcycle_id, description, status, estimated_cost, payment_status, notes, received_at, created_at, updated_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW(), NOW())
RETURNING id`, job.JobNumber, job.CustomerID, job.MotorcycleID, job.Description, string(job.Status),
		job.EstimatedCost, string(job.PaymentStatus), job.Notes).Scan(&id)
	return id, err
}

func (t *txRepo) InsertService(ctx context.Context, svc Service) (uuid.UUID, error) {
	var id uuid.UUID
	err := t.tx.QueryRow(ctx, `INSERT INTO repair_services (id, repair_job_id, description, price, created_at)
VALUES (gen_random_uuid(), $1, $2, $3, NOW()) RETURNING id`, svc.RepairJobID, svc.Description, svc.Price).Scan(&id)
	return id, err
}

func (t *txRepo) InsertPart(ctx context.Context, part Part) (uuid.UUID, error) {
	var id uuid.UUID
	err := t.tx.QueryRow(ctx, `INSERT INTO repair_parts (id, repair_job_id, stock_item_id, name, quantity, unit_price, created_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, NOW()) RETURNING id`,
		part.RepairJobID, part.StockItemID, part.Name, part.Quantity, part.UnitPrice).Scan(&id)
	return id, err
}

func (t *txRepo) DeletePart(ctx context.Context, partID uuid.UUID) (Part, error) {
	var p Part
	err := t.tx.QueryRow(ctx, `DELETE FROM repair_parts WHERE id=$1
RETURNING id, repair_job_id, stock_item_id, name, quantity, unit_price, created_at`, partID).
		Scan(&p.ID, &p.RepairJobID, &p.StockItemID, &p.Name, &p.Quantity, &p.UnitPrice, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Part{}, ErrNotFound
		}
		return Part{}, err
	}
	return p, nil
}

func (t *txRepo) GetStockItemForUpdate(ctx context.Context, stockItemID uuid.UUID) (string, float64, error) {
	var name string
	var sellPrice float64
	err := t.tx.QueryRow(ctx, `SELECT name, sell_price FROM stock_items WHERE id=$1 FOR UPDATE`, stockItemID).Scan(&name, &sellPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, ErrStockItemNotFound
		}
		return "", 0, err
	}
	return name, sellPrice, nil
}

func (t *txRepo) InsertStockMovement(ctx context.Context, stockItemID uuid.UUID, movementType string, quantity int, reference, notes string) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO stock_movements (id, stock_item_id, type, quantity, reference, notes, created_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, NOW())`, stockItemID, movementType, quantity, reference, notes)
	return err
}

func (t *txRepo) AdjustStockQuantity(ctx context.Context, stockItemID uuid.UUID, delta int) error {
	_, err := t.tx.Exec(ctx, `UPDATE stock_items SET quantity = quantity + $2, updated_at = NOW() WHERE id=$1`, stockItemID, delta)
	return err
}

func nullableStatus(s *JobStatus) any {
	if s == nil {
		return nil
	}
	return string(*s)
}

func nullablePayment(p *PaymentStatus) any {
	if p == nil {
		return nil
	}
	return string(*p)
}
