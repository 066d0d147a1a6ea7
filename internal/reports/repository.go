package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// JobTotalsRow carries the cost columns needed to resolve a job's
// authoritative total without loading its full line items.
type JobTotalsRow struct {
	FinalCost     *float64
	EstimatedCost *float64
	LaborCost     *float64
	LineSubtotal  float64
}

// Repository provides read-only aggregates over the repair and sales tables.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const jobTotalsQuery = `
SELECT j.final_cost, j.estimated_cost, j.labor_cost,
       COALESCE(p.sub, 0) + COALESCE(s.sub, 0)
FROM repair_jobs j
LEFT JOIN (
    SELECT job_id, SUM(quantity * unit_price) AS sub
    FROM repair_parts GROUP BY job_id
) p ON p.job_id = j.id
LEFT JOIN (
    SELECT job_id, SUM(price) AS sub
    FROM repair_services GROUP BY job_id
) s ON s.job_id = j.id
`

// PaidJobTotals returns cost rows for jobs paid inside the period.
func (r *Repository) PaidJobTotals(ctx context.Context, from, to time.Time) ([]JobTotalsRow, error) {
	return r.jobTotals(ctx, jobTotalsQuery+
		`WHERE j.payment_status = 'paid' AND j.payment_date >= $1 AND j.payment_date < $2`, from, to)
}

// OutstandingJobTotals returns cost rows for delivered jobs that have not
// been paid yet, regardless of period.
func (r *Repository) OutstandingJobTotals(ctx context.Context) ([]JobTotalsRow, error) {
	return r.jobTotals(ctx, jobTotalsQuery+
		`WHERE j.status = 'delivered' AND j.payment_status = 'unpaid'`)
}

func (r *Repository) jobTotals(ctx context.Context, query string, args ...any) ([]JobTotalsRow, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reports: job totals: %w", err)
	}
	defer rows.Close()

	var out []JobTotalsRow
	for rows.Next() {
		var row JobTotalsRow
		if err := rows.Scan(&row.FinalCost, &row.EstimatedCost, &row.LaborCost, &row.LineSubtotal); err != nil {
			return nil, fmt.Errorf("reports: scan job totals: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// JobStatusCounts counts jobs received inside the period grouped by status.
func (r *Repository) JobStatusCounts(ctx context.Context, from, to time.Time) (map[string]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM repair_jobs
		 WHERE received_at >= $1 AND received_at < $2
		 GROUP BY status`, from, to)
	if err != nil {
		return nil, fmt.Errorf("reports: status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("reports: scan status counts: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// SalesTotals sums counter sales created inside the period.
func (r *Repository) SalesTotals(ctx context.Context, from, to time.Time) (count int, revenue float64, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total), 0) FROM sales
		 WHERE created_at >= $1 AND created_at < $2`, from, to).
		Scan(&count, &revenue)
	if err != nil {
		return 0, 0, fmt.Errorf("reports: sales totals: %w", err)
	}
	return count, revenue, nil
}

// MotoSalesTotals sums motorcycle units sold inside the period.
func (r *Repository) MotoSalesTotals(ctx context.Context, from, to time.Time) (count int, revenue float64, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(sold_price), 0) FROM inventory_units
		 WHERE status = 'sold' AND sold_at >= $1 AND sold_at < $2`, from, to).
		Scan(&count, &revenue)
	if err != nil {
		return 0, 0, fmt.Errorf("reports: moto sales totals: %w", err)
	}
	return count, revenue, nil
}

// TopParts lists the best selling parts on jobs received inside the period.
func (r *Repository) TopParts(ctx context.Context, from, to time.Time, limit int) ([]TopPart, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.name, SUM(p.quantity), SUM(p.quantity * p.unit_price)
		 FROM repair_parts p
		 JOIN repair_jobs j ON j.id = p.job_id
		 WHERE j.received_at >= $1 AND j.received_at < $2
		 GROUP BY p.name
		 ORDER BY SUM(p.quantity * p.unit_price) DESC
		 LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("reports: top parts: %w", err)
	}
	defer rows.Close()

	var out []TopPart
	for rows.Next() {
		var tp TopPart
		if err := rows.Scan(&tp.Name, &tp.Quantity, &tp.Revenue); err != nil {
			return nil, fmt.Errorf("reports: scan top parts: %w", err)
		}
		out = append(out, tp)
	}
	return out, rows.Err()
}

// LowStockCount counts stock items at or below their reorder level.
func (r *Repository) LowStockCount(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM stock_items WHERE quantity <= min_quantity`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("reports: low stock count: %w", err)
	}
	return n, nil
}
