package whatsapp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("whatsapp: not found")

// Repository persists templates and the message log in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const templateColumns = `id, name, category, body, active, created_at, updated_at`

func scanTemplate(row pgx.Row) (Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.Name, &t.Category, &t.Body, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Template{}, ErrNotFound
	}
	return t, err
}

func (r *Repository) GetTemplate(ctx context.Context, id uuid.UUID) (Template, error) {
	return scanTemplate(r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM wa_templates WHERE id=$1`, id))
}

// ActiveTemplateByCategory returns one active template of a category,
// oldest first so reminder wording stays stable.
func (r *Repository) ActiveTemplateByCategory(ctx context.Context, category string) (Template, error) {
	return scanTemplate(r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM wa_templates
WHERE category=$1 AND active ORDER BY created_at LIMIT 1`, category))
}

func (r *Repository) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+templateColumns+` FROM wa_templates ORDER BY category, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListPromoTemplates returns active promotional templates, oldest first.
func (r *Repository) ListPromoTemplates(ctx context.Context) ([]Template, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+templateColumns+` FROM wa_templates
WHERE category = ANY($1) AND active ORDER BY created_at`, PromoCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) CreateTemplate(ctx context.Context, t Template) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `INSERT INTO wa_templates (id, name, category, body, active, created_at, updated_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, NOW(), NOW()) RETURNING id`,
		t.Name, t.Category, t.Body, t.Active).Scan(&id)
	return id, err
}

func (r *Repository) UpdateTemplate(ctx context.Context, id uuid.UUID, req UpdateTemplateRequest) error {
	tag, err := r.pool.Exec(ctx, `UPDATE wa_templates SET
name       = COALESCE($2, name),
category   = COALESCE($3, category),
body       = COALESCE($4, body),
active     = COALESCE($5, active),
updated_at = NOW()
WHERE id=$1`, id, req.Name, req.Category, req.Body, req.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM wa_templates WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCandidates loads one row per customer bike (bike-less customers still
// get a row) together with the customer's last repair activity. Rows for the
// same customer are adjacent, most recently serviced bike first.
func (r *Repository) ListCandidates(ctx context.Context) ([]Candidate, error) {
	rows, err := r.pool.Query(ctx, `SELECT
c.id, c.first_name, c.last_name, c.phone, c.whatsapp_opt_out,
COALESCE(m.model, ''), COALESCE(m.license_plate, ''), m.mot_expiry, m.last_service_date,
(SELECT MAX(j.received_at) FROM repair_jobs j WHERE j.customer_id = c.id)
FROM customers c
LEFT JOIN motorcycles m ON m.customer_id = c.id
ORDER BY c.id, m.last_service_date DESC NULLS LAST, m.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.CustomerID, &c.FirstName, &c.LastName, &c.Phone, &c.OptOut,
			&c.VehicleModel, &c.LicensePlate, &c.MOTExpiry, &c.LastServiceDate, &c.LastRepairDate); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PromoCountSince counts promotional messages delivered or queued for a
// customer since the cutoff.
func (r *Repository) PromoCountSince(ctx context.Context, customerID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM wa_messages
WHERE customer_id=$1 AND category = ANY($2) AND status IN ('sent','queued') AND created_at >= $3`,
		customerID, PromoCategories, since).Scan(&n)
	return n, err
}

// MessageCountSince counts all messages delivered or queued for a customer
// since the cutoff.
func (r *Repository) MessageCountSince(ctx context.Context, customerID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM wa_messages
WHERE customer_id=$1 AND status IN ('sent','queued') AND created_at >= $2`,
		customerID, since).Scan(&n)
	return n, err
}

// RecentTemplateNames lists template names used since the cutoff, for
// promotion rotation.
func (r *Repository) RecentTemplateNames(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT template_name FROM wa_messages WHERE created_at >= $1`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// LastTriggerAt returns when a trigger last fired for a customer, so the
// same reminder is not repeated within its window.
func (r *Repository) LastTriggerAt(ctx context.Context, customerID uuid.UUID, trigger TriggerType) (*time.Time, error) {
	var at *time.Time
	err := r.pool.QueryRow(ctx, `SELECT MAX(created_at) FROM wa_messages
WHERE customer_id=$1 AND trigger_type=$2 AND status IN ('sent','queued')`, customerID, trigger).Scan(&at)
	return at, err
}

func (r *Repository) InsertMessage(ctx context.Context, m Message) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `INSERT INTO wa_messages
(id, customer_id, phone, template_id, template_name, category, trigger_type, body, urgent, status, created_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, 'pending', NOW())
RETURNING id`,
		m.CustomerID, m.Phone, m.TemplateID, m.TemplateName, m.Category, m.Trigger, m.Body, m.Urgent).Scan(&id)
	return id, err
}

// MarkMessage finalizes a pending message with its delivery outcome.
func (r *Repository) MarkMessage(ctx context.Context, id uuid.UUID, status MessageStatus, providerID *string, sendErr *string, sentAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE wa_messages SET status=$2, provider_id=$3, error=$4, sent_at=$5 WHERE id=$1`,
		id, status, providerID, sendErr, sentAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMessages returns the message log, newest first.
func (r *Repository) ListMessages(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT id, customer_id, phone, template_id, template_name, category,
trigger_type, body, urgent, status, error, provider_id, created_at, sent_at
FROM wa_messages ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.CustomerID, &m.Phone, &m.TemplateID, &m.TemplateName, &m.Category,
			&m.Trigger, &m.Body, &m.Urgent, &m.Status, &m.Error, &m.ProviderID, &m.CreatedAt, &m.SentAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// RecordCampaign inserts a campaign row for a finished promotional run.
func (r *Repository) RecordCampaign(ctx context.Context, c Campaign) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `INSERT INTO wa_campaigns
(id, name, campaign_type, template_id, status, total_recipients, total_sent, total_delivered, sent_at, created_at, updated_at)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
RETURNING id`,
		c.Name, c.Type, c.TemplateID, c.Status, c.Recipients, c.Sent, c.Delivered, c.SentAt).Scan(&id)
	return id, err
}

// ListCampaigns returns past campaigns, newest first.
func (r *Repository) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, campaign_type, template_id, status,
total_recipients, total_sent, total_delivered, sent_at, created_at, updated_at
FROM wa_campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Campaign
	for rows.Next() {
		var c Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.TemplateID, &c.Status,
			&c.Recipients, &c.Sent, &c.Delivered, &c.SentAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MessageStats aggregates outcomes since the cutoff.
func (r *Repository) MessageStats(ctx context.Context, since time.Time) (Stats, error) {
	stats := Stats{ByStatus: make(map[string]int), ByCategory: make(map[string]int)}
	rows, err := r.pool.Query(ctx, `SELECT status, category, COUNT(*) FROM wa_messages
WHERE created_at >= $1 GROUP BY status, category`, since)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var status, category string
		var n int
		if err := rows.Scan(&status, &category, &n); err != nil {
			return Stats{}, err
		}
		stats.ByStatus[status] += n
		stats.ByCategory[category] += n
		stats.Total += n
	}
	return stats, rows.Err()
}
